package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without tags.
const EnvPrefix = "FINANZAS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "FINANZAS_APP_ENV"
	EnvPort     = "FINANZAS_APP_PORT"
	EnvDBDSN    = "FINANZAS_DB_DSN"
	EnvDBHost   = "FINANZAS_DB_HOST"
	EnvDBUser   = "FINANZAS_DB_USER"
	EnvDBName   = "FINANZAS_DB_NAME"
	EnvRedisURL = "FINANZAS_REDIS_URL"

	EnvSessionSecret      = "FINANZAS_SESSION_SECRET"
	EnvGitHubClientID     = "FINANZAS_GITHUB_CLIENT_ID"
	EnvGitHubClientSecret = "FINANZAS_GITHUB_CLIENT_SECRET"
	EnvGitHubCallbackURL  = "FINANZAS_GITHUB_CALLBACK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
