package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	GitHub       GitHubConfig
	Sync         SyncConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FINANZAS_APP_ENV" required:"true"`
	Port         string `envconfig:"FINANZAS_APP_PORT" default:"3001"`
	LogLevel     string `envconfig:"FINANZAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FINANZAS_LOG_WARN_STACK" default:"false"`
	FrontendURL  string `envconfig:"FINANZAS_FRONTEND_URL" default:"https://juanestebanprog.github.io"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FINANZAS_DB_DSN"`

	LegacyHost     string `envconfig:"FINANZAS_DB_HOST"`
	LegacyPort     int    `envconfig:"FINANZAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FINANZAS_DB_USER"`
	LegacyPassword string `envconfig:"FINANZAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FINANZAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FINANZAS_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"FINANZAS_SQLITE_PATH" default:"finanzas.db"`

	MaxOpenConns    int           `envconfig:"FINANZAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FINANZAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FINANZAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FINANZAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FINANZAS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FINANZAS_REDIS_ADDR"`
	Password     string        `envconfig:"FINANZAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FINANZAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FINANZAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FINANZAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FINANZAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FINANZAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FINANZAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	Secret     string        `envconfig:"FINANZAS_SESSION_SECRET" required:"true"`
	CookieName string        `envconfig:"FINANZAS_SESSION_COOKIE" default:"finanzas_session"`
	TTL        time.Duration `envconfig:"FINANZAS_SESSION_TTL" default:"720h"`
	Secure     bool          `envconfig:"FINANZAS_SESSION_SECURE" default:"false"`
}

type GitHubConfig struct {
	ClientID     string `envconfig:"FINANZAS_GITHUB_CLIENT_ID" required:"true"`
	ClientSecret string `envconfig:"FINANZAS_GITHUB_CLIENT_SECRET" required:"true"`
	CallbackURL  string `envconfig:"FINANZAS_GITHUB_CALLBACK_URL" required:"true"`
	Scopes       string `envconfig:"FINANZAS_GITHUB_SCOPES" default:"gist"`
}

// ScopeList splits the configured OAuth scopes.
func (g GitHubConfig) ScopeList() []string {
	fields := strings.FieldsFunc(g.Scopes, func(r rune) bool {
		return r == ',' || r == ' '
	})
	scopes := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			scopes = append(scopes, trimmed)
		}
	}
	return scopes
}

type SyncConfig struct {
	Timeout  time.Duration `envconfig:"FINANZAS_SYNC_TIMEOUT" default:"30s"`
	Filename string        `envconfig:"FINANZAS_SYNC_FILENAME" default:"finanzas-data.json"`
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"FINANZAS_RATE_LIMIT_WINDOW" default:"15m"`
	IPLimit  int           `envconfig:"FINANZAS_RATE_LIMIT_IP_LIMIT" default:"100"`
	Disabled bool          `envconfig:"FINANZAS_RATE_LIMIT_DISABLED" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FINANZAS_CORS_ORIGINS"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FINANZAS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FINANZAS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
