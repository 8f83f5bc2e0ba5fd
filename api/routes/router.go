package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/juanestebanprog/finanzas-backend/api/controllers"
	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	authsvc "github.com/juanestebanprog/finanzas-backend/internal/auth"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	syncsvc "github.com/juanestebanprog/finanzas-backend/internal/sync"
	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	"github.com/juanestebanprog/finanzas-backend/pkg/db"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
	"github.com/juanestebanprog/finanzas-backend/pkg/redis"
)

type sessionManager interface {
	session.Reader
	Cookie(token string) *http.Cookie
	ExpiredCookie() *http.Cookie
}

// NewRouter wires middleware and endpoints for the whole HTTP surface.
// Everything under /api requires a session except status and limits, which
// answer anonymous callers too.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions sessionManager,
	authService authsvc.Service,
	ledgerService ledger.Service,
	syncService syncsvc.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger(redisClient)))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/auth/github", func(r chi.Router) {
		r.Get("/", controllers.AuthLogin(authService, logg))
		r.Get("/callback", controllers.AuthCallback(authService, sessions, cfg.App.FrontendURL, logg))
	})

	r.Route("/api", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))
		}

		// Anonymous-friendly endpoints.
		r.Get("/health", controllers.HealthReady(cfg, logg, dbP, redisPinger(redisClient)))
		r.Get("/auth/status", controllers.AuthStatus(authService, sessions.CookieName(), logg))
		r.Get("/limits", controllers.Limits(cfg.RateLimit, limitsStore(redisClient), logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessions, logg))

			r.Post("/logout", controllers.AuthLogout(authService, sessions, logg))

			r.Get("/data", controllers.DataGet(ledgerService, logg))
			r.Post("/data", controllers.DataReplace(ledgerService, logg))
			r.Get("/summary", controllers.SummaryGet(ledgerService, logg))

			r.Route("/movements", func(r chi.Router) {
				r.Post("/", controllers.MovementCreate(ledgerService, logg))
				r.Get("/", controllers.MovementList(ledgerService, logg))
				r.Get("/day/{date}", controllers.MovementsByDay(ledgerService, logg))
			})

			r.Route("/debts", func(r chi.Router) {
				r.Post("/", controllers.DebtCreate(ledgerService, logg))
				r.Get("/", controllers.DebtList(ledgerService, logg))
				r.Post("/{debtId}/payments", controllers.DebtPayment(ledgerService, logg))
				r.Post("/{debtId}/settle", controllers.DebtSettle(ledgerService, logg))
			})

			r.Route("/sync", func(r chi.Router) {
				r.Post("/", controllers.SyncRun(syncService, logg))
				r.Get("/state", controllers.SyncState(syncService, logg))
			})
		})
	})

	return r
}

// Typed-nil clients must become nil interfaces so the handlers' nil checks
// hold.
func redisPinger(c *redis.Client) redis.Pinger {
	if c == nil {
		return nil
	}
	return c
}

func limitsStore(c *redis.Client) controllers.LimitsStore {
	if c == nil {
		return nil
	}
	return c
}
