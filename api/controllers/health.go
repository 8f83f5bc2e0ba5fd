package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	"github.com/juanestebanprog/finanzas-backend/pkg/db"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
	"github.com/juanestebanprog/finanzas-backend/pkg/redis"
)

const healthCheckTimeout = 5 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Finanzas-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports whether the backing stores answer. Probe failures are
// aggregated so a single response names every unhealthy dependency.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Finanzas-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		var failures error

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = "down"
				failures = multierr.Append(failures, err)
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "down"
				failures = multierr.Append(failures, err)
			} else {
				checks["redis"] = "up"
			}
		}

		if failures != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, failures, "readiness probe"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"status":    "ready",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    checks,
		})
	}
}
