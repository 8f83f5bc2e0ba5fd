package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	redislib "github.com/redis/go-redis/v9"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

// githubRequestsPerHour is GitHub's documented limit for authenticated
// REST calls.
const githubRequestsPerHour = 5000

// LimitsStore reads rate limit counters.
type LimitsStore interface {
	Get(ctx context.Context, key string) (string, error)
	RateLimitKey(scope string) string
}

// Limits reports the GitHub API budget and the caller's position in the
// local rate limit window.
func Limits(cfg config.RateLimitConfig, store LimitsStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authenticated := middleware.SessionFromContext(r.Context()) != nil

		var used int64
		if store != nil && !cfg.Disabled {
			if ip := middleware.ClientIP(r); ip != "" {
				raw, err := store.Get(r.Context(), store.RateLimitKey("ip:"+ip))
				switch {
				case err == nil:
					used, _ = strconv.ParseInt(raw, 10, 64)
				case !errors.Is(err, redislib.Nil):
					if logg != nil {
						logg.Warn(r.Context(), "limits.counter_unavailable")
					}
				}
			}
		}

		responses.WriteSuccess(w, map[string]any{
			"githubApi": map[string]any{
				"requestsPerHour": githubRequestsPerHour,
				"authenticated":   authenticated,
			},
			"app": map[string]any{
				"requestsPerWindow": cfg.IPLimit,
				"windowSeconds":     int(cfg.Window.Seconds()),
				"requestsUsed":      used,
			},
		})
	}
}
