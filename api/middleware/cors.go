package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",              // local dev frontend
	"http://localhost:5500",              // live-server
	"https://juanestebanprog.github.io",  // GitHub Pages frontend
}

// CORS applies the allowed-origin policy. Cookies carry the session, so
// credentials must be allowed.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
