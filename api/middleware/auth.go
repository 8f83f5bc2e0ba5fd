package middleware

import (
	"errors"
	"net/http"

	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

// Auth resolves the session cookie and seeds the request context with the
// session data. Requests without an active session get 401 so the client
// can prompt re-authentication.
func Auth(sessions session.Reader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessions.CookieName())
			if err != nil || cookie.Value == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}

			data, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, session.ErrNoSession) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}

			ctx := WithSession(r.Context(), cookie.Value, data)
			if logg != nil {
				ctx = logg.WithUserID(ctx, data.Login)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
