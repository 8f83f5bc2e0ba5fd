package controllers

import (
	"net/http"
	"strings"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/api/responses"
	authsvc "github.com/juanestebanprog/finanzas-backend/internal/auth"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

// CookieWriter issues and clears the session cookie.
type CookieWriter interface {
	Cookie(token string) *http.Cookie
	ExpiredCookie() *http.Cookie
}

// AuthLogin starts the GitHub OAuth flow by redirecting to the authorize
// URL with a stored one-time state.
func AuthLogin(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		url, err := svc.StartLogin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

// AuthCallback finishes the OAuth flow. On success it sets the session
// cookie and sends the browser back to the frontend; on failure the
// frontend login page gets an error marker instead of a JSON body, since
// the browser is the caller here.
func AuthCallback(svc authsvc.Service, cookies CookieWriter, frontendURL string, logg *logger.Logger) http.HandlerFunc {
	base := strings.TrimRight(frontendURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")

		token, data, err := svc.Callback(r.Context(), code, state)
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "auth.callback_failed", err)
			}
			http.Redirect(w, r, base+"/login?error=oauth_failed", http.StatusFound)
			return
		}

		http.SetCookie(w, cookies.Cookie(token))
		if logg != nil {
			ctx := logg.WithUserID(r.Context(), data.Login)
			logg.Info(ctx, "auth.login")
		}
		http.Redirect(w, r, base+"/?auth=success", http.StatusFound)
	}
}

// AuthStatus reports whether the caller holds an active session. Anonymous
// callers get authenticated=false, never 401.
func AuthStatus(svc authsvc.Service, cookieName string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var token string
		if cookie, err := r.Cookie(cookieName); err == nil {
			token = cookie.Value
		}

		status, err := svc.Status(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// AuthLogout revokes the session and clears the cookie.
func AuthLogout(svc authsvc.Service, cookies CookieWriter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token := middleware.SessionTokenFromContext(r.Context())
		if token != "" {
			if err := svc.Logout(r.Context(), token); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		http.SetCookie(w, cookies.ExpiredCookie())
		responses.WriteSuccess(w, map[string]string{"message": "session closed"})
	}
}
