package middleware

import (
	"context"

	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
)

type contextKey string

const (
	ctxSessionToken contextKey = "session_token"
	ctxSessionData  contextKey = "session_data"
)

// SessionTokenFromContext returns the cookie token seeded by Auth.
func SessionTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionToken).(string); ok {
		return v
	}
	return ""
}

// SessionFromContext returns the session data seeded by Auth.
func SessionFromContext(ctx context.Context) *session.Data {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSessionData).(*session.Data); ok {
		return v
	}
	return nil
}

// WithSession injects the session token and data into the context.
func WithSession(ctx context.Context, token string, data *session.Data) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSessionToken, token)
	return context.WithValue(ctx, ctxSessionData, data)
}
