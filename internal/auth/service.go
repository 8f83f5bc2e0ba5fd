package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/github"
	redislib "github.com/redis/go-redis/v9"
)

const (
	stateBytes = 16
	stateTTL   = 10 * time.Minute
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	StartLogin(ctx context.Context) (string, error)
	Callback(ctx context.Context, code, state string) (string, *session.Data, error)
	Status(ctx context.Context, sessionToken string) (*Status, error)
	Logout(ctx context.Context, sessionToken string) error
}

// Status reports whether the caller holds an active session.
type Status struct {
	Authenticated bool   `json:"authenticated"`
	Login         string `json:"username,omitempty"`
	HasGist       bool   `json:"hasGist"`
}

type oauthClient interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchUser(ctx context.Context, token string) (*github.User, error)
}

type sessionManager interface {
	Create(ctx context.Context, data session.Data) (string, error)
	Get(ctx context.Context, token string) (*session.Data, error)
	Revoke(ctx context.Context, token string) error
}

type stateStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OAuthStateKey(state string) string
}

type service struct {
	oauth    oauthClient
	sessions sessionManager
	states   stateStore
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	OAuth      oauthClient
	Sessions   sessionManager
	StateStore stateStore
}

// NewService constructs the GitHub login service.
func NewService(params ServiceParams) (Service, error) {
	if params.OAuth == nil {
		return nil, fmt.Errorf("oauth client is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.StateStore == nil {
		return nil, fmt.Errorf("state store is required")
	}
	return &service{
		oauth:    params.OAuth,
		sessions: params.Sessions,
		states:   params.StateStore,
	}, nil
}

// StartLogin stores a one-time state and returns the GitHub authorize URL.
func (s *service) StartLogin(ctx context.Context) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate oauth state")
	}
	if err := s.states.Set(ctx, s.states.OAuthStateKey(state), "1", stateTTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store oauth state")
	}
	return s.oauth.AuthorizeURL(state), nil
}

// Callback finishes the OAuth flow: verifies the state, exchanges the code,
// loads the GitHub profile, and opens a session. Returns the session token.
func (s *service) Callback(ctx context.Context, code, state string) (string, *session.Data, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}
	if err := s.consumeState(ctx, state); err != nil {
		return "", nil, err
	}

	accessToken, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, err
	}
	user, err := s.oauth.FetchUser(ctx, accessToken)
	if err != nil {
		return "", nil, err
	}

	data := session.Data{
		UserID:      user.ID,
		Login:       user.Login,
		AccessToken: accessToken,
	}
	token, err := s.sessions.Create(ctx, data)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return token, &data, nil
}

// Status reports the session state; an absent session is a normal answer,
// not an error.
func (s *service) Status(ctx context.Context, sessionToken string) (*Status, error) {
	data, err := s.sessions.Get(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return &Status{Authenticated: false}, nil
		}
		return nil, err
	}
	return &Status{
		Authenticated: true,
		Login:         data.Login,
		HasGist:       data.GistID != "",
	}, nil
}

// Logout revokes the session. Revoking an absent session is a no-op.
func (s *service) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.Revoke(ctx, sessionToken)
}

func (s *service) consumeState(ctx context.Context, state string) error {
	if strings.TrimSpace(state) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing oauth state")
	}
	key := s.states.OAuthStateKey(state)
	if _, err := s.states.Get(ctx, key); err != nil {
		if errors.Is(err, redislib.Nil) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown or expired oauth state")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load oauth state")
	}
	if err := s.states.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume oauth state")
	}
	return nil
}

func generateState() (string, error) {
	bytes := make([]byte, stateBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
