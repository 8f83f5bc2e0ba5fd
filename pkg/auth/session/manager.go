package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	redisclient "github.com/juanestebanprog/finanzas-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

const tokenBytes = 32

var ErrNoSession = errors.New("no active session")

// Data is the per-user state persisted for the lifetime of a login.
type Data struct {
	UserID      int64     `json:"user_id"`
	Login       string    `json:"login"`
	AccessToken string    `json:"access_token"`
	GistID      string    `json:"gist_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StorageKey identifies the user's ledger document. GitHub user ids are
// stable across login renames, so the key follows the numeric id.
func (d *Data) StorageKey() string {
	return fmt.Sprintf("github:%d", d.UserID)
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(id string) string
}

// Manager issues opaque cookie tokens and stores session state in Redis.
// Redis is keyed by an HMAC of the token, so a keyspace dump never exposes
// a live cookie value.
type Manager struct {
	store      sessionStore
	keyer      sessionKeyer
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// Reader exposes the read-only surface needed by middleware.
type Reader interface {
	Get(ctx context.Context, token string) (*Data, error)
	CookieName() string
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store:      client,
		keyer:      client,
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
	}, nil
}

// Create stores the session data and returns the opaque token for the cookie.
func (m *Manager) Create(ctx context.Context, data Data) (string, error) {
	if strings.TrimSpace(data.AccessToken) == "" {
		return "", fmt.Errorf("access token is required")
	}
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now().UTC()
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := m.save(ctx, token, data); err != nil {
		return "", err
	}
	return token, nil
}

// Get loads the session tied to the token, or ErrNoSession when absent.
func (m *Manager) Get(ctx context.Context, token string) (*Data, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoSession
	}
	raw, err := m.store.Get(ctx, m.key(token))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &data, nil
}

// SetGistID records the bound gist on an existing session.
func (m *Manager) SetGistID(ctx context.Context, token, gistID string) error {
	data, err := m.Get(ctx, token)
	if err != nil {
		return err
	}
	data.GistID = gistID
	return m.save(ctx, token, *data)
}

// Revoke deletes the session tied to the token.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return m.store.Del(ctx, m.key(token))
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Cookie builds the session cookie carrying the token.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie builds a cookie that clears the session on the client.
func (m *Manager) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) save(ctx context.Context, token string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return m.store.Set(ctx, m.key(token), string(payload), m.ttl)
}

func (m *Manager) key(token string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(token))
	return m.keyer.SessionKey(hex.EncodeToString(mac.Sum(nil)))
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
