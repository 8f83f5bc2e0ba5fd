package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	authsvc "github.com/juanestebanprog/finanzas-backend/internal/auth"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	syncsvc "github.com/juanestebanprog/finanzas-backend/internal/sync"
	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
	"github.com/juanestebanprog/finanzas-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionManager struct{}

func (stubSessionManager) Get(_ context.Context, token string) (*session.Data, error) {
	if token != "tok-1" {
		return nil, session.ErrNoSession
	}
	return &session.Data{UserID: 42, Login: "juanes", AccessToken: "gho_test"}, nil
}

func (stubSessionManager) CookieName() string { return "finanzas_session" }

func (stubSessionManager) Cookie(token string) *http.Cookie {
	return &http.Cookie{Name: "finanzas_session", Value: token, Path: "/"}
}

func (stubSessionManager) ExpiredCookie() *http.Cookie {
	return &http.Cookie{Name: "finanzas_session", Value: "", Path: "/", MaxAge: -1}
}

type stubAuthService struct{}

func (stubAuthService) StartLogin(context.Context) (string, error) {
	return "https://github.com/login/oauth/authorize?state=abc", nil
}

func (stubAuthService) Callback(context.Context, string, string) (string, *session.Data, error) {
	return "tok-1", &session.Data{UserID: 42, Login: "juanes"}, nil
}

func (stubAuthService) Status(context.Context, string) (*authsvc.Status, error) {
	return &authsvc.Status{Authenticated: false}, nil
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubLedgerService struct{}

func (stubLedgerService) Data(context.Context, string) (*ledger.Ledger, error) {
	return ledger.Empty(), nil
}

func (stubLedgerService) Replace(_ context.Context, _ string, doc *ledger.Ledger) (*ledger.Ledger, error) {
	return doc, nil
}

func (stubLedgerService) AddMovement(context.Context, string, ledger.AddMovementInput) (*ledger.MovementOutcome, error) {
	return &ledger.MovementOutcome{}, nil
}

func (stubLedgerService) ListMovements(context.Context, string, ledger.Filter) ([]ledger.Movement, error) {
	return nil, nil
}

func (stubLedgerService) MovementsForDay(context.Context, string, string) ([]ledger.Movement, error) {
	return nil, nil
}

func (stubLedgerService) AddDebt(context.Context, string, ledger.AddDebtInput) (*ledger.DebtOutcome, error) {
	return &ledger.DebtOutcome{}, nil
}

func (stubLedgerService) ListDebts(context.Context, string) (*ledger.Debts, error) {
	return &ledger.Debts{OwedByMe: []ledger.Debt{}, OwedToMe: []ledger.Debt{}}, nil
}

func (stubLedgerService) ApplyPayment(context.Context, string, ledger.PaymentInput) (*ledger.PaymentOutcome, error) {
	return &ledger.PaymentOutcome{}, nil
}

func (stubLedgerService) Settle(context.Context, string, ledger.SettleInput) (*ledger.SettlementOutcome, error) {
	return &ledger.SettlementOutcome{}, nil
}

func (stubLedgerService) Summary(context.Context, string) (*ledger.Summary, error) {
	return &ledger.Summary{}, nil
}

type stubSyncService struct{}

func (stubSyncService) Sync(context.Context, syncsvc.Attempt) (*syncsvc.Result, error) {
	return &syncsvc.Result{Ledger: ledger.Empty()}, nil
}

func (stubSyncService) Push(context.Context, syncsvc.Attempt) (string, error) { return "", nil }

func (stubSyncService) Pull(context.Context, syncsvc.Attempt) (*ledger.Ledger, error) {
	return ledger.Empty(), nil
}

func (stubSyncService) State(string) enums.SyncState { return enums.SyncStateIdle }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", FrontendURL: "https://juanestebanprog.github.io"},
	}
}

func newTestRouter(registry *prometheus.Registry) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: zerolog.Disabled, Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil, // redis client: rate limiting and counters disabled
		stubSessionManager{},
		stubAuthService{},
		stubLedgerService{},
		stubSyncService{},
		registry,
	)
}

func TestProtectedRoutesRejectAnonymousCallers(t *testing.T) {
	router := newTestRouter(nil)

	targets := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/data"},
		{http.MethodPost, "/api/data"},
		{http.MethodGet, "/api/summary"},
		{http.MethodGet, "/api/movements"},
		{http.MethodPost, "/api/movements"},
		{http.MethodGet, "/api/movements/day/2025-08-12"},
		{http.MethodGet, "/api/debts"},
		{http.MethodPost, "/api/debts"},
		{http.MethodPost, "/api/debts/d1/payments"},
		{http.MethodPost, "/api/debts/d1/settle"},
		{http.MethodPost, "/api/sync"},
		{http.MethodPost, "/api/logout"},
	}

	for _, target := range targets {
		req := httptest.NewRequest(target.method, target.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", target.method, target.path, rec.Code)
		}
	}
}

func TestSessionCookieOpensProtectedRoutes(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.AddCookie(&http.Cookie{Name: "finanzas_session", Value: "tok-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "movements") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAnonymousFriendlyRoutes(t *testing.T) {
	router := newTestRouter(nil)

	for _, path := range []string{"/health/live", "/health/ready", "/api/health", "/api/auth/status", "/api/limits"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestLoginRedirectsToGitHub(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/github", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "https://github.com/login/oauth/authorize") {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestCallbackSetsSessionCookie(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=c1&state=s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "tok-1" {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)
	syncMetrics.IncSuccess("sync")

	router := newTestRouter(registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sync_success") {
		t.Fatalf("metrics output missing counters: %s", rec.Body.String())
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	req.AddCookie(&http.Cookie{Name: "finanzas_session", Value: "tok-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
