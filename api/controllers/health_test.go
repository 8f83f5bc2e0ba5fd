package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/juanestebanprog/finanzas-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig())(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get("X-Finanzas-Env") != "test" {
		t.Fatal("env header missing")
	}
}

func TestHealthReadyAllUp(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := HealthReady(testConfig(), newTestLogger(), stubPinger{}, stubPinger{})
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeEnvelope(t, rec.Body.Bytes(), &payload)
	if payload.Status != "ready" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
	if payload.Checks["database"] != "up" || payload.Checks["redis"] != "up" {
		t.Fatalf("unexpected checks: %+v", payload.Checks)
	}
}

func TestHealthReadyReportsDownDependencies(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := HealthReady(testConfig(), newTestLogger(), stubPinger{err: errors.New("connection refused")}, stubPinger{})
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected error code %q", code)
	}
}
