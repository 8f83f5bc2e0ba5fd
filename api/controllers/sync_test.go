package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	syncsvc "github.com/juanestebanprog/finanzas-backend/internal/sync"
	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
)

type stubSyncService struct {
	result   *syncsvc.Result
	err      error
	attempt  syncsvc.Attempt
	stateKey string
}

func (s *stubSyncService) Sync(_ context.Context, attempt syncsvc.Attempt) (*syncsvc.Result, error) {
	s.attempt = attempt
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubSyncService) Push(context.Context, syncsvc.Attempt) (string, error) {
	return "", nil
}

func (s *stubSyncService) Pull(context.Context, syncsvc.Attempt) (*ledger.Ledger, error) {
	return nil, nil
}

func (s *stubSyncService) State(userKey string) enums.SyncState {
	s.stateKey = userKey
	return enums.SyncStateIdle
}

func TestSyncRun(t *testing.T) {
	syncedAt := time.Date(2025, 8, 12, 10, 30, 0, 0, time.UTC)
	svc := &stubSyncService{result: &syncsvc.Result{
		Ledger:   ledger.Empty(),
		GistID:   "gist-42",
		SyncedAt: syncedAt,
	}}

	req := withTestSession(httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	rec := httptest.NewRecorder()

	SyncRun(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.attempt.UserKey != "github:42" || svc.attempt.AccessToken != "gho_test" || svc.attempt.GistID != "gist-42" {
		t.Fatalf("unexpected attempt: %+v", svc.attempt)
	}
	if svc.attempt.SessionToken != "tok-1" {
		t.Fatalf("unexpected session token %q", svc.attempt.SessionToken)
	}

	var payload syncResponse
	decodeEnvelope(t, rec.Body.Bytes(), &payload)
	if !payload.Success || payload.GistID != "gist-42" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.SyncedAt != "2025-08-12T10:30:00Z" {
		t.Fatalf("unexpected syncedAt %q", payload.SyncedAt)
	}
	if payload.Data == nil {
		t.Fatal("payload should carry the pulled document")
	}
}

func TestSyncRunConflictWhenBusy(t *testing.T) {
	svc := &stubSyncService{err: pkgerrors.New(pkgerrors.CodeConflict, "a sync is already in progress")}

	req := withTestSession(httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	rec := httptest.NewRecorder()

	SyncRun(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "CONFLICT" {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestSyncState(t *testing.T) {
	svc := &stubSyncService{}
	rec := httptest.NewRecorder()
	req := withTestSession(httptest.NewRequest(http.MethodGet, "/api/sync/state", nil))
	SyncState(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.stateKey != "github:42" {
		t.Fatalf("state must be scoped to the caller, got key %q", svc.stateKey)
	}

	var payload map[string]string
	decodeEnvelope(t, rec.Body.Bytes(), &payload)
	if payload["state"] != "idle" {
		t.Fatalf("unexpected state %q", payload["state"])
	}
}
