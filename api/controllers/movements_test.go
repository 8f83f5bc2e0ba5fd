package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
)

func TestMovementCreate(t *testing.T) {
	svc := &stubLedgerService{}
	body := `{"type":"expense","amount":25000,"description":"Mercado","date":"2025-08-12"}`

	req := withTestSession(httptest.NewRequest(http.MethodPost, "/api/movements", strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	MovementCreate(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.addedMove == nil {
		t.Fatal("movement was not forwarded to the service")
	}
	if svc.addedMove.Type != enums.MovementTypeExpense || svc.addedMove.Amount != 25000 {
		t.Fatalf("unexpected input: %+v", svc.addedMove)
	}
}

func TestMovementCreateRejectsBadType(t *testing.T) {
	svc := &stubLedgerService{}
	body := `{"type":"transfer","amount":25000}`

	req := withTestSession(httptest.NewRequest(http.MethodPost, "/api/movements", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	MovementCreate(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.addedMove != nil {
		t.Fatal("invalid movement should not reach the service")
	}
}

func TestMovementCreateRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubLedgerService{}
	body := `{"type":"income","amount":0}`

	req := withTestSession(httptest.NewRequest(http.MethodPost, "/api/movements", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	MovementCreate(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMovementListParsesFilters(t *testing.T) {
	svc := &stubLedgerService{}

	target := "/api/movements?min=10.000&max=1.000.000&description=mercado"
	req := withTestSession(httptest.NewRequest(http.MethodGet, target, nil))
	rec := httptest.NewRecorder()

	MovementList(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.listedFilter == nil {
		t.Fatal("filter was not forwarded")
	}
	if svc.listedFilter.MinAmount != 10000 {
		t.Fatalf("unexpected min amount %d", svc.listedFilter.MinAmount)
	}
	if svc.listedFilter.MaxAmount == nil || *svc.listedFilter.MaxAmount != 1000000 {
		t.Fatalf("unexpected max amount %+v", svc.listedFilter.MaxAmount)
	}
	if svc.listedFilter.Description != "mercado" {
		t.Fatalf("unexpected description %q", svc.listedFilter.Description)
	}
}

func TestMovementListRejectsNegativeAmount(t *testing.T) {
	svc := &stubLedgerService{}

	req := withTestSession(httptest.NewRequest(http.MethodGet, "/api/movements?min=-5", nil))
	rec := httptest.NewRecorder()

	MovementList(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMovementsByDay(t *testing.T) {
	svc := &stubLedgerService{}

	router := chi.NewRouter()
	router.Get("/api/movements/day/{date}", MovementsByDay(svc, newTestLogger()))

	req := withTestSession(httptest.NewRequest(http.MethodGet, "/api/movements/day/2025-08-12", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.listedDay != "2025-08-12" {
		t.Fatalf("unexpected day %q", svc.listedDay)
	}
}

func TestMovementsByDayRejectsBadDate(t *testing.T) {
	svc := &stubLedgerService{}

	router := chi.NewRouter()
	router.Get("/api/movements/day/{date}", MovementsByDay(svc, newTestLogger()))

	req := withTestSession(httptest.NewRequest(http.MethodGet, "/api/movements/day/12-08-2025", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.listedDay != "" {
		t.Fatal("invalid day should not reach the service")
	}
}
