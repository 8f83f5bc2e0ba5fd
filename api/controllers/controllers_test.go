package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	"github.com/juanestebanprog/finanzas-backend/pkg/auth/session"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
	"github.com/rs/zerolog"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "controllers-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func withTestSession(r *http.Request) *http.Request {
	data := &session.Data{UserID: 42, Login: "juanes", AccessToken: "gho_test", GistID: "gist-42"}
	ctx := middleware.WithSession(r.Context(), "tok-1", data)
	return r.WithContext(ctx)
}

func decodeEnvelope(t *testing.T, body []byte, dest any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if dest == nil {
		return
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

// stubLedgerService records calls and plays back canned outcomes.
type stubLedgerService struct {
	data    *ledger.Ledger
	err     error
	userKey string

	replaced     *ledger.Ledger
	addedMove    *ledger.AddMovementInput
	addedDebt    *ledger.AddDebtInput
	payment      *ledger.PaymentInput
	settle       *ledger.SettleInput
	listedFilter *ledger.Filter
	listedDay    string
}

func (s *stubLedgerService) Data(_ context.Context, userKey string) (*ledger.Ledger, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return ledger.Empty(), nil
	}
	return s.data, nil
}

func (s *stubLedgerService) Replace(_ context.Context, userKey string, doc *ledger.Ledger) (*ledger.Ledger, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.replaced = doc
	return doc, nil
}

func (s *stubLedgerService) AddMovement(_ context.Context, userKey string, input ledger.AddMovementInput) (*ledger.MovementOutcome, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.addedMove = &input
	return &ledger.MovementOutcome{
		Movement: ledger.Movement{ID: "m1", Type: input.Type, Amount: input.Amount, Description: input.Description, Date: input.Date},
		Summary:  ledger.Summary{Balance: input.Amount},
	}, nil
}

func (s *stubLedgerService) ListMovements(_ context.Context, userKey string, filter ledger.Filter) ([]ledger.Movement, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.listedFilter = &filter
	if s.data == nil {
		return nil, nil
	}
	return s.data.Movements, nil
}

func (s *stubLedgerService) MovementsForDay(_ context.Context, userKey, date string) ([]ledger.Movement, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.listedDay = date
	if s.data == nil {
		return nil, nil
	}
	return s.data.Movements, nil
}

func (s *stubLedgerService) AddDebt(_ context.Context, userKey string, input ledger.AddDebtInput) (*ledger.DebtOutcome, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.addedDebt = &input
	return &ledger.DebtOutcome{
		Debt: ledger.Debt{ID: "d1", Person: input.Person, Amount: input.Amount, DueDate: input.DueDate, Type: input.Type},
	}, nil
}

func (s *stubLedgerService) ListDebts(_ context.Context, userKey string) (*ledger.Debts, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	if s.data == nil {
		return &ledger.Debts{OwedByMe: []ledger.Debt{}, OwedToMe: []ledger.Debt{}}, nil
	}
	return &s.data.Debts, nil
}

func (s *stubLedgerService) ApplyPayment(_ context.Context, userKey string, input ledger.PaymentInput) (*ledger.PaymentOutcome, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.payment = &input
	return &ledger.PaymentOutcome{
		Payment: ledger.Movement{ID: "m2", Amount: input.Amount},
	}, nil
}

func (s *stubLedgerService) Settle(_ context.Context, userKey string, input ledger.SettleInput) (*ledger.SettlementOutcome, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	s.settle = &input
	return &ledger.SettlementOutcome{DebtRemoved: true}, nil
}

func (s *stubLedgerService) Summary(_ context.Context, userKey string) (*ledger.Summary, error) {
	s.userKey = userKey
	if s.err != nil {
		return nil, s.err
	}
	return &ledger.Summary{Balance: 125000}, nil
}

func TestDataGetReturnsDocument(t *testing.T) {
	svc := &stubLedgerService{data: &ledger.Ledger{
		Movements: []ledger.Movement{{ID: "m1", Amount: 50000}},
		Debts:     ledger.Debts{OwedByMe: []ledger.Debt{}, OwedToMe: []ledger.Debt{}},
	}}

	req := withTestSession(httptest.NewRequest(http.MethodGet, "/api/data", nil))
	rec := httptest.NewRecorder()

	DataGet(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.userKey != "github:42" {
		t.Fatalf("unexpected user key %q", svc.userKey)
	}

	var doc ledger.Ledger
	decodeEnvelope(t, rec.Body.Bytes(), &doc)
	if len(doc.Movements) != 1 || doc.Movements[0].ID != "m1" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestSummaryGet(t *testing.T) {
	svc := &stubLedgerService{}

	req := withTestSession(httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	rec := httptest.NewRecorder()

	SummaryGet(svc, newTestLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var summary ledger.Summary
	decodeEnvelope(t, rec.Body.Bytes(), &summary)
	if summary.Balance != 125000 {
		t.Fatalf("unexpected balance %d", summary.Balance)
	}
}

func TestDataGetRequiresSession(t *testing.T) {
	rec := httptest.NewRecorder()
	DataGet(&stubLedgerService{}, newTestLogger())(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
