package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	"gorm.io/gorm"
)

type stubRepo struct {
	docs    map[string]*Ledger
	loadErr error
	saveErr error
	saves   int
}

func newStubRepo() *stubRepo {
	return &stubRepo{docs: map[string]*Ledger{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Load(ctx context.Context, userKey string) (*Ledger, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	doc, ok := s.docs[userKey]
	if !ok {
		return Empty(), nil
	}
	// deep copy via JSON, matching the isolation a real store provides
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var clone Ledger
	if err := json.Unmarshal(encoded, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

func (s *stubRepo) Save(ctx context.Context, userKey string, doc *Ledger) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.docs[userKey] = doc
	return nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).clock = func() time.Time { return testNow }
	return svc
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestServiceDataReturnsEmptyLedgerForNewUser(t *testing.T) {
	svc := newTestService(t, newStubRepo())

	doc, err := svc.Data(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(doc.Movements) != 0 || doc.Movements == nil {
		t.Fatalf("expected empty movements slice, got %+v", doc.Movements)
	}
	if doc.Debts.OwedByMe == nil || doc.Debts.OwedToMe == nil {
		t.Fatal("expected both debt buckets present")
	}
}

func TestServiceAddMovementPersistsAndSummarizes(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	outcome, err := svc.AddMovement(ctx, "user-1", AddMovementInput{
		Type:        enums.MovementTypeIncome,
		Amount:      250000,
		Description: "Salario",
		Date:        "2025-08-01",
	})
	if err != nil {
		t.Fatalf("add movement: %v", err)
	}

	if outcome.Movement.Amount != 250000 {
		t.Fatalf("unexpected movement %+v", outcome.Movement)
	}
	if outcome.Summary.Balance != 250000 {
		t.Fatalf("expected balance 250000, got %d", outcome.Summary.Balance)
	}
	if outcome.Summary.LastMovement == nil || outcome.Summary.LastMovement.ID != outcome.Movement.ID {
		t.Fatalf("expected last movement to be the new one, got %+v", outcome.Summary.LastMovement)
	}
	if repo.saves != 1 {
		t.Fatalf("expected one save, got %d", repo.saves)
	}

	doc, err := svc.Data(ctx, "user-1")
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(doc.Movements) != 1 {
		t.Fatalf("movement not persisted, got %d", len(doc.Movements))
	}
}

func TestServiceAddMovementValidationSkipsSave(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)

	_, err := svc.AddMovement(context.Background(), "user-1", AddMovementInput{
		Type:   enums.MovementTypeIncome,
		Amount: -5,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if repo.saves != 0 {
		t.Fatalf("rejected mutation must not persist, saves=%d", repo.saves)
	}
}

func TestServicePaymentFlowAcrossCalls(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	added, err := svc.AddDebt(ctx, "user-1", AddDebtInput{
		Type:    enums.DebtTypeOwedByMe,
		Person:  "Ana",
		Amount:  100000,
		DueDate: "2099-01-01",
	})
	if err != nil {
		t.Fatalf("add debt: %v", err)
	}

	partial, err := svc.ApplyPayment(ctx, "user-1", PaymentInput{
		DebtID:   added.Debt.ID,
		DebtType: enums.DebtTypeOwedByMe,
		Amount:   40000,
	})
	if err != nil {
		t.Fatalf("apply payment: %v", err)
	}
	if partial.DebtRemoved || partial.Debt.PaidAmount != 40000 {
		t.Fatalf("unexpected partial outcome %+v", partial)
	}
	if partial.Summary.Balance != -40000 {
		t.Fatalf("expected balance -40000, got %d", partial.Summary.Balance)
	}

	settled, err := svc.Settle(ctx, "user-1", SettleInput{
		DebtID:   added.Debt.ID,
		DebtType: enums.DebtTypeOwedByMe,
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !settled.DebtRemoved || settled.Final == nil || settled.Final.Amount != 60000 {
		t.Fatalf("unexpected settlement %+v", settled)
	}
	if settled.Summary.Balance != -100000 {
		t.Fatalf("expected balance -100000, got %d", settled.Summary.Balance)
	}

	debts, err := svc.ListDebts(ctx, "user-1")
	if err != nil {
		t.Fatalf("list debts: %v", err)
	}
	if len(debts.OwedByMe) != 0 {
		t.Fatalf("expected no debts left, got %+v", debts.OwedByMe)
	}
}

func TestServiceReplaceNormalizesDocument(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo)

	saved, err := svc.Replace(context.Background(), "user-1", &Ledger{})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if saved.Movements == nil || saved.Debts.OwedByMe == nil || saved.Debts.OwedToMe == nil {
		t.Fatalf("expected normalized document, got %+v", saved)
	}
}

func TestServiceSurfacesRepositoryErrors(t *testing.T) {
	repo := newStubRepo()
	repo.loadErr = errors.New("connection reset")
	svc := newTestService(t, repo)

	if _, err := svc.Summary(context.Background(), "user-1"); err == nil {
		t.Fatal("expected load error surfaced")
	}

	repo.loadErr = nil
	repo.saveErr = errors.New("disk full")
	if _, err := svc.AddMovement(context.Background(), "user-1", AddMovementInput{
		Type:   enums.MovementTypeIncome,
		Amount: 1000,
		Date:   "2025-08-12",
	}); err == nil {
		t.Fatal("expected save error surfaced")
	}
}

func TestServiceRequiresUserKey(t *testing.T) {
	svc := newTestService(t, newStubRepo())
	if _, err := svc.Data(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user key")
	}
}
