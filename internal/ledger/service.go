package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
)

// Service exposes ledger operations over the persisted per-user document.
// Every mutation loads the document, applies the aggregate transition,
// persists the whole document, and returns the recomputed summary.
type Service interface {
	Data(ctx context.Context, userKey string) (*Ledger, error)
	Replace(ctx context.Context, userKey string, doc *Ledger) (*Ledger, error)
	AddMovement(ctx context.Context, userKey string, input AddMovementInput) (*MovementOutcome, error)
	ListMovements(ctx context.Context, userKey string, filter Filter) ([]Movement, error)
	MovementsForDay(ctx context.Context, userKey, date string) ([]Movement, error)
	AddDebt(ctx context.Context, userKey string, input AddDebtInput) (*DebtOutcome, error)
	ListDebts(ctx context.Context, userKey string) (*Debts, error)
	ApplyPayment(ctx context.Context, userKey string, input PaymentInput) (*PaymentOutcome, error)
	Settle(ctx context.Context, userKey string, input SettleInput) (*SettlementOutcome, error)
	Summary(ctx context.Context, userKey string) (*Summary, error)
}

// AddMovementInput captures a user-recorded income or expense.
type AddMovementInput struct {
	Type        enums.MovementType
	Amount      int64
	Description string
	Date        string
}

// AddDebtInput captures a new obligation.
type AddDebtInput struct {
	Type        enums.DebtType
	Person      string
	Amount      int64
	Description string
	DueDate     string
}

// PaymentInput captures a partial or completing payment against a debt.
type PaymentInput struct {
	DebtID     string
	DebtType   enums.DebtType
	Amount     int64
	NewDueDate string
}

// SettleInput marks a debt as fully paid in one step.
type SettleInput struct {
	DebtID   string
	DebtType enums.DebtType
}

// Summary is the recomputed headline state after any mutation.
type Summary struct {
	Balance      int64     `json:"balance"`
	LastMovement *Movement `json:"lastMovement"`
}

// MovementOutcome reports an appended movement plus the new summary.
type MovementOutcome struct {
	Movement Movement `json:"movement"`
	Summary  Summary  `json:"summary"`
}

// DebtOutcome reports an appended debt plus the new summary.
type DebtOutcome struct {
	Debt    Debt    `json:"debt"`
	Summary Summary `json:"summary"`
}

// PaymentOutcome reports the movement a payment generated.
type PaymentOutcome struct {
	Payment     Movement `json:"payment"`
	Debt        *Debt    `json:"debt,omitempty"`
	DebtRemoved bool     `json:"debtRemoved"`
	Summary     Summary  `json:"summary"`
}

// SettlementOutcome reports the result of marking a debt fully paid.
type SettlementOutcome struct {
	Final       *Movement `json:"finalPayment,omitempty"`
	DebtRemoved bool      `json:"debtRemoved"`
	Summary     Summary   `json:"summary"`
}

type service struct {
	repo  Repository
	clock func() time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, clock: time.Now}, nil
}

func (s *service) Data(ctx context.Context, userKey string) (*Ledger, error) {
	return s.load(ctx, userKey)
}

func (s *service) Replace(ctx context.Context, userKey string, doc *Ledger) (*Ledger, error) {
	if doc == nil {
		doc = Empty()
	}
	doc.Normalize()
	if err := s.repo.Save(ctx, userKey, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) AddMovement(ctx context.Context, userKey string, input AddMovementInput) (*MovementOutcome, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}

	movement, err := doc.AddMovement(input.Type, input.Amount, input.Description, input.Date, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, userKey, doc); err != nil {
		return nil, err
	}
	return &MovementOutcome{Movement: *movement, Summary: summarize(doc)}, nil
}

func (s *service) ListMovements(ctx context.Context, userKey string, filter Filter) ([]Movement, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return doc.FilterMovements(filter), nil
}

func (s *service) MovementsForDay(ctx context.Context, userKey, date string) ([]Movement, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return doc.MovementsForDate(date), nil
}

func (s *service) AddDebt(ctx context.Context, userKey string, input AddDebtInput) (*DebtOutcome, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}

	debt, err := doc.AddDebt(input.Type, input.Person, input.Amount, input.Description, input.DueDate, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, userKey, doc); err != nil {
		return nil, err
	}
	return &DebtOutcome{Debt: *debt, Summary: summarize(doc)}, nil
}

func (s *service) ListDebts(ctx context.Context, userKey string) (*Debts, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}
	return &Debts{
		OwedByMe: doc.ActiveDebts(enums.DebtTypeOwedByMe),
		OwedToMe: doc.ActiveDebts(enums.DebtTypeOwedToMe),
	}, nil
}

func (s *service) ApplyPayment(ctx context.Context, userKey string, input PaymentInput) (*PaymentOutcome, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}

	result, err := doc.ApplyPayment(input.DebtID, input.DebtType, input.Amount, input.NewDueDate, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, userKey, doc); err != nil {
		return nil, err
	}
	return &PaymentOutcome{
		Payment:     result.Payment,
		Debt:        result.Debt,
		DebtRemoved: result.DebtRemoved,
		Summary:     summarize(doc),
	}, nil
}

func (s *service) Settle(ctx context.Context, userKey string, input SettleInput) (*SettlementOutcome, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}

	result, err := doc.MarkFullyPaid(input.DebtID, input.DebtType, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, userKey, doc); err != nil {
		return nil, err
	}
	return &SettlementOutcome{
		Final:       result.Final,
		DebtRemoved: result.DebtRemoved,
		Summary:     summarize(doc),
	}, nil
}

func (s *service) Summary(ctx context.Context, userKey string) (*Summary, error) {
	doc, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}
	summary := summarize(doc)
	return &summary, nil
}

func (s *service) load(ctx context.Context, userKey string) (*Ledger, error) {
	if userKey == "" {
		return nil, fmt.Errorf("user key is required")
	}
	doc, err := s.repo.Load(ctx, userKey)
	if err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

func summarize(doc *Ledger) Summary {
	return Summary{
		Balance:      doc.Balance(),
		LastMovement: doc.LastMovement(),
	}
}
