package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
)

// DateLayout is the calendar-day format movements and debts carry. Days are
// ledger-local: the day the user recorded the entry under, never a UTC
// conversion of the timestamp.
const DateLayout = "2006-01-02"

const noDescription = "Sin descripción"

// Movement is a single recorded income or expense event. Movements are
// immutable once created; there is no edit operation.
type Movement struct {
	ID          string             `json:"id"`
	Type        enums.MovementType `json:"type"`
	Amount      int64              `json:"amount"`
	Description string             `json:"description"`
	Date        string             `json:"date"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Debt is a tracked obligation with cumulative payments. A debt whose
// paidAmount reaches its amount is removed, never kept in a paid state.
type Debt struct {
	ID          string         `json:"id"`
	Person      string         `json:"person"`
	Amount      int64          `json:"amount"`
	Description string         `json:"description"`
	DueDate     string         `json:"dueDate"`
	PaidAmount  int64          `json:"paidAmount"`
	CreatedAt   time.Time      `json:"createdAt"`
	Type        enums.DebtType `json:"type"`
}

// Debts holds both obligation buckets. The JSON keys are part of the
// persisted document schema.
type Debts struct {
	OwedByMe []Debt `json:"owed-by-me"`
	OwedToMe []Debt `json:"owed-to-me"`
}

// Ledger is the root aggregate: the entire persisted document. It is always
// replaced wholesale on load and save, never diffed.
type Ledger struct {
	Movements []Movement `json:"movements"`
	Debts     Debts      `json:"debts"`
}

// Empty returns a ledger with every sequence present but empty.
func Empty() *Ledger {
	return &Ledger{
		Movements: []Movement{},
		Debts: Debts{
			OwedByMe: []Debt{},
			OwedToMe: []Debt{},
		},
	}
}

// Normalize replaces nil sequences with empty ones so a decoded document
// always serializes back with every key present.
func (l *Ledger) Normalize() {
	if l.Movements == nil {
		l.Movements = []Movement{}
	}
	if l.Debts.OwedByMe == nil {
		l.Debts.OwedByMe = []Debt{}
	}
	if l.Debts.OwedToMe == nil {
		l.Debts.OwedToMe = []Debt{}
	}
}

// AddMovement validates and appends a new movement.
func (l *Ledger) AddMovement(movementType enums.MovementType, amount int64, description, date string, now time.Time) (*Movement, error) {
	if !movementType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", movementType))
	}
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive integer")
	}
	if date == "" {
		date = now.Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q", date))
	}

	movement := Movement{
		ID:          uuid.NewString(),
		Type:        movementType,
		Amount:      amount,
		Description: description,
		Date:        date,
		Timestamp:   now,
	}
	l.Movements = append(l.Movements, movement)
	return &movement, nil
}

// AddDebt validates and appends a new debt with no payments yet.
func (l *Ledger) AddDebt(debtType enums.DebtType, person string, amount int64, description, dueDate string, now time.Time) (*Debt, error) {
	if !debtType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid debt type %q", debtType))
	}
	if strings.TrimSpace(person) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "person is required")
	}
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive integer")
	}
	if _, err := time.Parse(DateLayout, dueDate); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid due date %q", dueDate))
	}

	debt := Debt{
		ID:          uuid.NewString(),
		Person:      person,
		Amount:      amount,
		Description: description,
		DueDate:     dueDate,
		PaidAmount:  0,
		CreatedAt:   now,
		Type:        debtType,
	}
	bucket := l.bucket(debtType)
	*bucket = append(*bucket, debt)
	return &debt, nil
}

// PaymentResult reports what a partial or completing payment produced.
type PaymentResult struct {
	Payment     Movement
	Debt        *Debt
	DebtRemoved bool
}

// ApplyPayment registers a payment against a debt and emits exactly one
// payment movement, capped at the outstanding balance so that recorded
// movements never exceed the debt total. A payment that covers the
// outstanding balance removes the debt. Nothing mutates when the debt is
// not found.
func (l *Ledger) ApplyPayment(debtID string, debtType enums.DebtType, paymentAmount int64, newDueDate string, now time.Time) (*PaymentResult, error) {
	if !debtType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid debt type %q", debtType))
	}
	if paymentAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be a positive integer")
	}
	if newDueDate != "" {
		if _, err := time.Parse(DateLayout, newDueDate); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid due date %q", newDueDate))
		}
	}

	bucket := l.bucket(debtType)
	idx := findDebt(*bucket, debtID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("debt %q not found", debtID))
	}

	debt := &(*bucket)[idx]
	outstanding := debt.Amount - debt.PaidAmount
	applied := paymentAmount
	if applied > outstanding {
		applied = outstanding
	}
	debt.PaidAmount += applied
	if newDueDate != "" {
		debt.DueDate = newDueDate
	}

	payment := Movement{
		ID:          uuid.NewString(),
		Type:        debtType.MovementType(),
		Amount:      applied,
		Description: paymentDescription(debtType, *debt),
		Date:        now.Format(DateLayout),
		Timestamp:   now,
	}
	l.Movements = append(l.Movements, payment)

	result := &PaymentResult{Payment: payment}

	if debt.PaidAmount >= debt.Amount {
		removed := *debt
		*bucket = append((*bucket)[:idx], (*bucket)[idx+1:]...)
		result.Debt = &removed
		result.DebtRemoved = true
		return result, nil
	}

	current := *debt
	result.Debt = &current
	return result, nil
}

// SettlementResult reports what marking a debt fully paid produced.
type SettlementResult struct {
	Final       *Movement
	Debt        Debt
	DebtRemoved bool
}

// MarkFullyPaid settles the outstanding balance in one step: emits a
// final-settlement movement when anything remains unpaid and removes the
// debt from its bucket.
func (l *Ledger) MarkFullyPaid(debtID string, debtType enums.DebtType, now time.Time) (*SettlementResult, error) {
	if !debtType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid debt type %q", debtType))
	}

	bucket := l.bucket(debtType)
	idx := findDebt(*bucket, debtID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("debt %q not found", debtID))
	}

	debt := (*bucket)[idx]
	remaining := debt.Amount - debt.PaidAmount

	result := &SettlementResult{DebtRemoved: true}
	if remaining > 0 {
		final := Movement{
			ID:          uuid.NewString(),
			Type:        debtType.MovementType(),
			Amount:      remaining,
			Description: settlementDescription(debtType, debt),
			Date:        now.Format(DateLayout),
			Timestamp:   now,
		}
		l.Movements = append(l.Movements, final)
		result.Final = &final
	}

	debt.PaidAmount = debt.Amount
	result.Debt = debt
	*bucket = append((*bucket)[:idx], (*bucket)[idx+1:]...)
	return result, nil
}

// Filter restricts movement listings. A nil MaxAmount means unbounded.
type Filter struct {
	MinAmount   int64
	MaxAmount   *int64
	Description string
}

// FilterMovements returns movements within the inclusive amount range whose
// description contains the filter text case-insensitively. Read-only.
func (l *Ledger) FilterMovements(filter Filter) []Movement {
	needle := strings.ToUpper(filter.Description)
	matches := []Movement{}
	for _, movement := range l.Movements {
		if movement.Amount < filter.MinAmount {
			continue
		}
		if filter.MaxAmount != nil && movement.Amount > *filter.MaxAmount {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToUpper(movement.Description), needle) {
			continue
		}
		matches = append(matches, movement)
	}
	return matches
}

// MovementsForDate returns movements recorded under the exact calendar day.
func (l *Ledger) MovementsForDate(date string) []Movement {
	matches := []Movement{}
	for _, movement := range l.Movements {
		if movement.Date == date {
			matches = append(matches, movement)
		}
	}
	return matches
}

// Balance is total income minus total expenses across all movements.
func (l *Ledger) Balance() int64 {
	var balance int64
	for _, movement := range l.Movements {
		switch movement.Type {
		case enums.MovementTypeIncome:
			balance += movement.Amount
		case enums.MovementTypeExpense:
			balance -= movement.Amount
		}
	}
	return balance
}

// LastMovement returns the movement with the latest creation timestamp, or
// nil when the ledger has none. Equal timestamps keep insertion order.
func (l *Ledger) LastMovement() *Movement {
	var last *Movement
	for i := range l.Movements {
		if last == nil || l.Movements[i].Timestamp.After(last.Timestamp) {
			last = &l.Movements[i]
		}
	}
	if last == nil {
		return nil
	}
	clone := *last
	return &clone
}

// ActiveDebts returns a bucket ordered soonest-due-first; equal due dates
// keep their original relative order.
func (l *Ledger) ActiveDebts(debtType enums.DebtType) []Debt {
	bucket := *l.bucket(debtType)
	sorted := make([]Debt, len(bucket))
	copy(sorted, bucket)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate < sorted[j].DueDate
	})
	return sorted
}

// SortedMovements returns movements ordered most-recent-date-first; equal
// dates keep their original relative order.
func (l *Ledger) SortedMovements() []Movement {
	sorted := make([]Movement, len(l.Movements))
	copy(sorted, l.Movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return sorted
}

func (l *Ledger) bucket(debtType enums.DebtType) *[]Debt {
	if debtType == enums.DebtTypeOwedByMe {
		return &l.Debts.OwedByMe
	}
	return &l.Debts.OwedToMe
}

func findDebt(bucket []Debt, debtID string) int {
	for i := range bucket {
		if bucket[i].ID == debtID {
			return i
		}
	}
	return -1
}

func paymentDescription(debtType enums.DebtType, debt Debt) string {
	desc := debt.Description
	if desc == "" {
		desc = noDescription
	}
	if debtType == enums.DebtTypeOwedByMe {
		return fmt.Sprintf(`Abono a "%s" - %s`, debt.Person, desc)
	}
	return fmt.Sprintf(`Me abono "%s" - %s`, debt.Person, desc)
}

func settlementDescription(debtType enums.DebtType, debt Debt) string {
	desc := debt.Description
	if desc == "" {
		desc = noDescription
	}
	if debtType == enums.DebtTypeOwedByMe {
		return fmt.Sprintf(`Pago final deuda "%s" - %s`, debt.Person, desc)
	}
	return fmt.Sprintf(`Me paga "%s" - %s`, debt.Person, desc)
}
