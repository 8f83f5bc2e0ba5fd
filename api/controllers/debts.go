package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/api/validators"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

// DebtCreate registers a new obligation. Past due dates are rejected here;
// the core accepts any date so documents synced from elsewhere keep loading.
func DebtCreate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload createDebtRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.DueDate < time.Now().Format(ledger.DateLayout) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "dueDate must not be in the past"))
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.AddDebt(r.Context(), sess.StorageKey(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}

type createDebtRequest struct {
	Type        string `json:"type" validate:"required,oneof=owed-by-me owed-to-me"`
	Person      string `json:"person" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"required,calendarday"`
}

func (p createDebtRequest) toInput() (ledger.AddDebtInput, error) {
	debtType, err := enums.ParseDebtType(p.Type)
	if err != nil {
		return ledger.AddDebtInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid debt type")
	}
	return ledger.AddDebtInput{
		Type:        debtType,
		Person:      strings.TrimSpace(p.Person),
		Amount:      p.Amount,
		Description: strings.TrimSpace(p.Description),
		DueDate:     p.DueDate,
	}, nil
}

// DebtList returns both buckets, each sorted soonest-due-first.
func DebtList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		debts, err := svc.ListDebts(r.Context(), sess.StorageKey())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, debts)
	}
}

// DebtPayment applies a partial or completing payment against a debt.
func DebtPayment(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		debtType, err := enums.ParseDebtType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid debt type"))
			return
		}

		outcome, err := svc.ApplyPayment(r.Context(), sess.StorageKey(), ledger.PaymentInput{
			DebtID:     chi.URLParam(r, "debtId"),
			DebtType:   debtType,
			Amount:     payload.Amount,
			NewDueDate: payload.NewDueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

type paymentRequest struct {
	Type       string `json:"type" validate:"required,oneof=owed-by-me owed-to-me"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	NewDueDate string `json:"newDueDate" validate:"omitempty,calendarday"`
}

// DebtSettle marks a debt fully paid in one step and removes it.
func DebtSettle(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload settleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		debtType, err := enums.ParseDebtType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid debt type"))
			return
		}

		outcome, err := svc.Settle(r.Context(), sess.StorageKey(), ledger.SettleInput{
			DebtID:   chi.URLParam(r, "debtId"),
			DebtType: debtType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcome)
	}
}

type settleRequest struct {
	Type string `json:"type" validate:"required,oneof=owed-by-me owed-to-me"`
}
