package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/api/validators"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

// MovementCreate appends one income or expense to the caller's ledger.
func MovementCreate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload createMovementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.AddMovement(r.Context(), sess.StorageKey(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}

type createMovementRequest struct {
	Type        string `json:"type" validate:"required,oneof=income expense"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"omitempty,calendarday"`
}

func (p createMovementRequest) toInput() (ledger.AddMovementInput, error) {
	movementType, err := enums.ParseMovementType(p.Type)
	if err != nil {
		return ledger.AddMovementInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type")
	}
	return ledger.AddMovementInput{
		Type:        movementType,
		Amount:      p.Amount,
		Description: strings.TrimSpace(p.Description),
		Date:        p.Date,
	}, nil
}

// MovementList returns movements newest-first, optionally filtered by
// amount range and description substring.
func MovementList(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		var filter ledger.Filter

		if min, ok, err := validators.ParseQueryAmount(r, "min"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if ok {
			filter.MinAmount = min
		}

		if max, ok, err := validators.ParseQueryAmount(r, "max"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if ok {
			filter.MaxAmount = &max
		}

		filter.Description = strings.TrimSpace(r.URL.Query().Get("description"))

		movements, err := svc.ListMovements(r.Context(), sess.StorageKey(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"movements": movements,
			"count":     len(movements),
		})
	}
}

// MovementsByDay returns the movements recorded on one calendar day.
func MovementsByDay(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		day, err := validators.ParseDay(chi.URLParam(r, "date"), "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.MovementsForDay(r.Context(), sess.StorageKey(), day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"date":      day,
			"movements": movements,
			"count":     len(movements),
		})
	}
}
