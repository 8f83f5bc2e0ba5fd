package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

const maxDocumentBytes = 1 << 20

// DataGet returns the caller's whole ledger document. New users get an
// empty document, not 404.
func DataGet(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		doc, err := svc.Data(r.Context(), sess.StorageKey())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, doc)
	}
}

// DataReplace swaps the caller's entire document. The body must carry both
// top-level keys; a partial document would silently erase the missing half.
func DataReplace(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(body, &probe); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body is not valid JSON"))
			return
		}
		if _, ok := probe["movements"]; !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "movements key is required"))
			return
		}
		if _, ok := probe["debts"]; !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "debts key is required"))
			return
		}

		var doc ledger.Ledger
		if err := json.Unmarshal(body, &doc); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode ledger document"))
			return
		}

		saved, err := svc.Replace(r.Context(), sess.StorageKey(), &doc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, saved)
	}
}
