package controllers

import (
	"net/http"
	"time"

	"github.com/juanestebanprog/finanzas-backend/api/middleware"
	"github.com/juanestebanprog/finanzas-backend/api/responses"
	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	syncsvc "github.com/juanestebanprog/finanzas-backend/internal/sync"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
)

type syncResponse struct {
	Success  bool           `json:"success"`
	Data     *ledger.Ledger `json:"data"`
	GistID   string         `json:"gistId,omitempty"`
	SyncedAt string         `json:"syncedAt"`
}

// SyncRun pushes the caller's document to their gist and pulls it back as
// the effective state.
func SyncRun(svc syncsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}

		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		result, err := svc.Sync(r.Context(), syncsvc.Attempt{
			SessionToken: middleware.SessionTokenFromContext(r.Context()),
			AccessToken:  sess.AccessToken,
			GistID:       sess.GistID,
			UserKey:      sess.StorageKey(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, syncResponse{
			Success:  true,
			Data:     result.Ledger,
			GistID:   result.GistID,
			SyncedAt: result.SyncedAt.UTC().Format(time.RFC3339),
		})
	}
}

// SyncState reports the current phase of the caller's sync indicator.
func SyncState(svc syncsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable"))
			return
		}
		sess := middleware.SessionFromContext(r.Context())
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"state": svc.State(sess.StorageKey()).String()})
	}
}
