// Package sync mirrors the per-user ledger document to a private GitHub
// Gist. The protocol is last-writer-wins: push the whole local document,
// then pull it back as the effective state. There is no merge logic.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/juanestebanprog/finanzas-backend/internal/ledger"
	"github.com/juanestebanprog/finanzas-backend/pkg/config"
	"github.com/juanestebanprog/finanzas-backend/pkg/enums"
	pkgerrors "github.com/juanestebanprog/finanzas-backend/pkg/errors"
	"github.com/juanestebanprog/finanzas-backend/pkg/gist"
	"github.com/juanestebanprog/finanzas-backend/pkg/logger"
	"github.com/juanestebanprog/finanzas-backend/pkg/metrics"
)

// GistStore is the remote document surface the protocol needs.
type GistStore interface {
	Create(ctx context.Context, token string, content json.RawMessage) (*gist.Gist, error)
	Update(ctx context.Context, token, gistID string, content json.RawMessage) (*gist.Gist, error)
	Fetch(ctx context.Context, token, gistID string) (json.RawMessage, error)
}

// SessionBinder persists the remote document id on the user's session once
// the gist exists.
type SessionBinder interface {
	SetGistID(ctx context.Context, sessionToken, gistID string) error
}

// Attempt carries the per-session inputs of one sync.
type Attempt struct {
	SessionToken string
	AccessToken  string
	GistID       string
	UserKey      string
}

// Result is the outcome of a completed sync.
type Result struct {
	Ledger   *ledger.Ledger
	GistID   string
	SyncedAt time.Time
}

// Service runs the push-then-pull protocol with a per-user single-flight
// guard.
type Service interface {
	Sync(ctx context.Context, attempt Attempt) (*Result, error)
	Push(ctx context.Context, attempt Attempt) (string, error)
	Pull(ctx context.Context, attempt Attempt) (*ledger.Ledger, error)
	State(userKey string) enums.SyncState
}

type service struct {
	ledgers ledger.Service
	gists   GistStore
	binder  SessionBinder
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	timeout time.Duration

	mu       stdsync.Mutex
	inflight map[string]struct{}
	states   map[string]enums.SyncState
}

// NewService wires the sync protocol.
func NewService(ledgers ledger.Service, gists GistStore, binder SessionBinder, cfg config.SyncConfig, logg *logger.Logger, syncMetrics *metrics.SyncMetrics) (Service, error) {
	if ledgers == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if gists == nil {
		return nil, fmt.Errorf("gist store required")
	}
	if binder == nil {
		return nil, fmt.Errorf("session binder required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &service{
		ledgers:  ledgers,
		gists:    gists,
		binder:   binder,
		logg:     logg,
		metrics:  syncMetrics,
		timeout:  timeout,
		inflight: make(map[string]struct{}),
		states:   make(map[string]enums.SyncState),
	}, nil
}

// Sync pushes the local document, then pulls it back. At most one sync per
// user is in flight; a concurrent attempt against the same document is
// rejected, never interleaved, while other users sync undisturbed. Local
// data is untouched when either phase fails.
func (s *service) Sync(ctx context.Context, attempt Attempt) (*Result, error) {
	if !s.acquire(attempt.UserKey) {
		s.metrics.IncConflict("sync")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a sync is already in progress")
	}
	defer s.release(attempt.UserKey)

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.setState(attempt.UserKey, enums.SyncStatePushing)
	gistID, err := s.push(ctx, attempt)
	if err != nil {
		s.fail(ctx, attempt.UserKey, "push", err)
		return nil, err
	}

	s.setState(attempt.UserKey, enums.SyncStatePulling)
	attempt.GistID = gistID
	doc, err := s.pull(ctx, attempt)
	if err != nil {
		s.fail(ctx, attempt.UserKey, "pull", err)
		return nil, err
	}

	saved, err := s.ledgers.Replace(ctx, attempt.UserKey, doc)
	if err != nil {
		s.fail(ctx, attempt.UserKey, "store", err)
		return nil, err
	}

	s.setState(attempt.UserKey, enums.SyncStateIdle)
	s.metrics.IncSuccess("sync")
	s.metrics.ObserveDuration("sync", time.Since(started))
	if s.logg != nil {
		s.logg.Info(s.logg.WithGistID(ctx, gistID), "sync completed")
	}

	return &Result{Ledger: saved, GistID: gistID, SyncedAt: time.Now().UTC()}, nil
}

// Push uploads the current document, creating the gist on first use.
func (s *service) Push(ctx context.Context, attempt Attempt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.push(ctx, attempt)
}

// Pull fetches the remote document. An absent gist id, missing file, or
// empty content yields an empty ledger, never an error.
func (s *service) Pull(ctx context.Context, attempt Attempt) (*ledger.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.pull(ctx, attempt)
}

// State reports where the user's last or current attempt is in the state
// machine. Users with no recorded attempt are idle. A failed attempt reads
// as Failed until the user's next attempt starts.
func (s *service) State(userKey string) enums.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[userKey]; ok {
		return state
	}
	return enums.SyncStateIdle
}

func (s *service) acquire(userKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userKey]; busy {
		return false
	}
	s.inflight[userKey] = struct{}{}
	return true
}

func (s *service) release(userKey string) {
	s.mu.Lock()
	delete(s.inflight, userKey)
	s.mu.Unlock()
}

func (s *service) push(ctx context.Context, attempt Attempt) (string, error) {
	doc, err := s.ledgers.Data(ctx, attempt.UserKey)
	if err != nil {
		return "", err
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode ledger document")
	}

	if attempt.GistID == "" {
		created, err := s.gists.Create(ctx, attempt.AccessToken, content)
		if err != nil {
			return "", err
		}
		if err := s.binder.SetGistID(ctx, attempt.SessionToken, created.ID); err != nil {
			return "", err
		}
		return created.ID, nil
	}

	if _, err := s.gists.Update(ctx, attempt.AccessToken, attempt.GistID, content); err != nil {
		return "", err
	}
	return attempt.GistID, nil
}

func (s *service) pull(ctx context.Context, attempt Attempt) (*ledger.Ledger, error) {
	if attempt.GistID == "" {
		return ledger.Empty(), nil
	}

	content, err := s.gists.Fetch(ctx, attempt.AccessToken, attempt.GistID)
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return ledger.Empty(), nil
		}
		return nil, err
	}
	if len(content) == 0 {
		return ledger.Empty(), nil
	}

	var doc ledger.Ledger
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote document is not valid JSON")
	}
	doc.Normalize()
	return &doc, nil
}

func (s *service) fail(ctx context.Context, userKey, phase string, err error) {
	s.setState(userKey, enums.SyncStateFailed)
	s.metrics.IncFailure(phase)
	if s.logg != nil {
		s.logg.Error(ctx, "sync "+phase+" failed", err)
	}
}

func (s *service) setState(userKey string, state enums.SyncState) {
	s.mu.Lock()
	if state == enums.SyncStateIdle {
		delete(s.states, userKey)
	} else {
		s.states[userKey] = state
	}
	s.mu.Unlock()
}
