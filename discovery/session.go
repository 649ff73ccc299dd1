package discovery

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"sportmatch/logging"
	"sportmatch/models"
)

const (
	opRefill = "refill"
	opDecide = "decide"
)

// Backend is the remote API a Session drives
type Backend interface {
	ListCandidates(ctx context.Context) ([]models.Candidate, error)
	RecordDecision(ctx context.Context, id models.CandidateID, liked bool) (*models.SwipeResult, error)
}

// MatchEvent is the one-shot notification emitted when a like turned into a
// mutual match
type MatchEvent struct {
	CandidateID models.CandidateID
	Name        string
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger logr.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records session activity on m
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session is the discovery state owned by one active discovery view.
// Create one per view (and per logged in user) and Close it on teardown.
type Session struct {
	ID string

	backend Backend
	logger  logr.Logger
	metrics *Metrics

	mu            sync.Mutex
	batch         []models.Candidate
	cursor        int
	busy          bool
	loaded        bool
	lastError     string
	matches       []MatchEvent
	generation    uint64
	closed        bool
	invalidated   bool
	invalidatedCh chan struct{}
}

// New creates an idle session with an empty batch. Nothing is fetched until
// Refill is called.
func New(backend Backend, opts ...Option) *Session {
	s := &Session{
		ID:            uuid.NewString(),
		backend:       backend,
		logger:        logr.Discard(),
		invalidatedCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithName("discovery").WithValues("session", s.ID)
	return s
}

// Refill replaces the batch with a freshly fetched one and resets the cursor.
//
// It is a no-op while another operation is in flight. On failure the batch
// and cursor are left as they were and State.Err is set; Refill never retries
// on its own.
func (s *Session) Refill(ctx context.Context) State {
	s.mu.Lock()
	if !s.acceptLocked(opRefill) {
		defer s.mu.Unlock()
		return s.stateLocked()
	}
	prev := s.phaseLocked()
	s.busy = true
	s.observeLocked(prev)
	gen := s.generation
	s.mu.Unlock()

	s.logger.V(logging.DEBUG).Info("Fetching candidates")
	batch, err := s.backend.ListCandidates(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		s.logger.V(logging.VERBOSE).Info("Dropping stale refill result")
		s.metrics.refill(resultStale, 0)
		s.releaseLocked()
		return s.stateLocked()
	}

	switch {
	case err == nil:
		s.batch = slices.Clone(batch)
		s.cursor = 0
		s.lastError = ""
		s.loaded = true
		result := resultSuccess
		if len(s.batch) == 0 {
			result = resultEmpty
		}
		s.metrics.refill(result, len(s.batch))
		s.logger.V(logging.VERBOSE).Info("Batch refilled", "size", len(s.batch))
	case isInvalidation(err):
		s.metrics.refill(resultInvalidated, 0)
		s.invalidateLocked()
	default:
		s.lastError = err.Error()
		s.metrics.refill(resultError, 0)
		s.logger.Info("Refill failed", "error", s.lastError)
	}

	// busy is released only after the batch, cursor and error are settled.
	s.releaseLocked()
	return s.stateLocked()
}

// Decide records a like (liked == true) or dislike for the current candidate.
//
// It is a no-op while another operation is in flight or when there is no
// current candidate. The target is captured before the remote call, so the
// decision is always recorded for the candidate that was current when Decide
// was called. On success the cursor advances; on failure it stays put so the
// same decision can be retried.
func (s *Session) Decide(ctx context.Context, liked bool) State {
	decision := string(models.DecisionFor(liked))

	s.mu.Lock()
	if !s.acceptLocked(opDecide) {
		defer s.mu.Unlock()
		return s.stateLocked()
	}
	if s.cursor >= len(s.batch) {
		defer s.mu.Unlock()
		s.metrics.dropped(opDecide, reasonNoCandidate)
		s.logger.V(logging.DEBUG).Info("Ignoring decision without a current candidate")
		return s.stateLocked()
	}
	prev := s.phaseLocked()
	target := s.batch[s.cursor]
	s.busy = true
	s.observeLocked(prev)
	gen := s.generation
	s.mu.Unlock()

	logger := s.logger.WithValues("candidateId", target.ID, "decision", decision)
	logger.V(logging.DEBUG).Info("Recording decision")
	result, err := s.backend.RecordDecision(ctx, target.ID, liked)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		// A reset only discards the view; a match made remotely is still
		// announced.
		matched := err == nil && !s.closed && !s.invalidated && s.matchLocked(logger, target, result)
		logger.V(logging.VERBOSE).Info("Dropping stale decision result", "match", matched)
		s.metrics.decision(decision, resultStale, matched)
		s.releaseLocked()
		return s.stateLocked()
	}

	switch {
	case err == nil:
		s.lastError = ""
		matched := s.matchLocked(logger, target, result)
		if s.cursor < len(s.batch) {
			s.cursor++
		}
		s.metrics.decision(decision, resultSuccess, matched)
	case isInvalidation(err):
		s.metrics.decision(decision, resultInvalidated, false)
		s.invalidateLocked()
	default:
		s.lastError = err.Error()
		s.metrics.decision(decision, resultError, false)
		logger.Info("Decision failed", "error", s.lastError)
	}

	s.releaseLocked()
	return s.stateLocked()
}

// Like is Decide(ctx, true)
func (s *Session) Like(ctx context.Context) State {
	return s.Decide(ctx, true)
}

// Dislike is Decide(ctx, false)
func (s *Session) Dislike(ctx context.Context) State {
	return s.Decide(ctx, false)
}

// State returns a snapshot of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// TakeMatch returns the oldest undelivered match notification. Every match is
// returned exactly once.
func (s *Session) TakeMatch() (MatchEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.matches) == 0 {
		return MatchEvent{}, false
	}
	m := s.matches[0]
	s.matches = s.matches[1:]
	return m, true
}

// DismissError clears the last error once the user has seen it
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.phaseLocked()
	s.lastError = ""
	s.observeLocked(prev)
}

// Invalidated is closed when the backend rejects the session credential.
// After that every entry point is a no-op; build a new Session once the
// user has logged in again.
func (s *Session) Invalidated() <-chan struct{} {
	return s.invalidatedCh
}

// Invalidate marks the session as invalidated. It is safe to call more than
// once and from any goroutine, typically from the API client's 401 hook.
// The result of an operation still in flight is discarded when it arrives.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

// Reset discards the batch, cursor and last error, e.g. after the discovery
// preferences changed. An operation already in flight keeps the session busy
// until it returns; its result is dropped, except for a match notification,
// and its remote call still completes for the candidate it captured.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.phaseLocked()
	s.generation++
	s.batch = nil
	s.cursor = 0
	s.loaded = false
	s.lastError = ""
	s.observeLocked(prev)
	s.logger.V(logging.VERBOSE).Info("Session reset", "generation", s.generation)
}

// Close tears the session down. In-flight results are dropped on arrival and
// later calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.busy = false
	s.matches = nil
	s.logger.V(logging.VERBOSE).Info("Session closed")
}

// acceptLocked applies the busy guard shared by every mutating entry point
func (s *Session) acceptLocked(op string) bool {
	switch {
	case s.closed:
		s.metrics.dropped(op, reasonClosed)
	case s.invalidated:
		s.metrics.dropped(op, reasonInvalidated)
	case s.busy:
		s.metrics.dropped(op, reasonBusy)
		s.logger.V(logging.DEBUG).Info("Ignoring call while busy", "operation", op)
	default:
		return true
	}
	return false
}

// currentLocked reports whether a result for an operation started in
// generation gen may still be applied
func (s *Session) currentLocked(gen uint64) bool {
	return !s.closed && !s.invalidated && gen == s.generation
}

// matchLocked queues a notification when result reports a mutual match
func (s *Session) matchLocked(logger logr.Logger, target models.Candidate, result *models.SwipeResult) bool {
	if result == nil || !result.Match {
		return false
	}
	name := result.MatchedName
	if name == "" {
		name = target.Name
	}
	s.matches = append(s.matches, MatchEvent{CandidateID: target.ID, Name: name})
	logger.Info("It's a match!", "name", name)
	return true
}

// releaseLocked clears the busy flag once the in-flight operation returned.
// Close and invalidation may have cleared it already.
func (s *Session) releaseLocked() {
	if !s.busy {
		return
	}
	s.busy = false
	s.observeLocked(PhaseBusy)
}

func (s *Session) invalidateLocked() {
	if s.invalidated {
		return
	}
	s.invalidated = true
	s.busy = false
	close(s.invalidatedCh)
	s.logger.Info("Session invalidated, re-authentication required")
}

func (s *Session) phaseLocked() Phase {
	return derivePhase(len(s.batch), s.cursor, s.busy, s.lastError)
}

func (s *Session) observeLocked(prev Phase) {
	next := s.phaseLocked()
	if prev == next {
		return
	}
	if !Allowed(prev, next) {
		s.logger.Error(nil, "Unexpected phase transition", "from", prev, "to", next)
		return
	}
	s.logger.V(logging.TRACE).Info("Phase transition", "from", prev, "to", next)
}

func (s *Session) stateLocked() State {
	st := State{
		Phase:       s.phaseLocked(),
		Cursor:      s.cursor,
		BatchSize:   len(s.batch),
		Remaining:   len(s.batch) - s.cursor,
		Busy:        s.busy,
		Exhausted:   len(s.batch) > 0 && s.cursor == len(s.batch),
		Loaded:      s.loaded,
		Err:         s.lastError,
		Invalidated: s.invalidated,
		Closed:      s.closed,
	}
	if s.cursor < len(s.batch) {
		current := s.batch[s.cursor]
		st.Current = &current
	}
	return st
}

// isInvalidation recognises backend errors that force re-authentication
// without importing the transport package
func isInvalidation(err error) bool {
	var inv interface{ SessionInvalidated() bool }
	return errors.As(err, &inv) && inv.SessionInvalidated()
}
