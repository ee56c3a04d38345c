package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/naka-gawa/stargazers/internal/domain"
	"github.com/naka-gawa/stargazers/internal/gateway"
)

// ErrSessionResolved is returned when Run is called on a session that has
// already been run.
var ErrSessionResolved = errors.New("load session already resolved")

// SessionState is a LoadSession lifecycle state.
type SessionState int

const (
	StateIdle SessionState = iota
	StateStarting
	StateInProgress
	StateSucceeded
	StateCancelled
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateInProgress:
		return "in-progress"
	case StateSucceeded:
		return "succeeded"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CancelToken is a cooperative cancellation flag. Requesting cancellation is
// advisory: the loader decides when, or whether, to observe it.
type CancelToken struct {
	requested atomic.Bool
}

// Request marks the token as cancelled.
func (t *CancelToken) Request() { t.requested.Store(true) }

// IsRequested reports whether cancellation was requested.
func (t *CancelToken) IsRequested() bool { return t.requested.Load() }

// SessionResult is how a session resolved.
type SessionResult struct {
	State  SessionState
	Series domain.Series
	Err    error
}

// LoadSession governs one in-flight fetch. It is the only owner of its
// cancel token and the only consumer of the loader's progress events.
type LoadSession struct {
	ID     uuid.UUID
	Target domain.RepositoryIdentifier

	token CancelToken

	mu       sync.Mutex
	state    SessionState
	progress int
}

// NewLoadSession creates a session in the Starting state.
func NewLoadSession(target domain.RepositoryIdentifier) *LoadSession {
	return &LoadSession{
		ID:     uuid.New(),
		Target: target,
		state:  StateStarting,
	}
}

// Cancel requests cooperative cancellation.
func (s *LoadSession) Cancel() { s.token.Request() }

// CancelRequested reports whether Cancel was called.
func (s *LoadSession) CancelRequested() bool { return s.token.IsRequested() }

// State returns the current lifecycle state.
func (s *LoadSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the last value reported by the loader.
func (s *LoadSession) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Run invokes the loader and resolves the session exactly once. Progress
// values are stored and forwarded as-is. A loader that returns data after
// cancellation was requested still yields StateSucceeded; a nil series with
// no error means no result and yields StateCancelled.
func (s *LoadSession) Run(ctx context.Context, loader gateway.Loader, onProgress func(int)) SessionResult {
	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		return SessionResult{State: s.State(), Err: ErrSessionResolved}
	}
	s.state = StateInProgress
	s.mu.Unlock()

	sink := func(p int) {
		s.mu.Lock()
		s.progress = p
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	}

	series, err := loader.LoadSeries(ctx, s.Target, sink, s.token.IsRequested)

	result := SessionResult{Series: series, Err: err}
	switch {
	case err == nil && series == nil:
		result = SessionResult{State: StateCancelled}
	case err == nil:
		result.State = StateSucceeded
	case errors.Is(err, gateway.ErrCancelled):
		result = SessionResult{State: StateCancelled}
	default:
		result.State = StateFailed
		result.Series = nil
	}

	s.mu.Lock()
	s.state = result.State
	s.mu.Unlock()
	return result
}
