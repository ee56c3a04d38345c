// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/stargazers/internal/domain"
	"github.com/naka-gawa/stargazers/internal/gateway"
)

// ErrInactiveSession is returned by Run for a session that App did not start
// or that has already resolved.
var ErrInactiveSession = errors.New("load session is not active")

// FetchErrorTitle is the alert title for a failed load.
const FetchErrorTitle = "Error loading stargazers"

// Outcome is how a load request ended.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeAdded
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeAdded:
		return "added"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// App is the application state: the collection, the alert slot, the loading
// indicator and the one active session. Front ends own an App and call its
// methods; there is no package-level state.
//
// The mutex is never held while the loader runs, so cancel, remove, dismiss
// and snapshots stay responsive during a fetch.
type App struct {
	loader   gateway.Loader
	logger   *logrus.Logger
	maxRepos int

	mu         sync.Mutex
	collection *Collection
	alerts     AlertChannel
	loading    domain.Loading
	session    *LoadSession
	running    bool
	chart      domain.ChartSpec
	observers  []func(domain.State)
}

// NewApp creates a new App instance.
func NewApp(loader gateway.Loader, maxRepos int, palette []string, logger *logrus.Logger) *App {
	return &App{
		loader:     loader,
		logger:     logger,
		maxRepos:   maxRepos,
		collection: NewCollection(palette),
		chart:      Aggregate(nil),
	}
}

// MaxRepos returns the configured collection ceiling.
func (a *App) MaxRepos() int { return a.maxRepos }

// Subscribe registers fn to receive a snapshot after every state change,
// including progress updates. fn may be called from the loader's goroutine.
func (a *App) Subscribe(fn func(domain.State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// RequestLoad validates id and, if accepted, loads it. It blocks until the
// session resolves.
func (a *App) RequestLoad(ctx context.Context, id domain.RepositoryIdentifier) (Outcome, error) {
	session, err := a.Begin(id)
	if err != nil {
		return OutcomeRejected, err
	}
	return a.Run(ctx, session)
}

// Begin runs the validation half of a load request. On success the returned
// session is the active one and must be passed to Run.
func (a *App) Begin(id domain.RepositoryIdentifier) (*LoadSession, error) {
	id = id.Normalize()

	a.mu.Lock()
	var err error
	if a.session != nil {
		err = domain.NewValidationError(domain.KindBusy, id, "a load for %s is already in progress", a.session.Target)
	} else {
		err = Validate(id, a.collection.List(), a.maxRepos)
	}
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			a.alerts.Set(AlertFor(vErr, a.maxRepos))
		}
		a.mu.Unlock()
		a.logger.WithField("repo", id.String()).Infof("Usecase: Load request rejected: %v", err)
		a.notify()
		return nil, err
	}

	session := NewLoadSession(id)
	a.session = session
	a.loading = domain.Loading{IsLoading: true, Progress: 0, Target: id.String()}
	a.mu.Unlock()

	a.logger.WithFields(logrus.Fields{"session": session.ID, "repo": id.String()}).Info("Usecase: Load session started.")
	a.notify()
	return session, nil
}

// Run drives session to resolution and merges the result. The collection is
// mutated at most once, and only when the loader returned data.
func (a *App) Run(ctx context.Context, session *LoadSession) (Outcome, error) {
	// Only the first Run of the active session drives it.
	a.mu.Lock()
	if session == nil || a.session != session || a.running {
		a.mu.Unlock()
		return OutcomeRejected, ErrInactiveSession
	}
	a.running = true
	a.mu.Unlock()

	log := a.logger.WithFields(logrus.Fields{"session": session.ID, "repo": session.Target.String()})
	result := session.Run(ctx, a.loader, func(p int) { a.onProgress(session, p) })

	a.mu.Lock()
	outcome := OutcomeAdded
	err := result.Err
	switch result.State {
	case StateSucceeded:
		series := result.Series
		if addErr := a.collection.Add(session.Target, series, a.collection.NextColor()); addErr != nil {
			log.Errorf("Usecase: Could not merge loaded series: %v", addErr)
			outcome, err = OutcomeFailed, addErr
			break
		}
		a.chart = Aggregate(a.collection.List())
		log.Infof("Usecase: Added %d data points.", len(series))
	case StateCancelled:
		outcome = OutcomeCancelled
		log.Info("Usecase: Load cancelled.")
	case StateFailed:
		outcome = OutcomeFailed
		a.alerts.Show(FetchErrorTitle, result.Err.Error())
		log.Warnf("Usecase: Load failed: %v", result.Err)
	default:
		outcome = OutcomeFailed
		log.Errorf("Usecase: Session resolved in unexpected state %s: %v", result.State, result.Err)
	}
	a.session = nil
	a.running = false
	a.loading = domain.Loading{}
	a.mu.Unlock()

	a.notify()
	return outcome, err
}

func (a *App) onProgress(session *LoadSession, p int) {
	a.mu.Lock()
	if a.session != session {
		a.mu.Unlock()
		return
	}
	a.loading.IsLoading = true
	a.loading.Progress = p
	a.mu.Unlock()
	a.notify()
}

// RequestCancel asks the active session to stop. It reports whether there
// was one.
func (a *App) RequestCancel() bool {
	a.mu.Lock()
	session := a.session
	if session != nil {
		session.Cancel()
	}
	a.mu.Unlock()

	if session == nil {
		return false
	}
	a.logger.WithFields(logrus.Fields{"session": session.ID, "repo": session.Target.String()}).Info("Usecase: Cancellation requested.")
	return true
}

// Stopping reports whether the active session has already been asked to stop.
func (a *App) Stopping() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.session.CancelRequested()
}

// RequestRemove removes id from the collection. It is idempotent.
func (a *App) RequestRemove(id domain.RepositoryIdentifier) bool {
	id = id.Normalize()
	a.mu.Lock()
	removed := a.collection.Remove(id)
	if removed {
		a.chart = Aggregate(a.collection.List())
	}
	a.mu.Unlock()

	if removed {
		a.logger.WithField("repo", id.String()).Info("Usecase: Repository removed.")
		a.notify()
	}
	return removed
}

// DismissAlert clears the alert slot.
func (a *App) DismissAlert() {
	a.mu.Lock()
	a.alerts.Dismiss()
	a.mu.Unlock()
	a.notify()
}

// State returns a snapshot for rendering. The chart is the cached result of
// the last collection change.
func (a *App) State() domain.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// Records returns the loaded repositories in insertion order.
func (a *App) Records() []domain.RepositoryRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collection.List()
}

func (a *App) snapshot() domain.State {
	return domain.State{
		Alert:   a.alerts.Current(),
		Loading: a.loading,
		Repos:   a.collection.List(),
		Chart:   a.chart,
	}
}

func (a *App) notify() {
	a.mu.Lock()
	observers := a.observers
	state := a.snapshot()
	a.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}
