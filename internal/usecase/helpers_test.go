package usecase

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/naka-gawa/stargazers/internal/domain"
	"github.com/naka-gawa/stargazers/internal/gateway"
)

var (
	helloWorld = domain.RepositoryIdentifier{Owner: "octocat", Name: "Hello-World"}
	spoonKnife = domain.RepositoryIdentifier{Owner: "octocat", Name: "Spoon-Knife"}
	linguist   = domain.RepositoryIdentifier{Owner: "github", Name: "linguist"}
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// mockLoader is a mock implementation of the gateway.Loader interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) LoadSeries(ctx context.Context, id domain.RepositoryIdentifier, onProgress func(int), isCancelled func() bool) (domain.Series, error) {
	args := m.Called(ctx, id, onProgress, isCancelled)
	// We need to handle the case where the returned series is nil (e.g., when an error occurs).
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Series), args.Error(1)
}

// gatedLoader blocks inside LoadSeries until released, so tests can act
// while a session is in progress.
type gatedLoader struct {
	entered     chan struct{}
	release     chan struct{}
	series      domain.Series
	honorCancel bool
}

func newGatedLoader(series domain.Series, honorCancel bool) *gatedLoader {
	return &gatedLoader{
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
		series:      series,
		honorCancel: honorCancel,
	}
}

func (g *gatedLoader) LoadSeries(ctx context.Context, id domain.RepositoryIdentifier, onProgress func(int), isCancelled func() bool) (domain.Series, error) {
	onProgress(10)
	close(g.entered)
	<-g.release
	if g.honorCancel && isCancelled() {
		return nil, gateway.ErrCancelled
	}
	onProgress(100)
	return g.series, nil
}

type loadResult struct {
	outcome Outcome
	err     error
}

func loadAsync(app *App, id domain.RepositoryIdentifier) <-chan loadResult {
	done := make(chan loadResult, 1)
	go func() {
		outcome, err := app.RequestLoad(context.Background(), id)
		done <- loadResult{outcome: outcome, err: err}
	}()
	return done
}
