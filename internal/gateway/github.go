// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/stargazers/internal/domain"
)

// ErrCancelled is returned by a Loader that observed a cancellation request
// before it finished. It is an expected outcome, not a failure.
var ErrCancelled = errors.New("stargazer load cancelled")

// Loader defines the behavior of a gateway that fetches a repository's
// stargazer history.
//
// onProgress receives a percentage; isCancelled is sampled at the loader's
// own checkpoints. A loader that sees isCancelled() == true may still return
// data if it has already committed to it. A repository without stars is an
// empty, non-nil series; a nil series with a nil error is treated like
// ErrCancelled and leaves the collection untouched.
type Loader interface {
	LoadSeries(ctx context.Context, id domain.RepositoryIdentifier, onProgress func(percent int), isCancelled func() bool) (domain.Series, error)
}

// Backend selects which GitHub API the loader talks to.
type Backend string

const (
	BackendREST    Backend = "rest"
	BackendGraphQL Backend = "graphql"
)

// Options tunes pagination.
type Options struct {
	// PageConcurrency is how many REST pages are fetched at once.
	PageConcurrency int
	// MaxPages caps REST pagination. GitHub refuses pages past 400.
	MaxPages int
}

// NewHTTPClient returns an HTTP client that waits out secondary rate limits
// and, when token is set, authenticates every request with it.
func NewHTTPClient(token string) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	if token == "" {
		return &http.Client{Transport: rateLimitWaiter}, nil
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

// NewLoader is a constructor that creates a Loader for the requested backend.
func NewLoader(backend Backend, token string, opts Options, logger *logrus.Logger) (Loader, error) {
	httpClient, err := NewHTTPClient(token)
	if err != nil {
		return nil, err
	}
	switch backend {
	case BackendREST, "":
		return NewRESTGateway(httpClient, opts, logger), nil
	case BackendGraphQL:
		if token == "" {
			return nil, fmt.Errorf("the GraphQL backend requires GITHUB_TOKEN to be set")
		}
		return NewGraphQLGateway(httpClient, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}
