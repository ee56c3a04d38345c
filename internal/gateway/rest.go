package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/stargazers/internal/domain"
)

const (
	stargazersPerPage      = 100
	defaultPageConcurrency = 4
	defaultMaxPages        = 400
)

// RESTGateway loads stargazers through the REST API. The first page tells it
// how many pages exist; the rest are fetched in bounded concurrent batches.
type RESTGateway struct {
	restClient  *github.Client
	concurrency int
	maxPages    int
	logger      *logrus.Logger
	now         func() time.Time
}

// NewRESTGateway creates a RESTGateway on top of the given HTTP client.
func NewRESTGateway(httpClient *http.Client, opts Options, logger *logrus.Logger) *RESTGateway {
	return newRESTGateway(github.NewClient(httpClient), opts, logger)
}

func newRESTGateway(client *github.Client, opts Options, logger *logrus.Logger) *RESTGateway {
	if opts.PageConcurrency < 1 {
		opts.PageConcurrency = defaultPageConcurrency
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = defaultMaxPages
	}
	return &RESTGateway{
		restClient:  client,
		concurrency: opts.PageConcurrency,
		maxPages:    opts.MaxPages,
		logger:      logger,
		now:         time.Now,
	}
}

// LoadSeries implements Loader.
func (g *RESTGateway) LoadSeries(ctx context.Context, id domain.RepositoryIdentifier, onProgress func(int), isCancelled func() bool) (domain.Series, error) {
	log := g.logger.WithField("repo", id.String())
	log.Debug("Fetching first stargazer page using REST API...")

	first, resp, err := g.listPage(ctx, id, 1)
	if err != nil {
		return nil, err
	}

	lastPage := max(resp.LastPage, 1)
	truncated := false
	if lastPage > g.maxPages {
		log.Debugf("Repository has %d pages, only the first %d will be fetched", lastPage, g.maxPages)
		lastPage = g.maxPages
		truncated = true
	}

	pages := make([][]*github.Stargazer, lastPage)
	pages[0] = first
	onProgress(percent(1, lastPage))

	for start := 2; start <= lastPage; start += g.concurrency {
		if isCancelled() {
			log.Debugf("Cancellation observed before page %d", start)
			return nil, ErrCancelled
		}
		end := min(start+g.concurrency-1, lastPage)

		eg, egCtx := errgroup.WithContext(ctx)
		for page := start; page <= end; page++ {
			eg.Go(func() error {
				result, _, err := g.listPage(egCtx, id, page)
				if err != nil {
					return err
				}
				pages[page-1] = result
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		log.Debugf("  Fetched stargazer pages %d-%d of %d", start, end, lastPage)
		onProgress(percent(end, lastPage))
	}

	var starredAt []time.Time
	for _, page := range pages {
		for _, sg := range page {
			starredAt = append(starredAt, sg.GetStarredAt().Time)
		}
	}
	series := domain.CumulativeSeries(starredAt)

	if truncated {
		series, err = g.appendCurrentTotal(ctx, id, series)
		if err != nil {
			return nil, err
		}
	}

	log.Debugf("Completed fetching %d stargazers.", len(starredAt))
	return series, nil
}

func (g *RESTGateway) listPage(ctx context.Context, id domain.RepositoryIdentifier, page int) ([]*github.Stargazer, *github.Response, error) {
	opts := &github.ListOptions{Page: page, PerPage: stargazersPerPage}
	result, resp, err := g.restClient.Activity.ListStargazers(ctx, id.Owner, id.Name, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list stargazers of %s (page %d): %w", id, page, err)
	}
	return result, resp, nil
}

// appendCurrentTotal closes a capped series with the repository's current
// star count so the line still ends at the real total.
func (g *RESTGateway) appendCurrentTotal(ctx context.Context, id domain.RepositoryIdentifier, series domain.Series) (domain.Series, error) {
	repo, _, err := g.restClient.Repositories.Get(ctx, id.Owner, id.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository %s: %w", id, err)
	}
	total := repo.GetStargazersCount()
	if n := len(series); n > 0 && series[n-1].Count >= total {
		return series, nil
	}
	return append(series, domain.DataPoint{Timestamp: g.now().UTC(), Count: total}), nil
}
