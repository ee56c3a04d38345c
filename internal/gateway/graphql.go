package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/stargazers/internal/domain"
)

// GraphQLGateway loads stargazers through the GraphQL API using cursor
// pagination. totalCount drives progress reporting.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	logger        *logrus.Logger
}

// stargazersQuery fetches one page of star timestamps, oldest first.
type stargazersQuery struct {
	Repository struct {
		Stargazers struct {
			TotalCount int
			PageInfo   struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Edges []struct {
				StarredAt githubv4.DateTime
			}
		} `graphql:"stargazers(first: 100, after: $cursor, orderBy: {field: STARRED_AT, direction: ASC})"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGraphQLGateway creates a GraphQLGateway on top of the given HTTP client.
func NewGraphQLGateway(httpClient *http.Client, logger *logrus.Logger) *GraphQLGateway {
	return &GraphQLGateway{
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}
}

// LoadSeries implements Loader.
func (g *GraphQLGateway) LoadSeries(ctx context.Context, id domain.RepositoryIdentifier, onProgress func(int), isCancelled func() bool) (domain.Series, error) {
	log := g.logger.WithField("repo", id.String())
	log.Debug("Fetching stargazers using GraphQL API...")

	variables := map[string]interface{}{
		"owner":  githubv4.String(id.Owner),
		"name":   githubv4.String(id.Name),
		"cursor": (*githubv4.String)(nil),
	}

	var starredAt []time.Time
	for {
		if isCancelled() {
			log.Debugf("Cancellation observed after %d stargazers", len(starredAt))
			return nil, ErrCancelled
		}

		var q stargazersQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for stargazers of %s: %w", id, err)
		}
		for _, edge := range q.Repository.Stargazers.Edges {
			starredAt = append(starredAt, edge.StarredAt.Time)
		}
		onProgress(percent(len(starredAt), q.Repository.Stargazers.TotalCount))

		if !q.Repository.Stargazers.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Repository.Stargazers.PageInfo.EndCursor)
		log.Debug("  Fetching next page of stargazers...")
	}

	log.Debugf("Completed fetching %d stargazers.", len(starredAt))
	return domain.CumulativeSeries(starredAt), nil
}
