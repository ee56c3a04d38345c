package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/stargazers/internal/domain"
)

var helloWorld = domain.RepositoryIdentifier{Owner: "octocat", Name: "Hello-World"}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// progressRecorder collects progress callbacks; the REST gateway reports from
// a single goroutine but the recorder is safe either way.
type progressRecorder struct {
	mu     sync.Mutex
	values []int
}

func (p *progressRecorder) record(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, v)
}

func (p *progressRecorder) get() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.values...)
}

func never() bool { return false }

// setupRESTGateway creates a RESTGateway that communicates with a mock HTTP server.
func setupRESTGateway(t *testing.T, handler http.Handler, opts Options) (*RESTGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	return newRESTGateway(restClient, opts, discardLogger()), server
}

// stargazerPages serves numbered pages of stargazers with a Link header that
// advertises the last page, the way GitHub does.
func stargazerPages(t *testing.T, pages map[int]string, lastPage int, hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/Hello-World/stargazers", r.URL.Path)
		assert.Contains(t, r.Header.Get("Accept"), "star+json")
		if hits != nil {
			hits.Add(1)
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}
		if lastPage > 1 {
			link := fmt.Sprintf("<http://%s%s?page=%d>; rel=\"last\"", r.Host, r.URL.Path, lastPage)
			if page < lastPage {
				link = fmt.Sprintf("<http://%s%s?page=%d>; rel=\"next\", ", r.Host, r.URL.Path, page+1) + link
			}
			w.Header().Set("Link", link)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, pages[page])
	}
}

func TestRESTGateway_LoadSeries(t *testing.T) {
	threePages := map[int]string{
		1: `[{"starred_at":"2021-01-01T10:00:00Z","user":{"login":"a"}},{"starred_at":"2021-01-01T12:00:00Z","user":{"login":"b"}}]`,
		2: `[{"starred_at":"2021-01-02T10:00:00Z","user":{"login":"c"}}]`,
		3: `[{"starred_at":"2021-02-01T10:00:00Z","user":{"login":"d"}}]`,
	}
	fullSeries := domain.Series{
		{Timestamp: date("2021-01-01"), Count: 2},
		{Timestamp: date("2021-01-02"), Count: 3},
		{Timestamp: date("2021-02-01"), Count: 4},
	}

	testCases := []struct {
		name             string
		pages            map[int]string
		lastPage         int
		opts             Options
		expectedSeries   domain.Series
		expectedProgress []int
	}{
		{
			name:             "single page without Link header",
			pages:            map[int]string{1: `[{"starred_at":"2021-01-01T10:00:00Z","user":{"login":"a"}}]`},
			lastPage:         1,
			expectedSeries:   domain.Series{{Timestamp: date("2021-01-01"), Count: 1}},
			expectedProgress: []int{100},
		},
		{
			name:             "no stargazers",
			pages:            map[int]string{1: `[]`},
			lastPage:         1,
			expectedSeries:   domain.Series{},
			expectedProgress: []int{100},
		},
		{
			name:             "pages fetched one at a time",
			pages:            threePages,
			lastPage:         3,
			opts:             Options{PageConcurrency: 1},
			expectedSeries:   fullSeries,
			expectedProgress: []int{33, 66, 100},
		},
		{
			name:             "remaining pages fetched in one batch",
			pages:            threePages,
			lastPage:         3,
			opts:             Options{PageConcurrency: 4},
			expectedSeries:   fullSeries,
			expectedProgress: []int{33, 100},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupRESTGateway(t, stargazerPages(t, tc.pages, tc.lastPage, nil), tc.opts)
			defer server.Close()
			progress := &progressRecorder{}

			series, err := gateway.LoadSeries(context.Background(), helloWorld, progress.record, never)

			require.NoError(t, err)
			assert.Equal(t, tc.expectedSeries, series)
			assert.Equal(t, tc.expectedProgress, progress.get())
		})
	}
}

func TestRESTGateway_LoadSeries_Cancelled(t *testing.T) {
	// Arrange: three pages, cancellation requested as soon as the first arrives.
	var hits atomic.Int32
	pages := map[int]string{1: `[{"starred_at":"2021-01-01T10:00:00Z"}]`, 2: `[]`, 3: `[]`}
	gateway, server := setupRESTGateway(t, stargazerPages(t, pages, 3, &hits), Options{PageConcurrency: 1})
	defer server.Close()
	var cancelled atomic.Bool
	onProgress := func(int) { cancelled.Store(true) }

	// Act
	series, err := gateway.LoadSeries(context.Background(), helloWorld, onProgress, cancelled.Load)

	// Assert: the gateway stopped at its first checkpoint.
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, series)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRESTGateway_LoadSeries_CappedPagesAppendTotal(t *testing.T) {
	pages := map[int]string{
		1: `[{"starred_at":"2021-01-01T10:00:00Z"}]`,
		2: `[{"starred_at":"2021-01-02T10:00:00Z"}]`,
	}
	stargazers := stargazerPages(t, pages, 5, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/Hello-World/stargazers", stargazers)
	mux.HandleFunc("/repos/octocat/Hello-World", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"full_name":"octocat/Hello-World","stargazers_count":500}`)
	})
	gateway, server := setupRESTGateway(t, mux, Options{PageConcurrency: 2, MaxPages: 2})
	defer server.Close()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	gateway.now = func() time.Time { return now }

	series, err := gateway.LoadSeries(context.Background(), helloWorld, func(int) {}, never)

	require.NoError(t, err)
	assert.Equal(t, domain.Series{
		{Timestamp: date("2021-01-01"), Count: 1},
		{Timestamp: date("2021-01-02"), Count: 2},
		{Timestamp: now, Count: 500},
	}, series)
}

func TestRESTGateway_LoadSeries_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedErrMsg string
	}{
		{
			name: "error case - repository not found",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expectedErrMsg: "failed to list stargazers of octocat/Hello-World (page 1)",
		},
		{
			name: "error case - later page fails",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("page") == "2" {
					w.WriteHeader(http.StatusInternalServerError)
					fmt.Fprint(w, `{"message": "Internal Server Error"}`)
					return
				}
				w.Header().Set("Link", fmt.Sprintf("<http://%s%s?page=2>; rel=\"last\"", r.Host, r.URL.Path))
				fmt.Fprint(w, `[]`)
			},
			expectedErrMsg: "(page 2)",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupRESTGateway(t, http.HandlerFunc(tc.handlerFunc), Options{})
			defer server.Close()

			series, err := gateway.LoadSeries(context.Background(), helloWorld, func(int) {}, never)

			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrCancelled)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
			assert.Nil(t, series)
		})
	}
}

// setupGraphQLGateway points a GraphQLGateway at a mock server.
func setupGraphQLGateway(handler http.Handler) (*GraphQLGateway, *httptest.Server) {
	server := httptest.NewServer(handler)
	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	return &GraphQLGateway{
		graphqlClient: githubv4.NewEnterpriseClient(server.URL, server.Client()),
		logger:        discardLogger(),
	}, server
}

func TestGraphQLGateway_LoadSeries(t *testing.T) {
	// Arrange: two cursor pages; the second must be requested with the first's cursor.
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
		switch calls.Add(1) {
		case 1:
			assert.Contains(t, string(body), `"owner":"octocat"`)
			assert.Contains(t, string(body), `"cursor":null`)
			fmt.Fprint(w, `{"data":{"repository":{"stargazers":{"totalCount":4,"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"edges":[{"starredAt":"2021-01-01T00:00:00Z"},{"starredAt":"2021-01-01T05:00:00Z"}]}}}}`)
		default:
			assert.Contains(t, string(body), `"cursor":"c1"`)
			fmt.Fprint(w, `{"data":{"repository":{"stargazers":{"totalCount":4,"pageInfo":{"hasNextPage":false,"endCursor":"c2"},"edges":[{"starredAt":"2021-01-02T00:00:00Z"},{"starredAt":"2021-02-01T00:00:00Z"}]}}}}`)
		}
	}
	gateway, server := setupGraphQLGateway(http.HandlerFunc(handler))
	defer server.Close()
	progress := &progressRecorder{}

	// Act
	series, err := gateway.LoadSeries(context.Background(), helloWorld, progress.record, never)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.Series{
		{Timestamp: date("2021-01-01"), Count: 2},
		{Timestamp: date("2021-01-02"), Count: 3},
		{Timestamp: date("2021-02-01"), Count: 4},
	}, series)
	assert.Equal(t, []int{50, 100}, progress.get())
	assert.Equal(t, int32(2), calls.Load())
}

func TestGraphQLGateway_LoadSeries_Cancelled(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"data":{"repository":{"stargazers":{"totalCount":200,"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"edges":[{"starredAt":"2021-01-01T00:00:00Z"}]}}}}`)
	}
	gateway, server := setupGraphQLGateway(http.HandlerFunc(handler))
	defer server.Close()
	var cancelled atomic.Bool

	series, err := gateway.LoadSeries(context.Background(), helloWorld, func(int) { cancelled.Store(true) }, cancelled.Load)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, series)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGraphQLGateway_LoadSeries_Error(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"Could not resolve to a Repository with the name 'octocat/Hello-World'."}]}`)
	}
	gateway, server := setupGraphQLGateway(http.HandlerFunc(handler))
	defer server.Close()

	series, err := gateway.LoadSeries(context.Background(), helloWorld, func(int) {}, never)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute GraphQL query for stargazers of octocat/Hello-World")
	assert.True(t, strings.Contains(err.Error(), "Could not resolve"))
	assert.Nil(t, series)
}

func TestNewLoader(t *testing.T) {
	logger := discardLogger()

	loader, err := NewLoader(BackendREST, "", Options{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &RESTGateway{}, loader)

	loader, err = NewLoader(BackendGraphQL, "token", Options{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GraphQLGateway{}, loader)

	_, err = NewLoader(BackendGraphQL, "", Options{}, logger)
	assert.ErrorContains(t, err, "requires GITHUB_TOKEN")

	_, err = NewLoader("soap", "token", Options{}, logger)
	assert.ErrorContains(t, err, `unknown backend "soap"`)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 100, percent(0, 0))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 100, percent(3, 3))
}
