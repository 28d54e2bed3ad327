package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAgent = "jobflow-test"

func robotsServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAllowedHonorsDisallowRules(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, http.StatusOK,
		"User-agent: *\nDisallow: /private/\nAllow: /\n", nil)
	c := NewChecker(testAgent, time.Second, zap.NewNop())

	require.True(t, c.Allowed(context.Background(), srv.URL+"/jobs/123"))
	require.False(t, c.Allowed(context.Background(), srv.URL+"/private/listing"))
}

func TestAllowedMatchesAgentGroup(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, http.StatusOK,
		"User-agent: "+testAgent+"\nDisallow: /\n\nUser-agent: *\nAllow: /\n", nil)
	c := NewChecker(testAgent, time.Second, zap.NewNop())

	require.False(t, c.Allowed(context.Background(), srv.URL+"/jobs/123"))

	other := NewChecker("some-other-agent", time.Second, zap.NewNop())
	require.True(t, other.Allowed(context.Background(), srv.URL+"/jobs/123"))
}

func TestAllowedFailsOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
	}{
		{"missing", http.StatusNotFound},
		{"gone", http.StatusGone},
		{"server error", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := robotsServer(t, tc.status, "", nil)
			c := NewChecker(testAgent, time.Second, zap.NewNop())
			require.True(t, c.Allowed(context.Background(), srv.URL+"/jobs/123"))
		})
	}
}

func TestAllowedFailsOpenOnUnreachableHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewChecker(testAgent, 500*time.Millisecond, zap.NewNop())
	require.True(t, c.Allowed(context.Background(), srv.URL+"/jobs/123"))
}

func TestRulesFetchedOncePerDomain(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private/\n", &hits)
	c := NewChecker(testAgent, time.Second, zap.NewNop())

	for i := 0; i < 5; i++ {
		c.Allowed(context.Background(), srv.URL+"/jobs/123")
		c.Allowed(context.Background(), srv.URL+"/private/listing")
	}
	require.Equal(t, int64(1), hits.Load())
}

func TestCrawlDelay(t *testing.T) {
	t.Parallel()

	srv := robotsServer(t, http.StatusOK,
		"User-agent: *\nCrawl-delay: 2\nDisallow: /private/\n", nil)
	c := NewChecker(testAgent, time.Second, zap.NewNop())

	delay, ok := c.CrawlDelay(context.Background(), srv.URL+"/jobs/123")
	require.True(t, ok)
	require.Equal(t, 2*time.Second, delay)

	none := robotsServer(t, http.StatusOK, "User-agent: *\nAllow: /\n", nil)
	_, ok = NewChecker(testAgent, time.Second, zap.NewNop()).
		CrawlDelay(context.Background(), none.URL+"/jobs/123")
	require.False(t, ok)
}
