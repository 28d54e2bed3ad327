package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrimaryFetchReturnsBody(t *testing.T) {
	t.Parallel()

	const page = "<html><body><h1>Backend Engineer</h1></body></html>"
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	p := NewPrimary(PrimaryConfig{Timeout: 2 * time.Second}, zap.NewNop())
	html, err := p.Fetch(context.Background(), srv.URL+"/jobs/1")
	require.NoError(t, err)
	require.Equal(t, page, html)
	require.Equal(t, DefaultUserAgent, gotAgent)
}

func TestPrimaryFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		t.Cleanup(srv.Close)

		p := NewPrimary(PrimaryConfig{Timeout: 2 * time.Second}, zap.NewNop())
		html, err := p.Fetch(context.Background(), srv.URL)
		require.ErrorIs(t, err, ErrNoContent)
		require.Empty(t, html)
	}
}

func TestPrimaryFetchUnreachableHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	p := NewPrimary(PrimaryConfig{Timeout: time.Second}, zap.NewNop())
	_, err := p.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrNoContent)
}

func TestPrimaryFetchFollowsRedirects(t *testing.T) {
	t.Parallel()

	const page = "<html><body>final</body></html>"
	mux := http.NewServeMux()
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewPrimary(PrimaryConfig{Timeout: 2 * time.Second}, zap.NewNop())
	html, err := p.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	require.Equal(t, page, html)
}

func TestPrimaryFetchConcurrentCalls(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>" + r.URL.Path + "</html>"))
	}))
	t.Cleanup(srv.Close)

	p := NewPrimary(PrimaryConfig{Timeout: 2 * time.Second}, zap.NewNop())
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := p.Fetch(context.Background(), srv.URL+"/jobs/x")
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-errs)
	}
}
