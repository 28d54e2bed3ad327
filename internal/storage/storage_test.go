package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow/internal/storage/memory"
)

func TestArchivePageLayout(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	a := NewArchiver(store, "pages")

	uri, err := a.ArchivePage(context.Background(), "https://www.techcorp.com/jobs/123", "<html>snapshot</html>")
	require.NoError(t, err)

	date := time.Now().UTC().Format("2006-01-02")
	require.True(t, strings.HasPrefix(uri, "memory://pages/techcorp.com/"+date+"/"), "uri %q", uri)
	require.True(t, strings.HasSuffix(uri, ".html"))

	path := strings.TrimPrefix(uri, "memory://")
	data, ok := store.GetObject(path)
	require.True(t, ok)
	require.Equal(t, "<html>snapshot</html>", string(data))
}

func TestArchivePageUnknownDomain(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	a := NewArchiver(store, "")

	uri, err := a.ArchivePage(context.Background(), "::not-a-url::", "<html></html>")
	require.NoError(t, err)
	require.Contains(t, uri, "memory://pages/unknown/")
}

func TestArchivePageDedupesIdenticalContent(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	a := NewArchiver(store, "pages")

	first, err := a.ArchivePage(context.Background(), "https://techcorp.com/jobs/123", "<html>same</html>")
	require.NoError(t, err)
	second, err := a.ArchivePage(context.Background(), "https://techcorp.com/jobs/123", "<html>same</html>")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.Len())

	third, err := a.ArchivePage(context.Background(), "https://techcorp.com/jobs/123", "<html>changed</html>")
	require.NoError(t, err)
	require.NotEqual(t, first, third)
	require.Equal(t, 2, store.Len())
}

type failingStore struct{}

func (failingStore) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("bucket unavailable")
}

func TestArchivePagePropagatesStoreError(t *testing.T) {
	t.Parallel()

	a := NewArchiver(failingStore{}, "pages")
	_, err := a.ArchivePage(context.Background(), "https://techcorp.com/jobs/123", "<html></html>")
	require.Error(t, err)
	require.Contains(t, err.Error(), "archive page")
}
