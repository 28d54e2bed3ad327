package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectWritesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	uri, err := s.PutObject(context.Background(), "pages/techcorp.com/2026-08-30/a.html",
		"text/html; charset=utf-8", strings.NewReader("<html>ok</html>"))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(dir, "pages/techcorp.com/2026-08-30/a.html"), uri)

	data, err := os.ReadFile(filepath.Join(dir, "pages", "techcorp.com", "2026-08-30", "a.html"))
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(data))
}

func TestPutObjectRejectsTraversal(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.PutObject(context.Background(), "../escape.html", "text/html", strings.NewReader("x"))
	require.Error(t, err)

	_, err = s.PutObject(context.Background(), "   ", "text/html", strings.NewReader("x"))
	require.Error(t, err)
}

func TestNewCreatesBaseDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "snapshots")
	_, err := New(base)
	require.NoError(t, err)

	info, err := os.Stat(base)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = New("")
	require.Error(t, err)
}
