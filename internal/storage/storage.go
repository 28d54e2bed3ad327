// Package storage abstracts the blob store used to archive raw page
// snapshots alongside extracted jobs.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jobflow/jobflow/internal/urlutil"
)

// BlobStore persists a named object and returns the URI it can later be
// retrieved from.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// SnapshotContentType is the content type recorded on archived pages.
const SnapshotContentType = "text/html; charset=utf-8"

// Archiver writes fetched HTML into a blob store under a stable layout:
// <prefix>/<domain>/<date>/<content-hash>.html. Hash-keyed paths make
// re-archiving identical content a no-op overwrite.
type Archiver struct {
	store  BlobStore
	prefix string
}

func NewArchiver(store BlobStore, prefix string) *Archiver {
	if prefix == "" {
		prefix = "pages"
	}
	return &Archiver{store: store, prefix: prefix}
}

// ArchivePage stores the page HTML and returns its blob URI.
func (a *Archiver) ArchivePage(ctx context.Context, pageURL, html string) (string, error) {
	domain := urlutil.Domain(pageURL)
	if domain == "" {
		domain = "unknown"
	}
	sum := sha256.Sum256([]byte(html))
	path := fmt.Sprintf("%s/%s/%s/%s.html",
		a.prefix,
		domain,
		time.Now().UTC().Format("2006-01-02"),
		hex.EncodeToString(sum[:16]),
	)
	uri, err := a.store.PutObject(ctx, path, SnapshotContentType, strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("archive page %s: %w", pageURL, err)
	}
	return uri, nil
}
