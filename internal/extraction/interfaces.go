package extraction

import (
	"context"
	"time"
)

// Fetcher retrieves the HTML body of a URL. A failed fetch surfaces as an
// error; the pipeline treats any error as absence of content, never as a
// fatal condition.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// RobotsPolicy answers whether the configured agent may fetch a URL.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool
	CrawlDelay(ctx context.Context, url string) (time.Duration, bool)
}

// Parser extracts fields deterministically from raw HTML.
type Parser interface {
	Parse(html, url string) Result
}

// FieldExtractor extracts fields via an external inference service. Used only
// when deterministic parsing is incomplete.
type FieldExtractor interface {
	Extract(ctx context.Context, html string) (Result, error)
}

// QualityChecker validates an extracted result via an external inference
// service. Errors are converted by the pipeline into a fail-open outcome.
type QualityChecker interface {
	Validate(ctx context.Context, result Result, pageTitle string) (Quality, error)
}

// Redactor scrubs contact-identifying content from free text.
type Redactor interface {
	Redact(text string) string
}

// Snapshotter archives raw page HTML and returns the blob URI. Archival is
// best effort; failures are logged and never affect the extraction.
type Snapshotter interface {
	ArchivePage(ctx context.Context, url, html string) (string, error)
}

// CompanyMemo maps bare domains to previously seen company names. Best
// effort only; a stale or empty memo never affects correctness.
type CompanyMemo interface {
	Lookup(domain string) (string, bool)
	Remember(domain, company string)
}
