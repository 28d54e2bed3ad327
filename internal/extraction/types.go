// Package extraction defines the core types and the fallback pipeline for
// pulling structured job-posting fields out of arbitrary web pages.
package extraction

import (
	"strings"
	"unicode/utf8"
)

// Sentinel values used when a required field could not be extracted.
const (
	UnknownTitle   = "Unknown Title"
	UnknownCompany = "Unknown"
)

// MaxDescriptionLen caps the description field on every extraction path.
const MaxDescriptionLen = 10000

// FetchMethod identifies which fetch strategy produced the page HTML.
type FetchMethod string

// Fetch methods reported in metrics and source tags.
const (
	FetchPrimary  FetchMethod = "primary"
	FetchRendered FetchMethod = "rendered"
)

// ExtractionMethod identifies which extraction strategy produced the fields.
type ExtractionMethod string

// Extraction methods reported in metrics and source tags.
const (
	ExtractStructured ExtractionMethod = "structured"
	ExtractLLM        ExtractionMethod = "llm"
)

// Result holds the fields extracted from a single job-posting page.
// Title and Company carry sentinel values when absent; the remaining
// fields are empty strings when nothing was found.
type Result struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Salary      string `json:"salary,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
}

// IsComplete reports whether the essential fields are present. This predicate
// is the sole gate for fallback escalation.
func (r Result) IsComplete() bool {
	return r.Title != UnknownTitle &&
		r.Company != UnknownCompany &&
		strings.TrimSpace(r.Title) != "" &&
		strings.TrimSpace(r.Company) != ""
}

// Truncated returns a copy with the description capped at MaxDescriptionLen.
func (r Result) Truncated() Result {
	r.Description = TruncateDescription(r.Description)
	return r
}

// TruncateDescription caps text at MaxDescriptionLen bytes, backing off so the
// cut never lands inside a multi-byte rune.
func TruncateDescription(s string) string {
	if len(s) <= MaxDescriptionLen {
		return s
	}
	cut := MaxDescriptionLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Metrics records how a single pipeline invocation went. It is created fresh
// per call and immutable once the pipeline returns it.
type Metrics struct {
	FetchMethod      FetchMethod      `json:"fetch_method"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	ValidationRan    bool             `json:"validation_ran"`
	Confidence       float64          `json:"confidence"`
	FallbacksUsed    int              `json:"fallbacks_used"`
	SnapshotURI      string           `json:"snapshot_uri,omitempty"`
}

// sourceTag composes the provenance tag recorded on the final result,
// e.g. "primary+structured" or "rendered+llm".
func sourceTag(fetch FetchMethod, extract ExtractionMethod) string {
	return string(fetch) + "+" + string(extract)
}

// Options controls which optional pipeline stages run.
type Options struct {
	UseSecondaryFetch bool
	UseLLMFallback    bool
	UseLLMValidation  bool
	ApplyPIIFilter    bool
	CheckRobots       bool
}

// DefaultOptions enables every stage except LLM validation, which is off by
// default to bound external-service cost.
func DefaultOptions() Options {
	return Options{
		UseSecondaryFetch: true,
		UseLLMFallback:    true,
		UseLLMValidation:  false,
		ApplyPIIFilter:    true,
		CheckRobots:       true,
	}
}

// Quality is the outcome of the LLM quality-check stage.
type Quality struct {
	IsValid     bool              `json:"is_valid"`
	Confidence  float64           `json:"confidence"`
	Issues      []string          `json:"issues"`
	Suggestions map[string]string `json:"suggestions,omitempty"`
}

// ApplySuggestions overlays validator-suggested corrections onto a result.
// The description is never overwritten; redaction governs that path.
func ApplySuggestions(r Result, q Quality) Result {
	if len(q.Suggestions) == 0 {
		return r
	}
	if v, ok := q.Suggestions["title"]; ok && v != "" {
		r.Title = v
	}
	if v, ok := q.Suggestions["company"]; ok && v != "" {
		r.Company = v
	}
	if v, ok := q.Suggestions["location"]; ok && v != "" {
		r.Location = v
	}
	if v, ok := q.Suggestions["salary"]; ok && v != "" {
		r.Salary = v
	}
	return r
}
