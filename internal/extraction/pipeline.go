package extraction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/metrics"
	"github.com/jobflow/jobflow/internal/urlutil"
)

// Stage confidence table. Each value reflects how trustworthy the strategy
// that produced the current result is; validation may only raise confidence
// when it endorses the result and caps it at validationInvalidCap otherwise.
const (
	confidencePrimaryComplete    = 0.8
	confidencePrimaryIncomplete  = 0.3
	confidenceRenderedComplete   = 0.75
	confidenceRenderedIncomplete = 0.4
	confidenceLLM                = 0.7
	confidenceValidationFailOpen = 0.5
	validationInvalidCap         = 0.4
)

// Pipeline sequences the fallback chain: safety check, robots check, plain
// fetch, structured parse, rendered fetch, LLM extraction, quality
// validation, and PII redaction. Every optional stage fails open; only the
// URL safety check and the robots check are fatal.
type Pipeline struct {
	primary   Fetcher
	secondary Fetcher
	parser    Parser
	robots    RobotsPolicy
	llm       FieldExtractor
	checker   QualityChecker
	redactor  Redactor
	memo      CompanyMemo
	snapshots Snapshotter
	logger    *zap.Logger
}

// Deps carries the pipeline collaborators. Primary and Parser are required;
// everything else may be nil, which disables the corresponding stage
// regardless of the per-call options.
type Deps struct {
	Primary   Fetcher
	Secondary Fetcher
	Parser    Parser
	Robots    RobotsPolicy
	LLM       FieldExtractor
	Checker   QualityChecker
	Redactor  Redactor
	Memo      CompanyMemo
	Snapshots Snapshotter
}

// NewPipeline constructs a Pipeline from its collaborators.
func NewPipeline(deps Deps, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		primary:   deps.Primary,
		secondary: deps.Secondary,
		parser:    deps.Parser,
		robots:    deps.Robots,
		llm:       deps.LLM,
		checker:   deps.Checker,
		redactor:  deps.Redactor,
		memo:      deps.Memo,
		snapshots: deps.Snapshots,
		logger:    logger,
	}
}

// Extract runs the fallback chain for one URL. It returns the best result
// gathered (nil when the URL was rejected or nothing could be fetched) plus
// the metrics for this invocation. Errors from optional stages never
// propagate; callers see exactly a result-or-nil plus metrics.
func (p *Pipeline) Extract(ctx context.Context, url string, opts Options) (*Result, Metrics) {
	start := time.Now()
	m := Metrics{
		FetchMethod:      FetchPrimary,
		ExtractionMethod: ExtractStructured,
	}

	if !urlutil.IsSafe(url) {
		p.logger.Error("invalid or unsafe url", zap.String("url", url))
		metrics.RecordExtraction("invalid_url", time.Since(start))
		return nil, m
	}

	if opts.CheckRobots && p.robots != nil && !p.robots.Allowed(ctx, url) {
		p.logger.Warn("robots.txt disallows extraction", zap.String("url", url))
		metrics.RecordRobotsDenied(urlutil.Domain(url))
		metrics.RecordExtraction("robots_disallowed", time.Since(start))
		return nil, m
	}

	html := p.fetchPrimary(ctx, url)

	var (
		result Result
		have   bool
	)
	if html != "" {
		result = p.parseStructured(html, url)
		have = true
		if result.IsComplete() {
			m.Confidence = confidencePrimaryComplete
		} else {
			m.Confidence = confidencePrimaryIncomplete
		}
	}

	if opts.UseSecondaryFetch && p.secondary != nil && (!have || !result.IsComplete()) {
		m.FallbacksUsed++
		if rendered := p.fetchRendered(ctx, url); rendered != "" {
			m.FetchMethod = FetchRendered
			html = rendered
			result = p.parseStructured(html, url)
			have = true
			if result.IsComplete() {
				m.Confidence = confidenceRenderedComplete
			} else {
				m.Confidence = confidenceRenderedIncomplete
			}
		}
	}

	if opts.UseLLMFallback && p.llm != nil && html != "" && (!have || !result.IsComplete()) {
		m.FallbacksUsed++
		if llmResult, ok := p.extractLLM(ctx, html); ok {
			result = llmResult
			have = true
			m.ExtractionMethod = ExtractLLM
			m.Confidence = confidenceLLM
		}
	}

	if opts.UseLLMValidation && p.checker != nil && have && result.IsComplete() {
		m.ValidationRan = true
		quality := p.validate(ctx, result)
		if quality.IsValid {
			m.Confidence = maxFloat(m.Confidence, quality.Confidence)
		} else {
			p.logger.Warn("quality validation flagged issues",
				zap.String("url", url), zap.Strings("issues", quality.Issues))
			m.Confidence = minFloat(m.Confidence, validationInvalidCap)
		}
	}

	if !have {
		metrics.RecordExtraction("no_content", time.Since(start))
		return nil, m
	}

	if opts.ApplyPIIFilter && p.redactor != nil {
		result.Description = p.redactor.Redact(result.Description)
	}

	result.Source = sourceTag(m.FetchMethod, m.ExtractionMethod)
	result = result.Truncated()
	p.rememberCompany(url, result)

	if p.snapshots != nil && html != "" {
		if uri, err := p.snapshots.ArchivePage(ctx, url, html); err != nil {
			p.logger.Warn("snapshot archive failed", zap.String("url", url), zap.Error(err))
		} else {
			m.SnapshotURI = uri
		}
	}

	outcome := "incomplete"
	if result.IsComplete() {
		outcome = "complete"
	}
	metrics.RecordExtraction(outcome, time.Since(start))
	metrics.RecordFallbacks(m.FallbacksUsed)

	return &result, m
}

func (p *Pipeline) fetchPrimary(ctx context.Context, url string) string {
	start := time.Now()
	html, err := p.primary.Fetch(ctx, url)
	metrics.RecordStage("fetch_primary", time.Since(start))
	if err != nil {
		p.logger.Warn("primary fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return html
}

func (p *Pipeline) fetchRendered(ctx context.Context, url string) string {
	start := time.Now()
	html, err := p.secondary.Fetch(ctx, url)
	metrics.RecordStage("fetch_rendered", time.Since(start))
	if err != nil {
		p.logger.Warn("rendered fetch failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return html
}

// parseStructured runs the deterministic parser and backfills a sentinel
// company from the domain memo when a previous extraction on the same domain
// succeeded. The memo is read before declaring the result incomplete so a
// known domain does not trigger a needless escalation.
func (p *Pipeline) parseStructured(html, url string) Result {
	start := time.Now()
	result := p.parser.Parse(html, url)
	metrics.RecordStage("parse_structured", time.Since(start))

	if p.memo != nil && result.Company == UnknownCompany {
		if company, ok := p.memo.Lookup(urlutil.Domain(url)); ok {
			result.Company = company
		}
	}
	p.logger.Debug("structured parse",
		zap.String("url", url),
		zap.String("title", result.Title),
		zap.String("company", result.Company))
	return result
}

func (p *Pipeline) extractLLM(ctx context.Context, html string) (Result, bool) {
	start := time.Now()
	result, err := p.llm.Extract(ctx, html)
	metrics.RecordStage("llm_extract", time.Since(start))
	if err != nil {
		p.logger.Warn("llm extraction failed; skipping stage", zap.Error(err))
		return Result{}, false
	}
	if !result.IsComplete() {
		return Result{}, false
	}
	return result, true
}

// validate runs the quality checker and fails open: any error is treated as
// an endorsement with middling confidence.
func (p *Pipeline) validate(ctx context.Context, result Result) Quality {
	start := time.Now()
	quality, err := p.checker.Validate(ctx, result, result.Title)
	metrics.RecordStage("llm_validate", time.Since(start))
	if err != nil {
		p.logger.Warn("quality validation failed; assuming valid", zap.Error(err))
		return Quality{IsValid: true, Confidence: confidenceValidationFailOpen}
	}
	// The model's self-reported confidence is not trusted outside [0, 1].
	quality.Confidence = clamp01(quality.Confidence)
	return quality
}

func (p *Pipeline) rememberCompany(url string, result Result) {
	if p.memo == nil || !result.IsComplete() {
		return
	}
	if domain := urlutil.Domain(url); domain != "" {
		p.memo.Remember(domain, result.Company)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
