package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/extraction"
	"github.com/jobflow/jobflow/internal/publisher"
)

// maxBatchURLs bounds a single batch request.
const maxBatchURLs = 100

type optionsPayload struct {
	UseSecondaryFetch *bool `json:"use_secondary_fetch"`
	UseLLMFallback    *bool `json:"use_llm_fallback"`
	UseLLMValidation  *bool `json:"use_llm_validation"`
	ApplyPIIFilter    *bool `json:"apply_pii_filter"`
	CheckRobots       *bool `json:"check_robots"`
}

// resolveOptions overlays per-request overrides onto the configured
// defaults.
func (s *Server) resolveOptions(p *optionsPayload) extraction.Options {
	opts := s.cfg.DefaultOptions
	if p == nil {
		return opts
	}
	if p.UseSecondaryFetch != nil {
		opts.UseSecondaryFetch = *p.UseSecondaryFetch
	}
	if p.UseLLMFallback != nil {
		opts.UseLLMFallback = *p.UseLLMFallback
	}
	if p.UseLLMValidation != nil {
		opts.UseLLMValidation = *p.UseLLMValidation
	}
	if p.ApplyPIIFilter != nil {
		opts.ApplyPIIFilter = *p.ApplyPIIFilter
	}
	if p.CheckRobots != nil {
		opts.CheckRobots = *p.CheckRobots
	}
	return opts
}

type extractRequest struct {
	URL     string          `json:"url"`
	Options *optionsPayload `json:"options"`
}

type extractResponse struct {
	URL     string              `json:"url"`
	Result  *extraction.Result  `json:"result"`
	Metrics *extraction.Metrics `json:"metrics"`
}

func (s *Server) extractOne(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	result, m := s.pipeline.Extract(r.Context(), req.URL, s.resolveOptions(req.Options))
	if result != nil {
		s.publishCompleted(r, "", req.URL, *result, m)
	}
	writeJSON(w, http.StatusOK, extractResponse{URL: req.URL, Result: result, Metrics: &m})
}

type batchRequest struct {
	URLs    []string        `json:"urls"`
	Options *optionsPayload `json:"options"`
}

// extractBatch runs the pipeline for each URL with bounded parallelism.
// Each element is independent; one URL failing or timing out does not
// affect the others.
func (s *Server) extractBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	if len(req.URLs) > maxBatchURLs {
		writeError(w, http.StatusBadRequest, "too many urls")
		return
	}
	opts := s.resolveOptions(req.Options)

	results := make([]extractResponse, len(req.URLs))
	sem := make(chan struct{}, s.cfg.BatchMaxParallel)
	var wg sync.WaitGroup
	for i, url := range req.URLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, m := s.pipeline.Extract(r.Context(), url, opts)
			if result != nil {
				s.publishCompleted(r, "", url, *result, m)
			}
			results[i] = extractResponse{URL: url, Result: result, Metrics: &m}
		}(i, url)
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// publishCompleted emits an extraction-completed event. Best effort; a
// publish failure never affects the response.
func (s *Server) publishCompleted(r *http.Request, jobID, url string, result extraction.Result, m extraction.Metrics) {
	if s.publisher == nil {
		return
	}
	event := publisher.ExtractionCompleted{
		JobID:         jobID,
		URL:           url,
		Title:         result.Title,
		Company:       result.Company,
		Source:        result.Source,
		Confidence:    m.Confidence,
		FallbacksUsed: m.FallbacksUsed,
		CompletedAt:   time.Now().UTC(),
	}
	if _, err := s.publisher.Publish(r.Context(), s.cfg.EventTopic, event); err != nil {
		s.logger.Warn("publish extraction event failed", zap.String("url", url), zap.Error(err))
	}
}
