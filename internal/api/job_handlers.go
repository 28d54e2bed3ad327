package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/cache"
	"github.com/jobflow/jobflow/internal/extraction"
	"github.com/jobflow/jobflow/internal/store"
)

// createJob extracts the posting and persists it as a tracked job.
func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
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
	if result == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "extraction failed",
			"metrics": m,
		})
		return
	}

	company := result.Company
	if company == extraction.UnknownCompany {
		// Display-level fallback only; the extraction result itself keeps
		// the sentinel so confidence semantics stay intact.
		if derived := cache.CompanyFromDomain(req.URL); derived != "" {
			company = derived
		}
	}

	job := store.Job{
		URL:         req.URL,
		Title:       result.Title,
		Company:     company,
		Location:    result.Location,
		Salary:      result.Salary,
		Description: result.Description,
		Status:      store.StatusSaved,
		Source:      result.Source,
		Confidence:  m.Confidence,
		BlobURI:     m.SnapshotURI,
	}
	if err := s.jobs.Create(r.Context(), &job); err != nil {
		s.logger.Error("create job failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist job")
		return
	}
	s.publishCompleted(r, job.ID, req.URL, *result, m)

	writeJSON(w, http.StatusCreated, map[string]any{"job": job, "metrics": m})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "job_id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}
	jobs, err := s.jobs.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) updateJob(w http.ResponseWriter, r *http.Request) {
	var update store.JobUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := update.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.jobs.Update(r.Context(), chi.URLParam(r, "job_id"), update)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	err := s.jobs.Delete(r.Context(), chi.URLParam(r, "job_id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var csvHeader = []string{
	"id", "url", "title", "company", "location", "salary",
	"status", "source", "confidence", "created_at", "updated_at",
}

// exportJobsCSV streams the job list as a spreadsheet-friendly CSV. The
// description is deliberately omitted to keep rows compact.
func (s *Server) exportJobsCSV(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}
	if filter.Limit == 0 {
		filter.Limit = 1000
	}
	jobs, err := s.jobs.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="jobs.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, job := range jobs {
		_ = cw.Write([]string{
			job.ID,
			job.URL,
			job.Title,
			job.Company,
			job.Location,
			job.Salary,
			job.Status,
			job.Source,
			strconv.FormatFloat(job.Confidence, 'f', 2, 64),
			job.CreatedAt.Format("2006-01-02 15:04:05"),
			job.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Warn("csv export write failed", zap.Error(err))
	}
}

func parseListFilter(w http.ResponseWriter, r *http.Request) (store.ListFilter, bool) {
	var filter store.ListFilter
	if status := r.URL.Query().Get("status"); status != "" {
		if !store.ValidStatus(status) {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return filter, false
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return filter, false
		}
		filter.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return filter, false
		}
		filter.Offset = n
	}
	return filter, true
}
