// Package store persists extracted job postings.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no job exists for the requested id.
var ErrNotFound = errors.New("job not found")

// Job statuses track a posting through the application workflow.
const (
	StatusSaved        = "saved"
	StatusApplied      = "applied"
	StatusInterviewing = "interviewing"
	StatusOffer        = "offer"
	StatusRejected     = "rejected"
)

var validStatuses = map[string]bool{
	StatusSaved:        true,
	StatusApplied:      true,
	StatusInterviewing: true,
	StatusOffer:        true,
	StatusRejected:     true,
}

// ValidStatus reports whether s is a known workflow status.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// Job is a persisted posting, the extraction result plus workflow state.
type Job struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	Salary      string    `json:"salary,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
	BlobURI     string    `json:"blob_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobUpdate carries the patchable fields. Nil means leave unchanged.
type JobUpdate struct {
	Title    *string `json:"title"`
	Company  *string `json:"company"`
	Location *string `json:"location"`
	Salary   *string `json:"salary"`
	Status   *string `json:"status"`
}

// Validate rejects updates that would corrupt workflow state.
func (u JobUpdate) Validate() error {
	if u.Status != nil && !ValidStatus(*u.Status) {
		return fmt.Errorf("invalid status %q", *u.Status)
	}
	return nil
}

// ListFilter narrows and pages List results.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Store is the persistence surface for jobs.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (Job, error)
	List(ctx context.Context, filter ListFilter) ([]Job, error)
	Update(ctx context.Context, id string, update JobUpdate) (Job, error)
	Delete(ctx context.Context, id string) error
	Close()
}
