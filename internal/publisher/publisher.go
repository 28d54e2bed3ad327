// Package publisher emits extraction lifecycle events for downstream
// consumers.
package publisher

import (
	"context"
	"time"
)

// Publisher delivers a payload to a named topic and returns the message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// ExtractionCompleted is published after each successful extraction.
type ExtractionCompleted struct {
	JobID         string    `json:"job_id,omitempty"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Source        string    `json:"source"`
	Confidence    float64   `json:"confidence"`
	FallbacksUsed int       `json:"fallbacks_used"`
	CompletedAt   time.Time `json:"completed_at"`
}
