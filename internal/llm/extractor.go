package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/extraction"
)

// maxHTMLLen bounds the page prefix sent to the model, roughly 100k
// tokens of context.
const maxHTMLLen = 80000

const extractionPrompt = `You are a job posting data extractor. Extract the following fields from the HTML content below.

Return ONLY a valid JSON object with these exact keys:
- title: The job title (string)
- company: The company name (string)
- location: The job location, e.g. "San Francisco, CA" or "Remote" (string or null)
- salary: The salary range if mentioned, e.g. "$100,000 - $150,000/year" (string or null)
- description: A clean text summary of the job description, requirements, and responsibilities (string or null, max 5000 chars)

Rules:
- Extract actual values from the content, do not make up data
- If a field is not found, use null
- For salary, include currency and period if available
- For description, extract the main job duties, requirements, and qualifications
- Remove any HTML tags from the description
- Do not include recruiter names, emails, or phone numbers in any field

HTML Content:
%s

JSON Response:`

// Extractor asks the model for job fields when deterministic parsing
// came up short. It implements extraction.FieldExtractor.
type Extractor struct {
	client *Client
	logger *zap.Logger
}

func NewExtractor(client *Client, logger *zap.Logger) *Extractor {
	return &Extractor{client: client, logger: logger}
}

type llmFields struct {
	Title       *string `json:"title"`
	Company     *string `json:"company"`
	Location    *string `json:"location"`
	Salary      *string `json:"salary"`
	Description *string `json:"description"`
}

func (e *Extractor) Extract(ctx context.Context, html string) (extraction.Result, error) {
	if len(html) > maxHTMLLen {
		e.logger.Warn("truncating html for extraction",
			zap.Int("from", len(html)),
			zap.Int("to", maxHTMLLen))
		html = html[:maxHTMLLen]
	}

	text, err := e.client.generate(ctx, fmt.Sprintf(extractionPrompt, html))
	if err != nil {
		return extraction.Result{}, err
	}

	var fields llmFields
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &fields); err != nil {
		return extraction.Result{}, fmt.Errorf("llm: decode extraction response: %w", err)
	}

	result := extraction.Result{
		Title:       stringOr(fields.Title, extraction.UnknownTitle),
		Company:     stringOr(fields.Company, extraction.UnknownCompany),
		Location:    stringOr(fields.Location, ""),
		Salary:      stringOr(fields.Salary, ""),
		Description: stringOr(fields.Description, ""),
	}
	e.logger.Info("llm extraction complete",
		zap.String("title", result.Title),
		zap.String("company", result.Company))
	return result, nil
}

func stringOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
