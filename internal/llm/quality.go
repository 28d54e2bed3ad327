package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/extraction"
)

const validationPrompt = `You are a data quality validator. Check if the extracted job posting data makes sense.

Extracted Data:
- Title: %s
- Company: %s
- Location: %s
- Salary: %s

Original Page Title: %s

Evaluate the quality and return a JSON object with:
- is_valid: boolean - true if the data looks reasonable for a job posting
- confidence: float (0.0 to 1.0) - how confident you are in the extraction
- issues: list of strings - any problems found (empty if none)
- suggestions: object with corrected values if you can infer better ones (optional fields only)

Quality checks to perform:
1. Title should be a job title, not a company name or generic text
2. Company should be a company/organization name
3. Location should be a place or "Remote"
4. Salary should be in a reasonable format with currency

Return ONLY valid JSON, no other text.

JSON Response:`

// Checker validates extracted fields against the model's judgment. It
// implements extraction.QualityChecker; errors are surfaced to the
// caller, which treats them as a pass.
type Checker struct {
	client *Client
	logger *zap.Logger
}

func NewChecker(client *Client, logger *zap.Logger) *Checker {
	return &Checker{client: client, logger: logger}
}

func (c *Checker) Validate(ctx context.Context, result extraction.Result, pageTitle string) (extraction.Quality, error) {
	prompt := fmt.Sprintf(validationPrompt,
		result.Title,
		result.Company,
		orPlaceholder(result.Location, "Not found"),
		orPlaceholder(result.Salary, "Not found"),
		orPlaceholder(pageTitle, "Not available"),
	)

	text, err := c.client.generate(ctx, prompt)
	if err != nil {
		return extraction.Quality{}, err
	}

	var quality extraction.Quality
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &quality); err != nil {
		return extraction.Quality{}, fmt.Errorf("llm: decode validation response: %w", err)
	}
	c.logger.Info("quality validation complete",
		zap.Bool("is_valid", quality.IsValid),
		zap.Float64("confidence", quality.Confidence))
	return quality, nil
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
