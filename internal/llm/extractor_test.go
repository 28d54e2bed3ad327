package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow/internal/extraction"
)

func TestFieldsDecodeWithNulls(t *testing.T) {
	t.Parallel()

	raw := stripCodeFence("```json\n" +
		`{"title": "Staff Engineer", "company": "Acme", "location": null, "salary": null, "description": "Build things."}` +
		"\n```")

	var fields llmFields
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))

	require.Equal(t, "Staff Engineer", stringOr(fields.Title, extraction.UnknownTitle))
	require.Equal(t, "Acme", stringOr(fields.Company, extraction.UnknownCompany))
	require.Empty(t, stringOr(fields.Location, ""))
	require.Empty(t, stringOr(fields.Salary, ""))
	require.Equal(t, "Build things.", stringOr(fields.Description, ""))
}

func TestStringOrTreatsBlankAsMissing(t *testing.T) {
	t.Parallel()

	blank := "   "
	require.Equal(t, extraction.UnknownTitle, stringOr(&blank, extraction.UnknownTitle))
	require.Equal(t, extraction.UnknownCompany, stringOr(nil, extraction.UnknownCompany))

	set := "TechCorp Inc"
	require.Equal(t, "TechCorp Inc", stringOr(&set, extraction.UnknownCompany))
}

func TestOrPlaceholder(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Not found", orPlaceholder("", "Not found"))
	require.Equal(t, "Remote", orPlaceholder("Remote", "Not found"))
}
