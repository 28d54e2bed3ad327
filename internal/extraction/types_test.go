package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestIsComplete(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		title    string
		company  string
		complete bool
	}{
		{"both populated", "Engineer", "Acme", true},
		{"sentinel title", UnknownTitle, "Acme", false},
		{"sentinel company", "Engineer", UnknownCompany, false},
		{"both sentinels", UnknownTitle, UnknownCompany, false},
		{"empty title", "", "Acme", false},
		{"empty company", "Engineer", "", false},
		{"whitespace title", "   ", "Acme", false},
		{"whitespace company", "Engineer", " \t ", false},
		{"both empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := Result{Title: tc.title, Company: tc.company}
			require.Equal(t, tc.complete, r.IsComplete())
		})
	}
}

func TestTruncatedCapsDescription(t *testing.T) {
	t.Parallel()

	r := Result{Description: strings.Repeat("x", MaxDescriptionLen+500)}
	require.Len(t, r.Truncated().Description, MaxDescriptionLen)

	short := Result{Description: "brief"}
	require.Equal(t, "brief", short.Truncated().Description)
}

func TestTruncateDescriptionKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	// Position a multi-byte rune so the byte cap lands in its middle.
	text := strings.Repeat("x", MaxDescriptionLen-1) + strings.Repeat("é世", 300)
	got := TruncateDescription(text)
	require.LessOrEqual(t, len(got), MaxDescriptionLen)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, strings.Repeat("x", MaxDescriptionLen-1), got)

	exact := strings.Repeat("世", MaxDescriptionLen/3)
	require.Equal(t, exact, TruncateDescription(exact))
}

func TestSourceTag(t *testing.T) {
	t.Parallel()

	require.Equal(t, "primary+structured", sourceTag(FetchPrimary, ExtractStructured))
	require.Equal(t, "rendered+llm", sourceTag(FetchRendered, ExtractLLM))
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	require.True(t, opts.UseSecondaryFetch)
	require.True(t, opts.UseLLMFallback)
	require.False(t, opts.UseLLMValidation, "validation defaults off to bound cost")
	require.True(t, opts.ApplyPIIFilter)
	require.True(t, opts.CheckRobots)
}

func TestApplySuggestions(t *testing.T) {
	t.Parallel()

	base := Result{
		Title:       "Engineer",
		Company:     "Acme",
		Location:    "Remote",
		Salary:      "$100k",
		Description: "original description",
	}

	updated := ApplySuggestions(base, Quality{Suggestions: map[string]string{
		"title":       "Senior Engineer",
		"company":     "Acme Corp",
		"description": "should be ignored",
	}})
	require.Equal(t, "Senior Engineer", updated.Title)
	require.Equal(t, "Acme Corp", updated.Company)
	require.Equal(t, "Remote", updated.Location)
	require.Equal(t, "original description", updated.Description, "description is never overwritten")

	require.Equal(t, base, ApplySuggestions(base, Quality{}))
}
