package pii

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactTokens(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"email", "Send your CV to hiring@example.com today.", "Send your CV to [EMAIL] today."},
		{"us phone", "Call (555) 123-4567 for details.", "Call [PHONE] for details."},
		{"us phone with country code", "Call +1 555 123 4567.", "Call [PHONE]."},
		{"uk phone", "Ring 020 7946 0958 to apply.", "Ring [PHONE] to apply."},
		{"international phone", "WhatsApp +44 20 7946 0958 anytime.", "WhatsApp [PHONE] anytime."},
		{"linkedin", "Profile: linkedin.com/in/jane-doe/", "Profile: [LINKEDIN]"},
		{"handle", "Ping @jane_recruiter on Slack.", "Ping [HANDLE] on Slack."},
		{"short handle kept", "Meet @hr desk.", "Meet @hr desk."},
		{"empty", "", ""},
		{"clean text", "Build distributed systems in Go.", "Build distributed systems in Go."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, r.Redact(tc.in))
		})
	}
}

func TestRedactRemovesContactLines(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	in := "Great role for a Go engineer.\n" +
		"Contact: Jane Doe\n" +
		"Apply to John at jobs@example.com\n" +
		"Benefits include equity."
	got := r.Redact(in)
	require.NotContains(t, got, "Jane")
	require.NotContains(t, got, "John")
	require.NotContains(t, got, "jobs@example.com")
	require.Contains(t, got, "Great role for a Go engineer.")
	require.Contains(t, got, "Benefits include equity.")
}

func TestRedactKeepsLowercaseContactLines(t *testing.T) {
	t.Parallel()

	// A contact keyword followed by something that is not a capitalized
	// name is not a contact-introduction line. The PII inside it is still
	// tokenized.
	r := NewRedactor()
	in := "Contact hiring@example.com or call (555) 123-4567. " +
		"Find me at linkedin.com/in/janedoe or @janehr."
	got := r.Redact(in)
	require.Equal(t,
		"Contact [EMAIL] or call [PHONE]. Find me at [LINKEDIN] or [HANDLE].",
		got)
}

func TestRedactIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	inputs := []string{
		"Contact hiring@example.com or call (555) 123-4567.",
		"Ring 020 7946 0958 or message @jane_recruiter.",
		"Contact: Jane Doe\nSee linkedin.com/in/jane-doe for more.",
		strings.Repeat("Plain description text. ", 10),
	}
	for _, in := range inputs {
		once := r.Redact(in)
		require.Equal(t, once, r.Redact(once))
	}
}
