// Package pii scrubs contact-identifying content from free text. It is only
// ever applied to the description field of an extraction result.
package pii

import (
	"regexp"
	"strings"
)

// Replacement tokens. None of them match any redaction pattern, which is
// what makes redaction idempotent.
const (
	emailToken    = "[EMAIL]"
	phoneToken    = "[PHONE]"
	linkedinToken = "[LINKEDIN]"
	handleToken   = "[HANDLE]"
)

// substitution pairs a pattern with its replacement token. Order matters:
// emails are replaced before the generic handle pattern so an address is
// never half-redacted into a handle.
type substitution struct {
	re          *regexp.Regexp
	replacement string
}

var substitutions = []substitution{
	// Email addresses.
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), emailToken},
	// US phone numbers, with or without a +1 prefix.
	{regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), phoneToken},
	// UK phone numbers.
	{regexp.MustCompile(`\b(?:\+44|0)\s?\d{2,4}\s?\d{3,4}\s?\d{3,4}\b`), phoneToken},
	// Generic international numbers.
	{regexp.MustCompile(`\+\d{1,3}[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}\b`), phoneToken},
	// LinkedIn profile URLs.
	{regexp.MustCompile(`(?i)linkedin\.com/in/[A-Za-z0-9_-]+/?`), linkedinToken},
	// Slack/Discord style handle mentions.
	{regexp.MustCompile(`@[A-Za-z0-9_]{3,}`), handleToken},
}

// contactLineRe matches contact-introduction lines such as
// "Contact: Jane Doe" or "Apply to John Smith at ...". Whole lines are
// removed before token substitution so a contact section cannot leak
// through partially.
var contactLineRe = regexp.MustCompile(
	`\b(?i:contact|recruiter|hiring manager|reach out to|apply to|speak with|talk to)\b[:\s]+` +
		`[A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2}\b`)

// Redactor applies the fixed ordered redaction rules.
type Redactor struct{}

// NewRedactor builds a Redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// Redact removes contact-introduction lines, then substitutes PII tokens.
// Idempotent: redacting already-redacted text changes nothing.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if contactLineRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")

	for _, sub := range substitutions {
		out = sub.re.ReplaceAllString(out, sub.replacement)
	}
	return out
}
