// Package parse extracts job-posting fields deterministically from raw HTML:
// embedded JSON-LD JobPosting data first, then meta-tag and CSS-selector
// heuristics, then readability-style content extraction for the description.
package parse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobflow/jobflow/internal/extraction"
)

var (
	locationClassRe = regexp.MustCompile(`(?i)location|job-location|jobLocation|job_location`)
	salaryClassRe   = regexp.MustCompile(`(?i)salary|compensation|pay`)
	salaryDigitRe   = regexp.MustCompile(`[\d$£€]`)
	titleParensRe   = regexp.MustCompile(`\(([^)]+)\)`)

	salaryTextRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\$[\d,]+(?:\s*[-–]\s*\$[\d,]+)?(?:\s*(?:per|/|a)\s*(?:year|yr|annum|hour|hr))?`),
		regexp.MustCompile(`(?i)£[\d,]+(?:\s*[-–]\s*£[\d,]+)?(?:\s*(?:per|/|a)\s*(?:year|annum))?`),
		regexp.MustCompile(`(?i)€[\d,]+(?:\s*[-–]\s*€[\d,]+)?(?:\s*(?:per|/|a)\s*(?:year|annum))?`),
	}
)

// companyMetaTags is the fixed ordered list of meta-tag lookups for the
// company field.
var companyMetaTags = []string{
	`meta[property="og:site_name"]`,
	`meta[name="company"]`,
	`meta[name="author"]`,
	`meta[name="twitter:site"]`,
}

var locationMetaTags = []string{
	`meta[name="location"]`,
	`meta[property="place:location"]`,
}

// Parser extracts fields deterministically. Identical HTML always produces
// an identical result.
type Parser struct{}

// NewParser builds a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts every field from the HTML, returning sentinel values where
// nothing was found. Malformed markup degrades to partial results; Parse
// never fails.
func (p *Parser) Parse(html, pageURL string) extraction.Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return extraction.Result{
			Title:   extraction.UnknownTitle,
			Company: extraction.UnknownCompany,
			Source:  string(extraction.ExtractStructured),
		}
	}
	jp := parseJSONLD(doc)

	title := extractTitle(doc, jp)
	location := extractLocation(doc, jp)
	if location == "" {
		location = locationFromTitle(title)
	}

	return extraction.Result{
		Title:       title,
		Company:     extractCompany(doc, jp),
		Location:    location,
		Salary:      extractSalary(doc, jp),
		Description: extractDescription(doc, jp, html, pageURL),
		Source:      string(extraction.ExtractStructured),
	}.Truncated()
}

// parseJSONLD returns the first JobPosting block found in any ld+json script.
func parseJSONLD(doc *goquery.Document) *jobPosting {
	var found *jobPosting
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		if jp, ok := findJobPosting([]byte(raw)); ok {
			found = jp
			return false
		}
		return true
	})
	return found
}

func extractTitle(doc *goquery.Document, jp *jobPosting) string {
	if jp != nil {
		if t := jp.Title.trimmed(); t != "" {
			return t
		}
	}
	if content, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := strings.TrimSpace(content); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return extraction.UnknownTitle
}

func extractCompany(doc *goquery.Document, jp *jobPosting) string {
	if jp != nil {
		if name := strings.TrimSpace(jp.HiringOrganization.Name); name != "" {
			return name
		}
	}
	for _, sel := range companyMetaTags {
		content, ok := doc.Find(sel).Attr("content")
		if !ok {
			continue
		}
		content = strings.TrimSpace(content)
		if content != "" && content != "@" {
			return content
		}
	}
	if v, ok := doc.Find("[data-company]").Attr("data-company"); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return extraction.UnknownCompany
}

func extractLocation(doc *goquery.Document, jp *jobPosting) string {
	if jp != nil && jp.JobLocation.text != "" {
		return jp.JobLocation.text
	}
	if text := findByClassPattern(doc, locationClassRe, 200, nil); text != "" {
		return text
	}
	for _, sel := range locationMetaTags {
		if content, ok := doc.Find(sel).Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}
	return ""
}

func extractSalary(doc *goquery.Document, jp *jobPosting) string {
	if jp != nil {
		if s := jp.BaseSalary.text(); s != "" {
			return s
		}
	}
	pageText := doc.Text()
	for _, re := range salaryTextRes {
		if m := re.FindString(pageText); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return findByClassPattern(doc, salaryClassRe, 100, salaryDigitRe)
}

// findByClassPattern returns the trimmed text of the first element whose
// class attribute matches classRe, subject to a length cap and an optional
// content requirement.
func findByClassPattern(doc *goquery.Document, classRe *regexp.Regexp, maxLen int, mustMatch *regexp.Regexp) string {
	var found string
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !classRe.MatchString(class) {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if text == "" || len(text) >= maxLen {
			return true
		}
		if mustMatch != nil && !mustMatch.MatchString(text) {
			return true
		}
		found = text
		return false
	})
	return found
}

// locationFromTitle recovers a parenthesized location hint from a job title,
// e.g. "AI Engineer (Stockholm / Hybrid)". Only clearly location-shaped
// hints are accepted.
func locationFromTitle(title string) string {
	m := titleParensRe.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	hint := strings.TrimSpace(m[1])
	if hint == "" || len(hint) > 60 {
		return ""
	}
	lower := strings.ToLower(hint)
	if strings.Contains(lower, "remote") || strings.Contains(lower, "hybrid") ||
		strings.Contains(lower, "on-site") || strings.Contains(lower, "onsite") ||
		strings.Contains(hint, ",") {
		return hint
	}
	return ""
}
