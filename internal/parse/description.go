package parse

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/jobflow/jobflow/internal/extraction"
)

// minDescriptionLen is the shortest text accepted as a meaningful
// description from a container or readability extraction.
const minDescriptionLen = 200

// descriptionSelectors is the prioritized list of description-like
// containers, most specific first.
var descriptionSelectors = []string{
	`[class*='job-description']`,
	`[class*='jobDescription']`,
	`[class*='description']`,
	`[id*='job-description']`,
	`[id*='description']`,
	"article",
	`[role='main']`,
	"main",
}

func extractDescription(doc *goquery.Document, jp *jobPosting, rawHTML, pageURL string) string {
	if jp != nil {
		if desc := cleanDescription(string(jp.Description)); desc != "" {
			return desc
		}
	}

	for _, sel := range descriptionSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := cleanDescription(blockText(node))
		if len(text) > minDescriptionLen {
			return text
		}
	}

	if rawHTML != "" {
		if text := readableContent(rawHTML, pageURL); len(text) > minDescriptionLen {
			return cleanDescription(text)
		}
	}
	return ""
}

// readableContent runs generic readability-style content extraction over the
// whole document. Works on arbitrary page structure; last resort only.
func readableContent(rawHTML, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return ""
	}
	return article.TextContent
}

// cleanDescription unescapes HTML entities, strips any remaining tags,
// collapses the text to non-blank lines, and applies the description cap.
func cleanDescription(text string) string {
	text = html.UnescapeString(text)
	if strings.Contains(text, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = blockText(doc.Selection)
		}
	}
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	text = strings.Join(kept, "\n")
	return extraction.TruncateDescription(text)
}

// blockText renders a selection to plain text with newlines between block
// elements, approximating how the page displays the content.
func blockText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		node := goquery.NodeName(child)
		switch node {
		case "#text":
			b.WriteString(child.Text())
		case "script", "style", "noscript":
		case "br":
			b.WriteByte('\n')
		default:
			inner := blockText(child)
			if isBlockElement(node) {
				b.WriteByte('\n')
				b.WriteString(inner)
				b.WriteByte('\n')
			} else {
				b.WriteString(inner)
			}
		}
	})
	return b.String()
}

var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "header": {}, "footer": {},
	"ul": {}, "ol": {}, "li": {}, "table": {}, "tr": {}, "td": {}, "th": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"blockquote": {}, "pre": {}, "main": {},
}

func isBlockElement(name string) bool {
	_, ok := blockElements[name]
	return ok
}
