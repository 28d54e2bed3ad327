// Package cache holds small in-process caches shared across extractions.
package cache

import (
	"strings"
	"sync"

	"github.com/jobflow/jobflow/internal/urlutil"
)

// DomainMemo remembers which company name was extracted for a domain so
// later extractions from the same site can backfill a missing company.
// It is safe for concurrent use and lives for the process lifetime.
type DomainMemo struct {
	mu        sync.RWMutex
	companies map[string]string
}

func NewDomainMemo() *DomainMemo {
	return &DomainMemo{companies: make(map[string]string)}
}

// Lookup returns the remembered company for a bare domain.
func (m *DomainMemo) Lookup(domain string) (string, bool) {
	if domain == "" {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	company, ok := m.companies[domain]
	return company, ok
}

// Remember records the company seen on a domain. Placeholder values are
// ignored so a failed extraction never poisons later lookups.
func (m *DomainMemo) Remember(domain, company string) {
	company = strings.TrimSpace(company)
	if domain == "" || company == "" || strings.EqualFold(company, "unknown") {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies[domain] = company
}

// Len reports how many domains have a remembered company.
func (m *DomainMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.companies)
}

// hostingPrefixes are job-board style labels that say nothing about the
// employer when they lead a careers domain.
var hostingPrefixes = []string{"jobs.", "careers.", "hiring.", "recruit.", "apply.", "work."}

// CompanyFromDomain derives a display name from the URL's domain, for
// use when no company could be extracted from the page itself. It is a
// presentation heuristic and is never written back into the memo.
func CompanyFromDomain(rawURL string) string {
	domain := urlutil.Domain(rawURL)
	if domain == "" {
		return ""
	}
	for _, p := range hostingPrefixes {
		if strings.HasPrefix(domain, p) && strings.Count(domain, ".") > 1 {
			domain = strings.TrimPrefix(domain, p)
			break
		}
	}
	label, _, ok := strings.Cut(domain, ".")
	if !ok || label == "" {
		return ""
	}
	label = strings.ReplaceAll(label, "-", " ")
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
