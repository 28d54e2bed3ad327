// Package urlutil contains small URL helpers shared across the service.
package urlutil

import (
	"net/url"
	"strings"
)

var blockedHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
}

// IsSafe reports whether a candidate URL may be fetched. The check is lexical
// only: scheme must be http or https, a host must be present, and the host
// must not name a loopback or wildcard address. Callers needing strict SSRF
// isolation must add network-layer controls on top.
func IsSafe(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	_, blocked := blockedHosts[host]
	return !blocked
}

// Domain extracts the bare domain from a URL, lowercased and without a
// leading "www.". Returns "" when the URL has no usable host.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// RobotsURL derives the robots.txt URL for a page URL.
func RobotsURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", nil
}
