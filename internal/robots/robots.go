// Package robots enforces robots.txt compliance for outbound fetches.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/urlutil"
)

const maxRobotsBody = 1 << 20

// Checker fetches and caches per-domain exclusion rules. Entries live for the
// process lifetime; there is no TTL eviction. A missing or unreachable
// robots.txt never blocks extraction.
type Checker struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger

	cache sync.Map // robots URL -> *entry
	mu    sync.Mutex
}

// entry is a cached rule set, or an explicit absent/unreachable marker when
// rules is nil.
type entry struct {
	rules *robotstxt.RobotsData
}

// NewChecker builds a Checker identifying itself with the given agent name.
func NewChecker(userAgent string, timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed reports whether the configured agent may fetch the URL. Fails open
// on any robots.txt fetch or parse problem.
func (c *Checker) Allowed(ctx context.Context, rawURL string) bool {
	e := c.load(ctx, rawURL)
	if e == nil || e.rules == nil {
		return true
	}
	group := e.rules.FindGroup(c.userAgent)
	if group == nil {
		return true
	}
	parsedPath := urlPath(rawURL)
	allowed := group.Test(parsedPath)
	if !allowed {
		c.logger.Info("robots.txt disallows fetch",
			zap.String("url", rawURL), zap.String("agent", c.userAgent))
	}
	return allowed
}

// CrawlDelay returns the crawl delay declared for the configured agent, if
// any. Advisory only; the pipeline does not wait on it.
func (c *Checker) CrawlDelay(ctx context.Context, rawURL string) (time.Duration, bool) {
	e := c.load(ctx, rawURL)
	if e == nil || e.rules == nil {
		return 0, false
	}
	group := e.rules.FindGroup(c.userAgent)
	if group == nil || group.CrawlDelay <= 0 {
		return 0, false
	}
	return group.CrawlDelay, true
}

// load returns the cached entry for the URL's robots.txt, fetching it on
// first use. The insert path is serialized so concurrent first calls for the
// same domain do not race duplicate fetches.
func (c *Checker) load(ctx context.Context, rawURL string) *entry {
	robotsURL, err := urlutil.RobotsURL(rawURL)
	if err != nil {
		c.logger.Warn("cannot derive robots url; allowing", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	if cached, ok := c.cache.Load(robotsURL); ok {
		return cached.(*entry)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache.Load(robotsURL); ok {
		return cached.(*entry)
	}
	e := c.fetch(ctx, robotsURL)
	c.cache.Store(robotsURL, e)
	return e
}

func (c *Checker) fetch(ctx context.Context, robotsURL string) *entry {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		c.logger.Warn("robots request build failed; allowing", zap.String("robots_url", robotsURL), zap.Error(err))
		return &entry{}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("robots fetch failed; allowing", zap.String("robots_url", robotsURL), zap.Error(err))
		return &entry{}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close robots body", zap.Error(cerr))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBody))
		if err != nil {
			c.logger.Warn("robots read failed; allowing", zap.String("robots_url", robotsURL), zap.Error(err))
			return &entry{}
		}
		rules, err := robotstxt.FromBytes(body)
		if err != nil {
			c.logger.Warn("robots parse failed; allowing", zap.String("robots_url", robotsURL), zap.Error(err))
			return &entry{}
		}
		c.logger.Debug("parsed robots.txt", zap.String("robots_url", robotsURL))
		return &entry{rules: rules}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		c.logger.Debug("no robots.txt; allowing",
			zap.String("robots_url", robotsURL), zap.Int("status", resp.StatusCode))
		return &entry{}
	default:
		c.logger.Warn("unexpected robots status; allowing",
			zap.String("robots_url", robotsURL), zap.Int("status", resp.StatusCode))
		return &entry{}
	}
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
