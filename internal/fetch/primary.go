// Package fetch implements the two page-fetch strategies: a plain HTTP GET
// via Colly and a rendered fetch via headless Chrome.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// DefaultUserAgent is a realistic browser user-agent used for page fetches.
// Robots.txt compliance uses the identifying agent name instead.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrNoContent indicates a fetch produced no usable HTML. The pipeline treats
// it as absence of content, not a fatal error.
var ErrNoContent = errors.New("fetch produced no content")

// PrimaryConfig controls the plain HTTP fetcher.
type PrimaryConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// Primary fetches pages with a single plain GET, following redirects.
type Primary struct {
	cfg           PrimaryConfig
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewPrimary builds a Primary fetcher.
func NewPrimary(cfg PrimaryConfig, logger *zap.Logger) *Primary {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.IgnoreRobotsTxt = true // compliance is the robots checker's job
	base.AllowURLRevisit = true // the visit store is shared across clones
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &Primary{
		cfg:           cfg,
		baseCollector: base,
		logger:        logger,
	}
}

// Fetch retrieves the page body. Any transport error or non-2xx status
// yields ErrNoContent (wrapped); callers must not treat that as fatal.
func (p *Primary) Fetch(ctx context.Context, rawURL string) (string, error) {
	collector := p.baseCollector.Clone()

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			send(fetchResult{err: fmt.Errorf("%w: status %d", ErrNoContent, r.StatusCode)})
			return
		}
		send(fetchResult{html: string(r.Body)})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		send(fetchResult{err: fmt.Errorf("%w: status %d: %v", ErrNoContent, status, err)})
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if res.err != nil {
			return "", res.err
		}
		return res.html, nil
	default:
		return "", ErrNoContent
	}
}

type fetchResult struct {
	html string
	err  error
}
