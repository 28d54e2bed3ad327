package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRendererDisabled indicates rendering has been disabled via configuration.
var ErrRendererDisabled = errors.New("renderer disabled")

// RenderedConfig controls the headless-browser fetcher.
type RenderedConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	MaxParallel       int
	DomainQPS         float64
}

// Rendered fetches pages through one long-lived headless Chrome process,
// opening an isolated tab per request. The browser launches lazily on first
// use; Shutdown releases it during process teardown.
type Rendered struct {
	cfg    RenderedConfig
	logger *zap.Logger

	launchOnce  sync.Once
	launchErr   error
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	sem            chan struct{}
	domainLimiters sync.Map
}

// NewRendered builds a Rendered fetcher. The browser process is not launched
// until the first Fetch call.
func NewRendered(cfg RenderedConfig, logger *zap.Logger) (*Rendered, error) {
	if cfg.MaxParallel <= 0 {
		return nil, ErrRendererDisabled
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rendered{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxParallel),
	}, nil
}

// launch starts the shared browser process exactly once, no matter how many
// goroutines hit the first fetch concurrently.
func (r *Rendered) launch() error {
	r.launchOnce.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", "new"),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.UserAgent(r.cfg.UserAgent),
		)
		r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		r.browserCtx, r.browserStop = chromedp.NewContext(r.allocCtx)
		if err := chromedp.Run(r.browserCtx); err != nil {
			r.launchErr = fmt.Errorf("chromedp warmup: %w", err)
			r.browserStop()
			r.allocCancel()
			return
		}
		r.logger.Info("headless browser launched")
	})
	return r.launchErr
}

// Fetch navigates a fresh tab, waits for the document plus a settle delay for
// lazy content, and returns the rendered DOM. Failures yield ErrNoContent.
func (r *Rendered) Fetch(ctx context.Context, rawURL string) (string, error) {
	if r == nil {
		return "", ErrRendererDisabled
	}
	if err := r.launch(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoContent, err)
	}

	release, err := r.acquireSlot(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	if err := r.waitDomainBudget(ctx, rawURL); err != nil {
		return "", fmt.Errorf("render rate limit: %w", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.cfg.NavigationTimeout)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(r.cfg.UserAgent),
		chromedp.Navigate(rawURL),
		// Document readiness plus a fixed settle delay, not network idle:
		// pages with long-polling trackers never reach idle.
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", fmt.Errorf("%w: chromedp run: %v", ErrNoContent, err)
	}
	r.logger.Debug("rendered fetch complete", zap.String("url", rawURL), zap.Int("html_len", len(html)))
	return html, nil
}

// Shutdown releases the browser process. Safe to call when the browser was
// never launched.
func (r *Rendered) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	// Consuming the once waits out an in-flight launch and keeps a later
	// Fetch from starting a browser mid-teardown.
	r.launchOnce.Do(func() { r.launchErr = ErrRendererDisabled })
	if r.browserStop != nil {
		r.browserStop()
	}
	if r.allocCancel != nil {
		r.allocCancel()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (r *Rendered) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case r.sem <- struct{}{}:
		return func() { <-r.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire render slot: %w", ctx.Err())
	}
}

func (r *Rendered) waitDomainBudget(ctx context.Context, rawURL string) error {
	if r.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse render url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := r.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(r.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	return limiter.Wait(ctx)
}

// forwardCancel propagates caller cancellation into the chromedp task without
// tying the tab's lifetime to the caller context.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
