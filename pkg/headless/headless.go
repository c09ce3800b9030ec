// Package headless renders pages in a real browser to find images that only
// appear after scripts run. It is the fallback extraction strategy.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/extractor"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/logger"
	"imgcrawler/pkg/retry"
)

const (
	viewportWidth  = 1366
	viewportHeight = 768
)

// Config controls rendering
type Config struct {
	// ScrollSteps is the number of equal scroll increments (default 12)
	ScrollSteps int
	// ScrollWait is the pause after each increment (default 500ms); a
	// negative value scrolls without pausing
	ScrollWait time.Duration
	// NavigationTimeout applies when the caller passes no timeout (default 30s)
	NavigationTimeout time.Duration
	// BrowserPath is tried before any other channel when set
	BrowserPath string
}

// DefaultConfig returns the standard rendering settings
func DefaultConfig() Config {
	return Config{
		ScrollSteps:       12,
		ScrollWait:        500 * time.Millisecond,
		NavigationTimeout: 30 * time.Second,
	}
}

// Extractor implements extractor.Strategy with chromedp
type Extractor struct {
	cfg      Config
	channels []Channel
	logger   logger.Logger
}

var _ extractor.Strategy = (*Extractor)(nil)

// New creates a headless extractor; zero config fields take defaults
func New(cfg Config, log logger.Logger) *Extractor {
	def := DefaultConfig()
	if cfg.ScrollSteps <= 0 {
		cfg.ScrollSteps = def.ScrollSteps
	}
	switch {
	case cfg.ScrollWait == 0:
		cfg.ScrollWait = def.ScrollWait
	case cfg.ScrollWait < 0:
		cfg.ScrollWait = 0
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = def.NavigationTimeout
	}

	return &Extractor{
		cfg:      cfg,
		channels: Channels(cfg.BrowserPath),
		logger:   logger.OrGlobal(log).WithField("component", "headless"),
	}
}

// Extract renders pageURL and returns the images found in the live DOM.
// Launch and render failures are logged and yield an empty list.
func (e *Extractor) Extract(ctx context.Context, pageURL string, opts extractor.Options) ([]string, error) {
	urls, err := e.render(ctx, pageURL, opts)
	if err != nil {
		e.logger.WithError(err).WithField("url", pageURL).Error("Headless extraction failed")
		return []string{}, nil
	}
	return urls, nil
}

func (e *Extractor) render(ctx context.Context, pageURL string, opts extractor.Options) ([]string, error) {
	callerHeaders := headers.Merge(nil, opts.Headers)
	userAgent := callerHeaders.Get("user-agent")
	if userAgent == "" {
		userAgent = headers.UserAgent
	}

	browserCtx, cancel, err := e.launch(ctx, userAgent)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(extraHeaders(pageURL, opts.Headers)),
		emulation.SetDeviceMetricsOverride(viewportWidth, viewportHeight, 1, false),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeBrowser, err, "failed to prepare page")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.cfg.NavigationTimeout
	}
	navCtx, cancelNav := context.WithTimeout(browserCtx, timeout)
	err = chromedp.Run(navCtx, chromedp.Navigate(pageURL), chromedp.WaitReady("body"))
	timedOut := navCtx.Err() == context.DeadlineExceeded
	cancelNav()
	if err != nil {
		if timedOut {
			return nil, errs.Wrap(errs.ErrorTypeTimeout, err, "navigation timed out")
		}
		return nil, errs.Wrap(errs.ErrorTypeBrowser, err, "navigation failed")
	}

	if err := e.scroll(browserCtx, opts.OnScroll); err != nil {
		return nil, err
	}

	var found []string
	if err := chromedp.Run(browserCtx, chromedp.Evaluate(extractScript, &found)); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeBrowser, err, "failed to evaluate extraction script")
	}

	set := extractor.NewURLSet()
	for _, u := range found {
		if extractor.IsAbsoluteHTTP(u) {
			set.Add(u)
		}
	}

	e.logger.DebugWithFields("Rendered page", map[string]interface{}{
		"url":    pageURL,
		"images": set.Len(),
	})
	return set.Slice(), nil
}

// launch starts the first channel that comes up
func (e *Extractor) launch(ctx context.Context, userAgent string) (context.Context, context.CancelFunc, error) {
	var lastErr error

	for _, ch := range e.channels {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(ch, userAgent)...)
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
			chromedp.WithLogf(func(format string, args ...interface{}) {
				e.logger.Debug(fmt.Sprintf(format, args...))
			}),
			chromedp.WithErrorf(func(format string, args ...interface{}) {
				e.logger.Debug(fmt.Sprintf(format, args...))
			}),
		)

		if err := chromedp.Run(browserCtx); err != nil {
			cancelBrowser()
			cancelAlloc()
			lastErr = err
			e.logger.WithError(err).WithField("channel", ch.Name).Debug("Browser launch failed")
			continue
		}

		e.logger.WithField("channel", ch.Name).Debug("Browser launched")
		return browserCtx, func() {
			cancelBrowser()
			cancelAlloc()
		}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no browser channels configured")
	}
	return nil, nil, errs.Wrap(errs.ErrorTypeBrowser, lastErr, "could not launch a browser")
}

func allocatorOptions(ch Channel, userAgent string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(viewportWidth, viewportHeight),
		chromedp.UserAgent(userAgent),
	)
	if ch.Path != "" {
		opts = append(opts, chromedp.ExecPath(ch.Path))
	}
	return opts
}

// scroll walks the page to the bottom in equal steps so lazy loaders fire
func (e *Extractor) scroll(ctx context.Context, onScroll func(step, total int)) error {
	steps := e.cfg.ScrollSteps
	for i := 0; i < steps; i++ {
		ratio := float64(i+1) / float64(steps)

		var y float64
		if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(scrollScript, ratio), &y)); err != nil {
			return errs.Wrap(errs.ErrorTypeBrowser, err, "failed to scroll page")
		}
		if onScroll != nil {
			onScroll(i+1, steps)
		}
		if err := retry.Wait(ctx, e.cfg.ScrollWait); err != nil {
			return errs.Wrap(errs.ErrorTypeBrowser, err, "scroll interrupted")
		}
	}
	return nil
}

// extraHeaders builds the request headers the browser sends with every request
func extraHeaders(pageURL string, caller map[string]string) network.Headers {
	merged := headers.Merge(headers.Set{
		"referer":         pageURL,
		"accept":          headers.AcceptHTML,
		"accept-language": headers.AcceptLanguage,
	}, caller)

	out := network.Headers{
		"referer":         merged.Get("referer"),
		"accept":          merged.Get("accept"),
		"accept-language": merged.Get("accept-language"),
	}
	if v := merged.Get("cookie"); v != "" {
		out["cookie"] = v
	}
	if v := merged.Get("authorization"); v != "" {
		out["authorization"] = v
	}
	return out
}
