// Package fetch retrieves HTML pages for pagination and static extraction.
package fetch

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gocolly/colly/v2"

	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/logger"
)

// DefaultTimeout applies when Options.Timeout is zero
const DefaultTimeout = 15 * time.Second

// Page is a fetched HTML document
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response status was 2xx
func (p *Page) OK() bool {
	return p != nil && p.StatusCode >= 200 && p.StatusCode < 300
}

// Options controls a single fetch
type Options struct {
	// Headers are merged over the HTML profile, caller wins
	Headers map[string]string
	Timeout time.Duration
}

// Fetcher retrieves one page
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, opts Options) (*Page, error)
}

// PageFetcher fetches pages with colly
type PageFetcher struct {
	logger logger.Logger
}

// New creates a PageFetcher; a nil logger uses the global one
func New(log logger.Logger) *PageFetcher {
	return &PageFetcher{logger: logger.OrGlobal(log)}
}

// Fetch requests pageURL with the HTML header profile.
// A transport failure returns a network or timeout error and no page.
// A non-2xx response returns the page together with an http_status error.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqHeaders := headers.HTML(opts.Headers)

	c := colly.NewCollector(
		colly.UserAgent(reqHeaders.Get("user-agent")),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	c.ParseHTTPErrorResponse = true

	c.OnRequest(func(r *colly.Request) {
		for k, v := range reqHeaders {
			r.Headers.Set(k, v)
		}
	})

	var page *Page
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:         pageURL,
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
		}
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	start := time.Now()
	visitErr := c.Visit(pageURL)
	if visitErr == nil {
		visitErr = fetchErr
	}

	if visitErr != nil || page == nil {
		err := classify(ctx, visitErr)
		f.logger.WithError(err).WithField("url", pageURL).Debug("Page fetch failed")
		return nil, err
	}

	logger.LogRequest(f.logger, "GET", pageURL, page.StatusCode, time.Since(start))

	if !page.OK() {
		return page, errs.NewHTTPStatus(page.StatusCode)
	}
	return page, nil
}

// classify maps a transport error onto the typed error taxonomy
func classify(ctx context.Context, err error) error {
	if err == nil {
		return errs.New(errs.ErrorTypeNetwork, "empty response")
	}
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return errs.Wrap(errs.ErrorTypeNetwork, ctx.Err(), "fetch cancelled")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errs.Wrap(errs.ErrorTypeTimeout, err, "page fetch timed out")
	}
	return errs.Wrap(errs.ErrorTypeNetwork, err, "page fetch failed")
}
