package extractor

import (
	"context"
	"time"

	"imgcrawler/pkg/fetch"
)

// Options are passed to a Strategy for one page
type Options struct {
	Headers map[string]string
	Timeout time.Duration
	// OnScroll reports rendering progress; only rendering strategies call it
	OnScroll func(step, total int)
}

// Strategy produces the image URLs of one page
type Strategy interface {
	Extract(ctx context.Context, pageURL string, opts Options) ([]string, error)
}

// StrategyFunc adapts a function to Strategy
type StrategyFunc func(ctx context.Context, pageURL string, opts Options) ([]string, error)

// Extract calls f
func (f StrategyFunc) Extract(ctx context.Context, pageURL string, opts Options) ([]string, error) {
	return f(ctx, pageURL, opts)
}

// StaticStrategy fetches the page over HTTP and applies the static rules
type StaticStrategy struct {
	fetcher fetch.Fetcher
}

// NewStaticStrategy creates a StaticStrategy backed by fetcher
func NewStaticStrategy(fetcher fetch.Fetcher) *StaticStrategy {
	return &StaticStrategy{fetcher: fetcher}
}

// Extract returns the page's image URLs in document order. Fetch failures
// and non-2xx responses are returned as typed errors.
func (s *StaticStrategy) Extract(ctx context.Context, pageURL string, opts Options) ([]string, error) {
	page, err := s.fetcher.Fetch(ctx, pageURL, fetch.Options{
		Headers: opts.Headers,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	set := NewURLSet()
	if _, err := ExtractHTML(string(page.Body), pageURL, set); err != nil {
		return nil, err
	}
	return set.Slice(), nil
}
