// Package downloader fetches discovered images with a bounded worker pool and
// stores them under unique names.
package downloader

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/logger"
	"imgcrawler/pkg/ratelimit"
	"imgcrawler/pkg/retry"
)

const (
	DefaultConcurrency = 5
	DefaultTimeout     = 15 * time.Second
)

// Saved records one stored image
type Saved struct {
	URL  string `json:"url"`
	File string `json:"file"`
}

// ImageStore persists image bodies under unique names
type ImageStore interface {
	Save(r io.Reader, name string) (file string, size int64, err error)
}

// Options controls a download batch
type Options struct {
	Concurrency int
	// Timeout bounds each download, body included
	Timeout time.Duration
	// Referer is sent with every image; empty means the image's own origin
	Referer string
	Headers map[string]string

	// RetryAttempts is the total number of tries per image (minimum 1)
	RetryAttempts int
	Backoff       retry.BackoffStrategy
	Limiter       ratelimit.Limiter

	// Client defaults to a plain http.Client
	Client *http.Client

	OnSaved  func(Saved)
	OnFailed func(url string, err error)
}

// Scheduler downloads a batch of URLs
type Scheduler struct {
	store  ImageStore
	opts   Options
	logger logger.Logger
}

// NewScheduler creates a Scheduler writing to store
func NewScheduler(store ImageStore, opts Options, log logger.Logger) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DownloadBackoff()
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}

	return &Scheduler{
		store:  store,
		opts:   opts,
		logger: logger.OrGlobal(log).WithField("component", "downloader"),
	}
}

// Run downloads every URL with at most Concurrency in flight. Workers claim
// the next index from a shared cursor, so completion order is not URL order.
// Failed downloads are reported through OnFailed and left out of the result.
func (s *Scheduler) Run(ctx context.Context, urls []string) []Saved {
	saved := []Saved{}
	if len(urls) == 0 {
		return saved
	}

	workers := s.opts.Concurrency
	if workers > len(urls) {
		workers = len(urls)
	}

	logger.LogComponentStart(s.logger, "downloader", map[string]interface{}{
		"workers": workers,
		"urls":    len(urls),
	})

	var (
		mu     sync.Mutex
		cursor int64 = -1
		g      errgroup.Group
	)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := atomic.AddInt64(&cursor, 1)
				if i >= int64(len(urls)) || ctx.Err() != nil {
					return nil
				}

				u := urls[i]
				item, err := s.download(ctx, u)
				if err != nil {
					logger.LogDownload(s.logger, u, "", 0, err)
					if s.opts.OnFailed != nil {
						s.opts.OnFailed(u, err)
					}
					continue
				}

				mu.Lock()
				saved = append(saved, item)
				mu.Unlock()
				if s.opts.OnSaved != nil {
					s.opts.OnSaved(item)
				}
			}
		})
	}
	_ = g.Wait()

	reason := "completed"
	if ctx.Err() != nil {
		reason = "cancelled"
	}
	logger.LogComponentStop(s.logger, "downloader", reason)
	return saved
}

func (s *Scheduler) download(ctx context.Context, rawURL string) (Saved, error) {
	if s.opts.Limiter != nil {
		if err := s.opts.Limiter.Wait(ctx); err != nil {
			return Saved{}, errs.Wrap(errs.ErrorTypeNetwork, err, "rate limiter wait aborted")
		}
	}

	return retry.DoWithResult(ctx, func(ctx context.Context) (Saved, error) {
		return s.fetchAndSave(ctx, rawURL)
	}, &retry.Config{
		MaxAttempts: s.opts.RetryAttempts,
		Backoff:     s.opts.Backoff,
		Logger:      s.logger.WithField("url", rawURL),
	})
}

func (s *Scheduler) fetchAndSave(ctx context.Context, rawURL string) (Saved, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Saved{}, errs.Wrap(errs.ErrorTypeParsing, err, "invalid image URL")
	}
	for k, v := range headers.Image(rawURL, s.opts.Referer, s.opts.Headers) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return Saved{}, classify(ctx, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(s.logger, req.Method, rawURL, resp.StatusCode, time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Saved{}, errs.NewHTTPStatus(resp.StatusCode)
	}

	name := Filename(rawURL, resp.Header.Get("Content-Type"))
	file, size, err := s.store.Save(resp.Body, name)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Saved{}, errs.Wrap(errs.ErrorTypeTimeout, err, "download timed out")
		}
		return Saved{}, err
	}

	logger.LogDownload(s.logger, rawURL, file, size, nil)
	return Saved{URL: rawURL, File: file}, nil
}

func classify(ctx context.Context, err error) error {
	var netErr net.Error
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return errs.Wrap(errs.ErrorTypeTimeout, err, "download timed out")
	}
	return errs.Wrap(errs.ErrorTypeNetwork, err, "download failed")
}
