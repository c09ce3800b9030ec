package crawler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imgcrawler/internal/downloader"
	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/extractor"
	"imgcrawler/pkg/fetch"
	"imgcrawler/pkg/headless"
	"imgcrawler/pkg/logger"
	"imgcrawler/pkg/manifest"
	"imgcrawler/pkg/pagination"
	"imgcrawler/pkg/progress"
	"imgcrawler/pkg/ratelimit"
	"imgcrawler/pkg/retry"
	"imgcrawler/pkg/storage"
)

// Config holds the settings shared by every job a Crawler runs
type Config struct {
	// StorageRoot is the parent of every job's output directory
	StorageRoot      string
	PreserveExisting bool
	WriteManifest    bool

	RetryAttempts     int
	RequestsPerMinute int

	Headless headless.Config

	// Fetcher, Fallback and HTTPClient replace the network-facing parts;
	// nil uses the colly fetcher, the chromedp renderer and a plain client
	Fetcher    fetch.Fetcher
	Fallback   extractor.Strategy
	HTTPClient *http.Client
}

// Result is what a job returns to its caller
type Result struct {
	Count  int                `json:"count"`
	Saved  []downloader.Saved `json:"saved"`
	OutDir string             `json:"outDir"`
}

// Crawler runs crawl jobs: resolve pages, collect image URLs, download them
type Crawler struct {
	cfg      Config
	resolver *pagination.Resolver
	static   extractor.Strategy
	fallback extractor.Strategy
	logger   logger.Logger

	mu    sync.Mutex
	state State
}

// New creates a Crawler; a nil logger uses the global one
func New(cfg Config, log logger.Logger) *Crawler {
	log = logger.OrGlobal(log).WithField("component", "crawler")

	if cfg.StorageRoot == "" {
		cfg.StorageRoot = DefaultStorageRoot
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.New(log)
	}
	if cfg.Fallback == nil {
		cfg.Fallback = headless.New(cfg.Headless, log)
	}

	return &Crawler{
		cfg:      cfg,
		resolver: pagination.NewResolver(cfg.Fetcher, log),
		static:   extractor.NewStaticStrategy(cfg.Fetcher),
		fallback: cfg.Fallback,
		logger:   log,
	}
}

// State returns the state of the most recent job
func (c *Crawler) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Crawler) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	c.logger.DebugWithFields("State changed", map[string]interface{}{
		"from": from.String(),
		"to":   to.String(),
	})
}

// Run executes one job. Only an invalid request or an output directory that
// cannot be created fails it; page and download problems are reported as
// events and reflected in the result. When ctx is cancelled the partial
// result is returned together with the context error.
func (c *Crawler) Run(ctx context.Context, req Request) (*Result, error) {
	opts, err := Normalize(req, c.cfg.StorageRoot)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	em := &emitter{sink: opts.Sink, logger: c.logger}
	log := c.logger.WithField("start_url", opts.StartURL)

	c.transition(StatePlanning)
	store, err := storage.NewManager(opts.OutDir, c.cfg.PreserveExisting)
	if err != nil {
		return nil, err
	}
	if c.cfg.WriteManifest && !store.Registry().Contains(manifest.FileName) {
		store.Registry().Reserve(manifest.FileName)
	}

	if opts.PagePattern == "" {
		c.transition(StatePaging)
	}
	pages := c.resolver.Resolve(ctx, opts.StartURL, pagination.Options{
		MaxPages:  opts.MaxPages,
		PageDelay: opts.PageDelay,
		Timeout:   opts.FetchTimeout,
		Headers:   opts.Headers,
		Pattern:   opts.PagePattern,
		StartPage: opts.StartPage,
		EndPage:   opts.EndPage,
	})
	log.InfoWithFields("Pages planned", map[string]interface{}{"pages": len(pages)})
	em.emit(progress.Plan(len(pages)))

	c.transition(StateDiscovering)
	set := extractor.NewURLSet()
	for i, pageURL := range pages {
		if ctx.Err() != nil {
			break
		}
		index := i + 1
		em.emit(progress.Page(index, len(pages), pageURL))

		added := c.visit(ctx, pageURL, opts, em, set)
		em.emit(progress.PageDone(index, len(pages), added))
		logger.LogPage(log, index, len(pages), pageURL, added)

		if err := retry.Wait(ctx, opts.PageDelay); err != nil {
			break
		}
	}

	urls := set.Slice()
	log.InfoWithFields("Images discovered", map[string]interface{}{"count": len(urls)})
	em.emit(progress.Discover(len(urls)))

	c.transition(StateDownloading)
	var (
		failedMu sync.Mutex
		failed   []manifest.Failure
	)
	scheduler := downloader.NewScheduler(store, downloader.Options{
		Concurrency:   opts.Concurrency,
		Timeout:       opts.FetchTimeout,
		Referer:       opts.StartURL,
		Headers:       opts.Headers,
		RetryAttempts: c.cfg.RetryAttempts,
		Limiter:       ratelimit.PerMinute(c.cfg.RequestsPerMinute),
		Client:        c.cfg.HTTPClient,
		OnSaved: func(s downloader.Saved) {
			em.emit(progress.Saved(s.URL, s.File))
		},
		OnFailed: func(u string, err error) {
			failedMu.Lock()
			failed = append(failed, manifest.Failure{URL: u, Error: err.Error()})
			failedMu.Unlock()
			em.emit(progress.DownloadFailed(u, err))
		},
	}, c.logger)
	saved := scheduler.Run(ctx, urls)

	outDir := relativeDir(store.Dir())
	if c.cfg.WriteManifest {
		c.writeManifest(store.Dir(), &manifest.Manifest{
			StartURL:   opts.StartURL,
			Pages:      pages,
			Discovered: len(urls),
			Saved:      entries(saved),
			Failed:     failed,
			StartedAt:  started,
		})
	}

	em.emit(progress.Complete(len(saved), outDir))
	c.transition(StateCompleted)
	log.InfoWithFields("Crawl completed", map[string]interface{}{
		"discovered":  len(urls),
		"saved":       len(saved),
		"out_dir":     outDir,
		"duration_ms": time.Since(started).Milliseconds(),
	})

	result := &Result{Count: len(urls), Saved: saved, OutDir: outDir}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// visit extracts one page into the job's URL set and returns how many URLs
// were new. A failed static fetch falls back to rendering when enabled.
func (c *Crawler) visit(ctx context.Context, pageURL string, opts Options, em *emitter, set *extractor.URLSet) int {
	urls, err := c.static.Extract(ctx, pageURL, extractor.Options{
		Headers: opts.Headers,
		Timeout: opts.FetchTimeout,
	})
	if err == nil {
		return set.AddAll(urls)
	}

	c.logger.WithError(err).WithField("url", pageURL).Warn("Page fetch failed")
	if !opts.UseHeadless || c.fallback == nil {
		return 0
	}

	em.emit(progress.Fallback(fallbackReason(err), pageURL))
	more, err := c.fallback.Extract(ctx, pageURL, extractor.Options{
		Headers: opts.Headers,
		Timeout: opts.FetchTimeout,
		OnScroll: func(step, total int) {
			em.emit(progress.Scroll(step, total))
		},
	})
	if err != nil {
		c.logger.WithError(err).WithField("url", pageURL).Error("Headless extraction failed")
		return 0
	}
	return set.AddAll(more)
}

func (c *Crawler) writeManifest(dir string, m *manifest.Manifest) {
	if err := manifest.NewManager(dir, c.logger).Save(m); err != nil {
		c.logger.WithError(err).WithField("dir", dir).Warn("Failed to write manifest")
	}
}

// fallbackReason names why a page is being rendered: http_<status> for a
// non-2xx response, fetch_error otherwise
func fallbackReason(err error) string {
	if code := errs.StatusCode(err); code > 0 {
		return fmt.Sprintf("http_%d", code)
	}
	return "fetch_error"
}

// relativeDir returns dir relative to the working directory when possible
func relativeDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return dir
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil {
		return dir
	}
	return rel
}

func entries(saved []downloader.Saved) []manifest.Entry {
	out := make([]manifest.Entry, len(saved))
	for i, s := range saved {
		out[i] = manifest.Entry{URL: s.URL, File: s.File}
	}
	return out
}
