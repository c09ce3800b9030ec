package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"imgcrawler/pkg/config"
	"imgcrawler/pkg/crawler"
	"imgcrawler/pkg/credentials"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/headless"
	"imgcrawler/pkg/logger"
	"imgcrawler/pkg/progress"
	"imgcrawler/pkg/ui"
	"imgcrawler/pkg/ui/tui"
)

var (
	// Crawl command flags
	outDir         string
	storageRoot    string
	concurrency    int
	maxPages       int
	pageDelay      int
	fetchTimeout   int
	pagePattern    string
	startPage      int
	endPage        int
	useHeadless    bool
	headerFlags    []string
	preserve       bool
	writeManifest  bool
	retries        int
	rateLimit      int
	browserPath    string
	useTUI         bool
	streamEvents   bool
	useCredentials bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Collect and download the images of a page and the pages after it",
	Long: `Collect image URLs from the start page and its following pages, then
download each distinct image once into <storage-root>/<out-dir>.

Pages are found by following "next" links unless --pattern is given, in which
case {page} in the pattern is replaced by every number from --start-page to
--end-page. With --headless, pages that cannot be fetched directly are
rendered in a local Chrome, Edge or Chromium and scrolled to trigger lazy
loading.

Credentials stored with 'imgcrawler auth set' for the start page's host are
sent automatically; --header values take precedence over them.`,
	Example: `  # Crawl a gallery with default settings
  imgcrawler crawl https://example.com/gallery

  # Pages 1 to 5 of a numbered listing, 8 downloads at a time
  imgcrawler crawl https://example.com/list --pattern "https://example.com/list?page={page}" \
      --start-page 1 --end-page 5 --concurrency 8

  # Send a cookie and fall back to a headless browser when blocked
  imgcrawler crawl https://example.com/ --header "Cookie: session=abc" --headless

  # Stream progress as server-sent events
  imgcrawler crawl https://example.com/ --events`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringVarP(&outDir, "out-dir", "o", "", "output folder under the storage root (default \"images\")")
	f.StringVar(&storageRoot, "storage-root", "", "parent directory of every output folder (default \"storage\")")
	f.IntVar(&concurrency, "concurrency", 5, "simultaneous downloads (1-10)")
	f.IntVar(&maxPages, "max-pages", 10, "maximum pages to visit (1-50)")
	f.IntVar(&pageDelay, "page-delay", 500, "pause between pages in milliseconds (0-2000)")
	f.IntVar(&fetchTimeout, "fetch-timeout", 15000, "per-request timeout in milliseconds (1000-60000)")
	f.StringVar(&pagePattern, "pattern", "", "page URL pattern containing {page}")
	f.IntVar(&startPage, "start-page", 0, "first page number for --pattern (default 1)")
	f.IntVar(&endPage, "end-page", 0, "last page number for --pattern")
	f.BoolVar(&useHeadless, "headless", false, "render pages that fail to load in a headless browser")
	f.StringArrayVarP(&headerFlags, "header", "H", nil, "extra request header as \"Name: value\" (repeatable)")
	f.BoolVar(&preserve, "preserve-existing", false, "keep files already in the output folder")
	f.BoolVar(&writeManifest, "manifest", false, "write manifest.json next to the images")
	f.IntVar(&retries, "retries", 1, "attempts per image download")
	f.IntVar(&rateLimit, "rate-limit", 0, "image requests per minute (0 = unlimited)")
	f.StringVar(&browserPath, "browser-path", "", "browser executable to try first for --headless")
	f.BoolVar(&useTUI, "tui", false, "show an interactive dashboard")
	f.BoolVar(&streamEvents, "events", false, "write progress to stdout as server-sent events")
	f.BoolVar(&useCredentials, "site-auth", true, "send credentials stored for the start page's host")

	crawlCmd.MarkFlagsMutuallyExclusive("tui", "events")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	startURL := strings.TrimSpace(args[0])

	extra, err := parseHeaders(headerFlags)
	if err != nil {
		return err
	}

	flags := crawlFlags(cmd)
	flags["headers"] = extra
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	console := io.Writer(os.Stderr)
	if useTUI {
		console = io.Discard
	}
	log, err := logger.NewWithWriter(&cfg.Logging, console)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetLogger(log)

	req := buildRequest(startURL, cfg, siteHeaders(startURL, log))
	c := crawler.New(crawlerConfig(cfg), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case streamEvents:
		return runWithEvents(ctx, c, req, os.Stdout)
	case useTUI:
		return runWithDashboard(ctx, c, req)
	default:
		return runWithStatusLine(ctx, c, req)
	}
}

// crawlFlags collects the flags the user set explicitly
func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := globalFlags(cmd)
	f := cmd.Flags()

	ints := map[string]int{
		"concurrency":   concurrency,
		"max-pages":     maxPages,
		"page-delay":    pageDelay,
		"fetch-timeout": fetchTimeout,
		"retries":       retries,
		"rate-limit":    rateLimit,
	}
	for name, v := range ints {
		if f.Changed(name) {
			flags[name] = v
		}
	}

	bools := map[string]bool{
		"headless":          useHeadless,
		"preserve-existing": preserve,
		"manifest":          writeManifest,
	}
	for name, v := range bools {
		if f.Changed(name) {
			flags[name] = v
		}
	}

	if outDir != "" {
		flags["out-dir"] = outDir
	}
	if storageRoot != "" {
		flags["storage-root"] = storageRoot
	}
	if browserPath != "" {
		flags["browser-path"] = browserPath
	}
	return flags
}

// parseHeaders turns "Name: value" (or "Name=value") flags into a map
func parseHeaders(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, h := range raw {
		i := strings.IndexAny(h, ":=")
		if i <= 0 {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
		}
		name := strings.TrimSpace(h[:i])
		if name == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
		}
		out[name] = strings.TrimSpace(h[i+1:])
	}
	return out, nil
}

// siteHeaders loads stored credentials for the start page's host
func siteHeaders(startURL string, log logger.Logger) map[string]string {
	if !useCredentials {
		return nil
	}
	manager, err := credentials.NewManager()
	if err != nil {
		log.WithError(err).Debug("Credential stores unavailable")
		return nil
	}
	stored := manager.HeadersFor(startURL)
	if len(stored) > 0 {
		log.WithField("headers", len(stored)).Info("Using stored credentials")
	}
	return stored
}

// buildRequest maps the loaded configuration onto a crawl request.
// Stored credentials sit beneath the configured headers.
func buildRequest(startURL string, cfg *config.Config, stored map[string]string) crawler.Request {
	req := crawler.Request{
		URL:            startURL,
		OutDir:         cfg.Output.Directory,
		Concurrency:    cfg.Crawl.Concurrency,
		MaxPages:       cfg.Crawl.MaxPages,
		PageDelayMs:    cfg.Crawl.PageDelayMs,
		FetchTimeoutMs: cfg.Crawl.FetchTimeoutMs,
		PagePattern:    pagePattern,
		StartPage:      startPage,
		EndPage:        endPage,
		UseHeadless:    cfg.Crawl.UseHeadless,
		Headers:        map[string]string(headers.Merge(stored, cfg.Crawl.Headers)),
	}
	// a configured 0 means no pause; the request treats 0 as unset
	if req.PageDelayMs == 0 {
		req.PageDelayMs = -1
	}
	return req
}

func crawlerConfig(cfg *config.Config) crawler.Config {
	scrollWait := time.Duration(cfg.Headless.ScrollWaitMs) * time.Millisecond
	if scrollWait == 0 {
		scrollWait = -1
	}
	return crawler.Config{
		StorageRoot:       cfg.Output.StorageRoot,
		PreserveExisting:  cfg.Output.PreserveExisting,
		WriteManifest:     cfg.Output.WriteManifest,
		RetryAttempts:     cfg.Download.RetryAttempts,
		RequestsPerMinute: cfg.Download.RequestsPerMinute,
		Headless: headless.Config{
			ScrollSteps: cfg.Headless.ScrollSteps,
			ScrollWait:  scrollWait,
			BrowserPath: cfg.Headless.BrowserPath,
		},
	}
}

// runWithEvents streams every event and finishes with a result or error event
func runWithEvents(ctx context.Context, c *crawler.Crawler, req crawler.Request, out io.Writer) error {
	stream := progress.NewSSEWriter(out)
	req.Sink = stream

	result, err := c.Run(ctx, req)
	if err != nil {
		stream.Emit(progress.Failure(err))
		return stream.Err()
	}

	ev, err := progress.Result(result)
	if err != nil {
		return err
	}
	stream.Emit(ev)
	return stream.Err()
}

func runWithDashboard(ctx context.Context, c *crawler.Crawler, req crawler.Request) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dash := tui.New(req.URL, cancel)
	req.Sink = dash.Sink()

	runErr := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx, req)
		if err != nil && !errors.Is(err, context.Canceled) {
			dash.Sink().Emit(progress.Failure(err))
		}
		dash.Close()
		runErr <- err
	}()

	if _, err := dash.Run(); err != nil {
		cancel()
		<-runErr
		return fmt.Errorf("dashboard failed: %w", err)
	}
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runWithStatusLine(ctx context.Context, c *crawler.Crawler, req crawler.Request) error {
	if quiet {
		req.Sink = progress.Discard
	} else {
		ui.PrintBanner()
		ui.PrintInfo("Start URL", req.URL)
		req.Sink = ui.NewProgressDisplay(os.Stdout, verbose)
	}

	result, err := c.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) && result != nil {
			ui.PrintWarning("Crawl cancelled", cancelledSummary(result))
		}
		return err
	}
	return nil
}

// cancelledSummary reports what a cancelled crawl left on disk
func cancelledSummary(result *crawler.Result) string {
	return fmt.Sprintf("%d image(s) saved to %s", len(result.Saved), result.OutDir)
}
