package crawler

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/progress"
)

const (
	DefaultOutDir         = "images"
	DefaultStorageRoot    = "storage"
	DefaultConcurrency    = 5
	DefaultMaxPages       = 10
	DefaultPageDelayMs    = 500
	DefaultFetchTimeoutMs = 15000
)

var validate = validator.New()

// Request is a crawl job as a caller submits it. Zero numeric fields take
// their defaults and out-of-range values are clamped by Normalize.
// A negative PageDelayMs disables the pause between pages.
type Request struct {
	URL            string            `json:"url" validate:"required,url"`
	OutDir         string            `json:"outDir,omitempty"`
	Concurrency    int               `json:"concurrency,omitempty"`
	MaxPages       int               `json:"maxPages,omitempty"`
	PageDelayMs    int               `json:"pageDelayMs,omitempty"`
	FetchTimeoutMs int               `json:"fetchTimeoutMs,omitempty"`
	PagePattern    string            `json:"pagePattern,omitempty"`
	StartPage      int               `json:"startPage,omitempty" validate:"gte=0"`
	EndPage        int               `json:"endPage,omitempty" validate:"gte=0"`
	UseHeadless    bool              `json:"useHeadless,omitempty"`
	Headers        map[string]string `json:"headers,omitempty" validate:"dive,keys,required,endkeys"`

	// Sink receives progress events; nil discards them
	Sink progress.Sink `json:"-"`
}

// Options is a validated, clamped job
type Options struct {
	StartURL     string
	OutDir       string
	Concurrency  int
	MaxPages     int
	PageDelay    time.Duration
	FetchTimeout time.Duration
	PagePattern  string
	StartPage    int
	EndPage      int
	Headers      map[string]string
	UseHeadless  bool
	Sink         progress.Sink
}

// Normalize validates req and resolves it against storageRoot. Every error
// it returns is of type config.
func Normalize(req Request, storageRoot string) (Options, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := validate.Struct(req); err != nil {
		return Options{}, validationError(err)
	}

	target, err := url.Parse(req.URL)
	if err != nil {
		return Options{}, errs.Wrap(errs.ErrorTypeConfig, err, "invalid URL")
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return Options{}, errs.New(errs.ErrorTypeConfig, fmt.Sprintf("URL scheme must be http or https, got %q", target.Scheme))
	}
	if target.Host == "" {
		return Options{}, errs.New(errs.ErrorTypeConfig, "URL has no host")
	}

	maxPages := clamp(req.MaxPages, DefaultMaxPages, 1, 50)
	if err := checkPageRange(req, maxPages); err != nil {
		return Options{}, err
	}

	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}

	return Options{
		StartURL:     target.String(),
		OutDir:       OutputDir(storageRoot, req.OutDir),
		Concurrency:  clamp(req.Concurrency, DefaultConcurrency, 1, 10),
		MaxPages:     maxPages,
		PageDelay:    time.Duration(clamp(req.PageDelayMs, DefaultPageDelayMs, 0, 2000)) * time.Millisecond,
		FetchTimeout: time.Duration(clamp(req.FetchTimeoutMs, DefaultFetchTimeoutMs, 1000, 60000)) * time.Millisecond,
		PagePattern:  strings.TrimSpace(req.PagePattern),
		StartPage:    req.StartPage,
		EndPage:      req.EndPage,
		Headers:      headers,
		UseHeadless:  req.UseHeadless,
		Sink:         req.Sink,
	}, nil
}

// OutputDir places outDir under root. An absolute outDir keeps only its last
// element and a relative one cannot climb out of root.
func OutputDir(root, outDir string) string {
	if root == "" {
		root = DefaultStorageRoot
	}
	outDir = strings.TrimSpace(outDir)
	if filepath.IsAbs(outDir) {
		outDir = filepath.Base(outDir)
	}

	rel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(outDir)), "/")
	if rel == "" {
		rel = DefaultOutDir
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

// checkPageRange rejects pattern ranges that would visit more than
// maxPages pages, so an accepted range is always expanded in full
func checkPageRange(req Request, maxPages int) error {
	if strings.TrimSpace(req.PagePattern) == "" {
		return nil
	}
	start := max(req.StartPage, 1)
	if start > math.MaxInt-maxPages {
		return errs.New(errs.ErrorTypeConfig, fmt.Sprintf("startPage %d is out of range", req.StartPage))
	}
	if req.EndPage > 0 && req.EndPage-start+1 > maxPages {
		return errs.New(errs.ErrorTypeConfig, fmt.Sprintf(
			"pages %d to %d exceed maxPages %d", start, req.EndPage, maxPages))
	}
	return nil
}

func clamp(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errs.Wrap(errs.ErrorTypeConfig, err, "invalid request")
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" "+describe(fe))
	}
	return errs.New(errs.ErrorTypeConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", fe.Tag())
	}
}
