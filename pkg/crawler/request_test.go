package crawler

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	errs "imgcrawler/pkg/errors"
)

func TestNormalizeDefaults(t *testing.T) {
	opts, err := Normalize(Request{URL: "  https://example.com/gallery  "}, "")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if opts.StartURL != "https://example.com/gallery" {
		t.Errorf("StartURL = %q", opts.StartURL)
	}
	if opts.OutDir != filepath.Join(DefaultStorageRoot, DefaultOutDir) {
		t.Errorf("OutDir = %q", opts.OutDir)
	}
	if opts.Concurrency != 5 || opts.MaxPages != 10 {
		t.Errorf("Concurrency = %d, MaxPages = %d", opts.Concurrency, opts.MaxPages)
	}
	if opts.PageDelay != 500*time.Millisecond {
		t.Errorf("PageDelay = %v", opts.PageDelay)
	}
	if opts.FetchTimeout != 15*time.Second {
		t.Errorf("FetchTimeout = %v", opts.FetchTimeout)
	}
	if opts.Headers == nil {
		t.Error("Headers should be an empty map, not nil")
	}
}

func TestNormalizeClamps(t *testing.T) {
	tests := []struct {
		name         string
		req          Request
		concurrency  int
		maxPages     int
		pageDelay    time.Duration
		fetchTimeout time.Duration
	}{
		{
			name:         "above range",
			req:          Request{Concurrency: 99, MaxPages: 500, PageDelayMs: 9000, FetchTimeoutMs: 120000},
			concurrency:  10,
			maxPages:     50,
			pageDelay:    2 * time.Second,
			fetchTimeout: 60 * time.Second,
		},
		{
			name:         "below range",
			req:          Request{Concurrency: -3, MaxPages: -1, PageDelayMs: -1, FetchTimeoutMs: 10},
			concurrency:  1,
			maxPages:     1,
			pageDelay:    0,
			fetchTimeout: time.Second,
		},
		{
			name:         "in range",
			req:          Request{Concurrency: 3, MaxPages: 7, PageDelayMs: 250, FetchTimeoutMs: 5000},
			concurrency:  3,
			maxPages:     7,
			pageDelay:    250 * time.Millisecond,
			fetchTimeout: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.URL = "http://example.com/"
			opts, err := Normalize(tt.req, "storage")
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if opts.Concurrency != tt.concurrency {
				t.Errorf("Concurrency = %d, want %d", opts.Concurrency, tt.concurrency)
			}
			if opts.MaxPages != tt.maxPages {
				t.Errorf("MaxPages = %d, want %d", opts.MaxPages, tt.maxPages)
			}
			if opts.PageDelay != tt.pageDelay {
				t.Errorf("PageDelay = %v, want %v", opts.PageDelay, tt.pageDelay)
			}
			if opts.FetchTimeout != tt.fetchTimeout {
				t.Errorf("FetchTimeout = %v, want %v", opts.FetchTimeout, tt.fetchTimeout)
			}
		})
	}
}

func TestNormalizeCopiesHeaders(t *testing.T) {
	headers := map[string]string{"Cookie": "a=1"}
	opts, err := Normalize(Request{URL: "https://example.com", Headers: headers}, "")
	if err != nil {
		t.Fatal(err)
	}
	headers["Cookie"] = "changed"
	if opts.Headers["Cookie"] != "a=1" {
		t.Errorf("Headers aliased the caller's map: %v", opts.Headers)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"missing url", Request{}},
		{"relative url", Request{URL: "/gallery"}},
		{"unsupported scheme", Request{URL: "file:///etc/passwd"}},
		{"negative start page", Request{URL: "https://example.com", StartPage: -1}},
		{"negative end page", Request{URL: "https://example.com", EndPage: -2}},
		{"range over max pages", Request{URL: "https://example.com", PagePattern: "https://example.com/p/{page}", MaxPages: 3, StartPage: 1, EndPage: 200}},
		{"huge end page", Request{URL: "https://example.com", PagePattern: "https://example.com/p/{page}", EndPage: math.MaxInt}},
		{"huge start page", Request{URL: "https://example.com", PagePattern: "https://example.com/p/{page}", StartPage: math.MaxInt}},
		{"empty header name", Request{URL: "https://example.com", Headers: map[string]string{"": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.req, "")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errs.IsConfig(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestNormalizePageRange(t *testing.T) {
	opts, err := Normalize(Request{
		URL:         "https://example.com",
		PagePattern: "https://example.com/p/{page}",
		MaxPages:    3,
		StartPage:   4,
		EndPage:     6,
	}, "")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if opts.StartPage != 4 || opts.EndPage != 6 {
		t.Errorf("range = %d..%d, want 4..6", opts.StartPage, opts.EndPage)
	}

	// without a pattern the range is unused
	if _, err := Normalize(Request{URL: "https://example.com", EndPage: 500}, ""); err != nil {
		t.Errorf("Normalize() without pattern error = %v", err)
	}
}

func TestOutputDir(t *testing.T) {
	tests := []struct {
		root     string
		outDir   string
		expected string
	}{
		{"storage", "", filepath.Join("storage", "images")},
		{"storage", "cats", filepath.Join("storage", "cats")},
		{"storage", "a/b", filepath.Join("storage", "a", "b")},
		{"storage", "/var/data/cats", filepath.Join("storage", "cats")},
		{"storage", "../../etc", filepath.Join("storage", "etc")},
		{"storage", "..", filepath.Join("storage", "images")},
		{"", "x", filepath.Join("storage", "x")},
		{"/srv/root", "x", filepath.Join("/srv/root", "x")},
	}

	for _, tt := range tests {
		if got := OutputDir(tt.root, tt.outDir); got != tt.expected {
			t.Errorf("OutputDir(%q, %q) = %q, want %q", tt.root, tt.outDir, got, tt.expected)
		}
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateIdle:        "idle",
		StatePlanning:    "planning",
		StatePaging:      "paging",
		StateDiscovering: "discovering",
		StateDownloading: "downloading",
		StateCompleted:   "completed",
		State(42):        "unknown",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
