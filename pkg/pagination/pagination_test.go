package pagination

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcrawler/pkg/fetch"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/logger"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		start    int
		end      int
		maxPages int
		expected []string
	}{
		{
			name:     "explicit range",
			pattern:  "https://example.com/list?page={page}",
			start:    2,
			end:      4,
			expected: []string{"https://example.com/list?page=2", "https://example.com/list?page=3", "https://example.com/list?page=4"},
		},
		{
			name:     "defaults from max pages",
			pattern:  "https://example.com/p/{page}",
			maxPages: 3,
			expected: []string{"https://example.com/p/1", "https://example.com/p/2", "https://example.com/p/3"},
		},
		{
			name:     "end derived from start",
			pattern:  "https://example.com/p/{page}",
			start:    5,
			maxPages: 2,
			expected: []string{"https://example.com/p/5", "https://example.com/p/6"},
		},
		{
			name:     "only first placeholder",
			pattern:  "https://example.com/{page}/{page}",
			start:    1,
			end:      1,
			expected: []string{"https://example.com/1/{page}"},
		},
		{
			name:     "missing placeholder",
			pattern:  "https://example.com/static",
			expected: []string{"https://example.com/static"},
		},
		{
			name:     "range capped at max pages",
			pattern:  "https://example.com/p/{page}",
			start:    1,
			end:      200,
			maxPages: 3,
			expected: []string{"https://example.com/p/1", "https://example.com/p/2", "https://example.com/p/3"},
		},
		{
			name:     "huge end",
			pattern:  "https://example.com/p/{page}",
			start:    7,
			end:      math.MaxInt,
			maxPages: 2,
			expected: []string{"https://example.com/p/7", "https://example.com/p/8"},
		},
		{
			name:     "end before start",
			pattern:  "https://example.com/p/{page}",
			start:    5,
			end:      3,
			expected: []string{"https://example.com/p/{page}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.pattern, tt.start, tt.end, tt.maxPages))
		})
	}
}

func TestExpandLength(t *testing.T) {
	for start := 1; start <= 3; start++ {
		for end := start; end <= start+5; end++ {
			pages := Expand("https://example.com/?p={page}", start, end, 50)
			require.Len(t, pages, end-start+1)
			for i, p := range pages {
				assert.Equal(t, fmt.Sprintf("https://example.com/?p=%d", start+i), p)
			}
		}
	}
}

// countingFetcher fails the test if the pattern path ever touches the network
type countingFetcher struct {
	calls int32
}

func (f *countingFetcher) Fetch(ctx context.Context, pageURL string, opts fetch.Options) (*fetch.Page, error) {
	atomic.AddInt32(&f.calls, 1)
	return &fetch.Page{URL: pageURL, StatusCode: 200}, nil
}

func TestResolvePatternMakesNoRequests(t *testing.T) {
	f := &countingFetcher{}
	r := NewResolver(f, logger.NewNopLogger())

	pages := r.Resolve(context.Background(), "https://example.com/", Options{
		Pattern:   "https://example.com/page/{page}",
		StartPage: 1,
		EndPage:   3,
	})

	assert.Len(t, pages, 3)
	assert.Zero(t, atomic.LoadInt32(&f.calls))
}

func newSite(t *testing.T, pages map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestResolveFollowsNextLinks(t *testing.T) {
	server, _ := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/p2">2</a>`,
		"/p2": `<div class="pagination"><a class="next" href="p3">more</a></div>`,
		"/p3": `<a href="/other">Home</a><a href="/p4"> » </a>`,
		"/p4": `<p>last page</p>`,
	})

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(context.Background(), server.URL+"/p1", Options{MaxPages: 10})

	assert.Equal(t, []string{
		server.URL + "/p1",
		server.URL + "/p2",
		server.URL + "/p3",
		server.URL + "/p4",
	}, pages)
}

func TestResolveRespectsMaxPages(t *testing.T) {
	server, hits := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/p2">next</a>`,
		"/p2": `<a rel="next" href="/p3">next</a>`,
		"/p3": `<a rel="next" href="/p4">next</a>`,
	})

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(context.Background(), server.URL+"/p1", Options{MaxPages: 2})

	assert.Equal(t, []string{server.URL + "/p1", server.URL + "/p2"}, pages)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestResolveStopsAtOriginBoundary(t *testing.T) {
	other, _ := newSite(t, map[string]string{
		"/elsewhere": `<a rel="next" href="/more">next</a>`,
	})
	server, _ := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/p2">next</a>`,
		"/p2": `<a rel="next" href="` + other.URL + `/elsewhere">next</a>`,
	})

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(context.Background(), server.URL+"/p1", Options{MaxPages: 10})

	assert.Equal(t, []string{server.URL + "/p1", server.URL + "/p2"}, pages)
	origin := headers.Origin(server.URL)
	for _, p := range pages {
		assert.Equal(t, origin, headers.Origin(p))
	}
}

func TestResolveStopsOnHTTPError(t *testing.T) {
	server, _ := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/missing">next</a>`,
	})

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(context.Background(), server.URL+"/p1", Options{MaxPages: 10})

	assert.Equal(t, []string{server.URL + "/p1", server.URL + "/missing"}, pages)
}

func TestResolveStopsOnFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(context.Background(), addr+"/p1", Options{MaxPages: 5, Timeout: time.Second})

	assert.Equal(t, []string{addr + "/p1"}, pages)
}

func TestResolveLoopGuard(t *testing.T) {
	server, _ := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/p2">next</a>`,
		"/p2": `<a rel="next" href="/p1">next</a>`,
	})

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(context.Background(), server.URL+"/p1", Options{MaxPages: 50})

	assert.Equal(t, []string{server.URL + "/p1", server.URL + "/p2"}, pages)
}

func TestResolveAppliesPageDelay(t *testing.T) {
	server, _ := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/p2">next</a>`,
		"/p2": `<a rel="next" href="/p3">next</a>`,
		"/p3": `<p>end</p>`,
	})

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	start := time.Now()
	pages := r.Resolve(context.Background(), server.URL+"/p1", Options{MaxPages: 10, PageDelay: 60 * time.Millisecond})

	assert.Len(t, pages, 3)
	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}

func TestResolveCancelledDuringDelay(t *testing.T) {
	server, _ := newSite(t, map[string]string{
		"/p1": `<a rel="next" href="/p2">next</a>`,
		"/p2": `<p>end</p>`,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	r := NewResolver(fetch.New(logger.NewNopLogger()), logger.NewNopLogger())
	pages := r.Resolve(ctx, server.URL+"/p1", Options{MaxPages: 10, PageDelay: time.Hour})

	assert.Equal(t, []string{server.URL + "/p1"}, pages)
}

func TestFindNextPriority(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		expected string
	}{
		{"rel beats text", `<a href="/by-text">Next</a><a rel="next" href="/by-rel">2</a>`, "https://example.com/by-rel"},
		{"class beats text", `<a href="/by-text">next</a><a class="next" href="/by-class">go</a>`, "https://example.com/by-class"},
		{"chinese simplified", `<a href="/cn">下一页</a>`, "https://example.com/cn"},
		{"chinese traditional", `<a href="/tw">下一頁</a>`, "https://example.com/tw"},
		{"single angle", `<a href="/angle">›</a>`, "https://example.com/angle"},
		{"greater than", `<a href="/gt">&gt;</a>`, "https://example.com/gt"},
		{"case insensitive", `<a href="/upper">  NEXT </a>`, "https://example.com/upper"},
		{"first text match wins", `<a href="/one">next</a><a href="/two">»</a>`, "https://example.com/one"},
		{"text without href skipped", `<a>next</a><a href="/real">next</a>`, "https://example.com/real"},
		{"partial text ignored", `<a href="/x">next page</a>`, ""},
		{"none", `<p>nothing</p>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.markup))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, FindNext(doc, "https://example.com/list"))
		})
	}
}
