// Package pagination resolves the ordered list of pages a job visits, either
// by expanding a "{page}" URL pattern or by following same-origin next links.
package pagination

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"imgcrawler/pkg/fetch"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/logger"
	"imgcrawler/pkg/retry"
)

// Placeholder is substituted with each page number in a pattern
const Placeholder = "{page}"

// DefaultMaxPages bounds next-link following when Options.MaxPages is zero
const DefaultMaxPages = 10

var nextText = regexp.MustCompile(`^(next|下一页|下一頁|›|»|>)$`)

// Options controls page resolution
type Options struct {
	MaxPages  int
	PageDelay time.Duration
	Timeout   time.Duration
	Headers   map[string]string

	Pattern   string
	StartPage int
	EndPage   int
}

// Resolver produces page lists
type Resolver struct {
	fetcher fetch.Fetcher
	logger  logger.Logger
}

// NewResolver creates a Resolver; a nil logger uses the global one
func NewResolver(fetcher fetch.Fetcher, log logger.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger.OrGlobal(log).WithField("component", "pagination"),
	}
}

// Resolve returns the pages to visit starting at startURL. It never fails:
// a problem on any page truncates the list to the pages collected so far.
func (r *Resolver) Resolve(ctx context.Context, startURL string, opts Options) []string {
	if opts.Pattern != "" {
		return Expand(opts.Pattern, opts.StartPage, opts.EndPage, opts.MaxPages)
	}
	return r.follow(ctx, startURL, opts)
}

// Expand substitutes the first "{page}" with every number in [start, end],
// keeping at most maxPages pages. start defaults to 1 and end to
// start+maxPages-1. A pattern without the placeholder, or with end before
// start, yields the pattern itself.
func Expand(pattern string, start, end, maxPages int) []string {
	if start <= 0 {
		start = 1
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	n := maxPages
	if end > 0 {
		n = min(end-start+1, maxPages)
	}
	if !strings.Contains(pattern, Placeholder) || n <= 0 {
		return []string{pattern}
	}

	pages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		pages = append(pages, strings.Replace(pattern, Placeholder, strconv.Itoa(start+i), 1))
	}
	return pages
}

func (r *Resolver) follow(ctx context.Context, startURL string, opts Options) []string {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	origin := headers.Origin(startURL)

	pages := []string{}
	seen := make(map[string]bool)
	current := startURL

	for len(pages) < maxPages {
		pages = append(pages, current)
		seen[current] = true

		if len(pages) == maxPages {
			break
		}

		page, err := r.fetcher.Fetch(ctx, current, fetch.Options{
			Headers: opts.Headers,
			Timeout: opts.Timeout,
		})
		if err != nil {
			r.logger.WithError(err).WithField("url", current).Debug("Stopping pagination on fetch failure")
			break
		}

		next := r.nextURL(page.Body, current)
		if next == "" {
			break
		}
		if headers.Origin(next) != origin {
			r.logger.WithField("next", next).Debug("Stopping pagination at origin boundary")
			break
		}
		if seen[next] {
			r.logger.WithField("next", next).Debug("Stopping pagination on revisited page")
			break
		}

		if err := retry.Wait(ctx, opts.PageDelay); err != nil {
			break
		}
		current = next
	}

	return pages
}

// nextURL finds the next page link in body, resolved against current
func (r *Resolver) nextURL(body []byte, current string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return FindNext(doc, current)
}

// FindNext returns the absolute URL of the next page link in doc, or "".
// Links are tried in priority order: rel="next", a .next class, then anchor
// text such as "next" or "»". An unresolvable href ends the search.
func FindNext(doc *goquery.Document, current string) string {
	base, err := url.Parse(current)
	if err != nil {
		return ""
	}
	resolve := func(href string) string {
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}

	if href := doc.Find("a[rel='next']").First().AttrOr("href", ""); href != "" {
		return resolve(href)
	}
	if href := doc.Find("a.next, .pagination a.next").First().AttrOr("href", ""); href != "" {
		return resolve(href)
	}

	var candidate string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		if !nextText.MatchString(text) {
			return true
		}
		if href := a.AttrOr("href", ""); href != "" {
			candidate = resolve(href)
			return false
		}
		return true
	})
	return candidate
}
