// Package extractor discovers image URLs in HTML.
//
// Extract applies the static rules to a parsed document. Every <img>
// contributes one URL: the best srcset candidate, else the first lazy-load
// attribute, else src. <picture> sources, <noscript> fallbacks, inline
// background images and lazy-loading containers add further URLs.
// Only absolute http(s) URLs are kept, so data: URIs never enter a URLSet.
package extractor

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	errs "imgcrawler/pkg/errors"
)

// lazyAttrs are read in order before falling back to src
var lazyAttrs = []string{"data-src", "data-original", "data-lazy", "data-url", "data-actualsrc"}

// containerAttrs mark lazy-loading elements that are not <img>
var containerAttrs = []string{"data-src", "data-original"}

var backgroundImage = regexp.MustCompile(`(?i)background-image\s*:\s*url\(\s*(['"]?)([^)'"]+)['"]?\s*\)`)

// ExtractHTML parses markup and adds its images to set
func ExtractHTML(markup, pageURL string, set *URLSet) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse page")
	}
	return Extract(doc, pageURL, set), nil
}

// Extract adds the images referenced by doc to set and returns how many were new.
// Relative URLs resolve against pageURL; candidates that do not resolve are skipped.
func Extract(doc *goquery.Document, pageURL string, set *URLSet) int {
	base, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	e := &pageExtractor{base: base, set: set}

	e.scan(doc.Selection)

	doc.Find("noscript").Each(func(_ int, ns *goquery.Selection) {
		markup := noscriptMarkup(ns)
		if strings.TrimSpace(markup) == "" {
			return
		}
		inner, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
		if err != nil {
			return
		}
		e.images(inner.Selection)
	})

	return e.added
}

type pageExtractor struct {
	base  *url.URL
	set   *URLSet
	added int
}

func (e *pageExtractor) add(u string) {
	if e.set.Add(u) {
		e.added++
	}
}

// resolve turns a candidate into an absolute http(s) URL
func (e *pageExtractor) resolve(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := e.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if abs.Host == "" {
		return "", false
	}
	return abs.String(), true
}

func (e *pageExtractor) scan(root *goquery.Selection) {
	e.images(root)

	root.Find("picture").Each(func(_ int, pic *goquery.Selection) {
		best := ""
		pic.Find("source").Each(func(_ int, src *goquery.Selection) {
			if u := pickFromSrcset(src.AttrOr("srcset", ""), e.resolve); u != "" {
				best = u
			}
		})
		if best != "" {
			e.add(best)
		}
		if src, ok := pic.Find("img").Attr("src"); ok {
			if abs, ok := e.resolve(src); ok {
				e.add(abs)
			}
		}
	})

	root.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		m := backgroundImage.FindStringSubmatch(s.AttrOr("style", ""))
		if m == nil {
			return
		}
		if abs, ok := e.resolve(m[2]); ok {
			e.add(abs)
		}
	})

	root.Find("[data-src], [data-original]").Not("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range containerAttrs {
			if abs, ok := e.resolve(s.AttrOr(attr, "")); ok {
				e.add(abs)
				return
			}
		}
	})
}

// images applies the per-<img> rule under root
func (e *pageExtractor) images(root *goquery.Selection) {
	root.Find("img").Each(func(_ int, img *goquery.Selection) {
		if u := imageURL(img, e.resolve); u != "" {
			e.add(u)
		}
	})
}

// imageURL picks the one URL an <img> contributes
func imageURL(img *goquery.Selection, resolve func(string) (string, bool)) string {
	srcset := img.AttrOr("srcset", "")
	if srcset == "" {
		srcset = img.AttrOr("data-srcset", "")
	}
	if srcset != "" {
		if u := pickFromSrcset(srcset, resolve); u != "" {
			return u
		}
	}

	for _, attr := range lazyAttrs {
		if abs, ok := resolve(img.AttrOr(attr, "")); ok {
			return abs
		}
	}

	abs, _ := resolve(img.AttrOr("src", ""))
	return abs
}

// noscriptMarkup recovers the markup inside a <noscript>. With scripting
// enabled the parser keeps it as raw text; otherwise it holds real nodes.
func noscriptMarkup(ns *goquery.Selection) string {
	var buf bytes.Buffer
	for _, node := range ns.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				buf.WriteString(c.Data)
				continue
			}
			if err := html.Render(&buf, c); err != nil {
				return buf.String()
			}
		}
	}
	return buf.String()
}
