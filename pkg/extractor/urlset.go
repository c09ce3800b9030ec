package extractor

import (
	"net/url"
	"sync"
)

// URLSet is an insertion-ordered set of absolute http(s) image URLs.
// It is safe for concurrent use.
type URLSet struct {
	mu    sync.Mutex
	index map[string]struct{}
	order []string
}

// NewURLSet creates an empty set
func NewURLSet() *URLSet {
	return &URLSet{index: make(map[string]struct{})}
}

// Add inserts u and reports whether it was new. Anything other than an
// absolute http(s) URL, data: URIs included, is rejected.
func (s *URLSet) Add(u string) bool {
	if !IsAbsoluteHTTP(u) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[u]; ok {
		return false
	}
	s.index[u] = struct{}{}
	s.order = append(s.order, u)
	return true
}

// AddAll inserts every URL in urls and returns how many were new
func (s *URLSet) AddAll(urls []string) int {
	added := 0
	for _, u := range urls {
		if s.Add(u) {
			added++
		}
	}
	return added
}

// Contains reports whether u is in the set
func (s *URLSet) Contains(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[u]
	return ok
}

// Len returns the number of URLs
func (s *URLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Slice returns the URLs in insertion order
func (s *URLSet) Slice() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// IsAbsoluteHTTP reports whether raw is an http or https URL with a host
func IsAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
