// Package progress defines the events a crawl job reports and the sinks that
// receive them.
package progress

import "encoding/json"

// Type names an event variant
type Type string

const (
	TypePlan           Type = "plan"
	TypePage           Type = "page"
	TypeFallback       Type = "fallback"
	TypePageDone       Type = "page_done"
	TypeScroll         Type = "scroll"
	TypeDiscover       Type = "discover"
	TypeSaved          Type = "saved"
	TypeDownloadFailed Type = "download_failed"
	TypeComplete       Type = "complete"
	TypeResult         Type = "result"
	TypeError          Type = "error"
)

// Event is one progress report. Only the fields of its Type are set; the
// JSON form is {"type": ..., <fields>}.
type Event struct {
	Type Type `json:"type"`

	Pages  int    `json:"pages,omitempty"`
	Index  int    `json:"index,omitempty"`
	Total  int    `json:"total,omitempty"`
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason,omitempty"`
	Step   int    `json:"step,omitempty"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`

	// Added, Count and Saved are meaningful at zero, so they are pointers
	Added *int `json:"added,omitempty"`
	Count *int `json:"count,omitempty"`
	Saved *int `json:"saved,omitempty"`

	OutDir string          `json:"outDir,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

func intPtr(n int) *int { return &n }

// Plan reports the number of pages to visit
func Plan(pages int) Event {
	return Event{Type: TypePlan, Pages: pages}
}

// Page reports that page index of total is being visited
func Page(index, total int, url string) Event {
	return Event{Type: TypePage, Index: index, Total: total, URL: url}
}

// Fallback reports that a page is being rendered headlessly
func Fallback(reason, url string) Event {
	return Event{Type: TypeFallback, Reason: reason, URL: url}
}

// PageDone reports how many new URLs a page contributed
func PageDone(index, total, added int) Event {
	return Event{Type: TypePageDone, Index: index, Total: total, Added: intPtr(added)}
}

// Scroll reports headless scroll progress
func Scroll(step, total int) Event {
	return Event{Type: TypeScroll, Step: step, Total: total}
}

// Discover reports the final number of distinct image URLs
func Discover(count int) Event {
	return Event{Type: TypeDiscover, Count: intPtr(count)}
}

// Saved reports one stored image
func Saved(url, file string) Event {
	return Event{Type: TypeSaved, URL: url, File: file}
}

// DownloadFailed reports one image that could not be stored
func DownloadFailed(url string, err error) Event {
	return Event{Type: TypeDownloadFailed, URL: url, Error: err.Error()}
}

// Complete reports the number of saved files and the output directory
func Complete(saved int, outDir string) Event {
	return Event{Type: TypeComplete, Saved: intPtr(saved), OutDir: outDir}
}

// Result wraps a job's final summary
func Result(v interface{}) (Event, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: TypeResult, Result: raw}, nil
}

// Failure reports a fatal job error
func Failure(err error) Event {
	return Event{Type: TypeError, Error: err.Error()}
}

// IntValue dereferences an optional count, treating nil as zero
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
