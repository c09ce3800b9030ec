package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"imgcrawler/pkg/progress"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := NoColor
	NoColor = true
	t.Cleanup(func() { NoColor = prev })
}

func TestProgressDisplayScanningLine(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	d := NewProgressDisplay(&buf, false)

	d.Emit(progress.Plan(3))
	d.Emit(progress.Page(1, 3, "https://example.com/?page=1"))
	d.Emit(progress.PageDone(1, 3, 4))
	d.Emit(progress.Page(2, 3, "https://example.com/?page=2"))
	d.Emit(progress.Fallback("http_403", "https://example.com/?page=2"))

	assert.Equal(t, "scanning page 2/3 • 4 found • 1 rendered", d.Line())
	assert.Contains(t, buf.String(), "\r")
}

func TestProgressDisplayDownloadLine(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	d := NewProgressDisplay(&buf, false)

	d.Emit(progress.Plan(1))
	d.Emit(progress.Discover(4))
	d.Emit(progress.Saved("https://cdn.example.com/a.png", "a.png"))
	d.Emit(progress.DownloadFailed("https://cdn.example.com/b.png", errors.New("404")))

	line := d.Line()
	assert.True(t, strings.HasPrefix(line, "[━━━━━━━━━━──────────] 1/4"), line)
	assert.Contains(t, line, "1 errors")
}

func TestProgressDisplayVerbose(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	d := NewProgressDisplay(&buf, true)

	d.Emit(progress.Plan(2))
	d.Emit(progress.Page(1, 2, "https://example.com/"))
	d.Emit(progress.Scroll(1, 6))
	d.Emit(progress.Saved("https://cdn.example.com/a.png", "a.png"))
	d.Emit(progress.Complete(1, "storage/images"))

	out := buf.String()
	assert.Contains(t, out, "Planned 2 page(s)")
	assert.Contains(t, out, "Page 1/2 https://example.com/")
	assert.Contains(t, out, "scroll 1/6")
	assert.Contains(t, out, "✓ a.png")
	assert.Contains(t, out, "Saved 1 image(s) to storage/images")
	assert.NotContains(t, out, "\r")
}

func TestProgressDisplayIgnoresUnknown(t *testing.T) {
	var buf bytes.Buffer
	d := NewProgressDisplay(&buf, false)
	d.Emit(progress.Event{Type: progress.TypeResult})
	assert.Empty(t, buf.String())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestColorHelpers(t *testing.T) {
	prev := NoColor
	defer func() { NoColor = prev }()

	NoColor = false
	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))
	NoColor = true
	assert.Equal(t, "ok", Green("ok"))
}

func TestPrintHelpers(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	defer func() { Output = prev }()

	PrintInfo("Start URL", "https://example.com/")
	PrintWarning("Slow page", "timeout")
	PrintError("Crawl failed")

	assert.Equal(t, "Start URL: https://example.com/\nSlow page: timeout\nCrawl failed\n", buf.String())
}
