package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"imgcrawler/pkg/progress"
)

// ProgressDisplay renders crawl events as a single updating status line.
// In verbose mode every event gets its own line instead.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	verbose   bool
	startTime time.Time

	pages     int
	page      int
	found     int
	total     int
	saved     int
	errors    int
	fallbacks int
	current   string
}

// NewProgressDisplay creates a display writing to out
func NewProgressDisplay(out io.Writer, verbose bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		verbose:   verbose,
		startTime: time.Now(),
	}
}

// Emit implements progress.Sink
func (p *ProgressDisplay) Emit(e progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case progress.TypePlan:
		p.pages = e.Pages
		if p.verbose {
			fmt.Fprintf(p.out, "%s Planned %d page(s)\n", Magenta("→"), e.Pages)
		}
	case progress.TypePage:
		p.page = e.Index
		p.current = e.URL
		if p.verbose {
			fmt.Fprintf(p.out, "%s Page %d/%d %s\n", Magenta("→"), e.Index, e.Total, Dim(e.URL))
		}
	case progress.TypeFallback:
		p.fallbacks++
		if p.verbose {
			fmt.Fprintf(p.out, "%s Rendering %s (%s)\n", Yellow("⚠"), e.URL, e.Reason)
		}
	case progress.TypePageDone:
		p.found += progress.IntValue(e.Added)
	case progress.TypeScroll:
		if p.verbose {
			fmt.Fprintf(p.out, "  %s scroll %d/%d\n", Dim("•"), e.Step, e.Total)
		}
	case progress.TypeDiscover:
		p.total = progress.IntValue(e.Count)
		p.found = p.total
		if p.verbose {
			fmt.Fprintf(p.out, "%s Found %d image(s)\n", Cyan("•"), p.total)
		}
	case progress.TypeSaved:
		p.saved++
		p.current = e.File
		if p.verbose {
			fmt.Fprintf(p.out, "%s %s\n", Green("✓"), e.File)
		}
	case progress.TypeDownloadFailed:
		p.errors++
		if p.verbose {
			fmt.Fprintf(p.out, "%s %s - %s\n", Red("✗"), e.URL, e.Error)
		}
	case progress.TypeComplete:
		p.complete(progress.IntValue(e.Saved), e.OutDir)
		return
	default:
		return
	}

	if !p.verbose {
		p.printLine()
	}
}

// Line returns the status line without ANSI clearing
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) line() string {
	if p.total == 0 {
		line := fmt.Sprintf("scanning page %d/%d • %d found", p.page, p.pages, p.found)
		if p.fallbacks > 0 {
			line += fmt.Sprintf(" • %d rendered", p.fallbacks)
		}
		return line
	}

	done := p.saved + p.errors
	ratio := float64(done) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	barWidth := 20
	filled := int(ratio * float64(barWidth))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("[%s] %d/%d • %.1f/min • %s", bar, p.saved, p.total, p.rate(), p.eta(done))
	if p.errors > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", p.errors))
	}
	return line
}

func (p *ProgressDisplay) printLine() {
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), p.line())
}

func (p *ProgressDisplay) complete(saved int, outDir string) {
	elapsed := time.Since(p.startTime)
	if !p.verbose {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "%s Saved %d image(s) to %s\n", Green("✓"), saved, outDir)
	fmt.Fprintf(p.out, "  %s %d page(s) in %s\n", Dim("•"), p.pages, FormatDuration(elapsed))
	if p.errors > 0 {
		fmt.Fprintf(p.out, "  %s %d download(s) failed\n", Dim("•"), p.errors)
	}
}

func (p *ProgressDisplay) rate() float64 {
	minutes := time.Since(p.startTime).Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(p.saved) / minutes
}

// eta estimates the time left from the average pace so far
func (p *ProgressDisplay) eta(done int) string {
	if done == 0 {
		return "calculating..."
	}
	remaining := p.total - done
	if remaining <= 0 {
		return "0s"
	}
	per := time.Since(p.startTime) / time.Duration(done)
	return FormatDuration(per * time.Duration(remaining))
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
