package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	events "imgcrawler/pkg/progress"
)

const (
	levelInfo    = "INFO"
	levelSuccess = "SUCCESS"
	levelWarn    = "WARN"
	levelError   = "ERROR"
)

// Phase is the part of the crawl the dashboard is showing
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseScanning
	PhaseDownloading
	PhaseDone
)

// String returns the label shown in the header
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseScanning:
		return "scanning"
	case PhaseDownloading:
		return "downloading"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// LogMessage is one line of the activity panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model is the dashboard state, driven entirely by crawl events
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	startURL string
	phase    Phase

	pages     int
	page      int
	pageURL   string
	found     int
	total     int
	saved     int
	failed    int
	fallbacks int
	scrollAt  int
	scrollOf  int
	outDir    string
	err       error

	startTime time.Time
	endTime   time.Time

	logMessages    []LogMessage
	maxLogMessages int

	width    int
	height   int
	showHelp bool

	events <-chan events.Event
	cancel func()
}

// NewModel creates a model reading from ch. cancel is invoked when the
// user quits before the crawl finishes; it may be nil.
func NewModel(startURL string, ch <-chan events.Event, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return Model{
		spinner:        s,
		bar:            bar,
		startURL:       startURL,
		startTime:      time.Now(),
		maxLogMessages: 50,
		events:         ch,
		cancel:         cancel,
	}
}

// Init starts the spinner and the event pump
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Apply folds one crawl event into the model
func (m *Model) Apply(e events.Event) {
	switch e.Type {
	case events.TypePlan:
		m.phase = PhaseScanning
		m.pages = e.Pages
		m.addLog(levelInfo, fmt.Sprintf("Planned %d page(s)", e.Pages))
	case events.TypePage:
		m.page = e.Index
		m.pageURL = e.URL
		m.scrollAt, m.scrollOf = 0, 0
	case events.TypeFallback:
		m.fallbacks++
		m.addLog(levelWarn, fmt.Sprintf("Rendering %s (%s)", e.URL, e.Reason))
	case events.TypeScroll:
		m.scrollAt, m.scrollOf = e.Step, e.Total
	case events.TypePageDone:
		added := events.IntValue(e.Added)
		m.found += added
		m.addLog(levelInfo, fmt.Sprintf("Page %d/%d: +%d image(s)", e.Index, e.Total, added))
	case events.TypeDiscover:
		m.phase = PhaseDownloading
		m.total = events.IntValue(e.Count)
		m.found = m.total
		m.addLog(levelInfo, fmt.Sprintf("Found %d image(s)", m.total))
	case events.TypeSaved:
		m.saved++
		m.addLog(levelSuccess, "Saved "+e.File)
	case events.TypeDownloadFailed:
		m.failed++
		m.addLog(levelError, "Failed "+e.URL+": "+e.Error)
	case events.TypeComplete:
		m.outDir = e.OutDir
		m.addLog(levelSuccess, fmt.Sprintf("Saved %d image(s) to %s", events.IntValue(e.Saved), e.OutDir))
	case events.TypeError:
		m.err = errors.New(e.Error)
		m.addLog(levelError, e.Error)
	}
}

// Ratio is the completed share of the download phase
func (m *Model) Ratio() float64 {
	if m.total == 0 {
		return 0
	}
	r := float64(m.saved+m.failed) / float64(m.total)
	if r > 1 {
		r = 1
	}
	return r
}

// Done reports whether the event stream has ended
func (m *Model) Done() bool {
	return m.phase == PhaseDone
}

// Err returns the fatal error reported by the crawl, if any
func (m *Model) Err() error {
	return m.err
}

func (m *Model) addLog(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

func (m *Model) finish() {
	m.phase = PhaseDone
	m.endTime = time.Now()
}

func (m *Model) elapsed() time.Duration {
	if !m.endTime.IsZero() {
		return m.endTime.Sub(m.startTime)
	}
	return time.Since(m.startTime)
}
