package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	events "imgcrawler/pkg/progress"
)

// TUI runs the dashboard for one crawl
type TUI struct {
	program *tea.Program
	sink    *events.ChannelSink
}

// New creates a dashboard for startURL. Events emitted to Sink() are
// rendered until the sink is closed; quitting early calls cancel.
func New(startURL string, cancel context.CancelFunc, opts ...tea.ProgramOption) *TUI {
	sink := events.NewChannelSink(256)
	model := NewModel(startURL, sink.Events(), cancel)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	return &TUI{
		program: tea.NewProgram(model, opts...),
		sink:    sink,
	}
}

// Sink is where the crawl should send its events
func (t *TUI) Sink() events.Sink {
	return t.sink
}

// Close ends the event stream; the dashboard quits once it drains
func (t *TUI) Close() {
	t.sink.Close()
}

// Run blocks until the dashboard exits and returns its final model
func (t *TUI) Run() (Model, error) {
	final, err := t.program.Run()
	if err != nil {
		return Model{}, err
	}
	m, _ := final.(Model)
	return m, nil
}

// Plain returns options for running without a terminal: no input and
// no rendering, with any program output going to out
func Plain(out io.Writer) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	}
}
