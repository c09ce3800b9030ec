package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	events "imgcrawler/pkg/progress"
)

// EventMsg carries one crawl event into the program
type EventMsg events.Event

// StreamClosedMsg is sent once the event channel is closed
type StreamClosedMsg struct{}

// waitForEvent reads the next event from ch
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg(e)
	}
}

// Update folds crawl events and key presses into the model. Each EventMsg
// schedules the read of the next one.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		if m.Done() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.bar = b
		}
		return m, cmd

	case EventMsg:
		m.Apply(events.Event(msg))
		cmds := []tea.Cmd{waitForEvent(m.events)}
		if m.total > 0 {
			cmds = append(cmds, m.bar.SetPercent(m.Ratio()))
		}
		return m, tea.Batch(cmds...)

	case StreamClosedMsg:
		m.finish()
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if !m.Done() && m.cancel != nil {
			m.cancel()
			m.addLog(levelWarn, "Cancelled by user")
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// barWidth leaves room for the panel border and label, within 10..60
func barWidth(width int) int {
	return min(max(width-20, 10), 60)
}
