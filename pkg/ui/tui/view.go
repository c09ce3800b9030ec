package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard
func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatsPanel())
	sections = append(sections, m.renderLogsPanel())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to quit"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderHeader() string {
	status := m.spinner.View() + " " + m.phase.String()
	switch {
	case m.err != nil:
		status = errorStyle.Render("✗ failed")
	case m.Done():
		status = successStyle.Render("✓ done")
	}
	return headerStyle.Render("imgcrawler") + "  " + status + "\n" +
		logMessageStyle.Render(m.startURL)
}

// renderStatsPanel renders the page and download counters
func (m Model) renderStatsPanel() string {
	title := titleStyle.Render(" CRAWL ")

	stats := []string{
		row("Elapsed:", formatDuration(m.elapsed())),
		row("Pages:", fmt.Sprintf("%d/%d", m.page, m.pages)),
		row("Found:", fmt.Sprintf("%d image(s)", m.found)),
	}
	if m.fallbacks > 0 {
		stats = append(stats, row("Rendered:", fmt.Sprintf("%d page(s)", m.fallbacks)))
	}
	if m.scrollOf > 0 && m.phase == PhaseScanning {
		stats = append(stats, row("Scrolling:", fmt.Sprintf("%d/%d", m.scrollAt, m.scrollOf)))
	}

	if m.total > 0 {
		stats = append(stats,
			"",
			row("Saved:", fmt.Sprintf("%d/%d", m.saved, m.total)),
			m.bar.ViewAs(m.Ratio()),
		)
		if m.failed > 0 {
			stats = append(stats, warningStyle.Render(fmt.Sprintf("%d download(s) failed", m.failed)))
		}
	}
	if m.outDir != "" {
		stats = append(stats, row("Output:", m.outDir))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, stats...)
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

// renderLogsPanel renders the most recent activity
func (m Model) renderLogsPanel() string {
	title := titleStyle.Render(" ACTIVITY ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	maxMsgLen := 80
	if m.width > 30 {
		maxMsgLen = m.width - 30
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(levelColor(log.Level)).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		msg := log.Message
		if len(msg) > maxMsgLen {
			msg = msg[:maxMsgLen-3] + "..."
		}
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(msg)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = logMessageStyle.Render("Waiting for events...")
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m Model) renderHelp() string {
	help := `
  q/Q      - Cancel the crawl and quit
  ctrl+l   - Clear activity
  ?        - Toggle this help
`
	return panelStyle.Render(help)
}

func row(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

// formatDuration formats a duration as mm:ss or hh:mm:ss
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
