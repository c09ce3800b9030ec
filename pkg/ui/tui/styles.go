package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors keep the dashboard readable on light terminals too
var (
	accent  = lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FD7FF"}
	frame   = lipgloss.AdaptiveColor{Light: "#875FAF", Dark: "#AF87FF"}
	good    = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#87FF5F"}
	caution = lipgloss.AdaptiveColor{Light: "#AF5F00", Dark: "#FFAF5F"}
	bad     = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	value   = lipgloss.AdaptiveColor{Light: "#5F5F00", Dark: "#FFFF87"}
	muted   = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#A8A8A8"}
	faint   = lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#626262"}

	bold = lipgloss.NewStyle().Bold(true)

	headerStyle       = bold.Foreground(accent).PaddingTop(1)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(frame).Padding(0, 2)
	titleStyle        = bold.Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1C1C"}).Background(frame).Padding(0, 1)
	statsLabelStyle   = bold.Foreground(accent)
	statsValueStyle   = lipgloss.NewStyle().Foreground(value)
	successStyle      = bold.Foreground(good)
	errorStyle        = bold.Foreground(bad)
	warningStyle      = bold.Foreground(caution)
	logTimestampStyle = lipgloss.NewStyle().Foreground(faint)
	logMessageStyle   = lipgloss.NewStyle().Foreground(muted)
	helpStyle         = lipgloss.NewStyle().Foreground(faint).Padding(1, 0, 0, 2)
)

func levelColor(level string) lipgloss.TerminalColor {
	switch level {
	case levelError:
		return bad
	case levelWarn:
		return caution
	case levelSuccess:
		return good
	case levelInfo:
		return accent
	}
	return muted
}
