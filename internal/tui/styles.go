package tui

import (
	"github.com/charmbracelet/lipgloss"

	"mcmon/internal/logbuf"
)

// Styles
var (
	primaryColor   = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#3B82F6"}
	secondaryColor = lipgloss.Color("#FAFAFA")
	subtleColor    = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
	highlightColor = lipgloss.Color("#04B575")
	errorColor     = lipgloss.Color("#FF5555")
	warningColor   = lipgloss.Color("#FFAA00")
	textColor      = lipgloss.AdaptiveColor{Light: "#3A3A3A", Dark: "#A0A0A0"}

	appStyle = lipgloss.NewStyle().
			Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			Background(primaryColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtleColor).
			Padding(0, 1).
			MarginRight(1)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtleColor).
			Padding(0, 1)

	upStyle   = lipgloss.NewStyle().Foreground(highlightColor).Bold(true)
	downStyle = lipgloss.NewStyle().Foreground(subtleColor).Bold(true)

	enabledControlStyle  = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	disabledControlStyle = lipgloss.NewStyle().Foreground(subtleColor).Strikethrough(true)

	flashStyle = lipgloss.NewStyle().Foreground(highlightColor)

	levelStyles = map[logbuf.Level]lipgloss.Style{
		logbuf.LevelInfo:    lipgloss.NewStyle().Foreground(textColor),
		logbuf.LevelSuccess: lipgloss.NewStyle().Foreground(highlightColor),
		logbuf.LevelWarning: lipgloss.NewStyle().Foreground(warningColor),
		logbuf.LevelError:   lipgloss.NewStyle().Foreground(errorColor),
	}

	focusedStyle = lipgloss.NewStyle().Foreground(primaryColor)
	blurredStyle = lipgloss.NewStyle().Foreground(subtleColor)
	cursorStyle  = focusedStyle
)

// ApplyColorMode forces a light or dark palette. "auto" leaves detection to
// the terminal.
func ApplyColorMode(mode string) {
	switch mode {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}
