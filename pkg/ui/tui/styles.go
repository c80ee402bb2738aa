package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#1DA1F2")
	green  = lipgloss.Color("#39FF14")
	yellow = lipgloss.Color("#FFFF00")
	red    = lipgloss.Color("#FF3B30")
	dim    = lipgloss.Color("#8899A6")

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(dim).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(yellow)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(dim).
			Italic(true)
)
