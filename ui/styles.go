package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan = lipgloss.Color("#8BE9FD")
	colorGray = lipgloss.Color("#6272A4")
	colorRed  = lipgloss.Color("#FF5555")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	pathStyle   = lipgloss.NewStyle().Foreground(colorGray)
	labelStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray)
	footerStyle = lipgloss.NewStyle().Foreground(colorGray)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)
