package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every screen.
var (
	colorAccent    = lipgloss.Color("229")
	colorHighlight = lipgloss.Color("57")
	colorMuted     = lipgloss.Color("241")
	colorBorder    = lipgloss.Color("240")
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)

	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	tabStyle       = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	activeTabStyle = tabStyle.Bold(true).Foreground(colorAccent).Background(colorHighlight)
	frameStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	emptyStyle     = mutedStyle.Italic(true).Padding(2, 4)
)

// tableStyles highlights the header rule and the selected row.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorAccent).
		Background(colorHighlight).
		Bold(false)
	return s
}
