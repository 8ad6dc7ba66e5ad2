package comment

import "github.com/charmbracelet/lipgloss"

var (
	cpPeach    = lipgloss.Color("#fab387")
	cpBlue     = lipgloss.Color("#89b4fa")
	cpSubtext0 = lipgloss.Color("#a6adc8")
	cpOverlay1 = lipgloss.Color("#7f849c")

	italicStyle = lipgloss.NewStyle().Italic(true)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	codeStyle   = lipgloss.NewStyle().Foreground(cpPeach)
	linkStyle   = lipgloss.NewStyle().Foreground(cpBlue).Faint(true)
	quoteStyle  = lipgloss.NewStyle().Italic(true).Foreground(cpSubtext0)
	quotePrefix = lipgloss.NewStyle().Foreground(cpOverlay1).Render("│ ")
)
