// Package render formats pipeline reports as styled terminal output.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(fg)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle     = lipgloss.NewStyle().Foreground(dim)
	faintStyle   = lipgloss.NewStyle().Foreground(faint)
	passStyle    = lipgloss.NewStyle().Foreground(success)
	failStyle    = lipgloss.NewStyle().Foreground(danger)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	passTagStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	failTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// pctStyle colors a percentage by how healthy it is.
func pctStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return passStyle
	case pct >= 50:
		return warnStyle
	default:
		return failStyle
	}
}
