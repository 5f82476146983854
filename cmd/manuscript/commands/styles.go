package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	bannerStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorMuted).
			Padding(0, 2)
)

// bannerRow is one "label: value" line of a banner.
type bannerRow struct {
	label string
	value string
}

// banner renders a boxed summary with a title and aligned rows.
func banner(title string, rows []bannerRow) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.label))
	}
	lines := []string{titleStyle.Render(title)}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-*s", width+1, r.label+":")), r.value))
	}
	return bannerStyle.Render(strings.Join(lines, "\n"))
}
