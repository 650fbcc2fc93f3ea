// Package ui provides terminal styling for todosync CLI output.
// Adaptive light/dark colors so output reads well on either background.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorDone = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	DoneStyle   = lipgloss.NewStyle().Foreground(ColorDone)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// SectionStyle renders status-section headers in task listings.
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	// LabelStyle renders task labels inline.
	LabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)
)

const (
	IconDone    = "✓"
	IconPending = "○"
	IconWarn    = "⚠"
)

// Checkbox returns the completion marker for a task line.
func Checkbox(completed bool) string {
	if completed {
		return DoneStyle.Render(IconDone)
	}
	return MutedStyle.Render(IconPending)
}
