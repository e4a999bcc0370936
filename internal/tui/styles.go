package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"meetingassist/internal/meeting"
)

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	colorOK     = lipgloss.AdaptiveColor{Light: "#1E8E3E", Dark: "#5FD787"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#B06000", Dark: "#FFAF5F"}
	colorError  = lipgloss.AdaptiveColor{Light: "#C5221F", Dark: "#FF5F5F"}

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	infoStyle     = lipgloss.NewStyle().Foreground(colorOK)
	modalStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarn).
			Padding(1, 2)
	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(colorMuted)
)

// pill colors a status by how far along its stage is.
func pill(status string) string {
	style := lipgloss.NewStyle()
	switch strings.ToUpper(status) {
	case "APPROVED", "READY":
		style = style.Foreground(colorOK)
	case "GENERATED", "REVISED", "EDITED":
		style = style.Foreground(colorAccent)
	case "QUEUED", "RUNNING", "PROCESSING":
		style = style.Foreground(colorWarn)
	case "FAILED", "ERROR":
		style = style.Foreground(colorError)
	default:
		style = style.Foreground(colorMuted)
	}
	return style.Render(status)
}

func stagePills(m meeting.Meeting) string {
	return strings.Join([]string{
		"transcript " + pill(string(m.TranscriptStatus)),
		"tasks " + pill(string(m.TasksStatus)),
		"deliverables " + pill(string(m.DeliverablesStatus)),
	}, mutedStyle.Render(" · "))
}
