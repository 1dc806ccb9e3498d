package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns a styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	rows := []string{HeaderStyle.Render(truncateEnd(title, width-2))}
	if subtitle != "" {
		rows = append(rows, renderMuted(truncateEnd(subtitle, width-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded border around an input view. The border
// is highlighted while the input has focus.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return MutedStyle.Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

func renderStatus(text string, kind StatusKind) string {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle.Render("✓ " + text)
	case StatusWarn:
		return StatusWarnStyle.Render(text)
	case StatusError:
		return StatusErrorStyle.Render("✗ " + text)
	default:
		return StatusInfoStyle.Render(text)
	}
}
