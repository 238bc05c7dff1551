package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// overlay centres content in a bordered box over the whole screen.
func (m Model) overlay(content string, width int) string {
	if width <= 0 || width > ModalMaxWidth {
		width = ModalMaxWidth
	}
	if m.width > 0 && width > m.width-2 {
		width = m.width - 2
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(width).
		Render(content)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// modalWidth is the inner width components get when shown as an overlay.
func (m Model) modalWidth() int {
	w := m.width - 8
	if w > ModalMaxWidth-6 {
		w = ModalMaxWidth - 6
	}
	if w < 20 {
		w = 20
	}
	return w
}

// box draws a titled panel, the frame used by every main view.
func box(theme Theme, title, content string, width, height int, focused bool) string {
	styles := theme.Styles()
	border := theme.Border
	if focused {
		border = theme.BorderFocus
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Padding(0, 1)
	if width > 2 {
		style = style.Width(width - 2)
	}
	if height > 2 {
		style = style.Height(height - 2)
	}
	heading := styles.AccentText.Bold(true).Render(title)
	return style.Render(heading + "\n" + content)
}
