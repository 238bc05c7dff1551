package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle paints every cell of a line with one background. lipgloss resets
// the background between separately rendered segments, which leaves holes
// at spaces and joins; BgStyle renders those gaps itself.
type BgStyle struct {
	fill  lipgloss.Style
	space string
}

// NewBgStyle returns a helper for the given background color.
func NewBgStyle(color string) BgStyle {
	fill := lipgloss.NewStyle().Background(lipgloss.Color(color))
	return BgStyle{fill: fill, space: fill.Render(" ")}
}

// Render applies style word by word so inner spaces keep the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	styled := style.Background(b.fill.GetBackground())
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = styled.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b BgStyle) Space() string { return b.space }

func (b BgStyle) Spaces(n int) string { return b.fill.Render(strings.Repeat(" ", n)) }

func (b BgStyle) Sep(sep string) string { return b.fill.Render(sep) }

// Join joins already rendered parts with a painted separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads rendered content out to width.
func (b BgStyle) FillLine(content string, width int) string {
	return b.fill.Width(width).Render(content)
}
