package ui

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: logo, session, API host and tabs.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("swapp", styles.Logo)}

	if m.env != nil && m.env.Session != nil {
		snap := m.env.store().Snapshot()
		switch {
		case snap.LoggedIn && snap.User != nil:
			parts = append(parts, bg.Render("● "+snap.User.Username, styles.SuccessText))
		case snap.LoggedIn:
			parts = append(parts, bg.Render("● logged in", styles.SuccessText))
		default:
			parts = append(parts, bg.Render("○ signed out", styles.MutedText))
		}
	}

	if host := apiHost(m.apiURL); host != "" && !compact {
		parts = append(parts, bg.Render(truncateMiddle(host, 32), styles.FaintText))
	}

	tabs := make([]string, 0, viewCount)
	for v := View(0); v < viewCount; v++ {
		label := v.String()
		if compact {
			label = label[:1]
		}
		if v == m.current {
			tabs = append(tabs, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(label, styles.MutedText))
		}
	}
	parts = append(parts, bg.Join(tabs, " "))

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

func apiHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// renderCommandBar shows the bindings that matter in the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.current {
	case ViewBrowse:
		commands = []cmd{
			{"enter", "Open"},
			{"/", "Search"},
			{"]", "Category"},
			{"R", "Refresh"},
		}
	case ViewInventory:
		commands = []cmd{
			{"enter", "Open"},
			{"x", "Archive"},
			{"r", "Restore"},
			{"+", "Add"},
			{"U", "Upload"},
		}
	case ViewProfile:
		commands = []cmd{
			{"l", "Log in"},
			{"n", "Register"},
			{"O", "Log out"},
		}
	case ViewOwner:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"R", "Refresh"},
		}
	case ViewActivity:
		follow := "Pause"
		if a, ok := m.views[ViewActivity].(*activityView); ok && !a.follow {
			follow = "Follow"
		}
		commands = []cmd{
			{"Space", follow},
			{"]", "Level"},
			{"g/G", "Top/Bottom"},
		}
	}
	commands = append(commands, cmd{"Tab", "View"}, cmd{"?", "More"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
