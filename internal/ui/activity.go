package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swapp/internal/logtail"
)

// Minimum levels the activity view cycles through.
var activityLevels = []string{"", "INFO", "WARN", "ERROR"}

type activityLoadedMsg struct {
	gen     uint64
	entries []logtail.Entry
	err     error
}

// activityView tails the client's own log file.
type activityView struct {
	lifecycle
	keys keyMap

	viewport viewport.Model
	entries  []logtail.Entry
	follow   bool
	level    int
	loading  bool
	readErr  error

	// dirty marks content that must be re-rendered into the viewport.
	dirty bool
	theme string
}

func newActivityView(keys keyMap) *activityView {
	vp := viewport.New(0, 0)
	return &activityView{keys: keys, viewport: vp, follow: true}
}

func (a *activityView) Mount(env *Env) tea.Cmd {
	a.mount(env)
	a.loading = false
	return a.load()
}

func (a *activityView) Unmount() { a.unmount() }

func (a *activityView) load() tea.Cmd {
	if a.loading || a.env.LogFile == "" {
		return nil
	}
	a.loading = true
	gen, path := a.gen, a.env.LogFile
	return a.call(func(context.Context) tea.Msg {
		entries, err := logtail.ReadEntries(path, ActivityLines)
		return activityLoadedMsg{gen: gen, entries: entries, err: err}
	})
}

func (a *activityView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tickMsg:
		return a.load()
	case activityLoadedMsg:
		if !a.current(msg.gen) {
			return nil
		}
		a.loading = false
		a.readErr = msg.err
		if msg.err == nil && !sameTail(a.entries, msg.entries) {
			a.entries = msg.entries
			a.dirty = true
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.ToggleFollow):
			a.follow = !a.follow
			if a.follow {
				a.viewport.GotoBottom()
			}
		case key.Matches(msg, a.keys.NextPane):
			a.level = (a.level + 1) % len(activityLevels)
			a.dirty = true
		case key.Matches(msg, a.keys.Top):
			a.follow = false
			a.viewport.GotoTop()
		case key.Matches(msg, a.keys.Bottom):
			a.viewport.GotoBottom()
		case key.Matches(msg, a.keys.Refresh):
			return a.load()
		default:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			if !a.viewport.AtBottom() {
				a.follow = false
			}
			return cmd
		}
	}
	return nil
}

// sameTail avoids re-rendering when the file has not grown.
func sameTail(old, cur []logtail.Entry) bool {
	if len(old) != len(cur) {
		return false
	}
	return len(cur) == 0 || old[len(old)-1].Raw == cur[len(cur)-1].Raw
}

func (a *activityView) visible() []logtail.Entry {
	floor := activityLevels[a.level]
	if floor == "" {
		return a.entries
	}
	out := make([]logtail.Entry, 0, len(a.entries))
	for _, e := range a.entries {
		if levelRank(e.Level) >= levelRank(floor) {
			out = append(out, e)
		}
	}
	return out
}

func levelRank(level string) int {
	switch level {
	case "DEBUG":
		return 0
	case "INFO":
		return 1
	case "WARN":
		return 2
	case "ERROR":
		return 3
	}
	return 1
}

func (a *activityView) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	w, h := max(width-4, 10), max(height-3, 1)
	if a.viewport.Width != w || a.viewport.Height != h || a.theme != theme.Name {
		a.viewport.Width, a.viewport.Height = w, h
		a.theme = theme.Name
		a.dirty = true
	}
	if a.dirty {
		a.viewport.SetContent(a.renderContent(theme, styles, w))
		a.dirty = false
	}
	if a.follow {
		a.viewport.GotoBottom()
	}

	title := "Activity"
	if floor := activityLevels[a.level]; floor != "" {
		title += " · " + floor + "+"
	}
	title += " · " + ternary(a.follow, "following", "paused")
	return box(theme, title, a.viewport.View(), width, height, true)
}

func (a *activityView) renderContent(theme Theme, styles Styles, width int) string {
	bg := NewBgStyle(theme.Surface)
	if a.env == nil || a.env.LogFile == "" {
		return styles.MutedText.Render("Logging to a file is disabled.")
	}
	if a.readErr != nil {
		return styles.DangerText.Render("Cannot read " + a.env.LogFile + ": " + a.readErr.Error())
	}
	entries := a.visible()
	if len(entries) == 0 {
		return styles.MutedText.Render("No activity yet.")
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, bg.FillLine(a.renderEntry(e, styles, bg, width), width))
	}
	return strings.Join(lines, "\n")
}

func (a *activityView) renderEntry(e logtail.Entry, styles Styles, bg BgStyle, width int) string {
	if e.Level == "" {
		return bg.Render(truncate(e.Raw, width), styles.Text)
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(fmt.Sprintf("%-5s", e.Level), levelStyle(e.Level, styles).Bold(true)))
	b.WriteString(bg.Space())
	b.WriteString(bg.Render(e.Message, styles.Text))
	for _, attr := range e.Attrs {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(attr.Key+"=", styles.FaintText))
		b.WriteString(bg.Render(attr.Value, styles.AccentText))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}
