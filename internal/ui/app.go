package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swapp/internal/prefs"
)

// View represents the current main view.
type View int

const (
	ViewBrowse View = iota
	ViewInventory
	ViewProfile
	ViewOwner
	ViewActivity
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewBrowse:
		return "Browse"
	case ViewInventory:
		return "Inventory"
	case ViewProfile:
		return "Profile"
	case ViewOwner:
		return "Owner"
	case ViewActivity:
		return "Activity"
	}
	return "?"
}

// Options configures the UI.
type Options struct {
	Env       *Env
	Prefs     prefs.Prefs
	PrefsPath string
	APIURL    string
	Tick      time.Duration
}

// Model is the root application state for Bubble Tea. Main views stay
// mounted for the whole run; modals are mounted when opened and unmounted
// when closed.
type Model struct {
	env       *Env
	prefs     prefs.Prefs
	prefsPath string
	apiURL    string
	tick      time.Duration

	theme   Theme
	keys    keyMap
	width   int
	height  int
	ready   bool
	current View

	views    [viewCount]component
	profile  *profilePanel
	modals   []component
	toasts   []toast
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	keys := DefaultKeyMap()

	m := Model{
		env:       opts.Env,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		apiURL:    opts.APIURL,
		tick:      tick,
		theme:     GetTheme(opts.Prefs.Theme),
		keys:      keys,
		current:   ViewBrowse,
	}
	m.profile = newProfilePanel(keys, opts.Prefs.Username)
	m.views = [viewCount]component{
		ViewBrowse:    newBrowseList(keys),
		ViewInventory: newInventoryGrid(keys),
		ViewProfile:   m.profile,
		ViewOwner:     newOwnerPanel(keys),
		ViewActivity:  newActivityView(keys),
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	for _, v := range m.views {
		cmds = append(cmds, v.Mount(m.env))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		m.expireToasts(time.Time(msg))
		cmds := []tea.Cmd{tickCmd(m.tick)}
		cmds = append(cmds, m.broadcast(msg)...)
		return m, tea.Batch(cmds...)

	case toastMsg:
		m.pushToast(msg, time.Now())
		return m, nil

	case openDetailMsg:
		if top := m.topModal(); top != nil {
			if _, ok := top.(*itemModal); ok {
				m.popModal()
			}
		}
		return m, m.pushModal(newItemModal(m.keys, msg.itemID))

	case composeOfferMsg:
		// The composer must be subscribed before the draft is published.
		cmd := m.pushModal(newOfferComposer(m.keys))
		m.env.Offers.OpenOfferComposer(msg.draft)
		return m, cmd

	case closeModalMsg:
		m.popModal()
		return m, nil

	case showOwnerMsg:
		for len(m.modals) > 0 {
			m.popModal()
		}
		m.current = ViewOwner
		return m, nil

	case rememberUserMsg:
		m.prefs.Username = msg.username
		m.profile.lastUsername = msg.username
		m.savePrefs()
		return m, nil
	}

	return m, tea.Batch(m.broadcast(msg)...)
}

// broadcast hands a non-key message to every mounted component. Each one
// drops results that belong to another mount.
func (m Model) broadcast(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	for _, v := range m.views {
		if cmd := v.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	for _, c := range m.modals {
		if cmd := c.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (m Model) topModal() component {
	if len(m.modals) == 0 {
		return nil
	}
	return m.modals[len(m.modals)-1]
}

func (m *Model) pushModal(c component) tea.Cmd {
	m.modals = append(m.modals, c)
	return c.Mount(m.env)
}

func (m *Model) popModal() {
	if len(m.modals) == 0 {
		return
	}
	top := m.modals[len(m.modals)-1]
	m.modals = m.modals[:len(m.modals)-1]
	top.Unmount()
}

func (m *Model) pushToast(t toastMsg, now time.Time) {
	m.toasts = append(m.toasts, toast{toastMsg: t, expires: now.Add(ToastDuration)})
	if len(m.toasts) > MaxToasts {
		m.toasts = m.toasts[len(m.toasts)-MaxToasts:]
	}
}

func (m *Model) expireToasts(now time.Time) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if now.Before(t.expires) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	m.prefs.Theme = m.theme.Name
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil && m.env != nil && m.env.Logger != nil {
		m.env.Logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

// handleKey routes a key: help overlay, then the top modal, then a view
// holding an input, then global bindings, then the current view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if top := m.topModal(); top != nil {
		return m, top.Update(msg)
	}

	view := m.views[m.current]
	if c, ok := view.(capturer); ok && c.Capturing() {
		return m, view.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.current = (m.current + 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.current = (m.current + viewCount - 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.ViewBrowse):
		m.current = ViewBrowse
		return m, nil
	case key.Matches(msg, m.keys.ViewInventory):
		m.current = ViewInventory
		return m, nil
	case key.Matches(msg, m.keys.ViewProfile):
		m.current = ViewProfile
		return m, nil
	case key.Matches(msg, m.keys.ViewOwner):
		m.current = ViewOwner
		return m, nil
	case key.Matches(msg, m.keys.ViewActivity):
		m.current = ViewActivity
		return m, nil
	}

	return m, view.Update(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	toasts := m.renderToasts()
	if top := m.topModal(); top != nil {
		w := m.modalWidth()
		body := m.overlay(top.View(m.theme, w, m.height-len(m.toasts)-6), w+4)
		return joinLines(body, toasts)
	}

	header := m.renderHeader()
	cmdbar := m.renderCommandBar()
	contentHeight := max(m.height-2-len(m.toasts), 3)
	content := m.views[m.current].View(m.theme, m.width, contentHeight)
	return joinLines(header, cmdbar, content, toasts)
}

func joinLines(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		text := truncate(t.text, max(m.width-3, 8))
		var line string
		switch t.kind {
		case toastSuccess:
			line = styles.SuccessText.Render("✓ " + text)
		case toastError:
			line = styles.DangerText.Render("✗ " + text)
		default:
			line = styles.InfoText.Render("• " + text)
		}
		lines = append(lines, lipgloss.PlaceHorizontal(m.width, lipgloss.Right, line))
	}
	return strings.Join(lines, "\n")
}

// shutdown unmounts every component.
func (m Model) shutdown() {
	for len(m.modals) > 0 {
		m.popModal()
	}
	for _, v := range m.views {
		v.Unmount()
	}
}

// Messages

type tickMsg time.Time

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	opts.Env.Send = p.Send
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	} else {
		m.shutdown()
	}
	return err
}
