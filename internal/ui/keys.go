package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// View switching
	ViewBrowse    key.Binding
	ViewInventory key.Binding
	ViewProfile   key.Binding
	ViewOwner     key.Binding
	ViewActivity  key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Confirm  key.Binding

	// Items
	Archive  key.Binding
	Restore  key.Binding
	AddItem  key.Binding
	Upload   key.Binding
	Like     key.Binding
	Comment  key.Binding
	Swap     key.Binding
	Owner    key.Binding
	Search   key.Binding
	Refresh  key.Binding
	NextPane key.Binding

	// Session
	Login    key.Binding
	Register key.Binding
	Logout   key.Binding

	// Activity
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view / field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view / field"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close / leave input"),
		),

		ViewBrowse: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Browse"),
		),
		ViewInventory: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Inventory"),
		),
		ViewProfile: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Profile"),
		),
		ViewOwner: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Owner"),
		),
		ViewActivity: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Activity"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdown", "Page down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open / submit"),
		),

		Archive: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Archive item"),
		),
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Restore item"),
		),
		AddItem: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "Add item by id"),
		),
		Upload: key.NewBinding(
			key.WithKeys("U"),
			key.WithHelp("U", "Upload picture"),
		),
		Like: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Like"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Comment"),
		),
		Swap: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Propose swap"),
		),
		Owner: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Owner profile"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Switch list"),
		),

		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Log in"),
		),
		Register: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New account"),
		),
		Logout: key.NewBinding(
			key.WithKeys("O"),
			key.WithHelp("O", "Log out"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewBrowse, k.ViewInventory, k.ViewProfile, k.ViewOwner, k.ViewActivity},
		{k.Up, k.Down, k.Top, k.Bottom, k.Confirm},
		{k.Archive, k.Restore, k.AddItem, k.Upload},
		{k.Like, k.Comment, k.Swap, k.Owner, k.NextPane},
		{k.Search, k.Refresh, k.ToggleFollow},
		{k.Login, k.Register, k.Logout},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
