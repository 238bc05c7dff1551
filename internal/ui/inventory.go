package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

const inventoryCellWidth = 26

var errNotYourItem = errors.New("item belongs to another user")

type inventoryMode int

const (
	inventoryIdle inventoryMode = iota
	inventoryAdd
	inventoryUpload
)

type archiveDoneMsg struct {
	gen      uint64
	id       int64
	archived bool
	err      error
}

type addItemDoneMsg struct {
	gen  uint64
	item market.DetailedItem
	err  error
}

type uploadDoneMsg struct {
	gen  uint64
	name string
	ack  market.ImageAck
	err  error
}

// inventoryGrid lists the logged-in user's items.
type inventoryGrid struct {
	lifecycle
	keys keyMap

	mode   inventoryMode
	add    form
	upload form

	loggedIn bool
	userID   int64
	entries  []gateway.InventoryEntry
	cursor   int
	columns  int

	// pending holds items with an archive or restore in flight.
	pending    map[int64]bool
	lastUpload *market.ImageAck
}

func newInventoryGrid(keys keyMap) *inventoryGrid {
	return &inventoryGrid{
		keys:    keys,
		add:     newForm(field("Item id", "numeric id of an item you own", 20, false)),
		upload:  newForm(field("Image", "path to a picture", 4096, false)),
		pending: make(map[int64]bool),
		columns: 1,
	}
}

func (g *inventoryGrid) Mount(env *Env) tea.Cmd {
	g.mount(env)
	snap := env.store().Snapshot()
	g.loggedIn = snap.LoggedIn
	g.setUser(snap.User)
	g.mode = inventoryIdle
	clear(g.pending)
	g.watchLoggedIn()
	g.watchUser()
	return nil
}

func (g *inventoryGrid) Unmount() { g.unmount() }

func (g *inventoryGrid) Capturing() bool { return g.mode != inventoryIdle }

func (g *inventoryGrid) setUser(u *market.UserProfile) {
	if u == nil {
		g.userID, g.entries, g.cursor = 0, nil, 0
		return
	}
	g.userID = u.ID
	g.entries = g.env.Items.Entries(u.Items)
	g.cursor = clampIndex(g.cursor, len(g.entries))
}

func (g *inventoryGrid) selected() (gateway.InventoryEntry, bool) {
	if g.cursor < 0 || g.cursor >= len(g.entries) {
		return gateway.InventoryEntry{}, false
	}
	return g.entries[g.cursor], true
}

func (g *inventoryGrid) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loggedInMsg:
		if g.current(msg.gen) {
			g.loggedIn = msg.loggedIn
		}
	case userMsg:
		if g.current(msg.gen) {
			g.setUser(msg.user)
		}
	case archiveDoneMsg:
		if !g.current(msg.gen) {
			return nil
		}
		delete(g.pending, msg.id)
		if msg.err != nil {
			return failed(ternary(msg.archived, "Archive", "Restore"), msg.err)
		}
		for i := range g.entries {
			if g.entries[i].ID == msg.id {
				g.entries[i].Archived = msg.archived
			}
		}
		return notify(toastSuccess, ternary(msg.archived, "Item archived", "Item restored"))
	case addItemDoneMsg:
		if !g.current(msg.gen) {
			return nil
		}
		if msg.err != nil {
			return failed("Add item", msg.err)
		}
		return notify(toastSuccess, fmt.Sprintf("Added %s to your inventory", msg.item.Name))
	case uploadDoneMsg:
		if !g.current(msg.gen) {
			return nil
		}
		if msg.err != nil {
			return failed("Upload", msg.err)
		}
		ack := msg.ack
		g.lastUpload = &ack
		return notify(toastSuccess, fmt.Sprintf("Uploaded %s as image #%d", msg.name, ack.ID))
	case tea.KeyMsg:
		return g.handleKey(msg)
	}
	return nil
}

func (g *inventoryGrid) handleKey(msg tea.KeyMsg) tea.Cmd {
	if g.mode != inventoryIdle {
		f := &g.add
		if g.mode == inventoryUpload {
			f = &g.upload
		}
		switch {
		case key.Matches(msg, g.keys.Escape):
			g.mode = inventoryIdle
			f.close()
			return nil
		case key.Matches(msg, g.keys.Confirm):
			value := strings.TrimSpace(f.value(0))
			mode := g.mode
			g.mode = inventoryIdle
			f.close()
			f.reset()
			if mode == inventoryUpload {
				return g.startUpload(value)
			}
			return g.startAdd(value)
		}
		return f.update(msg)
	}

	switch {
	case key.Matches(msg, g.keys.Up):
		g.cursor = clampIndex(g.cursor-1, len(g.entries))
	case key.Matches(msg, g.keys.Down):
		g.cursor = clampIndex(g.cursor+1, len(g.entries))
	case key.Matches(msg, g.keys.PageUp):
		g.cursor = clampIndex(g.cursor-g.columns, len(g.entries))
	case key.Matches(msg, g.keys.PageDown):
		g.cursor = clampIndex(g.cursor+g.columns, len(g.entries))
	case key.Matches(msg, g.keys.Top):
		g.cursor = 0
	case key.Matches(msg, g.keys.Bottom):
		g.cursor = clampIndex(len(g.entries)-1, len(g.entries))
	case key.Matches(msg, g.keys.Confirm):
		if e, ok := g.selected(); ok {
			return emit(openDetailMsg{itemID: e.ID})
		}
	case key.Matches(msg, g.keys.Archive):
		return g.setArchived(true)
	case key.Matches(msg, g.keys.Restore):
		return g.setArchived(false)
	case key.Matches(msg, g.keys.AddItem):
		if !g.loggedIn {
			return failed("Add item", session.ErrNotLoggedIn)
		}
		g.mode = inventoryAdd
		return g.add.open(0)
	case key.Matches(msg, g.keys.Upload):
		if !g.loggedIn {
			return failed("Upload", session.ErrNotLoggedIn)
		}
		g.mode = inventoryUpload
		return g.upload.open(0)
	}
	return nil
}

// setArchived starts an archive or restore of the selected item. The local
// flag only changes once the API confirms.
func (g *inventoryGrid) setArchived(archived bool) tea.Cmd {
	e, ok := g.selected()
	if !ok || g.pending[e.ID] || e.Archived == archived {
		return nil
	}
	g.pending[e.ID] = true
	gen, id := g.gen, e.ID
	items := g.env.Items
	store := g.env.store()
	return g.call(func(ctx context.Context) tea.Msg {
		var err error
		if archived {
			err = items.Archive(ctx, id)
		} else {
			err = items.Restore(ctx, id)
		}
		if err == nil {
			publishInventory(store, func(list []market.InventoryItem) []market.InventoryItem {
				for i := range list {
					if list[i].ID == id {
						list[i].Archived = archived
					}
				}
				return list
			})
		}
		return archiveDoneMsg{gen: gen, id: id, archived: archived, err: err}
	})
}

func (g *inventoryGrid) startAdd(raw string) tea.Cmd {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return notify(toastError, "Add item: enter a numeric item id")
	}
	for _, e := range g.entries {
		if e.ID == id {
			return notify(toastInfo, "Item is already in your inventory")
		}
	}
	gen := g.gen
	items := g.env.Items
	store := g.env.store()
	return g.call(func(ctx context.Context) tea.Msg {
		item, err := items.DetailedItem(ctx, id)
		if err != nil {
			return addItemDoneMsg{gen: gen, err: err}
		}
		snap := store.Snapshot()
		if snap.User == nil {
			return addItemDoneMsg{gen: gen, err: session.ErrNotLoggedIn}
		}
		if item.Owner != 0 && item.Owner != snap.User.ID {
			return addItemDoneMsg{gen: gen, err: errNotYourItem}
		}
		publishInventory(store, func(list []market.InventoryItem) []market.InventoryItem {
			return append(list, item.InventoryItem())
		})
		return addItemDoneMsg{gen: gen, item: item}
	})
}

func (g *inventoryGrid) startUpload(path string) tea.Cmd {
	path = expandHome(path)
	if path == "" {
		return nil
	}
	gen := g.gen
	profile := g.env.Profile
	name := filepath.Base(path)
	return g.call(func(ctx context.Context) tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{gen: gen, name: name, err: fmt.Errorf("open image: %w", err)}
		}
		defer f.Close()
		ack, err := profile.UploadImage(ctx, name, f)
		return uploadDoneMsg{gen: gen, name: name, ack: ack, err: err}
	})
}

// publishInventory republishes the session user with an edited item list.
// It runs off the UI goroutine because subscribers forward to the program.
func publishInventory(store *session.Store, edit func([]market.InventoryItem) []market.InventoryItem) {
	store.UpdateUser(func(u market.UserProfile) market.UserProfile {
		u.Items = edit(u.Items)
		return u
	})
}

func (g *inventoryGrid) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	title := fmt.Sprintf("Inventory (%d)", len(g.entries))

	var body string
	switch {
	case !g.loggedIn:
		body = styles.MutedText.Render("Log in to see your inventory (p, then l).")
	case len(g.entries) == 0:
		body = styles.MutedText.Render("No items yet. Press + to add one by id.")
	default:
		body = g.renderGrid(styles, width-4, height-4)
	}

	var footer []string
	switch g.mode {
	case inventoryAdd:
		footer = append(footer, g.add.view(styles))
	case inventoryUpload:
		footer = append(footer, g.upload.view(styles))
	}
	if g.lastUpload != nil {
		footer = append(footer, styles.FaintText.Render(fmt.Sprintf("Last upload: image #%d %s", g.lastUpload.ID, g.lastUpload.URL)))
	}
	if len(footer) > 0 {
		body += "\n\n" + strings.Join(footer, "\n")
	}
	return box(theme, title, body, width, height, true)
}

func (g *inventoryGrid) renderGrid(styles Styles, width, height int) string {
	g.columns = max(1, width/inventoryCellWidth)
	rows := (len(g.entries) + g.columns - 1) / g.columns
	visibleRows := max(1, height/3)

	cursorRow := g.cursor / g.columns
	first := 0
	if cursorRow >= visibleRows {
		first = cursorRow - visibleRows + 1
	}

	lines := make([]string, 0, visibleRows)
	for r := first; r < rows && r < first+visibleRows; r++ {
		cells := make([]string, 0, g.columns)
		for c := 0; c < g.columns; c++ {
			i := r*g.columns + c
			if i >= len(g.entries) {
				break
			}
			cells = append(cells, g.renderCell(styles, g.entries[i], i == g.cursor))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func (g *inventoryGrid) renderCell(styles Styles, e gateway.InventoryEntry, selected bool) string {
	w := inventoryCellWidth - 2
	name := truncate(e.Name, w)
	state := "available"
	switch {
	case g.pending[e.ID]:
		state = "saving"
	case e.Archived:
		state = "archived"
	}
	picture := styles.FaintText.Render("no picture")
	switch {
	case e.ImageURL == "":
	case e.Image.Trusted:
		picture = styles.FaintText.Render(fmt.Sprintf("image #%d", e.ImageID))
	default:
		picture = styles.Badge("untrusted")
	}

	nameStyle := styles.Text
	if selected {
		nameStyle = styles.Selected
	}
	cell := nameStyle.Render(padRight(name, w)) + "\n" +
		styles.Badge(state) + " " + styles.FaintText.Render(fmt.Sprintf("#%d", e.ID)) + "\n" +
		picture
	return lipgloss.NewStyle().Width(inventoryCellWidth).Height(3).Render(cell)
}
