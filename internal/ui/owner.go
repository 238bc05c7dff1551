package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
)

type ownerSelectedMsg struct {
	gen   uint64
	owner market.UserProfile
}

type ownerLoadedMsg struct {
	gen   uint64
	owner market.UserProfile
	err   error
}

// ownerPanel shows the public profile last selected from an item.
type ownerPanel struct {
	lifecycle
	keys keyMap

	box     *broadcast.Mailbox[market.UserProfile]
	owner   *market.UserProfile
	picture gateway.TrustedURL
	items   []gateway.InventoryEntry
	cursor  int
	loading bool
}

func newOwnerPanel(keys keyMap) *ownerPanel {
	return &ownerPanel{keys: keys}
}

func (o *ownerPanel) Mount(env *Env) tea.Cmd {
	o.mount(env)
	o.box = env.Items.OwnerSelected().Subscribe()
	o.scope.Add(o.box)
	if latest, ok := env.Items.OwnerSelected().Latest(); ok {
		o.show(latest)
	}
	return o.next()
}

func (o *ownerPanel) next() tea.Cmd {
	return await(&o.lifecycle, o.box, func(gen uint64, u market.UserProfile) tea.Msg {
		return ownerSelectedMsg{gen: gen, owner: u}
	})
}

func (o *ownerPanel) Unmount() { o.unmount() }

func (o *ownerPanel) show(u market.UserProfile) {
	o.owner = &u
	o.picture = o.env.Items.Policy().Trust(u.ProfilePictureURL)
	o.items = o.env.Items.Entries(u.Items)
	o.cursor = clampIndex(o.cursor, len(o.items))
}

func (o *ownerPanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ownerSelectedMsg:
		if !o.current(msg.gen) {
			return nil
		}
		o.cursor = 0
		o.show(msg.owner)
		return o.next()
	case ownerLoadedMsg:
		if !o.current(msg.gen) {
			return nil
		}
		o.loading = false
		if msg.err != nil {
			return failed("Owner", msg.err)
		}
		o.show(msg.owner)
	case tea.KeyMsg:
		return o.handleKey(msg)
	}
	return nil
}

func (o *ownerPanel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, o.keys.Up):
		o.cursor = clampIndex(o.cursor-1, len(o.items))
	case key.Matches(msg, o.keys.Down):
		o.cursor = clampIndex(o.cursor+1, len(o.items))
	case key.Matches(msg, o.keys.Top):
		o.cursor = 0
	case key.Matches(msg, o.keys.Bottom):
		o.cursor = clampIndex(len(o.items)-1, len(o.items))
	case key.Matches(msg, o.keys.Confirm):
		if o.cursor < len(o.items) {
			return emit(openDetailMsg{itemID: o.items[o.cursor].ID})
		}
	case key.Matches(msg, o.keys.Refresh):
		if o.owner == nil || o.loading {
			return nil
		}
		o.loading = true
		gen, username := o.gen, o.owner.Username
		items := o.env.Items
		return o.call(func(ctx context.Context) tea.Msg {
			u, err := items.User(ctx, username)
			return ownerLoadedMsg{gen: gen, owner: u, err: err}
		})
	}
	return nil
}

func (o *ownerPanel) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	if o.owner == nil {
		return box(theme, "Owner", styles.MutedText.Render("Open an item and press o to see its owner."), width, height, true)
	}
	u := o.owner
	inner := width - 4

	var lines []string
	lines = append(lines, styles.AccentText.Bold(true).Render(u.FullName())+" "+styles.FaintText.Render("@"+u.Username))
	lines = append(lines, renderStars(fillStars(u.NoteAvg), styles)+" "+
		styles.FaintText.Render(fmt.Sprintf("%.1f · %s notes", u.NoteAvg, humanize.Comma(int64(u.Notes)))))
	if u.Location != "" {
		lines = append(lines, styles.MutedText.Render(truncate(u.Location, inner)))
	}
	if u.Coordinates.Latitude != 0 || u.Coordinates.Longitude != 0 {
		lines = append(lines, styles.FaintText.Render(fmt.Sprintf("⌖ %.4f, %.4f", u.Coordinates.Latitude, u.Coordinates.Longitude)))
	}
	switch {
	case u.ProfilePictureURL == "":
	case o.picture.Trusted:
		lines = append(lines, styles.InfoText.Render(truncateMiddle(o.picture.String(), inner)))
	default:
		lines = append(lines, styles.Badge("untrusted"))
	}
	if len(u.InterestedBy) > 0 {
		names := make([]string, 0, len(u.InterestedBy))
		for _, c := range u.InterestedBy {
			names = append(names, c.Name)
		}
		lines = append(lines, styles.MutedText.Render("Interested in ")+styles.Text.Render(truncate(strings.Join(names, ", "), max(inner-14, 8))))
	}

	lines = append(lines, "", styles.MutedText.Render(fmt.Sprintf("Items (%d)", len(o.items))))
	rows := max(1, height-len(lines)-4)
	start := 0
	if o.cursor >= rows {
		start = o.cursor - rows + 1
	}
	for i := start; i < len(o.items) && i < start+rows; i++ {
		e := o.items[i]
		name := truncate(e.Name, max(inner-14, 8))
		row := ternary(i == o.cursor, styles.Selected.Render("› "+name), styles.Text.Render("  "+name))
		if e.Archived {
			row += " " + styles.Badge("archived")
		}
		lines = append(lines, row)
	}
	if o.loading {
		lines = append(lines, styles.WarningText.Render("Refreshing…"))
	}
	return box(theme, "Owner", strings.Join(lines, "\n"), width, height, true)
}
