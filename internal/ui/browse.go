package ui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/market"
)

const (
	searchName = iota
	searchMin
	searchMax
)

type searchDoneMsg struct {
	gen   uint64
	query market.ItemQuery
	items []market.DetailedItem
	err   error
}

type itemSelectedMsg struct {
	gen  uint64
	item market.DetailedItem
}

type commentsSelectedMsg struct {
	gen      uint64
	comments []market.Comment
}

// browseList searches the marketplace and keeps its rows in step with what
// the item modal learns about an item.
type browseList struct {
	lifecycle
	keys keyMap

	query      market.ItemQuery
	categories []market.Category
	items      []market.DetailedItem
	cursor     int
	loading    bool
	loadErr    error
	search     form

	itemBox     *broadcast.Mailbox[market.DetailedItem]
	commentsBox *broadcast.Mailbox[[]market.Comment]
}

func newBrowseList(keys keyMap) *browseList {
	return &browseList{
		keys: keys,
		search: newForm(
			field("Name", "any", 100, false),
			field("Min price", "0", 9, false),
			field("Max price", "0", 9, false),
		),
	}
}

func (b *browseList) Mount(env *Env) tea.Cmd {
	b.mount(env)
	b.search.close()
	b.itemBox = env.Items.ItemSelected().Subscribe()
	b.commentsBox = env.Items.CommentsSelected().Subscribe()
	b.scope.Add(b.itemBox)
	b.scope.Add(b.commentsBox)
	return tea.Batch(b.awaitItem(), b.awaitComments(), b.load())
}

func (b *browseList) awaitItem() tea.Cmd {
	return await(&b.lifecycle, b.itemBox, func(gen uint64, it market.DetailedItem) tea.Msg {
		return itemSelectedMsg{gen: gen, item: it}
	})
}

func (b *browseList) awaitComments() tea.Cmd {
	return await(&b.lifecycle, b.commentsBox, func(gen uint64, c []market.Comment) tea.Msg {
		return commentsSelectedMsg{gen: gen, comments: c}
	})
}

func (b *browseList) Unmount() { b.unmount() }

func (b *browseList) Capturing() bool { return b.search.active }

func (b *browseList) load() tea.Cmd {
	b.loading = true
	gen, q := b.gen, b.query
	items := b.env.Items
	return b.call(func(ctx context.Context) tea.Msg {
		found, err := items.Search(ctx, q)
		return searchDoneMsg{gen: gen, query: q, items: found, err: err}
	})
}

func (b *browseList) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case searchDoneMsg:
		if !b.current(msg.gen) {
			return nil
		}
		b.loading = false
		if msg.err != nil {
			b.loadErr = msg.err
			return failed("Search", msg.err)
		}
		b.loadErr = nil
		b.items = msg.items
		b.cursor = clampIndex(b.cursor, len(b.items))
		if msg.query.Category == 0 {
			b.categories = categoriesOf(msg.items)
		}
	case itemSelectedMsg:
		if !b.current(msg.gen) {
			return nil
		}
		// The comment count comes from the comments slot alone; the two
		// slots have no delivery order between them.
		for i := range b.items {
			if b.items[i].ID == msg.item.ID {
				b.items[i].Likes = msg.item.Likes
				b.items[i].Views = msg.item.Views
				b.items[i].Archived = msg.item.Archived
			}
		}
		return b.awaitItem()
	case commentsSelectedMsg:
		if !b.current(msg.gen) {
			return nil
		}
		if len(msg.comments) > 0 {
			id := msg.comments[0].Item
			for i := range b.items {
				if b.items[i].ID == id {
					b.items[i].Comments = len(msg.comments)
				}
			}
		}
		return b.awaitComments()
	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return nil
}

func categoriesOf(items []market.DetailedItem) []market.Category {
	seen := make(map[int64]market.Category)
	for _, it := range items {
		if it.Category.ID != 0 {
			seen[it.Category.ID] = it.Category
		}
	}
	out := make([]market.Category, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (b *browseList) handleKey(msg tea.KeyMsg) tea.Cmd {
	if b.search.active {
		switch {
		case key.Matches(msg, b.keys.Escape):
			b.search.close()
			return nil
		case key.Matches(msg, b.keys.Tab):
			return b.search.next()
		case key.Matches(msg, b.keys.ShiftTab):
			return b.search.prev()
		case key.Matches(msg, b.keys.Confirm):
			b.search.close()
			b.query.Name = strings.TrimSpace(b.search.value(searchName))
			b.query.PriceMin = atoiOrZero(b.search.value(searchMin))
			b.query.PriceMax = atoiOrZero(b.search.value(searchMax))
			b.cursor = 0
			return b.load()
		}
		return b.search.update(msg)
	}

	switch {
	case key.Matches(msg, b.keys.Up):
		b.cursor = clampIndex(b.cursor-1, len(b.items))
	case key.Matches(msg, b.keys.Down):
		b.cursor = clampIndex(b.cursor+1, len(b.items))
	case key.Matches(msg, b.keys.PageUp):
		b.cursor = clampIndex(b.cursor-10, len(b.items))
	case key.Matches(msg, b.keys.PageDown):
		b.cursor = clampIndex(b.cursor+10, len(b.items))
	case key.Matches(msg, b.keys.Top):
		b.cursor = 0
	case key.Matches(msg, b.keys.Bottom):
		b.cursor = clampIndex(len(b.items)-1, len(b.items))
	case key.Matches(msg, b.keys.Confirm):
		if b.cursor < len(b.items) {
			return emit(openDetailMsg{itemID: b.items[b.cursor].ID})
		}
	case key.Matches(msg, b.keys.Search):
		return b.search.open(searchName)
	case key.Matches(msg, b.keys.Refresh):
		return b.load()
	case key.Matches(msg, b.keys.NextPane):
		b.query.Category = b.nextCategory()
		b.cursor = 0
		return b.load()
	}
	return nil
}

// nextCategory cycles all -> each known category -> all.
func (b *browseList) nextCategory() int64 {
	if len(b.categories) == 0 {
		return 0
	}
	if b.query.Category == 0 {
		return b.categories[0].ID
	}
	for i, c := range b.categories {
		if c.ID == b.query.Category {
			if i+1 < len(b.categories) {
				return b.categories[i+1].ID
			}
			return 0
		}
	}
	return 0
}

func (b *browseList) categoryName(id int64) string {
	for _, c := range b.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return fmt.Sprintf("#%d", id)
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func (b *browseList) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	title := "Browse"
	var filters []string
	if b.query.Name != "" {
		filters = append(filters, fmt.Sprintf("%q", b.query.Name))
	}
	if b.query.Category != 0 {
		filters = append(filters, b.categoryName(b.query.Category))
	}
	if b.query.PriceMin > 0 || b.query.PriceMax > 0 {
		filters = append(filters, fmt.Sprintf("%d–%d €", b.query.PriceMin, b.query.PriceMax))
	}
	if len(filters) > 0 {
		title += " · " + strings.Join(filters, " · ")
	}

	inner := width - 4
	var lines []string
	switch {
	case b.loading && len(b.items) == 0:
		lines = append(lines, styles.MutedText.Render("Loading…"))
	case b.loadErr != nil && len(b.items) == 0:
		lines = append(lines, styles.DangerText.Render("Search failed"))
	case len(b.items) == 0:
		lines = append(lines, styles.MutedText.Render("No items match."))
	default:
		lines = append(lines, b.renderRows(styles, inner, height-5)...)
	}

	if b.search.active {
		lines = append(lines, "", b.search.view(styles))
	}
	return box(theme, title, strings.Join(lines, "\n"), width, height, true)
}

func (b *browseList) renderRows(styles Styles, width, rows int) []string {
	compact := width < LayoutCompactWidth-4
	nameW := max(12, width-44)
	if compact {
		nameW = max(10, width-22)
	}

	rows = max(1, rows)
	start := 0
	if b.cursor >= rows {
		start = b.cursor - rows + 1
	}

	out := make([]string, 0, rows)
	for i := start; i < len(b.items) && i < start+rows; i++ {
		it := b.items[i]
		name := padRight(truncate(it.Name, nameW), nameW)
		stats := fmt.Sprintf("♥ %-4s ✎ %-4s", humanize.Comma(int64(it.Likes)), humanize.Comma(int64(it.Comments)))
		row := name + "  " + stats
		if !compact {
			row += "  " + padRight(truncate(it.Category.Name, 12), 12) +
				"  " + padRight(truncate(it.OwnerUsername, 12), 12)
		}
		if i == b.cursor {
			row = styles.Selected.Render(row)
		} else {
			row = styles.Text.Render(row)
		}
		if it.Archived {
			row += " " + styles.Badge("archived")
		}
		out = append(out, row)
	}
	return out
}
