package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

// modalComments is how many of the latest comments the modal shows.
const modalComments = 6

type detailLoadedMsg struct {
	gen    uint64
	detail gateway.ItemDetail
	err    error
}

type likeDoneMsg struct {
	gen uint64
	err error
}

type commentDoneMsg struct {
	gen     uint64
	comment market.Comment
	err     error
}

// itemModal shows one item with its owner, similar items and comments.
type itemModal struct {
	lifecycle
	keys keyMap

	itemID  int64
	detail  *gateway.ItemDetail
	loadErr error

	image   int
	similar int
	liking  bool
	posting bool
	comment form
}

func newItemModal(keys keyMap, itemID int64) *itemModal {
	return &itemModal{
		keys:    keys,
		itemID:  itemID,
		comment: newForm(field("Comment", "say something nice", 1000, false)),
	}
}

func (m *itemModal) Mount(env *Env) tea.Cmd {
	m.mount(env)
	m.detail, m.loadErr = nil, nil
	m.image, m.similar = 0, 0
	m.liking, m.posting = false, false
	m.comment.close()

	gen, id := m.gen, m.itemID
	items := env.Items
	return m.call(func(ctx context.Context) tea.Msg {
		detail, err := items.OpenDetail(ctx, id)
		return detailLoadedMsg{gen: gen, detail: detail, err: err}
	})
}

func (m *itemModal) Unmount() { m.unmount() }

func (m *itemModal) Capturing() bool { return m.comment.active }

func (m *itemModal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		if !m.current(msg.gen) {
			return nil
		}
		if msg.err != nil {
			m.loadErr = msg.err
			return failed("Item", msg.err)
		}
		d := msg.detail
		m.detail = &d
		m.env.Items.SelectItem(d.Item)
		var cmds []tea.Cmd
		if d.CommentsErr == nil {
			m.env.Items.SelectComments(commentsOf(d.Comments))
		} else {
			cmds = append(cmds, failed("Comments", d.CommentsErr))
		}
		if d.OwnerErr != nil {
			cmds = append(cmds, failed("Owner", d.OwnerErr))
		}
		return tea.Batch(cmds...)
	case likeDoneMsg:
		if !m.current(msg.gen) {
			return nil
		}
		m.liking = false
		if msg.err != nil {
			return failed("Like", msg.err)
		}
		if m.detail != nil {
			m.detail.Item.Likes++
			m.env.Items.SelectItem(m.detail.Item)
		}
		return notify(toastSuccess, "Liked")
	case commentDoneMsg:
		if !m.current(msg.gen) {
			return nil
		}
		m.posting = false
		if msg.err != nil {
			return failed("Comment", msg.err)
		}
		if m.detail != nil {
			entry := m.env.Items.CommentEntries([]market.Comment{msg.comment})
			m.detail.Comments = append(m.detail.Comments, entry...)
			m.detail.Item.Comments++
			m.env.Items.SelectComments(commentsOf(m.detail.Comments))
			m.env.Items.SelectItem(m.detail.Item)
		}
		m.comment.reset()
		return notify(toastSuccess, "Comment posted")
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func commentsOf(entries []gateway.CommentEntry) []market.Comment {
	out := make([]market.Comment, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Comment)
	}
	return out
}

func (m *itemModal) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.comment.active {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.comment.close()
			return nil
		case key.Matches(msg, m.keys.Confirm):
			return m.postComment()
		}
		return m.comment.update(msg)
	}

	if key.Matches(msg, m.keys.Escape) {
		return emit(closeModalMsg{})
	}
	if m.detail == nil {
		return nil
	}
	d := m.detail

	switch {
	case key.Matches(msg, m.keys.NextPane):
		if n := len(d.Images); n > 0 {
			m.image = (m.image + 1) % n
		}
	case key.Matches(msg, m.keys.Up):
		m.similar = clampIndex(m.similar-1, len(d.Similar))
	case key.Matches(msg, m.keys.Down):
		m.similar = clampIndex(m.similar+1, len(d.Similar))
	case key.Matches(msg, m.keys.Confirm):
		if m.similar < len(d.Similar) {
			return emit(openDetailMsg{itemID: d.Similar[m.similar].ID})
		}
	case key.Matches(msg, m.keys.Like):
		return m.like()
	case key.Matches(msg, m.keys.Comment):
		if !m.env.store().IsLoggedIn() {
			return failed("Comment", session.ErrNotLoggedIn)
		}
		return m.comment.open(0)
	case key.Matches(msg, m.keys.Swap):
		return m.proposeSwap()
	case key.Matches(msg, m.keys.Owner):
		if d.Owner == nil {
			if d.OwnerErr != nil {
				return failed("Owner", d.OwnerErr)
			}
			return notify(toastInfo, "This item has no owner profile")
		}
		m.env.Items.SelectOwner(*d.Owner)
		return emit(showOwnerMsg{})
	}
	return nil
}

func (m *itemModal) sessionUser() *market.UserProfile {
	return m.env.store().Snapshot().User
}

func (m *itemModal) like() tea.Cmd {
	if m.liking {
		return nil
	}
	user := m.sessionUser()
	if user == nil {
		return failed("Like", session.ErrNotLoggedIn)
	}
	m.liking = true
	gen, itemID, userID := m.gen, m.detail.Item.ID, user.ID
	items := m.env.Items
	return m.call(func(ctx context.Context) tea.Msg {
		return likeDoneMsg{gen: gen, err: items.Like(ctx, itemID, userID)}
	})
}

func (m *itemModal) postComment() tea.Cmd {
	if m.posting {
		return nil
	}
	content := strings.TrimSpace(m.comment.value(0))
	if content == "" {
		return failed("Comment", gateway.ErrEmptyComment)
	}
	user := m.sessionUser()
	if user == nil {
		return failed("Comment", session.ErrNotLoggedIn)
	}
	m.posting = true
	m.comment.close()

	gen := m.gen
	items := m.env.Items
	req := market.CommentCreation{User: user.ID, Item: m.detail.Item.ID, Content: content}
	author := *user
	return m.call(func(ctx context.Context) tea.Msg {
		ack, err := items.AddComment(ctx, req)
		if err != nil {
			return commentDoneMsg{gen: gen, err: err}
		}
		return commentDoneMsg{gen: gen, comment: market.Comment{
			ID:                 ack.ID,
			Content:            content,
			Date:               ack.Date,
			User:               author.ID,
			Item:               req.Item,
			Username:           author.Username,
			UserFullname:       author.FullName(),
			UserProfilePicture: author.ProfilePictureURL,
		}}
	})
}

func (m *itemModal) proposeSwap() tea.Cmd {
	user := m.sessionUser()
	if user == nil {
		return failed("Swap", session.ErrNotLoggedIn)
	}
	d := m.detail
	if d.Item.Owner == user.ID {
		return failed("Swap", gateway.ErrOwnItem)
	}
	draft := gateway.OfferDraft{Item: d.Item, Proposer: *user}
	if d.Owner != nil {
		draft.Owner = *d.Owner
	}
	return emit(composeOfferMsg{draft: draft})
}

func (m *itemModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	if m.detail == nil {
		if m.loadErr != nil {
			return styles.DangerText.Render("Could not load item: "+gateway.Describe(m.loadErr)) +
				"\n\n" + styles.FaintText.Render("esc close")
		}
		return styles.MutedText.Render(fmt.Sprintf("Loading item #%d…", m.itemID))
	}

	d := m.detail
	it := d.Item
	var sections []string

	title := styles.AccentText.Bold(true).Render(truncate(it.Name, max(width-14, 10)))
	if it.Archived {
		title += " " + styles.Badge("archived")
	} else if user := m.sessionUser(); user != nil && user.ID == it.Owner {
		title += " " + styles.Badge("mine")
	}
	sections = append(sections, title)

	var facts []string
	if it.Category.Name != "" {
		facts = append(facts, it.Category.Name)
	}
	switch {
	case it.PriceMin > 0 && it.PriceMax > 0 && it.PriceMin != it.PriceMax:
		facts = append(facts, fmt.Sprintf("%s–%s €", humanize.Comma(int64(it.PriceMin)), humanize.Comma(int64(it.PriceMax))))
	case it.PriceMax > 0:
		facts = append(facts, humanize.Comma(int64(it.PriceMax))+" €")
	}
	facts = append(facts,
		fmt.Sprintf("♥ %s", humanize.Comma(int64(it.Likes))),
		fmt.Sprintf("%s views", humanize.Comma(int64(it.Views))),
		fmt.Sprintf("%s comments", humanize.Comma(int64(it.Comments))),
	)
	sections = append(sections, styles.MutedText.Render(strings.Join(facts, " · ")))

	if desc := strings.TrimSpace(it.Description); desc != "" {
		sections = append(sections, lipgloss.NewStyle().Width(width).Render(styles.Text.Render(desc)))
	}

	sections = append(sections, m.renderImages(styles, width))
	sections = append(sections, m.renderOwner(styles, width))
	if len(d.Similar) > 0 {
		sections = append(sections, m.renderSimilar(styles, width))
	}
	sections = append(sections, m.renderComments(styles, width))

	if m.comment.active {
		sections = append(sections, m.comment.view(styles))
	}
	hint := "L like · c comment · s swap · o owner · ] next image · enter open similar · esc close"
	if m.comment.active {
		hint = "enter post · esc cancel"
	}
	sections = append(sections, styles.FaintText.Render(truncate(hint, width)))

	out := strings.Join(sections, "\n\n")
	if height > 0 {
		lines := strings.Split(out, "\n")
		if len(lines) > height {
			out = strings.Join(lines[:height], "\n")
		}
	}
	return out
}

func (m *itemModal) renderImages(styles Styles, width int) string {
	imgs := m.detail.Images
	if len(imgs) == 0 {
		return styles.FaintText.Render("No pictures")
	}
	idx := clampIndex(m.image, len(imgs))
	label := styles.MutedText.Render(fmt.Sprintf("Picture %d/%d ", idx+1, len(imgs)))
	if !imgs[idx].Trusted {
		return label + styles.Badge("untrusted")
	}
	return label + styles.InfoText.Render(truncateMiddle(imgs[idx].String(), max(width-16, 12)))
}

func (m *itemModal) renderOwner(styles Styles, width int) string {
	d := m.detail
	if d.Owner == nil {
		name := d.Item.OwnerUsername
		if name == "" {
			name = "unknown"
		}
		line := styles.MutedText.Render("Owner ") + styles.Text.Render(name)
		if d.OwnerErr != nil {
			line += " " + styles.DangerText.Render("(profile unavailable)")
		}
		return line
	}
	o := d.Owner
	line := styles.MutedText.Render("Owner ") +
		styles.Text.Bold(true).Render(o.FullName()) + " " +
		styles.FaintText.Render("@"+o.Username) + "  " +
		renderStars(fillStars(o.NoteAvg), styles)
	if o.Location != "" {
		line += "\n" + styles.FaintText.Render(truncate(o.Location, width))
	}
	if o.ProfilePictureURL != "" && !d.OwnerPicture.Trusted {
		line += "  " + styles.Badge("untrusted")
	}
	if len(d.OwnerItems) > 0 {
		names := make([]string, 0, len(d.OwnerItems))
		for _, e := range d.OwnerItems {
			if !e.Archived {
				names = append(names, e.Name)
			}
		}
		if len(names) > 0 {
			line += "\n" + styles.MutedText.Render("Also offers ") +
				styles.Text.Render(truncate(strings.Join(names, ", "), max(width-12, 8)))
		}
	}
	return line
}

func (m *itemModal) renderSimilar(styles Styles, width int) string {
	lines := []string{styles.MutedText.Render("Similar items")}
	for i, s := range m.detail.Similar {
		name := truncate(s.Name, max(width-4, 8))
		if i == m.similar {
			lines = append(lines, styles.Selected.Render("› "+name))
		} else {
			lines = append(lines, styles.Text.Render("  "+name))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *itemModal) renderComments(styles Styles, width int) string {
	d := m.detail
	if d.CommentsErr != nil {
		return styles.DangerText.Render("Comments unavailable")
	}
	if len(d.Comments) == 0 {
		return styles.FaintText.Render("No comments yet")
	}
	start := max(0, len(d.Comments)-modalComments)
	lines := []string{styles.MutedText.Render(fmt.Sprintf("Comments (%d)", len(d.Comments)))}
	for _, c := range d.Comments[start:] {
		author := c.UserFullname
		if author == "" {
			author = c.Username
		}
		when := ""
		if !c.Date.IsZero() {
			when = " · " + humanize.Time(c.Date)
		}
		lines = append(lines,
			styles.AccentText.Render(author)+styles.FaintText.Render(when),
			lipgloss.NewStyle().Width(width).Render(styles.Text.Render(c.Content)))
	}
	return strings.Join(lines, "\n")
}
