package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
)

const (
	offerPrice = iota
	offerComment
)

type draftMsg struct {
	gen   uint64
	draft gateway.OfferDraft
}

type offerDoneMsg struct {
	gen   uint64
	offer market.Offer
	err   error
}

// offerComposer proposes one of the user's items in exchange for the item of
// the draft it was opened with.
type offerComposer struct {
	lifecycle
	keys keyMap

	box     *broadcast.Mailbox[gateway.OfferDraft]
	draft   *gateway.OfferDraft
	choices []market.InventoryItem
	choice  int
	form    form
	sending bool
}

func newOfferComposer(keys keyMap) *offerComposer {
	return &offerComposer{
		keys: keys,
		form: newForm(
			field("Extra cash", "0", 9, false),
			field("Message", "optional note for the owner", 500, false),
		),
	}
}

// Mount subscribes to the draft slot. The draft must be published after
// Mount returns; values published earlier are not delivered.
func (o *offerComposer) Mount(env *Env) tea.Cmd {
	o.mount(env)
	o.draft, o.choices, o.choice, o.sending = nil, nil, 0, false
	o.form.reset()
	o.box = env.Offers.DraftSelected().Subscribe()
	o.scope.Add(o.box)
	return o.next()
}

func (o *offerComposer) next() tea.Cmd {
	return await(&o.lifecycle, o.box, func(gen uint64, d gateway.OfferDraft) tea.Msg {
		return draftMsg{gen: gen, draft: d}
	})
}

func (o *offerComposer) Unmount() { o.unmount() }

func (o *offerComposer) Capturing() bool { return true }

func (o *offerComposer) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case draftMsg:
		if !o.current(msg.gen) {
			return nil
		}
		d := msg.draft
		o.draft = &d
		o.choices = o.choices[:0]
		for _, it := range d.Proposer.Items {
			if !it.Archived && it.ID != d.Item.ID {
				o.choices = append(o.choices, it)
			}
		}
		o.choice = 0
		o.form.reset()
		return tea.Batch(o.next(), o.form.open(offerPrice))
	case offerDoneMsg:
		if !o.current(msg.gen) {
			return nil
		}
		o.sending = false
		if msg.err != nil {
			return failed("Offer", msg.err)
		}
		return tea.Batch(
			notify(toastSuccess, fmt.Sprintf("Offer sent for %s", o.draft.Item.Name)),
			emit(closeModalMsg{}),
		)
	case tea.KeyMsg:
		return o.handleKey(msg)
	}
	return nil
}

func (o *offerComposer) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, o.keys.Escape) {
		return emit(closeModalMsg{})
	}
	if o.draft == nil {
		return nil
	}
	// Only arrow keys move the selection; letters belong to the inputs.
	switch msg.Type {
	case tea.KeyUp:
		o.choice = clampIndex(o.choice-1, len(o.choices))
		return nil
	case tea.KeyDown:
		o.choice = clampIndex(o.choice+1, len(o.choices))
		return nil
	}
	switch {
	case key.Matches(msg, o.keys.Tab):
		return o.form.next()
	case key.Matches(msg, o.keys.ShiftTab):
		return o.form.prev()
	case key.Matches(msg, o.keys.Confirm):
		if !o.form.onLast() {
			return o.form.next()
		}
		return o.send()
	}
	return o.form.update(msg)
}

func (o *offerComposer) send() tea.Cmd {
	if o.sending {
		return nil
	}
	price := 0
	if raw := strings.TrimSpace(o.form.value(offerPrice)); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return notify(toastError, "Offer: extra cash must be a whole number")
		}
		price = v
	}
	var given int64
	if o.choice < len(o.choices) {
		given = o.choices[o.choice].ID
	}

	o.sending = true
	gen := o.gen
	draft := *o.draft
	comment := o.form.value(offerComment)
	offers := o.env.Offers
	return o.call(func(ctx context.Context) tea.Msg {
		offer, err := offers.Propose(ctx, draft, given, price, comment)
		return offerDoneMsg{gen: gen, offer: offer, err: err}
	})
}

func (o *offerComposer) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	if o.draft == nil {
		return styles.MutedText.Render("Preparing offer…")
	}
	d := o.draft

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Propose a swap"))
	b.WriteString("\n")
	owner := d.Owner.FullName()
	if owner == "" {
		owner = d.Item.OwnerUsername
	}
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("for %s", truncate(d.Item.Name, max(width-20, 10)))))
	if owner != "" {
		b.WriteString(styles.FaintText.Render(" from " + owner))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("You give"))
	b.WriteString("\n")
	if len(o.choices) == 0 {
		b.WriteString(styles.WarningText.Render("  You have no available items to offer."))
	}
	rows := max(3, height-12)
	start := 0
	if o.choice >= rows {
		start = o.choice - rows + 1
	}
	for i := start; i < len(o.choices) && i < start+rows; i++ {
		it := o.choices[i]
		name := truncate(it.Name, max(width-6, 8))
		if i == o.choice {
			b.WriteString(styles.Selected.Render("› " + name))
		} else {
			b.WriteString(styles.Text.Render("  " + name))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(o.form.view(styles))
	if d.Item.PriceMax > 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render("Listed around " + humanize.Comma(int64(d.Item.PriceMax)) + " €"))
	}
	b.WriteString("\n\n")
	if o.sending {
		b.WriteString(styles.WarningText.Render("Sending…"))
	} else {
		b.WriteString(styles.FaintText.Render("↑/↓ pick item · tab field · enter send · esc cancel"))
	}
	return b.String()
}
