package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

// OffersAPI is the part of the marketplace API the offers gateway needs.
type OffersAPI interface {
	CreateOffer(ctx context.Context, offer market.OfferCreation) (market.Offer, error)
}

// OfferDraft is what the offer composer opens with: the item wanted, its
// owner, and the proposer whose inventory supplies the item given.
type OfferDraft struct {
	Item     market.DetailedItem
	Owner    market.UserProfile
	Proposer market.UserProfile
}

// Offers fronts offer creation and the composer slot.
type Offers struct {
	api    OffersAPI
	logger *slog.Logger
	drafts broadcast.Slot[OfferDraft]
}

// NewOffers builds an Offers gateway. A nil logger discards.
func NewOffers(api OffersAPI, logger *slog.Logger) *Offers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Offers{api: api, logger: logger}
}

// DraftSelected is the slot the composer listens on.
func (g *Offers) DraftSelected() *broadcast.Slot[OfferDraft] { return &g.drafts }

// OpenOfferComposer hands a draft to the composer, replacing any unread one.
func (g *Offers) OpenOfferComposer(d OfferDraft) { g.drafts.Publish(d) }

// Propose sends an offer of givenItem against the draft's item.
func (g *Offers) Propose(ctx context.Context, d OfferDraft, givenItem int64, price int, comment string) (market.Offer, error) {
	switch {
	case d.Item.ID == 0:
		return market.Offer{}, ErrNotLoaded
	case d.Proposer.ID == 0:
		return market.Offer{}, session.ErrNotLoggedIn
	case d.Proposer.ID == d.Item.Owner || (d.Owner.ID != 0 && d.Owner.ID == d.Proposer.ID):
		return market.Offer{}, ErrOwnItem
	case givenItem == 0:
		return market.Offer{}, ErrNoItemOffered
	}
	if price < 0 {
		price = 0
	}
	offer, err := g.api.CreateOffer(ctx, market.OfferCreation{
		ItemGiven:    givenItem,
		ItemReceived: d.Item.ID,
		Price:        price,
		Comment:      strings.TrimSpace(comment),
	})
	if err != nil {
		g.logger.Warn("create offer failed", "item_id", d.Item.ID, "error", err)
		return market.Offer{}, fmt.Errorf("create offer: %w", err)
	}
	g.logger.Info("offer created", "offer_id", offer.ID, "item_id", d.Item.ID)
	return offer, nil
}
