package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/market"
)

func mountBrowse(t *testing.T, h *harness) *browseList {
	t.Helper()
	b := newBrowseList(DefaultKeyMap())
	h.pump(b, b.Mount(h.env))
	t.Cleanup(b.Unmount)
	return b
}

func seedCatalog(h *harness) {
	h.srv.AddUser(market.UserProfile{Username: "marlow"}, "pw")
	tools := market.Category{ID: 1, Name: "Tools"}
	home := market.Category{ID: 2, Name: "Home"}
	h.srv.AddItem(market.DetailedItem{ID: 1, Name: "Hammer", Category: tools, PriceMin: 5, PriceMax: 10, OwnerUsername: "marlow"})
	h.srv.AddItem(market.DetailedItem{ID: 2, Name: "Desk lamp", Category: home, PriceMin: 20, PriceMax: 30, OwnerUsername: "marlow"})
	h.srv.AddItem(market.DetailedItem{ID: 3, Name: "Floor lamp", Category: home, PriceMin: 50, PriceMax: 80, OwnerUsername: "marlow"})
	h.srv.AddItem(market.DetailedItem{ID: 4, Name: "Hidden", Archived: true})
}

func names(items []market.DetailedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestBrowse_LoadsOnMount(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h)

	b := mountBrowse(t, h)

	assert.Equal(t, []string{"Hammer", "Desk lamp", "Floor lamp"}, names(b.items))
	require.Len(t, b.categories, 2)
	assert.Equal(t, "Home", b.categories[0].Name)
}

func TestBrowse_SearchByNameAndPrice(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h)
	b := mountBrowse(t, h)

	h.key(b, "/")
	require.True(t, b.Capturing())
	h.typeText(b, "lamp")
	h.key(b, "tab")
	h.typeText(b, "40")
	h.key(b, "tab")
	h.typeText(b, "10")
	h.key(b, "enter")

	assert.False(t, b.Capturing())
	assert.Equal(t, "lamp", b.query.Name)
	assert.Equal(t, []string{"Desk lamp"}, names(b.items), "reversed bounds are swapped to 10-40")
}

func TestBrowse_CycleCategory(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h)
	b := mountBrowse(t, h)

	h.key(b, "]")
	assert.Equal(t, int64(2), b.query.Category)
	assert.Equal(t, []string{"Desk lamp", "Floor lamp"}, names(b.items))

	h.key(b, "]")
	assert.Equal(t, int64(1), b.query.Category)
	assert.Equal(t, []string{"Hammer"}, names(b.items))
	assert.Len(t, b.categories, 2, "known categories survive filtered results")

	h.key(b, "]")
	assert.Zero(t, b.query.Category)
	assert.Len(t, b.items, 3)
}

func TestBrowse_FollowsModalSelections(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h)
	b := mountBrowse(t, h)

	item := b.items[1]
	item.Likes = 7
	item.Comments = 2
	h.env.Items.SelectItem(item)
	h.env.Items.SelectComments([]market.Comment{{ID: 1, Item: 2}, {ID: 2, Item: 2}})
	h.pump(b, nil)

	assert.Equal(t, 7, b.items[1].Likes)
	assert.Equal(t, 2, b.items[1].Comments)
	assert.Zero(t, b.items[0].Likes)
}

func TestBrowse_CommentCountIndependentOfDeliveryOrder(t *testing.T) {
	comments := []market.Comment{{ID: 1, Item: 2}, {ID: 2, Item: 2}, {ID: 3, Item: 2}}

	tests := []struct {
		name          string
		commentsFirst bool
	}{
		{"comments then item", true},
		{"item then comments", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			seedCatalog(h)
			b := mountBrowse(t, h)

			// A stale item count must not override the comments list.
			item := b.items[1]
			item.Likes = 4
			item.Comments = 0

			if tt.commentsFirst {
				h.env.Items.SelectComments(comments)
				h.pump(b, nil)
				h.env.Items.SelectItem(item)
				h.pump(b, nil)
			} else {
				h.env.Items.SelectItem(item)
				h.pump(b, nil)
				h.env.Items.SelectComments(comments)
				h.pump(b, nil)
			}

			assert.Equal(t, 3, b.items[1].Comments)
			assert.Equal(t, 4, b.items[1].Likes)
		})
	}
}

func TestBrowse_EnterOpensItem(t *testing.T) {
	h := newHarness(t)
	seedCatalog(h)
	b := mountBrowse(t, h)

	h.key(b, "j", "enter")

	assert.Equal(t, []any{openDetailMsg{itemID: 2}}, toAny(h.takeEmitted()))
}
