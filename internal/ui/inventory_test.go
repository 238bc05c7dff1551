package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/market"
)

func mountInventory(t *testing.T, h *harness) *inventoryGrid {
	t.Helper()
	g := newInventoryGrid(DefaultKeyMap())
	h.pump(g, g.Mount(h.env))
	t.Cleanup(g.Unmount)
	return g
}

func seedOwner(h *harness) {
	h.srv.AddUser(market.UserProfile{Username: "marlow", FirstName: "Marlow"}, "pw")
	h.srv.AddItem(market.DetailedItem{ID: 11, Name: "Lamp", OwnerUsername: "marlow"})
	h.srv.AddItem(market.DetailedItem{ID: 12, Name: "Chair", OwnerUsername: "marlow"})
}

func TestInventory_ShowsSessionUserItems(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")

	g := mountInventory(t, h)

	require.Len(t, g.entries, 2)
	assert.Equal(t, "Lamp", g.entries[0].Name)
	assert.Equal(t, "Chair", g.entries[1].Name)
	assert.True(t, g.loggedIn)
}

func TestInventory_ArchiveFailureLeavesItemUnchanged(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)

	h.srv.Fail(http.MethodPatch, "/api/items/11/", http.StatusInternalServerError, "database unavailable")
	h.key(g, "x")

	toasts := h.takeToasts()
	require.Len(t, toasts, 1, "one failure, one toast")
	assert.Equal(t, toastError, toasts[0].kind)
	assert.Equal(t, "Archive: database unavailable", toasts[0].text)
	assert.False(t, g.entries[0].Archived)
	assert.Empty(t, g.pending)

	user := h.env.store().Snapshot().User
	require.NotNil(t, user)
	assert.False(t, user.Items[0].Archived)
}

func TestInventory_ArchiveAndRestore(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)

	h.key(g, "x")
	assert.True(t, g.entries[0].Archived)
	stored, _ := h.srv.Item(11)
	assert.True(t, stored.Archived)
	assert.True(t, h.env.store().Snapshot().User.Items[0].Archived)

	h.key(g, "r")
	assert.False(t, g.entries[0].Archived)
	stored, _ = h.srv.Item(11)
	assert.False(t, stored.Archived)

	toasts := h.takeToasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Item archived", toasts[0].text)
	assert.Equal(t, "Item restored", toasts[1].text)
}

func TestInventory_OverlappingArchivesBothStick(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)

	first := g.Update(keyMsg("x"))
	_ = g.Update(keyMsg("j"))
	second := g.Update(keyMsg("x"))
	require.Len(t, g.pending, 2)
	h.pump(g, tea.Batch(first, second))

	require.Len(t, g.entries, 2)
	assert.True(t, g.entries[0].Archived)
	assert.True(t, g.entries[1].Archived)
	for _, it := range h.env.store().Snapshot().User.Items {
		assert.True(t, it.Archived, "item %d", it.ID)
	}
}

func TestInventory_ArchiveAlreadyArchivedIsNoop(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)
	g.entries[0].Archived = true

	h.key(g, "x")

	assert.Empty(t, h.takeToasts())
	assert.NotContains(t, h.srv.Paths(), "PATCH /api/items/11/")
}

func TestInventory_AddItemByID(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)

	h.srv.AddItem(market.DetailedItem{ID: 13, Name: "Desk", OwnerUsername: "marlow"})
	h.key(g, "+")
	require.True(t, g.Capturing())
	h.typeText(g, "13")
	h.key(g, "enter")

	assert.False(t, g.Capturing())
	require.Len(t, g.entries, 3)
	assert.Equal(t, "Desk", g.entries[2].Name)
	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Added Desk to your inventory", toasts[0].text)
}

func TestInventory_AddForeignItemRejected(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.srv.AddUser(market.UserProfile{Username: "nova"}, "pw")
	h.srv.AddItem(market.DetailedItem{ID: 40, Name: "Bike", OwnerUsername: "nova"})
	h.login("marlow", "pw")
	g := mountInventory(t, h)

	h.key(g, "+")
	h.typeText(g, "40")
	h.key(g, "enter")

	assert.Len(t, g.entries, 2)
	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Add item: item belongs to another user", toasts[0].text)
}

func TestInventory_RequiresLogin(t *testing.T) {
	h := newHarness(t)
	g := mountInventory(t, h)

	h.key(g, "+")

	assert.False(t, g.Capturing())
	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Add item: not logged in", toasts[0].text)
}

func TestInventory_UploadPicture(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)

	path := filepath.Join(t.TempDir(), "lamp.png")
	writePNG(t, path, 64, 48)

	h.key(g, "U")
	h.typeText(g, path)
	h.key(g, "enter")

	require.NotNil(t, g.lastUpload)
	assert.NotZero(t, g.lastUpload.ID)
	toasts := h.takeToasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, toastSuccess, toasts[0].kind)
	assert.Contains(t, toasts[0].text, "lamp.png")
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
