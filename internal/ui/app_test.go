package ui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/prefs"
)

// newModel builds a root model with every view mounted. Mount commands are
// not run; tests drive Update directly.
func newModel(t *testing.T, h *harness) Model {
	t.Helper()
	m := New(Options{
		Env:       h.env,
		Prefs:     prefs.Prefs{Theme: "Slate"},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		APIURL:    h.srv.URL,
	})
	for _, v := range m.views {
		_ = v.Mount(h.env)
	}
	t.Cleanup(func() { m.shutdown() })
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModel_ToastsAreCappedAndExpire(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	for _, text := range []string{"one", "two", "three", "four"} {
		m, _ = update(t, m, toastMsg{kind: toastInfo, text: text})
	}
	require.Len(t, m.toasts, MaxToasts)
	assert.Equal(t, "two", m.toasts[0].text)

	m, _ = update(t, m, tickMsg(time.Now().Add(ToastDuration+time.Second)))
	assert.Empty(t, m.toasts)
}

func TestModel_GlobalKeys(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	m, _ = update(t, m, keyMsg("i"))
	assert.Equal(t, ViewInventory, m.current)
	m, _ = update(t, m, keyMsg("tab"))
	assert.Equal(t, ViewProfile, m.current)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, ViewInventory, m.current)

	m, _ = update(t, m, keyMsg("?"))
	require.True(t, m.showHelp)
	m, _ = update(t, m, keyMsg("a"))
	assert.False(t, m.showHelp, "any key closes help")
	assert.Equal(t, ViewInventory, m.current)

	m, _ = update(t, m, keyMsg("T"))
	assert.Equal(t, "Nightfox", m.theme.Name)
	saved, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "Nightfox", saved.Theme)
}

func TestModel_CapturingViewGetsKeysFirst(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	m, _ = update(t, m, keyMsg("p"))
	m, _ = update(t, m, keyMsg("l"))
	require.True(t, m.profile.Capturing())

	m, _ = update(t, m, keyMsg("b"))
	assert.Equal(t, ViewProfile, m.current, "typing into the form does not switch views")
	assert.Equal(t, "b", m.profile.login.value(0))
}

func TestModel_OpenDetailReplacesItemModal(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	m, _ = update(t, m, openDetailMsg{itemID: 1})
	first := m.topModal()
	m, _ = update(t, m, openDetailMsg{itemID: 2})
	require.Len(t, m.modals, 1)
	top, ok := m.topModal().(*itemModal)
	require.True(t, ok)
	assert.Equal(t, int64(2), top.itemID)
	assert.False(t, first.(*itemModal).mounted, "replaced modal is unmounted")

	m, _ = update(t, m, closeModalMsg{})
	assert.Empty(t, m.modals)
	assert.False(t, top.mounted)
}

func TestModel_ShowOwnerClosesModals(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	m, _ = update(t, m, openDetailMsg{itemID: 1})
	m, _ = update(t, m, showOwnerMsg{})
	assert.Empty(t, m.modals)
	assert.Equal(t, ViewOwner, m.current)
}

func TestModel_ComposerReceivesDraft(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	draft := gateway.OfferDraft{
		Item:     market.DetailedItem{ID: 21, Name: "Lamp"},
		Proposer: market.UserProfile{Username: "nova", Items: []market.InventoryItem{{ID: 31, Name: "Radio"}}},
	}
	m, cmd := update(t, m, composeOfferMsg{draft: draft})
	require.NotNil(t, cmd)

	got := make(chan tea.Msg, 1)
	go func() { got <- cmd() }()
	select {
	case msg := <-got:
		dm, ok := msg.(draftMsg)
		require.True(t, ok)
		assert.Equal(t, "Lamp", dm.draft.Item.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("composer did not receive the draft")
	}
	_, isComposer := m.topModal().(*offerComposer)
	assert.True(t, isComposer)
}

func TestModel_RememberUserSavesPrefs(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)

	m, _ = update(t, m, rememberUserMsg{username: "marlow"})
	assert.Equal(t, "marlow", m.profile.lastUsername)

	saved, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, "marlow", saved.Username)
	assert.Equal(t, "Slate", saved.Theme)
}

func TestModel_View(t *testing.T) {
	h := newHarness(t)
	m := newModel(t, h)
	assert.Equal(t, "Loading...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, toastMsg{kind: toastError, text: "Like: not logged in"})
	view := m.View()
	assert.Contains(t, view, "swapp")
	assert.Contains(t, view, "✗ Like: not logged in")
}
