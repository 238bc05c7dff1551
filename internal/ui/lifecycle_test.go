package ui

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/market"
)

func TestLifecycle_GenerationsAreUnique(t *testing.T) {
	h := newHarness(t)
	var a, b lifecycle
	a.mount(h.env)
	b.mount(h.env)
	first := a.gen
	a.mount(h.env)

	assert.NotEqual(t, a.gen, b.gen)
	assert.NotEqual(t, first, a.gen)
	assert.False(t, a.current(first))
	assert.True(t, a.current(a.gen))

	a.unmount()
	assert.False(t, a.current(a.gen))
}

func TestLifecycle_UnmountCancelsContext(t *testing.T) {
	h := newHarness(t)
	var l lifecycle
	l.mount(h.env)
	ctx := l.ctx

	l.unmount()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.True(t, l.scope.Closed())
	l.unmount() // idempotent
}

func TestLifecycle_StaleResultIsDropped(t *testing.T) {
	h := newHarness(t)
	seedOwner(h)
	h.login("marlow", "pw")
	g := mountInventory(t, h)
	stale := g.gen

	g.Unmount()
	h.pump(g, g.Mount(h.env))

	cmd := g.Update(archiveDoneMsg{gen: stale, id: 11, archived: true})

	assert.Nil(t, cmd)
	assert.False(t, g.entries[0].Archived)
}

func TestLifecycle_UnmountStopsSessionNotifications(t *testing.T) {
	h := newHarness(t)
	p := newProfilePanel(DefaultKeyMap(), "")
	h.pump(p, p.Mount(h.env))

	h.env.store().PublishLoggedIn(true)
	require.Len(t, h.sent, 1)
	<-h.sent

	p.Unmount()
	h.env.store().PublishLoggedIn(false)
	h.env.store().PublishUser(market.UserProfile{ID: 1, Username: "ghost"})

	assert.Empty(t, h.sent)
}

func TestLifecycle_ModalClosedBeforeReplyChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.srv.AddItem(market.DetailedItem{ID: 21, Name: "Lamp"})
	m := newItemModal(DefaultKeyMap(), 21)

	load := m.Mount(h.env)
	m.Unmount()

	done := make(chan any, 1)
	go func() { done <- load() }()
	var msg any
	select {
	case msg = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("load did not return after unmount")
	}

	assert.Nil(t, m.Update(msg.(detailLoadedMsg)))
	assert.Nil(t, m.detail)
	assert.Nil(t, m.loadErr)
	_, selected := h.env.Items.ItemSelected().Latest()
	assert.False(t, selected)
}
