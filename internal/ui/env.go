package ui

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

// Env is what the composition root hands to every component.
type Env struct {
	Ctx     context.Context
	Session *session.Service
	Items   *gateway.Items
	Offers  *gateway.Offers
	Profile *gateway.Profile
	Logger  *slog.Logger
	LogFile string

	// Send delivers a message to the running program from any goroutine.
	// Session subscriptions use it; it is set once the program exists.
	Send func(tea.Msg)
}

func (e *Env) store() *session.Store { return e.Session.Store() }

func (e *Env) send(msg tea.Msg) {
	if e.Send != nil {
		e.Send(msg)
	}
}

// component is one independently mounted view.
type component interface {
	Mount(env *Env) tea.Cmd
	Unmount()
	Update(msg tea.Msg) tea.Cmd
	View(theme Theme, width, height int) string
}

// capturer is implemented by components that can take raw key input.
type capturer interface {
	Capturing() bool
}

var generations atomic.Uint64

// lifecycle tracks one mount of a component. Every async result carries the
// generation it was started under and is dropped unless that mount is still
// current; unmount cancels in-flight calls and releases every subscription.
type lifecycle struct {
	env     *Env
	scope   *broadcast.Scope
	ctx     context.Context
	gen     uint64
	mounted bool
}

func (l *lifecycle) mount(env *Env) {
	l.unmount()
	parent := env.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	l.env = env
	l.ctx = ctx
	l.scope = &broadcast.Scope{}
	l.scope.Add(broadcast.ReleaseFunc(cancel))
	l.gen = generations.Add(1)
	l.mounted = true
}

func (l *lifecycle) unmount() {
	if !l.mounted {
		return
	}
	l.mounted = false
	l.scope.Close()
}

// current reports whether a result started under gen may still be applied.
func (l *lifecycle) current(gen uint64) bool {
	return l.mounted && gen == l.gen
}

// call runs fn off the UI goroutine and wraps its result for this mount.
func (l *lifecycle) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	ctx := l.ctx
	return func() tea.Msg {
		return fn(ctx)
	}
}

// await delivers every value published on box while mounted.
func await[T any](l *lifecycle, box *broadcast.Mailbox[T], wrap func(gen uint64, v T) tea.Msg) tea.Cmd {
	ctx, gen := l.ctx, l.gen
	return func() tea.Msg {
		v, ok := box.Wait(ctx)
		if !ok {
			return nil
		}
		return wrap(gen, v)
	}
}

// Messages shared between components and the root model.

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toastMsg struct {
	kind toastKind
	text string
}

type toast struct {
	toastMsg
	expires time.Time
}

func notify(kind toastKind, text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{kind: kind, text: text} }
}

// failed shows err as exactly one error toast.
func failed(prefix string, err error) tea.Cmd {
	text := gateway.Describe(err)
	if prefix != "" {
		text = prefix + ": " + text
	}
	return notify(toastError, text)
}

// openDetailMsg asks the root to open the item modal.
type openDetailMsg struct{ itemID int64 }

// composeOfferMsg asks the root to open the offer composer for a draft.
type composeOfferMsg struct{ draft gateway.OfferDraft }

// showOwnerMsg asks the root to switch to the owner view.
type showOwnerMsg struct{}

// closeModalMsg asks the root to unmount the topmost modal.
type closeModalMsg struct{}

// rememberUserMsg asks the root to store the last login in prefs.
type rememberUserMsg struct{ username string }

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Session notifications, tagged with the mount that subscribed.

type loggedInMsg struct {
	gen      uint64
	loggedIn bool
}

type userMsg struct {
	gen  uint64
	user *market.UserProfile
}

type accountMsg struct {
	gen     uint64
	account *market.Account
}

func (l *lifecycle) watchLoggedIn() {
	env, gen := l.env, l.gen
	l.scope.Add(env.store().SubscribeLoggedIn(func(v bool) {
		env.send(loggedInMsg{gen: gen, loggedIn: v})
	}))
}

func (l *lifecycle) watchUser() {
	env, gen := l.env, l.gen
	l.scope.Add(env.store().SubscribeUser(func(u market.UserProfile) {
		msg := userMsg{gen: gen}
		if u.ID != 0 || u.Username != "" {
			msg.user = &u
		}
		env.send(msg)
	}))
}

func (l *lifecycle) watchAccount() {
	env, gen := l.env, l.gen
	l.scope.Add(env.store().SubscribeAccount(func(a market.Account) {
		msg := accountMsg{gen: gen}
		if a.ID != 0 || a.Username != "" {
			msg.account = &a
		}
		env.send(msg)
	}))
}
