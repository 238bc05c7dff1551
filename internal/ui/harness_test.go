package ui

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/five82/swapp/internal/apitest"
	"github.com/five82/swapp/internal/gateway"
	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

// quiet is how long pump waits for a result before treating the remaining
// commands as blocked (mailbox waits).
const quiet = 300 * time.Millisecond

// harness wires components to a fake API and runs their commands the way
// the Bubble Tea runtime would, collecting toasts and root messages.
type harness struct {
	t   *testing.T
	srv *apitest.Server
	env *Env

	sent chan tea.Msg

	// results and pending persist across pumps so a command blocked on a
	// mailbox still delivers into a later pump.
	results chan tea.Msg
	pending int

	mu      sync.Mutex
	toasts  []toastMsg
	emitted []tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.New(t)
	client, err := market.NewClient(srv.URL, market.Options{RequestsPerSecond: 1000})
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	policy := gateway.NewImagePolicy(client.BaseURL(), nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		t:       t,
		srv:     srv,
		sent:    make(chan tea.Msg, 256),
		results: make(chan tea.Msg, 256),
	}
	h.env = &Env{
		Ctx:     ctx,
		Session: session.NewService(&session.Store{}, client, logger),
		Items:   gateway.NewItems(client, policy, logger),
		Offers:  gateway.NewOffers(client, logger),
		Profile: gateway.NewProfile(client, logger),
		Logger:  logger,
		Send:    func(msg tea.Msg) { h.sent <- msg },
	}
	return h
}

// login signs in through the session service, outside any component.
func (h *harness) login(username, password string) {
	h.t.Helper()
	_, err := h.env.Session.Login(context.Background(), market.Credentials{Username: username, Password: password}, false)
	require.NoError(h.t, err)
}

// pump runs cmd and everything it leads to against c until no result has
// arrived for the quiet period.
func (h *harness) pump(c component, cmd tea.Cmd) {
	h.t.Helper()
	start := func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		h.pending++
		go func() { h.results <- cmd() }()
	}

	var handle func(msg tea.Msg)
	handle = func(msg tea.Msg) {
		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			for _, cmd := range msg {
				start(cmd)
			}
		case toastMsg:
			h.mu.Lock()
			h.toasts = append(h.toasts, msg)
			h.mu.Unlock()
		case openDetailMsg, composeOfferMsg, showOwnerMsg, closeModalMsg, rememberUserMsg:
			h.mu.Lock()
			h.emitted = append(h.emitted, msg)
			h.mu.Unlock()
		default:
			start(c.Update(msg))
		}
	}

	start(cmd)
	for {
		if h.pending == 0 && len(h.sent) == 0 {
			return
		}
		select {
		case msg := <-h.results:
			h.pending--
			handle(msg)
		case msg := <-h.sent:
			handle(msg)
		case <-time.After(quiet):
			return
		}
	}
}

// key sends a key press to c and pumps the result.
func (h *harness) key(c component, keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.pump(c, c.Update(keyMsg(k)))
	}
}

// typeText feeds runes one by one, as a terminal would. Typing into an
// input produces no commands worth running.
func (h *harness) typeText(c component, text string) {
	h.t.Helper()
	for _, r := range text {
		_ = c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) takeToasts() []toastMsg {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.toasts
	h.toasts = nil
	return out
}

func (h *harness) takeEmitted() []tea.Msg {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.emitted
	h.emitted = nil
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func toastsOf(toasts []toastMsg, kind toastKind) []toastMsg {
	var out []toastMsg
	for _, t := range toasts {
		if t.kind == kind {
			out = append(out, t)
		}
	}
	return out
}
