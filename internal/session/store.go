package session

import (
	"sync"

	"github.com/five82/swapp/internal/broadcast"
	"github.com/five82/swapp/internal/market"
)

// Session is the authentication state shared by every mounted view.
type Session struct {
	LoggedIn bool
	User     *market.UserProfile
	Account  *market.Account
}

// Store owns the Session and broadcasts every replacement of one of its
// fields. Reads return copies; fields only change through Publish*.
type Store struct {
	mu      sync.RWMutex
	session Session

	// userMu orders user replacements so subscribers see them in the order
	// they were stored.
	userMu sync.Mutex

	loggedIn broadcast.Channel[bool]
	user     broadcast.Channel[market.UserProfile]
	account  broadcast.Channel[market.Account]
}

// IsLoggedIn reads the current flag.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.LoggedIn
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Session{LoggedIn: s.session.LoggedIn}
	if s.session.User != nil {
		u := cloneUser(*s.session.User)
		snap.User = &u
	}
	if s.session.Account != nil {
		a := cloneAccount(*s.session.Account)
		snap.Account = &a
	}
	return snap
}

// PublishLoggedIn replaces the login flag and notifies subscribers.
func (s *Store) PublishLoggedIn(v bool) {
	s.mu.Lock()
	s.session.LoggedIn = v
	s.mu.Unlock()
	s.loggedIn.Publish(v)
}

// PublishUser replaces the public profile. A zero profile clears it.
func (s *Store) PublishUser(u market.UserProfile) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	u = cloneUser(u)
	s.mu.Lock()
	if u.ID == 0 && u.Username == "" {
		s.session.User = nil
	} else {
		stored := cloneUser(u)
		s.session.User = &stored
	}
	s.mu.Unlock()
	s.user.Publish(u)
}

// UpdateUser applies edit to the stored profile and publishes the result,
// as one step with respect to other user updates. edit receives a copy and
// must not call back into the Store. It reports false, publishing nothing,
// when no user is stored.
func (s *Store) UpdateUser(edit func(market.UserProfile) market.UserProfile) bool {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	s.mu.Lock()
	if s.session.User == nil {
		s.mu.Unlock()
		return false
	}
	u := cloneUser(edit(cloneUser(*s.session.User)))
	stored := cloneUser(u)
	s.session.User = &stored
	s.mu.Unlock()

	s.user.Publish(u)
	return true
}

// PublishAccount replaces the private account. A zero account clears it.
func (s *Store) PublishAccount(a market.Account) {
	a = cloneAccount(a)
	s.mu.Lock()
	if a.ID == 0 && a.Username == "" {
		s.session.Account = nil
	} else {
		stored := cloneAccount(a)
		s.session.Account = &stored
	}
	s.mu.Unlock()
	s.account.Publish(a)
}

// SubscribeLoggedIn registers fn for future login flag changes.
func (s *Store) SubscribeLoggedIn(fn func(bool)) *broadcast.Subscription {
	return s.loggedIn.Subscribe(fn)
}

// SubscribeUser registers fn for future public profile changes.
func (s *Store) SubscribeUser(fn func(market.UserProfile)) *broadcast.Subscription {
	return s.user.Subscribe(fn)
}

// SubscribeAccount registers fn for future account changes.
func (s *Store) SubscribeAccount(fn func(market.Account)) *broadcast.Subscription {
	return s.account.Subscribe(fn)
}

func cloneUser(u market.UserProfile) market.UserProfile {
	if u.Items != nil {
		u.Items = append([]market.InventoryItem(nil), u.Items...)
	}
	if u.InterestedBy != nil {
		u.InterestedBy = append([]market.Category(nil), u.InterestedBy...)
	}
	return u
}

func cloneAccount(a market.Account) market.Account {
	if a.Categories != nil {
		a.Categories = append([]market.Category(nil), a.Categories...)
	}
	return a
}
