package broadcast

import (
	"context"
	"sync"
)

// Slot is a single-slot broadcast channel. Each subscriber owns a Mailbox
// holding at most one unread value; publishing overwrites it.
type Slot[T any] struct {
	mu        sync.Mutex
	mailboxes map[*Mailbox[T]]struct{}
	latest    T
	hasLatest bool
}

// Mailbox receives values published to a Slot after it subscribed.
type Mailbox[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	ready   chan struct{}
	sub     *Subscription
}

// Subscribe opens a mailbox. Values published before the call are not
// delivered to it; use Latest for an initial read.
func (s *Slot[T]) Subscribe() *Mailbox[T] {
	m := &Mailbox[T]{ready: make(chan struct{}, 1)}
	m.sub = newSubscription(func() {
		s.mu.Lock()
		delete(s.mailboxes, m)
		s.mu.Unlock()
	})

	s.mu.Lock()
	if s.mailboxes == nil {
		s.mailboxes = make(map[*Mailbox[T]]struct{})
	}
	s.mailboxes[m] = struct{}{}
	s.mu.Unlock()
	return m
}

// Publish replaces the pending value of every open mailbox with v.
func (s *Slot[T]) Publish(v T) {
	s.mu.Lock()
	s.latest = v
	s.hasLatest = true
	boxes := make([]*Mailbox[T], 0, len(s.mailboxes))
	for m := range s.mailboxes {
		boxes = append(boxes, m)
	}
	s.mu.Unlock()

	for _, m := range boxes {
		m.put(v)
	}
}

// Latest returns the most recently published value.
func (s *Slot[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasLatest
}

func (m *Mailbox[T]) put(v T) {
	m.mu.Lock()
	m.value = v
	m.pending = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled when a value is pending. A signal may be stale if the
// value was already taken; Take reports that with ok=false.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Take returns the pending value once.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if !m.pending {
		return zero, false
	}
	v := m.value
	m.value = zero
	m.pending = false
	return v, true
}

// Wait blocks until a value is pending or ctx ends.
func (m *Mailbox[T]) Wait(ctx context.Context) (T, bool) {
	for {
		if v, ok := m.Take(); ok {
			return v, true
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, false
		case <-m.ready:
		}
	}
}

// Close detaches the mailbox from its Slot and drops any pending value.
func (m *Mailbox[T]) Close() {
	m.sub.Close()
	m.mu.Lock()
	var zero T
	m.value = zero
	m.pending = false
	m.mu.Unlock()
}
