package broadcast

import "sync"

// Releaser is anything a Scope can release.
type Releaser interface {
	Close()
}

// ReleaseFunc adapts a plain function, such as a context.CancelFunc, to
// Releaser.
type ReleaseFunc func()

// Close calls f.
func (f ReleaseFunc) Close() {
	if f != nil {
		f()
	}
}

// Subscription removes a handler or mailbox when closed. Close is idempotent.
type Subscription struct {
	once    sync.Once
	release func()
}

func newSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}

// Scope collects releasers so a component can drop all of them at once,
// typically with defer on every exit path.
type Scope struct {
	mu       sync.Mutex
	items    []Releaser
	released bool
}

// Add registers r with the scope. Adding to a closed scope releases r
// immediately so late registrations cannot leak.
func (s *Scope) Add(r Releaser) {
	if r == nil {
		return
	}
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		r.Close()
		return
	}
	s.items = append(s.items, r)
	s.mu.Unlock()
}

// Close releases everything in reverse registration order.
func (s *Scope) Close() {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.released = true
	s.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Close()
	}
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
