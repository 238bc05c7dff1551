package broadcast

import "sync"

// Channel delivers every published value to the handlers registered at
// publish time.
type Channel[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns the handle that removes it.
func (c *Channel[T]) Subscribe(fn func(T)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.handlers = append(c.handlers, handlerEntry[T]{id: id, fn: fn})
	return newSubscription(func() { c.remove(id) })
}

// Publish calls every current handler with v, in subscription order, on the
// caller's goroutine. Handlers may subscribe or unsubscribe while running;
// such changes take effect from the next publish.
func (c *Channel[T]) Publish(v T) {
	c.mu.Lock()
	handlers := make([]handlerEntry[T], len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		if !c.active(h.id) {
			continue
		}
		h.fn(v)
	}
}

// Len reports the number of registered handlers.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

func (c *Channel[T]) active(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.handlers {
		if h.id == id {
			return true
		}
	}
	return false
}

func (c *Channel[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.handlers {
		if h.id == id {
			c.handlers = append(c.handlers[:i:i], c.handlers[i+1:]...)
			return
		}
	}
}
