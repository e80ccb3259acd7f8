// Package notify counts pending events for the notification badge.
package notify

import "cometweb/internal/reactive"

// Counter is a non-negative count of pending events.
type Counter struct {
	count *reactive.Property[int]
}

// NewCounter returns a counter at zero.
func NewCounter() *Counter {
	return &Counter{count: reactive.NewProperty(0)}
}

// Increment adds one pending event.
func (c *Counter) Increment() int {
	var n int
	c.count.Update(func(v int) int {
		n = v + 1
		return n
	})
	return n
}

// Decrement removes one pending event. The count never drops below zero.
func (c *Counter) Decrement() int {
	var n int
	c.count.Update(func(v int) int {
		n = max(v-1, 0)
		return n
	})
	return n
}

// Reset sets the count back to zero.
func (c *Counter) Reset() {
	c.count.Set(0)
}

// Count returns the number of pending events.
func (c *Counter) Count() int {
	return c.count.Get()
}

// Subscribe is called with the new count whenever it changes.
func (c *Counter) Subscribe(fn func(count int)) (unsubscribe func()) {
	return c.count.Subscribe(func(_, n int) { fn(n) })
}
