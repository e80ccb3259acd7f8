// Package popup models the yes/no confirmation gate shown before destructive selection changes.
package popup

import "sync"

// State is the popup's visibility.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Confirmation is a reusable Hidden/Visible state machine. Continue and Cancel hide it
// and emit true or false to every subscriber; Hide hides it silently.
type Confirmation struct {
	mu        sync.Mutex
	state     State
	nextID    int
	listeners map[int]func(confirmed bool)
}

// NewConfirmation returns a hidden popup with no subscribers.
func NewConfirmation() *Confirmation {
	return &Confirmation{listeners: make(map[int]func(bool))}
}

// State returns the current state.
func (c *Confirmation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive one event per Continue/Cancel click.
func (c *Confirmation) Subscribe(fn func(confirmed bool)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Show makes the popup visible. Showing a visible popup does nothing.
func (c *Confirmation) Show() {
	c.mu.Lock()
	c.state = Visible
	c.mu.Unlock()
}

// Hide hides the popup without emitting an event.
func (c *Confirmation) Hide() {
	c.mu.Lock()
	c.state = Hidden
	c.mu.Unlock()
}

// Continue hides the popup and emits true. It is ignored, returning false, while hidden.
func (c *Confirmation) Continue() bool {
	return c.click(true)
}

// Cancel hides the popup and emits false. It is ignored, returning false, while hidden.
func (c *Confirmation) Cancel() bool {
	return c.click(false)
}

func (c *Confirmation) click(confirmed bool) bool {
	c.mu.Lock()
	if c.state != Visible {
		c.mu.Unlock()
		return false
	}
	c.state = Hidden
	fns := make([]func(bool), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(confirmed)
	}
	return true
}
