// Package selection tracks the selected primitive and gates changes behind a confirmation
// popup while the current selection has unsaved edits.
package selection

import (
	"errors"
	"sync"

	"cometweb/internal/popup"
	"cometweb/internal/reactive"
)

// ErrUnknown is returned when selecting an id the lookup does not know.
var ErrUnknown = errors.New("selection: unknown primitive")

// Outcome says what Request did.
type Outcome int

const (
	// Selected means the selection switched immediately.
	Selected Outcome = iota
	// Pending means the popup is showing and the switch waits for a click.
	Pending
	// Unchanged means the id was already selected.
	Unchanged
)

// Controller owns the current selection. Lookup reports whether an id exists.
type Controller struct {
	mu      sync.Mutex
	current *reactive.Property[string]
	dirty   bool
	parked  bool
	pending string
	lookup  func(id string) bool
	popup   *popup.Confirmation
}

// NewController wires a controller to popup. Clicks on the popup resolve pending requests.
func NewController(lookup func(id string) bool, p *popup.Confirmation) *Controller {
	c := &Controller{
		current: reactive.NewProperty(""),
		lookup:  lookup,
		popup:   p,
	}
	p.Subscribe(c.resolve)
	return c
}

// Current returns the selected id, or "" for none.
func (c *Controller) Current() string {
	return c.current.Get()
}

// Pending returns the id waiting for confirmation, or "".
func (c *Controller) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Subscribe is called with the new id whenever the selection changes.
func (c *Controller) Subscribe(fn func(id string)) (unsubscribe func()) {
	return c.current.Subscribe(func(_, id string) { fn(id) })
}

// MarkDirty records that the selected primitive has unsaved edits.
func (c *Controller) MarkDirty() {
	c.mu.Lock()
	c.dirty = c.current.Get() != ""
	c.mu.Unlock()
}

// Dirty reports whether a change of selection needs confirmation.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Request asks to select id ("" clears the selection). With unsaved edits the popup is shown
// and the request parks until Continue or Cancel. The dirty check and the switch happen
// under one lock, so a concurrent MarkDirty either gates this request or marks the new selection.
func (c *Controller) Request(id string) (Outcome, error) {
	if id != "" && !c.lookup(id) {
		return Unchanged, ErrUnknown
	}
	c.mu.Lock()
	if id == c.current.Get() {
		c.pending, c.parked = "", false
		c.mu.Unlock()
		return Unchanged, nil
	}
	if c.dirty {
		c.pending, c.parked = id, true
		c.mu.Unlock()
		c.popup.Show()
		return Pending, nil
	}
	_, notify := c.current.Stage(id)
	c.mu.Unlock()
	notify()
	return Selected, nil
}

// Forget drops the selection if it points at id, e.g. after the primitive was removed.
func (c *Controller) Forget(id string) {
	c.mu.Lock()
	if c.parked && c.pending == id {
		c.pending, c.parked = "", false
	}
	if c.current.Get() != id {
		c.mu.Unlock()
		return
	}
	c.dirty = false
	_, notify := c.current.Stage("")
	c.mu.Unlock()
	notify()
}

func (c *Controller) resolve(confirmed bool) {
	c.mu.Lock()
	target, parked := c.pending, c.parked
	c.pending, c.parked = "", false
	if !parked || !confirmed {
		c.mu.Unlock()
		return
	}
	c.dirty = false
	_, notify := c.current.Stage(target)
	c.mu.Unlock()
	notify()
}
