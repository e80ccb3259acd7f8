// Package reactive provides observable values for state that UI surfaces bind to.
package reactive

import "sync"

// Property holds a value and notifies subscribers when Set changes it.
// Listeners run synchronously on the goroutine that called Set, outside the lock,
// so a listener may read the property again.
type Property[T comparable] struct {
	mu        sync.Mutex
	value     T
	nextID    int
	listeners map[int]func(old, new T)
}

// NewProperty returns a property holding initial.
func NewProperty[T comparable](initial T) *Property[T] {
	return &Property[T]{value: initial, listeners: make(map[int]func(old, new T))}
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Set stores v. Subscribers are notified only if v differs from the current value.
// Returns whether the value changed.
func (p *Property[T]) Set(v T) bool {
	changed, notify := p.Stage(v)
	notify()
	return changed
}

// Stage stores v like Set but leaves notification to the caller: notify runs the
// listeners and is a no-op when nothing changed. It lets an owner store the value
// while holding its own lock and notify after releasing it.
func (p *Property[T]) Stage(v T) (changed bool, notify func()) {
	p.mu.Lock()
	if p.value == v {
		p.mu.Unlock()
		return false, func() {}
	}
	old := p.value
	p.value = v
	fns := p.snapshotLocked()
	p.mu.Unlock()

	return true, func() {
		for _, fn := range fns {
			fn(old, v)
		}
	}
}

// Update applies fn to the current value and stores the result, as one atomic step.
func (p *Property[T]) Update(fn func(T) T) bool {
	p.mu.Lock()
	old := p.value
	v := fn(old)
	if v == old {
		p.mu.Unlock()
		return false
	}
	p.value = v
	fns := p.snapshotLocked()
	p.mu.Unlock()

	for _, l := range fns {
		l(old, v)
	}
	return true
}

// Subscribe registers fn for change notifications. The returned func removes it.
func (p *Property[T]) Subscribe(fn func(old, new T)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Property[T]) snapshotLocked() []func(old, new T) {
	fns := make([]func(old, new T), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	return fns
}
