// Package scene holds the authoritative in-memory set of primitives.
// It knows nothing about rendering; renderers are kept in sync by internal/viewer.
package scene

import "sort"

// Registry maps primitive ids to primitives. The zero value is not usable; call NewRegistry.
//
// Registry is not safe for concurrent use. Callers that mutate it from more than
// one goroutine must provide their own locking.
type Registry struct {
	items map[string]Primitive
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Primitive)}
}

// Add inserts p, replacing any primitive with the same id.
func (r *Registry) Add(p Primitive) {
	r.items[p.ID] = p.clone()
}

// Get returns the primitive with the given id. ok is false when there is none.
func (r *Registry) Get(id string) (p Primitive, ok bool) {
	p, ok = r.items[id]
	if !ok {
		return Primitive{}, false
	}
	return p.clone(), true
}

// List returns a snapshot of all primitives. Later mutations do not affect it.
func (r *Registry) List() []Primitive {
	out := make([]Primitive, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.clone())
	}
	return out
}

// IDs returns the ids of all primitives in ascending order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of primitives.
func (r *Registry) Len() int {
	return len(r.items)
}

// Remove deletes the primitive with the given id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}

// Clear removes every primitive.
func (r *Registry) Clear() {
	r.items = make(map[string]Primitive)
}

// SetTranslation moves the primitive to (x, y, z). Rotation and visibility are untouched.
// Returns false if id is unknown.
func (r *Registry) SetTranslation(id string, x, y, z float64) bool {
	p, ok := r.items[id]
	if !ok {
		return false
	}
	p.Position = Vec3{x, y, z}
	r.items[id] = p
	return true
}

// SetRotation sets the primitive's rotation angles. Returns false if id is unknown.
func (r *Registry) SetRotation(id string, rx, ry, rz float64) bool {
	p, ok := r.items[id]
	if !ok {
		return false
	}
	p.Rotation = Vec3{rx, ry, rz}
	r.items[id] = p
	return true
}

// SetVisible sets the visible flag. Returns false if id is unknown.
func (r *Registry) SetVisible(id string, visible bool) bool {
	p, ok := r.items[id]
	if !ok {
		return false
	}
	p.Visible = visible
	r.items[id] = p
	return true
}
