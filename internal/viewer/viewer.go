// Package viewer keeps a rendering surface in step with a scene registry.
//
// Every operation mutates the registry first and then issues the matching narrow
// interop call, holding one lock across both so the surface sees mutations in the
// order they were made. Surface failures are logged and dropped: the registry stays
// authoritative and the surface may lag until the next Resync.
package viewer

import (
	"context"
	"errors"
	"sync"

	"cometweb/internal/interop"
	"cometweb/internal/scene"

	"go.uber.org/zap"
)

// Viewer owns a registry and the renderer it is mirrored into.
type Viewer struct {
	mu          sync.Mutex
	reg         *scene.Registry
	renderer    interop.Renderer
	log         *zap.Logger
	initialized bool
	surface     interop.Surface
	showAxes    bool
}

// New returns a viewer over reg and renderer. A nil logger disables logging.
func New(reg *scene.Registry, renderer interop.Renderer, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Viewer{reg: reg, renderer: renderer, log: log.Named("viewer")}
}

// Init binds the renderer to surface and pushes every primitive already in the registry.
// On failure the viewer stays uninitialized and later operations only touch the registry.
func (v *Viewer) Init(ctx context.Context, surface interop.Surface, showAxes bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.surface, v.showAxes = surface, showAxes
	if err := v.renderer.InitCanvas(ctx, surface, showAxes); err != nil {
		v.initialized = false
		v.log.Warn("init canvas failed", zap.String("surface", surface.Handle), zap.Error(err))
		return err
	}
	v.initialized = true
	v.log.Info("canvas initialized", zap.String("surface", surface.Handle), zap.Bool("show_axes", showAxes))
	for _, p := range v.reg.List() {
		v.push("add", p.ID, func() error { return v.renderer.AddSceneObject(ctx, interop.ObjectFrom(p)) })
	}
	return nil
}

// Initialized reports whether the last Init succeeded.
func (v *Viewer) Initialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

// Resync re-initializes the surface and pushes the whole registry again, e.g. after a browser reconnects.
func (v *Viewer) Resync(ctx context.Context) error {
	v.mu.Lock()
	surface, axes := v.surface, v.showAxes
	v.mu.Unlock()
	return v.Init(ctx, surface, axes)
}

// push runs call if the surface is initialized and logs its failure.
// A surface that reports ErrNotInitialized is marked uninitialized until the next Init.
// Must be called with v.mu held.
func (v *Viewer) push(op, id string, call func() error) {
	if !v.initialized {
		v.log.Debug("surface not initialized, skipping", zap.String("op", op), zap.String("id", id))
		return
	}
	if err := call(); err != nil {
		if errors.Is(err, interop.ErrNotInitialized) {
			v.initialized = false
		}
		v.log.Warn("interop call failed", zap.String("op", op), zap.String("id", id), zap.Error(err))
	}
}

// Add inserts or replaces p and pushes it to the surface.
func (v *Viewer) Add(ctx context.Context, p scene.Primitive) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reg.Add(p)
	v.push("add", p.ID, func() error { return v.renderer.AddSceneObject(ctx, interop.ObjectFrom(p)) })
}

// Remove deletes the primitive and clears it from the surface. Returns false if it did not exist.
func (v *Viewer) Remove(ctx context.Context, id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.reg.Remove(id) {
		return false
	}
	v.push("clear", id, func() error { return v.renderer.ClearSceneObjects(ctx, []string{id}) })
	return true
}

// Clear empties the registry and removes everything it held from the surface.
func (v *Viewer) Clear(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearLocked(ctx)
}

func (v *Viewer) clearLocked(ctx context.Context) {
	ids := v.reg.IDs()
	v.reg.Clear()
	if len(ids) == 0 {
		return
	}
	v.push("clear", "", func() error { return v.renderer.ClearSceneObjects(ctx, ids) })
}

// Replace swaps the registry contents for list, as when the scene is rebuilt from source data.
func (v *Viewer) Replace(ctx context.Context, list []scene.Primitive) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearLocked(ctx)
	for _, p := range list {
		v.reg.Add(p)
		v.push("add", p.ID, func() error { return v.renderer.AddSceneObject(ctx, interop.ObjectFrom(p)) })
	}
	v.log.Info("scene replaced", zap.Int("primitives", len(list)))
}

// Move sets the primitive's position. Returns false, issuing no interop call, if id is unknown.
func (v *Viewer) Move(ctx context.Context, id string, pos scene.Vec3) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.reg.SetTranslation(id, pos[0], pos[1], pos[2]) {
		return false
	}
	v.push("translation", id, func() error { return v.renderer.SetTranslation(ctx, id, pos) })
	return true
}

// Rotate sets the primitive's rotation. Returns false if id is unknown.
func (v *Viewer) Rotate(ctx context.Context, id string, rot scene.Vec3) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.reg.SetRotation(id, rot[0], rot[1], rot[2]) {
		return false
	}
	v.push("rotation", id, func() error { return v.renderer.SetRotation(ctx, id, rot) })
	return true
}

// SetVisible shows or hides the primitive. Returns false if id is unknown.
func (v *Viewer) SetVisible(ctx context.Context, id string, visible bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.reg.SetVisible(id, visible) {
		return false
	}
	v.push("visibility", id, func() error { return v.renderer.SetVisibility(ctx, id, visible) })
	return true
}

// Get returns the primitive with the given id.
func (v *Viewer) Get(id string) (scene.Primitive, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reg.Get(id)
}

// List returns a snapshot of every primitive.
func (v *Viewer) List() []scene.Primitive {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reg.List()
}

// IDs returns every primitive id in ascending order.
func (v *Viewer) IDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reg.IDs()
}

// Pick asks the surface what is under the pointer. ok is false when nothing is hit,
// the surface fails, or it reports an id the registry does not know.
// The lock is not held during the round trip, so other operations proceed meanwhile.
func (v *Viewer) Pick(ctx context.Context) (p scene.Primitive, ok bool) {
	v.mu.Lock()
	initialized := v.initialized
	v.mu.Unlock()
	if !initialized {
		return scene.Primitive{}, false
	}
	id, err := v.renderer.GetPrimitiveIDUnderMouse(ctx)
	if err != nil {
		v.log.Warn("hit test failed", zap.Error(err))
		return scene.Primitive{}, false
	}
	if id == interop.NoPrimitive {
		return scene.Primitive{}, false
	}
	v.mu.Lock()
	p, ok = v.reg.Get(id)
	v.mu.Unlock()
	if !ok {
		v.log.Debug("surface reported unknown primitive", zap.String("id", id))
	}
	return p, ok
}
