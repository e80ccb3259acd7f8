//go:build js && wasm

// Package babylon calls the Babylon.js bridge of the hosting page directly.
//
// The page must define window.cometBridge (see the server's bridge.js). Every
// bridge method may return a Promise; calls block until it settles, so they must not
// be made from inside a js.FuncOf callback.
package babylon

import (
	"context"
	"fmt"
	"sync"
	"syscall/js"

	"cometweb/internal/interop"

	"go.uber.org/zap"
)

// BridgeName is the global the page exposes.
const BridgeName = "cometBridge"

// ErrNoBridge is returned when the page has not loaded the bridge script.
var ErrNoBridge = fmt.Errorf("babylon: window.%s missing: %w", BridgeName, interop.ErrNotInitialized)

// Renderer is an interop.Renderer for a Babylon scene in the same page.
type Renderer struct {
	mu          sync.Mutex
	initialized bool
	log         *zap.Logger
}

// New returns an uninitialized renderer.
func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log.Named("babylon")}
}

func bridge() (js.Value, error) {
	b := js.Global().Get(BridgeName)
	if b.IsUndefined() || b.IsNull() {
		return js.Value{}, ErrNoBridge
	}
	return b, nil
}

// call invokes a bridge method and waits for the result.
func (r *Renderer) call(ctx context.Context, needInit bool, method string, args ...any) (js.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if needInit && !r.initialized {
		return js.Undefined(), interop.ErrNotInitialized
	}
	b, err := bridge()
	if err != nil {
		return js.Undefined(), err
	}
	v, err := invoke(b, method, args...)
	if err != nil {
		return js.Undefined(), err
	}
	return await(ctx, method, v)
}

// invoke turns a synchronous JS exception into an error.
func invoke(b js.Value, method string, args ...any) (v js.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if jsErr, ok := rec.(js.Error); ok {
				err = fmt.Errorf("babylon %s: %s", method, jsErr.Error())
				return
			}
			err = fmt.Errorf("babylon %s: %v", method, rec)
		}
	}()
	return b.Call(method, args...), nil
}

// await resolves v if it is a thenable, otherwise returns it as is.
func await(ctx context.Context, method string, v js.Value) (js.Value, error) {
	if v.Type() != js.TypeObject || v.Get("then").Type() != js.TypeFunction {
		return v, nil
	}
	type settled struct {
		val js.Value
		err error
	}
	done := make(chan settled, 1)
	onResolve := js.FuncOf(func(_ js.Value, args []js.Value) any {
		val := js.Undefined()
		if len(args) > 0 {
			val = args[0]
		}
		done <- settled{val: val}
		return nil
	})
	onReject := js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "rejected"
		if len(args) > 0 {
			msg = describe(args[0])
		}
		done <- settled{err: fmt.Errorf("babylon %s: %s", method, msg)}
		return nil
	})
	defer onResolve.Release()
	defer onReject.Release()
	v.Call("then", onResolve, onReject)

	select {
	case s := <-done:
		return s.val, s.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

func describe(v js.Value) string {
	if v.Type() == js.TypeObject {
		if msg := v.Get("message"); msg.Type() == js.TypeString {
			return msg.String()
		}
	}
	return v.String()
}

func vec(v [3]float64) []any { return []any{v[0], v[1], v[2]} }

func object(o interop.Object) map[string]any {
	dims := make([]any, len(o.Dimensions))
	for i, d := range o.Dimensions {
		dims[i] = d
	}
	return map[string]any{
		"id":         o.ID,
		"kind":       o.Kind,
		"position":   vec(o.Position),
		"rotation":   vec(o.Rotation),
		"dimensions": dims,
		"visible":    o.Visible,
	}
}

func (r *Renderer) InitCanvas(ctx context.Context, surface interop.Surface, showAxes bool) error {
	s := map[string]any{"handle": surface.Handle, "width": surface.Width, "height": surface.Height}
	if _, err := r.call(ctx, false, "initCanvas", s, showAxes); err != nil {
		return err
	}
	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	r.log.Debug("canvas ready", zap.String("handle", surface.Handle))
	return nil
}

func (r *Renderer) AddSceneObject(ctx context.Context, obj interop.Object) error {
	_, err := r.call(ctx, true, "addSceneObject", object(obj))
	return err
}

func (r *Renderer) ClearSceneObjects(ctx context.Context, ids []string) error {
	list := make([]any, len(ids))
	for i, id := range ids {
		list[i] = id
	}
	_, err := r.call(ctx, true, "clearSceneObjects", list)
	return err
}

func (r *Renderer) SetVisibility(ctx context.Context, id string, visible bool) error {
	_, err := r.call(ctx, true, "setVisibility", id, visible)
	return err
}

func (r *Renderer) SetTranslation(ctx context.Context, id string, pos [3]float64) error {
	_, err := r.call(ctx, true, "setTranslation", id, vec(pos))
	return err
}

func (r *Renderer) SetRotation(ctx context.Context, id string, rot [3]float64) error {
	_, err := r.call(ctx, true, "setRotation", id, vec(rot))
	return err
}

func (r *Renderer) GetPrimitiveIDUnderMouse(ctx context.Context) (string, error) {
	v, err := r.call(ctx, true, "getPrimitiveIdUnderMouse")
	if err != nil {
		return interop.NoPrimitive, err
	}
	if v.Type() != js.TypeString {
		return interop.NoPrimitive, nil
	}
	return v.String(), nil
}

// Reset marks the renderer uninitialized, e.g. after the page rebuilt its scene.
func (r *Renderer) Reset() {
	r.mu.Lock()
	r.initialized = false
	r.mu.Unlock()
}

var _ interop.Renderer = (*Renderer)(nil)
