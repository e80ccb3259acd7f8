// Package rendertest provides an in-memory interop.Renderer that records calls.
package rendertest

import (
	"context"
	"fmt"
	"sync"

	"cometweb/internal/interop"
)

// Call is one recorded renderer invocation.
type Call struct {
	Op   string
	ID   string
	IDs  []string
	Obj  interop.Object
	Vec  [3]float64
	Flag bool
}

func (c Call) String() string {
	switch c.Op {
	case "add":
		return "add " + c.Obj.ID
	case "clear":
		return fmt.Sprintf("clear %v", c.IDs)
	case "visibility":
		return fmt.Sprintf("visibility %s %t", c.ID, c.Flag)
	case "translation", "rotation":
		return fmt.Sprintf("%s %s %v", c.Op, c.ID, c.Vec)
	default:
		return c.Op
	}
}

// Recorder is a fake surface. It tracks the objects it was told about so tests can
// compare it with the registry, and fails any call whose op is in Fail.
type Recorder struct {
	mu          sync.Mutex
	initialized bool
	showAxes    bool
	calls       []Call
	objects     map[string]interop.Object

	// Fail maps an op name (init, add, clear, visibility, translation, rotation, pick) to the error it returns.
	Fail map[string]error
	// UnderMouse is what GetPrimitiveIDUnderMouse reports.
	UnderMouse string
}

// NewRecorder returns an uninitialized recorder.
func NewRecorder() *Recorder {
	return &Recorder{objects: make(map[string]interop.Object), Fail: make(map[string]error)}
}

func (r *Recorder) record(c Call) error {
	if err := r.Fail[c.Op]; err != nil {
		return err
	}
	if c.Op != "init" && !r.initialized {
		return interop.ErrNotInitialized
	}
	r.calls = append(r.calls, c)
	return nil
}

func (r *Recorder) InitCanvas(_ context.Context, _ interop.Surface, showAxes bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "init", Flag: showAxes}); err != nil {
		return err
	}
	r.initialized = true
	r.showAxes = showAxes
	return nil
}

func (r *Recorder) AddSceneObject(_ context.Context, obj interop.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "add", Obj: obj, ID: obj.ID}); err != nil {
		return err
	}
	r.objects[obj.ID] = obj
	return nil
}

func (r *Recorder) ClearSceneObjects(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "clear", IDs: append([]string(nil), ids...)}); err != nil {
		return err
	}
	for _, id := range ids {
		delete(r.objects, id)
	}
	return nil
}

func (r *Recorder) SetVisibility(_ context.Context, id string, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "visibility", ID: id, Flag: visible}); err != nil {
		return err
	}
	if o, ok := r.objects[id]; ok {
		o.Visible = visible
		r.objects[id] = o
	}
	return nil
}

func (r *Recorder) SetTranslation(_ context.Context, id string, pos [3]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "translation", ID: id, Vec: pos}); err != nil {
		return err
	}
	if o, ok := r.objects[id]; ok {
		o.Position = pos
		r.objects[id] = o
	}
	return nil
}

func (r *Recorder) SetRotation(_ context.Context, id string, rot [3]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "rotation", ID: id, Vec: rot}); err != nil {
		return err
	}
	if o, ok := r.objects[id]; ok {
		o.Rotation = rot
		r.objects[id] = o
	}
	return nil
}

func (r *Recorder) GetPrimitiveIDUnderMouse(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record(Call{Op: "pick"}); err != nil {
		return interop.NoPrimitive, err
	}
	return r.UnderMouse, nil
}

// Calls returns a copy of the successful calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the String form of every successful call, handy for ordering assertions.
func (r *Recorder) Ops() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Object returns what the surface currently shows for id.
func (r *Recorder) Object(id string) (interop.Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[id]
	return o, ok
}

// Len is the number of objects on the surface.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// ShowAxes reports the flag passed to the last successful InitCanvas.
func (r *Recorder) ShowAxes() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.showAxes
}

// Reset forgets calls and objects but keeps the initialized state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.objects = make(map[string]interop.Object)
}

var _ interop.Renderer = (*Recorder)(nil)
