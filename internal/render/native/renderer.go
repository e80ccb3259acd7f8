// Package native renders the scene in a desktop window with raylib.
//
// Renderer methods only update shared state, so they are safe from any goroutine.
// Run owns the window and must be called from the main goroutine: raylib locks it
// to the OS thread at init.
package native

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cometweb/internal/interop"
	"cometweb/internal/render/hittest"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

const (
	defaultWidth  = 1280
	defaultHeight = 720
	targetFPS     = 60
)

// Hooks connect the frame loop to the rest of the app.
type Hooks struct {
	// OnClick runs in its own goroutine after a left click in the window.
	OnClick func()
	// Selected returns the id to draw highlighted.
	Selected func() string
	// OnCommand runs each line entered in the command bar, in its own
	// goroutine. Without it ESC closes the window as usual.
	OnCommand func(line string)
	// Lines feeds the log shown above the command bar.
	Lines func() []string
	// ShowStats starts with the FPS and heap counters on. F3 toggles them.
	ShowStats bool
}

// Renderer is an interop.Renderer drawing into a raylib window.
type Renderer struct {
	mu          sync.Mutex
	objects     map[string]interop.Object
	initialized bool
	surface     interop.Surface
	showAxes    bool
	hovered     string
	retitle     bool
	ready       chan struct{}
	readyOnce   sync.Once

	gridVisible bool
	log         *zap.Logger
}

// New returns a renderer whose window opens on the first InitCanvas.
func New(gridVisible bool, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		objects:     make(map[string]interop.Object),
		ready:       make(chan struct{}),
		gridVisible: gridVisible,
		log:         log.Named("native"),
	}
}

// InitCanvas binds the window title and size and drops any previous objects.
func (r *Renderer) InitCanvas(_ context.Context, surface interop.Surface, showAxes bool) error {
	if surface.Handle == "" {
		return fmt.Errorf("native: empty surface handle")
	}
	if surface.Width <= 0 || surface.Height <= 0 {
		surface.Width, surface.Height = defaultWidth, defaultHeight
	}
	r.mu.Lock()
	r.retitle = r.initialized && surface.Handle != r.surface.Handle
	r.surface = surface
	r.showAxes = showAxes
	r.initialized = true
	r.hovered = interop.NoPrimitive
	clear(r.objects)
	r.mu.Unlock()
	r.readyOnce.Do(func() { close(r.ready) })
	return nil
}

func (r *Renderer) AddSceneObject(_ context.Context, obj interop.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return interop.ErrNotInitialized
	}
	r.objects[obj.ID] = obj
	return nil
}

func (r *Renderer) ClearSceneObjects(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return interop.ErrNotInitialized
	}
	for _, id := range ids {
		delete(r.objects, id)
		if r.hovered == id {
			r.hovered = interop.NoPrimitive
		}
	}
	return nil
}

// update applies fn to a known object. Unknown ids are ignored, matching a page
// that has no mesh by that name.
func (r *Renderer) update(id string, fn func(*interop.Object)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return interop.ErrNotInitialized
	}
	obj, ok := r.objects[id]
	if !ok {
		r.log.Debug("unknown object", zap.String("id", id))
		return nil
	}
	fn(&obj)
	r.objects[id] = obj
	return nil
}

func (r *Renderer) SetVisibility(_ context.Context, id string, visible bool) error {
	return r.update(id, func(o *interop.Object) { o.Visible = visible })
}

func (r *Renderer) SetTranslation(_ context.Context, id string, pos [3]float64) error {
	return r.update(id, func(o *interop.Object) { o.Position = pos })
}

func (r *Renderer) SetRotation(_ context.Context, id string, rot [3]float64) error {
	return r.update(id, func(o *interop.Object) { o.Rotation = rot })
}

// GetPrimitiveIDUnderMouse returns what the cursor hovered over in the last frame.
func (r *Renderer) GetPrimitiveIDUnderMouse(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		return interop.NoPrimitive, interop.ErrNotInitialized
	}
	return r.hovered, nil
}

// snapshot copies the frame state, sorted by id for a stable draw order.
func (r *Renderer) snapshot() (objs []interop.Object, showAxes bool, retitle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	objs = make([]interop.Object, 0, len(r.objects))
	for _, o := range r.objects {
		objs = append(objs, o)
	}
	if r.retitle {
		retitle = r.surface.Handle
		r.retitle = false
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	return objs, r.showAxes, retitle
}

func (r *Renderer) setHovered(id string) {
	r.mu.Lock()
	r.hovered = id
	r.mu.Unlock()
}

// Run waits for the first InitCanvas, opens the window and draws until the
// window closes or ctx is done.
func (r *Renderer) Run(ctx context.Context, hooks Hooks) error {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.mu.Lock()
	surface := r.surface
	r.mu.Unlock()

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(surface.Width), int32(surface.Height), surface.Handle)
	defer rl.CloseWindow()
	rl.SetTargetFPS(targetFPS)
	ov := &overlay{submit: hooks.OnCommand, lines: hooks.Lines, showStats: hooks.ShowStats}
	if ov.submit != nil {
		rl.SetExitKey(rl.KeyNull)
	}
	r.log.Info("window opened", zap.String("title", surface.Handle),
		zap.Int("width", surface.Width), zap.Int("height", surface.Height))

	st := newStage()
	st.gridVisible = r.gridVisible
	m := newMeshes()
	defer m.unload()

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			break
		}
		objs, showAxes, retitle := r.snapshot()
		if retitle != "" {
			rl.SetWindowTitle(retitle)
		}
		st.showAxes = showAxes
		ov.update()
		if !ov.open {
			st.update()
		}

		hovered := interop.NoPrimitive
		if !st.orbiting {
			hovered = hittest.Nearest(st.mouseRay(), objs)
		}
		r.setHovered(hovered)
		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && hooks.OnClick != nil {
			go hooks.OnClick()
		}
		selected := interop.NoPrimitive
		if hooks.Selected != nil {
			selected = hooks.Selected()
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(24, 26, 30, 255))
		rl.BeginMode3D(st.camera)
		st.drawHelpers()
		m.setView(st.viewPos())
		for _, o := range objs {
			if !o.Visible {
				continue
			}
			tint := baseColor
			switch o.ID {
			case selected:
				tint = selectColor
			case hovered:
				tint = hoverColor
			}
			m.draw(o, tint)
		}
		rl.EndMode3D()
		if hovered != interop.NoPrimitive {
			rl.DrawText(hovered, 10, 10, 20, rl.RayWhite)
		}
		ov.draw()
		rl.EndDrawing()
	}
	r.log.Info("window closed")
	return nil
}

var _ interop.Renderer = (*Renderer)(nil)
