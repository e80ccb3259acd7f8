package native

import (
	"cometweb/internal/render/hittest"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	gridExtent     = 50
	gridMinorStep  = 1
	gridMajorStep  = 10
	gridMinorAlpha = 50
	gridMajorAlpha = 120
	axisLineAlpha  = 220
)

// stage holds the 3D camera and draws the editor grid and axis lines.
// Based on raylib examples/core/core_3d_camera_free.
type stage struct {
	camera      rl.Camera3D
	gridVisible bool
	showAxes    bool
	orbiting    bool
}

// newStage returns a perspective camera at (10,10,10) looking at the origin, fovy 45.
func newStage() *stage {
	s := &stage{gridVisible: true}
	s.camera.Position = rl.NewVector3(10, 10, 10)
	s.camera.Target = rl.NewVector3(0, 0, 0)
	s.camera.Up = rl.NewVector3(0, 1, 0)
	s.camera.Fovy = 45
	s.camera.Projection = rl.CameraPerspective
	return s
}

// update moves the camera while the right mouse button is held, leaving left clicks for picking.
func (s *stage) update() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		if !s.orbiting {
			rl.DisableCursor()
			s.orbiting = true
		}
		rl.UpdateCamera(&s.camera, rl.CameraFree)
		return
	}
	if s.orbiting {
		rl.EnableCursor()
		s.orbiting = false
	}
	// Wheel zoom stays available without capturing the cursor.
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		rl.UpdateCameraPro(&s.camera, rl.Vector3Zero(), rl.Vector3Zero(), -wheel)
	}
}

// mouseRay returns the pick ray under the cursor.
func (s *stage) mouseRay() hittest.Ray {
	r := rl.GetScreenToWorldRay(rl.GetMousePosition(), s.camera)
	return hittest.Ray{
		Origin: hittest.Vec{r.Position.X, r.Position.Y, r.Position.Z},
		Dir:    hittest.Vec{r.Direction.X, r.Direction.Y, r.Direction.Z},
	}
}

// viewPos is the camera position in the form the lit shader takes.
func (s *stage) viewPos() [3]float32 {
	p := s.camera.Position
	return [3]float32{p.X, p.Y, p.Z}
}

// drawHelpers draws the grid and axis lines. Must run between BeginMode3D and EndMode3D.
func (s *stage) drawHelpers() {
	if s.gridVisible {
		drawEditorGrid()
	}
	if s.showAxes {
		drawAxes()
	}
}

// drawEditorGrid draws a grid on the XZ plane with major and minor lines.
// Reuses start/end vectors to avoid per-frame allocations in the hot loop.
func drawEditorGrid() {
	minor := rl.NewColor(128, 128, 128, gridMinorAlpha)
	major := rl.NewColor(160, 160, 160, gridMajorAlpha)

	var start, end rl.Vector3
	for x := -gridExtent; x <= gridExtent; x += gridMinorStep {
		c := major
		if x%gridMajorStep != 0 {
			c = minor
		}
		start.X, start.Y, start.Z = float32(x), 0, float32(-gridExtent)
		end.X, end.Y, end.Z = float32(x), 0, float32(gridExtent)
		rl.DrawLine3D(start, end, c)
	}
	for z := -gridExtent; z <= gridExtent; z += gridMinorStep {
		c := major
		if z%gridMajorStep != 0 {
			c = minor
		}
		start.X, start.Y, start.Z = float32(-gridExtent), 0, float32(z)
		end.X, end.Y, end.Z = float32(gridExtent), 0, float32(z)
		rl.DrawLine3D(start, end, c)
	}
}

// drawAxes draws lines through the origin (X red, Y green, Z blue).
func drawAxes() {
	rl.DrawLine3D(rl.NewVector3(-gridExtent, 0, 0), rl.NewVector3(gridExtent, 0, 0), rl.NewColor(220, 80, 80, axisLineAlpha))
	rl.DrawLine3D(rl.NewVector3(0, -gridExtent, 0), rl.NewVector3(0, gridExtent, 0), rl.NewColor(80, 220, 80, axisLineAlpha))
	rl.DrawLine3D(rl.NewVector3(0, 0, -gridExtent), rl.NewVector3(0, 0, gridExtent), rl.NewColor(80, 80, 220, axisLineAlpha))
}
