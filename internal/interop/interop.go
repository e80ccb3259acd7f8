// Package interop defines the call boundary between the scene and an external rendering surface.
//
// Every call may suspend for a round trip to the surface. Callers issue calls in the
// order they mutated the registry; implementations must not reorder them.
package interop

import (
	"context"
	"errors"

	"cometweb/internal/scene"
)

// NoPrimitive is returned by GetPrimitiveIDUnderMouse when nothing is under the pointer.
const NoPrimitive = ""

// ErrNotInitialized is returned by renderers used before a successful InitCanvas.
var ErrNotInitialized = errors.New("interop: canvas not initialized")

// Surface names the drawable a renderer binds to, e.g. a canvas element id or a window title.
type Surface struct {
	Handle string `json:"handle"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Object is the transfer shape of a primitive pushed to a renderer.
type Object struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Position   [3]float64 `json:"position"`
	Rotation   [3]float64 `json:"rotation"`
	Dimensions []float64  `json:"dimensions"`
	Visible    bool       `json:"visible"`
}

// ObjectFrom converts a registry primitive to its transfer shape.
func ObjectFrom(p scene.Primitive) Object {
	dims := p.Dimensions
	if dims == nil {
		dims = []float64{}
	}
	return Object{
		ID:         p.ID,
		Kind:       string(p.Kind),
		Position:   p.Position,
		Rotation:   p.Rotation,
		Dimensions: append([]float64(nil), dims...),
		Visible:    p.Visible,
	}
}

// Primitive converts the transfer shape back into a registry primitive.
func (o Object) Primitive() scene.Primitive {
	return scene.Primitive{
		ID:         o.ID,
		Kind:       scene.Kind(o.Kind),
		Position:   o.Position,
		Rotation:   o.Rotation,
		Dimensions: append([]float64(nil), o.Dimensions...),
		Visible:    o.Visible,
	}
}

// Renderer is an external rendering surface. InitCanvas must succeed before any other call.
type Renderer interface {
	InitCanvas(ctx context.Context, surface Surface, showAxes bool) error
	AddSceneObject(ctx context.Context, obj Object) error
	ClearSceneObjects(ctx context.Context, ids []string) error
	SetVisibility(ctx context.Context, id string, visible bool) error
	SetTranslation(ctx context.Context, id string, position [3]float64) error
	SetRotation(ctx context.Context, id string, rotation [3]float64) error
	// GetPrimitiveIDUnderMouse returns NoPrimitive when nothing is hit.
	GetPrimitiveIDUnderMouse(ctx context.Context) (string, error)
}
