package scene

import (
	"github.com/google/uuid"
)

// Kind is the shape discriminator of a primitive. Renderers that do not know a kind skip it.
type Kind string

const (
	KindBox      Kind = "box"
	KindCube     Kind = "cube"
	KindSphere   Kind = "sphere"
	KindCylinder Kind = "cylinder"
	KindPlane    Kind = "plane"
)

// Kinds lists every kind the bundled renderers can draw, in a stable order.
var Kinds = []Kind{KindBox, KindCube, KindSphere, KindCylinder, KindPlane}

// Known reports whether k is one of Kinds.
func (k Kind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// DefaultDimensions returns the size parameters used when a primitive is created without any.
// box: width, height, depth. cube: edge. sphere: diameter. cylinder: diameter, height. plane: width, depth.
func DefaultDimensions(k Kind) []float64 {
	switch k {
	case KindBox:
		return []float64{1, 1, 1}
	case KindCube, KindSphere:
		return []float64{1}
	case KindCylinder, KindPlane:
		return []float64{1, 1}
	default:
		return nil
	}
}

// Vec3 is an (x, y, z) triple. Encodes as a three element array.
type Vec3 [3]float64

// Primitive is a single renderable object. ID is assigned at creation and never changes;
// Dimensions are shape-specific (see DefaultDimensions).
type Primitive struct {
	ID         string    `json:"id" yaml:"id"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	Position   Vec3      `json:"position" yaml:"position"`
	Rotation   Vec3      `json:"rotation" yaml:"rotation"`
	Dimensions []float64 `json:"dimensions" yaml:"dimensions"`
	Visible    bool      `json:"visible" yaml:"visible"`
}

// New returns a visible primitive of the given kind at the origin with default dimensions.
// An empty id gets a fresh one from NewID.
func New(id string, kind Kind) Primitive {
	if id == "" {
		id = NewID()
	}
	return Primitive{
		ID:         id,
		Kind:       kind,
		Dimensions: DefaultDimensions(kind),
		Visible:    true,
	}
}

// NewID returns a random identifier for a newly created primitive.
func NewID() string {
	return uuid.NewString()
}

// Size returns the axis-aligned extent (x, y, z) implied by Kind and Dimensions.
// Missing dimensions count as 1.
func (p Primitive) Size() Vec3 {
	d := func(i int) float64 {
		if i < len(p.Dimensions) && p.Dimensions[i] > 0 {
			return p.Dimensions[i]
		}
		return 1
	}
	switch p.Kind {
	case KindCube, KindSphere:
		return Vec3{d(0), d(0), d(0)}
	case KindCylinder:
		return Vec3{d(0), d(1), d(0)}
	case KindPlane:
		return Vec3{d(0), 0, d(1)}
	default:
		return Vec3{d(0), d(1), d(2)}
	}
}

// clone returns p with its own Dimensions slice so callers cannot alias registry state.
func (p Primitive) clone() Primitive {
	if p.Dimensions != nil {
		p.Dimensions = append([]float64(nil), p.Dimensions...)
	}
	return p
}
