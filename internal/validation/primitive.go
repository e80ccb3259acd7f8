package validation

import "cometweb/internal/scene"

// Primitive validates primitives arriving from scene files or the API.
var Primitive = New(
	Rule[scene.Primitive]{
		Field:   "id",
		Check:   func(p scene.Primitive) bool { return NotEmpty(p.ID) },
		Message: "is required",
	},
	Rule[scene.Primitive]{
		Field:   "kind",
		Check:   func(p scene.Primitive) bool { return p.Kind.Known() },
		Message: "must be one of box, cube, sphere, cylinder, plane",
	},
	Rule[scene.Primitive]{
		Field:   "position",
		Check:   func(p scene.Primitive) bool { return Finite(p.Position[:]...) },
		Message: "must be finite",
	},
	Rule[scene.Primitive]{
		Field:   "rotation",
		Check:   func(p scene.Primitive) bool { return Finite(p.Rotation[:]...) },
		Message: "must be finite",
	},
	Rule[scene.Primitive]{
		Field:   "dimensions",
		Check:   func(p scene.Primitive) bool { return AllPositive(p.Dimensions) },
		Message: "must be positive",
	},
	Rule[scene.Primitive]{
		Field: "dimensions",
		Check: func(p scene.Primitive) bool {
			want := len(scene.DefaultDimensions(p.Kind))
			return want == 0 || len(p.Dimensions) == 0 || len(p.Dimensions) == want
		},
		Message: "has the wrong number of values for the kind",
	},
)
