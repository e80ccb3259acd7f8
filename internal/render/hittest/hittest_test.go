package hittest

import (
	"testing"

	"cometweb/internal/interop"
	"cometweb/internal/scene"

	"github.com/stretchr/testify/assert"
)

func obj(id string, kind scene.Kind, pos, rot scene.Vec3, dims ...float64) interop.Object {
	p := scene.New(id, kind)
	p.Position, p.Rotation = pos, rot
	if len(dims) > 0 {
		p.Dimensions = dims
	}
	return interop.ObjectFrom(p)
}

// down looks straight down the -Y axis from above (x, z).
func down(x, z float32) Ray {
	return Ray{Origin: Vec{x, 10, z}, Dir: Vec{0, -1, 0}}
}

func TestIntersect_Kinds(t *testing.T) {
	tests := []struct {
		name string
		o    interop.Object
		ray  Ray
		hit  bool
		t    float32
	}{
		{"box top face", obj("b", scene.KindBox, scene.Vec3{}, scene.Vec3{}, 2, 4, 2), down(0.9, 0.9), true, 8},
		{"box miss", obj("b", scene.KindBox, scene.Vec3{}, scene.Vec3{}, 2, 4, 2), down(1.1, 0), false, 0},
		{"cube", obj("c", scene.KindCube, scene.Vec3{0, 1, 0}, scene.Vec3{}, 2), down(0, 0), true, 8},
		{"sphere", obj("s", scene.KindSphere, scene.Vec3{}, scene.Vec3{}, 2), down(0, 0), true, 9},
		{"sphere edge miss", obj("s", scene.KindSphere, scene.Vec3{}, scene.Vec3{}, 2), down(0.8, 0.8), false, 0},
		{"cylinder cap", obj("y", scene.KindCylinder, scene.Vec3{}, scene.Vec3{}, 1, 2), down(0.4, 0), true, 9},
		{"cylinder corner miss", obj("y", scene.KindCylinder, scene.Vec3{}, scene.Vec3{}, 1, 2), down(0.45, 0.45), false, 0},
		{"plane", obj("p", scene.KindPlane, scene.Vec3{}, scene.Vec3{}, 4, 4), down(1.9, -1.9), true, 10 - planeThickness/2},
		{"unknown kind", interop.Object{ID: "u", Kind: "teapot", Visible: true}, down(0, 0), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Intersect(tt.ray, tt.o)
			assert.Equal(t, tt.hit, ok)
			if tt.hit {
				assert.InDelta(t, tt.t, got, 1e-4)
			}
		})
	}
}

func TestIntersect_Rotation(t *testing.T) {
	// A long thin box along X. Rotated 90 degrees about Y it lies along Z.
	long := obj("l", scene.KindBox, scene.Vec3{}, scene.Vec3{}, 10, 1, 1)
	_, ok := Intersect(down(0, 4), long)
	assert.False(t, ok)

	long.Rotation = [3]float64{0, 90, 0}
	_, ok = Intersect(down(0, 4), long)
	assert.True(t, ok)
	_, ok = Intersect(down(4, 0), long)
	assert.False(t, ok)
}

func TestIntersect_HiddenAndBehind(t *testing.T) {
	b := obj("b", scene.KindBox, scene.Vec3{}, scene.Vec3{})
	b.Visible = false
	_, ok := Intersect(down(0, 0), b)
	assert.False(t, ok)

	b.Visible = true
	away := Ray{Origin: Vec{0, 10, 0}, Dir: Vec{0, 1, 0}}
	_, ok = Intersect(away, b)
	assert.False(t, ok)

	inside := Ray{Origin: Vec{0, 0, 0}, Dir: Vec{1, 0, 0}}
	got, ok := Intersect(inside, b)
	assert.True(t, ok)
	assert.Equal(t, float32(0), got)
}

func TestNearest(t *testing.T) {
	objects := []interop.Object{
		obj("low", scene.KindBox, scene.Vec3{0, 0, 0}, scene.Vec3{}),
		obj("high", scene.KindBox, scene.Vec3{0, 3, 0}, scene.Vec3{}),
		obj("aside", scene.KindSphere, scene.Vec3{5, 0, 0}, scene.Vec3{}),
	}
	assert.Equal(t, "high", Nearest(down(0, 0), objects))
	assert.Equal(t, "aside", Nearest(down(5, 0), objects))
	assert.Equal(t, interop.NoPrimitive, Nearest(down(-5, 0), objects))
}

func TestRotation_Orthonormal(t *testing.T) {
	m := Rotation([3]float64{30, 45, 60})
	v := Vec{1, 2, 3}
	back := m.Transpose().MulVec(m.MulVec(v))
	for i := range v {
		assert.InDelta(t, v[i], back[i], 1e-5)
	}
	assert.InDelta(t, v.Len(), m.MulVec(v).Len(), 1e-5)

	x := Rotation([3]float64{0, 0, 90}).MulVec(Vec{1, 0, 0})
	assert.InDelta(t, 0, x[0], 1e-6)
	assert.InDelta(t, 1, x[1], 1e-6)
}
