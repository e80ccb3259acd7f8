// Package hittest finds the primitive a pick ray hits first.
//
// Primitives are centered on their position and rotated by Euler angles in degrees,
// applied X first, then Y, then Z. Extents follow scene.DefaultDimensions: box is
// width/height/depth, cube an edge, sphere a diameter, cylinder diameter and height
// along local Y, plane width and depth on local XZ.
package hittest

import (
	"cometweb/internal/interop"
	"cometweb/internal/scene"

	"github.com/chewxy/math32"
)

// Vec is a float32 3-vector, matching what GPU-side code works in.
type Vec [3]float32

func (a Vec) Add(b Vec) Vec       { return Vec{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a Vec) Sub(b Vec) Vec       { return Vec{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a Vec) Scale(s float32) Vec { return Vec{a[0] * s, a[1] * s, a[2] * s} }
func (a Vec) Dot(b Vec) float32   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a Vec) Len() float32        { return math32.Sqrt(a.Dot(a)) }
func (a Vec) Normalize() Vec {
	l := a.Len()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Ray is a half-line. Dir need not be normalized.
type Ray struct {
	Origin Vec
	Dir    Vec
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float32

// MulVec returns m * v.
func (m Mat3) MulVec(v Vec) Vec {
	return Vec{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Transpose is the inverse of a rotation matrix.
func (m Mat3) Transpose() Mat3 {
	var t Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

func (m Mat3) mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return out
}

// Radians converts degrees.
func Radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// Rotation returns Rz * Ry * Rx for Euler angles in degrees.
func Rotation(deg [3]float64) Mat3 {
	sx, cx := math32.Sincos(Radians(float32(deg[0])))
	sy, cy := math32.Sincos(Radians(float32(deg[1])))
	sz, cz := math32.Sincos(Radians(float32(deg[2])))
	rx := Mat3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	ry := Mat3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	rz := Mat3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}
	return rz.mul(ry).mul(rx)
}

// planeThickness gives planes a thin slab so rays along their surface still hit.
const planeThickness = 1e-3

// Extent returns the local-space size (x, y, z) of obj.
func Extent(obj interop.Object) Vec {
	s := obj.Primitive().Size()
	e := Vec{float32(s[0]), float32(s[1]), float32(s[2])}
	if scene.Kind(obj.Kind) == scene.KindPlane {
		e[1] = planeThickness
	}
	return e
}

// Intersect returns the ray parameter t >= 0 of the first hit on obj.
func Intersect(ray Ray, obj interop.Object) (float32, bool) {
	if !obj.Visible {
		return 0, false
	}
	inv := Rotation(obj.Rotation).Transpose()
	center := Vec{float32(obj.Position[0]), float32(obj.Position[1]), float32(obj.Position[2])}
	local := Ray{Origin: inv.MulVec(ray.Origin.Sub(center)), Dir: inv.MulVec(ray.Dir)}
	half := Extent(obj).Scale(0.5)

	switch scene.Kind(obj.Kind) {
	case scene.KindSphere:
		return sphere(local, half[0])
	case scene.KindCylinder:
		return cylinder(local, half[0], half[1])
	case scene.KindBox, scene.KindCube, scene.KindPlane:
		return box(local, half)
	default:
		return 0, false
	}
}

// Nearest returns the id of the closest object the ray hits, or interop.NoPrimitive.
func Nearest(ray Ray, objects []interop.Object) string {
	best := interop.NoPrimitive
	bestT := math32.Inf(1)
	for _, o := range objects {
		if t, ok := Intersect(ray, o); ok && t < bestT {
			best, bestT = o.ID, t
		}
	}
	return best
}

// box is the slab test against an axis-aligned box centered at the origin.
func box(r Ray, half Vec) (float32, bool) {
	tmin, tmax := math32.Inf(-1), math32.Inf(1)
	for i := 0; i < 3; i++ {
		if math32.Abs(r.Dir[i]) < 1e-9 {
			if r.Origin[i] < -half[i] || r.Origin[i] > half[i] {
				return 0, false
			}
			continue
		}
		t1 := (-half[i] - r.Origin[i]) / r.Dir[i]
		t2 := (half[i] - r.Origin[i]) / r.Dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return firstNonNegative(tmin, tmax)
}

func sphere(r Ray, radius float32) (float32, bool) {
	a := r.Dir.Dot(r.Dir)
	b := 2 * r.Origin.Dot(r.Dir)
	c := r.Origin.Dot(r.Origin) - radius*radius
	disc := b*b - 4*a*c
	if a == 0 || disc < 0 {
		return 0, false
	}
	sq := math32.Sqrt(disc)
	return firstNonNegative((-b-sq)/(2*a), (-b+sq)/(2*a))
}

// cylinder intersects a capped cylinder around local Y.
func cylinder(r Ray, radius, halfHeight float32) (float32, bool) {
	best := math32.Inf(1)
	hit := false
	try := func(t float32) {
		if t >= 0 && t < best {
			best, hit = t, true
		}
	}

	a := r.Dir[0]*r.Dir[0] + r.Dir[2]*r.Dir[2]
	if a > 1e-12 {
		b := 2 * (r.Origin[0]*r.Dir[0] + r.Origin[2]*r.Dir[2])
		c := r.Origin[0]*r.Origin[0] + r.Origin[2]*r.Origin[2] - radius*radius
		if disc := b*b - 4*a*c; disc >= 0 {
			sq := math32.Sqrt(disc)
			for _, t := range []float32{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
				if y := r.Origin[1] + t*r.Dir[1]; y >= -halfHeight && y <= halfHeight {
					try(t)
				}
			}
		}
	}
	if math32.Abs(r.Dir[1]) > 1e-12 {
		for _, capY := range []float32{-halfHeight, halfHeight} {
			t := (capY - r.Origin[1]) / r.Dir[1]
			x, z := r.Origin[0]+t*r.Dir[0], r.Origin[2]+t*r.Dir[2]
			if x*x+z*z <= radius*radius {
				try(t)
			}
		}
	}
	return best, hit
}

func firstNonNegative(t0, t1 float32) (float32, bool) {
	switch {
	case t0 >= 0:
		return t0, true
	case t1 >= 0:
		return 0, true // origin inside
	default:
		return 0, false
	}
}
