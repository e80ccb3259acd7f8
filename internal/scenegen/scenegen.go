// Package scenegen builds demo scenes procedurally.
package scenegen

import (
	"fmt"
	"math"

	"cometweb/internal/scene"
)

// Options controls height map generation.
// Width/Depth are in tiles; TileSize is the world size of one tile on X/Z.
// HeightScale is the maximum column height in world units.
// Seed controls the noise; the same options always give the same scene.
// Octaves, Frequency, Lacunarity, and Gain control the fractal noise shape.
type Options struct {
	Width       int
	Depth       int
	TileSize    float64
	HeightScale float64

	Seed       int64
	Octaves    int
	Frequency  float64
	Lacunarity float64
	Gain       float64

	// IDPrefix names the generated primitives "<prefix>-<x>-<z>".
	IDPrefix string
}

// DefaultOptions returns a small terrain that renders quickly in a browser.
func DefaultOptions() Options {
	return Options{
		Width:       8,
		Depth:       8,
		TileSize:    1.0,
		HeightScale: 3.0,
		Seed:        1,
		Octaves:     4,
		Frequency:   0.08,
		Lacunarity:  2.0,
		Gain:        0.5,
		IDPrefix:    "tile",
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.TileSize <= 0 {
		o.TileSize = d.TileSize
	}
	if o.HeightScale <= 0 {
		o.HeightScale = 1
	}
	if o.Octaves <= 0 {
		o.Octaves = 1
	}
	if o.Frequency <= 0 {
		o.Frequency = 0.05
	}
	if o.Lacunarity <= 0 {
		o.Lacunarity = d.Lacunarity
	}
	if o.Gain <= 0 {
		o.Gain = d.Gain
	}
	if o.IDPrefix == "" {
		o.IDPrefix = d.IDPrefix
	}
	return o
}

const minHeight = 0.15

// HeightMap builds a grid of box primitives sitting on Y=0, one per tile, whose heights
// follow fractal value noise. The grid is centered on the origin in XZ.
func HeightMap(opts Options) []scene.Primitive {
	if opts.Width <= 0 || opts.Depth <= 0 {
		return nil
	}
	opts = opts.normalized()

	// First box center is at (-extentX + halfTile, -extentZ + halfTile).
	halfTile := opts.TileSize * 0.5
	startX := -float64(opts.Width)*opts.TileSize*0.5 + halfTile
	startZ := -float64(opts.Depth)*opts.TileSize*0.5 + halfTile

	out := make([]scene.Primitive, 0, opts.Width*opts.Depth)
	for z := 0; z < opts.Depth; z++ {
		for x := 0; x < opts.Width; x++ {
			h := fractalValueNoise2D(float64(x)*opts.Frequency, float64(z)*opts.Frequency, opts.Seed, opts.Octaves, opts.Lacunarity, opts.Gain)
			height := minHeight + h*(opts.HeightScale-minHeight)
			if math.IsNaN(height) || math.IsInf(height, 0) || height <= 0 {
				height = minHeight
			}

			p := scene.New(fmt.Sprintf("%s-%d-%d", opts.IDPrefix, x, z), scene.KindBox)
			p.Position = scene.Vec3{startX + float64(x)*opts.TileSize, height * 0.5, startZ + float64(z)*opts.TileSize}
			p.Dimensions = []float64{opts.TileSize, height, opts.TileSize}
			out = append(out, p)
		}
	}
	return out
}

// fractalValueNoise2D layers smooth value noise over octaves. Output is in [0,1].
func fractalValueNoise2D(x, y float64, seed int64, octaves int, lacunarity, gain float64) float64 {
	var sum, maxAmp float64
	amplitude, freq := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		sum += valueNoise2D(x*freq, y*freq, int32(seed)+int32(i)) * amplitude
		maxAmp += amplitude
		amplitude *= gain
		freq *= lacunarity
	}
	if maxAmp == 0 {
		return 0
	}
	return sum / maxAmp
}

// valueNoise2D is smooth value noise in [0,1] over a hashed integer lattice.
func valueNoise2D(x, y float64, seed int32) float64 {
	x0 := int32(math.Floor(x))
	y0 := int32(math.Floor(y))
	sx := smoothStep(x - float64(x0))
	sy := smoothStep(y - float64(y0))

	ix0 := lerp(hash2D(x0, y0, seed), hash2D(x0+1, y0, seed), sx)
	ix1 := lerp(hash2D(x0, y0+1, seed), hash2D(x0+1, y0+1, seed), sx)
	return lerp(ix0, ix1, sy)
}

// hash2D maps lattice coordinates to a deterministic pseudo-random value in [0,1].
func hash2D(x, y, seed int32) float64 {
	n := x*374761393 + y*668265263 + seed*362437
	n = (n ^ (n >> 13)) * 1274126177
	n = n ^ (n >> 16)
	return float64(n&0x7fffffff) / 2147483647.0
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// smoothStep is cubic easing: 3t^2 - 2t^3.
func smoothStep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}
