package scenegen

import (
	"testing"

	"cometweb/internal/scene"
	"cometweb/internal/validation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeightMap_GridShape(t *testing.T) {
	opts := DefaultOptions()
	opts.Width, opts.Depth = 4, 3

	got := HeightMap(opts)
	require.Len(t, got, 12)

	ids := make(map[string]bool)
	for _, p := range got {
		assert.Equal(t, scene.KindBox, p.Kind)
		assert.True(t, p.Visible)
		assert.Empty(t, validation.Primitive.Validate(p))

		h := p.Dimensions[1]
		assert.GreaterOrEqual(t, h, minHeight)
		assert.LessOrEqual(t, h, opts.HeightScale)
		assert.InDelta(t, h/2, p.Position[1], 1e-9, "boxes rest on y=0")
		ids[p.ID] = true
	}
	assert.Len(t, ids, 12)
	assert.Equal(t, "tile-0-0", got[0].ID)
	assert.Equal(t, scene.Vec3{-1.5, got[0].Position[1], -1}, got[0].Position)
}

func TestHeightMap_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	a := HeightMap(opts)
	b := HeightMap(opts)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed gave different scenes:\n%s", diff)
	}

	opts.Seed = 99
	c := HeightMap(opts)
	assert.NotEqual(t, a, c)
}

func TestHeightMap_Empty(t *testing.T) {
	assert.Nil(t, HeightMap(Options{Width: 0, Depth: 5}))
}

func TestHeightMap_NormalizesOptions(t *testing.T) {
	got := HeightMap(Options{Width: 1, Depth: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "tile-0-0", got[0].ID)
	assert.Equal(t, 1.0, got[0].Dimensions[0])
}

func TestValueNoise_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		v := fractalValueNoise2D(float64(i)*0.37, float64(i)*0.11, 7, 4, 2, 0.5)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
