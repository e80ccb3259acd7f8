package scenefile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cometweb/internal/scene"
	"cometweb/internal/validation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeScene(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeScene(t, "scene.yaml", `
primitives:
  - id: c1
    kind: box
    position: [0, 1, 0]
    dimensions: [2, 1, 1]
  - id: s1
    kind: sphere
    rotation: [0, 90, 0]
    visible: false
`)
	got, err := Load(path)
	require.NoError(t, err)

	want := []scene.Primitive{
		{ID: "c1", Kind: scene.KindBox, Position: scene.Vec3{0, 1, 0}, Dimensions: []float64{2, 1, 1}, Visible: true},
		{ID: "s1", Kind: scene.KindSphere, Rotation: scene.Vec3{0, 90, 0}, Dimensions: []float64{1}, Visible: false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_JSONGeneratesIDs(t *testing.T) {
	path := writeScene(t, "scene.json", `{"primitives":[{"kind":"cube"},{"kind":"plane","position":[1,0,1]}]}`)
	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, []float64{1, 1}, got[1].Dimensions)
	assert.True(t, got[1].Visible)
}

func TestLoad_HCL(t *testing.T) {
	path := writeScene(t, "scene.hcl", `
box "c1" {
  position   = [0, 0.5, 0]
  dimensions = [1, 1, 2]
}

cylinder "pillar" {
  position = [3, 0, 0]
  rotation = [0, deg(pi / 2), 0]
  visible  = false
}
`)
	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, scene.KindBox, got[0].Kind)
	assert.Equal(t, []float64{1, 1, 2}, got[0].Dimensions)

	assert.Equal(t, "pillar", got[1].ID)
	assert.Equal(t, scene.KindCylinder, got[1].Kind)
	assert.InDelta(t, 90, got[1].Rotation[1], 1e-9)
	assert.False(t, got[1].Visible)
	assert.Equal(t, []float64{1, 1}, got[1].Dimensions)
}

func TestLoad_HCLBadVector(t *testing.T) {
	path := writeScene(t, "scene.hcl", `sphere "s" { position = [1, 2] }`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "position")
}

func TestLoad_CollectsValidationErrors(t *testing.T) {
	path := writeScene(t, "scene.yaml", `
primitives:
  - id: a
    kind: teapot
  - id: a
    kind: box
    dimensions: [1, -1, 1]
`)
	_, err := Load(path)
	require.Error(t, err)
	msgs := validation.Messages(err)
	assert.Contains(t, msgs, "primitive 0 (a): kind: must be one of box, cube, sphere, cylinder, plane")
	assert.Contains(t, msgs, "primitive 1 (a): dimensions: must be positive")
	assert.Contains(t, msgs, "primitive 1 (a): id: duplicates primitive 0")
}

func TestDecodeJSON(t *testing.T) {
	p, err := DecodeJSON([]byte(`{"id":"c9","kind":"cylinder","position":[1,0,0]}`))
	require.NoError(t, err)
	assert.Equal(t, "c9", p.ID)
	assert.Equal(t, []float64{1, 1}, p.Dimensions)
	assert.True(t, p.Visible)

	_, err = DecodeJSON([]byte(`{"id":"x","kind":"teapot"}`))
	assert.NotEmpty(t, validation.Messages(err))

	_, err = DecodeJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("scene.toml", []byte(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, Supported("scene.toml"))
	assert.True(t, Supported("scene.YML"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	list := []scene.Primitive{
		{ID: "c1", Kind: scene.KindBox, Position: scene.Vec3{1, 2, 3}, Dimensions: []float64{1, 2, 3}, Visible: true},
		{ID: "p1", Kind: scene.KindPlane, Rotation: scene.Vec3{0, 0, 45}, Dimensions: []float64{4, 4}},
	}
	data, err := Marshal(list)
	require.NoError(t, err)

	got, err := Parse("out.yaml", data)
	require.NoError(t, err)
	if diff := cmp.Diff(list, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeScene(t, "scene.yaml", "primitives:\n  - {id: a, kind: box}\n")

	var (
		mu   sync.Mutex
		seen [][]scene.Primitive
	)
	w, err := NewWatcher(path, func(list []scene.Primitive) {
		mu.Lock()
		seen = append(seen, list)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("primitives:\n  - {id: b, kind: sphere}\n"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && len(seen[len(seen)-1]) == 1 && seen[len(seen)-1][0].ID == "b"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_InvalidFileKeepsPrevious(t *testing.T) {
	path := writeScene(t, "scene.yaml", "primitives: []\n")
	calls := make(chan []scene.Primitive, 4)
	w, err := NewWatcher(path, func(list []scene.Primitive) { calls <- list }, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("primitives:\n  - {id: x, kind: teapot}\n"), 0644))
	time.Sleep(200 * time.Millisecond)
	w.Stop()

	assert.Empty(t, calls)
	assert.Equal(t, 0, w.Reloads())
}

func TestWatcher_StopsWithContext(t *testing.T) {
	path := writeScene(t, "scene.yaml", "primitives: []\n")
	w, err := NewWatcher(path, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}
