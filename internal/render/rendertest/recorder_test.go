package rendertest

import (
	"context"
	"errors"
	"testing"

	"cometweb/internal/interop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RequiresInit(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	assert.ErrorIs(t, r.AddSceneObject(ctx, interop.Object{ID: "a"}), interop.ErrNotInitialized)
	_, err := r.GetPrimitiveIDUnderMouse(ctx)
	assert.ErrorIs(t, err, interop.ErrNotInitialized)
	assert.Empty(t, r.Calls())
	assert.Equal(t, 0, r.Len())
}

func TestRecorder_TracksObjects(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	require.NoError(t, r.InitCanvas(ctx, interop.Surface{Handle: "c"}, true))
	assert.True(t, r.ShowAxes())

	require.NoError(t, r.AddSceneObject(ctx, interop.Object{ID: "a", Kind: "box", Visible: true}))
	require.NoError(t, r.AddSceneObject(ctx, interop.Object{ID: "b", Kind: "sphere", Visible: true}))
	require.NoError(t, r.SetTranslation(ctx, "a", [3]float64{1, 2, 3}))
	require.NoError(t, r.SetRotation(ctx, "a", [3]float64{0, 45, 0}))
	require.NoError(t, r.SetVisibility(ctx, "a", false))
	require.NoError(t, r.ClearSceneObjects(ctx, []string{"b"}))

	a, ok := r.Object("a")
	require.True(t, ok)
	assert.Equal(t, [3]float64{1, 2, 3}, a.Position)
	assert.Equal(t, [3]float64{0, 45, 0}, a.Rotation)
	assert.False(t, a.Visible)
	_, ok = r.Object("b")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, []string{
		"init", "add a", "add b",
		"translation a [1 2 3]", "rotation a [0 45 0]",
		"visibility a false", "clear [b]",
	}, r.Ops())
}

func TestRecorder_FailAndUnderMouse(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()
	boom := errors.New("boom")
	r.Fail["init"] = boom
	assert.ErrorIs(t, r.InitCanvas(ctx, interop.Surface{Handle: "c"}, false), boom)

	delete(r.Fail, "init")
	require.NoError(t, r.InitCanvas(ctx, interop.Surface{Handle: "c"}, false))

	id, err := r.GetPrimitiveIDUnderMouse(ctx)
	require.NoError(t, err)
	assert.Equal(t, interop.NoPrimitive, id)

	r.UnderMouse = "a"
	id, err = r.GetPrimitiveIDUnderMouse(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	r.Fail["add"] = boom
	assert.ErrorIs(t, r.AddSceneObject(ctx, interop.Object{ID: "x"}), boom)
	assert.Equal(t, 0, r.Len())

	r.Reset()
	assert.Empty(t, r.Calls())
	delete(r.Fail, "add")
	assert.NoError(t, r.AddSceneObject(ctx, interop.Object{ID: "x"}), "reset keeps the initialized state")
}
