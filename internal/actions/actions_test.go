package actions

import (
	"context"
	"testing"

	"cometweb/internal/interop"
	"cometweb/internal/render/rendertest"
	"cometweb/internal/scene"
	"cometweb/internal/viewer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) (*Dispatcher, *viewer.Viewer, *rendertest.Recorder) {
	t.Helper()
	rec := rendertest.NewRecorder()
	v := viewer.New(scene.NewRegistry(), rec, nil)
	require.NoError(t, v.Init(context.Background(), interop.Surface{Handle: "canvas"}, false))
	return NewDispatcher(v, nil), v, rec
}

func TestDispatcher_Batch(t *testing.T) {
	d, v, rec := newDispatcher(t)

	res, err := d.Run(context.Background(), `{"actions":[
		{"action":"add_primitive","id":"c1","kind":"box","position":[0,1,0]},
		{"action":"set_translation","id":"c1","position":[2,2,2]},
		{"action":"set_rotation","id":"c1","rotation":[0,45,0]},
		{"action":"set_visibility","id":"c1","visible":false}
	]}`)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Applied)
	assert.Empty(t, res.Errors)
	assert.Equal(t, "Done. Applied 4 action(s).", res.Summary())

	p, ok := v.Get("c1")
	require.True(t, ok)
	assert.Equal(t, scene.Vec3{2, 2, 2}, p.Position)
	assert.Equal(t, scene.Vec3{0, 45, 0}, p.Rotation)
	assert.False(t, p.Visible)
	assert.Equal(t, []string{
		"init",
		"add c1",
		"translation c1 [2 2 2]",
		"rotation c1 [0 45 0]",
		"visibility c1 false",
	}, rec.Ops())
}

func TestDispatcher_ErrorsDoNotStopBatch(t *testing.T) {
	d, v, _ := newDispatcher(t)

	res := d.Apply(context.Background(), []any{
		map[string]any{"action": "add_primitive", "kind": "teapot"},
		"not an object",
		map[string]any{"kind": "box"},
		map[string]any{"action": "explode"},
		map[string]any{"action": "remove_primitive", "id": "ghost"},
		map[string]any{"action": "add_primitive", "id": "ok", "type": "sphere"},
	})

	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Errors, 5)
	assert.Contains(t, res.Errors[0], "action 1 (add_primitive): kind:")
	assert.Equal(t, "action 2: invalid object", res.Errors[1])
	assert.Equal(t, "action 3: missing action", res.Errors[2])
	assert.Equal(t, `action 4: unknown action "explode"`, res.Errors[3])
	assert.Equal(t, `action 5 (remove_primitive): unknown primitive "ghost"`, res.Errors[4])

	_, ok := v.Get("ok")
	assert.True(t, ok)
}

func TestDispatcher_AddPrimitivesGrid(t *testing.T) {
	d, v, _ := newDispatcher(t)

	res, err := d.Run(context.Background(), `{"action":"add_primitives","kind":"cube","count":4,"spacing":3,"origin":[1,0,1]}`)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)

	list := v.List()
	require.Len(t, list, 4)
	positions := make([]scene.Vec3, 0, 4)
	for _, p := range list {
		positions = append(positions, p.Position)
	}
	assert.ElementsMatch(t, []scene.Vec3{{1, 0, 1}, {4, 0, 1}, {1, 0, 4}, {4, 0, 4}}, positions)
}

func TestDispatcher_ClearAndRemove(t *testing.T) {
	d, v, _ := newDispatcher(t)
	ctx := context.Background()
	v.Add(ctx, scene.New("a", scene.KindBox))
	v.Add(ctx, scene.New("b", scene.KindBox))

	res, err := d.Run(ctx, `{"actions":{"action":"remove_primitive","id":"a"}}`)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, []string{"b"}, v.IDs())

	_, err = d.Run(ctx, `{"action":"clear"}`)
	require.NoError(t, err)
	assert.Empty(t, v.IDs())
}

func TestDispatcher_InvalidArguments(t *testing.T) {
	d, v, _ := newDispatcher(t)
	ctx := context.Background()
	v.Add(ctx, scene.New("a", scene.KindBox))

	res := d.Apply(ctx, []any{
		map[string]any{"action": "set_translation", "id": "a", "position": []any{1.0, 2.0}},
		map[string]any{"action": "set_visibility", "id": "a"},
		map[string]any{"action": "set_rotation", "rotation": []any{0.0, 0.0, 0.0}},
	})
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, []string{
		"action 1 (set_translation): position: expected [x,y,z]",
		"action 2 (set_visibility): visible: expected true or false",
		"action 3 (set_rotation): missing id",
	}, res.Errors)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		err   bool
	}{
		{"array", `{"actions":[{"action":"clear"},{"action":"clear"}]}`, 2, false},
		{"single in actions", `{"actions":{"action":"clear"}}`, 1, false},
		{"bare action", `{"action":"clear"}`, 1, false},
		{"fenced", "```json\n{\"action\":\"clear\"}\n```", 1, false},
		{"surrounding text", `sure: {"action":"clear"} done`, 1, false},
		{"no object", `nothing here`, 0, true},
		{"unbalanced", `{"action":"clear"`, 0, true},
		{"no actions", `{"foo":1}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestResult_Summary(t *testing.T) {
	assert.Equal(t, "No actions to apply.", Result{}.Summary())
	assert.Equal(t, "a; b", Result{Applied: 3, Errors: []string{"a", "b"}}.Summary())
}

func TestDispatcher_Names(t *testing.T) {
	d, _, _ := newDispatcher(t)
	assert.Equal(t, []string{
		"add_primitive", "add_primitives", "clear", "remove_primitive",
		"set_rotation", "set_translation", "set_visibility",
	}, d.Names())
}
