package console

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cometweb/internal/interop"
	"cometweb/internal/logging"
	"cometweb/internal/popup"
	"cometweb/internal/render/rendertest"
	"cometweb/internal/scene"
	"cometweb/internal/session"
	"cometweb/internal/viewer"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	c   *Console
	s   *session.Session
	rec *rendertest.Recorder
	out *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := rendertest.NewRecorder()
	v := viewer.New(scene.NewRegistry(), rec, nil)
	require.NoError(t, v.Init(context.Background(), interop.Surface{Handle: "canvas"}, true))
	s := session.New(v, nil)
	out := &bytes.Buffer{}
	h := logging.NewHistory(filepath.Join(t.TempDir(), "history.txt"))
	return &fixture{c: New(s, h, out, nil), s: s, rec: rec, out: out}
}

func (f *fixture) exec(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	require.NoError(t, f.c.Exec(context.Background(), line))
	return f.out.String()
}

func TestParse(t *testing.T) {
	assert.Equal(t, []string{"move", "a", "1", "2", "3"}, Parse("cmd move a 1 2 3"))
	assert.Equal(t, []string{"list"}, Parse("  list "))
	assert.Empty(t, Parse("cmd "))
}

func TestConsole_AddMoveRotateHide(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "added box c1\n", f.exec(t, "add box --id c1 --pos 0,1,0 --dims 1,2,3"))
	f.exec(t, "move c1 -1 0 2.5")
	f.exec(t, "rotate c1 0 90 0")
	f.exec(t, "hide c1")

	p, ok := f.s.Viewer.Get("c1")
	require.True(t, ok)
	assert.Equal(t, scene.Vec3{-1, 0, 2.5}, p.Position)
	assert.Equal(t, scene.Vec3{0, 90, 0}, p.Rotation)
	assert.Equal(t, []float64{1, 2, 3}, p.Dimensions)
	assert.False(t, p.Visible)

	assert.Equal(t, []string{
		"init",
		"add c1",
		"translation c1 [-1 0 2.5]",
		"rotation c1 [0 90 0]",
		"visibility c1 false",
	}, f.rec.Ops())
}

func TestConsole_FlagsDoNotLeakBetweenLines(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "add sphere --id a --hidden --pos 1,1,1")
	f.exec(t, "add sphere --id b")

	b, ok := f.s.Viewer.Get("b")
	require.True(t, ok)
	assert.True(t, b.Visible)
	assert.Equal(t, scene.Vec3{}, b.Position)
}

func TestConsole_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.EqualError(t, f.c.Exec(ctx, "explode"), "unknown command: explode")
	assert.EqualError(t, f.c.Exec(ctx, "move ghost 1 2 3"), `unknown primitive "ghost"`)
	assert.EqualError(t, f.c.Exec(ctx, "move a 1 2"), "usage: move <id> <x> <y> <z>")
	assert.EqualError(t, f.c.Exec(ctx, "rotate a x 2 3"), `rotate: "x" is not a number`)
	assert.Error(t, f.c.Exec(ctx, "add teapot"))
	assert.Error(t, f.c.Exec(ctx, "add box --pos 1,2"))
	assert.EqualError(t, f.c.Exec(ctx, "confirm"), "no confirmation is pending")
}

func TestConsole_ListAndClear(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "add cube --id b")
	f.exec(t, "add plane --id a --hidden")

	out := f.exec(t, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "a plane pos=[0 0 0] rot=[0 0 0] dims=[1 1] hidden", lines[0])
	assert.Equal(t, "b cube pos=[0 0 0] rot=[0 0 0] dims=[1]", lines[1])

	assert.Equal(t, "scene cleared\n", f.exec(t, "clear"))
	assert.Empty(t, f.exec(t, "list"))
}

func TestConsole_SelectionConfirmFlow(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "add box --id a")
	f.exec(t, "add box --id b")

	assert.Equal(t, "selected\n", f.exec(t, "select a"))
	f.exec(t, "move a 1 1 1")
	assert.Equal(t, "unsaved changes: confirm or cancel\n", f.exec(t, "select b"))
	assert.Equal(t, popup.Visible, f.s.Popup.State())

	assert.Equal(t, "kept a\n", f.exec(t, "cancel"))
	assert.Equal(t, "a", f.s.Selection.Current())

	f.exec(t, "select b")
	assert.Equal(t, "selected b\n", f.exec(t, "confirm"))
	assert.Equal(t, "selected b\n", f.exec(t, "select"))

	f.exec(t, "select --none")
	assert.Equal(t, "nothing selected\n", f.exec(t, "select"))
}

func TestConsole_Pick(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "add box --id a")

	assert.Equal(t, "nothing under the pointer\n", f.exec(t, "pick"))

	f.rec.UnderMouse = "a"
	assert.Equal(t, "a box pos=[0 0 0] rot=[0 0 0] dims=[1 1 1] (selected)\n", f.exec(t, "pick"))
	assert.Equal(t, "a", f.s.Selection.Current())
}

func TestConsole_NotifyAndHistory(t *testing.T) {
	f := newFixture(t)
	f.exec(t, "add box --id a")
	f.exec(t, "rm a")

	assert.Equal(t, "2 pending\n", f.exec(t, "notify"))
	assert.Equal(t, "0 pending\n", f.exec(t, "notify --reset"))

	f.c.history.Add("one")
	f.c.history.Add("two")
	out := f.exec(t, "history -n 1")
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "one")
}

func TestConsole_ActionBatch(t *testing.T) {
	f := newFixture(t)
	out := f.exec(t, `{"actions":[{"action":"add_primitive","id":"x","kind":"sphere"}]}`)
	assert.Equal(t, "Done. Applied 1 action(s).\n", out)
	_, ok := f.s.Viewer.Get("x")
	assert.True(t, ok)
}

func TestConsole_Run(t *testing.T) {
	f := newFixture(t)
	in := strings.NewReader("add box --id a\nexplode\nlist\n")
	require.NoError(t, f.c.Run(context.Background(), in))

	out := f.out.String()
	assert.Contains(t, out, "added box a")
	assert.Contains(t, out, "error: unknown command: explode")
	assert.Contains(t, out, "a box pos=")
}

func TestConsole_HelpAndCustomCommand(t *testing.T) {
	f := newFixture(t)
	called := false
	f.c.Registry().Register("ping", "ping", pflag.NewFlagSet("ping", pflag.ContinueOnError), func(context.Context, []string) error {
		called = true
		return nil
	})
	f.exec(t, "cmd ping")
	assert.True(t, called)

	assert.Equal(t, "move <id> <x> <y> <z>\n", f.exec(t, "help move"))
	assert.Contains(t, f.exec(t, "help"), "  ping\n")
}
