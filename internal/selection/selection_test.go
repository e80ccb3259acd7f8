package selection

import (
	"sync"
	"testing"

	"cometweb/internal/popup"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(ids ...string) (*Controller, *popup.Confirmation) {
	known := make(map[string]bool)
	for _, id := range ids {
		known[id] = true
	}
	p := popup.NewConfirmation()
	return NewController(func(id string) bool { return known[id] }, p), p
}

func TestController_CleanSelectionSwitchesImmediately(t *testing.T) {
	c, p := newController("a", "b")
	var seen []string
	c.Subscribe(func(id string) { seen = append(seen, id) })

	out, err := c.Request("a")
	require.NoError(t, err)
	assert.Equal(t, Selected, out)

	out, _ = c.Request("b")
	assert.Equal(t, Selected, out)

	out, _ = c.Request("b")
	assert.Equal(t, Unchanged, out)

	assert.Equal(t, "b", c.Current())
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, popup.Hidden, p.State())
}

func TestController_UnknownID(t *testing.T) {
	c, _ := newController("a")
	_, err := c.Request("zzz")
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, "", c.Current())
}

func TestController_DirtySelectionWaitsForContinue(t *testing.T) {
	c, p := newController("a", "b")
	c.Request("a")
	c.MarkDirty()

	out, err := c.Request("b")
	require.NoError(t, err)
	assert.Equal(t, Pending, out)
	assert.Equal(t, popup.Visible, p.State())
	assert.Equal(t, "a", c.Current())
	assert.Equal(t, "b", c.Pending())

	p.Continue()
	assert.Equal(t, "b", c.Current())
	assert.Equal(t, "", c.Pending())
	assert.False(t, c.Dirty())
}

func TestController_DirtySelectionCancelled(t *testing.T) {
	c, p := newController("a", "b")
	c.Request("a")
	c.MarkDirty()
	c.Request("b")

	p.Cancel()
	assert.Equal(t, "a", c.Current())
	assert.Equal(t, "", c.Pending())
	assert.True(t, c.Dirty())
}

func TestController_HideDoesNotResolve(t *testing.T) {
	c, p := newController("a", "b")
	c.Request("a")
	c.MarkDirty()
	c.Request("b")

	p.Hide()
	assert.Equal(t, "a", c.Current())
	assert.Equal(t, "b", c.Pending())
}

func TestController_MarkDirtyWithoutSelection(t *testing.T) {
	c, _ := newController("a")
	c.MarkDirty()
	assert.False(t, c.Dirty())
}

func TestController_Forget(t *testing.T) {
	c, _ := newController("a", "b")
	c.Request("a")
	c.MarkDirty()

	c.Forget("b")
	assert.Equal(t, "a", c.Current())

	c.Forget("a")
	assert.Equal(t, "", c.Current())
	assert.False(t, c.Dirty())
}

func TestController_ListenerMayQueryController(t *testing.T) {
	c, _ := newController("a")
	var dirty bool
	var pending string
	c.Subscribe(func(string) {
		dirty = c.Dirty()
		pending = c.Pending()
	})

	out, err := c.Request("a")
	require.NoError(t, err)
	assert.Equal(t, Selected, out)
	assert.False(t, dirty)
	assert.Empty(t, pending)
}

func TestController_RequestRacingMarkDirty(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, p := newController("a", "b")
		c.Request("a")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Request("b")
		}()
		go func() {
			defer wg.Done()
			c.MarkDirty()
		}()
		wg.Wait()

		switch c.Current() {
		case "a":
			// MarkDirty won: the switch waits for the popup.
			assert.Equal(t, "b", c.Pending())
			assert.Equal(t, popup.Visible, p.State())
		case "b":
			assert.Empty(t, c.Pending())
			assert.Equal(t, popup.Hidden, p.State())
		default:
			t.Fatalf("unexpected selection %q", c.Current())
		}
	}
}
