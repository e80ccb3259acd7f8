package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestHistory_AddAndMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "viewer.txt")
	h := NewHistory(path)

	h.Add("first")
	h.Add("second")

	lines := h.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "] first"))
	assert.True(t, strings.HasPrefix(lines[1], "["))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestHistory_Limit(t *testing.T) {
	h := NewHistory("")
	h.limit = 3
	for _, s := range []string{"a", "b", "c", "d"} {
		h.Add(s)
	}
	lines := h.Lines()
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "] b"))
}

func TestHistory_Writer(t *testing.T) {
	h := NewHistory("")
	w := h.Writer()

	_, err := w.Write([]byte("one\ntw"))
	require.NoError(t, err)
	require.Len(t, h.Lines(), 1)

	_, err = w.Write([]byte("o\r\n\nthree\n"))
	require.NoError(t, err)
	lines := h.Lines()
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "] one"))
	assert.True(t, strings.HasSuffix(lines[1], "] two"))
	assert.True(t, strings.HasSuffix(lines[2], "] three"))
}

func TestHistoryCore_FormatsFields(t *testing.T) {
	h := NewHistory("")
	logger := zap.New(h.Core(zapcore.InfoLevel)).Named("viewer")

	logger.Debug("dropped")
	logger.With(zap.String("id", "c1")).Warn("interop call failed", zap.Error(errors.New("boom")), zap.String("op", "add"))

	lines := h.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "WARN viewer: interop call failed error=boom id=c1 op=add")
}

func TestNew_TeesIntoHistory(t *testing.T) {
	h := NewHistory("")
	logger, err := New(Options{Level: "warn", History: h})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Error("loud")

	lines := h.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ERROR loud")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "shouty"})
	assert.Error(t, err)
}
