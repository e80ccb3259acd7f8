package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultHistoryFile is where history lines are mirrored, relative to the working directory.
const DefaultHistoryFile = "logs/viewer.txt"

const defaultHistoryLimit = 500

// History keeps the most recent log lines in memory and appends each one to a file.
// It backs the console "history" command.
type History struct {
	mu    sync.Mutex
	lines []string
	limit int
	path  string
}

// NewHistory returns a history mirrored to path. An empty path keeps lines in memory only.
func NewHistory(path string) *History {
	if path != "" {
		_ = os.MkdirAll(filepath.Dir(path), 0755)
	}
	return &History{limit: defaultHistoryLimit, path: path}
}

// Add appends a line prefixed with [timestamp].
func (h *History) Add(line string) {
	stamped := "[" + time.Now().Format("2006-01-02 15:04:05") + "] " + line

	h.mu.Lock()
	h.lines = append(h.lines, stamped)
	if len(h.lines) > h.limit {
		h.lines = h.lines[len(h.lines)-h.limit:]
	}
	path := h.path
	h.mu.Unlock()

	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(stamped + "\n")
	_ = f.Close()
}

// Lines returns a copy of the stored lines, oldest first.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.lines))
	copy(out, h.lines)
	return out
}

// Writer returns an io.Writer that adds each written line to h. A trailing
// partial line is held until its newline arrives.
func (h *History) Writer() io.Writer {
	return &historyWriter{h: h}
}

type historyWriter struct {
	mu      sync.Mutex
	h       *History
	pending string
}

func (w *historyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	buf := w.pending + string(p)
	for {
		i := strings.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimRight(buf[:i], "\r"); line != "" {
			w.h.Add(line)
		}
		buf = buf[i+1:]
	}
	w.pending = buf
	return len(p), nil
}

// Core returns a zapcore.Core that records every entry at or above level into h.
func (h *History) Core(level zapcore.LevelEnabler) zapcore.Core {
	return &historyCore{LevelEnabler: level, h: h}
}

type historyCore struct {
	zapcore.LevelEnabler
	h      *History
	fields []zapcore.Field
}

func (c *historyCore) With(fields []zapcore.Field) zapcore.Core {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)
	return &historyCore{LevelEnabler: c.LevelEnabler, h: c.h, fields: all}
}

func (c *historyCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *historyCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(e.Level.String()))
	b.WriteByte(' ')
	if e.LoggerName != "" {
		b.WriteString(e.LoggerName)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	for _, k := range sortedKeys(enc.Fields) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(formatValue(enc.Fields[k]))
	}
	c.h.Add(b.String())
	return nil
}

func (c *historyCore) Sync() error { return nil }
