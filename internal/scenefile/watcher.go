package scenefile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"cometweb/internal/scene"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last write before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a scene file whenever it changes on disk and hands the result to onChange.
// Files that fail to load are logged and skipped; the previous scene stays in place.
type Watcher struct {
	mu       sync.Mutex
	path     string
	watcher  *fsnotify.Watcher
	onChange func([]scene.Primitive)
	log      *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	reloads  int
}

// NewWatcher watches path. The directory is watched rather than the file so editors
// that replace the file on save are still seen.
func NewWatcher(path string, onChange func([]scene.Primitive), log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		watcher:  fw,
		onChange: onChange,
		log:      log.Named("scenefile"),
		debounce: DefaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period. Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

// Start begins watching in a goroutine. It returns once the directory is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("watching scene file", zap.String("path", w.path))
	go w.run(ctx)
	return nil
}

// Stop ends the watch loop, waits for it to exit and releases the fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Warn("close watcher", zap.Error(err))
	}
}

// Reloads returns how many times onChange has been called.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	w.mu.Lock()
	quiet := w.debounce
	w.mu.Unlock()

	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("scene file event", zap.String("op", event.Op.String()))
			timer.Reset(quiet)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	list, err := Load(w.path)
	if err != nil {
		w.log.Warn("scene reload failed, keeping previous scene", zap.Error(err))
		return
	}
	w.log.Info("scene reloaded", zap.Int("primitives", len(list)))
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	if w.onChange != nil {
		w.onChange(list)
	}
}
