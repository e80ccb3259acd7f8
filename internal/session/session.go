// Package session ties one viewer to the UI state around it: the selection, the
// confirmation popup, the notification counter and the action dispatcher.
//
// Every mutation made through a Session counts as one pending notification, and
// edits to the selected primitive mark the selection dirty.
package session

import (
	"context"

	"cometweb/internal/actions"
	"cometweb/internal/notify"
	"cometweb/internal/popup"
	"cometweb/internal/scene"
	"cometweb/internal/selection"
	"cometweb/internal/viewer"

	"go.uber.org/zap"
)

// Session is safe for concurrent use; the viewer serializes scene access.
type Session struct {
	Viewer        *viewer.Viewer
	Selection     *selection.Controller
	Popup         *popup.Confirmation
	Notifications *notify.Counter
	Actions       *actions.Dispatcher

	log *zap.Logger
}

// New builds a session around v.
func New(v *viewer.Viewer, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		Viewer:        v,
		Popup:         popup.NewConfirmation(),
		Notifications: notify.NewCounter(),
		log:           log.Named("session"),
	}
	s.Selection = selection.NewController(func(id string) bool {
		_, ok := v.Get(id)
		return ok
	}, s.Popup)
	s.Actions = actions.NewDispatcher(s, log)
	return s
}

func (s *Session) changed(id string) {
	s.Notifications.Increment()
	if id != "" && id == s.Selection.Current() {
		s.Selection.MarkDirty()
	}
}

// Add inserts or replaces p.
func (s *Session) Add(ctx context.Context, p scene.Primitive) {
	s.Viewer.Add(ctx, p)
	s.changed(p.ID)
}

// Remove deletes id and drops it from the selection.
func (s *Session) Remove(ctx context.Context, id string) bool {
	if !s.Viewer.Remove(ctx, id) {
		return false
	}
	s.Selection.Forget(id)
	s.Notifications.Increment()
	return true
}

// Clear removes everything.
func (s *Session) Clear(ctx context.Context) {
	if cur := s.Selection.Current(); cur != "" {
		s.Selection.Forget(cur)
	}
	s.Viewer.Clear(ctx)
	s.Notifications.Increment()
}

// Replace rebuilds the scene from list, keeping the selection if its primitive survives.
func (s *Session) Replace(ctx context.Context, list []scene.Primitive) {
	cur := s.Selection.Current()
	s.Viewer.Replace(ctx, list)
	if _, ok := s.Viewer.Get(cur); cur != "" && !ok {
		s.Selection.Forget(cur)
	}
	s.Notifications.Increment()
	s.log.Debug("scene replaced", zap.Int("primitives", len(list)))
}

// Move sets the position of id.
func (s *Session) Move(ctx context.Context, id string, pos scene.Vec3) bool {
	if !s.Viewer.Move(ctx, id, pos) {
		return false
	}
	s.changed(id)
	return true
}

// Rotate sets the rotation of id.
func (s *Session) Rotate(ctx context.Context, id string, rot scene.Vec3) bool {
	if !s.Viewer.Rotate(ctx, id, rot) {
		return false
	}
	s.changed(id)
	return true
}

// SetVisible shows or hides id.
func (s *Session) SetVisible(ctx context.Context, id string, visible bool) bool {
	if !s.Viewer.SetVisible(ctx, id, visible) {
		return false
	}
	s.changed(id)
	return true
}

// PickAndSelect hit-tests the surface and requests selection of whatever is under the pointer.
func (s *Session) PickAndSelect(ctx context.Context) (scene.Primitive, selection.Outcome, bool) {
	p, ok := s.Viewer.Pick(ctx)
	if !ok {
		return scene.Primitive{}, selection.Unchanged, false
	}
	outcome, err := s.Selection.Request(p.ID)
	if err != nil {
		return p, selection.Unchanged, false
	}
	return p, outcome, true
}

var _ actions.Scene = (*Session)(nil)
