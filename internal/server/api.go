package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cometweb/internal/scene"
	"cometweb/internal/scenefile"
	"cometweb/internal/selection"
	"cometweb/internal/settings"
	"cometweb/internal/validation"

	"golang.org/x/text/language"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Details: validation.Messages(err)})
}

func notFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, fmt.Errorf("primitive %q not found", id))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func (s *Server) listPrimitives(w http.ResponseWriter, _ *http.Request) {
	list := make([]scene.Primitive, 0)
	for _, id := range s.session.Viewer.IDs() {
		if p, ok := s.session.Viewer.Get(id); ok {
			list = append(list, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"primitives": list})
}

func (s *Server) addPrimitive(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := scenefile.DecodeJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.Add(r.Context(), p)
	writeJSON(w, http.StatusCreated, p)
}

// replacePrimitives rebuilds the scene from a {"primitives": [...]} document.
func (s *Server) replacePrimitives(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := scenefile.Parse("request.json", data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.Replace(r.Context(), list)
	writeJSON(w, http.StatusOK, map[string]int{"primitives": len(list)})
}

func (s *Server) clearPrimitives(w http.ResponseWriter, r *http.Request) {
	s.session.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPrimitive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, ok := s.session.Viewer.Get(id)
	if !ok {
		notFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) removePrimitive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.session.Remove(r.Context(), id) {
		notFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// vecRequest is the body of the translation and rotation endpoints.
type vecRequest struct {
	Value *[3]float64 `json:"value"`
}

var vecRules = validation.New(
	validation.Rule[vecRequest]{
		Field:   "value",
		Check:   func(v vecRequest) bool { return v.Value != nil },
		Message: "is required",
	},
	validation.Rule[vecRequest]{
		Field:   "value",
		Check:   func(v vecRequest) bool { return v.Value == nil || validation.Finite(v.Value[:]...) },
		Message: "must be finite",
	},
)

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

var visibilityRules = validation.New(
	validation.Rule[visibilityRequest]{
		Field:   "visible",
		Check:   func(v visibilityRequest) bool { return v.Visible != nil },
		Message: "is required",
	},
)

func (s *Server) decodeVec(w http.ResponseWriter, r *http.Request) (scene.Vec3, bool) {
	var req vecRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return scene.Vec3{}, false
	}
	if err := vecRules.Err(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return scene.Vec3{}, false
	}
	return scene.Vec3(*req.Value), true
}

func (s *Server) setTranslation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pos, ok := s.decodeVec(w, r)
	if !ok {
		return
	}
	if !s.session.Move(r.Context(), id, pos) {
		notFound(w, id)
		return
	}
	s.getPrimitive(w, r)
}

func (s *Server) setRotation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rot, ok := s.decodeVec(w, r)
	if !ok {
		return
	}
	if !s.session.Rotate(r.Context(), id, rot) {
		notFound(w, id)
		return
	}
	s.getPrimitive(w, r)
}

func (s *Server) setVisibility(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req visibilityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := visibilityRules.Err(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.session.SetVisible(r.Context(), id, *req.Visible) {
		notFound(w, id)
		return
	}
	s.getPrimitive(w, r)
}

// pickResponse reports the hit-test result. Primitive is nil when nothing is hit.
type pickResponse struct {
	Primitive *scene.Primitive `json:"primitive"`
	Outcome   string           `json:"outcome,omitempty"`
}

func (s *Server) pick(w http.ResponseWriter, r *http.Request) {
	var resp pickResponse
	if p, ok := s.session.Viewer.Pick(r.Context()); ok {
		resp.Primitive = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) pickAndSelect(w http.ResponseWriter, r *http.Request) {
	var resp pickResponse
	if p, outcome, ok := s.session.PickAndSelect(r.Context()); ok {
		resp.Primitive = &p
		resp.Outcome = outcomeName(outcome)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runActions(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.session.Actions.Run(r.Context(), string(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status := http.StatusOK
	if len(res.Errors) > 0 && res.Applied == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{"applied": res.Applied, "errors": res.Errors, "summary": res.Summary()})
}

func outcomeName(o selection.Outcome) string {
	switch o {
	case selection.Selected:
		return "selected"
	case selection.Pending:
		return "pending"
	default:
		return "unchanged"
	}
}

type selectionState struct {
	Current string `json:"current"`
	Pending string `json:"pending,omitempty"`
	Dirty   bool   `json:"dirty"`
	Popup   string `json:"popup"`
}

func (s *Server) selectionState() selectionState {
	sel := s.session.Selection
	return selectionState{
		Current: sel.Current(),
		Pending: sel.Pending(),
		Dirty:   sel.Dirty(),
		Popup:   s.session.Popup.State().String(),
	}
}

func (s *Server) getSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.selectionState())
}

func (s *Server) requestSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	outcome, err := s.session.Selection.Request(req.ID)
	if errors.Is(err, selection.ErrUnknown) {
		notFound(w, req.ID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcome": outcomeName(outcome), "selection": s.selectionState()})
}

// confirm clicks a popup button. Clicking while the popup is hidden is a 409.
func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	var clicked bool
	switch choice := r.PathValue("choice"); choice {
	case "continue":
		clicked = s.session.Popup.Continue()
	case "cancel":
		clicked = s.session.Popup.Cancel()
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown choice %q", choice))
		return
	}
	if !clicked {
		writeError(w, http.StatusConflict, errors.New("confirmation popup is not visible"))
		return
	}
	writeJSON(w, http.StatusOK, s.selectionState())
}

func (s *Server) getNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.session.Notifications.Count()})
}

func (s *Server) resetNotifications(w http.ResponseWriter, _ *http.Request) {
	s.session.Notifications.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// getString returns the localized string for key, or the key itself when the
// table is missing, uninitialized or lacks it.
func (s *Server) getString(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	value, found, lang := key, false, language.Und
	if s.opts.Strings != nil {
		value, found = s.opts.Strings.Lookup(key)
		lang = s.opts.Strings.Language()
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": value, "found": found, "language": lang.String()})
}

// listConfiguration returns the keys of the configuration document.
func (s *Server) listConfiguration(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Configuration == nil || !s.opts.Configuration.Initialized() {
		writeError(w, http.StatusServiceUnavailable, settings.ErrNotInitialized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": s.opts.Configuration.Keys()})
}

// getConfiguration returns the raw JSON object stored under key.
func (s *Server) getConfiguration(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if s.opts.Configuration == nil || !s.opts.Configuration.Initialized() {
		writeError(w, http.StatusServiceUnavailable, settings.ErrNotInitialized)
		return
	}
	raw, ok := s.opts.Configuration.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("configuration key %q not found", key))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// getNaming returns the configured name for a convention key. Without a
// convention document the key itself is the name.
func (s *Server) getNaming(w http.ResponseWriter, r *http.Request) {
	key := settings.ConventionKey(r.PathValue("key"))
	name := string(key)
	if s.opts.Naming != nil {
		name = s.opts.Naming.Name(key)
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": string(key), "name": name})
}
