// Package actions applies JSON action batches to a scene.
//
// A batch is either {"actions": [{"action": "add_primitive", ...}, ...]} or a single
// action object. Each action is applied in order; a failing action is reported and
// the rest still run.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"cometweb/internal/scene"

	"go.uber.org/zap"
)

// Scene is the subset of the viewer that actions mutate.
type Scene interface {
	Add(ctx context.Context, p scene.Primitive)
	Remove(ctx context.Context, id string) bool
	Clear(ctx context.Context)
	Move(ctx context.Context, id string, pos scene.Vec3) bool
	Rotate(ctx context.Context, id string, rot scene.Vec3) bool
	SetVisible(ctx context.Context, id string, visible bool) bool
}

// Handler applies one action. Payload is the whole action object, including "action".
type Handler func(ctx context.Context, payload map[string]any) error

// Dispatcher routes actions to handlers by their "action" field.
type Dispatcher struct {
	handlers map[string]Handler
	log      *zap.Logger
}

// Result reports what a batch did.
type Result struct {
	Applied int      `json:"applied"`
	Errors  []string `json:"errors,omitempty"`
}

// Summary is a one-line description for logs and the console.
func (r Result) Summary() string {
	switch {
	case len(r.Errors) > 0:
		return strings.Join(r.Errors, "; ")
	case r.Applied > 0:
		return fmt.Sprintf("Done. Applied %d action(s).", r.Applied)
	default:
		return "No actions to apply."
	}
}

// NewDispatcher returns a dispatcher with the scene actions registered against target.
func NewDispatcher(target Scene, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{handlers: make(map[string]Handler), log: log.Named("actions")}
	registerSceneHandlers(d, target)
	return d
}

// Register adds or replaces the handler for an action name.
func (d *Dispatcher) Register(action string, h Handler) {
	d.handlers[action] = h
}

// Names lists the registered actions in ascending order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run parses text as an action batch and applies it.
func (d *Dispatcher) Run(ctx context.Context, text string) (Result, error) {
	batch, err := Parse(text)
	if err != nil {
		return Result{}, err
	}
	return d.Apply(ctx, batch), nil
}

// Apply runs each action in order.
func (d *Dispatcher) Apply(ctx context.Context, batch []any) Result {
	var res Result
	for i, raw := range batch {
		payload, ok := raw.(map[string]any)
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("action %d: invalid object", i+1))
			continue
		}
		name, _ := payload["action"].(string)
		if name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("action %d: missing action", i+1))
			continue
		}
		h, ok := d.handlers[name]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("action %d: unknown action %q", i+1, name))
			continue
		}
		if err := h(ctx, payload); err != nil {
			d.log.Debug("action failed", zap.Int("index", i+1), zap.String("action", name), zap.Error(err))
			res.Errors = append(res.Errors, fmt.Sprintf("action %d (%s): %v", i+1, name, err))
			continue
		}
		res.Applied++
	}
	d.log.Info("batch applied", zap.Int("applied", res.Applied), zap.Int("failed", len(res.Errors)))
	return res
}

var fence = regexp.MustCompile("^```\\w*\\n?")

// Parse extracts the action list from text. It tolerates a markdown code fence and
// text around the first JSON object, and accepts {"actions": [...]}, {"actions": {...}}
// and a bare {"action": ...} object.
func Parse(text string) ([]any, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = fence.ReplaceAllString(text, "")
		text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
	}
	start := strings.Index(text, "{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in input")
	}
	text = text[start:]
	depth, end := 0, -1
	for i, c := range text {
		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				end = i + 1
				break
			}
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unbalanced JSON braces")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[:end]), &raw); err != nil {
		return nil, err
	}
	if arr, ok := raw["actions"].([]any); ok {
		return arr, nil
	}
	if obj, ok := raw["actions"].(map[string]any); ok {
		return []any{obj}, nil
	}
	if _, ok := raw["action"]; ok {
		return []any{raw}, nil
	}
	return nil, fmt.Errorf("missing actions array")
}
