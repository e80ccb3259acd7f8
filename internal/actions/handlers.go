package actions

import (
	"context"
	"fmt"
	"math"

	"cometweb/internal/scene"
	"cometweb/internal/validation"
)

// maxBatchSpawn caps add_primitives.
const maxBatchSpawn = 500

func registerSceneHandlers(d *Dispatcher, target Scene) {
	d.Register("add_primitive", func(ctx context.Context, payload map[string]any) error {
		p, err := primitiveFromPayload(payload)
		if err != nil {
			return err
		}
		target.Add(ctx, p)
		return nil
	})
	d.Register("add_primitives", func(ctx context.Context, payload map[string]any) error {
		return addPrimitives(ctx, target, payload)
	})
	d.Register("remove_primitive", func(ctx context.Context, payload map[string]any) error {
		id, err := requireID(payload)
		if err != nil {
			return err
		}
		if !target.Remove(ctx, id) {
			return fmt.Errorf("unknown primitive %q", id)
		}
		return nil
	})
	d.Register("clear", func(ctx context.Context, _ map[string]any) error {
		target.Clear(ctx)
		return nil
	})
	d.Register("set_translation", func(ctx context.Context, payload map[string]any) error {
		id, err := requireID(payload)
		if err != nil {
			return err
		}
		pos, err := parseFloat3(payload["position"])
		if err != nil {
			return fmt.Errorf("position: %w", err)
		}
		if !target.Move(ctx, id, pos) {
			return fmt.Errorf("unknown primitive %q", id)
		}
		return nil
	})
	d.Register("set_rotation", func(ctx context.Context, payload map[string]any) error {
		id, err := requireID(payload)
		if err != nil {
			return err
		}
		rot, err := parseFloat3(payload["rotation"])
		if err != nil {
			return fmt.Errorf("rotation: %w", err)
		}
		if !target.Rotate(ctx, id, rot) {
			return fmt.Errorf("unknown primitive %q", id)
		}
		return nil
	})
	d.Register("set_visibility", func(ctx context.Context, payload map[string]any) error {
		id, err := requireID(payload)
		if err != nil {
			return err
		}
		visible, ok := payload["visible"].(bool)
		if !ok {
			return fmt.Errorf("visible: expected true or false")
		}
		if !target.SetVisible(ctx, id, visible) {
			return fmt.Errorf("unknown primitive %q", id)
		}
		return nil
	})
}

// primitiveFromPayload builds a validated primitive from an add_primitive payload.
// Kind is read from "kind" or "type"; id, position, rotation, dimensions and visible are optional.
func primitiveFromPayload(payload map[string]any) (scene.Primitive, error) {
	kind, _ := payload["kind"].(string)
	if kind == "" {
		kind, _ = payload["type"].(string)
	}
	if kind == "" {
		return scene.Primitive{}, fmt.Errorf("missing kind")
	}
	id, _ := payload["id"].(string)
	p := scene.New(id, scene.Kind(kind))

	var err error
	if v, ok := payload["position"]; ok {
		if p.Position, err = parseFloat3(v); err != nil {
			return p, fmt.Errorf("position: %w", err)
		}
	}
	if v, ok := payload["rotation"]; ok {
		if p.Rotation, err = parseFloat3(v); err != nil {
			return p, fmt.Errorf("rotation: %w", err)
		}
	}
	if v, ok := payload["dimensions"]; ok {
		if p.Dimensions, err = parseFloats(v); err != nil {
			return p, fmt.Errorf("dimensions: %w", err)
		}
	}
	p.Visible = parseBoolOpt(payload["visible"], true)
	if err := validation.Primitive.Err(p); err != nil {
		return p, err
	}
	return p, nil
}

// addPrimitives spawns count copies of one kind laid out in a grid or a line from origin.
func addPrimitives(ctx context.Context, target Scene, payload map[string]any) error {
	template, err := primitiveFromPayload(payload)
	if err != nil {
		return err
	}
	count := 1
	if n, ok := payload["count"].(float64); ok && n >= 1 {
		count = int(n)
	}
	count = min(count, maxBatchSpawn)
	spacing := 2.0
	if s, ok := payload["spacing"].(float64); ok && s > 0 {
		spacing = s
	}
	origin := template.Position
	if v, ok := payload["origin"]; ok {
		if origin, err = parseFloat3(v); err != nil {
			return fmt.Errorf("origin: %w", err)
		}
	}
	pattern, _ := payload["pattern"].(string)

	cols := int(math.Ceil(math.Sqrt(float64(count))))
	for i := 0; i < count; i++ {
		p := template
		p.ID = scene.NewID()
		p.Dimensions = append([]float64(nil), template.Dimensions...)
		switch pattern {
		case "line":
			p.Position = scene.Vec3{origin[0] + float64(i)*spacing, origin[1], origin[2]}
		default:
			row, col := i/cols, i%cols
			p.Position = scene.Vec3{origin[0] + float64(col)*spacing, origin[1], origin[2] + float64(row)*spacing}
		}
		target.Add(ctx, p)
	}
	return nil
}

func requireID(payload map[string]any) (string, error) {
	id, _ := payload["id"].(string)
	if id == "" {
		return "", fmt.Errorf("missing id")
	}
	return id, nil
}

func parseBoolOpt(v any, defaultVal bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return defaultVal
}

func parseFloats(v any) ([]float64, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of numbers")
	}
	out := make([]float64, len(arr))
	for i, x := range arr {
		n, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("[%d] not a number", i)
		}
		out[i] = n
	}
	return out, nil
}

func parseFloat3(v any) (scene.Vec3, error) {
	var out scene.Vec3
	vals, err := parseFloats(v)
	if err != nil || len(vals) != 3 {
		return out, fmt.Errorf("expected [x,y,z]")
	}
	copy(out[:], vals)
	return out, nil
}
