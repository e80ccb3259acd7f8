package scenefile

import (
	"fmt"
	"math"

	"cometweb/internal/scene"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// hclPrimitive is the body of one kind block. The block label is the primitive id.
type hclPrimitive struct {
	ID         string    `hcl:"id,label"`
	Position   []float64 `hcl:"position,optional"`
	Rotation   []float64 `hcl:"rotation,optional"`
	Dimensions []float64 `hcl:"dimensions,optional"`
	Visible    *bool     `hcl:"visible,optional"`
}

type hclScene struct {
	Boxes     []*hclPrimitive `hcl:"box,block"`
	Cubes     []*hclPrimitive `hcl:"cube,block"`
	Spheres   []*hclPrimitive `hcl:"sphere,block"`
	Cylinders []*hclPrimitive `hcl:"cylinder,block"`
	Planes    []*hclPrimitive `hcl:"plane,block"`
}

// evalContext exposes pi and a few numeric functions to scene expressions,
// e.g. rotation = [0, deg(pi / 4), 0].
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"pi": cty.NumberFloatVal(math.Pi),
		},
		Functions: map[string]function.Function{
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
			"max":   stdlib.MaxFunc,
			"min":   stdlib.MinFunc,
			"deg":   degreesFunc,
		},
	}
}

var degreesFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "radians", Type: cty.Number}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		rad, _ := args[0].AsBigFloat().Float64()
		return cty.NumberFloatVal(rad * 180 / math.Pi), nil
	},
})

func decodeHCL(name string, data []byte) ([]record, error) {
	var doc hclScene
	if err := hclsimple.Decode(name, data, evalContext(), &doc); err != nil {
		return nil, err
	}
	var records []record
	groups := []struct {
		kind   scene.Kind
		blocks []*hclPrimitive
	}{
		{scene.KindBox, doc.Boxes},
		{scene.KindCube, doc.Cubes},
		{scene.KindSphere, doc.Spheres},
		{scene.KindCylinder, doc.Cylinders},
		{scene.KindPlane, doc.Planes},
	}
	for _, g := range groups {
		for _, b := range g.blocks {
			rec := record{
				ID:         b.ID,
				Kind:       string(g.kind),
				Dimensions: b.Dimensions,
				Visible:    b.Visible,
			}
			var err error
			if rec.Position, err = vec3(b.Position); err != nil {
				return nil, fmt.Errorf("%s %q: position: %w", g.kind, b.ID, err)
			}
			if rec.Rotation, err = vec3(b.Rotation); err != nil {
				return nil, fmt.Errorf("%s %q: rotation: %w", g.kind, b.ID, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func vec3(vals []float64) (scene.Vec3, error) {
	var v scene.Vec3
	if len(vals) == 0 {
		return v, nil
	}
	if len(vals) != 3 {
		return v, fmt.Errorf("want 3 values, got %d", len(vals))
	}
	copy(v[:], vals)
	return v, nil
}
