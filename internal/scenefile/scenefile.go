// Package scenefile reads the source data a scene registry is rebuilt from.
//
// Three formats are understood, picked by extension:
//
//	.yaml/.yml  primitives: [{id: c1, kind: box, position: [0, 1, 0]}]
//	.json       {"primitives": [{"id": "c1", "kind": "box"}]}
//	.hcl        box "c1" { position = [0, 1, 0] }
//
// Missing ids are generated, missing dimensions take the kind's defaults and
// primitives are visible unless they say otherwise.
package scenefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cometweb/internal/scene"
	"cometweb/internal/validation"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files whose extension is not a known scene format.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// record is one primitive as written in a YAML or JSON scene file.
type record struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	Kind       string     `json:"kind" yaml:"kind"`
	Position   scene.Vec3 `json:"position" yaml:"position,flow"`
	Rotation   scene.Vec3 `json:"rotation" yaml:"rotation,flow"`
	Dimensions []float64  `json:"dimensions,omitempty" yaml:"dimensions,flow,omitempty"`
	Visible    *bool      `json:"visible,omitempty" yaml:"visible,omitempty" copier:"-"`
}

type document struct {
	Primitives []record `json:"primitives" yaml:"primitives"`
}

// Load reads and validates the scene file at path.
func Load(path string) ([]scene.Primitive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes data using the format implied by name's extension.
func Parse(name string, data []byte) ([]scene.Primitive, error) {
	var (
		records []record
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		var doc document
		err = yaml.Unmarshal(data, &doc)
		records = doc.Primitives
	case ".json":
		var doc document
		err = json.Unmarshal(data, &doc)
		records = doc.Primitives
	case ".hcl":
		records, err = decodeHCL(name, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode scene %s: %w", name, err)
	}
	return build(records)
}

// DecodeJSON decodes and validates a single JSON primitive, applying the same
// defaults as a scene file record.
func DecodeJSON(data []byte) (scene.Primitive, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return scene.Primitive{}, fmt.Errorf("decode primitive: %w", err)
	}
	list, err := build([]record{rec})
	if err != nil {
		return scene.Primitive{}, err
	}
	return list[0], nil
}

// Supported reports whether path has an extension Load understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".hcl":
		return true
	}
	return false
}

// build turns records into validated primitives. Every invalid record is reported,
// prefixed with its index and id.
func build(records []record) ([]scene.Primitive, error) {
	out := make([]scene.Primitive, 0, len(records))
	var problems []string
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		p, err := toPrimitive(rec)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", i, err)
		}
		for _, msg := range validation.Primitive.Validate(p) {
			problems = append(problems, fmt.Sprintf("primitive %d (%s): %s", i, p.ID, msg))
		}
		if prev, dup := seen[p.ID]; dup {
			problems = append(problems, fmt.Sprintf("primitive %d (%s): id: duplicates primitive %d", i, p.ID, prev))
		}
		seen[p.ID] = i
		out = append(out, p)
	}
	if len(problems) > 0 {
		return nil, &validation.Error{Messages: problems}
	}
	return out, nil
}

func toPrimitive(rec record) (scene.Primitive, error) {
	var p scene.Primitive
	if err := copier.CopyWithOption(&p, &rec, copier.Option{DeepCopy: true}); err != nil {
		return p, err
	}
	if p.ID == "" {
		p.ID = scene.NewID()
	}
	if len(p.Dimensions) == 0 {
		p.Dimensions = scene.DefaultDimensions(p.Kind)
	}
	p.Visible = rec.Visible == nil || *rec.Visible
	return p, nil
}

func fromPrimitive(p scene.Primitive) record {
	var rec record
	_ = copier.CopyWithOption(&rec, &p, copier.Option{DeepCopy: true})
	if !p.Visible {
		hidden := false
		rec.Visible = &hidden
	}
	return rec
}

// Marshal encodes primitives as a YAML scene document that Parse reads back.
func Marshal(list []scene.Primitive) ([]byte, error) {
	doc := document{Primitives: make([]record, 0, len(list))}
	for _, p := range list {
		doc.Primitives = append(doc.Primitives, fromPrimitive(p))
	}
	return yaml.Marshal(doc)
}
