package validation

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"cometweb/internal/scene"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CollectsAllFailures(t *testing.T) {
	type form struct {
		Name string
		Age  int
	}
	v := New(
		Rule[form]{Field: "name", Check: func(f form) bool { return NotEmpty(f.Name) }, Message: "is required"},
		Rule[form]{Field: "age", Check: func(f form) bool { return f.Age >= 0 }, Message: "must not be negative"},
	)

	assert.Empty(t, v.Validate(form{Name: "x", Age: 1}))
	assert.Equal(t, []string{"name: is required", "age: must not be negative"}, v.Validate(form{Name: " ", Age: -1}))
}

func TestValidator_With(t *testing.T) {
	base := New(Rule[int]{Field: "n", Check: func(n int) bool { return n > 0 }, Message: "must be positive"})
	strict := base.With(Rule[int]{Field: "n", Check: func(n int) bool { return n < 10 }, Message: "must be below 10"})

	assert.Empty(t, base.Validate(20))
	assert.Equal(t, []string{"n: must be below 10"}, strict.Validate(20))
}

func TestValidator_Err(t *testing.T) {
	v := New(Rule[string]{Field: "s", Check: NotEmpty, Message: "is required"})
	require.NoError(t, v.Err("ok"))

	err := v.Err("")
	require.Error(t, err)
	assert.Equal(t, "s: is required", err.Error())
	assert.Equal(t, []string{"s: is required"}, Messages(fmt.Errorf("wrapped: %w", err)))
	assert.Nil(t, Messages(errors.New("plain")))
}

func TestPrimitiveRules(t *testing.T) {
	valid := scene.New("c1", scene.KindBox)
	assert.Empty(t, Primitive.Validate(valid))

	bad := valid
	bad.ID = ""
	bad.Kind = "torus"
	bad.Position = scene.Vec3{math.NaN(), 0, 0}
	bad.Dimensions = []float64{1, -1}
	msgs := Primitive.Validate(bad)
	assert.Contains(t, msgs, "id: is required")
	assert.Contains(t, msgs, "kind: must be one of box, cube, sphere, cylinder, plane")
	assert.Contains(t, msgs, "position: must be finite")
	assert.Contains(t, msgs, "dimensions: must be positive")

	wrongArity := scene.New("c2", scene.KindBox)
	wrongArity.Dimensions = []float64{1, 2}
	assert.Equal(t, []string{"dimensions: has the wrong number of values for the kind"}, Primitive.Validate(wrongArity))
}
