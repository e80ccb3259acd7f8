// Package validation runs declarative field rule lists against a value and
// collects the messages of the rules that fail.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Rule checks one field of T. Message is reported as "Field: Message" when Check returns false.
type Rule[T any] struct {
	Field   string
	Check   func(T) bool
	Message string
}

// Validator is an ordered list of rules. Every rule runs; failures do not short-circuit.
type Validator[T any] struct {
	rules []Rule[T]
}

// New returns a validator over the given rules.
func New[T any](rules ...Rule[T]) *Validator[T] {
	return &Validator[T]{rules: rules}
}

// With returns a new validator with extra rules appended.
func (v *Validator[T]) With(rules ...Rule[T]) *Validator[T] {
	all := make([]Rule[T], 0, len(v.rules)+len(rules))
	all = append(all, v.rules...)
	all = append(all, rules...)
	return &Validator[T]{rules: all}
}

// Validate returns one message per failing rule, in rule order. Empty means valid.
func (v *Validator[T]) Validate(value T) []string {
	var msgs []string
	for _, r := range v.rules {
		if !r.Check(value) {
			msgs = append(msgs, fmt.Sprintf("%s: %s", r.Field, r.Message))
		}
	}
	return msgs
}

// Err is Validate folded into a single error, or nil.
func (v *Validator[T]) Err(value T) error {
	msgs := v.Validate(value)
	if len(msgs) == 0 {
		return nil
	}
	return &Error{Messages: msgs}
}

// Error carries every failed rule message.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Messages extracts rule messages from err when it wraps an *Error.
func Messages(err error) []string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}

// NotEmpty is a Check helper for required strings.
func NotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(vals ...float64) bool {
	for _, f := range vals {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// AllPositive reports whether every value is finite and > 0.
func AllPositive(vals []float64) bool {
	for _, f := range vals {
		if !Finite(f) || f <= 0 {
			return false
		}
	}
	return true
}
