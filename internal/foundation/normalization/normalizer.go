// Package normalization maps loosely written configuration strings onto
// typed enumerations.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps case-insensitive, trimmed strings to values of T.
type Normalizer[T comparable] struct {
	values map[string]T
	def    T
	keys   []string
}

// NewNormalizer builds a normalizer over values; unknown input maps to def.
func NewNormalizer[T comparable](values map[string]T, def T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values)), def: def}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Lookup returns the value for raw and whether raw was recognized.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[clean(raw)]
	return v, ok
}

// Normalize returns the value for raw, or the default when unrecognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return n.def
}

// Default is the value unknown input maps to.
func (n *Normalizer[T]) Default() T { return n.def }

// ValidKeys lists the accepted spellings, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	return append([]string(nil), n.keys...)
}

// EnumNormalizer is a Normalizer that names its enumeration in errors.
type EnumNormalizer[T comparable] struct {
	*Normalizer[T]
	name string
}

// NewEnumNormalizer builds a named normalizer.
func NewEnumNormalizer[T comparable](name string, values map[string]T, def T) *EnumNormalizer[T] {
	return &EnumNormalizer[T]{Normalizer: NewNormalizer(values, def), name: name}
}

// Validate returns the value for raw or an error listing the accepted values.
func (e *EnumNormalizer[T]) Validate(raw string) (T, error) {
	if v, ok := e.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", e.name, raw, strings.Join(e.keys, ", "))
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
