// Package foundation holds small generic helpers shared by config parsing.
package foundation

import (
	"fmt"
	"sort"
	"strings"
)

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalizer maps loosely written config strings ("  GPIO ", "Json") onto
// typed enum values.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
}

// NewNormalizer builds a normalizer from raw spellings to values.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	for k, v := range values {
		normalized[canonical(k)] = v
	}
	return &Normalizer[T]{values: normalized, defaultValue: defaultValue}
}

// Normalize returns the default value when raw is empty or unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[canonical(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeWithError is like Normalize but rejects unknown non-empty input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	c := canonical(raw)
	if c == "" {
		return n.defaultValue, nil
	}
	if v, ok := n.values[c]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q (allowed: %s)", raw, strings.Join(n.Allowed(), ", "))
}

// Allowed lists the accepted spellings, sorted.
func (n *Normalizer[T]) Allowed() []string {
	out := make([]string, 0, len(n.values))
	for k := range n.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
