// SPDX-License-Identifier: MIT

package nest

import (
	"fmt"
	"reflect"
	"strings"
)

// OrderedMap is a string-keyed mapping that remembers insertion order.
// It is the ordered counterpart of map[string]any: flattening walks keys in
// insertion order rather than sorted order.
type OrderedMap struct {
	keys []string
	vals map[string]any
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]any)}
}

// Set stores v under k. A new key is appended; an existing key keeps its
// position. Returns m for chaining.
func (m *OrderedMap) Set(k string, v any) *OrderedMap {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
	return m
}

// Get returns the value under k.
func (m *OrderedMap) Get(k string) (any, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order.
func (m *OrderedMap) Values() []any {
	out := make([]any, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.vals[k]
	}
	return out
}

// Len is the number of entries.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Equal reports whether m and o hold the same keys in the same order with
// deeply equal values.
func (m *OrderedMap) Equal(o *OrderedMap) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !reflect.DeepEqual(m.keys, o.keys) {
		return false
	}
	for _, k := range m.keys {
		if !reflect.DeepEqual(m.vals[k], o.vals[k]) {
			return false
		}
	}
	return true
}

// String renders the map as {k1: v1, k2: v2}.
func (m *OrderedMap) String() string {
	parts := make([]string, len(m.keys))
	for i, k := range m.keys {
		parts[i] = fmt.Sprintf("%s: %v", k, m.vals[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// NamedTuple is a fixed-length sequence whose positions also carry field
// names. It flattens like a sequence.
type NamedTuple struct {
	TypeName string
	Fields   []string
	Values   []any
}

// NewNamedTuple builds a NamedTuple. Fields must be unique and match values
// in length.
func NewNamedTuple(typeName string, fields []string, values []any) (*NamedTuple, error) {
	const op = "NewNamedTuple"
	if len(fields) != len(values) {
		return nil, nestErrorf(op, ErrCount, "%d fields, %d values", len(fields), len(values))
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			return nil, nestErrorf(op, ErrDuplicateKey, "%q", f)
		}
		seen[f] = struct{}{}
	}
	return &NamedTuple{
		TypeName: typeName,
		Fields:   append([]string(nil), fields...),
		Values:   append([]any(nil), values...),
	}, nil
}

// Get returns the value of the named field.
func (t *NamedTuple) Get(field string) (any, bool) {
	for i, f := range t.Fields {
		if f == field {
			return t.Values[i], true
		}
	}
	return nil, false
}

// String renders the tuple as TypeName(f1=v1, f2=v2).
func (t *NamedTuple) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprintf("%s=%v", f, t.Values[i])
	}
	return t.TypeName + "(" + strings.Join(parts, ", ") + ")"
}
