// SPDX-License-Identifier: MIT

// Package nest manipulates nested value structures: the shape of a joint
// model's value, dtype or per-component result.
//
// Structures:
//   - []any              sequence, walked by index;
//   - *NamedTuple        sequence with field names, walked by index;
//   - *OrderedMap        mapping, walked in insertion order;
//   - map[string]any     unordered mapping, walked in sorted key order.
//
// Every other value (float64, int, []float64, [][]float64, *tensor.Dense,
// nil, …) is a leaf. In particular []float64 is tensor content, not a
// sequence of leaves.
//
// Determinism: Flatten of the same structure always yields the same order.
package nest

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
)

// IsNested reports whether v is one of the structure kinds.
func IsNested(v any) bool {
	switch v.(type) {
	case []any, *NamedTuple, *OrderedMap, map[string]any:
		return true
	default:
		return false
	}
}

// IsUnorderedMapping reports whether v is a map[string]any.
func IsUnorderedMapping(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// IsMapping reports whether v is keyed by name (ordered or unordered).
func IsMapping(v any) bool {
	switch v.(type) {
	case *OrderedMap, map[string]any:
		return true
	default:
		return false
	}
}

// Len returns the number of top-level entries of a structure; a leaf counts 1.
func Len(v any) int {
	if !IsNested(v) {
		return 1
	}
	_, vals := children(v)
	return len(vals)
}

// Keys returns the top-level keys of a mapping (walk order) or the field
// names of a named tuple; nil otherwise.
func Keys(v any) []string {
	switch v.(type) {
	case *OrderedMap, map[string]any, *NamedTuple:
		keys, _ := children(v)
		return keys
	default:
		return nil
	}
}

// children returns the top-level keys (nil for []any) and values of v in walk order.
func children(v any) ([]string, []any) {
	switch t := v.(type) {
	case []any:
		return nil, t
	case *NamedTuple:
		return t.Fields, t.Values
	case *OrderedMap:
		return t.Keys(), t.Values()
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := make([]any, len(keys))
		for i, k := range keys {
			vals[i] = t[k]
		}
		return keys, vals
	default:
		return nil, nil
	}
}

// Flatten returns the leaves of v depth-first in walk order.
// Complexity: O(number of nodes).
func Flatten(v any) []any {
	var out []any
	var walk func(x any)
	walk = func(x any) {
		if !IsNested(x) {
			out = append(out, x)
			return
		}
		_, vals := children(x)
		for _, c := range vals {
			walk(c)
		}
	}
	walk(v)
	return out
}

// PackSequenceAs rebuilds structure with its leaves replaced, in walk order,
// by the elements of flat. Container types are preserved.
//
// Errors: ErrCount if len(flat) differs from the number of leaves.
func PackSequenceAs(structure any, flat []any) (any, error) {
	const op = "PackSequenceAs"
	pos := 0
	var build func(x any) any
	build = func(x any) any {
		if !IsNested(x) {
			v := flat[pos]
			pos++
			return v
		}
		keys, vals := children(x)
		out := make([]any, len(vals))
		for i, c := range vals {
			out[i] = build(c)
		}
		return rewrap(x, keys, out)
	}
	if want := len(Flatten(structure)); want != len(flat) {
		return nil, nestErrorf(op, ErrCount, "structure has %d leaves, got %d", want, len(flat))
	}
	return build(structure), nil
}

// rewrap builds a container of the same kind as like from keys/values.
func rewrap(like any, keys []string, vals []any) any {
	switch t := like.(type) {
	case []any:
		return vals
	case *NamedTuple:
		return &NamedTuple{TypeName: t.TypeName, Fields: slices.Clone(t.Fields), Values: vals}
	case *OrderedMap:
		m := NewOrderedMap()
		for i, k := range keys {
			m.Set(k, vals[i])
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(keys))
		for i, k := range keys {
			m[k] = vals[i]
		}
		return m
	default:
		return vals
	}
}

// AssertSameStructure returns nil when a and b nest identically.
// With checkTypes=false a []any matches a *NamedTuple of equal length and a
// map[string]any matches an *OrderedMap with the same key set; with
// checkTypes=true container types (and named-tuple type names) must agree.
//
// Errors: ErrStructureMismatch describing the first difference.
func AssertSameStructure(a, b any, checkTypes bool) error {
	if err := sameStructure(a, b, checkTypes, "value"); err != nil {
		return nestErrorf("AssertSameStructure", ErrStructureMismatch, "%s", err.Error())
	}
	return nil
}

func sameStructure(a, b any, checkTypes bool, path string) error {
	na, nb := IsNested(a), IsNested(b)
	switch {
	case !na && !nb:
		return nil
	case na != nb:
		return fmt.Errorf("%s: %s vs %s", path, describe(a), describe(b))
	}
	if checkTypes {
		if reflect.TypeOf(a) != reflect.TypeOf(b) {
			return fmt.Errorf("%s: type %T vs %T", path, a, b)
		}
		if ta, ok := a.(*NamedTuple); ok && ta.TypeName != b.(*NamedTuple).TypeName {
			return fmt.Errorf("%s: named tuple %s vs %s", path, ta.TypeName, b.(*NamedTuple).TypeName)
		}
	}
	if IsMapping(a) != IsMapping(b) {
		return fmt.Errorf("%s: %s vs %s", path, describe(a), describe(b))
	}
	if Len(a) != Len(b) {
		return fmt.Errorf("%s: length %d vs %d", path, Len(a), Len(b))
	}
	if IsMapping(a) {
		ka, kb := Keys(a), Keys(b)
		sa, sb := slices.Clone(ka), slices.Clone(kb)
		sort.Strings(sa)
		sort.Strings(sb)
		if !slices.Equal(sa, sb) {
			return fmt.Errorf("%s: keys %v vs %v", path, sa, sb)
		}
		for _, k := range ka {
			ca, _ := child(a, k, 0)
			cb, _ := child(b, k, 0)
			if err := sameStructure(ca, cb, checkTypes, path+"."+k); err != nil {
				return err
			}
		}
		return nil
	}
	_, va := children(a)
	_, vb := children(b)
	for i := range va {
		if err := sameStructure(va[i], vb[i], checkTypes, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// child returns the entry of a container by key (mappings) or index.
func child(v any, key string, idx int) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		c, ok := t[key]
		return c, ok
	case *OrderedMap:
		return t.Get(key)
	case *NamedTuple:
		if idx < 0 || idx >= len(t.Values) {
			return nil, false
		}
		return t.Values[idx], true
	case []any:
		if idx < 0 || idx >= len(t) {
			return nil, false
		}
		return t[idx], true
	default:
		return nil, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case []any:
		return "sequence"
	case *NamedTuple:
		return "named tuple"
	case *OrderedMap:
		return "ordered mapping"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("leaf %T", v)
	}
}

// MapStructure applies fn to corresponding leaves of first and rest and
// returns a structure shaped like first. Mapping entries are paired by key,
// sequence entries by index.
//
// Errors: ErrStructureMismatch if the structures differ (types not checked);
// any error returned by fn, unwrapped.
func MapStructure(fn func(leaves ...any) (any, error), first any, rest ...any) (any, error) {
	for _, r := range rest {
		if err := AssertSameStructure(first, r, false); err != nil {
			return nil, err
		}
	}
	var walk func(x any, others []any) (any, error)
	walk = func(x any, others []any) (any, error) {
		if !IsNested(x) {
			return fn(append([]any{x}, others...)...)
		}
		keys, vals := children(x)
		out := make([]any, len(vals))
		for i, c := range vals {
			sub := make([]any, len(others))
			for j, o := range others {
				key := ""
				if keys != nil {
					key = keys[i]
				}
				if IsMapping(o) {
					sub[j], _ = child(o, key, i)
				} else {
					sub[j], _ = child(o, "", i)
				}
			}
			v, err := walk(c, sub)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return rewrap(x, keys, out), nil
	}
	return walk(first, rest)
}

// CastStructure returns value re-wrapped in the container types of like,
// e.g. a []any becomes a *NamedTuple when like is one. Mapping entries of
// value pair with the keys or field names of like; otherwise entries pair by
// position, so a sequence casts into any ordered container of equal length.
//
// Errors: ErrStructureMismatch when value and like differ beyond container
// types, including a sequence cast into an unordered mapping.
func CastStructure(value, like any) (any, error) {
	out, err := castStructure(value, like, "value")
	if err != nil {
		return nil, nestErrorf("CastStructure", ErrStructureMismatch, "%s", err.Error())
	}
	return out, nil
}

func castStructure(value, like any, path string) (any, error) {
	if !IsNested(like) {
		if IsNested(value) {
			return nil, fmt.Errorf("%s: %s vs %s", path, describe(value), describe(like))
		}
		return value, nil
	}
	if !IsNested(value) {
		return nil, fmt.Errorf("%s: %s vs %s", path, describe(value), describe(like))
	}
	if Len(value) != Len(like) {
		return nil, fmt.Errorf("%s: length %d vs %d", path, Len(value), Len(like))
	}
	keys, likeVals := children(like)
	out := make([]any, len(likeVals))
	byKey := IsMapping(value) && keys != nil
	if !byKey && (IsUnorderedMapping(value) || IsUnorderedMapping(like)) {
		return nil, fmt.Errorf("%s: %s vs %s", path, describe(value), describe(like))
	}
	_, vals := children(value)
	for i, l := range likeVals {
		var c any
		sub := fmt.Sprintf("%s[%d]", path, i)
		if byKey {
			var ok bool
			if c, ok = child(value, keys[i], i); !ok {
				return nil, fmt.Errorf("%s: missing key %q", path, keys[i])
			}
			sub = path + "." + keys[i]
		} else {
			c = vals[i]
		}
		v, err := castStructure(c, l, sub)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return rewrap(like, keys, out), nil
}
