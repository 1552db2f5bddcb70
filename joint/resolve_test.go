// SPDX-License-Identifier: MIT

package joint_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/joint"
)

// seqFns are flatten/unflatten for a sequence model of n components.
func seqFns(n int) (func(any) ([]any, error), func([]any) (any, error)) {
	flatten := func(v any) ([]any, error) {
		xs, ok := v.([]any)
		if !ok || len(xs) != n {
			return nil, joint.ErrStructureMismatch
		}
		return slices.Clone(xs), nil
	}
	unflatten := func(xs []any) (any, error) { return slices.Clone(xs), nil }
	return flatten, unflatten
}

func TestResolveValueConcreteCases(t *testing.T) {
	names := []string{"z", "y", "x"}
	dtype := []any{distribution.Float64, distribution.Float64, distribution.Float64}
	flatten, unflatten := seqFns(3)
	want := []any{1.0, 2.0, 3.0}

	cases := []struct {
		name string
		args []any
		kws  []joint.Keyword
	}{
		{"positional", []any{1.0, 2.0, 3.0}, nil},
		{"keywords", nil, []joint.Keyword{joint.Kw("z", 1.0), joint.Kw("y", 2.0), joint.Kw("x", 3.0)}},
		{"mixed", []any{1.0, 2.0}, []joint.Keyword{joint.Kw("x", 3.0)}},
		{"value", nil, []joint.Keyword{joint.Kw("value", []any{1.0, 2.0, 3.0})}},
		{"whole structure", []any{[]any{1.0, 2.0, 3.0}}, nil},
		{"keyword first in flat order", []any{2.0, 3.0}, []joint.Keyword{joint.Kw("z", 1.0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, unmatched, err := joint.ResolveValue(tc.args, tc.kws, dtype, names, flatten, unflatten)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Empty(t, unmatched)
		})
	}
}

func TestResolveValueCountMismatch(t *testing.T) {
	names := []string{"z", "y", "x"}
	dtype := []any{distribution.Float64, distribution.Float64, distribution.Float64}
	flatten, unflatten := seqFns(3)

	_, _, err := joint.ResolveValue([]any{1.0, 2.0}, nil, dtype, names, flatten, unflatten)
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "expected values for 3 components [z y x]; saw 2")

	_, _, err = joint.ResolveValue([]any{1.0, 2.0, 3.0}, []joint.Keyword{joint.Kw("z", 0.0)}, dtype, names, flatten, unflatten)
	assert.ErrorIs(t, err, joint.ErrInvalidArgument)
}

func TestResolveValueUnmatchedAndValue(t *testing.T) {
	names := []string{"z", "y", "x"}
	dtype := []any{distribution.Float64, distribution.Float64, distribution.Float64}
	flatten, unflatten := seqFns(3)

	got, unmatched, err := joint.ResolveValue(nil,
		[]joint.Keyword{joint.Kw("value", []any{1.0, 2.0, 3.0}), joint.Kw("z", 9.0), joint.Kw("name", "lp")},
		dtype, names, flatten, unflatten)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, got)
	assert.Equal(t, []joint.Keyword{joint.Kw("z", 9.0), joint.Kw("name", "lp")}, unmatched)

	_, unmatched, err = joint.ResolveValue([]any{1.0, 2.0, 3.0}, []joint.Keyword{joint.Kw("name", "lp")},
		dtype, names, flatten, unflatten)
	require.NoError(t, err)
	assert.Equal(t, []joint.Keyword{joint.Kw("name", "lp")}, unmatched)
}

// A sole positional argument to a one-component model is the component's
// value when it nests like the component dtype, else the whole value.
// Known ambiguity: a nested []any meant as tensor content reads as the
// whole structure, and a []float64 is always a component value.
func TestResolveValueSingleComponentBoundary(t *testing.T) {
	names := []string{"x"}
	dtype := []any{distribution.Float64}
	flatten, unflatten := seqFns(1)

	got, _, err := joint.ResolveValue([]any{4.0}, nil, dtype, names, flatten, unflatten)
	require.NoError(t, err)
	assert.Equal(t, []any{4.0}, got)

	got, _, err = joint.ResolveValue([]any{[]any{4.0}}, nil, dtype, names, flatten, unflatten)
	require.NoError(t, err)
	assert.Equal(t, []any{4.0}, got)

	got, _, err = joint.ResolveValue([]any{[]float64{4, 5}}, nil, dtype, names, flatten, unflatten)
	require.NoError(t, err)
	assert.Equal(t, []any{[]float64{4, 5}}, got)
}

func TestResolveValueUnorderedRejectsPositional(t *testing.T) {
	names := []string{"a", "b"}
	dtype := map[string]any{"a": distribution.Float64, "b": distribution.Float64}
	flatten := func(v any) ([]any, error) {
		m := v.(map[string]any)
		return []any{m["a"], m["b"]}, nil
	}
	unflatten := func(xs []any) (any, error) { return map[string]any{"a": xs[0], "b": xs[1]}, nil }

	_, _, err := joint.ResolveValue([]any{1.0}, []joint.Keyword{joint.Kw("b", 2.0)}, dtype, names, flatten, unflatten)
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "unordered")

	got, _, err := joint.ResolveValue(nil, []joint.Keyword{joint.Kw("b", 2.0), joint.Kw("a", 1.0)}, dtype, names, flatten, unflatten)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, got)
}
