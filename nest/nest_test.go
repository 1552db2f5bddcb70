// SPDX-License-Identifier: MIT

package nest_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/nest"
)

func TestFlattenWalkOrder(t *testing.T) {
	om := nest.NewOrderedMap().Set("b", 1.0).Set("a", []any{2.0, 3.0})
	v := []any{
		map[string]any{"y": 4.0, "x": 5.0},
		om,
		[]float64{6, 7},
	}
	got := nest.Flatten(v)
	want := []any{5.0, 4.0, 1.0, 2.0, 3.0, []float64{6, 7}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Flatten mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []any{7.0}, nest.Flatten(7.0))
	assert.Equal(t, 3, nest.Len(v))
	assert.Equal(t, 1, nest.Len(7.0))
}

func TestPackSequenceAsRoundTrip(t *testing.T) {
	nt, err := nest.NewNamedTuple("Point", []string{"x", "y"}, []any{1.0, 2.0})
	require.NoError(t, err)
	structures := []any{
		[]any{1.0, []any{2.0, 3.0}},
		map[string]any{"b": 1.0, "a": map[string]any{"c": 2.0}},
		nest.NewOrderedMap().Set("z", 1.0).Set("y", 2.0),
		nt,
		9.0,
	}
	for _, s := range structures {
		packed, err := nest.PackSequenceAs(s, nest.Flatten(s))
		require.NoError(t, err)
		assert.Equal(t, s, packed)
	}

	_, err = nest.PackSequenceAs([]any{1.0, 2.0}, []any{1.0})
	assert.True(t, errors.Is(err, nest.ErrCount))
}

func TestAssertSameStructure(t *testing.T) {
	nt, _ := nest.NewNamedTuple("P", []string{"a", "b"}, []any{0.0, 0.0})
	om := nest.NewOrderedMap().Set("q", 1.0).Set("p", 2.0)

	cases := []struct {
		name       string
		a, b       any
		checkTypes bool
		ok         bool
	}{
		{"leaves", 1.0, []float64{1, 2}, false, true},
		{"leaf vs seq", 1.0, []any{1.0}, false, false},
		{"seq vs tuple loose", []any{1.0, 2.0}, nt, false, true},
		{"seq vs tuple strict", []any{1.0, 2.0}, nt, true, false},
		{"length", []any{1.0}, []any{1.0, 2.0}, false, false},
		{"map vs ordered loose", map[string]any{"p": 0.0, "q": 0.0}, om, false, true},
		{"map keys", map[string]any{"p": 0.0, "r": 0.0}, om, false, false},
		{"seq vs map", []any{1.0, 2.0}, om, false, false},
		{"nested", []any{[]any{1.0}}, []any{2.0}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := nest.AssertSameStructure(tc.a, tc.b, tc.checkTypes)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, nest.ErrStructureMismatch)
			}
		})
	}
}

func TestMapStructurePairsByKey(t *testing.T) {
	om := nest.NewOrderedMap().Set("b", 10.0).Set("a", 20.0)
	m := map[string]any{"a": 1.0, "b": 2.0}
	out, err := nest.MapStructure(func(l ...any) (any, error) {
		return l[0].(float64) + l[1].(float64), nil
	}, om, m)
	require.NoError(t, err)
	res := out.(*nest.OrderedMap)
	assert.Equal(t, []string{"b", "a"}, res.Keys())
	assert.Equal(t, []any{12.0, 21.0}, res.Values())

	_, err = nest.MapStructure(func(l ...any) (any, error) { return nil, nil }, om, []any{1.0, 2.0})
	assert.ErrorIs(t, err, nest.ErrStructureMismatch)

	boom := errors.New("boom")
	_, err = nest.MapStructure(func(l ...any) (any, error) { return nil, boom }, []any{1.0})
	assert.ErrorIs(t, err, boom)
}

func TestCastStructure(t *testing.T) {
	nt, _ := nest.NewNamedTuple("P", []string{"a", "b"}, []any{"float64", "float64"})
	got, err := nest.CastStructure([]any{1.0, 2.0}, nt)
	require.NoError(t, err)
	cast := got.(*nest.NamedTuple)
	assert.Equal(t, "P", cast.TypeName)
	v, ok := cast.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, err = nest.CastStructure([]any{1.0}, nt)
	assert.ErrorIs(t, err, nest.ErrStructureMismatch)
}

func TestCastStructureOrderedMapping(t *testing.T) {
	like := nest.NewOrderedMap().Set("mu", "float64").Set("x", []any{"float64", "float64"})

	got, err := nest.CastStructure([]any{1.0, []any{2.0, 3.0}}, like)
	require.NoError(t, err)
	want := nest.NewOrderedMap().Set("mu", 1.0).Set("x", []any{2.0, 3.0})
	assert.True(t, want.Equal(got.(*nest.OrderedMap)), "got %v", got)

	got, err = nest.CastStructure(map[string]any{"x": []any{2.0, 3.0}, "mu": 1.0}, like)
	require.NoError(t, err)
	assert.Equal(t, []string{"mu", "x"}, got.(*nest.OrderedMap).Keys())

	tests := map[string]struct {
		value any
		like  any
	}{
		"sequence into unordered mapping": {[]any{1.0}, map[string]any{"a": "float64"}},
		"unordered mapping into sequence": {map[string]any{"a": 1.0}, []any{"float64"}},
		"missing key":                     {map[string]any{"mu": 1.0, "y": 2.0}, like},
		"nested leaf":                     {[]any{[]any{1.0}, []any{2.0, 3.0}}, like},
		"short":                           {[]any{1.0}, like},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := nest.CastStructure(tc.value, tc.like)
			assert.ErrorIs(t, err, nest.ErrStructureMismatch)
		})
	}
}

func TestOrderedMapAndNamedTuple(t *testing.T) {
	om := nest.NewOrderedMap().Set("x", 1.0).Set("y", 2.0).Set("x", 3.0)
	assert.Equal(t, []string{"x", "y"}, om.Keys())
	assert.Equal(t, "{x: 3, y: 2}", om.String())
	assert.True(t, om.Equal(nest.NewOrderedMap().Set("x", 3.0).Set("y", 2.0)))
	assert.False(t, om.Equal(nest.NewOrderedMap().Set("y", 2.0).Set("x", 3.0)))

	_, err := nest.NewNamedTuple("T", []string{"a", "a"}, []any{1, 2})
	assert.ErrorIs(t, err, nest.ErrDuplicateKey)
	_, err = nest.NewNamedTuple("T", []string{"a"}, []any{1, 2})
	assert.ErrorIs(t, err, nest.ErrCount)

	assert.True(t, nest.IsUnorderedMapping(map[string]any{}))
	assert.False(t, nest.IsUnorderedMapping(om))
	assert.Equal(t, []string{"x", "y"}, nest.Keys(om))
	assert.Nil(t, nest.Keys([]any{1.0}))
}
