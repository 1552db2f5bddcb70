// SPDX-License-Identifier: MIT

package shape_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/shape"
)

func TestKnownAndUnknown(t *testing.T) {
	s := shape.Known(3, -7, 5)
	r, ok := s.Rank()
	require.True(t, ok)
	assert.Equal(t, 3, r)
	assert.Equal(t, []int{3, shape.UnknownDim, 5}, s.Dims())
	assert.False(t, s.IsFullyDefined())
	assert.Equal(t, "[3,?,5]", s.String())

	u := shape.Unknown()
	_, ok = u.Rank()
	assert.False(t, ok)
	assert.Nil(t, u.Dims())
	assert.Equal(t, "<unknown>", u.String())

	n, ok := shape.Known(2, 3, 4).NumElements()
	require.True(t, ok)
	assert.Equal(t, 24, n)
	n, ok = shape.Scalar().NumElements()
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestConcatAndMerge(t *testing.T) {
	assert.True(t, shape.Known(1, 2).Concat(shape.Known(3)).Equal(shape.Known(1, 2, 3)))
	assert.True(t, shape.Known(1).Concat(shape.Unknown()).Equal(shape.Unknown()))

	m, err := shape.Known(2, -1).MergeWith(shape.Known(-1, 4))
	require.NoError(t, err)
	assert.True(t, m.Equal(shape.Known(2, 4)))

	_, err = shape.Known(2, 3).MergeWith(shape.Known(2, 4))
	assert.True(t, errors.Is(err, shape.ErrIncompatible))
	_, err = shape.Known(2).MergeWith(shape.Known(2, 4))
	assert.True(t, errors.Is(err, shape.ErrIncompatible))
	assert.True(t, shape.Unknown().IsCompatibleWith(shape.Known(9)))
}

func TestBroadcast(t *testing.T) {
	cases := []struct {
		a, b, want shape.Shape
	}{
		{shape.Known(3, 1), shape.Known(4), shape.Known(3, 4)},
		{shape.Scalar(), shape.Known(2, 2), shape.Known(2, 2)},
		{shape.Known(-1, 5), shape.Known(5), shape.Known(-1, 5)},
		{shape.Known(-1), shape.Known(1), shape.Known(-1)},
	}
	for _, c := range cases {
		got, err := shape.Broadcast(c.a, c.b)
		require.NoError(t, err)
		assert.True(t, got.Equal(c.want), "%v x %v = %v", c.a, c.b, got)
	}
	_, err := shape.Broadcast(shape.Known(3), shape.Known(4))
	assert.True(t, errors.Is(err, shape.ErrIncompatible))
}

func TestInferSampleShape(t *testing.T) {
	t.Run("all ranks known", func(t *testing.T) {
		got, err := shape.InferSampleShape(shape.Unknown(), shape.Known(2), shape.Known(3), shape.Known(4))
		require.NoError(t, err)
		assert.True(t, got.Equal(shape.Known(2, 3, 4)))
	})
	t.Run("sample rank unknown", func(t *testing.T) {
		got, err := shape.InferSampleShape(shape.OfRank(4), shape.Unknown(), shape.Known(3), shape.Known(4))
		require.NoError(t, err)
		assert.True(t, got.Equal(shape.Known(-1, -1, 3, 4)))
	})
	t.Run("event rank unknown", func(t *testing.T) {
		got, err := shape.InferSampleShape(shape.OfRank(3), shape.Known(7), shape.Known(3), shape.Unknown())
		require.NoError(t, err)
		assert.True(t, got.Equal(shape.Known(7, 3, -1)))
	})
	t.Run("partially known dims", func(t *testing.T) {
		got, err := shape.InferSampleShape(shape.Unknown(), shape.Known(2), shape.Known(-1, 5), shape.Scalar())
		require.NoError(t, err)
		assert.True(t, got.Equal(shape.Known(2, -1, 5)))
	})
	t.Run("batch unknown", func(t *testing.T) {
		got, err := shape.InferSampleShape(shape.Unknown(), shape.Known(2), shape.Unknown(), shape.Known(4))
		require.NoError(t, err)
		_, ok := got.Rank()
		assert.False(t, ok)
	})
	t.Run("contradiction", func(t *testing.T) {
		_, err := shape.InferSampleShape(shape.Known(2, 3), shape.Known(2), shape.Known(4), shape.Scalar())
		assert.True(t, errors.Is(err, shape.ErrIncompatible))
	})
}
