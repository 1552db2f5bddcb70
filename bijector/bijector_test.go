// SPDX-License-Identifier: MIT

package bijector_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/tensor"
)

func TestRoundTripAndJacobians(t *testing.T) {
	sig, err := bijector.NewSigmoid(tensor.Scalar(-1), tensor.Vector(2, 5))
	require.NoError(t, err)

	x := tensor.MustFrom([][]float64{{-3, 0.5}, {0, 4}})
	bijectors := []bijector.Bijector{
		bijector.Identity{},
		bijector.Exp{},
		bijector.Softplus{},
		sig,
		bijector.UnitSigmoid(),
	}
	for _, b := range bijectors {
		t.Run(b.Name(), func(t *testing.T) {
			y, err := b.Forward(x)
			require.NoError(t, err)
			back, err := b.Inverse(y)
			require.NoError(t, err)
			assert.True(t, tensor.AllClose(x, back, 1e-10, 1e-10), "inverse(forward(x)) = %v", back)

			fldj, err := b.ForwardLogDetJacobian(x)
			require.NoError(t, err)
			ildj, err := b.InverseLogDetJacobian(y)
			require.NoError(t, err)
			sum, err := tensor.Add(fldj, ildj)
			require.NoError(t, err)
			assert.True(t, sum.All(func(v float64) bool { return math.Abs(v) < 1e-10 }))

			// Finite-difference check of the forward derivative.
			const h = 1e-6
			yp, err := b.Forward(x.AddScalar(h))
			require.NoError(t, err)
			ym, err := b.Forward(x.AddScalar(-h))
			require.NoError(t, err)
			diff, err := tensor.Sub(yp, ym)
			require.NoError(t, err)
			numeric := diff.MulScalar(1 / (2 * h)).Abs().Log()
			assert.True(t, tensor.AllClose(fldj, numeric, 1e-5, 1e-5), "fldj %v vs %v", fldj, numeric)
		})
	}
}

func TestSigmoidSupport(t *testing.T) {
	sig, err := bijector.NewSigmoid(tensor.Scalar(2), tensor.Scalar(3))
	require.NoError(t, err)
	y, err := sig.Forward(tensor.Vector(-50, 0, 50))
	require.NoError(t, err)
	assert.True(t, y.All(func(v float64) bool { return v >= 2 && v <= 3 }))
	mid, _ := y.At(1)
	assert.InDelta(t, 2.5, mid, 1e-15)

	_, err = bijector.NewSigmoid(tensor.Scalar(1), tensor.Vector(0, 2))
	assert.ErrorIs(t, err, bijector.ErrInvalidParameter)
	_, err = bijector.NewSigmoid(tensor.Vector(0, 0, 0), tensor.Vector(1, 2))
	assert.ErrorIs(t, err, tensor.ErrDimensionMismatch)
}

func TestSoftplusStable(t *testing.T) {
	y, err := bijector.Softplus{}.Forward(tensor.Vector(-800, 800))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 800}, y.Data())
}
