// SPDX-License-Identifier: MIT

package distribution_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/tensor"
)

var (
	registerWildcard sync.Once
	registerBetaPair sync.Once
)

func TestKLNormalNormal(t *testing.T) {
	p, err := distribution.NewNormal(0.0, 1.0)
	require.NoError(t, err)
	q, err := distribution.NewNormal(1.0, 2.0)
	require.NoError(t, err)

	kl, err := p.KLDivergence(q)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2)+0.25-0.5, kl.Data()[0], 1e-12)

	// No cross entropy registered: H[p, q] = KL[p‖q] + H[p].
	ce, err := p.CrossEntropy(q)
	require.NoError(t, err)
	assert.InDelta(t, 1.862085713764618, ce.Data()[0], 1e-12)

	self, err := p.KLDivergence(p)
	require.NoError(t, err)
	assert.InDelta(t, 0, self.Data()[0], 1e-12)
}

func TestKLUniformAndExponential(t *testing.T) {
	narrow, err := distribution.NewUniform(0.0, 1.0)
	require.NoError(t, err)
	wide, err := distribution.NewUniform(0.0, 2.0)
	require.NoError(t, err)
	kl, err := narrow.KLDivergence(wide)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(2), kl.Data()[0], 1e-12)
	kl, err = wide.KLDivergence(narrow)
	require.NoError(t, err)
	assert.True(t, math.IsInf(kl.Data()[0], 1))

	a, err := distribution.NewExponential(1.0)
	require.NoError(t, err)
	b, err := distribution.NewExponential(2.0)
	require.NoError(t, err)
	kl, err = a.KLDivergence(b)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(0.5)+2-1, kl.Data()[0], 1e-12)
}

func TestKLWildcardAndMissing(t *testing.T) {
	registerWildcard.Do(func() {
		distribution.RegisterKL("HalfNormal", distribution.AnyKind, func(p, q distribution.Distribution) (*tensor.Dense, error) {
			return tensor.Scalar(1), nil
		})
	})
	h, err := distribution.NewHalfNormal(1.0)
	require.NoError(t, err)
	n, err := distribution.NewNormal(0.0, 1.0)
	require.NoError(t, err)

	kl, err := h.KLDivergence(n)
	require.NoError(t, err)
	assert.Equal(t, 1.0, kl.Data()[0])
	ce, err := h.CrossEntropy(n)
	require.NoError(t, err)
	assert.InDelta(t, 1.7257913526447275, ce.Data()[0], 1e-12)

	assert.Panics(t, func() {
		distribution.RegisterKL("HalfNormal", distribution.AnyKind, nil)
	})

	beta, err := distribution.NewBeta(2.0, 2.0)
	require.NoError(t, err)
	_, err = beta.KLDivergence(n)
	assert.ErrorIs(t, err, distribution.ErrNotImplemented)
	_, err = beta.CrossEntropy(n)
	assert.ErrorIs(t, err, distribution.ErrNotImplemented)
}

func TestDivergenceFallbacks(t *testing.T) {
	constant := func(v float64) distribution.DivergenceFunc {
		return func(p, q distribution.Distribution) (*tensor.Dense, error) { return tensor.Scalar(v), nil }
	}
	registerBetaPair.Do(func() {
		distribution.RegisterCrossEntropy("Beta", "Exponential", constant(5))
		distribution.RegisterKL("Beta", "Uniform", constant(2))
	})
	beta, err := distribution.NewBeta(2.0, 2.0)
	require.NoError(t, err)
	expo, err := distribution.NewExponential(1.0)
	require.NoError(t, err)
	unif, err := distribution.NewUniform(0.0, 1.0)
	require.NoError(t, err)
	h, err := beta.Entropy()
	require.NoError(t, err)

	t.Run("kl from cross entropy", func(t *testing.T) {
		ce, err := beta.CrossEntropy(expo)
		require.NoError(t, err)
		assert.Equal(t, 5.0, ce.Data()[0])
		kl, err := beta.KLDivergence(expo)
		require.NoError(t, err)
		assert.InDelta(t, 5-h.Data()[0], kl.Data()[0], 1e-12)
	})

	t.Run("cross entropy from kl", func(t *testing.T) {
		kl, err := beta.KLDivergence(unif)
		require.NoError(t, err)
		assert.Equal(t, 2.0, kl.Data()[0])
		ce, err := beta.CrossEntropy(unif)
		require.NoError(t, err)
		assert.InDelta(t, 2+h.Data()[0], ce.Data()[0], 1e-12)
	})

	t.Run("pair is ordered", func(t *testing.T) {
		_, err := expo.KLDivergence(beta)
		assert.ErrorIs(t, err, distribution.ErrNotImplemented)
	})

	assert.Panics(t, func() { distribution.RegisterCrossEntropy("Beta", "Exponential", constant(0)) })
}
