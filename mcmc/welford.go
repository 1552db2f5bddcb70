// SPDX-License-Identifier: MIT

package mcmc

import "gonum.org/v1/gonum/floats"

// Shrinkage of the windowed variance estimate towards a small constant,
// following Stan: (n/(n+5))*var + varianceShrinkTarget*(5/(n+5)).
const (
	varianceShrinkWeight = 5
	varianceShrinkTarget = 1e-3
)

// RunningVariance accumulates the elementwise mean and variance of vectors
// by Welford's online algorithm.
//
// Concurrency: not safe for concurrent use; each chain owns one.
type RunningVariance struct {
	n        int
	mean, m2 []float64
	delta    []float64
	after    []float64
}

// NewRunningVariance returns an empty accumulator for vectors of length dim.
func NewRunningVariance(dim int) *RunningVariance {
	return &RunningVariance{
		mean:  make([]float64, dim),
		m2:    make([]float64, dim),
		delta: make([]float64, dim),
		after: make([]float64, dim),
	}
}

// Update adds one observation. Panics when len(x) differs from the
// accumulator's dimension.
func (r *RunningVariance) Update(x []float64) {
	r.n++
	floats.SubTo(r.delta, x, r.mean)
	floats.AddScaled(r.mean, 1/float64(r.n), r.delta)
	floats.SubTo(r.after, x, r.mean)
	floats.Mul(r.after, r.delta)
	floats.Add(r.m2, r.after)
}

// Count returns the number of observations.
func (r *RunningVariance) Count() int { return r.n }

// Mean returns the running mean.
func (r *RunningVariance) Mean() []float64 {
	out := make([]float64, len(r.mean))
	copy(out, r.mean)
	return out
}

// Variance returns the unbiased sample variance; zeros with fewer than two
// observations.
func (r *RunningVariance) Variance() []float64 {
	out := make([]float64, len(r.m2))
	if r.n < 2 {
		return out
	}
	floats.ScaleTo(out, 1/float64(r.n-1), r.m2)
	return out
}

// Regularized returns the sample variance shrunk towards 1e-3, the
// estimate committed as the inverse mass matrix when a slow window closes.
func (r *RunningVariance) Regularized() []float64 {
	out := r.Variance()
	n := float64(r.n)
	floats.Scale(n/(n+varianceShrinkWeight), out)
	floats.AddConst(varianceShrinkTarget*varianceShrinkWeight/(n+varianceShrinkWeight), out)
	return out
}

// Reset discards every observation.
func (r *RunningVariance) Reset() {
	r.n = 0
	for i := range r.mean {
		r.mean[i], r.m2[i] = 0, 0
	}
}
