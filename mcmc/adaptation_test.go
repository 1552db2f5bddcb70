// SPDX-License-Identifier: MIT

package mcmc_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeffpollock9/probability/mcmc"
)

func TestDualAveragingFirstUpdate(t *testing.T) {
	d := mcmc.NewDualAveraging(0.1, 0.75)
	assert.InDelta(t, 0.1, d.FinalStepSize(), 1e-15)

	// hBar = -0.25/11; log eps = log(1) + 20*0.25/11.
	eps := d.Update(1)
	assert.InDelta(t, 1.5754571033903184, eps, 1e-12)
	assert.InDelta(t, eps, d.StepSize(), 1e-15)
	assert.InDelta(t, eps, d.FinalStepSize(), 1e-12)
}

func TestDualAveragingOnTargetShrinksToMu(t *testing.T) {
	d := mcmc.NewDualAveraging(0.1, 0.75)
	for range 5 {
		d.Update(0.75)
	}
	assert.InDelta(t, 1.0, d.StepSize(), 1e-12)

	d.Restart(0.5)
	assert.InDelta(t, 0.5, d.StepSize(), 1e-15)
	assert.InDelta(t, 5.0, d.Update(0.75), 1e-12)
}

// Acceptance exp(-eps) reaches 0.75 at eps = -log(0.75).
func TestDualAveragingConverges(t *testing.T) {
	d := mcmc.NewDualAveraging(0.1, 0.75)
	eps := d.StepSize()
	for range 2000 {
		eps = d.Update(math.Exp(-eps))
	}
	assert.InDelta(t, -math.Log(0.75), d.FinalStepSize(), 0.005)

	nan := mcmc.NewDualAveraging(0.1, 0.75)
	assert.Less(t, nan.Update(math.NaN()), 1.0)
}

func TestRunningVariance(t *testing.T) {
	r := mcmc.NewRunningVariance(2)
	assert.Equal(t, []float64{0, 0}, r.Variance())
	for _, x := range [][]float64{{1, 10}, {2, 10}, {3, 10}, {4, 10}} {
		r.Update(x)
	}
	assert.Equal(t, 4, r.Count())
	assert.InDeltaSlice(t, []float64{2.5, 10}, r.Mean(), 1e-12)
	assert.InDeltaSlice(t, []float64{5.0 / 3, 0}, r.Variance(), 1e-12)
	assert.InDeltaSlice(t, []float64{5.0/3*4/9 + 1e-3*5/9, 1e-3 * 5 / 9}, r.Regularized(), 1e-12)

	r.Reset()
	assert.Equal(t, 0, r.Count())
	r.Update([]float64{7, 7})
	assert.InDeltaSlice(t, []float64{7, 7}, r.Mean(), 1e-12)
}
