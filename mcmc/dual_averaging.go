// SPDX-License-Identifier: MIT

package mcmc

import "math"

// Dual-averaging constants (Hoffman & Gelman 2014, as used by Stan).
const (
	dualAveragingGamma = 0.05
	dualAveragingT0    = 10
	dualAveragingKappa = 0.75
)

// DualAveraging tunes a step size so that the mean acceptance probability
// approaches a target. It shrinks towards log(10*eps0) for the eps0 it was
// (re)started with.
//
// Concurrency: not safe for concurrent use; each chain owns one.
type DualAveraging struct {
	target     float64
	mu         float64
	logStep    float64
	logStepBar float64
	hBar       float64
	t          int
}

// NewDualAveraging starts at stepSize with the given target acceptance
// probability in (0, 1).
func NewDualAveraging(stepSize, target float64) *DualAveraging {
	d := &DualAveraging{target: target}
	d.Restart(stepSize)
	return d
}

// Restart forgets the adaptation history and restarts the search at
// stepSize.
func (d *DualAveraging) Restart(stepSize float64) {
	d.mu = math.Log(10 * stepSize)
	d.logStep = math.Log(stepSize)
	d.logStepBar = 0
	d.hBar = 0
	d.t = 0
}

// Update records one acceptance probability and returns the next step size.
// NaN counts as 0; values above 1 count as 1.
func (d *DualAveraging) Update(acceptProb float64) float64 {
	if math.IsNaN(acceptProb) {
		acceptProb = 0
	}
	acceptProb = math.Min(acceptProb, 1)

	d.t++
	t := float64(d.t)
	eta := 1 / (t + dualAveragingT0)
	d.hBar = (1-eta)*d.hBar + eta*(d.target-acceptProb)
	d.logStep = d.mu - math.Sqrt(t)/dualAveragingGamma*d.hBar
	w := math.Pow(t, -dualAveragingKappa)
	d.logStepBar = w*d.logStep + (1-w)*d.logStepBar
	return math.Exp(d.logStep)
}

// StepSize returns the current (exploring) step size.
func (d *DualAveraging) StepSize() float64 { return math.Exp(d.logStep) }

// FinalStepSize returns the averaged step size to sample with once
// adaptation ends. Before any Update it is the current step size.
func (d *DualAveraging) FinalStepSize() float64 {
	if d.t == 0 {
		return d.StepSize()
	}
	return math.Exp(d.logStepBar)
}
