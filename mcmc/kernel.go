// SPDX-License-Identifier: MIT

package mcmc

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/samplers"
)

// TargetFunc is an unnormalized log density over the flat unconstrained
// state. -Inf marks a state outside the support.
type TargetFunc func(x []float64) (float64, error)

// Params are the tuned kernel parameters.
type Params struct {
	// StepSize scales every proposal.
	StepSize float64
	// InverseMassMatrix is the diagonal of the inverse mass matrix, an
	// estimate of the posterior variance of each state coordinate.
	InverseMassMatrix []float64
}

// clone returns a deep copy of p.
func (p Params) clone() Params {
	inv := make([]float64, len(p.InverseMassMatrix))
	copy(inv, p.InverseMassMatrix)
	return Params{StepSize: p.StepSize, InverseMassMatrix: inv}
}

// StepInfo reports one transition.
type StepInfo struct {
	// AcceptProb is the Metropolis acceptance probability of the proposal.
	AcceptProb float64
	// TargetLogProb is the target log density at the returned state.
	TargetLogProb float64
	// Accepted reports whether the proposal became the new state.
	Accepted bool
}

// Kernel advances one chain by one transition. state is never modified;
// logProb is the target log density at state. Implementations must draw
// randomness only from seed.
type Kernel interface {
	OneStep(ctx context.Context, state []float64, logProb float64, target TargetFunc, params Params, seed samplers.Seed) ([]float64, StepInfo, error)
}

// RandomWalk is a Metropolis kernel with Gaussian proposals
//
//	x' = x + StepSize * sqrt(InverseMassMatrix) ⊙ z,   z ~ N(0, I).
//
// Its acceptance rate falls as StepSize grows; 0.234 is the classical
// optimum in high dimension.
type RandomWalk struct{}

// OneStep implements Kernel.
func (RandomWalk) OneStep(ctx context.Context, state []float64, logProb float64, target TargetFunc, params Params, seed samplers.Seed) ([]float64, StepInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, StepInfo{}, err
	}
	src := seed.Source()
	z := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	proposal := make([]float64, len(state))
	for i, x := range state {
		scale := params.StepSize
		if i < len(params.InverseMassMatrix) {
			scale *= math.Sqrt(params.InverseMassMatrix[i])
		}
		proposal[i] = x + scale*z.Rand()
	}
	lp, err := target(proposal)
	if err != nil {
		return nil, StepInfo{}, err
	}

	logRatio := lp - logProb
	if math.IsNaN(logRatio) {
		logRatio = math.Inf(-1)
	}
	info := StepInfo{AcceptProb: math.Exp(math.Min(0, logRatio)), TargetLogProb: logProb}
	u := distuv.Uniform{Min: 0, Max: 1, Src: src}.Rand()
	if math.Log(u) < logRatio {
		info.Accepted, info.TargetLogProb = true, lp
		return proposal, info, nil
	}
	out := make([]float64, len(state))
	copy(out, state)
	return out, info, nil
}
