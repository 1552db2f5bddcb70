// SPDX-License-Identifier: MIT

package special

import "math"

const (
	lambertWMaxIter = 50
	lambertWTol     = 1e-15
	// Below this z the branch-point series is a better start than Winitzki.
	lambertWBranchSwitch = -0.32358
)

// LambertW returns the principal branch W0(z), the solution w >= -1 of
// w·exp(w) = z.
//
// Domain: z >= -1/e. Returns NaN below it, -1 at z = -1/e, +Inf at +Inf.
// Solved by Halley iteration from a branch-point series (near -1/e) or the
// Winitzki approximation (elsewhere).
func LambertW(z float64) float64 {
	switch {
	case math.IsNaN(z):
		return math.NaN()
	case math.IsInf(z, 1):
		return math.Inf(1)
	case z == 0:
		return 0
	}
	ez1 := math.E*z + 1
	if ez1 < 0 {
		if ez1 > -1e-15 {
			return -1
		}
		return math.NaN()
	}
	if ez1 == 0 {
		return -1
	}

	var w float64
	if z < lambertWBranchSwitch {
		p := math.Sqrt(2 * ez1)
		w = -1 + p - p*p/3 + 11.0/72.0*p*p*p
	} else {
		w = LambertWWinitzkiApprox(z)
	}

	for range lambertWMaxIter {
		if w <= -1 {
			return -1
		}
		ew := math.Exp(w)
		f := w*ew - z
		wp1 := w + 1
		denom := ew*wp1 - (w+2)*f/(2*wp1)
		if denom == 0 || math.IsNaN(denom) {
			break
		}
		delta := f / denom
		w -= delta
		if math.Abs(delta) <= lambertWTol*(1+math.Abs(w)) {
			break
		}
	}
	return w
}

// LambertWWinitzkiApprox is the closed-form approximation
//
//	W(z) ≈ log1p(z) · (1 - log1p(log1p(z)) / (2 + log1p(z)))
//
// accurate to a few percent on z >= -1/e. Used to seed LambertW.
func LambertWWinitzkiApprox(z float64) float64 {
	lz := math.Log1p(z)
	return lz * (1 - math.Log1p(lz)/(2+lz))
}
