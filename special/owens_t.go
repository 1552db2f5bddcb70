// SPDX-License-Identifier: MIT

package special

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// owensTNodes is the Gauss–Legendre order used on [0, a] with |a| <= 1.
const owensTNodes = 64

// OwensT returns Owen's T function
//
//	T(h, a) = 1/(2π) ∫_0^a exp(-h²(1+x²)/2) / (1+x²) dx.
//
// T is even in h and odd in a. For |a| <= 1 the integral is evaluated by
// fixed Gauss–Legendre quadrature; for |a| > 1 the reflection
//
//	T(h, a) = ½Q(h) + ½Q(ah) - Q(h)Q(ah) - T(ah, 1/a),   h >= 0, a > 0
//
// with Q = 1 - Φ maps the problem back onto |a| < 1. Q keeps the large-h
// tail free of cancellation.
func OwensT(h, a float64) float64 {
	switch {
	case math.IsNaN(h) || math.IsNaN(a):
		return math.NaN()
	case a == 0:
		return 0
	case a < 0:
		return -OwensT(h, -a)
	}
	h = math.Abs(h)
	if h == 0 {
		return math.Atan(a) / (2 * math.Pi)
	}
	if math.IsInf(h, 1) {
		return 0
	}
	if a <= 1 {
		return owensTQuad(h, a)
	}
	if math.IsInf(a, 1) {
		// T(h, ∞) = ½(1 - Φ(h)) for h >= 0.
		return 0.5 * distuv.UnitNormal.Survival(h)
	}
	ah := a * h
	qh := distuv.UnitNormal.Survival(h)
	qah := distuv.UnitNormal.Survival(ah)
	return 0.5*(qh+qah) - qh*qah - owensTQuad(ah, 1/a)
}

func owensTQuad(h, a float64) float64 {
	hh := 0.5 * h * h
	f := func(x float64) float64 {
		s := 1 + x*x
		return math.Exp(-hh*s) / s
	}
	return quad.Fixed(f, 0, a, owensTNodes, quad.Legendre{}, 0) / (2 * math.Pi)
}
