// SPDX-License-Identifier: MIT

package special

import "github.com/jeffpollock9/probability/tensor"

// OwensTTensor applies OwensT elementwise with broadcasting.
func OwensTTensor(h, a *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return OwensT(xs[0], xs[1]) }, h, a)
}

// LambertWTensor applies LambertW elementwise.
func LambertWTensor(z *tensor.Dense) *tensor.Dense {
	return z.Map(LambertW)
}

// LbetaTensor applies Lbeta elementwise with broadcasting.
func LbetaTensor(x, y *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return Lbeta(xs[0], xs[1]) }, x, y)
}

// LogGammaDifferenceTensor applies LogGammaDifference elementwise with broadcasting.
func LogGammaDifferenceTensor(x, y *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return LogGammaDifference(xs[0], xs[1]) }, x, y)
}
