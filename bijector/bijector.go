// SPDX-License-Identifier: MIT

// Package bijector provides elementwise, invertible transforms between an
// unconstrained real space and a distribution's support. Distributions expose
// one as their default event-space bijector; joint models and the MCMC driver
// compose them.
//
// Contract:
//   - Forward maps unconstrained → constrained, Inverse the reverse.
//   - Log-det-Jacobians are elementwise (same shape as the input); callers
//     reduce over event dims themselves.
//   - InverseLogDetJacobian(y) == -ForwardLogDetJacobian(Inverse(y)).
//   - Parameters broadcast against inputs with NumPy rules.
package bijector

import (
	"errors"
	"fmt"
	"math"

	"github.com/jeffpollock9/probability/tensor"
)

// ErrInvalidParameter indicates bijector parameters outside their domain.
var ErrInvalidParameter = errors.New("bijector: invalid parameter")

// Bijector is a differentiable, invertible elementwise transform.
type Bijector interface {
	Name() string
	Forward(x *tensor.Dense) (*tensor.Dense, error)
	Inverse(y *tensor.Dense) (*tensor.Dense, error)
	ForwardLogDetJacobian(x *tensor.Dense) (*tensor.Dense, error)
	InverseLogDetJacobian(y *tensor.Dense) (*tensor.Dense, error)
}

// Identity is the bijector y = x.
type Identity struct{}

// Name implements Bijector.
func (Identity) Name() string { return "identity" }

// Forward implements Bijector.
func (Identity) Forward(x *tensor.Dense) (*tensor.Dense, error) { return x, nil }

// Inverse implements Bijector.
func (Identity) Inverse(y *tensor.Dense) (*tensor.Dense, error) { return y, nil }

// ForwardLogDetJacobian implements Bijector.
func (Identity) ForwardLogDetJacobian(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Zeros(x.Shape()...)
}

// InverseLogDetJacobian implements Bijector.
func (Identity) InverseLogDetJacobian(y *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Zeros(y.Shape()...)
}

// Exp is the bijector y = exp(x), onto (0, ∞).
type Exp struct{}

// Name implements Bijector.
func (Exp) Name() string { return "exp" }

// Forward implements Bijector.
func (Exp) Forward(x *tensor.Dense) (*tensor.Dense, error) { return x.Exp(), nil }

// Inverse implements Bijector.
func (Exp) Inverse(y *tensor.Dense) (*tensor.Dense, error) { return y.Log(), nil }

// ForwardLogDetJacobian implements Bijector.
func (Exp) ForwardLogDetJacobian(x *tensor.Dense) (*tensor.Dense, error) { return x.Clone(), nil }

// InverseLogDetJacobian implements Bijector.
func (Exp) InverseLogDetJacobian(y *tensor.Dense) (*tensor.Dense, error) {
	return y.Log().Neg(), nil
}

// Softplus is the bijector y = log(1 + exp(x)), onto (0, ∞).
type Softplus struct{}

// Name implements Bijector.
func (Softplus) Name() string { return "softplus" }

// Forward implements Bijector.
func (Softplus) Forward(x *tensor.Dense) (*tensor.Dense, error) { return x.Map(softplus), nil }

// Inverse implements Bijector.
func (Softplus) Inverse(y *tensor.Dense) (*tensor.Dense, error) {
	// x = y + log(1 - exp(-y))
	return y.Map(func(v float64) float64 { return v + math.Log(-math.Expm1(-v)) }), nil
}

// ForwardLogDetJacobian implements Bijector: log σ(x) = -softplus(-x).
func (Softplus) ForwardLogDetJacobian(x *tensor.Dense) (*tensor.Dense, error) {
	return x.Map(func(v float64) float64 { return -softplus(-v) }), nil
}

// InverseLogDetJacobian implements Bijector.
func (Softplus) InverseLogDetJacobian(y *tensor.Dense) (*tensor.Dense, error) {
	return y.Map(func(v float64) float64 { return -math.Log(-math.Expm1(-v)) }), nil
}

// Sigmoid is the bijector y = low + (high-low)·σ(x), onto (low, high).
type Sigmoid struct {
	low, high *tensor.Dense
}

// NewSigmoid returns a Sigmoid onto (low, high). low and high broadcast.
//
// Errors: ErrInvalidParameter unless low < high everywhere;
// tensor.ErrDimensionMismatch if they do not broadcast.
func NewSigmoid(low, high *tensor.Dense) (*Sigmoid, error) {
	ok, err := tensor.Apply(func(xs []float64) float64 {
		if xs[0] < xs[1] {
			return 1
		}
		return 0
	}, low, high)
	if err != nil {
		return nil, fmt.Errorf("bijector.NewSigmoid: %w", err)
	}
	if ok.Any(func(v float64) bool { return v == 0 }) {
		return nil, fmt.Errorf("bijector.NewSigmoid: %w: need low < high", ErrInvalidParameter)
	}
	return &Sigmoid{low: low, high: high}, nil
}

// UnitSigmoid returns a Sigmoid onto (0, 1).
func UnitSigmoid() *Sigmoid {
	return &Sigmoid{low: tensor.Scalar(0), high: tensor.Scalar(1)}
}

// Name implements Bijector.
func (*Sigmoid) Name() string { return "sigmoid" }

// Forward implements Bijector.
func (s *Sigmoid) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return xs[1] + (xs[2]-xs[1])*sigmoid(xs[0])
	}, x, s.low, s.high)
}

// Inverse implements Bijector.
func (s *Sigmoid) Inverse(y *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return math.Log(xs[0]-xs[1]) - math.Log(xs[2]-xs[0])
	}, y, s.low, s.high)
}

// ForwardLogDetJacobian implements Bijector.
func (s *Sigmoid) ForwardLogDetJacobian(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return math.Log(xs[2]-xs[1]) - softplus(-xs[0]) - softplus(xs[0])
	}, x, s.low, s.high)
}

// InverseLogDetJacobian implements Bijector.
func (s *Sigmoid) InverseLogDetJacobian(y *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return math.Log(xs[2]-xs[1]) - math.Log(xs[0]-xs[1]) - math.Log(xs[2]-xs[0])
	}, y, s.low, s.high)
}

// softplus computes log(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
