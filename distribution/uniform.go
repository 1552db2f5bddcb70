// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

type uniformKind struct{}

func (uniformKind) Name() string { return "Uniform" }

func (uniformKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{"low": {EventNdims: 0}, "high": {EventNdims: 0}}
}

func (uniformKind) New(p *nest.OrderedMap) (Distribution, error) {
	low, err := Parameter(p, "low")
	if err != nil {
		return nil, err
	}
	high, err := Parameter(p, "high")
	if err != nil {
		return nil, err
	}
	d, err := NewUniform(low, high, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Uniform is the continuous uniform distribution on [low, high).
// Only Prob is primitive among the densities; LogProb is derived.
type Uniform struct {
	*Base
	low, high *tensor.Dense
	batch     []int
}

// NewUniform builds a Uniform.
//
// Errors: ErrInvalidArgument for unconvertible or non-broadcasting bounds,
// or (with validate_args) low >= high anywhere.
func NewUniform(low, high any, opts ...Option) (*Uniform, error) {
	const kind = "Uniform"
	l, err := toTensor(kind, "low", low)
	if err != nil {
		return nil, err
	}
	h, err := toTensor(kind, "high", high)
	if err != nil {
		return nil, err
	}
	batch, err := broadcastBatch(kind, l, h)
	if err != nil {
		return nil, err
	}
	u := &Uniform{low: l, high: h, batch: batch}
	params := nest.NewOrderedMap().Set("low", l).Set("high", h)
	u.Base, err = NewBase(u, uniformKind{}, params, Primitives{
		SampleN:                   u.sampleN,
		Prob:                      u.prob,
		CDF:                       u.cdf,
		Quantile:                  u.quantile,
		Entropy:                   u.entropy,
		Mean:                      u.mean,
		Variance:                  u.variance,
		BatchShape:                staticShape(batch),
		EventShape:                scalarShape,
		ParameterAssertions:       u.parameterAssertions,
		SampleAssertions:          u.sampleAssertions,
		DefaultEventSpaceBijector: u.eventSpaceBijector,
		Reparameterization:        FullyReparameterized,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Low returns the lower bound.
func (u *Uniform) Low() *tensor.Dense { return u.low }

// High returns the upper bound.
func (u *Uniform) High() *tensor.Dense { return u.high }

func (u *Uniform) parameterAssertions() error {
	ok, err := tensor.Apply(func(xs []float64) float64 {
		if xs[0] < xs[1] {
			return 1
		}
		return 0
	}, u.low, u.high)
	if err != nil {
		return err
	}
	if ok.Any(func(v float64) bool { return v == 0 }) {
		return fmt.Errorf("low must be less than high")
	}
	return nil
}

func (u *Uniform) sampleAssertions(x *tensor.Dense) error {
	out, err := tensor.Apply(func(xs []float64) float64 {
		if xs[0] < xs[1] || xs[0] > xs[2] {
			return 1
		}
		return 0
	}, x, u.low, u.high)
	if err != nil {
		return err
	}
	if out.Any(func(v float64) bool { return v != 0 }) {
		return fmt.Errorf("sample must be in [low, high]")
	}
	return nil
}

func (u *Uniform) eventSpaceBijector() bijector.Bijector {
	b, err := bijector.NewSigmoid(u.low, u.high)
	if err != nil {
		return nil
	}
	return b
}

func (u *Uniform) sampleN(k int, seed samplers.Seed) (*tensor.Dense, error) {
	r, err := samplers.Uniform(sampleDims(k, u.batch), 0, 1, seed)
	if err != nil {
		return nil, err
	}
	return tensor.Apply(func(xs []float64) float64 { return xs[1] + (xs[2]-xs[1])*xs[0] }, r, u.low, u.high)
}

func (u *Uniform) prob(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		v, l, h := xs[0], xs[1], xs[2]
		switch {
		case math.IsNaN(v):
			return v
		case v < l || v >= h:
			return 0
		default:
			return 1 / (h - l)
		}
	}, x, u.low, u.high)
}

func (u *Uniform) cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		v, l, h := xs[0], xs[1], xs[2]
		return math.Min(1, math.Max(0, (v-l)/(h-l)))
	}, x, u.low, u.high)
}

func (u *Uniform) quantile(p *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return xs[1] + xs[0]*(xs[2]-xs[1]) }, p, u.low, u.high)
}

func (u *Uniform) entropy() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return math.Log(xs[1] - xs[0]) }, u.low, u.high)
}

func (u *Uniform) mean() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return (xs[0] + xs[1]) / 2 }, u.low, u.high)
}

func (u *Uniform) variance() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		w := xs[1] - xs[0]
		return w * w / 12
	}, u.low, u.high)
}

// klUniformUniform is log((b2-a2)/(b1-a1)) when [a1, b1] ⊆ [a2, b2], else +Inf.
func klUniformUniform(p, q Distribution) (*tensor.Dense, error) {
	a, b := p.(*Uniform), q.(*Uniform)
	return tensor.Apply(func(xs []float64) float64 {
		a1, b1, a2, b2 := xs[0], xs[1], xs[2], xs[3]
		if a1 < a2 || b1 > b2 {
			return math.Inf(1)
		}
		return math.Log(b2-a2) - math.Log(b1-a1)
	}, a.low, a.high, b.low, b.high)
}

func init() {
	RegisterKL("Uniform", "Uniform", klUniformUniform)
}
