// SPDX-License-Identifier: MIT

package distribution

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

type normalKind struct{}

func (normalKind) Name() string { return "Normal" }

func (normalKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{"loc": {EventNdims: 0}, "scale": {EventNdims: 0}}
}

func (normalKind) New(p *nest.OrderedMap) (Distribution, error) {
	loc, err := Parameter(p, "loc")
	if err != nil {
		return nil, err
	}
	scale, err := Parameter(p, "scale")
	if err != nil {
		return nil, err
	}
	d, err := NewNormal(loc, scale, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Normal is the univariate normal distribution N(loc, scale²).
// Primitives: LogProb, CDF, Quantile, Stddev and the closed-form
// statistics; Prob, LogCDF, the survival functions and Variance are derived.
type Normal struct {
	*Base
	loc, scale *tensor.Dense
	batch      []int
}

// NewNormal builds a Normal. loc and scale are any tensor.From value and
// broadcast to the batch shape.
//
// Errors: ErrInvalidArgument for unconvertible or non-broadcasting
// parameters, or (with validate_args) a non-positive scale.
func NewNormal(loc, scale any, opts ...Option) (*Normal, error) {
	const kind = "Normal"
	l, err := toTensor(kind, "loc", loc)
	if err != nil {
		return nil, err
	}
	s, err := toTensor(kind, "scale", scale)
	if err != nil {
		return nil, err
	}
	batch, err := broadcastBatch(kind, l, s)
	if err != nil {
		return nil, err
	}
	n := &Normal{loc: l, scale: s, batch: batch}
	params := nest.NewOrderedMap().Set("loc", l).Set("scale", s)
	n.Base, err = NewBase(n, normalKind{}, params, Primitives{
		SampleN:                   n.sampleN,
		LogProb:                   n.logProb,
		CDF:                       n.cdf,
		Quantile:                  n.quantile,
		Entropy:                   n.entropy,
		Mean:                      n.mean,
		Mode:                      n.mean,
		Stddev:                    n.stddev,
		BatchShape:                staticShape(batch),
		EventShape:                scalarShape,
		ParameterAssertions:       n.parameterAssertions,
		DefaultEventSpaceBijector: identityBijector,
		Reparameterization:        FullyReparameterized,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Loc returns the location parameter.
func (n *Normal) Loc() *tensor.Dense { return n.loc }

// Scale returns the scale parameter.
func (n *Normal) Scale() *tensor.Dense { return n.scale }

func (n *Normal) parameterAssertions() error {
	return requireAll("scale", "positive", n.scale, positive)
}

func (n *Normal) sampleN(k int, seed samplers.Seed) (*tensor.Dense, error) {
	z, err := samplers.Normal(sampleDims(k, n.batch), seed)
	if err != nil {
		return nil, err
	}
	return tensor.Apply(func(xs []float64) float64 { return xs[1] + xs[2]*xs[0] }, z, n.loc, n.scale)
}

func (n *Normal) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return distuv.Normal{Mu: xs[1], Sigma: xs[2]}.LogProb(xs[0])
	}, x, n.loc, n.scale)
}

func (n *Normal) cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return distuv.Normal{Mu: xs[1], Sigma: xs[2]}.CDF(xs[0])
	}, x, n.loc, n.scale)
}

func (n *Normal) quantile(p *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		if xs[0] < 0 || xs[0] > 1 {
			return math.NaN()
		}
		return distuv.Normal{Mu: xs[1], Sigma: xs[2]}.Quantile(xs[0])
	}, p, n.loc, n.scale)
}

func (n *Normal) entropy() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return 0.5*(log2Pi+1) + math.Log(xs[1])
	}, n.loc, n.scale)
}

func (n *Normal) mean() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return xs[0] }, n.loc, n.scale)
}

func (n *Normal) stddev() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return xs[1] }, n.loc, n.scale)
}

func klNormalNormal(p, q Distribution) (*tensor.Dense, error) {
	a, b := p.(*Normal), q.(*Normal)
	return tensor.Apply(func(xs []float64) float64 {
		mp, sp, mq, sq := xs[0], xs[1], xs[2], xs[3]
		d := mp - mq
		return math.Log(sq/sp) + (sp*sp+d*d)/(2*sq*sq) - 0.5
	}, a.loc, a.scale, b.loc, b.scale)
}

func init() {
	RegisterKL("Normal", "Normal", klNormalNormal)
}
