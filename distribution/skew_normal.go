// SPDX-License-Identifier: MIT

package distribution

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/special"
	"github.com/jeffpollock9/probability/tensor"
)

type skewNormalKind struct{}

func (skewNormalKind) Name() string { return "SkewNormal" }

func (skewNormalKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{
		"loc":      {EventNdims: 0},
		"scale":    {EventNdims: 0},
		"skewness": {EventNdims: 0},
	}
}

func (skewNormalKind) New(p *nest.OrderedMap) (Distribution, error) {
	vals := make([]any, 3)
	for i, k := range []string{"loc", "scale", "skewness"} {
		v, err := Parameter(p, k)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	d, err := NewSkewNormal(vals[0], vals[1], vals[2], OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SkewNormal is Azzalini's skew normal with density
// (2/scale)·φ(z)·Φ(skewness·z), z = (x-loc)/scale.
// Its CDF is Φ(z) - 2·T(z, skewness) with Owen's T. Mode and entropy have
// no closed form and are not implemented.
type SkewNormal struct {
	*Base
	loc, scale, skew *tensor.Dense
	batch            []int
}

// NewSkewNormal builds a SkewNormal; skewness 0 gives Normal(loc, scale).
//
// Errors: ErrInvalidArgument for unconvertible or non-broadcasting
// parameters, or (with validate_args) a non-positive scale.
func NewSkewNormal(loc, scale, skewness any, opts ...Option) (*SkewNormal, error) {
	const kind = "SkewNormal"
	l, err := toTensor(kind, "loc", loc)
	if err != nil {
		return nil, err
	}
	s, err := toTensor(kind, "scale", scale)
	if err != nil {
		return nil, err
	}
	a, err := toTensor(kind, "skewness", skewness)
	if err != nil {
		return nil, err
	}
	batch, err := broadcastBatch(kind, l, s, a)
	if err != nil {
		return nil, err
	}
	sn := &SkewNormal{loc: l, scale: s, skew: a, batch: batch}
	params := nest.NewOrderedMap().Set("loc", l).Set("scale", s).Set("skewness", a)
	sn.Base, err = NewBase(sn, skewNormalKind{}, params, Primitives{
		SampleN:                   sn.sampleN,
		LogProb:                   sn.logProb,
		CDF:                       sn.cdf,
		Mean:                      sn.mean,
		Variance:                  sn.variance,
		BatchShape:                staticShape(batch),
		EventShape:                scalarShape,
		ParameterAssertions:       sn.parameterAssertions,
		DefaultEventSpaceBijector: identityBijector,
		Reparameterization:        FullyReparameterized,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return sn, nil
}

func (sn *SkewNormal) parameterAssertions() error {
	return requireAll("scale", "positive", sn.scale, positive)
}

func delta(alpha float64) float64 { return alpha / math.Sqrt(1+alpha*alpha) }

func (sn *SkewNormal) sampleN(k int, seed samplers.Seed) (*tensor.Dense, error) {
	ps, err := broadcastToBatch(sn.batch, sn.loc, sn.scale, sn.skew)
	if err != nil {
		return nil, err
	}
	size := len(ps[0])
	return samplers.Fill(sampleDims(k, sn.batch), seed, func(i int, src rand.Source) float64 {
		j := i % size
		unit := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
		d := delta(ps[2][j])
		z := d*math.Abs(unit.Rand()) + math.Sqrt(1-d*d)*unit.Rand()
		return ps[0][j] + ps[1][j]*z
	})
}

func (sn *SkewNormal) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		z := (xs[0] - xs[1]) / xs[2]
		return math.Ln2 - math.Log(xs[2]) - 0.5*(log2Pi+z*z) + logNdtr(xs[3]*z)
	}, x, sn.loc, sn.scale, sn.skew)
}

func (sn *SkewNormal) cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		z := (xs[0] - xs[1]) / xs[2]
		p := distuv.UnitNormal.CDF(z) - 2*special.OwensT(z, xs[3])
		return math.Min(1, math.Max(0, p))
	}, x, sn.loc, sn.scale, sn.skew)
}

func (sn *SkewNormal) mean() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return xs[0] + xs[1]*delta(xs[2])*sqrt2OverPi
	}, sn.loc, sn.scale, sn.skew)
}

func (sn *SkewNormal) variance() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		d := delta(xs[2])
		return xs[1] * xs[1] * (1 - 2*d*d/math.Pi)
	}, sn.loc, sn.scale, sn.skew)
}
