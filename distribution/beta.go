// SPDX-License-Identifier: MIT

package distribution

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/special"
	"github.com/jeffpollock9/probability/tensor"
)

type betaKind struct{}

func (betaKind) Name() string { return "Beta" }

func (betaKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{
		"concentration1": {EventNdims: 0},
		"concentration0": {EventNdims: 0},
	}
}

func (betaKind) New(p *nest.OrderedMap) (Distribution, error) {
	c1, err := Parameter(p, "concentration1")
	if err != nil {
		return nil, err
	}
	c0, err := Parameter(p, "concentration0")
	if err != nil {
		return nil, err
	}
	d, err := NewBeta(c1, c0, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Beta is the beta distribution on [0, 1] with density
// x^(c1-1)·(1-x)^(c0-1) / B(c1, c0).
// The mode is undefined unless both concentrations exceed 1.
type Beta struct {
	*Base
	c1, c0 *tensor.Dense
	batch  []int
}

// NewBeta builds a Beta from concentration1 (α) and concentration0 (β).
//
// Errors: ErrInvalidArgument for unconvertible or non-broadcasting
// concentrations, or (with validate_args) non-positive ones.
func NewBeta(concentration1, concentration0 any, opts ...Option) (*Beta, error) {
	const kind = "Beta"
	c1, err := toTensor(kind, "concentration1", concentration1)
	if err != nil {
		return nil, err
	}
	c0, err := toTensor(kind, "concentration0", concentration0)
	if err != nil {
		return nil, err
	}
	batch, err := broadcastBatch(kind, c1, c0)
	if err != nil {
		return nil, err
	}
	b := &Beta{c1: c1, c0: c0, batch: batch}
	params := nest.NewOrderedMap().Set("concentration1", c1).Set("concentration0", c0)
	b.Base, err = NewBase(b, betaKind{}, params, Primitives{
		SampleN:                   b.sampleN,
		LogProb:                   b.logProb,
		CDF:                       b.cdf,
		Quantile:                  b.quantile,
		Entropy:                   b.entropy,
		Mean:                      b.mean,
		Mode:                      b.mode,
		Variance:                  b.variance,
		BatchShape:                staticShape(batch),
		EventShape:                scalarShape,
		ParameterAssertions:       b.parameterAssertions,
		SampleAssertions:          b.sampleAssertions,
		DefaultEventSpaceBijector: unitIntervalBijector,
		Reparameterization:        FullyReparameterized,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Concentration1 returns α.
func (b *Beta) Concentration1() *tensor.Dense { return b.c1 }

// Concentration0 returns β.
func (b *Beta) Concentration0() *tensor.Dense { return b.c0 }

func unitIntervalBijector() bijector.Bijector { return bijector.UnitSigmoid() }

func (b *Beta) parameterAssertions() error {
	if err := requireAll("concentration1", "positive", b.c1, positive); err != nil {
		return err
	}
	return requireAll("concentration0", "positive", b.c0, positive)
}

func (b *Beta) sampleAssertions(x *tensor.Dense) error {
	return requireAll("sample", "in [0, 1]", x, func(v float64) bool { return v >= 0 && v <= 1 })
}

func (b *Beta) sampleN(k int, seed samplers.Seed) (*tensor.Dense, error) {
	cs, err := broadcastToBatch(b.batch, b.c1, b.c0)
	if err != nil {
		return nil, err
	}
	size := len(cs[0])
	return samplers.Fill(sampleDims(k, b.batch), seed, func(i int, src rand.Source) float64 {
		j := i % size
		return distuv.Beta{Alpha: cs[0][j], Beta: cs[1][j], Src: src}.Rand()
	})
}

func (b *Beta) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		v, a, c := xs[0], xs[1], xs[2]
		if v < 0 || v > 1 {
			return math.Inf(-1)
		}
		return xlogy(a-1, v) + xlog1py(c-1, -v) - special.Lbeta(a, c)
	}, x, b.c1, b.c0)
}

func (b *Beta) cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		switch v := xs[0]; {
		case v <= 0:
			return 0
		case v >= 1:
			return 1
		default:
			return mathext.RegIncBeta(xs[1], xs[2], v)
		}
	}, x, b.c1, b.c0)
}

func (b *Beta) quantile(p *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		if xs[0] < 0 || xs[0] > 1 {
			return math.NaN()
		}
		return mathext.InvRegIncBeta(xs[1], xs[2], xs[0])
	}, p, b.c1, b.c0)
}

func (b *Beta) entropy() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		a, c := xs[0], xs[1]
		return special.Lbeta(a, c) - (a-1)*mathext.Digamma(a) - (c-1)*mathext.Digamma(c) +
			(a+c-2)*mathext.Digamma(a+c)
	}, b.c1, b.c0)
}

func (b *Beta) mean() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return xs[0] / (xs[0] + xs[1]) }, b.c1, b.c0)
}

func (b *Beta) variance() (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		s := xs[0] + xs[1]
		return xs[0] * xs[1] / (s * s * (s + 1))
	}, b.c1, b.c0)
}

// mode is (c1-1)/(c1+c0-2), undefined unless c1 > 1 and c0 > 1.
func (b *Beta) mode() (*tensor.Dense, error) {
	m, err := tensor.Apply(func(xs []float64) float64 { return (xs[0] - 1) / (xs[0] + xs[1] - 2) }, b.c1, b.c0)
	if err != nil {
		return nil, err
	}
	undefined, err := tensor.Apply(func(xs []float64) float64 {
		if xs[0] > 1 && xs[1] > 1 {
			return 0
		}
		return 1
	}, b.c1, b.c0)
	if err != nil {
		return nil, err
	}
	return b.MaskUndefined("mode requires concentration1 > 1 and concentration0 > 1", m, undefined)
}

// xlogy is x·log(y) with 0·log(0) = 0.
func xlogy(x, y float64) float64 {
	if x == 0 && !math.IsNaN(y) {
		return 0
	}
	return x * math.Log(y)
}

// xlog1py is x·log1p(y) with 0·log1p(-1) = 0.
func xlog1py(x, y float64) float64 {
	if x == 0 && !math.IsNaN(y) {
		return 0
	}
	return x * math.Log1p(y)
}
