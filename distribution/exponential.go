// SPDX-License-Identifier: MIT

package distribution

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

type exponentialKind struct{}

func (exponentialKind) Name() string { return "Exponential" }

func (exponentialKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{"rate": {EventNdims: 0}}
}

func (exponentialKind) New(p *nest.OrderedMap) (Distribution, error) {
	rate, err := Parameter(p, "rate")
	if err != nil {
		return nil, err
	}
	d, err := NewExponential(rate, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Exponential has density rate·exp(-rate·x) on [0, ∞).
// LogSurvivalFunction is primitive; SurvivalFunction is derived from CDF.
type Exponential struct {
	*Base
	rate  *tensor.Dense
	batch []int
}

// NewExponential builds an Exponential.
//
// Errors: ErrInvalidArgument for an unconvertible rate or (with
// validate_args) a non-positive one.
func NewExponential(rate any, opts ...Option) (*Exponential, error) {
	r, err := toTensor("Exponential", "rate", rate)
	if err != nil {
		return nil, err
	}
	e := &Exponential{rate: r, batch: r.Shape()}
	params := nest.NewOrderedMap().Set("rate", r)
	e.Base, err = NewBase(e, exponentialKind{}, params, Primitives{
		SampleN:                   e.sampleN,
		LogProb:                   e.logProb,
		CDF:                       e.cdf,
		LogSurvivalFunction:       e.logSurvival,
		Quantile:                  e.quantile,
		Entropy:                   e.entropy,
		Mean:                      e.mean,
		Mode:                      e.mode,
		Variance:                  e.variance,
		BatchShape:                staticShape(e.batch),
		EventShape:                scalarShape,
		ParameterAssertions:       e.parameterAssertions,
		SampleAssertions:          e.sampleAssertions,
		DefaultEventSpaceBijector: softplusBijector,
		Reparameterization:        FullyReparameterized,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Rate returns the rate parameter.
func (e *Exponential) Rate() *tensor.Dense { return e.rate }

func (e *Exponential) parameterAssertions() error {
	return requireAll("rate", "positive", e.rate, positive)
}

func (e *Exponential) sampleAssertions(x *tensor.Dense) error {
	return requireAll("sample", "non-negative", x, nonNegative)
}

func (e *Exponential) sampleN(k int, seed samplers.Seed) (*tensor.Dense, error) {
	rates, err := broadcastToBatch(e.batch, e.rate)
	if err != nil {
		return nil, err
	}
	size := len(rates[0])
	return samplers.Fill(sampleDims(k, e.batch), seed, func(i int, src rand.Source) float64 {
		return distuv.Exponential{Rate: rates[0][i%size], Src: src}.Rand()
	})
}

func (e *Exponential) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		if xs[0] < 0 {
			return math.Inf(-1)
		}
		return math.Log(xs[1]) - xs[1]*xs[0]
	}, x, e.rate)
}

func (e *Exponential) cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		if xs[0] < 0 {
			return 0
		}
		return -math.Expm1(-xs[1] * xs[0])
	}, x, e.rate)
}

func (e *Exponential) logSurvival(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		if xs[0] < 0 {
			return 0
		}
		return -xs[1] * xs[0]
	}, x, e.rate)
}

func (e *Exponential) quantile(p *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 { return -math.Log1p(-xs[0]) / xs[1] }, p, e.rate)
}

func (e *Exponential) entropy() (*tensor.Dense, error) {
	return e.rate.Map(func(r float64) float64 { return 1 - math.Log(r) }), nil
}

func (e *Exponential) mean() (*tensor.Dense, error) {
	return e.rate.Map(func(r float64) float64 { return 1 / r }), nil
}

func (e *Exponential) mode() (*tensor.Dense, error) {
	return tensor.Zeros(e.batch...)
}

func (e *Exponential) variance() (*tensor.Dense, error) {
	return e.rate.Map(func(r float64) float64 { return 1 / (r * r) }), nil
}

func klExponentialExponential(p, q Distribution) (*tensor.Dense, error) {
	a, b := p.(*Exponential), q.(*Exponential)
	return tensor.Apply(func(xs []float64) float64 {
		r1, r2 := xs[0], xs[1]
		return math.Log(r1) - math.Log(r2) + r2/r1 - 1
	}, a.rate, b.rate)
}

func init() {
	RegisterKL("Exponential", "Exponential", klExponentialExponential)
}
