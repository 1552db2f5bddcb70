// SPDX-License-Identifier: MIT

package distribution

import (
	"math"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

type halfNormalKind struct{}

func (halfNormalKind) Name() string { return "HalfNormal" }

func (halfNormalKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{"scale": {EventNdims: 0}}
}

func (halfNormalKind) New(p *nest.OrderedMap) (Distribution, error) {
	scale, err := Parameter(p, "scale")
	if err != nil {
		return nil, err
	}
	d, err := NewHalfNormal(scale, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// HalfNormal is |X| for X ~ N(0, scale²), supported on [0, ∞).
type HalfNormal struct {
	*Base
	scale *tensor.Dense
	batch []int
}

// NewHalfNormal builds a HalfNormal.
//
// Errors: ErrInvalidArgument for an unconvertible scale or (with
// validate_args) a non-positive one.
func NewHalfNormal(scale any, opts ...Option) (*HalfNormal, error) {
	s, err := toTensor("HalfNormal", "scale", scale)
	if err != nil {
		return nil, err
	}
	h := &HalfNormal{scale: s, batch: s.Shape()}
	params := nest.NewOrderedMap().Set("scale", s)
	h.Base, err = NewBase(h, halfNormalKind{}, params, Primitives{
		SampleN:                   h.sampleN,
		LogProb:                   h.logProb,
		CDF:                       h.cdf,
		Quantile:                  h.quantile,
		Entropy:                   h.entropy,
		Mean:                      h.mean,
		Mode:                      h.mode,
		Variance:                  h.variance,
		BatchShape:                staticShape(h.batch),
		EventShape:                scalarShape,
		ParameterAssertions:       h.parameterAssertions,
		SampleAssertions:          h.sampleAssertions,
		DefaultEventSpaceBijector: softplusBijector,
		Reparameterization:        FullyReparameterized,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Scale returns the scale parameter.
func (h *HalfNormal) Scale() *tensor.Dense { return h.scale }

func (h *HalfNormal) parameterAssertions() error {
	return requireAll("scale", "positive", h.scale, positive)
}

func (h *HalfNormal) sampleAssertions(x *tensor.Dense) error {
	return requireAll("sample", "non-negative", x, nonNegative)
}

func (h *HalfNormal) sampleN(k int, seed samplers.Seed) (*tensor.Dense, error) {
	z, err := samplers.Normal(sampleDims(k, h.batch), seed)
	if err != nil {
		return nil, err
	}
	return tensor.Apply(func(xs []float64) float64 { return math.Abs(xs[0]) * xs[1] }, z, h.scale)
}

func (h *HalfNormal) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		v, s := xs[0], xs[1]
		if v < 0 {
			return math.Inf(-1)
		}
		z := v / s
		return 0.5*math.Log(2/math.Pi) - math.Log(s) - 0.5*z*z
	}, x, h.scale)
}

func (h *HalfNormal) cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		if xs[0] < 0 {
			return 0
		}
		return math.Erf(xs[0] / (xs[1] * math.Sqrt2))
	}, x, h.scale)
}

func (h *HalfNormal) quantile(p *tensor.Dense) (*tensor.Dense, error) {
	return tensor.Apply(func(xs []float64) float64 {
		return xs[1] * math.Sqrt2 * math.Erfinv(xs[0])
	}, p, h.scale)
}

func (h *HalfNormal) entropy() (*tensor.Dense, error) {
	return h.scale.Map(func(s float64) float64 { return 0.5*math.Log(math.Pi*s*s/2) + 0.5 }), nil
}

func (h *HalfNormal) mean() (*tensor.Dense, error) {
	return h.scale.MulScalar(sqrt2OverPi), nil
}

func (h *HalfNormal) mode() (*tensor.Dense, error) {
	return tensor.Zeros(h.batch...)
}

func (h *HalfNormal) variance() (*tensor.Dense, error) {
	return h.scale.Map(func(s float64) float64 { return s * s * (1 - 2/math.Pi) }), nil
}
