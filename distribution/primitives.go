// SPDX-License-Identifier: MIT

package distribution

import (
	"math"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/shape"
	"github.com/jeffpollock9/probability/tensor"
)

// Primitives are the family-specific functions behind the public measures.
// Nil fields are missing; the base derives what it can from the fallback
// chains and reports ErrNotImplemented for the rest.
//
// Shapes: SampleN returns [n]+batch+event. Value measures receive x already
// converted to a tensor and return sample+batch shaped results.
type Primitives struct {
	SampleN func(n int, seed samplers.Seed) (*tensor.Dense, error)

	LogProb             func(x *tensor.Dense) (*tensor.Dense, error)
	Prob                func(x *tensor.Dense) (*tensor.Dense, error)
	CDF                 func(x *tensor.Dense) (*tensor.Dense, error)
	LogCDF              func(x *tensor.Dense) (*tensor.Dense, error)
	SurvivalFunction    func(x *tensor.Dense) (*tensor.Dense, error)
	LogSurvivalFunction func(x *tensor.Dense) (*tensor.Dense, error)
	Quantile            func(p *tensor.Dense) (*tensor.Dense, error)

	Entropy    func() (*tensor.Dense, error)
	Mean       func() (*tensor.Dense, error)
	Mode       func() (*tensor.Dense, error)
	Variance   func() (*tensor.Dense, error)
	Stddev     func() (*tensor.Dense, error)
	Covariance func() (*tensor.Dense, error)

	// Static shapes; nil means unknown rank.
	BatchShape func() shape.Shape
	EventShape func() shape.Shape
	// Dynamic shapes, used only when the static shape is not fully defined.
	BatchShapeTensor func() ([]int, error)
	EventShapeTensor func() ([]int, error)

	// ParameterAssertions runs once at construction.
	ParameterAssertions func() error
	// SampleAssertions runs on every measure call when validate_args is set.
	SampleAssertions func(x *tensor.Dense) error

	DefaultEventSpaceBijector func() bijector.Bijector

	Reparameterization ReparameterizationType
}

// measureFunc is the unified signature of a resolved measure; nullary
// statistics ignore x.
type measureFunc func(x *tensor.Dense) (*tensor.Dense, error)

func (p *Primitives) primitive(c Capability) measureFunc {
	unary := func(f func(*tensor.Dense) (*tensor.Dense, error)) measureFunc {
		if f == nil {
			return nil
		}
		return f
	}
	nullary := func(f func() (*tensor.Dense, error)) measureFunc {
		if f == nil {
			return nil
		}
		return func(*tensor.Dense) (*tensor.Dense, error) { return f() }
	}
	switch c {
	case CapLogProb:
		return unary(p.LogProb)
	case CapProb:
		return unary(p.Prob)
	case CapCDF:
		return unary(p.CDF)
	case CapLogCDF:
		return unary(p.LogCDF)
	case CapSurvival:
		return unary(p.SurvivalFunction)
	case CapLogSurvival:
		return unary(p.LogSurvivalFunction)
	case CapQuantile:
		return unary(p.Quantile)
	case CapEntropy:
		return nullary(p.Entropy)
	case CapMean:
		return nullary(p.Mean)
	case CapMode:
		return nullary(p.Mode)
	case CapVariance:
		return nullary(p.Variance)
	case CapStddev:
		return nullary(p.Stddev)
	case CapCovariance:
		return nullary(p.Covariance)
	default:
		return nil
	}
}

// capabilities returns the bit set of supplied primitives.
func (p *Primitives) capabilities() Capability {
	var c Capability
	if p.SampleN != nil {
		c |= CapSample
	}
	for bit := CapLogProb; bit < capEnd; bit <<= 1 {
		if p.primitive(bit) != nil {
			c |= bit
		}
	}
	return c
}

// derivation computes one measure from another.
type derivation struct {
	from Capability
	// resolved lets the source itself be derived; otherwise it must be a
	// primitive. Mutual pairs use false so resolution terminates.
	resolved bool
	apply    func(v float64) float64
}

// fallbackChains lists, per measure, the derivations tried in order when
// the primitive is missing.
var fallbackChains = map[Capability][]derivation{
	CapLogProb: {{from: CapProb, apply: math.Log}},
	CapProb:    {{from: CapLogProb, apply: math.Exp}},
	CapLogCDF:  {{from: CapCDF, apply: math.Log}},
	CapCDF:     {{from: CapLogCDF, apply: math.Exp}},
	CapLogSurvival: {
		{from: CapLogCDF, apply: tensor.Log1mExp},
		{from: CapCDF, resolved: true, apply: func(v float64) float64 { return math.Log1p(-v) }},
	},
	CapSurvival: {
		{from: CapCDF, resolved: true, apply: func(v float64) float64 { return 1 - v }},
		{from: CapLogSurvival, apply: math.Exp},
	},
	CapVariance: {{from: CapStddev, apply: func(v float64) float64 { return v * v }}},
	CapStddev:   {{from: CapVariance, apply: math.Sqrt}},
}

// resolve returns the primitive for c or, when allowDerived, the first
// derivation in its chain whose source resolves.
func (p *Primitives) resolve(c Capability, allowDerived bool) measureFunc {
	if f := p.primitive(c); f != nil {
		return f
	}
	if !allowDerived {
		return nil
	}
	for _, d := range fallbackChains[c] {
		src := p.resolve(d.from, d.resolved)
		if src == nil {
			continue
		}
		apply := d.apply
		return func(x *tensor.Dense) (*tensor.Dense, error) {
			v, err := src(x)
			if err != nil {
				return nil, err
			}
			return v.Map(apply), nil
		}
	}
	return nil
}
