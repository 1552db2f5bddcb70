// SPDX-License-Identifier: MIT

package distribution

import (
	"strings"

	"github.com/jeffpollock9/probability/nest"
)

// DType names the element type of a distribution's samples.
type DType string

// Float64 is the element type of every scalar family in this package.
const Float64 DType = "float64"

// ReparameterizationType states whether samples are differentiable
// functions of the parameters.
type ReparameterizationType int

const (
	// NotReparameterized samples carry no pathwise gradient.
	NotReparameterized ReparameterizationType = iota
	// FullyReparameterized samples are a differentiable transform of noise.
	FullyReparameterized
)

// String implements fmt.Stringer.
func (r ReparameterizationType) String() string {
	if r == FullyReparameterized {
		return "FULLY_REPARAMETERIZED"
	}
	return "NOT_REPARAMETERIZED"
}

// Capability is a bit set of measures a distribution can evaluate.
type Capability uint32

// Capabilities, one bit per measure.
const (
	CapSample Capability = 1 << iota
	CapLogProb
	CapProb
	CapCDF
	CapLogCDF
	CapSurvival
	CapLogSurvival
	CapQuantile
	CapEntropy
	CapMean
	CapMode
	CapVariance
	CapStddev
	CapCovariance

	capEnd
)

var capabilityNames = map[Capability]string{
	CapSample:      "sample",
	CapLogProb:     "log_prob",
	CapProb:        "prob",
	CapCDF:         "cdf",
	CapLogCDF:      "log_cdf",
	CapSurvival:    "survival_function",
	CapLogSurvival: "log_survival_function",
	CapQuantile:    "quantile",
	CapEntropy:     "entropy",
	CapMean:        "mean",
	CapMode:        "mode",
	CapVariance:    "variance",
	CapStddev:      "stddev",
	CapCovariance:  "covariance",
}

// Has reports whether every bit of o is set in c.
func (c Capability) Has(o Capability) bool { return c&o == o }

// String lists the set measures, e.g. "log_prob|cdf".
func (c Capability) String() string {
	var parts []string
	for bit := Capability(1); bit < capEnd; bit <<= 1 {
		if c&bit != 0 {
			parts = append(parts, capabilityNames[bit])
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParameterProperties describes one constructor parameter for batch slicing.
type ParameterProperties struct {
	// EventNdims is how many trailing dims of the parameter are not batch dims.
	EventNdims int
}

// Kind identifies a distribution family. It names the family (the KL
// registry key), declares per-parameter properties for batch slicing, and
// rebuilds an instance from its Parameters.
type Kind interface {
	Name() string
	// ParameterProperties returns nil when the family does not support
	// structured batch slicing.
	ParameterProperties() map[string]ParameterProperties
	New(params *nest.OrderedMap) (Distribution, error)
}
