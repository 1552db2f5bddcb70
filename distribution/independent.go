// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/shape"
	"github.com/jeffpollock9/probability/tensor"
)

type independentKind struct{}

func (independentKind) Name() string { return "Independent" }

func (independentKind) ParameterProperties() map[string]ParameterProperties { return nil }

func (independentKind) New(p *nest.OrderedMap) (Distribution, error) {
	inner, err := Parameter(p, "distribution")
	if err != nil {
		return nil, err
	}
	dist, ok := inner.(Distribution)
	if !ok {
		return nil, fmt.Errorf("Independent: %w: distribution is %T", ErrInvalidArgument, inner)
	}
	nd, err := Parameter(p, "reinterpreted_batch_ndims")
	if err != nil {
		return nil, err
	}
	k, ok := nd.(int)
	if !ok {
		return nil, fmt.Errorf("Independent: %w: reinterpreted_batch_ndims is %T", ErrInvalidArgument, nd)
	}
	d, err := NewIndependent(dist, k, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Independent reinterprets the rightmost k batch dims of an inner
// distribution as event dims; log densities are summed over them.
type Independent struct {
	*Base
	inner Distribution
	k     int
	batch []int
}

// NewIndependent builds an Independent.
//
// Errors: ErrInvalidArgument unless 0 <= k <= inner batch rank.
func NewIndependent(inner Distribution, k int, opts ...Option) (*Independent, error) {
	batch, err := inner.BatchShapeTensor()
	if err != nil {
		return nil, err
	}
	if k < 0 || k > len(batch) {
		return nil, fmt.Errorf("Independent: %w: reinterpreted_batch_ndims %d for batch shape %v",
			ErrInvalidArgument, k, batch)
	}
	d := &Independent{inner: inner, k: k, batch: batch}
	params := nest.NewOrderedMap().Set("distribution", inner).Set("reinterpreted_batch_ndims", k)
	d.Base, err = NewBase(d, independentKind{}, params, Primitives{
		SampleN:                   d.sampleN,
		LogProb:                   d.logProb,
		Entropy:                   d.entropy,
		Mean:                      inner.Mean,
		Variance:                  inner.Variance,
		BatchShape:                d.batchShape,
		EventShape:                d.eventShape,
		DefaultEventSpaceBijector: inner.DefaultEventSpaceBijector,
		Reparameterization:        inner.ReparameterizationType(),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Distribution returns the inner distribution.
func (d *Independent) Distribution() Distribution { return d.inner }

func (d *Independent) batchShape() shape.Shape {
	return shape.Known(d.batch[:len(d.batch)-d.k]...)
}

func (d *Independent) eventShape() shape.Shape {
	return shape.Known(d.batch[len(d.batch)-d.k:]...).Concat(d.inner.EventShape())
}

func (d *Independent) sampleN(n int, seed samplers.Seed) (*tensor.Dense, error) {
	return d.inner.Sample([]int{n}, seed)
}

func (d *Independent) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	lp, err := d.inner.LogProb(x)
	if err != nil {
		return nil, err
	}
	return lp.SumLast(d.k)
}

func (d *Independent) entropy() (*tensor.Dense, error) {
	h, err := d.inner.Entropy()
	if err != nil {
		return nil, err
	}
	return h.SumLast(d.k)
}
