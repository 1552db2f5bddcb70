// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"slices"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/shape"
	"github.com/jeffpollock9/probability/tensor"
)

type iidKind struct{}

func (iidKind) Name() string { return "IID" }

// ParameterProperties declares the inner distribution, whose batch is the
// IID batch, so batch slices pass through to it.
func (iidKind) ParameterProperties() map[string]ParameterProperties {
	return map[string]ParameterProperties{"distribution": {EventNdims: 0}}
}

func (iidKind) New(p *nest.OrderedMap) (Distribution, error) {
	inner, err := Parameter(p, "distribution")
	if err != nil {
		return nil, err
	}
	dist, ok := inner.(Distribution)
	if !ok {
		return nil, fmt.Errorf("IID: %w: distribution is %T", ErrInvalidArgument, inner)
	}
	ss, err := Parameter(p, "sample_shape")
	if err != nil {
		return nil, err
	}
	dims, ok := ss.([]int)
	if !ok {
		return nil, fmt.Errorf("IID: %w: sample_shape is %T", ErrInvalidArgument, ss)
	}
	d, err := NewIID(dist, dims, OptionsFromParameters(p)...)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// IID draws sampleShape i.i.d. copies of an inner distribution per batch
// member and treats them as one event:
// batch = inner.batch, event = sampleShape + inner.event.
type IID struct {
	*Base
	inner       Distribution
	sampleShape []int
	batch       []int
	innerEvent  []int
}

// NewIID builds an IID wrapper around inner.
//
// Errors: ErrInvalidArgument for a negative sample dim; shape errors from
// inner.
func NewIID(inner Distribution, sampleShape []int, opts ...Option) (*IID, error) {
	for _, d := range sampleShape {
		if d < 0 {
			return nil, fmt.Errorf("IID: %w: sample shape %v", ErrInvalidArgument, sampleShape)
		}
	}
	batch, err := inner.BatchShapeTensor()
	if err != nil {
		return nil, err
	}
	event, err := inner.EventShapeTensor()
	if err != nil {
		return nil, err
	}
	s := &IID{inner: inner, sampleShape: slices.Clone(sampleShape), batch: batch, innerEvent: event}
	params := nest.NewOrderedMap().Set("distribution", inner).Set("sample_shape", s.sampleShape)
	s.Base, err = NewBase(s, iidKind{}, params, Primitives{
		SampleN:                   s.sampleN,
		LogProb:                   s.logProb,
		Entropy:                   s.entropy,
		Mean:                      s.mean,
		Variance:                  s.variance,
		BatchShape:                inner.BatchShape,
		EventShape:                s.eventShape,
		DefaultEventSpaceBijector: inner.DefaultEventSpaceBijector,
		Reparameterization:        inner.ReparameterizationType(),
	}, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Distribution returns the inner distribution.
func (s *IID) Distribution() Distribution { return s.inner }

func (s *IID) eventShape() shape.Shape {
	return shape.Known(s.sampleShape...).Concat(s.inner.EventShape())
}

// sampleN draws [n]+S+B+E from the inner distribution and moves S after B.
func (s *IID) sampleN(n int, seed samplers.Seed) (*tensor.Dense, error) {
	x, err := s.inner.Sample(slices.Concat([]int{n}, s.sampleShape), seed)
	if err != nil {
		return nil, err
	}
	ns, nb, ne := len(s.sampleShape), len(s.batch), len(s.innerEvent)
	perm := []int{0}
	perm = append(perm, seq(1+ns, 1+ns+nb)...)
	perm = append(perm, seq(1, 1+ns)...)
	perm = append(perm, seq(1+ns+nb, 1+ns+nb+ne)...)
	return x.Transpose(perm...)
}

// logProb moves the S dims of x (…+B+S+E) before B, evaluates the inner
// log prob (…+S+B) and sums over S.
func (s *IID) logProb(x *tensor.Dense) (*tensor.Dense, error) {
	full := slices.Concat(s.batch, s.sampleShape, s.innerEvent)
	target, err := tensor.BroadcastShapes(x.Shape(), full)
	if err != nil {
		return nil, err
	}
	xb, err := x.BroadcastTo(target...)
	if err != nil {
		return nil, err
	}
	ns, nb, ne := len(s.sampleShape), len(s.batch), len(s.innerEvent)
	p := len(target) - nb - ns - ne
	perm := seq(0, p)
	perm = append(perm, seq(p+nb, p+nb+ns)...)
	perm = append(perm, seq(p, p+nb)...)
	perm = append(perm, seq(p+nb+ns, len(target))...)
	xt, err := xb.Transpose(perm...)
	if err != nil {
		return nil, err
	}
	lp, err := s.inner.LogProb(xt)
	if err != nil {
		return nil, err
	}
	if ns == 0 {
		return lp, nil
	}
	return lp.SumAxes(seq(p, p+ns)...)
}

func (s *IID) entropy() (*tensor.Dense, error) {
	h, err := s.inner.Entropy()
	if err != nil {
		return nil, err
	}
	n := 1
	for _, d := range s.sampleShape {
		n *= d
	}
	return h.MulScalar(float64(n)), nil
}

func (s *IID) mean() (*tensor.Dense, error) { return s.tile(s.inner.Mean) }

func (s *IID) variance() (*tensor.Dense, error) { return s.tile(s.inner.Variance) }

// tile repeats an inner statistic (B+E) across the sample dims (B+S+E).
func (s *IID) tile(stat func() (*tensor.Dense, error)) (*tensor.Dense, error) {
	v, err := stat()
	if err != nil {
		return nil, err
	}
	v, err = v.BroadcastTo(slices.Concat(s.batch, s.innerEvent)...)
	if err != nil {
		return nil, err
	}
	ones := slices.Repeat([]int{1}, len(s.sampleShape))
	v, err = v.Reshape(slices.Concat(s.batch, ones, s.innerEvent)...)
	if err != nil {
		return nil, err
	}
	return v.BroadcastTo(slices.Concat(s.batch, s.sampleShape, s.innerEvent)...)
}

// seq returns [lo, hi).
func seq(lo, hi int) []int {
	out := make([]int, 0, max(hi-lo, 0))
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}
