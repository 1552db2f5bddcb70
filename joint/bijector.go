// SPDX-License-Identifier: MIT

package joint

import (
	"fmt"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/tensor"
)

// Bijector is the default event-space bijector of a joint model: each free
// component gets its distribution's own bijector (Identity when it has
// none). Downstream distributions depend on upstream values, so every call
// walks the model and conditions each step on the constrained value:
// Forward feeds bij.Forward(x) downstream, Inverse the given y.
type Bijector struct {
	j         *Joint
	pins      []*tensor.Dense
	flatten   func(any) ([]any, error)
	unflatten func([]any) (any, error)
}

// DefaultEventSpaceBijector returns the bijector over every component, in
// the model's value structure.
func (j *Joint) DefaultEventSpaceBijector() *Bijector {
	return &Bijector{
		j:         j,
		flatten:   j.ModelFlatten,
		unflatten: j.ModelUnflatten,
	}
}

func (b *Bijector) pinned(i int) *tensor.Dense {
	if i < len(b.pins) {
		return b.pins[i]
	}
	return nil
}

// conditioned returns the bijector and event rank of each free component
// for the given free values.
func (b *Bijector) conditioned(values []*tensor.Dense, constrained bool) ([]bijector.Bijector, []int, error) {
	var bijs []bijector.Bijector
	var eventNdims []int
	var cond []*tensor.Dense
	k := 0
	for i := 0; ; i++ {
		d, _, err := b.j.model.step(i, cond)
		if err != nil {
			return nil, nil, err
		}
		if d == nil {
			break
		}
		if pin := b.pinned(i); pin != nil {
			cond = append(cond, pin)
			continue
		}
		if k >= len(values) {
			return nil, nil, fmt.Errorf("%w: %d free values for a longer model", ErrStructureMismatch, len(values))
		}
		bij := d.DefaultEventSpaceBijector()
		if bij == nil {
			bij = bijector.Identity{}
		}
		event, err := d.EventShapeTensor()
		if err != nil {
			return nil, nil, err
		}
		rv := values[k]
		if !constrained {
			if rv, err = bij.Forward(rv); err != nil {
				return nil, nil, fmt.Errorf("component %d: %w", i, err)
			}
		}
		cond = append(cond, rv)
		bijs = append(bijs, bij)
		eventNdims = append(eventNdims, len(event))
		k++
	}
	if k != len(values) {
		return nil, nil, fmt.Errorf("%w: %d free values for %d free components", ErrStructureMismatch, len(values), k)
	}
	return bijs, eventNdims, nil
}

func (b *Bijector) apply(op string, values []*tensor.Dense, constrained bool,
	f func(bijector.Bijector, *tensor.Dense) (*tensor.Dense, error),
) ([]*tensor.Dense, []int, error) {
	bijs, eventNdims, err := b.conditioned(values, constrained)
	if err != nil {
		return nil, nil, jointErrorf(op, err, "")
	}
	out := make([]*tensor.Dense, len(values))
	for k, bij := range bijs {
		if out[k], err = f(bij, values[k]); err != nil {
			return nil, nil, jointErrorf(op, err, "free component %d", k)
		}
	}
	return out, eventNdims, nil
}

func forward(b bijector.Bijector, x *tensor.Dense) (*tensor.Dense, error) { return b.Forward(x) }

func inverse(b bijector.Bijector, y *tensor.Dense) (*tensor.Dense, error) { return b.Inverse(y) }

func fldj(b bijector.Bijector, x *tensor.Dense) (*tensor.Dense, error) {
	return b.ForwardLogDetJacobian(x)
}

func ildj(b bijector.Bijector, y *tensor.Dense) (*tensor.Dense, error) {
	return b.InverseLogDetJacobian(y)
}

// ForwardFlat maps unconstrained free values to constrained ones.
func (b *Bijector) ForwardFlat(x []*tensor.Dense) ([]*tensor.Dense, error) {
	out, _, err := b.apply("Bijector.Forward", x, false, forward)
	return out, err
}

// InverseFlat maps constrained free values to unconstrained ones.
func (b *Bijector) InverseFlat(y []*tensor.Dense) ([]*tensor.Dense, error) {
	out, _, err := b.apply("Bijector.Inverse", y, true, inverse)
	return out, err
}

// ForwardLogDetJacobianFlat sums each component's log-det-Jacobian over its
// event dims and adds the components.
func (b *Bijector) ForwardLogDetJacobianFlat(x []*tensor.Dense) (*tensor.Dense, error) {
	return b.logDet("Bijector.ForwardLogDetJacobian", x, false, fldj)
}

// InverseLogDetJacobianFlat is the inverse counterpart of
// ForwardLogDetJacobianFlat.
func (b *Bijector) InverseLogDetJacobianFlat(y []*tensor.Dense) (*tensor.Dense, error) {
	return b.logDet("Bijector.InverseLogDetJacobian", y, true, ildj)
}

func (b *Bijector) logDet(op string, values []*tensor.Dense, constrained bool,
	f func(bijector.Bijector, *tensor.Dense) (*tensor.Dense, error),
) (*tensor.Dense, error) {
	parts, eventNdims, err := b.apply(op, values, constrained, f)
	if err != nil {
		return nil, err
	}
	for k := range parts {
		if parts[k], err = parts[k].SumLast(eventNdims[k]); err != nil {
			return nil, jointErrorf(op, err, "free component %d", k)
		}
	}
	return sumParts(op, parts)
}

// structured adapts a flat transform to the bijector's value structure.
func (b *Bijector) structured(v any, f func([]*tensor.Dense) ([]*tensor.Dense, error)) (any, error) {
	flat, err := b.tensors(v)
	if err != nil {
		return nil, err
	}
	out, err := f(flat)
	if err != nil {
		return nil, err
	}
	anys := make([]any, len(out))
	for i, x := range out {
		anys[i] = x
	}
	return b.unflatten(anys)
}

func (b *Bijector) tensors(v any) ([]*tensor.Dense, error) {
	flat, err := b.flatten(v)
	if err != nil {
		return nil, err
	}
	out := make([]*tensor.Dense, 0, len(flat))
	for i, x := range flat {
		t, err := tensor.From(x)
		if err != nil {
			return nil, jointErrorf("Bijector", ErrInvalidArgument, "part %d: %v", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Forward maps an unconstrained value structure to the support.
func (b *Bijector) Forward(x any) (any, error) { return b.structured(x, b.ForwardFlat) }

// Inverse maps a constrained value structure to unconstrained space.
func (b *Bijector) Inverse(y any) (any, error) { return b.structured(y, b.InverseFlat) }

// ForwardLogDetJacobian is ForwardLogDetJacobianFlat on a value structure.
func (b *Bijector) ForwardLogDetJacobian(x any) (*tensor.Dense, error) {
	flat, err := b.tensors(x)
	if err != nil {
		return nil, err
	}
	return b.ForwardLogDetJacobianFlat(flat)
}

// InverseLogDetJacobian is InverseLogDetJacobianFlat on a value structure.
func (b *Bijector) InverseLogDetJacobian(y any) (*tensor.Dense, error) {
	flat, err := b.tensors(y)
	if err != nil {
		return nil, err
	}
	return b.InverseLogDetJacobianFlat(flat)
}
