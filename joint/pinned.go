// SPDX-License-Identifier: MIT

package joint

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

// Pinned is a joint model conditioned on observed values of some
// components. Its density over the free components is unnormalized.
type Pinned struct {
	j     *Joint
	names []string
	pins  []*tensor.Dense
	free  []int
}

// Pin conditions j on component values. Arguments follow the package
// calling convention but may cover a subset of the components; nil values
// and omitted components stay random.
//
// Errors: as ResolveValue, except that fewer values than components is
// allowed.
func (j *Joint) Pin(args ...any) (*Pinned, error) {
	const op = "Pin"
	pos, kws, err := splitArgs(op, args)
	if err != nil {
		return nil, err
	}
	names, err := j.ResolveNames()
	if err != nil {
		return nil, err
	}
	dtype, err := j.DType()
	if err != nil {
		return nil, err
	}
	flatten := func(v any) ([]any, error) { return j.model.flatten(v, len(names)) }
	value, unmatched, err := resolve(pos, kws, dtype, names, flatten, j.model.unflatten, true)
	if err != nil {
		return nil, err
	}
	if err := checkUnmatched(op, unmatched, names); err != nil {
		return nil, err
	}
	flat, err := j.model.flatten(value, len(names))
	if err != nil {
		return nil, jointErrorf(op, err, "")
	}
	p := &Pinned{j: j, names: names, pins: make([]*tensor.Dense, len(names))}
	for i, v := range flat {
		if v == nil {
			p.free = append(p.free, i)
			continue
		}
		if p.pins[i], err = tensor.From(v); err != nil {
			return nil, jointErrorf(op, ErrInvalidArgument, "component %q: %v", names[i], err)
		}
	}
	return p, nil
}

// Joint returns the unconditioned model.
func (p *Pinned) Joint() *Joint { return p.j }

// FreeNames returns the unpinned component names in flat order.
func (p *Pinned) FreeNames() []string {
	out := make([]string, len(p.free))
	for k, i := range p.free {
		out[k] = p.names[i]
	}
	return out
}

// Pins returns the pinned values by component name, in flat order.
func (p *Pinned) Pins() *nest.OrderedMap {
	out := nest.NewOrderedMap()
	for i, x := range p.pins {
		if x != nil {
			out.Set(p.names[i], x)
		}
	}
	return out
}

// full merges free values into the pinned ones.
func (p *Pinned) full(free []*tensor.Dense) ([]any, error) {
	if len(free) != len(p.free) {
		return nil, fmt.Errorf("%w: %d free values for components %v", ErrStructureMismatch, len(free), p.FreeNames())
	}
	out := make([]any, len(p.pins))
	for i, x := range p.pins {
		if x != nil {
			out[i] = x
		}
	}
	for k, i := range p.free {
		out[i] = free[k]
	}
	return out, nil
}

// flattenFree reads the free components from a mapping by name.
func (p *Pinned) flattenFree(v any) ([]any, error) {
	names := p.FreeNames()
	var get func(string) (any, bool)
	var keys []string
	switch m := v.(type) {
	case *nest.OrderedMap:
		get, keys = m.Get, m.Keys()
	case map[string]any:
		get = func(k string) (any, bool) {
			x, ok := m[k]
			return x, ok
		}
		keys = slices.Collect(maps.Keys(m))
	default:
		return nil, fmt.Errorf("%w: want a mapping of free components %v, got %T", ErrStructureMismatch, names, v)
	}
	for _, k := range keys {
		if !slices.Contains(names, k) {
			return nil, fmt.Errorf("%w: %q is not a free component (free %v)", ErrStructureMismatch, k, names)
		}
	}
	out := make([]any, len(names))
	for i, k := range names {
		out[i], _ = get(k)
	}
	return out, nil
}

func (p *Pinned) unflattenFree(flat []any) (any, error) {
	names := p.FreeNames()
	if len(flat) != len(names) {
		return nil, fmt.Errorf("%w: want %d free components, got %d", ErrStructureMismatch, len(names), len(flat))
	}
	out := nest.NewOrderedMap()
	for i, k := range names {
		out.Set(k, flat[i])
	}
	return out, nil
}

// UnnormalizedLogProb is the joint log density with the pinned values
// substituted. Arguments name the free components only, by the package
// calling convention over an ordered mapping of free names.
func (p *Pinned) UnnormalizedLogProb(args ...any) (*tensor.Dense, error) {
	const op = "UnnormalizedLogProb"
	pos, kws, err := splitArgs(op, args)
	if err != nil {
		return nil, err
	}
	names := p.FreeNames()
	dtype := nest.NewOrderedMap()
	for _, k := range names {
		dtype.Set(k, distribution.Float64)
	}
	value, unmatched, err := ResolveValue(pos, kws, dtype, names, p.flattenFree, p.unflattenFree)
	if err != nil {
		return nil, err
	}
	if err := checkUnmatched(op, unmatched, names); err != nil {
		return nil, err
	}
	flat, err := p.flattenFree(value)
	if err != nil {
		return nil, jointErrorf(op, err, "")
	}
	free := make([]*tensor.Dense, len(flat))
	for i, v := range flat {
		if v == nil {
			return nil, jointErrorf(op, ErrInvalidArgument, "no value part can be nil; %q missing", names[i])
		}
		if free[i], err = tensor.From(v); err != nil {
			return nil, jointErrorf(op, ErrInvalidArgument, "component %q: %v", names[i], err)
		}
	}
	return p.UnnormalizedLogProbFlat(free)
}

// UnnormalizedLogProbFlat is UnnormalizedLogProb over the free values in
// FreeNames order.
func (p *Pinned) UnnormalizedLogProbFlat(free []*tensor.Dense) (*tensor.Dense, error) {
	const op = "UnnormalizedLogProb"
	full, err := p.full(free)
	if err != nil {
		return nil, jointErrorf(op, err, "")
	}
	value, err := p.j.model.unflatten(full)
	if err != nil {
		return nil, jointErrorf(op, err, "")
	}
	return p.j.logProbValue(op, value)
}

// Sample draws the free components conditioned on the pins, keyed by name.
func (p *Pinned) Sample(sampleShape []int, seed samplers.Seed) (*nest.OrderedMap, error) {
	free, err := p.SampleFlat(sampleShape, seed)
	if err != nil {
		return nil, err
	}
	out := nest.NewOrderedMap()
	for k, name := range p.FreeNames() {
		out.Set(name, free[k])
	}
	return out, nil
}

// SampleFlat is Sample returning the free values in FreeNames order.
func (p *Pinned) SampleFlat(sampleShape []int, seed samplers.Seed) ([]*tensor.Dense, error) {
	value := make([]any, len(p.pins))
	for i, x := range p.pins {
		if x != nil {
			value[i] = x
		}
	}
	_, xs, err := p.j.flatSampleDistributions(sampleShape, seed, value)
	if err != nil {
		return nil, jointErrorf("Sample", err, "")
	}
	out := make([]*tensor.Dense, len(p.free))
	for k, i := range p.free {
		out[k] = xs[i]
	}
	return out, nil
}

// DefaultEventSpaceBijector maps unconstrained free values onto the
// support of the free components, keyed by free name.
func (p *Pinned) DefaultEventSpaceBijector() *Bijector {
	return &Bijector{j: p.j, pins: p.pins, flatten: p.flattenFree, unflatten: p.unflattenFree}
}
