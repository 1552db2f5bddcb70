// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"maps"
	"slices"

	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/tensor"
)

// SliceStep is one recorded batch-slice (or copy) applied to an origin.
type SliceStep struct {
	Items     []tensor.SliceItem
	Overrides map[string]any
}

// Provenance returns the instance this one was sliced or copied from and
// the steps replayed on it; (nil, nil) for a directly constructed instance.
func (b *Base) Provenance() (Distribution, []SliceStep) {
	return b.origin, slices.Clone(b.steps)
}

// Slice indexes the batch dims, e.g. d[:, None, ..., -2:, 1::2] is
// d.Slice(tensor.All, tensor.NewAxis, tensor.Ellipsis, tensor.Range(-2,
// tensor.Open, 1), tensor.Range(1, tensor.Open, 2)). Event dims are never
// touched.
//
// Errors: ErrNotImplemented when the kind declares no parameter properties
// or a tensor parameter has no declared event ndims.
func (b *Base) Slice(items ...tensor.SliceItem) (Distribution, error) {
	return b.batchSlice(items, nil)
}

// Copy returns a new instance from Parameters merged with overrides. Kinds
// with parameter properties copy through batch slicing with [...] so the
// copy records provenance; others are rebuilt by Kind.New.
//
// Errors: ErrInvalidArgument for an override naming no parameter.
func (b *Base) Copy(overrides map[string]any) (Distribution, error) {
	if b.kind.ParameterProperties() != nil {
		return b.batchSlice([]tensor.SliceItem{tensor.Ellipsis}, overrides)
	}
	params, err := mergeOverrides(b.Parameters(), overrides)
	if err != nil {
		return nil, b.errorf("Copy", err, "")
	}
	return b.kind.New(params)
}

// batchSlice records the step and replays the whole sequence from the
// origin, so slices of slices stay traceable to the first instance.
func (b *Base) batchSlice(items []tensor.SliceItem, overrides map[string]any) (Distribution, error) {
	const op = "Slice"
	if b.kind.ParameterProperties() == nil {
		return nil, b.errorf(op, ErrNotImplemented, "no parameter properties for %s", b.kind.Name())
	}
	origin := b.origin
	if origin == nil {
		origin = b.self
	}
	steps := append(slices.Clone(b.steps), SliceStep{Items: slices.Clone(items), Overrides: overrides})
	d := origin
	for _, st := range steps {
		next, err := applySliceStep(d, st)
		if err != nil {
			return nil, b.errorf(op, err, "")
		}
		d = next
	}
	nb := d.base()
	nb.origin = origin
	nb.steps = steps
	return d, nil
}

// applySliceStep slices every tensor parameter of d, merges overrides and
// rebuilds. A lone Ellipsis (the Copy path) leaves parameters untouched.
func applySliceStep(d Distribution, st SliceStep) (Distribution, error) {
	params := d.Parameters()
	if !(len(st.Items) == 1 && tensor.IsEllipsis(st.Items[0])) {
		sliced, err := sliceParameters(d, st.Items)
		if err != nil {
			return nil, err
		}
		params = sliced
	}
	merged, err := mergeOverrides(params, st.Overrides)
	if err != nil {
		return nil, err
	}
	return d.Kind().New(merged)
}

func sliceParameters(d Distribution, items []tensor.SliceItem) (*nest.OrderedMap, error) {
	props := d.Kind().ParameterProperties()
	batch, err := d.BatchShapeTensor()
	if err != nil {
		return nil, err
	}
	out := nest.NewOrderedMap()
	params := d.Parameters()
	for _, k := range params.Keys() {
		v, _ := params.Get(k)
		if inner, ok := v.(Distribution); ok {
			p, declared := props[k]
			if !declared {
				out.Set(k, v)
				continue
			}
			s, err := sliceComponent(inner, p.EventNdims, items)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", k, err)
			}
			out.Set(k, s)
			continue
		}
		t, isTensor := v.(*tensor.Dense)
		if !isTensor || t == nil {
			out.Set(k, v)
			continue
		}
		p, ok := props[k]
		if !ok {
			return nil, fmt.Errorf("%w: event ndims of parameter %q undeclared", ErrNotImplemented, k)
		}
		s, err := sliceParameter(t, p.EventNdims, items, batch)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		out.Set(k, s)
	}
	return out, nil
}

// sliceComponent slices a distribution-valued parameter whose batch is the
// outer batch followed by eventNdims further dims. Items after an Ellipsis
// address the outer batch, so the extra dims are kept whole.
func sliceComponent(inner Distribution, eventNdims int, items []tensor.SliceItem) (Distribution, error) {
	if eventNdims > 0 && slices.ContainsFunc(items, tensor.IsEllipsis) {
		items = slices.Clone(items)
		for range eventNdims {
			items = append(items, tensor.All)
		}
	}
	return inner.Slice(items...)
}

// sliceParameter slices one parameter along its batch dims.
// Implementation:
//   - Stage 1: left-pad the parameter with 1s to rank batch+eventNdims.
//   - Stage 2: map each item onto the padded dims. Where the parameter is
//     broadcast (size 1 against a larger batch dim) an Index becomes 0 and a
//     Range collapses to 0:1:1 so the broadcast survives. After Ellipsis the
//     walk switches to negative positions, offset by eventNdims.
//   - Stage 3: append a full range per event dim and slice.
func sliceParameter(param *tensor.Dense, eventNdims int, items []tensor.SliceItem, batch []int) (*tensor.Dense, error) {
	pshape := param.Shape()
	pad := len(batch) + eventNdims - len(pshape)
	if pad < 0 {
		return nil, fmt.Errorf("%w: rank %d exceeds batch rank %d + event ndims %d",
			ErrInvalidArgument, len(pshape), len(batch), eventNdims)
	}
	padded := append(slices.Repeat([]int{1}, pad), pshape...)
	full, err := param.Reshape(padded...)
	if err != nil {
		return nil, err
	}

	at := func(dims []int, i int) (int, bool) {
		if i < 0 {
			i += len(dims)
		}
		if i < 0 || i >= len(dims) {
			return 0, false
		}
		return dims[i], true
	}

	out := make([]tensor.SliceItem, 0, len(items)+eventNdims)
	paramIdx, batchIdx := 0, 0
	seenEllipsis := false
	for i, it := range items {
		switch {
		case tensor.IsNewAxis(it):
			out = append(out, it)
			continue
		case tensor.IsEllipsis(it):
			if seenEllipsis {
				return nil, fmt.Errorf("%w: multiple Ellipsis in %v", tensor.ErrBadSlice, items)
			}
			seenEllipsis = true
			out = append(out, it)
			remaining := 0
			for _, r := range items[i+1:] {
				if !tensor.IsNewAxis(r) {
					remaining++
				}
			}
			batchIdx = -remaining
			paramIdx = batchIdx - eventNdims
			continue
		}
		pdim, ok1 := at(padded, paramIdx)
		bdim, ok2 := at(batch, batchIdx)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: too many indices %v for batch shape %v", tensor.ErrBadSlice, items, batch)
		}
		broadcast := bdim > pdim
		switch x := it.(type) {
		case tensor.RangeItem:
			if broadcast {
				if x.Start != tensor.Open {
					x.Start = 0
				}
				if x.Stop != tensor.Open {
					x.Stop = 1
				}
				x.Step = 1
			}
			out = append(out, x)
		case tensor.Index:
			if broadcast {
				x = 0
			}
			out = append(out, x)
		default:
			return nil, fmt.Errorf("%w: unexpected item %v", tensor.ErrBadSlice, it)
		}
		paramIdx++
		batchIdx++
	}
	for range eventNdims {
		out = append(out, tensor.All)
	}
	return full.Slice(out...)
}

func mergeOverrides(params *nest.OrderedMap, overrides map[string]any) (*nest.OrderedMap, error) {
	out := nest.NewOrderedMap()
	for _, k := range params.Keys() {
		v, _ := params.Get(k)
		out.Set(k, v)
	}
	for _, k := range slices.Sorted(maps.Keys(overrides)) {
		if _, ok := out.Get(k); !ok {
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrInvalidArgument, k)
		}
		out.Set(k, overrides[k])
	}
	return out, nil
}
