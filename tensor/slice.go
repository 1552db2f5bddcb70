// SPDX-License-Identifier: MIT
// Package tensor: basic indexing. Integer indices, start:stop:step ranges,
// NewAxis and a single Ellipsis resolve to one (offset, stride, count) triple
// per output axis; the copy then walks the output once with an odometer.

package tensor

import (
	"fmt"
	"math"
)

// Open marks an omitted start or stop in a Range.
const Open = math.MinInt

// SliceItem is one entry of an indexing expression.
type SliceItem interface {
	isSliceItem()
}

// Index selects one position on an axis and drops the axis. Negative counts from the end.
type Index int

// RangeItem is a start:stop:step range. Open start/stop take the
// step-dependent default; Step 0 is invalid.
type RangeItem struct {
	Start, Stop, Step int
}

type newAxisItem struct{}

type ellipsisItem struct{}

func (Index) isSliceItem()        {}
func (RangeItem) isSliceItem()    {}
func (newAxisItem) isSliceItem()  {}
func (ellipsisItem) isSliceItem() {}

var (
	// NewAxis inserts a size-1 axis.
	NewAxis SliceItem = newAxisItem{}
	// Ellipsis expands to as many full ranges as needed to cover the remaining axes.
	Ellipsis SliceItem = ellipsisItem{}
)

// All is the full range ':'.
var All = RangeItem{Start: Open, Stop: Open, Step: 1}

// Range builds start:stop:step. Pass Open for an omitted bound.
func Range(start, stop, step int) RangeItem {
	return RangeItem{Start: start, Stop: stop, Step: step}
}

// IsEllipsis reports whether it is the Ellipsis item.
func IsEllipsis(it SliceItem) bool {
	_, ok := it.(ellipsisItem)
	return ok
}

// IsNewAxis reports whether it is the NewAxis item.
func IsNewAxis(it SliceItem) bool {
	_, ok := it.(newAxisItem)
	return ok
}

// Indices resolves r against an axis of size n, returning the first position,
// the step and the number of selected elements; negative indices count from the end.
func (r RangeItem) Indices(n int) (start, step, count int, err error) {
	step = r.Step
	if step == 0 {
		return 0, 0, 0, fmt.Errorf("%w: zero step", ErrBadSlice)
	}
	clamp := func(v, def int) int {
		if v == Open {
			return def
		}
		if v < 0 {
			v += n
			if v < 0 {
				if step > 0 {
					return 0
				}
				return -1
			}
		}
		if v >= n {
			if step > 0 {
				return n
			}
			return n - 1
		}
		return v
	}
	var stop int
	if step > 0 {
		start, stop = clamp(r.Start, 0), clamp(r.Stop, n)
		if stop > start {
			count = (stop - start + step - 1) / step
		}
	} else {
		start, stop = clamp(r.Start, n-1), clamp(r.Stop, -1)
		if start > stop {
			count = (start - stop - step - 1) / (-step)
		}
	}
	return start, step, count, nil
}

// ExpandEllipsis replaces the Ellipsis in items (or appends one when absent)
// by full ranges so that the result consumes exactly rank axes.
//
// Errors: ErrBadSlice on multiple Ellipsis or too many indexing items.
func ExpandEllipsis(items []SliceItem, rank int) ([]SliceItem, error) {
	consuming := 0
	ell := -1
	for i, it := range items {
		switch {
		case IsEllipsis(it):
			if ell >= 0 {
				return nil, fmt.Errorf("%w: multiple Ellipsis", ErrBadSlice)
			}
			ell = i
		case IsNewAxis(it):
		default:
			consuming++
		}
	}
	if consuming > rank {
		return nil, fmt.Errorf("%w: %d indexing items for rank %d", ErrBadSlice, consuming, rank)
	}
	fill := make([]SliceItem, rank-consuming)
	for i := range fill {
		fill[i] = All
	}
	out := make([]SliceItem, 0, len(items)+len(fill))
	if ell < 0 {
		out = append(out, items...)
		return append(out, fill...), nil
	}
	out = append(out, items[:ell]...)
	out = append(out, fill...)
	return append(out, items[ell+1:]...), nil
}

// Slice applies a NumPy basic-indexing expression.
// Implementation:
//   - Stage 1: expand Ellipsis against the rank.
//   - Stage 2: resolve each item to an output axis (or a fixed offset).
//   - Stage 3: copy the selected elements in row-major output order.
//
// Complexity: O(size(out) * rank).
//
// Errors: ErrBadSlice for malformed expressions, ErrOutOfRange for bad indices.
func (d *Dense) Slice(items ...SliceItem) (*Dense, error) {
	full, err := ExpandEllipsis(items, len(d.shape))
	if err != nil {
		return nil, tensorErrorf("Slice", err)
	}
	src := strides(d.shape)
	base := 0
	var dims, st []int
	ax := 0
	for _, it := range full {
		switch x := it.(type) {
		case newAxisItem:
			dims = append(dims, 1)
			st = append(st, 0)
		case Index:
			n := d.shape[ax]
			i := int(x)
			if i < 0 {
				i += n
			}
			if i < 0 || i >= n {
				return nil, tensorErrorf("Slice", fmt.Errorf("%w: index %d on axis %d of size %d", ErrOutOfRange, int(x), ax, n))
			}
			base += i * src[ax]
			ax++
		case RangeItem:
			start, step, count, err := x.Indices(d.shape[ax])
			if err != nil {
				return nil, tensorErrorf("Slice", err)
			}
			if count > 0 {
				base += start * src[ax]
			}
			dims = append(dims, count)
			st = append(st, step*src[ax])
			ax++
		default:
			return nil, tensorErrorf("Slice", fmt.Errorf("%w: unexpected item %v", ErrBadSlice, it))
		}
	}
	if dims == nil {
		dims = []int{}
	}
	n := mustNumElements(dims)
	buf := make([]float64, n)
	idx := make([]int, len(dims))
	off := base
	for i := 0; i < n; i++ {
		buf[i] = d.data[off]
		for a := len(dims) - 1; a >= 0; a-- {
			idx[a]++
			off += st[a]
			if idx[a] < dims[a] {
				break
			}
			off -= st[a] * idx[a]
			idx[a] = 0
		}
	}
	return wrap(dims, buf), nil
}
