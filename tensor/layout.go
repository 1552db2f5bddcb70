// SPDX-License-Identifier: MIT

package tensor

import "fmt"

// Reshape returns a tensor with the same elements and a new shape.
// At most one dim may be -1; it is inferred from the element count.
// Complexity: O(size) (data is copied).
func (d *Dense) Reshape(dims ...int) (*Dense, error) {
	out := cloneInts(dims)
	infer := -1
	known := 1
	for i, x := range out {
		switch {
		case x == -1 && infer < 0:
			infer = i
		case x < 0:
			return nil, tensorErrorf("Reshape", fmt.Errorf("%w: %v", ErrBadShape, dims))
		default:
			known *= x
		}
	}
	if infer >= 0 {
		if known == 0 || len(d.data)%known != 0 {
			return nil, tensorErrorf("Reshape", fmt.Errorf("%w: cannot infer -1 in %v from %d elements", ErrBadShape, dims, len(d.data)))
		}
		out[infer] = len(d.data) / known
		known = len(d.data)
	}
	if known != len(d.data) {
		return nil, tensorErrorf("Reshape", fmt.Errorf("%w: %v to %v", ErrBadShape, d.shape, dims))
	}
	return wrap(out, d.Data()), nil
}

// ExpandDims inserts a size-1 axis at position axis (negative counts from the end, -1 appends).
func (d *Dense) ExpandDims(axis int) (*Dense, error) {
	r := len(d.shape)
	if axis < 0 {
		axis += r + 1
	}
	if axis < 0 || axis > r {
		return nil, tensorErrorf("ExpandDims", fmt.Errorf("%w: axis %d for rank %d", ErrOutOfRange, axis, r))
	}
	dims := make([]int, 0, r+1)
	dims = append(dims, d.shape[:axis]...)
	dims = append(dims, 1)
	dims = append(dims, d.shape[axis:]...)
	return wrap(dims, d.Data()), nil
}

// Transpose permutes the axes: out.shape[i] = d.shape[perm[i]].
// Complexity: O(size * rank).
func (d *Dense) Transpose(perm ...int) (*Dense, error) {
	r := len(d.shape)
	if len(perm) != r {
		return nil, tensorErrorf("Transpose", fmt.Errorf("%w: perm %v for rank %d", ErrOutOfRange, perm, r))
	}
	seen := make([]bool, r)
	for _, p := range perm {
		if p < 0 || p >= r || seen[p] {
			return nil, tensorErrorf("Transpose", fmt.Errorf("%w: invalid perm %v", ErrOutOfRange, perm))
		}
		seen[p] = true
	}
	src := strides(d.shape)
	dims := make([]int, r)
	st := make([]int, r)
	for i, p := range perm {
		dims[i] = d.shape[p]
		st[i] = src[p]
	}
	buf := make([]float64, len(d.data))
	idx := make([]int, r)
	off := 0
	for i := range buf {
		buf[i] = d.data[off]
		for ax := r - 1; ax >= 0; ax-- {
			idx[ax]++
			off += st[ax]
			if idx[ax] < dims[ax] {
				break
			}
			off -= st[ax] * idx[ax]
			idx[ax] = 0
		}
	}
	return wrap(dims, buf), nil
}

// Stack joins same-shape tensors along a new leading axis.
func Stack(ts ...*Dense) (*Dense, error) {
	if len(ts) == 0 {
		return nil, tensorErrorf("Stack", fmt.Errorf("%w: nothing to stack", ErrBadShape))
	}
	inner := ts[0].shape
	buf := make([]float64, 0, len(ts)*len(ts[0].data))
	for _, t := range ts {
		if !equalInts(t.shape, inner) {
			return nil, tensorErrorf("Stack", fmt.Errorf("%w: %v vs %v", ErrDimensionMismatch, t.shape, inner))
		}
		buf = append(buf, t.data...)
	}
	dims := append([]int{len(ts)}, inner...)
	return wrap(dims, buf), nil
}

// Sum returns the sum of every element.
func (d *Dense) Sum() float64 {
	s := 0.0
	for _, v := range d.data {
		s += v
	}
	return s
}

// SumAxes reduces the given axes by summation (negative axes count from the end).
// Duplicate axes are rejected.
// Complexity: O(size * rank).
func (d *Dense) SumAxes(axes ...int) (*Dense, error) {
	r := len(d.shape)
	drop := make([]bool, r)
	for _, ax := range axes {
		a := ax
		if a < 0 {
			a += r
		}
		if a < 0 || a >= r || drop[a] {
			return nil, tensorErrorf("SumAxes", fmt.Errorf("%w: axis %d for rank %d", ErrOutOfRange, ax, r))
		}
		drop[a] = true
	}
	keep := make([]int, 0, r)
	for i := 0; i < r; i++ {
		if !drop[i] {
			keep = append(keep, d.shape[i])
		}
	}
	outSt := strides(keep)
	buf := make([]float64, mustNumElements(keep))
	idx := make([]int, r)
	for i := range d.data {
		off := 0
		k := 0
		for ax := 0; ax < r; ax++ {
			if !drop[ax] {
				off += idx[ax] * outSt[k]
				k++
			}
		}
		buf[off] += d.data[i]
		for ax := r - 1; ax >= 0; ax-- {
			idx[ax]++
			if idx[ax] < d.shape[ax] {
				break
			}
			idx[ax] = 0
		}
	}
	return wrap(keep, buf), nil
}

// SumLast reduces the trailing n axes. n == 0 returns d unchanged.
func (d *Dense) SumLast(n int) (*Dense, error) {
	if n == 0 {
		return d, nil
	}
	if n < 0 || n > len(d.shape) {
		return nil, tensorErrorf("SumLast", fmt.Errorf("%w: %d axes for rank %d", ErrOutOfRange, n, len(d.shape)))
	}
	axes := make([]int, n)
	for i := range axes {
		axes[i] = len(d.shape) - n + i
	}
	return d.SumAxes(axes...)
}

// SumFirst reduces the leading n axes. n == 0 returns d unchanged.
func (d *Dense) SumFirst(n int) (*Dense, error) {
	if n == 0 {
		return d, nil
	}
	if n < 0 || n > len(d.shape) {
		return nil, tensorErrorf("SumFirst", fmt.Errorf("%w: %d axes for rank %d", ErrOutOfRange, n, len(d.shape)))
	}
	axes := make([]int, n)
	for i := range axes {
		axes[i] = i
	}
	return d.SumAxes(axes...)
}

// Concat joins tensors along axis 0; trailing dims must agree.
func Concat(ts ...*Dense) (*Dense, error) {
	if len(ts) == 0 {
		return nil, tensorErrorf("Concat", fmt.Errorf("%w: nothing to concat", ErrBadShape))
	}
	for _, t := range ts {
		if len(t.shape) == 0 {
			return nil, tensorErrorf("Concat", fmt.Errorf("%w: rank-0 operand", ErrBadShape))
		}
	}
	inner := ts[0].shape[1:]
	lead := 0
	buf := make([]float64, 0)
	for _, t := range ts {
		if !equalInts(t.shape[1:], inner) {
			return nil, tensorErrorf("Concat", fmt.Errorf("%w: %v vs %v", ErrDimensionMismatch, t.shape, ts[0].shape))
		}
		lead += t.shape[0]
		buf = append(buf, t.data...)
	}
	return wrap(append([]int{lead}, inner...), buf), nil
}

