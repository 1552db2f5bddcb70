// SPDX-License-Identifier: MIT

// Package tensor provides the numeric backend used by distributions: Dense is
// an n-dimensional, row-major array of float64 values stored in one flat slice.
//
// Purpose:
//   - Elementwise math with NumPy broadcasting, reductions over axes,
//     reshape/transpose, and NumPy-style basic indexing (see slice.go).
//
// Design:
//   - Dense values are treated as immutable by every function in this module:
//     operations allocate a new Dense instead of writing into an input.
//   - A rank-0 Dense (shape []) holds exactly one element.
//
// Determinism & Performance:
//   - Fixed row-major loop order; O(size) time and space per elementwise op.
package tensor

import (
	"fmt"
	"strings"

	"github.com/jeffpollock9/probability/shape"
)

// Dense is a row-major n-d array of float64 values.
type Dense struct {
	shape []int     // dims, all >= 0
	data  []float64 // flat backing storage, len == prod(shape)
}

// New creates a Dense of the given shape backed by a copy of data.
// Stage 1 (Validate): dims >= 0 and len(data) == prod(shape).
// Stage 2 (Prepare): copy shape and data so the caller may reuse its buffers.
// Complexity: O(size).
func New(dims []int, data []float64) (*Dense, error) {
	n, err := numElements(dims)
	if err != nil {
		return nil, tensorErrorf("New", err)
	}
	if len(data) != n {
		return nil, tensorErrorf("New", fmt.Errorf("%w: %d values for shape %v", ErrBadShape, len(data), dims))
	}
	buf := make([]float64, n)
	copy(buf, data)
	return &Dense{shape: cloneInts(dims), data: buf}, nil
}

// Zeros returns a zero-filled Dense of the given shape.
func Zeros(dims ...int) (*Dense, error) {
	return Full(0, dims...)
}

// Full returns a Dense of the given shape filled with v.
func Full(v float64, dims ...int) (*Dense, error) {
	n, err := numElements(dims)
	if err != nil {
		return nil, tensorErrorf("Full", err)
	}
	buf := make([]float64, n)
	if v != 0 {
		for i := range buf {
			buf[i] = v
		}
	}
	return &Dense{shape: cloneInts(dims), data: buf}, nil
}

// Scalar returns a rank-0 Dense holding v.
func Scalar(v float64) *Dense {
	return &Dense{shape: []int{}, data: []float64{v}}
}

// Vector returns a rank-1 Dense holding a copy of v.
func Vector(v ...float64) *Dense {
	buf := make([]float64, len(v))
	copy(buf, v)
	return &Dense{shape: []int{len(v)}, data: buf}
}

// wrap builds a Dense that owns dims and data (no copies, no validation).
func wrap(dims []int, data []float64) *Dense {
	return &Dense{shape: dims, data: data}
}

// From converts a Go value into a Dense.
// Supported: *Dense (returned as is), float64, float32, int, int64,
// []float64, [][]float64 (rectangular).
//
// Errors: ErrUnsupportedValue for other types, ErrBadShape for ragged input.
func From(v any) (*Dense, error) {
	switch x := v.(type) {
	case *Dense:
		if x == nil {
			return nil, tensorErrorf("From", fmt.Errorf("%w: nil *Dense", ErrUnsupportedValue))
		}
		return x, nil
	case float64:
		return Scalar(x), nil
	case float32:
		return Scalar(float64(x)), nil
	case int:
		return Scalar(float64(x)), nil
	case int64:
		return Scalar(float64(x)), nil
	case []float64:
		return Vector(x...), nil
	case [][]float64:
		if len(x) == 0 {
			return wrap([]int{0, 0}, []float64{}), nil
		}
		cols := len(x[0])
		buf := make([]float64, 0, len(x)*cols)
		for _, row := range x {
			if len(row) != cols {
				return nil, tensorErrorf("From", fmt.Errorf("%w: ragged rows", ErrBadShape))
			}
			buf = append(buf, row...)
		}
		return wrap([]int{len(x), cols}, buf), nil
	default:
		return nil, tensorErrorf("From", fmt.Errorf("%w: %T", ErrUnsupportedValue, v))
	}
}

// MustFrom is From that panics on error. Intended for literals in tests and examples.
func MustFrom(v any) *Dense {
	d, err := From(v)
	if err != nil {
		panic(err)
	}
	return d
}

// Shape returns a copy of the dims.
func (d *Dense) Shape() []int { return cloneInts(d.shape) }

// StaticShape returns the (always fully known) shape as a shape.Shape.
func (d *Dense) StaticShape() shape.Shape { return shape.Known(d.shape...) }

// Rank returns the number of dims.
func (d *Dense) Rank() int { return len(d.shape) }

// Size returns the number of elements.
func (d *Dense) Size() int { return len(d.data) }

// Data returns a copy of the flat row-major values.
func (d *Dense) Data() []float64 {
	out := make([]float64, len(d.data))
	copy(out, d.data)
	return out
}

// At returns the element at the given multi-index. Negative indices count from the end.
// Complexity: O(rank).
func (d *Dense) At(idx ...int) (float64, error) {
	if len(idx) != len(d.shape) {
		return 0, tensorErrorf("At", fmt.Errorf("%w: %d indices for rank %d", ErrOutOfRange, len(idx), len(d.shape)))
	}
	off := 0
	for i, ix := range idx {
		n := d.shape[i]
		if ix < 0 {
			ix += n
		}
		if ix < 0 || ix >= n {
			return 0, tensorErrorf("At", fmt.Errorf("%w: index %d on axis %d of size %d", ErrOutOfRange, idx[i], i, n))
		}
		off = off*n + ix
	}
	return d.data[off], nil
}

// Item returns the single element of a size-1 tensor.
func (d *Dense) Item() (float64, error) {
	if len(d.data) != 1 {
		return 0, tensorErrorf("Item", fmt.Errorf("%w: shape %v", ErrNotScalar, d.shape))
	}
	return d.data[0], nil
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	return wrap(cloneInts(d.shape), d.Data())
}

// String renders the shape and up to 16 leading values.
func (d *Dense) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dense%v[", d.shape)
	for i, v := range d.data {
		if i == 16 {
			b.WriteString(" ...")
			break
		}
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteString("]")
	return b.String()
}

// numElements validates dims and returns their product.
func numElements(dims []int) (int, error) {
	n := 1
	for _, x := range dims {
		if x < 0 {
			return 0, fmt.Errorf("%w: negative dim in %v", ErrBadShape, dims)
		}
		n *= x
	}
	return n, nil
}

// strides returns row-major strides for dims.
func strides(dims []int) []int {
	st := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= dims[i]
	}
	return st
}

func cloneInts(a []int) []int {
	out := make([]int, len(a))
	copy(out, a)
	return out
}
