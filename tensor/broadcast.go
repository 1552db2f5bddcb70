// SPDX-License-Identifier: MIT
// Package tensor: broadcasting for any number of operands. Each operand gets
// a stride vector aligned to the output shape, zero on broadcast dims.
// Same-shape inputs take a flat fast path.

package tensor

import "fmt"

// BroadcastShapes returns the NumPy broadcast of the given shapes.
//
// Errors: ErrDimensionMismatch when two dims differ and neither is 1.
func BroadcastShapes(shapes ...[]int) ([]int, error) {
	rank := 0
	for _, s := range shapes {
		if len(s) > rank {
			rank = len(s)
		}
	}
	out := make([]int, rank)
	for i := range out {
		out[i] = 1
	}
	for _, s := range shapes {
		off := rank - len(s)
		for i, d := range s {
			o := out[off+i]
			switch {
			case o == d || d == 1:
			case o == 1:
				out[off+i] = d
			default:
				return nil, fmt.Errorf("%w: cannot broadcast %v", ErrDimensionMismatch, shapes)
			}
		}
	}
	return out, nil
}

// broadcastStrides returns strides of src aligned to out, with 0 on broadcast dims.
func broadcastStrides(src, out []int) []int {
	st := strides(src)
	res := make([]int, len(out))
	off := len(out) - len(src)
	for i := range src {
		if src[i] != 1 || out[off+i] == 1 {
			res[off+i] = st[i]
		}
	}
	return res
}

// Apply evaluates f elementwise over the broadcast of ts.
// The slice passed to f is reused between calls; f must not retain it.
// Implementation:
//   - Stage 1 (Validate): broadcast all operand shapes.
//   - Stage 2 (Fast path): identical shapes walk the flat buffers directly.
//   - Stage 3 (General): odometer over the output with per-operand strides.
//
// Complexity: O(size(out) * len(ts)).
//
// Errors: ErrDimensionMismatch when shapes do not broadcast.
func Apply(f func(xs []float64) float64, ts ...*Dense) (*Dense, error) {
	shapes := make([][]int, len(ts))
	for i, t := range ts {
		shapes[i] = t.shape
	}
	out, err := BroadcastShapes(shapes...)
	if err != nil {
		return nil, tensorErrorf("Apply", err)
	}
	n, _ := numElements(out)
	buf := make([]float64, n)
	xs := make([]float64, len(ts))

	same := true
	for _, t := range ts {
		if len(t.data) != n || len(t.shape) != len(out) {
			same = false
			break
		}
	}
	if same {
		for i := 0; i < n; i++ {
			for k, t := range ts {
				xs[k] = t.data[i]
			}
			buf[i] = f(xs)
		}
		return wrap(out, buf), nil
	}

	st := make([][]int, len(ts))
	for k, t := range ts {
		st[k] = broadcastStrides(t.shape, out)
	}
	idx := make([]int, len(out))
	offs := make([]int, len(ts))
	for i := 0; i < n; i++ {
		for k, t := range ts {
			xs[k] = t.data[offs[k]]
		}
		buf[i] = f(xs)
		// advance odometer
		for ax := len(out) - 1; ax >= 0; ax-- {
			idx[ax]++
			for k := range ts {
				offs[k] += st[k][ax]
			}
			if idx[ax] < out[ax] {
				break
			}
			for k := range ts {
				offs[k] -= st[k][ax] * idx[ax]
			}
			idx[ax] = 0
		}
	}
	return wrap(out, buf), nil
}

// BroadcastTo materializes d with the given shape.
//
// Errors: ErrDimensionMismatch when d does not broadcast to dims exactly.
func (d *Dense) BroadcastTo(dims ...int) (*Dense, error) {
	out, err := BroadcastShapes(d.shape, dims)
	if err != nil || !equalInts(out, dims) {
		return nil, tensorErrorf("BroadcastTo", fmt.Errorf("%w: %v to %v", ErrDimensionMismatch, d.shape, dims))
	}
	z := wrap(cloneInts(dims), make([]float64, mustNumElements(dims)))
	return Apply(func(xs []float64) float64 { return xs[0] }, d, z)
}

func mustNumElements(dims []int) int {
	n, _ := numElements(dims)
	return n
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
