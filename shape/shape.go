// SPDX-License-Identifier: MIT

// Package shape holds static, possibly partially-known shapes shared by
// distributions and joint models: batch shape, event shape and sample shape.
//
// A Shape of unknown rank carries no dims; a Shape of known rank may still
// hold UnknownDim entries. Concat, MergeWith and Broadcast compose shapes,
// and sample-shape inference splits a draw into sample+batch+event. All
// operations are pure and O(rank).
package shape

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownDim marks a dimension whose size is not statically known.
const UnknownDim = -1

// Shape is a static shape. The zero value is the scalar shape [].
type Shape struct {
	dims        []int
	unknownRank bool
}

// Known returns a shape of known rank. Negative dims are normalized to UnknownDim.
func Known(dims ...int) Shape {
	out := make([]int, len(dims))
	for i, d := range dims {
		if d < 0 {
			d = UnknownDim
		}
		out[i] = d
	}
	return Shape{dims: out}
}

// Scalar is the rank-0 shape.
func Scalar() Shape { return Shape{dims: []int{}} }

// Unknown returns a shape of unknown rank.
func Unknown() Shape { return Shape{unknownRank: true} }

// OfRank returns a shape of known rank n with every dim unknown.
func OfRank(n int) Shape {
	dims := make([]int, n)
	for i := range dims {
		dims[i] = UnknownDim
	}
	return Shape{dims: dims}
}

// Rank returns the rank and whether it is known.
func (s Shape) Rank() (int, bool) {
	if s.unknownRank {
		return 0, false
	}
	return len(s.dims), true
}

// Dims returns a copy of the dims (nil when the rank is unknown).
func (s Shape) Dims() []int {
	if s.unknownRank {
		return nil
	}
	out := make([]int, len(s.dims))
	copy(out, s.dims)
	return out
}

// Dim returns the i-th dim; negative i counts from the end.
// Returns UnknownDim when the rank is unknown or i is out of range.
func (s Shape) Dim(i int) int {
	if s.unknownRank {
		return UnknownDim
	}
	if i < 0 {
		i += len(s.dims)
	}
	if i < 0 || i >= len(s.dims) {
		return UnknownDim
	}
	return s.dims[i]
}

// IsFullyDefined reports whether the rank and every dim are known.
func (s Shape) IsFullyDefined() bool {
	if s.unknownRank {
		return false
	}
	for _, d := range s.dims {
		if d == UnknownDim {
			return false
		}
	}
	return true
}

// NumElements returns the product of dims when fully defined.
func (s Shape) NumElements() (int, bool) {
	if !s.IsFullyDefined() {
		return 0, false
	}
	n := 1
	for _, d := range s.dims {
		n *= d
	}
	return n, true
}

// Concat returns s followed by o. Unknown rank on either side yields Unknown.
func (s Shape) Concat(o Shape) Shape {
	if s.unknownRank || o.unknownRank {
		return Unknown()
	}
	out := make([]int, 0, len(s.dims)+len(o.dims))
	out = append(out, s.dims...)
	out = append(out, o.dims...)
	return Shape{dims: out}
}

// Slice returns dims[start:end] of a known-rank shape; Unknown otherwise.
func (s Shape) Slice(start, end int) Shape {
	if s.unknownRank {
		return Unknown()
	}
	return Known(s.dims[start:end]...)
}

// MergeWith combines the information in s and o.
// Known dims must agree; an unknown dim takes the other side's value.
//
// Errors: ErrIncompatible when ranks or known dims disagree.
func (s Shape) MergeWith(o Shape) (Shape, error) {
	if s.unknownRank {
		return o, nil
	}
	if o.unknownRank {
		return s, nil
	}
	if len(s.dims) != len(o.dims) {
		return Shape{}, fmt.Errorf("%w: %v vs %v", ErrIncompatible, s, o)
	}
	out := make([]int, len(s.dims))
	for i := range s.dims {
		a, b := s.dims[i], o.dims[i]
		switch {
		case a == UnknownDim:
			out[i] = b
		case b == UnknownDim || a == b:
			out[i] = a
		default:
			return Shape{}, fmt.Errorf("%w: %v vs %v", ErrIncompatible, s, o)
		}
	}
	return Shape{dims: out}, nil
}

// IsCompatibleWith reports whether MergeWith would succeed.
func (s Shape) IsCompatibleWith(o Shape) bool {
	_, err := s.MergeWith(o)
	return err == nil
}

// Equal reports exact equality, including unknown markers.
func (s Shape) Equal(o Shape) bool {
	if s.unknownRank || o.unknownRank {
		return s.unknownRank == o.unknownRank
	}
	if len(s.dims) != len(o.dims) {
		return false
	}
	for i := range s.dims {
		if s.dims[i] != o.dims[i] {
			return false
		}
	}
	return true
}

// String renders the shape as [3,?,5] or <unknown>.
func (s Shape) String() string {
	if s.unknownRank {
		return "<unknown>"
	}
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		if d == UnknownDim {
			parts[i] = "?"
			continue
		}
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
