// SPDX-License-Identifier: MIT
// Package tensor: sentinel error set.
// All public functions return these sentinels (optionally wrapped with an
// op prefix via tensorErrorf); callers match them with errors.Is.

package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrBadShape is returned when a shape has negative dims or does not
	// match the number of supplied elements.
	ErrBadShape = errors.New("tensor: invalid shape")

	// ErrDimensionMismatch indicates operands whose shapes cannot broadcast.
	ErrDimensionMismatch = errors.New("tensor: dimension mismatch")

	// ErrOutOfRange indicates an index or axis outside the valid bounds.
	ErrOutOfRange = errors.New("tensor: index out of range")

	// ErrBadSlice indicates a malformed slice spec (e.g. two Ellipsis, zero step).
	ErrBadSlice = errors.New("tensor: invalid slice")

	// ErrUnsupportedValue indicates a Go value that cannot be converted to a Dense.
	ErrUnsupportedValue = errors.New("tensor: unsupported value")

	// ErrNotScalar is returned by Item on a tensor holding more than one element.
	ErrNotScalar = errors.New("tensor: not a single-element tensor")
)

// tensorErrorf wraps err with the operation name.
func tensorErrorf(op string, err error) error {
	return fmt.Errorf("tensor.%s: %w", op, err)
}
