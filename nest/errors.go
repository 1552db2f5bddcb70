// SPDX-License-Identifier: MIT
// Package nest: sentinel error set.

package nest

import (
	"errors"
	"fmt"
)

var (
	// ErrStructureMismatch indicates two values whose nesting differs: kind,
	// length, or mapping keys.
	ErrStructureMismatch = errors.New("nest: structure mismatch")

	// ErrCount indicates a flat sequence whose length does not match the
	// number of leaves in the target structure.
	ErrCount = errors.New("nest: wrong number of leaves")

	// ErrDuplicateKey indicates a repeated key or field name.
	ErrDuplicateKey = errors.New("nest: duplicate key")
)

// nestErrorf wraps err with the operation name and optional detail.
func nestErrorf(op string, err error, detail string, args ...any) error {
	if detail == "" {
		return fmt.Errorf("nest.%s: %w", op, err)
	}
	return fmt.Errorf("nest.%s: %w: %s", op, err, fmt.Sprintf(detail, args...))
}
