// SPDX-License-Identifier: MIT
// Package joint: sentinel error set.
//
// Joint models report the distribution error categories; the sentinels are
// shared so errors.Is works across both packages.

package joint

import (
	"errors"
	"fmt"

	"github.com/jeffpollock9/probability/distribution"
)

var (
	// ErrInvalidArgument indicates malformed call arguments: a count
	// mismatch, a forbidden or duplicated component name, an unmatched
	// keyword.
	ErrInvalidArgument = distribution.ErrInvalidArgument

	// ErrStructureMismatch indicates a value whose nesting differs from the
	// model's.
	ErrStructureMismatch = distribution.ErrStructureMismatch

	// ErrBroadcast indicates component log densities of different shapes
	// under validate_args.
	ErrBroadcast = distribution.ErrBroadcast

	// ErrNotImplemented indicates a measure a component cannot compute.
	ErrNotImplemented = distribution.ErrNotImplemented

	// ErrCacheConflict indicates two writers of one context's component
	// distributions that disagree.
	ErrCacheConflict = errors.New("joint: conflicting cached distributions")

	// ErrModel indicates an invalid model specification: an unknown or
	// cyclic dependency, a bad component type.
	ErrModel = errors.New("joint: invalid model")
)

// jointErrorf wraps err with the operation name and optional detail.
func jointErrorf(op string, err error, detail string, args ...any) error {
	if detail == "" {
		return fmt.Errorf("joint.%s: %w", op, err)
	}
	return fmt.Errorf("joint.%s: %w: %s", op, err, fmt.Sprintf(detail, args...))
}
