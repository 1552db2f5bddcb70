// SPDX-License-Identifier: MIT
// Package distribution: sentinel error set.
// Five categories, matched with errors.Is:
//   - ErrNotImplemented:     a measure has no primitive and no derivable sibling.
//   - ErrInvalidArgument:    malformed or out-of-domain call arguments.
//   - ErrStructureMismatch:  a value's nesting does not match the dtype.
//   - ErrUndefinedStatistic: a statistic is undefined for the parameters and
//     allow_nan_stats is off.
//   - ErrBroadcast:          parts disagree in shape under validate_args.

package distribution

import (
	"errors"
	"fmt"

	"github.com/jeffpollock9/probability/nest"
)

var (
	// ErrNotImplemented marks a capability the distribution cannot provide.
	ErrNotImplemented = errors.New("distribution: not implemented")

	// ErrInvalidArgument indicates an argument outside its valid domain.
	ErrInvalidArgument = errors.New("distribution: invalid argument")

	// ErrStructureMismatch is nest.ErrStructureMismatch, re-exported so callers
	// need only this package.
	ErrStructureMismatch = nest.ErrStructureMismatch

	// ErrUndefinedStatistic indicates a mathematically undefined statistic.
	ErrUndefinedStatistic = errors.New("distribution: undefined statistic")

	// ErrBroadcast indicates parts whose shapes differ under strict validation.
	ErrBroadcast = errors.New("distribution: broadcast detected")
)

// errorf wraps err as "<dist>.<op>: err[: detail]".
func (b *Base) errorf(op string, err error, detail string, args ...any) error {
	if detail == "" {
		return fmt.Errorf("%s.%s: %w", b.label(), op, err)
	}
	return fmt.Errorf("%s.%s: %w: %s", b.label(), op, err, fmt.Sprintf(detail, args...))
}
