// SPDX-License-Identifier: MIT

package mcmc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a Config that fails validation.
	ErrInvalidConfig = errors.New("mcmc: invalid config")

	// ErrInitFailed indicates that no attempted initial state had a finite
	// target log density.
	ErrInitFailed = errors.New("mcmc: no finite initial state")

	// ErrTarget indicates a target log density that could not be evaluated
	// or is not a scalar.
	ErrTarget = errors.New("mcmc: bad target log density")
)

// mcmcErrorf wraps err with the operation name and optional detail.
func mcmcErrorf(op string, err error, detail string, args ...any) error {
	if detail == "" {
		return fmt.Errorf("mcmc.%s: %w", op, err)
	}
	return fmt.Errorf("mcmc.%s: %w: %s", op, err, fmt.Sprintf(detail, args...))
}
