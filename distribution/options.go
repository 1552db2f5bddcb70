// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"

	"github.com/jeffpollock9/probability/nest"
)

const (
	// DefaultValidateArgs disables runtime argument checks.
	DefaultValidateArgs = false
	// DefaultAllowNaNStats makes undefined statistics NaN instead of errors.
	DefaultAllowNaNStats = true
)

// Reserved parameter keys stored next to each family's own parameters.
const (
	paramName          = "name"
	paramValidateArgs  = "validate_args"
	paramAllowNaNStats = "allow_nan_stats"
)

// Option configures a distribution at construction.
type Option func(*options)

type options struct {
	name          string
	validateArgs  bool
	allowNaNStats bool
}

func defaultOptions() options {
	return options{validateArgs: DefaultValidateArgs, allowNaNStats: DefaultAllowNaNStats}
}

// WithName sets the instance name. Joint models use it as the component name.
// Panics on an empty name.
func WithName(name string) Option {
	if name == "" {
		panic("distribution: WithName: empty name")
	}
	return func(o *options) { o.name = name }
}

// WithValidateArgs enables parameter and sample checks.
func WithValidateArgs(v bool) Option {
	return func(o *options) { o.validateArgs = v }
}

// WithAllowNaNStats selects NaN (true) or ErrUndefinedStatistic (false) for
// undefined statistics.
func WithAllowNaNStats(v bool) Option {
	return func(o *options) { o.allowNaNStats = v }
}

// OptionsFromParameters recovers the Options recorded in params by NewBase.
// Kind.New implementations use it to rebuild an instance.
func OptionsFromParameters(params *nest.OrderedMap) []Option {
	var opts []Option
	if v, ok := params.Get(paramName); ok {
		if s, ok := v.(string); ok && s != "" {
			opts = append(opts, WithName(s))
		}
	}
	if v, ok := params.Get(paramValidateArgs); ok {
		if b, ok := v.(bool); ok {
			opts = append(opts, WithValidateArgs(b))
		}
	}
	if v, ok := params.Get(paramAllowNaNStats); ok {
		if b, ok := v.(bool); ok {
			opts = append(opts, WithAllowNaNStats(b))
		}
	}
	return opts
}

// Parameter reads a required parameter.
//
// Errors: ErrInvalidArgument when missing.
func Parameter(params *nest.OrderedMap, key string) (any, error) {
	v, ok := params.Get(key)
	if !ok {
		return nil, fmt.Errorf("distribution: %w: missing parameter %q", ErrInvalidArgument, key)
	}
	return v, nil
}
