// SPDX-License-Identifier: MIT

package joint

import (
	"log/slog"

	"github.com/jeffpollock9/probability/internal/logging"
)

// DefaultValidateArgs leaves component shape checks off.
const DefaultValidateArgs = false

// Option configures a joint model at construction.
type Option func(*options)

type options struct {
	name         string
	validateArgs bool
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{validateArgs: DefaultValidateArgs, logger: logging.Discard()}
}

// WithName names the joint model. Panics on an empty name.
func WithName(name string) Option {
	if name == "" {
		panic("joint: WithName requires a non-empty name")
	}
	return func(o *options) { o.name = name }
}

// WithValidateArgs rejects component log densities of different shapes.
func WithValidateArgs(v bool) Option {
	return func(o *options) { o.validateArgs = v }
}

// WithLogger sets the logger for cache population. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("joint: WithLogger requires a non-nil logger")
	}
	return func(o *options) { o.logger = l }
}
