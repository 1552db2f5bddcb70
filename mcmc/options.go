// SPDX-License-Identifier: MIT

package mcmc

import (
	"log/slog"

	"github.com/jeffpollock9/probability/internal/logging"
)

// Option configures WindowedAdaptive.
type Option func(*options)

type options struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
}

func defaultOptions() options {
	return options{cfg: DefaultConfig(), logger: logging.Discard()}
}

// WithConfig replaces every Config-backed setting; options after it still
// apply. The config is validated when the run starts.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithNumResults sets the post-adaptation draws per chain. Panics if n < 0.
func WithNumResults(n int) Option {
	if n < 0 {
		panic("mcmc: WithNumResults requires n >= 0")
	}
	return func(o *options) { o.cfg.NumResults = n }
}

// WithNumAdaptationSteps sets the adaptation budget. Panics if n < 0.
func WithNumAdaptationSteps(n int) Option {
	if n < 0 {
		panic("mcmc: WithNumAdaptationSteps requires n >= 0")
	}
	return func(o *options) { o.cfg.NumAdaptationSteps = n }
}

// WithNumChains sets the number of chains. Panics if n < 1.
func WithNumChains(n int) Option {
	if n < 1 {
		panic("mcmc: WithNumChains requires n >= 1")
	}
	return func(o *options) { o.cfg.NumChains = n }
}

// WithTargetAcceptProb sets the dual-averaging target. Panics outside (0, 1).
func WithTargetAcceptProb(p float64) Option {
	if !(p > 0 && p < 1) {
		panic("mcmc: WithTargetAcceptProb requires 0 < p < 1")
	}
	return func(o *options) { o.cfg.TargetAcceptProb = p }
}

// WithInitStepSize sets the first step size. Panics unless positive.
func WithInitStepSize(eps float64) Option {
	if !(eps > 0) {
		panic("mcmc: WithInitStepSize requires a positive step size")
	}
	return func(o *options) { o.cfg.InitStepSize = eps }
}

// WithMaxInitAttempts bounds the initial draws tried per chain. Panics if
// n < 1.
func WithMaxInitAttempts(n int) Option {
	if n < 1 {
		panic("mcmc: WithMaxInitAttempts requires n >= 1")
	}
	return func(o *options) { o.cfg.MaxInitAttempts = n }
}

// WithDiscardTuning drops (true) or keeps the adaptation steps in the
// returned draws and trace.
func WithDiscardTuning(v bool) Option {
	return func(o *options) { o.cfg.DiscardTuning = v }
}

// WithSeed sets the root seed; chains use independent splits of it.
func WithSeed(seed int64) Option {
	return func(o *options) { o.cfg.Seed = seed }
}

// WithLogger sets the run logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("mcmc: WithLogger requires a non-nil logger")
	}
	return func(o *options) { o.logger = l }
}

// WithMetrics records the run in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
