// SPDX-License-Identifier: MIT

// Package distribution defines the Distribution abstraction and the
// concrete families built on it.
//
// A family supplies Primitives (the measures it can compute directly) to
// NewBase and embeds the returned *Base. The base then provides every
// public operation:
//   - derived measures from ordered fallback chains (Prob from LogProb,
//     Survival from CDF, Stddev from Variance, …), resolved once at
//     construction into a Capability set;
//   - a validation scope: parameter assertions computed once at
//     construction, sample assertions per call, both under validate_args;
//   - sampling with sample+batch+event reshaping and static shape checks;
//   - KL / cross-entropy through a pairwise registry;
//   - batch slicing and copying with provenance.
//
// Instances are immutable after construction and safe for concurrent use.
package distribution

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/shape"
	"github.com/jeffpollock9/probability/tensor"
)

// Distribution is a random-variable family instance. Implementations embed
// *Base (the unexported method makes that mandatory).
type Distribution interface {
	Name() string
	HasExplicitName() bool
	Kind() Kind
	DType() DType
	ReparameterizationType() ReparameterizationType
	ValidateArgs() bool
	AllowNaNStats() bool
	Parameters() *nest.OrderedMap
	Capabilities() Capability
	Supports(c Capability) bool

	BatchShape() shape.Shape
	EventShape() shape.Shape
	BatchShapeTensor() ([]int, error)
	EventShapeTensor() ([]int, error)
	IsScalarBatch() (bool, error)
	IsScalarEvent() (bool, error)

	Sample(sampleShape []int, seed samplers.Seed) (*tensor.Dense, error)
	LogProb(x any) (*tensor.Dense, error)
	Prob(x any) (*tensor.Dense, error)
	CDF(x any) (*tensor.Dense, error)
	LogCDF(x any) (*tensor.Dense, error)
	SurvivalFunction(x any) (*tensor.Dense, error)
	LogSurvivalFunction(x any) (*tensor.Dense, error)
	Quantile(p any) (*tensor.Dense, error)

	Entropy() (*tensor.Dense, error)
	Mean() (*tensor.Dense, error)
	Mode() (*tensor.Dense, error)
	Variance() (*tensor.Dense, error)
	Stddev() (*tensor.Dense, error)
	Covariance() (*tensor.Dense, error)

	CrossEntropy(other Distribution) (*tensor.Dense, error)
	KLDivergence(other Distribution) (*tensor.Dense, error)

	Copy(overrides map[string]any) (Distribution, error)
	Slice(items ...tensor.SliceItem) (Distribution, error)
	Provenance() (Distribution, []SliceStep)

	DefaultEventSpaceBijector() bijector.Bijector
	String() string

	base() *Base
}

// Base implements Distribution for an embedding family.
type Base struct {
	self  Distribution
	kind  Kind
	opts  options
	raw   *nest.OrderedMap
	prims Primitives

	caps     Capability
	measures map[Capability]measureFunc
	paramErr error

	paramsOnce sync.Once
	params     *nest.OrderedMap

	origin Distribution
	steps  []SliceStep
}

// NewBase builds the shared state of a distribution.
// self is the embedding family value (its *Base field is set by the caller
// from the return value); params are the family's own constructor
// arguments in declaration order. Options are recorded in Parameters under
// "name", "validate_args" and "allow_nan_stats".
//
// Errors: ErrInvalidArgument when validate_args is set and the parameter
// assertions fail.
func NewBase(self Distribution, kind Kind, params *nest.OrderedMap, prims Primitives, opts ...Option) (*Base, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = kind.Name()
	}
	raw := nest.NewOrderedMap()
	if params != nil {
		for _, k := range params.Keys() {
			v, _ := params.Get(k)
			raw.Set(k, v)
		}
	}
	raw.Set(paramName, o.name)
	raw.Set(paramValidateArgs, o.validateArgs)
	raw.Set(paramAllowNaNStats, o.allowNaNStats)

	b := &Base{
		self:     self,
		kind:     kind,
		opts:     o,
		raw:      raw,
		prims:    prims,
		caps:     prims.capabilities(),
		measures: make(map[Capability]measureFunc),
	}
	for bit := CapLogProb; bit < capEnd; bit <<= 1 {
		if f := prims.resolve(bit, true); f != nil {
			b.measures[bit] = f
		}
	}
	if o.validateArgs && prims.ParameterAssertions != nil {
		b.paramErr = prims.ParameterAssertions()
		if b.paramErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", b.label(), ErrInvalidArgument, b.paramErr)
		}
	}
	return b, nil
}

func (b *Base) base() *Base { return b }

// label is the error and String prefix: Kind or Kind("name").
func (b *Base) label() string {
	if b.HasExplicitName() {
		return fmt.Sprintf("%s(%q)", b.kind.Name(), b.opts.name)
	}
	return b.kind.Name()
}

// Name returns the instance name (the kind name unless set with WithName).
func (b *Base) Name() string { return b.opts.name }

// HasExplicitName reports whether the name differs from the kind's default.
func (b *Base) HasExplicitName() bool { return b.opts.name != b.kind.Name() }

// Kind returns the family.
func (b *Base) Kind() Kind { return b.kind }

// DType returns Float64.
func (b *Base) DType() DType { return Float64 }

// ReparameterizationType returns the family's declared type.
func (b *Base) ReparameterizationType() ReparameterizationType { return b.prims.Reparameterization }

// ValidateArgs reports whether runtime checks are on.
func (b *Base) ValidateArgs() bool { return b.opts.validateArgs }

// AllowNaNStats reports whether undefined statistics become NaN.
func (b *Base) AllowNaNStats() bool { return b.opts.allowNaNStats }

// Capabilities returns the measures supplied as primitives.
func (b *Base) Capabilities() Capability { return b.caps }

// Supports reports whether c is available, directly or derived.
func (b *Base) Supports(c Capability) bool {
	if c == CapSample {
		return b.prims.SampleN != nil
	}
	_, ok := b.measures[c]
	return ok
}

// Parameters returns the constructor arguments, sanitized on first call:
// entries whose value is the instance itself are dropped. The result is
// the same map on every call and must not be modified.
func (b *Base) Parameters() *nest.OrderedMap {
	b.paramsOnce.Do(func() {
		out := nest.NewOrderedMap()
		for _, k := range b.raw.Keys() {
			v, _ := b.raw.Get(k)
			if d, ok := v.(Distribution); ok && d == b.self {
				continue
			}
			out.Set(k, v)
		}
		b.params = out
	})
	return b.params
}

// BatchShape returns the static batch shape, unknown-rank if undeclared.
func (b *Base) BatchShape() shape.Shape {
	if b.prims.BatchShape == nil {
		return shape.Unknown()
	}
	return b.prims.BatchShape()
}

// EventShape returns the static event shape, unknown-rank if undeclared.
func (b *Base) EventShape() shape.Shape {
	if b.prims.EventShape == nil {
		return shape.Unknown()
	}
	return b.prims.EventShape()
}

// BatchShapeTensor returns the concrete batch shape. The static shape is
// used when fully defined; otherwise the dynamic primitive.
func (b *Base) BatchShapeTensor() ([]int, error) {
	return b.shapeTensor("BatchShapeTensor", b.BatchShape(), b.prims.BatchShapeTensor)
}

// EventShapeTensor returns the concrete event shape, preferring the static one.
func (b *Base) EventShapeTensor() ([]int, error) {
	return b.shapeTensor("EventShapeTensor", b.EventShape(), b.prims.EventShapeTensor)
}

func (b *Base) shapeTensor(op string, static shape.Shape, dynamic func() ([]int, error)) ([]int, error) {
	if static.IsFullyDefined() {
		return static.Dims(), nil
	}
	if dynamic == nil {
		return nil, b.errorf(op, ErrNotImplemented, "static shape %v not fully defined", static)
	}
	dims, err := dynamic()
	if err != nil {
		return nil, b.errorf(op, err, "")
	}
	return dims, nil
}

// IsScalarBatch reports whether the batch shape is [].
func (b *Base) IsScalarBatch() (bool, error) {
	if r, ok := b.BatchShape().Rank(); ok {
		return r == 0, nil
	}
	dims, err := b.BatchShapeTensor()
	return len(dims) == 0, err
}

// IsScalarEvent reports whether the event shape is [].
func (b *Base) IsScalarEvent() (bool, error) {
	if r, ok := b.EventShape().Rank(); ok {
		return r == 0, nil
	}
	dims, err := b.EventShapeTensor()
	return len(dims) == 0, err
}

// Sample draws sampleShape+batch+event shaped values.
// Implementation:
//   - Stage 1: validate sampleShape (non-negative dims).
//   - Stage 2: draw n = prod(sampleShape) via the SampleN primitive.
//   - Stage 3: reshape to sampleShape+batch+event and check the static
//     shape pieces agree with the result.
//
// Errors: ErrInvalidArgument for a negative dim; ErrNotImplemented without
// a SampleN primitive.
func (b *Base) Sample(sampleShape []int, seed samplers.Seed) (*tensor.Dense, error) {
	const op = "Sample"
	n := 1
	for _, d := range sampleShape {
		if d < 0 {
			return nil, b.errorf(op, ErrInvalidArgument, "sample shape %v has a negative dim", sampleShape)
		}
		n *= d
	}
	if b.prims.SampleN == nil {
		return nil, b.errorf(op, ErrNotImplemented, "")
	}
	if err := b.scope(op, nil); err != nil {
		return nil, err
	}
	batch, err := b.BatchShapeTensor()
	if err != nil {
		return nil, err
	}
	event, err := b.EventShapeTensor()
	if err != nil {
		return nil, err
	}
	x, err := b.prims.SampleN(n, seed)
	if err != nil {
		return nil, b.errorf(op, err, "")
	}
	dims := slices.Concat(sampleShape, batch, event)
	if dims == nil {
		dims = []int{}
	}
	out, err := x.Reshape(dims...)
	if err != nil {
		return nil, b.errorf(op, err, "")
	}
	if _, err := shape.InferSampleShape(out.StaticShape(), shape.Known(sampleShape...), b.BatchShape(), b.EventShape()); err != nil {
		return nil, b.errorf(op, err, "")
	}
	return out, nil
}

// scope applies the validation hook: the stored parameter assertions and,
// when x is given, fresh sample assertions. A no-op unless validate_args.
func (b *Base) scope(op string, x *tensor.Dense) error {
	if !b.opts.validateArgs {
		return nil
	}
	errs := []error{b.paramErr}
	if x != nil && b.prims.SampleAssertions != nil {
		errs = append(errs, b.prims.SampleAssertions(x))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s.%s: %w: %w", b.label(), op, ErrInvalidArgument, err)
	}
	return nil
}

// convert turns a call value into a tensor. The dtype is a leaf, so any
// nested structure is a mismatch.
func (b *Base) convert(op string, x any) (*tensor.Dense, error) {
	if nest.IsNested(x) {
		return nil, b.errorf(op, ErrStructureMismatch, "dtype %s is a leaf, got %T", b.DType(), x)
	}
	t, err := tensor.From(x)
	if err != nil {
		return nil, b.errorf(op, ErrInvalidArgument, "%v", err)
	}
	return t, nil
}

func (b *Base) callMeasure(op string, c Capability, x any) (*tensor.Dense, error) {
	f := b.measures[c]
	if f == nil {
		return nil, b.errorf(op, ErrNotImplemented, "")
	}
	xt, err := b.convert(op, x)
	if err != nil {
		return nil, err
	}
	if err := b.scope(op, xt); err != nil {
		return nil, err
	}
	out, err := f(xt)
	if err != nil {
		return nil, b.errorf(op, err, "")
	}
	return out, nil
}

func (b *Base) callStatistic(op string, c Capability) (*tensor.Dense, error) {
	f := b.measures[c]
	if f == nil {
		return nil, b.errorf(op, ErrNotImplemented, "")
	}
	if err := b.scope(op, nil); err != nil {
		return nil, err
	}
	out, err := f(nil)
	if err != nil {
		return nil, b.errorf(op, err, "")
	}
	return out, nil
}

// LogProb evaluates the log density at x (leaf value: float64, []float64,
// [][]float64 or *tensor.Dense), broadcasting against the batch.
func (b *Base) LogProb(x any) (*tensor.Dense, error) {
	return b.callMeasure("LogProb", CapLogProb, x)
}

// Prob evaluates the density at x.
func (b *Base) Prob(x any) (*tensor.Dense, error) { return b.callMeasure("Prob", CapProb, x) }

// CDF evaluates P[X <= x].
func (b *Base) CDF(x any) (*tensor.Dense, error) { return b.callMeasure("CDF", CapCDF, x) }

// LogCDF evaluates log P[X <= x].
func (b *Base) LogCDF(x any) (*tensor.Dense, error) { return b.callMeasure("LogCDF", CapLogCDF, x) }

// SurvivalFunction evaluates P[X > x].
func (b *Base) SurvivalFunction(x any) (*tensor.Dense, error) {
	return b.callMeasure("SurvivalFunction", CapSurvival, x)
}

// LogSurvivalFunction evaluates log P[X > x].
func (b *Base) LogSurvivalFunction(x any) (*tensor.Dense, error) {
	return b.callMeasure("LogSurvivalFunction", CapLogSurvival, x)
}

// Quantile evaluates the inverse CDF at p. With validate_args, p must lie
// in [0, 1]; the error names the violated bound.
func (b *Base) Quantile(p any) (*tensor.Dense, error) {
	const op = "Quantile"
	if b.opts.validateArgs {
		pt, err := b.convert(op, p)
		if err != nil {
			return nil, err
		}
		if pt.Any(func(v float64) bool { return v < 0 }) {
			return nil, b.errorf(op, ErrInvalidArgument, "p must be >= 0")
		}
		if pt.Any(func(v float64) bool { return v > 1 }) {
			return nil, b.errorf(op, ErrInvalidArgument, "p must be <= 1")
		}
	}
	return b.callMeasure(op, CapQuantile, p)
}

// Entropy returns the Shannon entropy per batch member.
func (b *Base) Entropy() (*tensor.Dense, error) { return b.callStatistic("Entropy", CapEntropy) }

// Mean returns the mean, shape batch+event.
func (b *Base) Mean() (*tensor.Dense, error) { return b.callStatistic("Mean", CapMean) }

// Mode returns the mode, shape batch+event.
func (b *Base) Mode() (*tensor.Dense, error) { return b.callStatistic("Mode", CapMode) }

// Variance returns the variance, derived from Stddev when not primitive.
func (b *Base) Variance() (*tensor.Dense, error) { return b.callStatistic("Variance", CapVariance) }

// Stddev returns the standard deviation, derived from Variance when not primitive.
func (b *Base) Stddev() (*tensor.Dense, error) { return b.callStatistic("Stddev", CapStddev) }

// Covariance returns the covariance, shape batch+event+event.
func (b *Base) Covariance() (*tensor.Dense, error) {
	return b.callStatistic("Covariance", CapCovariance)
}

// MaskUndefined applies the allow_nan_stats policy to a statistic:
// positions where undefined is non-zero become NaN, or, when NaN stats are
// not allowed and any position is undefined, ErrUndefinedStatistic naming
// what.
func (b *Base) MaskUndefined(what string, stat, undefined *tensor.Dense) (*tensor.Dense, error) {
	if !undefined.Any(func(v float64) bool { return v != 0 }) {
		return stat, nil
	}
	if !b.opts.allowNaNStats {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedStatistic, what)
	}
	return tensor.Apply(func(xs []float64) float64 {
		if xs[1] != 0 {
			return nanValue
		}
		return xs[0]
	}, stat, undefined)
}

// DefaultEventSpaceBijector maps unconstrained reals onto the support; nil
// when the family declares none.
func (b *Base) DefaultEventSpaceBijector() bijector.Bijector {
	if b.prims.DefaultEventSpaceBijector == nil {
		return nil
	}
	return b.prims.DefaultEventSpaceBijector()
}

// String summarizes the instance.
func (b *Base) String() string {
	return fmt.Sprintf("%s(%q, batch_shape=%v, event_shape=%v, dtype=%s)",
		b.kind.Name(), b.opts.name, b.BatchShape(), b.EventShape(), b.DType())
}
