// SPDX-License-Identifier: MIT

package joint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

// dummySeed drives the single sample taken to learn component shapes.
var dummySeed = samplers.NewSeed(0)

// Joint is a joint distribution over the components of a model. Its
// dtype and shapes are structures with one entry per component, in the
// model's native form.
type Joint struct {
	model model
	opts  options
	cache *cache
	token uuid.UUID
}

// NewSequential builds a model from an ordered list of components, each a
// distribution.Distribution or a Downstream maker.
//
// Errors: ErrModel for a component of another type or a Downstream whose
// arity exceeds the components before it.
func NewSequential(components []any, opts ...Option) (*Joint, error) {
	m, err := newSequentialModel(components)
	if err != nil {
		return nil, err
	}
	return newJoint(m, opts), nil
}

// NewNamed builds a model from a map[string]any or *nest.OrderedMap of
// components, each a distribution.Distribution or a DependsOn maker. The
// component names are the keys.
//
// Errors: ErrModel for an unknown dependency, a cycle, or a component of
// another type.
func NewNamed(components any, opts ...Option) (*Joint, error) {
	m, err := newNamedModel(components)
	if err != nil {
		return nil, err
	}
	return newJoint(m, opts), nil
}

// NewCoroutine builds a model from a step function.
//
// Errors: ErrModel for a nil step function.
func NewCoroutine(fn StepFunc, opts ...Option) (*Joint, error) {
	if fn == nil {
		return nil, jointErrorf("Coroutine", ErrModel, "nil step function")
	}
	return newJoint(&coroutineModel{fn: fn}, opts), nil
}

func newJoint(m model, opts []Option) *Joint {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = m.kind()
	}
	return &Joint{model: m, opts: o, cache: newCache(), token: uuid.New()}
}

// NewContext returns a fresh execution-context token for InContext.
func NewContext() uuid.UUID { return uuid.New() }

// InContext returns a view of j bound to the given context token. Views
// share one cache; each token holds its own component distributions.
func (j *Joint) InContext(token uuid.UUID) *Joint {
	v := *j
	v.token = token
	return &v
}

// Context returns the context token of j.
func (j *Joint) Context() uuid.UUID { return j.token }

// Name returns the model name.
func (j *Joint) Name() string { return j.opts.name }

// ValidateArgs reports whether component shape checks are on.
func (j *Joint) ValidateArgs() bool { return j.opts.validateArgs }

// String summarizes the model.
func (j *Joint) String() string {
	ds, err := j.singleSampleDistributions()
	if err != nil {
		return fmt.Sprintf("%s(%q)", j.model.kind(), j.opts.name)
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%s(%q, [%s])", j.model.kind(), j.opts.name, strings.Join(parts, ", "))
}

// flatSampleDistributions walks the model. Component i reuses value[i]
// when given and non-nil, else samples: roots with sampleShape, others
// with none since their parameters already carry the sample dims.
func (j *Joint) flatSampleDistributions(sampleShape []int, seed samplers.Seed, value []any) ([]distribution.Distribution, []*tensor.Dense, error) {
	stream := samplers.NewStream(seed)
	var ds []distribution.Distribution
	var xs []*tensor.Dense
	for i := 0; ; i++ {
		d, root, err := j.model.step(i, xs)
		if err != nil {
			return nil, nil, err
		}
		if d == nil {
			break
		}
		s := stream.Next()
		var x *tensor.Dense
		if i < len(value) && value[i] != nil {
			x, err = tensor.From(value[i])
			if err != nil {
				return nil, nil, fmt.Errorf("component %d: %w: %w", i, ErrInvalidArgument, err)
			}
		} else {
			ss := sampleShape
			if !root {
				ss = nil
			}
			x, err = d.Sample(ss, s)
			if err != nil {
				return nil, nil, fmt.Errorf("component %d: %w", i, err)
			}
		}
		ds = append(ds, d)
		xs = append(xs, x)
	}
	if len(value) > len(ds) {
		return nil, nil, fmt.Errorf("%w: %d values for %d components", ErrStructureMismatch, len(value), len(ds))
	}
	return ds, xs, nil
}

// singleSampleDistributions returns the component distributions of one
// sample, cached per context token.
func (j *Joint) singleSampleDistributions() ([]distribution.Distribution, error) {
	if ds, ok := j.cache.get(j.token); ok {
		return ds, nil
	}
	ds, _, err := j.flatSampleDistributions(nil, dummySeed, nil)
	if err != nil {
		return nil, err
	}
	return j.remember(ds)
}

// remember offers ds to the cache for the current context.
func (j *Joint) remember(ds []distribution.Distribution) ([]distribution.Distribution, error) {
	stored, fresh, err := j.cache.put(j.token, ds)
	if err != nil {
		return nil, err
	}
	if fresh {
		j.opts.logger.Debug("joint: cached component distributions",
			"model", j.opts.name, "context", j.token, "components", len(stored))
	}
	return stored, nil
}

// ModelFlatten lists a value structure's entries in flat component order.
//
// Errors: ErrStructureMismatch when value does not nest like the model.
func (j *Joint) ModelFlatten(value any) ([]any, error) {
	n, err := j.numComponents()
	if err != nil {
		return nil, err
	}
	flat, err := j.model.flatten(j.castToModel(value), n)
	if err != nil {
		return nil, jointErrorf("ModelFlatten", err, "")
	}
	return flat, nil
}

// castToModel re-wraps a nested value in the container types of DType, so a
// sequence reaches an ordered Named model positionally. A value that cannot
// be cast is returned as is and left for the model flatten to reject.
func (j *Joint) castToModel(value any) any {
	if !nest.IsNested(value) {
		return value
	}
	dtype, err := j.DType()
	if err != nil || !nest.IsNested(dtype) {
		return value
	}
	cast, err := nest.CastStructure(value, dtype)
	if err != nil {
		return value
	}
	return cast
}

// ModelUnflatten is the inverse of ModelFlatten.
func (j *Joint) ModelUnflatten(flat []any) (any, error) {
	v, err := j.model.unflatten(flat)
	if err != nil {
		return nil, jointErrorf("ModelUnflatten", err, "")
	}
	return v, nil
}

func (j *Joint) numComponents() (int, error) {
	if names := j.model.names(); names != nil {
		return len(names), nil
	}
	ds, err := j.singleSampleDistributions()
	if err != nil {
		return 0, err
	}
	return len(ds), nil
}

// explicitName returns the name a component was given with
// distribution.WithName, or "" when it carries its family's default.
func explicitName(d distribution.Distribution) string {
	if !d.HasExplicitName() || strings.Contains(d.Name(), d.Kind().Name()) {
		return ""
	}
	return d.Name()
}

// ResolveNames returns one name per component in flat order: the model's
// keys for Named, else each component's explicit name or var<i>.
//
// Errors: ErrInvalidArgument for a duplicated or reserved name ("value",
// "name"). Names are only known after sampling, so these errors surface
// here rather than at construction.
func (j *Joint) ResolveNames() ([]string, error) {
	const op = "ResolveNames"
	names := j.model.names()
	if names == nil {
		ds, err := j.singleSampleDistributions()
		if err != nil {
			return nil, jointErrorf(op, err, "")
		}
		names = make([]string, len(ds))
		for i, d := range ds {
			names[i] = explicitName(d)
			if names[i] == "" {
				names[i] = fmt.Sprintf("var%d", i)
			}
		}
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if slices.Contains(forbiddenNames, name) {
			return nil, jointErrorf(op, ErrInvalidArgument,
				"distribution name %q is not allowed as a joint component; please choose a different name", name)
		}
		if seen[name] {
			return nil, jointErrorf(op, ErrInvalidArgument, "duplicated distribution name: %s", name)
		}
		seen[name] = true
	}
	return names, nil
}

// mapComponents applies f to the cached component distributions, or to
// those of a sample of the given shape, and unflattens the results.
func (j *Joint) mapComponents(sampleShape []int, f func(distribution.Distribution) (any, error)) (any, error) {
	var ds []distribution.Distribution
	var err error
	if len(sampleShape) > 0 {
		ds, _, err = j.flatSampleDistributions(sampleShape, dummySeed, nil)
	} else {
		ds, err = j.singleSampleDistributions()
	}
	if err != nil {
		return nil, err
	}
	out := make([]any, len(ds))
	for i, d := range ds {
		if out[i], err = f(d); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
	}
	return j.model.unflatten(out)
}

// DType returns the structure of component dtypes.
func (j *Joint) DType() (any, error) {
	return j.mapComponents(nil, func(d distribution.Distribution) (any, error) { return d.DType(), nil })
}

// ReparameterizationType returns the structure of component
// reparameterization types.
func (j *Joint) ReparameterizationType() (any, error) {
	return j.mapComponents(nil, func(d distribution.Distribution) (any, error) {
		return d.ReparameterizationType(), nil
	})
}

// BatchShape returns the structure of static component batch shapes.
func (j *Joint) BatchShape() (any, error) {
	return j.mapComponents(nil, func(d distribution.Distribution) (any, error) { return d.BatchShape(), nil })
}

// EventShape returns the structure of static component event shapes.
func (j *Joint) EventShape() (any, error) {
	return j.mapComponents(nil, func(d distribution.Distribution) (any, error) { return d.EventShape(), nil })
}

// BatchShapeTensor returns the structure of concrete component batch
// shapes ([]int). A non-empty sampleShape re-derives the components from a
// sample of that shape, since root sample dims can reach the batch of
// downstream components.
func (j *Joint) BatchShapeTensor(sampleShape []int) (any, error) {
	return j.mapComponents(sampleShape, func(d distribution.Distribution) (any, error) {
		return d.BatchShapeTensor()
	})
}

// EventShapeTensor returns the structure of concrete component event
// shapes ([]int), re-derived under sampleShape when non-empty.
func (j *Joint) EventShapeTensor(sampleShape []int) (any, error) {
	return j.mapComponents(sampleShape, func(d distribution.Distribution) (any, error) {
		return d.EventShapeTensor()
	})
}

// IsScalarEvent returns the structure of per-component event_shape == [].
func (j *Joint) IsScalarEvent() (any, error) {
	return j.mapComponents(nil, func(d distribution.Distribution) (any, error) { return d.IsScalarEvent() })
}

// IsScalarBatch returns the structure of per-component batch_shape == [].
func (j *Joint) IsScalarBatch() (any, error) {
	return j.mapComponents(nil, func(d distribution.Distribution) (any, error) { return d.IsScalarBatch() })
}

// resolveSampleValue turns Sample keywords into a flat value with nil for
// components to draw.
func (j *Joint) resolveSampleValue(op string, kws []Keyword) ([]any, error) {
	if len(kws) == 0 {
		return nil, nil
	}
	if i := keywordIndex(kws, keywordValue); i >= 0 && kws[i].Value != nil {
		if len(kws) > 1 {
			var others []string
			for _, kw := range kws {
				if kw.Name != keywordValue {
					others = append(others, kw.Name)
				}
			}
			return nil, jointErrorf(op, ErrInvalidArgument,
				"supplied both value and keyword arguments to parameterize sampling; supplied keywords were: %s",
				strings.Join(others, ", "))
		}
		return j.ModelFlatten(kws[i].Value)
	}
	names, err := j.ResolveNames()
	if err != nil {
		return nil, err
	}
	var unmatched []string
	for _, kw := range kws {
		if !slices.Contains(names, kw.Name) && kw.Name != keywordValue {
			unmatched = append(unmatched, kw.Name)
		}
	}
	if len(unmatched) > 0 {
		var given []string
		for _, kw := range kws {
			if kw.Value != nil {
				given = append(given, kw.Name)
			}
		}
		return nil, jointErrorf(op, ErrInvalidArgument,
			"found unexpected keyword arguments; distribution names are %s but received %s; these names were invalid: %s",
			strings.Join(names, ", "), strings.Join(given, ", "), strings.Join(unmatched, ", "))
	}
	flat := make([]any, len(names))
	for i, name := range names {
		if k := keywordIndex(kws, name); k >= 0 {
			flat[i] = kws[k].Value
		}
	}
	return flat, nil
}

// Sample draws sampleShape-prefixed values of every component and returns
// them in the model's structure. Keywords pin components by name (the
// remaining ones are drawn conditioned on them) or, as Kw("value", v),
// supply a whole value structure whose nil entries are drawn.
//
// Errors: ErrInvalidArgument for "value" together with other keywords or a
// keyword naming no component.
func (j *Joint) Sample(sampleShape []int, seed samplers.Seed, kws ...Keyword) (any, error) {
	_, xs, err := j.sample("Sample", sampleShape, seed, kws)
	if err != nil {
		return nil, err
	}
	return j.model.unflatten(xs)
}

// SampleDistributions is Sample that also returns the structure of
// component distributions used for the draw.
func (j *Joint) SampleDistributions(sampleShape []int, seed samplers.Seed, kws ...Keyword) (any, any, error) {
	ds, xs, err := j.sample("SampleDistributions", sampleShape, seed, kws)
	if err != nil {
		return nil, nil, err
	}
	dists := make([]any, len(ds))
	for i, d := range ds {
		dists[i] = d
	}
	dv, err := j.model.unflatten(dists)
	if err != nil {
		return nil, nil, err
	}
	xv, err := j.model.unflatten(xs)
	if err != nil {
		return nil, nil, err
	}
	return dv, xv, nil
}

func (j *Joint) sample(op string, sampleShape []int, seed samplers.Seed, kws []Keyword) ([]distribution.Distribution, []any, error) {
	value, err := j.resolveSampleValue(op, kws)
	if err != nil {
		return nil, nil, err
	}
	ds, xs, err := j.flatSampleDistributions(sampleShape, seed, value)
	if err != nil {
		return nil, nil, jointErrorf(op, err, "")
	}
	if len(sampleShape) == 0 && value == nil && j.cache.offer(j.token, ds) {
		j.opts.logger.Debug("joint: cached component distributions from sample",
			"model", j.opts.name, "context", j.token, "components", len(ds))
	}
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return ds, out, nil
}

// resolveCall applies ResolveValue to a LogProb-style argument list.
func (j *Joint) resolveCall(op string, args []any) (any, error) {
	pos, kws, err := splitArgs(op, args)
	if err != nil {
		return nil, err
	}
	names, err := j.ResolveNames()
	if err != nil {
		return nil, err
	}
	dtype, err := j.DType()
	if err != nil {
		return nil, err
	}
	flatten := func(v any) ([]any, error) { return j.model.flatten(v, len(names)) }
	value, unmatched, err := ResolveValue(pos, kws, dtype, names, flatten, j.model.unflatten)
	if err != nil {
		return nil, err
	}
	if err := checkUnmatched(op, unmatched, names); err != nil {
		return nil, err
	}
	return value, nil
}

// measureParts evaluates measure per component at value. Every part of
// value must be given.
func (j *Joint) measureParts(op string, value any, measure func(distribution.Distribution, *tensor.Dense) (*tensor.Dense, error)) ([]*tensor.Dense, error) {
	n, err := j.numComponents()
	if err != nil {
		return nil, err
	}
	flat, err := j.model.flatten(j.castToModel(value), n)
	if err != nil {
		return nil, jointErrorf(op, err, "")
	}
	if slices.Contains(nest.Flatten(flat), nil) {
		return nil, jointErrorf(op, ErrInvalidArgument, "no value part can be nil; saw %v", value)
	}
	ds, xs, err := j.flatSampleDistributions(nil, dummySeed, flat)
	if err != nil {
		return nil, jointErrorf(op, err, "")
	}
	parts := make([]*tensor.Dense, len(ds))
	for i, d := range ds {
		if parts[i], err = measure(d, xs[i]); err != nil {
			return nil, jointErrorf(op, err, "component %d", i)
		}
	}
	if err := j.checkWontBroadcast(op, parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// checkWontBroadcast requires identical part shapes under validate_args;
// broadcasting probably indicates an error in the model specification.
func (j *Joint) checkWontBroadcast(op string, parts []*tensor.Dense) error {
	if !j.opts.validateArgs {
		return nil
	}
	for i := 1; i < len(parts); i++ {
		if !tensor.SameShape(parts[i-1], parts[i]) {
			return jointErrorf(op, ErrBroadcast,
				"component shapes %v and %v differ; broadcasting probably indicates an error in model specification",
				parts[i-1].Shape(), parts[i].Shape())
		}
	}
	return nil
}

func logProbOf(d distribution.Distribution, x *tensor.Dense) (*tensor.Dense, error) { return d.LogProb(x) }

func probOf(d distribution.Distribution, x *tensor.Dense) (*tensor.Dense, error) { return d.Prob(x) }

// LogProbParts returns the structure of per-component log densities at a
// full value structure.
func (j *Joint) LogProbParts(value any) (any, error) {
	return j.parts("LogProbParts", value, logProbOf)
}

// ProbParts returns the structure of per-component densities at a full
// value structure.
func (j *Joint) ProbParts(value any) (any, error) {
	return j.parts("ProbParts", value, probOf)
}

func (j *Joint) parts(op string, value any, measure func(distribution.Distribution, *tensor.Dense) (*tensor.Dense, error)) (any, error) {
	parts, err := j.measureParts(op, value, measure)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return j.model.unflatten(out)
}

// LogProb returns the sum of component log densities. Arguments follow the
// package calling convention; a "name" keyword is accepted and ignored.
func (j *Joint) LogProb(args ...any) (*tensor.Dense, error) {
	const op = "LogProb"
	value, err := j.resolveCall(op, args)
	if err != nil {
		return nil, err
	}
	return j.logProbValue(op, value)
}

func (j *Joint) logProbValue(op string, value any) (*tensor.Dense, error) {
	parts, err := j.measureParts(op, value, logProbOf)
	if err != nil {
		return nil, err
	}
	return sumParts(op, parts)
}

// Prob returns exp(LogProb).
func (j *Joint) Prob(args ...any) (*tensor.Dense, error) {
	const op = "Prob"
	value, err := j.resolveCall(op, args)
	if err != nil {
		return nil, err
	}
	lp, err := j.logProbValue(op, value)
	if err != nil {
		return nil, err
	}
	return lp.Exp(), nil
}

func sumParts(op string, parts []*tensor.Dense) (*tensor.Dense, error) {
	if len(parts) == 0 {
		return tensor.Scalar(0), nil
	}
	out, err := tensor.AddN(parts...)
	if err != nil {
		return nil, jointErrorf(op, ErrBroadcast, "%v", err)
	}
	return out, nil
}
