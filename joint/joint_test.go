// SPDX-License-Identifier: MIT

package joint_test

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/joint"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/samplers"
	"github.com/jeffpollock9/probability/tensor"
)

// item unwraps a size-1 result: item(t)(j.LogProb(...)).
func item(t *testing.T) func(*tensor.Dense, error) float64 {
	return func(x *tensor.Dense, err error) float64 {
		t.Helper()
		require.NoError(t, err)
		v, err := x.Item()
		require.NoError(t, err)
		return v
	}
}

func normal(t *testing.T, loc, scale any, opts ...distribution.Option) distribution.Distribution {
	t.Helper()
	d, err := distribution.NewNormal(loc, scale, opts...)
	require.NoError(t, err)
	return d
}

// zyx is z ~ N(0,1), y ~ N(0,1), x ~ N(y+z, 1).
func zyx(t *testing.T, opts ...joint.Option) *joint.Joint {
	t.Helper()
	x := joint.NewDownstream(2, func(up ...*tensor.Dense) (distribution.Distribution, error) {
		loc, err := tensor.Add(up[0], up[1])
		if err != nil {
			return nil, err
		}
		return distribution.NewNormal(loc, 1.0, distribution.WithName("x"))
	})
	j, err := joint.NewSequential([]any{
		normal(t, 0.0, 1.0, distribution.WithName("z")),
		normal(t, 0.0, 1.0, distribution.WithName("y")),
		x,
	}, opts...)
	require.NoError(t, err)
	return j
}

const zyxLogProb = -5.2568155996140185

func TestSequentialLogProbCallingConventions(t *testing.T) {
	j := zyx(t)
	names, err := j.ResolveNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, names)

	calls := map[string][]any{
		"positional": {1.0, 2.0, 3.0},
		"keywords":   {joint.Kw("z", 1.0), joint.Kw("y", 2.0), joint.Kw("x", 3.0)},
		"mixed":      {1.0, 2.0, joint.Kw("x", 3.0)},
		"value":      {joint.Kw("value", []any{1.0, 2.0, 3.0})},
		"structure":  {[]any{1.0, 2.0, 3.0}},
		"with name":  {1.0, 2.0, 3.0, joint.Kw("name", "lp")},
	}
	for name, args := range calls {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, zyxLogProb, item(t)(j.LogProb(args...)), 1e-12)
		})
	}

	assert.InDelta(t, math.Exp(zyxLogProb), item(t)(j.Prob(1.0, 2.0, 3.0)), 1e-15)
}

func TestSequentialLogProbArgumentErrors(t *testing.T) {
	j := zyx(t)

	_, err := j.LogProb(1.0, 2.0)
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "expected values for 3 components")

	_, err = j.LogProb(1.0, joint.Kw("y", 2.0), 3.0)
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "positional argument follows keyword")

	_, err = j.LogProb(joint.Kw("z", 1.0), joint.Kw("z", 2.0))
	assert.ErrorIs(t, err, joint.ErrInvalidArgument)

	_, err = j.LogProb(1.0, 2.0, 3.0, joint.Kw("w", 0.0))
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "these names were invalid: w")

	_, err = j.LogProb(joint.Kw("value", []any{1.0, nil, 3.0}))
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "nil")

	_, err = j.LogProb(joint.Kw("value", []any{1.0, 2.0}))
	assert.ErrorIs(t, err, joint.ErrStructureMismatch)
}

func TestLogProbPartsSumToLogProb(t *testing.T) {
	j, err := joint.NewSequential([]any{
		normal(t, 0.0, 1.0, distribution.WithName("a")),
		normal(t, 1.0, 2.0, distribution.WithName("b")),
	})
	require.NoError(t, err)
	value := []any{0.5, -1.0}

	parts, err := j.LogProbParts(value)
	require.NoError(t, err)
	ps := parts.([]any)
	require.Len(t, ps, 2)
	a, b := item(t)(ps[0].(*tensor.Dense), nil), item(t)(ps[1].(*tensor.Dense), nil)
	assert.InDelta(t, -1.0439385332046727, a, 1e-12)
	assert.InDelta(t, -2.112085713764618, b, 1e-12)
	assert.InDelta(t, a+b, item(t)(j.LogProb(value)), 1e-12)

	probs, err := j.ProbParts(value)
	require.NoError(t, err)
	pa := item(t)(probs.([]any)[0].(*tensor.Dense), nil)
	pb := item(t)(probs.([]any)[1].(*tensor.Dense), nil)
	assert.InDelta(t, pa*pb, item(t)(j.Prob(value)), 1e-12)
}

func TestSequentialSampleShapes(t *testing.T) {
	j := zyx(t)
	seed := samplers.NewSeed(11)

	v, err := j.Sample([]int{4}, seed)
	require.NoError(t, err)
	xs := v.([]any)
	require.Len(t, xs, 3)
	for i, x := range xs {
		assert.Equal(t, []int{4}, x.(*tensor.Dense).Shape(), "component %d", i)
	}

	again, err := j.Sample([]int{4}, seed)
	require.NoError(t, err)
	assert.Equal(t, xs[2].(*tensor.Dense).Data(), again.([]any)[2].(*tensor.Dense).Data())

	lp, err := j.LogProb(v)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, lp.Shape())

	dists, _, err := j.SampleDistributions([]int{4}, seed)
	require.NoError(t, err)
	ds := dists.([]any)
	batch, err := ds[2].(distribution.Distribution).BatchShapeTensor()
	require.NoError(t, err)
	assert.Equal(t, []int{4}, batch)
}

func TestSampleWithKeywords(t *testing.T) {
	j := zyx(t)
	seed := samplers.NewSeed(5)

	v, err := j.Sample(nil, seed, joint.Kw("z", 10.0))
	require.NoError(t, err)
	xs := v.([]any)
	z := item(t)(xs[0].(*tensor.Dense), nil)
	y := item(t)(xs[1].(*tensor.Dense), nil)
	x := item(t)(xs[2].(*tensor.Dense), nil)
	assert.Equal(t, 10.0, z)
	assert.InDelta(t, y+10, x, 8)

	v, err = j.Sample(nil, seed, joint.Kw("value", []any{nil, 2.0, nil}))
	require.NoError(t, err)
	assert.Equal(t, 2.0, item(t)(v.([]any)[1].(*tensor.Dense), nil))

	_, err = j.Sample(nil, seed, joint.Kw("value", []any{nil, 2.0, nil}), joint.Kw("z", 1.0))
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "supplied both value and keyword arguments")

	_, err = j.Sample(nil, seed, joint.Kw("w", 1.0))
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "distribution names are z, y, x")
}

func TestNamesFallbackAndLazyErrors(t *testing.T) {
	j, err := joint.NewSequential([]any{
		normal(t, 0.0, 1.0),
		normal(t, 0.0, 1.0, distribution.WithName("Normal_loc")),
		normal(t, 0.0, 1.0, distribution.WithName("w")),
	})
	require.NoError(t, err)
	names, err := j.ResolveNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"var0", "var1", "w"}, names)

	dup, err := joint.NewSequential([]any{
		normal(t, 0.0, 1.0, distribution.WithName("a")),
		normal(t, 0.0, 1.0, distribution.WithName("a")),
	})
	require.NoError(t, err)
	_, err = dup.LogProb(0.0, 0.0)
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "duplicated distribution name: a")

	reserved, err := joint.NewSequential([]any{normal(t, 0.0, 1.0, distribution.WithName("value"))})
	require.NoError(t, err)
	_, err = reserved.ResolveNames()
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "not allowed")
}

func TestSequentialConstructionErrors(t *testing.T) {
	_, err := joint.NewSequential([]any{42})
	assert.ErrorIs(t, err, joint.ErrModel)

	early := joint.NewDownstream(1, func(...*tensor.Dense) (distribution.Distribution, error) { return nil, nil })
	_, err = joint.NewSequential([]any{early})
	assert.ErrorIs(t, err, joint.ErrModel)

	_, err = joint.NewCoroutine(nil)
	assert.ErrorIs(t, err, joint.ErrModel)
}

// muX is mu ~ N(0,1), x ~ N(mu, 1), declared x first.
func muX(t *testing.T) map[string]any {
	x := joint.DependsOn(func(args ...*tensor.Dense) (distribution.Distribution, error) {
		return distribution.NewNormal(args[0], 1.0)
	}, "mu")
	return map[string]any{"x": x, "mu": normal(t, 0.0, 1.0)}
}

func TestNamedModel(t *testing.T) {
	j, err := joint.NewNamed(muX(t))
	require.NoError(t, err)
	assert.Equal(t, "JointDistributionNamed", j.Name())

	names, err := j.ResolveNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"mu", "x"}, names)

	lp := item(t)(j.LogProb(joint.Kw("x", 1.0), joint.Kw("mu", 0.0)))
	assert.InDelta(t, -2.3378770664093453, lp, 1e-12)
	assert.InDelta(t, lp, item(t)(j.LogProb(map[string]any{"mu": 0.0, "x": 1.0})), 1e-12)

	_, err = j.LogProb(0.0, 1.0)
	require.ErrorIs(t, err, joint.ErrInvalidArgument)
	assert.ErrorContains(t, err, "unordered")

	v, err := j.Sample([]int{2}, samplers.NewSeed(3))
	require.NoError(t, err)
	m := v.(map[string]any)
	assert.Len(t, m, 2)
	assert.Equal(t, []int{2}, m["x"].(*tensor.Dense).Shape())
}

func TestNamedOrderedModel(t *testing.T) {
	spec := nest.NewOrderedMap().
		Set("x", joint.DependsOn(func(args ...*tensor.Dense) (distribution.Distribution, error) {
			return distribution.NewNormal(args[0], 1.0)
		}, "mu")).
		Set("mu", normal(t, 0.0, 1.0))
	j, err := joint.NewNamed(spec)
	require.NoError(t, err)

	lp := item(t)(j.LogProb(0.0, 1.0))
	assert.InDelta(t, -2.3378770664093453, lp, 1e-12)

	v, err := j.Sample(nil, samplers.NewSeed(1))
	require.NoError(t, err)
	om := v.(*nest.OrderedMap)
	assert.Equal(t, []string{"x", "mu"}, om.Keys())
}

func TestNamedModelErrors(t *testing.T) {
	same := func(args ...*tensor.Dense) (distribution.Distribution, error) {
		return distribution.NewNormal(args[0], 1.0)
	}

	_, err := joint.NewNamed(map[string]any{
		"a": joint.DependsOn(same, "b"),
		"b": joint.DependsOn(same, "a"),
	})
	require.ErrorIs(t, err, joint.ErrModel)
	assert.ErrorContains(t, err, "cycle")

	_, err = joint.NewNamed(map[string]any{"a": joint.DependsOn(same, "nope")})
	require.ErrorIs(t, err, joint.ErrModel)
	assert.ErrorContains(t, err, "unknown")

	_, err = joint.NewNamed([]any{normal(t, 0.0, 1.0)})
	assert.ErrorIs(t, err, joint.ErrModel)
}

func TestCoroutineModel(t *testing.T) {
	j, err := joint.NewCoroutine(func(i int, up []*tensor.Dense) (any, error) {
		switch i {
		case 0:
			return joint.Root{Distribution: normal(t, 0.0, 1.0)}, nil
		case 1:
			return distribution.NewNormal(up[0], 1.0)
		}
		return nil, nil
	}, joint.WithName("walk"))
	require.NoError(t, err)
	assert.Equal(t, "walk", j.Name())

	assert.InDelta(t, -2.0878770664093453, item(t)(j.LogProb(0.5, 1.0)), 1e-12)

	v, err := j.Sample([]int{3}, samplers.NewSeed(9))
	require.NoError(t, err)
	for _, x := range v.([]any) {
		assert.Equal(t, []int{3}, x.(*tensor.Dense).Shape())
	}
}

func TestModelFlattenRoundTrip(t *testing.T) {
	seq := zyx(t)
	value := []any{1.0, 2.0, 3.0}
	flat, err := seq.ModelFlatten(value)
	require.NoError(t, err)
	back, err := seq.ModelUnflatten(flat)
	require.NoError(t, err)
	assert.Equal(t, value, back)

	tuple := &nest.NamedTuple{TypeName: "Point", Fields: []string{"z", "y", "x"}, Values: value}
	flat, err = seq.ModelFlatten(tuple)
	require.NoError(t, err)
	assert.Equal(t, value, flat)

	_, err = seq.ModelFlatten([]any{1.0})
	assert.ErrorIs(t, err, joint.ErrStructureMismatch)

	named, err := joint.NewNamed(muX(t))
	require.NoError(t, err)
	flat, err = named.ModelFlatten(map[string]any{"x": 1.0, "mu": 0.0})
	require.NoError(t, err)
	assert.Equal(t, []any{0.0, 1.0}, flat)
	back, err = named.ModelUnflatten(flat)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1.0, "mu": 0.0}, back)

	_, err = named.ModelFlatten(map[string]any{"q": 1.0})
	assert.ErrorIs(t, err, joint.ErrStructureMismatch)
}

func TestStructuralProperties(t *testing.T) {
	j := zyx(t)

	dtype, err := j.DType()
	require.NoError(t, err)
	assert.Equal(t, []any{distribution.Float64, distribution.Float64, distribution.Float64}, dtype)

	rep, err := j.ReparameterizationType()
	require.NoError(t, err)
	for _, r := range rep.([]any) {
		assert.Equal(t, distribution.FullyReparameterized, r)
	}

	batch, err := j.BatchShapeTensor(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{[]int{}, []int{}, []int{}}, batch)

	batch, err = j.BatchShapeTensor([]int{3})
	require.NoError(t, err)
	assert.Equal(t, []any{[]int{}, []int{}, []int{3}}, batch)

	event, err := j.EventShapeTensor([]int{3})
	require.NoError(t, err)
	assert.Equal(t, []any{[]int{}, []int{}, []int{}}, event)

	scalar, err := j.IsScalarEvent()
	require.NoError(t, err)
	assert.Equal(t, []any{true, true, true}, scalar)

	scalar, err = j.IsScalarBatch()
	require.NoError(t, err)
	assert.Equal(t, []any{true, true, true}, scalar)

	assert.Contains(t, j.String(), "JointDistributionSequential")
}

func TestValidateArgsRejectsBroadcast(t *testing.T) {
	components := func() []any {
		return []any{
			normal(t, []float64{0, 0}, 1.0, distribution.WithName("a")),
			normal(t, 0.0, 1.0, distribution.WithName("b")),
		}
	}

	loose, err := joint.NewSequential(components())
	require.NoError(t, err)
	lp, err := loose.LogProb([]float64{0, 0}, 0.0)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, lp.Shape())

	strict, err := joint.NewSequential(components(), joint.WithValidateArgs(true))
	require.NoError(t, err)
	assert.True(t, strict.ValidateArgs())
	_, err = strict.LogProb([]float64{0, 0}, 0.0)
	assert.ErrorIs(t, err, joint.ErrBroadcast)
}

func TestContextCaching(t *testing.T) {
	var walks atomic.Int64
	j, err := joint.NewCoroutine(func(i int, _ []*tensor.Dense) (any, error) {
		if i > 0 {
			return nil, nil
		}
		walks.Add(1)
		return joint.Root{Distribution: normal(t, 0.0, 1.0)}, nil
	})
	require.NoError(t, err)

	_, err = j.DType()
	require.NoError(t, err)
	_, err = j.BatchShape()
	require.NoError(t, err)
	assert.Equal(t, int64(1), walks.Load())

	other := j.InContext(joint.NewContext())
	assert.NotEqual(t, j.Context(), other.Context())
	_, err = other.EventShape()
	require.NoError(t, err)
	assert.Equal(t, int64(2), walks.Load())

	_, err = j.DType()
	require.NoError(t, err)
	assert.Equal(t, int64(2), walks.Load())
}

func TestCacheConflict(t *testing.T) {
	started, release := make(chan struct{}), make(chan struct{})
	var walks atomic.Int64
	j, err := joint.NewCoroutine(func(i int, _ []*tensor.Dense) (any, error) {
		if i > 0 {
			return nil, nil
		}
		if walks.Add(1) == 1 {
			close(started)
			<-release
			d, err := distribution.NewNormal(0.0, 1.0)
			return joint.Root{Distribution: d}, err
		}
		e, err := distribution.NewExponential(1.0)
		return joint.Root{Distribution: e}, err
	})
	require.NoError(t, err)

	slow := make(chan error, 1)
	go func() {
		_, err := j.DType()
		slow <- err
	}()
	<-started
	_, err = j.DType()
	require.NoError(t, err)
	close(release)
	assert.ErrorIs(t, <-slow, joint.ErrCacheConflict)
}

func TestSampleDataDependentStructure(t *testing.T) {
	var positive, negative atomic.Int64
	j, err := joint.NewCoroutine(func(i int, up []*tensor.Dense) (any, error) {
		switch i {
		case 0:
			return joint.Root{Distribution: normal(t, 0.0, 1.0)}, nil
		case 1:
			u, err := up[0].Item()
			if err != nil {
				return nil, err
			}
			if u > 0 {
				positive.Add(1)
				return distribution.NewNormal(0.0, 1.0)
			}
			negative.Add(1)
			return distribution.NewExponential(1.0)
		}
		return nil, nil
	})
	require.NoError(t, err)

	for s := range 20 {
		_, err := j.Sample(nil, samplers.NewSeed(int64(s)))
		require.NoError(t, err, "seed %d", s)
	}
	assert.Positive(t, positive.Load())
	assert.Positive(t, negative.Load())

	_, err = j.DType()
	assert.NoError(t, err)
}

func TestOrderedNamedModelAcceptsSequence(t *testing.T) {
	spec := nest.NewOrderedMap().
		Set("x", joint.DependsOn(func(args ...*tensor.Dense) (distribution.Distribution, error) {
			return distribution.NewNormal(args[0], 1.0)
		}, "mu")).
		Set("mu", normal(t, 0.0, 1.0))
	j, err := joint.NewNamed(spec)
	require.NoError(t, err)

	want := item(t)(j.LogProb(nest.NewOrderedMap().Set("x", 0.5).Set("mu", 1.5)))
	assert.InDelta(t, want, item(t)(j.LogProb([]any{0.5, 1.5})), 1e-12)
	assert.InDelta(t, want, item(t)(j.LogProb(map[string]any{"mu": 1.5, "x": 0.5})), 1e-12)

	parts, err := j.LogProbParts([]any{0.5, 1.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "mu"}, parts.(*nest.OrderedMap).Keys())

	fromSeq, err := j.ModelFlatten([]any{0.5, 1.5})
	require.NoError(t, err)
	fromMap, err := j.ModelFlatten(nest.NewOrderedMap().Set("x", 0.5).Set("mu", 1.5))
	require.NoError(t, err)
	assert.Equal(t, fromMap, fromSeq)

	_, err = j.LogProb([]any{0.5})
	assert.ErrorIs(t, err, joint.ErrStructureMismatch)

	unordered, err := joint.NewNamed(muX(t))
	require.NoError(t, err)
	_, err = unordered.ModelFlatten([]any{0.5, 1.5})
	assert.ErrorIs(t, err, joint.ErrStructureMismatch)
}
