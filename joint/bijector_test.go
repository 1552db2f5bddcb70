// SPDX-License-Identifier: MIT

package joint_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffpollock9/probability/distribution"
	"github.com/jeffpollock9/probability/joint"
	"github.com/jeffpollock9/probability/nest"
	"github.com/jeffpollock9/probability/tensor"
)

func scalars(t *testing.T, v any) []float64 {
	t.Helper()
	var out []float64
	for _, x := range v.([]any) {
		out = append(out, item(t)(x.(*tensor.Dense), nil))
	}
	return out
}

func TestBijectorPerComponent(t *testing.T) {
	hn, err := distribution.NewHalfNormal(1.0, distribution.WithName("s"))
	require.NoError(t, err)
	j, err := joint.NewSequential([]any{
		hn,
		joint.NewDownstream(1, func(up ...*tensor.Dense) (distribution.Distribution, error) {
			return distribution.NewNormal(0.0, up[0], distribution.WithName("x"))
		}),
	})
	require.NoError(t, err)
	b := j.DefaultEventSpaceBijector()

	y, err := b.Forward([]any{0.0, 0.5})
	require.NoError(t, err)
	got := scalars(t, y)
	assert.InDelta(t, math.Log(2), got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)

	x, err := b.Inverse(y)
	require.NoError(t, err)
	got = scalars(t, x)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)

	assert.InDelta(t, -math.Log(2), item(t)(b.ForwardLogDetJacobian([]any{0.0, 0.5})), 1e-12)
	assert.InDelta(t, math.Log(2), item(t)(b.InverseLogDetJacobian(y)), 1e-12)

	_, err = b.Forward([]any{0.0})
	assert.ErrorIs(t, err, joint.ErrStructureMismatch)
}

// A downstream support depends on the constrained upstream value:
// u ~ Uniform(0, 1), v ~ Uniform(0, u).
func TestBijectorConditionsOnConstrainedValues(t *testing.T) {
	u, err := distribution.NewUniform(0.0, 1.0, distribution.WithName("u"))
	require.NoError(t, err)
	j, err := joint.NewSequential([]any{
		u,
		joint.NewDownstream(1, func(up ...*tensor.Dense) (distribution.Distribution, error) {
			return distribution.NewUniform(0.0, up[0], distribution.WithName("v"))
		}),
	})
	require.NoError(t, err)
	b := j.DefaultEventSpaceBijector()

	y, err := b.Forward([]any{0.0, 0.0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.25}, scalars(t, y), 1e-12)

	x, err := b.Inverse([]any{0.5, 0.25})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0}, scalars(t, x), 1e-12)

	fldj := item(t)(b.ForwardLogDetJacobian([]any{0.0, 0.0}))
	assert.InDelta(t, -5*math.Log(2), fldj, 1e-12)
	assert.InDelta(t, -fldj, item(t)(b.InverseLogDetJacobian([]any{0.5, 0.25})), 1e-12)
}

func TestPinnedBijectorUnconstrainedDensity(t *testing.T) {
	hn, err := distribution.NewHalfNormal(1.0)
	require.NoError(t, err)
	x := joint.DependsOn(func(args ...*tensor.Dense) (distribution.Distribution, error) {
		return distribution.NewNormal(0.0, args[0])
	}, "scale")
	j, err := joint.NewNamed(map[string]any{"scale": hn, "x": x})
	require.NoError(t, err)
	p, err := j.Pin(joint.Kw("x", 0.3))
	require.NoError(t, err)
	assert.Equal(t, []string{"scale"}, p.FreeNames())

	b := p.DefaultEventSpaceBijector()
	y, err := b.Forward(nest.NewOrderedMap().Set("scale", 0.0))
	require.NoError(t, err)
	s, _ := y.(*nest.OrderedMap).Get("scale")
	assert.InDelta(t, math.Log(2), item(t)(s.(*tensor.Dense), nil), 1e-12)

	free := []*tensor.Dense{tensor.Scalar(0)}
	constrained, err := b.ForwardFlat(free)
	require.NoError(t, err)
	lp := item(t)(p.UnnormalizedLogProbFlat(constrained))
	ldj := item(t)(b.ForwardLogDetJacobianFlat(free))
	assert.InDelta(t, -1.1121050763720888, lp, 1e-12)
	assert.InDelta(t, -1.8052522569320342, lp+ldj, 1e-12)

	back, err := b.InverseFlat(constrained)
	require.NoError(t, err)
	assert.InDelta(t, 0, item(t)(back[0], nil), 1e-12)
}
