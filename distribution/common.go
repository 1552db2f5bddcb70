// SPDX-License-Identifier: MIT

package distribution

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/bijector"
	"github.com/jeffpollock9/probability/shape"
	"github.com/jeffpollock9/probability/tensor"
)

var (
	log2Pi      = math.Log(2 * math.Pi)
	sqrt2OverPi = math.Sqrt(2 / math.Pi)
)

// toTensor converts a constructor argument.
func toTensor(kind, param string, v any) (*tensor.Dense, error) {
	if v == nil {
		return nil, fmt.Errorf("%s: %w: parameter %q is nil", kind, ErrInvalidArgument, param)
	}
	t, err := tensor.From(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: parameter %q: %w", kind, ErrInvalidArgument, param, err)
	}
	return t, nil
}

// broadcastBatch returns the broadcast shape of scalar-event parameters.
func broadcastBatch(kind string, ts ...*tensor.Dense) ([]int, error) {
	shapes := make([][]int, len(ts))
	for i, t := range ts {
		shapes[i] = t.Shape()
	}
	out, err := tensor.BroadcastShapes(shapes...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", kind, ErrInvalidArgument, err)
	}
	return out, nil
}

func staticShape(dims []int) func() shape.Shape {
	return func() shape.Shape { return shape.Known(dims...) }
}

func scalarShape() shape.Shape { return shape.Scalar() }

func identityBijector() bijector.Bijector { return bijector.Identity{} }

func softplusBijector() bijector.Bijector { return bijector.Softplus{} }

// sampleDims is [n]+batch.
func sampleDims(n int, batch []int) []int {
	return slices.Concat([]int{n}, batch)
}

// broadcastToBatch materializes each parameter at the batch shape so that
// element i of an [n]+batch draw uses parameter index i % size(batch).
func broadcastToBatch(batch []int, ts ...*tensor.Dense) ([][]float64, error) {
	out := make([][]float64, len(ts))
	for i, t := range ts {
		b, err := t.BroadcastTo(batch...)
		if err != nil {
			return nil, err
		}
		out[i] = b.Data()
	}
	return out, nil
}

// requireAll returns an error naming param when pred fails anywhere.
func requireAll(param, want string, t *tensor.Dense, pred func(float64) bool) error {
	if !t.All(pred) {
		return fmt.Errorf("%s must be %s", param, want)
	}
	return nil
}

func positive(v float64) bool { return v > 0 }

func nonNegative(v float64) bool { return v >= 0 }

// logNdtr is log Φ(v), using the asymptotic tail series where Φ underflows.
func logNdtr(v float64) float64 {
	if v > -20 {
		return math.Log(distuv.UnitNormal.CDF(v))
	}
	v2 := v * v
	return -0.5*v2 - math.Log(-v) - 0.5*log2Pi + math.Log1p(-1/v2+3/(v2*v2))
}
