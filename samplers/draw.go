// SPDX-License-Identifier: MIT

package samplers

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jeffpollock9/probability/tensor"
)

// Fill builds a tensor of the given shape whose i-th row-major element is
// draw(i, src). One source seeded from seed is shared by every element, so
// the result depends only on (dims, seed, draw).
// Complexity: O(size).
func Fill(dims []int, seed Seed, draw func(i int, src rand.Source) float64) (*tensor.Dense, error) {
	n := 1
	for _, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("samplers.Fill: %w: %v", tensor.ErrBadShape, dims)
		}
		n *= d
	}
	src := seed.Source()
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = draw(i, src)
	}
	return tensor.New(dims, buf)
}

// Normal draws standard normal values of the given shape.
func Normal(dims []int, seed Seed) (*tensor.Dense, error) {
	return Fill(dims, seed, func(_ int, src rand.Source) float64 {
		return distuv.Normal{Mu: 0, Sigma: 1, Src: src}.Rand()
	})
}

// Uniform draws values uniformly from [low, high) with the given shape.
//
// Errors: tensor.ErrBadShape for negative dims; an error when low >= high.
func Uniform(dims []int, low, high float64, seed Seed) (*tensor.Dense, error) {
	if !(low < high) {
		return nil, fmt.Errorf("samplers.Uniform: need low < high, got [%g, %g)", low, high)
	}
	return Fill(dims, seed, func(_ int, src rand.Source) float64 {
		return distuv.Uniform{Min: low, Max: high, Src: src}.Rand()
	})
}
