// SPDX-License-Identifier: MIT

package mcmc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeffpollock9/probability/mcmc"
)

func TestWindowSizes525(t *testing.T) {
	first, slow, last := mcmc.WindowSizes(525)
	assert.Equal(t, 75, first)
	assert.Equal(t, 25, slow)
	assert.Equal(t, 75, last)
}

func TestWindowSizesSumExactly(t *testing.T) {
	for _, n := range []int{0, 1, 20, 21, 100, 524, 525, 10000} {
		first, slow, last := mcmc.WindowSizes(n)
		assert.Equal(t, n, first+slow+2*slow+4*slow+8*slow+last, "n=%d", n)
		assert.GreaterOrEqual(t, last, 0, "n=%d", n)
	}
}

func TestSchedulePhases(t *testing.T) {
	s := mcmc.NewSchedule(525)
	assert.Equal(t, 525, s.NumAdaptation())
	assert.Equal(t, []int{100, 150, 250, 450}, s.SlowWindowEnds())

	cases := []struct {
		step   int
		phase  mcmc.Phase
		window int
		closes bool
	}{
		{0, mcmc.PhaseFast, -1, false},
		{74, mcmc.PhaseFast, -1, false},
		{75, mcmc.PhaseSlow, 0, false},
		{99, mcmc.PhaseSlow, 0, true},
		{100, mcmc.PhaseSlow, 1, false},
		{149, mcmc.PhaseSlow, 1, true},
		{249, mcmc.PhaseSlow, 2, true},
		{449, mcmc.PhaseSlow, 3, true},
		{450, mcmc.PhaseLast, -1, false},
		{524, mcmc.PhaseLast, -1, false},
		{525, mcmc.PhaseSampling, -1, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.phase, s.Phase(tc.step), "step %d", tc.step)
		assert.Equal(t, tc.window, s.SlowWindow(tc.step), "step %d", tc.step)
		assert.Equal(t, tc.closes, s.ClosesSlowWindow(tc.step), "step %d", tc.step)
	}
	assert.Equal(t, "slow", mcmc.PhaseSlow.String())
}

func TestScheduleWithoutSlowWindows(t *testing.T) {
	s := mcmc.NewSchedule(10)
	assert.Empty(t, s.SlowWindowEnds())
	for step := range 10 {
		assert.Equal(t, mcmc.PhaseLast, s.Phase(step))
		assert.False(t, s.ClosesSlowWindow(step))
	}
	assert.Equal(t, mcmc.PhaseSampling, s.Phase(10))

	var none mcmc.Schedule
	assert.Equal(t, mcmc.PhaseSampling, none.Phase(0))
}
