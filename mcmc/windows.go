// SPDX-License-Identifier: MIT

package mcmc

// slowWindowUnits are the lengths of the slow windows in units of the slow
// window size.
var slowWindowUnits = []int{1, 2, 4, 8}

// WindowSizes splits an adaptation budget of n steps into the first fast
// window, the slow window unit and the last fast window:
//
//	slow  = n / 21
//	first = 3 * slow
//	last  = n - first - 15*slow
//
// so that first + slow*(1+2+4+8) + last == n for every n >= 0; the last
// window absorbs the remainder. WindowSizes(525) is (75, 25, 75). A negative
// n yields zeros.
func WindowSizes(n int) (first, slow, last int) {
	if n <= 0 {
		return 0, 0, 0
	}
	slow = n / 21
	first = 3 * slow
	last = n - first - 15*slow
	return first, slow, last
}

// Phase is the role of one step in the sampling schedule.
type Phase int

const (
	// PhaseFast steps tune the step size only (first window).
	PhaseFast Phase = iota
	// PhaseSlow steps also collect the state variance.
	PhaseSlow
	// PhaseLast steps tune the step size under the final mass matrix.
	PhaseLast
	// PhaseSampling steps run with fixed parameters.
	PhaseSampling
)

// String names the phase for logs and metric labels.
func (p Phase) String() string {
	switch p {
	case PhaseFast:
		return "fast"
	case PhaseSlow:
		return "slow"
	case PhaseLast:
		return "last"
	case PhaseSampling:
		return "sampling"
	default:
		return "unknown"
	}
}

// Schedule assigns a phase to each step of a run with a given adaptation
// budget. The zero value has no adaptation.
type Schedule struct {
	n, first, slow, last int
	ends                 []int // exclusive end step of each slow window
}

// NewSchedule lays out the windows of WindowSizes(numAdaptation).
func NewSchedule(numAdaptation int) Schedule {
	first, slow, last := WindowSizes(numAdaptation)
	s := Schedule{n: first + 15*slow + last, first: first, slow: slow, last: last}
	if slow == 0 {
		return s
	}
	end := first
	for _, u := range slowWindowUnits {
		end += u * slow
		s.ends = append(s.ends, end)
	}
	return s
}

// NumAdaptation returns the adaptation budget.
func (s Schedule) NumAdaptation() int { return s.n }

// Windows returns (first, slow, last) as WindowSizes does.
func (s Schedule) Windows() (first, slow, last int) { return s.first, s.slow, s.last }

// SlowWindowEnds returns the exclusive end step of each slow window.
func (s Schedule) SlowWindowEnds() []int {
	out := make([]int, len(s.ends))
	copy(out, s.ends)
	return out
}

// Phase returns the phase of step (0-based).
func (s Schedule) Phase(step int) Phase {
	switch {
	case step >= s.n:
		return PhaseSampling
	case step < s.first:
		return PhaseFast
	case len(s.ends) > 0 && step < s.ends[len(s.ends)-1]:
		return PhaseSlow
	default:
		return PhaseLast
	}
}

// SlowWindow returns the index of the slow window holding step, or -1.
func (s Schedule) SlowWindow(step int) int {
	if step < s.first {
		return -1
	}
	for i, end := range s.ends {
		if step < end {
			return i
		}
	}
	return -1
}

// ClosesSlowWindow reports whether step is the last step of a slow window.
func (s Schedule) ClosesSlowWindow(step int) bool {
	for _, end := range s.ends {
		if step == end-1 {
			return true
		}
	}
	return false
}
