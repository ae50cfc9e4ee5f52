package qc

import (
	"math"
	"time"
)

// sample is a committed (timestamp, value) pair.
type sample struct {
	time  time.Time
	value float64
}

// Signals reports which of the order-sensitive checks fire for a
// candidate observation.
type Signals struct {
	// RateExceeded is set when the change from the last accepted
	// sample, normalized to one step, exceeds the rate limit.
	RateExceeded bool

	// Delta is the normalized absolute change used for the rate
	// check. Zero when no comparison was possible.
	Delta float64

	// GapBoundary is set when the last accepted sample is more than
	// one step away, the rate check is skipped for such pairs instead
	// of comparing across the gap.
	GapBoundary bool

	// Flatline is set when accepting the value would complete the
	// flatline window.
	Flatline bool
}

// Scanner holds the rolling state of one ordered variable stream: the
// last accepted sample, used by the rate-of-change and gap checks,
// and the current run of unchanged values, used by the flatline
// check. The state is split from the evaluation itself because the
// checks have to run before the final flag is known, while the state
// may only advance once it is: a value the evaluator ends up
// nullifying must not become the reference for the next sample.
// Call Check first, then report the outcome through Commit.
type Scanner struct {
	step      time.Duration
	rateLimit float64
	window    time.Duration
	epsilon   float64

	prev *sample // last accepted sample
	run  *sample // start and anchor value of the current flatline run
}

// NewScanner returns a scanner for a series sampled every step,
// using the rate and flatline parameters of t.
func NewScanner(step time.Duration, t *Thresholds) *Scanner {
	return &Scanner{
		step:      step,
		rateLimit: t.RateLimit,
		window:    t.FlatlineWindow,
		epsilon:   t.FlatlineEpsilon,
	}
}

// Check runs the rate-of-change and flatline checks for a value at
// time t. It does not mutate the scanner.
func (s *Scanner) Check(t time.Time, value float64) Signals {
	var sig Signals

	if s.prev != nil && s.step > 0 {
		dt := t.Sub(s.prev.time)
		if dt <= 0 || dt > s.step {
			sig.GapBoundary = true
		} else if s.rateLimit > 0 {
			// Samples closer together than one step are scaled up to
			// the per-step equivalent before comparing
			sig.Delta = math.Abs(value-s.prev.value) * float64(s.step) / float64(dt)
			sig.RateExceeded = sig.Delta > s.rateLimit
		}
	}

	if s.window > 0 && s.run != nil && math.Abs(value-s.run.value) <= s.epsilon {
		// Each sample stands for one step of elapsed time, so a run
		// over n samples spans (n-1) intervals plus one step
		if t.Sub(s.run.time)+s.step >= s.window {
			sig.Flatline = true
		}
	}

	return sig
}

// Commit records the evaluated observation. Accepted values become
// the reference for the next rate comparison and extend or restart
// the flatline run. Nullified and missing records break the run but
// leave the last accepted sample in place, the next rate check then
// reports a gap boundary instead of comparing across the hole.
func (s *Scanner) Commit(t time.Time, value *float64, accepted bool) {
	if value == nil || !accepted {
		s.run = nil
		return
	}

	v := *value
	s.prev = &sample{time: t, value: v}
	if s.run == nil || math.Abs(v-s.run.value) > s.epsilon {
		s.run = &sample{time: t, value: v}
	}
}
