package threshold

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"obsqc/qc"
)

var INSUFFICIENT_HISTORY_ERR error = errors.New("Not enough history in bin")

// Profile computes the percentile band of one bin sample, clamped to
// the hard limits. When the sample is smaller than MinBinSamples the
// band falls back to the hard limits and the error reports why, the
// returned band stays usable either way.
func Profile(values []float64, opts Options, hardMin, hardMax float64) (qc.Band, error) {
	if len(values) < opts.MinBinSamples {
		return qc.Band{SoftMin: hardMin, SoftMax: hardMax},
			fmt.Errorf("%w: got %d samples, need %d", INSUFFICIENT_HISTORY_ERR, len(values), opts.MinBinSamples)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	band := qc.Band{
		SoftMin: percentile(sorted, opts.LowerPercentile),
		SoftMax: percentile(sorted, opts.UpperPercentile),
	}
	band.SoftMin = math.Max(band.SoftMin, hardMin)
	band.SoftMax = math.Min(band.SoftMax, hardMax)
	return band, nil
}

// percentile interpolates linearly between the two closest ranks.
// The input must be sorted in ascending order.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	rank := p / 100 * float64(n-1)
	rank = math.Max(0, math.Min(rank, float64(n-1)))

	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// MaxRate derives a rate limit from the absolute step-to-step changes
// in the sample. Only pairs exactly one step apart count, a change
// across a gap says nothing about the sampling rate. A trim
// percentile above zero takes that percentile of the observed changes
// instead of the maximum. Zero is returned when no pair qualifies,
// which disables the rate check.
func MaxRate(samples []Sample, step time.Duration, trim float64) float64 {
	if step <= 0 || len(samples) < 2 {
		return 0
	}

	var diffs []float64
	for i := 1; i < len(samples); i++ {
		if samples[i].Obstime.Sub(samples[i-1].Obstime) != step {
			continue
		}
		diffs = append(diffs, math.Abs(samples[i].Value-samples[i-1].Value))
	}
	if len(diffs) == 0 {
		return 0
	}

	if trim <= 0 || trim >= 100 {
		return slices.Max(diffs)
	}
	slices.Sort(diffs)
	return percentile(diffs, trim)
}
