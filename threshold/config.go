package threshold

import (
	"fmt"
	"time"

	"obsqc/qc"
)

// Options control how seasonal bands and rate limits are derived
// from history.
type Options struct {
	// Percentile pair delimiting the seasonal band
	LowerPercentile float64
	UpperPercentile float64

	// Years of history kept in the rolling baseline
	WindowYears int

	// Minimum number of samples a bin needs before its percentiles
	// are trusted
	MinBinSamples int

	// Percentile of the observed step-to-step changes used as the
	// derived rate limit, zero takes the maximum
	RateTrimPercentile float64
}

func DefaultOptions() Options {
	return Options{
		LowerPercentile: 1,
		UpperPercentile: 99,
		WindowYears:     3,
		MinBinSamples:   30,
	}
}

func (o *Options) Validate() error {
	if o.LowerPercentile < 0 || o.UpperPercentile > 100 || o.LowerPercentile >= o.UpperPercentile {
		return fmt.Errorf("%w: percentile pair (%v, %v)", qc.MALFORMED_THRESHOLDS_ERR, o.LowerPercentile, o.UpperPercentile)
	}
	if o.WindowYears <= 0 {
		return fmt.Errorf("%w: rolling window of %d years", qc.MALFORMED_THRESHOLDS_ERR, o.WindowYears)
	}
	if o.MinBinSamples < 1 {
		return fmt.Errorf("%w: minimum bin sample size %d", qc.MALFORMED_THRESHOLDS_ERR, o.MinBinSamples)
	}
	if o.RateTrimPercentile < 0 || o.RateTrimPercentile > 100 {
		return fmt.Errorf("%w: rate trim percentile %v", qc.MALFORMED_THRESHOLDS_ERR, o.RateTrimPercentile)
	}
	return nil
}

// VariableConfig is the static part of a variable's thresholds, the
// values that do not come from history.
type VariableConfig struct {
	Name    string
	HardMin float64
	HardMax float64

	// Diurnal variables keep separate day and night statistics
	Diurnal bool

	// NightMax is the ceiling applied while the sun is down,
	// radiation variables only
	NightMax *float64

	// RateLimit overrides the rate derived from history when set
	RateLimit *float64

	FlatlineWindow  time.Duration
	FlatlineEpsilon float64

	// SnowFreeMonths lists months where the measured quantity is
	// expected to be absent. Their seasonal band is forced to
	// [HardMin, SnowFreeMax] regardless of history.
	SnowFreeMonths []time.Month
	SnowFreeMax    float64
}
