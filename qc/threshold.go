package qc

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var MALFORMED_THRESHOLDS_ERR error = errors.New("Malformed thresholds")

// Band is the seasonal soft range derived for one bin.
type Band struct {
	SoftMin float64
	SoftMax float64
}

// Thresholds collects every limit used to evaluate a single variable.
type Thresholds struct {
	// Absolute physical bounds, violations nullify the value
	HardMin float64
	HardMax float64

	// Seasonal soft bands keyed by bin, clamped to the hard limits.
	// Bins without an entry fall back to the hard limits.
	Seasonal map[BinKey]Band

	// RateLimit is the maximum allowed absolute change per sampling
	// step. Zero disables the check.
	RateLimit float64

	// FlatlineWindow is how long a value may stay unchanged before it
	// counts as a stuck sensor. Zero disables the check.
	FlatlineWindow time.Duration

	// FlatlineEpsilon is the absolute difference still treated as
	// unchanged by the flatline check.
	FlatlineEpsilon float64

	// Diurnal splits the seasonal bands into day and night bins.
	Diurnal bool

	// NightMax is the ceiling applied while the sun is below the
	// horizon. Only meaningful for radiation variables, nil disables
	// the check.
	NightMax *float64
}

// SoftBand returns the seasonal band for key, falling back to the
// hard limits when the bin was never profiled.
func (t *Thresholds) SoftBand(key BinKey) Band {
	if band, ok := t.Seasonal[key]; ok {
		return band
	}
	return Band{SoftMin: t.HardMin, SoftMax: t.HardMax}
}

// Validate checks the band ordering invariant
// (hard_min <= soft_min <= soft_max <= hard_max for every bin)
// and rejects parameter combinations the evaluator cannot honor.
// Sets that fail validation must not be activated.
func (t *Thresholds) Validate() error {
	if math.IsNaN(t.HardMin) || math.IsNaN(t.HardMax) || t.HardMin > t.HardMax {
		return fmt.Errorf("%w: hard limits [%v, %v]", MALFORMED_THRESHOLDS_ERR, t.HardMin, t.HardMax)
	}

	for key, band := range t.Seasonal {
		if band.SoftMin > band.SoftMax || band.SoftMin < t.HardMin || band.SoftMax > t.HardMax {
			return fmt.Errorf(
				"%w: bin '%s' band [%v, %v] breaks ordering against [%v, %v]",
				MALFORMED_THRESHOLDS_ERR, key, band.SoftMin, band.SoftMax, t.HardMin, t.HardMax,
			)
		}
		if !t.Diurnal && !key.Daytime {
			return fmt.Errorf("%w: night bin '%s' on a variable without diurnal split", MALFORMED_THRESHOLDS_ERR, key)
		}
	}

	if t.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit %v", MALFORMED_THRESHOLDS_ERR, t.RateLimit)
	}
	if t.FlatlineWindow < 0 {
		return fmt.Errorf("%w: negative flatline window %v", MALFORMED_THRESHOLDS_ERR, t.FlatlineWindow)
	}
	if t.FlatlineEpsilon < 0 {
		return fmt.Errorf("%w: negative flatline epsilon %v", MALFORMED_THRESHOLDS_ERR, t.FlatlineEpsilon)
	}
	if t.NightMax != nil && !t.Diurnal {
		return fmt.Errorf("%w: night ceiling on a variable without diurnal split", MALFORMED_THRESHOLDS_ERR)
	}
	return nil
}
