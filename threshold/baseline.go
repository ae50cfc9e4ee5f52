package threshold

import (
	"slices"
	"time"

	"obsqc/qc"
)

// Sample is one accepted historical value.
type Sample struct {
	Obstime time.Time
	Value   float64
}

// Baseline is the rolling history of accepted values for one
// variable. Nullified values never enter it, so known-bad data cannot
// widen the thresholds derived from it later.
type Baseline struct {
	Variable string
	Samples  []Sample
}

// Add appends the output value of a result if its flag accepts it.
func (b *Baseline) Add(res qc.Result) {
	if !res.Code.Accepted() || res.Corrected == nil {
		return
	}
	b.Samples = append(b.Samples, Sample{Obstime: res.Obstime, Value: *res.Corrected})
}

// AddSample appends an already accepted sample, used when loading
// stored history.
func (b *Baseline) AddSample(t time.Time, v float64) {
	b.Samples = append(b.Samples, Sample{Obstime: t, Value: v})
}

// Sorted returns a copy of the samples in ascending timestamp order.
func (b *Baseline) Sorted() []Sample {
	out := slices.Clone(b.Samples)
	slices.SortFunc(out, func(x, y Sample) int {
		return x.Obstime.Compare(y.Obstime)
	})
	return out
}

// Trim drops samples more than the given years older than the newest
// sample and returns the number removed.
func (b *Baseline) Trim(years int) int {
	if years <= 0 || len(b.Samples) == 0 {
		return 0
	}

	var newest time.Time
	for _, s := range b.Samples {
		if s.Obstime.After(newest) {
			newest = s.Obstime
		}
	}
	cutoff := newest.AddDate(-years, 0, 0)

	kept := b.Samples[:0]
	for _, s := range b.Samples {
		if s.Obstime.Before(cutoff) {
			continue
		}
		kept = append(kept, s)
	}

	removed := len(b.Samples) - len(kept)
	b.Samples = kept
	return removed
}
