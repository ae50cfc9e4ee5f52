package threshold

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"obsqc/qc"
)

// Builder derives a fresh threshold set from the rolling baselines of
// one station.
type Builder struct {
	Station string
	Binner  *qc.Binner
	// Step is the expected sampling interval of the station's series
	Step time.Duration
	Opts Options
}

// Build profiles every configured variable against its baseline and
// returns a new set version. Bins with too little history fall back
// to the hard limits with a warning. A configuration that produces
// malformed thresholds is fatal, the caller keeps the previous
// version in that case.
func (b *Builder) Build(configs []VariableConfig, baselines map[string]*Baseline) (*Set, error) {
	if err := b.Opts.Validate(); err != nil {
		return nil, err
	}

	set := &Set{
		Station:   b.Station,
		Version:   uuid.New().String(),
		BuiltAt:   time.Now().UTC(),
		Variables: make(map[string]*qc.Thresholds, len(configs)),
	}

	for _, cfg := range configs {
		thr, err := b.buildVariable(cfg, baselines[cfg.Name])
		if err != nil {
			return nil, err
		}
		set.Variables[cfg.Name] = thr
	}
	return set, nil
}

func (b *Builder) buildVariable(cfg VariableConfig, baseline *Baseline) (*qc.Thresholds, error) {
	logstr := fmt.Sprintf("%s - %s: ", b.Station, cfg.Name)

	thr := &qc.Thresholds{
		HardMin:         cfg.HardMin,
		HardMax:         cfg.HardMax,
		Seasonal:        make(map[qc.BinKey]qc.Band),
		FlatlineWindow:  cfg.FlatlineWindow,
		FlatlineEpsilon: cfg.FlatlineEpsilon,
		Diurnal:         cfg.Diurnal,
		NightMax:        cfg.NightMax,
	}

	if baseline != nil && len(baseline.Samples) > 0 {
		// The window holds regardless of how the caller bounded its
		// query, stale history must not shape the new bands
		if removed := baseline.Trim(b.Opts.WindowYears); removed > 0 {
			slog.Info(fmt.Sprintf("%sTrimmed %d samples outside the %d year window", logstr, removed, b.Opts.WindowYears))
		}
		samples := baseline.Sorted()

		for key, values := range b.groupByBin(cfg, samples) {
			band, err := Profile(values, b.Opts, cfg.HardMin, cfg.HardMax)
			if err != nil {
				slog.Warn(fmt.Sprintf("%sBin '%s': %s", logstr, key, err))
			}
			thr.Seasonal[key] = band
		}

		if cfg.RateLimit == nil {
			thr.RateLimit = MaxRate(samples, b.Step, b.Opts.RateTrimPercentile)
		}
	} else {
		slog.Warn(logstr + "No history, bands fall back to hard limits")
	}

	if cfg.RateLimit != nil {
		thr.RateLimit = *cfg.RateLimit
	}

	for _, month := range cfg.SnowFreeMonths {
		snowfree := qc.Band{SoftMin: cfg.HardMin, SoftMax: cfg.SnowFreeMax}
		thr.Seasonal[qc.BinKey{Month: month, Daytime: true}] = snowfree
		if cfg.Diurnal {
			thr.Seasonal[qc.BinKey{Month: month, Daytime: false}] = snowfree
		}
	}

	if err := thr.Validate(); err != nil {
		return nil, fmt.Errorf("Variable '%s': %w", cfg.Name, err)
	}
	return thr, nil
}

// groupByBin collects the values of each bin. Samples that cannot be
// binned are dropped with a warning, one bad timestamp in history
// must not abort the whole rebuild.
func (b *Builder) groupByBin(cfg VariableConfig, samples []Sample) map[qc.BinKey][]float64 {
	groups := make(map[qc.BinKey][]float64)
	for _, s := range samples {
		key, err := b.Binner.Key(s.Obstime, cfg.Diurnal)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - %s: Dropping sample: %s", b.Station, cfg.Name, err))
			continue
		}
		groups[key] = append(groups[key], s.Value)
	}
	return groups
}
