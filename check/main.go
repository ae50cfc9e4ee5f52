package check

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"obsqc/qc"
	"obsqc/station"
	"obsqc/store"
	"obsqc/threshold"
	"obsqc/utils"
)

type Config struct {
	Station    string          `arg:"positional,required" help:"Station ID from the registry"`
	Date       utils.Timestamp `arg:"-d,--date" default:"now" help:"Date the effective thresholds are resolved for"`
	Stations   string          `arg:"--stations" default:"config/stations.csv" help:"Station registry file"`
	Variables  string          `arg:"--variables" default:"config/variables.csv" help:"Variable configuration file"`
	Thresholds string          `arg:"-t,--thresholds" help:"Threshold snapshot CSV. Defaults to the latest set version in the database"`
}

func (Config) Description() string {
	return `Validate the station configuration and preview the thresholds a
screening run would apply on a given date.`
}

func (config *Config) Execute() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println(err)
		return
	}

	registry, err := station.LoadRegistry(config.Stations, config.Variables)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	st, err := registry.Get(config.Station)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	offset, _ := st.Offset()
	step, _ := st.SampleStep()
	fmt.Printf("Station %s (%s) at %.4f, %.4f, logger clock %v from UTC, sampling every %v\n",
		st.ID, st.Name, st.Lat, st.Lon, offset, step)

	var set *threshold.Set
	if config.Thresholds != "" {
		set, err = threshold.ReadCSV(config.Thresholds)
	} else {
		var pool *pgxpool.Pool
		pool, err = pgxpool.New(context.TODO(), os.Getenv(store.OBSQC_ENV_VAR))
		if err == nil {
			defer pool.Close()
			set, err = store.LoadSet(st.ID, "", pool)
		}
	}
	if err != nil {
		slog.Warn(fmt.Sprint("No threshold set to preview: ", err))
		fmt.Println("Configuration OK")
		return
	}

	if err := set.Validate(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	if set.Station != st.ID {
		slog.Error(fmt.Sprintf("Threshold set belongs to '%s', not '%s'", set.Station, st.ID))
		os.Exit(1)
	}

	config.crossCheck(registry, st, set)
	config.preview(st, set)
	fmt.Println("Configuration OK")
}

// crossCheck reports variables that drifted between the registry and
// the stored set. Neither direction is fatal, new variables simply
// have no thresholds until the next rebuild.
func (config *Config) crossCheck(registry *station.Registry, st *station.Station, set *threshold.Set) {
	configured := make([]string, 0)
	for _, cfg := range registry.Configs(st.ID) {
		configured = append(configured, cfg.Name)
	}

	for _, name := range configured {
		if _, ok := set.For(name); !ok {
			slog.Warn(fmt.Sprintf("'%s' is configured but version '%s' has no thresholds for it, rebuild needed", name, set.Version))
		}
	}
	for name := range set.Variables {
		if !slices.Contains(configured, name) {
			slog.Warn(fmt.Sprintf("Version '%s' still carries '%s', which is no longer configured", set.Version, name))
		}
	}
}

func (config *Config) preview(st *station.Station, set *threshold.Set) {
	month := config.Date.Time().Month()

	names := make([]string, 0, len(set.Variables))
	for name := range set.Variables {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Printf("\nEffective thresholds for %s on %s, set version '%s' built %s\n\n",
		st.ID, config.Date.Format(time.DateOnly), set.Version, set.BuiltAt.Format(time.DateOnly))
	fmt.Printf("%-16s %-10s %-18s %-22s %-8s %-10s %s\n",
		"VARIABLE", "BIN", "HARD", "SOFT", "RATE", "FLATLINE", "NIGHT_MAX")

	for _, name := range names {
		thr := set.Variables[name]

		keys := []qc.BinKey{{Month: month, Daytime: true}}
		if thr.Diurnal {
			keys = append(keys, qc.BinKey{Month: month, Daytime: false})
		}

		for _, key := range keys {
			bin := key.Month.String()[:3]
			if thr.Diurnal {
				bin = key.String()
			}

			band := thr.SoftBand(key)
			fmt.Printf("%-16s %-10s %-18s %-22s %-8s %-10s %s\n",
				name, bin,
				formatBand(thr.HardMin, thr.HardMax),
				formatBand(band.SoftMin, band.SoftMax),
				formatPositive(thr.RateLimit),
				formatWindow(thr.FlatlineWindow),
				formatNightMax(thr, key),
			)
		}
	}
	fmt.Println()
}

func formatBand(min, max float64) string {
	return fmt.Sprintf("[%g, %g]", min, max)
}

func formatPositive(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%g", v)
}

func formatWindow(window time.Duration) string {
	if window <= 0 {
		return "-"
	}
	return window.String()
}

func formatNightMax(thr *qc.Thresholds, key qc.BinKey) string {
	if key.Daytime || thr.NightMax == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *thr.NightMax)
}
