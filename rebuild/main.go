package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"obsqc/station"
	"obsqc/store"
	"obsqc/threshold"
	"obsqc/utils"
)

type Config struct {
	Station   string `arg:"positional,required" help:"Station ID from the registry"`
	Stations  string `arg:"--stations" default:"config/stations.csv" help:"Station registry file"`
	Variables string `arg:"--variables" default:"config/variables.csv" help:"Variable configuration file"`
	OutDir    string `arg:"-o,--out" default:"." help:"Directory snapshot files are written to"`
	Years     int    `arg:"--years" default:"3" help:"Years of history the baseline is profiled over"`
	Every     int    `arg:"--every" help:"Rebuild every N minutes until interrupted"`
	DryRun    bool   `arg:"--dry-run" help:"Build and validate without storing the new version"`
	Trim      bool   `help:"Delete baseline samples older than the rolling window after a successful rebuild"`
}

func (Config) Description() string {
	return `Derive a new threshold set version from the stored baseline.
The new version is written to the database and to a CSV snapshot,
screening runs pick it up when they start. Requires the
"OBSQC_CONN_STRING" environement variable.`
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

	pool, err := pgxpool.New(context.TODO(), os.Getenv(store.OBSQC_ENV_VAR))
	if err != nil {
		slog.Error(fmt.Sprint("Could not connect to the database: ", err))
		return
	}
	defer pool.Close()

	if err := store.EnsureSchema(pool); err != nil {
		slog.Error(fmt.Sprint("Could not ensure the schema: ", err))
		return
	}

	if config.Every > 0 {
		slog.Info(fmt.Sprintf("Rebuilding thresholds for %s every %d minutes", st.ID, config.Every))

		scheduler := gocron.NewScheduler(time.UTC)
		_, err := scheduler.Every(config.Every).Minutes().Do(func() {
			config.rebuild(registry, st, pool)
		})
		if err != nil {
			slog.Error(err.Error())
			return
		}
		scheduler.StartBlocking()
		return
	}

	config.rebuild(registry, st, pool)
}

func (config *Config) rebuild(registry *station.Registry, st *station.Station, pool *pgxpool.Pool) {
	step, err := st.SampleStep()
	if err != nil {
		slog.Error(err.Error())
		return
	}

	configs := registry.Configs(st.ID)
	if len(configs) == 0 {
		slog.Warn("No variables configured for " + st.ID)
		return
	}

	opts := threshold.DefaultOptions()
	if config.Years > 0 {
		opts.WindowYears = config.Years
	}

	// Bound the history at load time, samples outside the rolling
	// window must not shape the new bands
	cutoff := time.Now().UTC().AddDate(-opts.WindowYears, 0, 0)
	span := utils.TimeSpan{From: &cutoff}

	baselines := make(map[string]*threshold.Baseline, len(configs))
	bar := utils.NewBar(len(configs), "Loading baselines...")
	for _, cfg := range configs {
		bar.Add(1)

		baseline, err := store.LoadBaseline(st.ID, cfg.Name, span, pool)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - %s: %s", st.ID, cfg.Name, err))
			return
		}
		baselines[cfg.Name] = baseline
	}

	builder := threshold.Builder{
		Station: st.ID,
		Binner:  st.Binner(),
		Step:    step,
		Opts:    opts,
	}

	set, err := builder.Build(configs, baselines)
	if err != nil {
		slog.Error(fmt.Sprint("Rebuild failed, the previous version stays active: ", err))
		return
	}

	if config.DryRun {
		slog.Info(fmt.Sprintf("Dry run, version '%s' was not stored", set.Version))
		return
	}

	if err := store.SaveSet(set, pool); err != nil {
		slog.Error(fmt.Sprint("Could not store the new version: ", err))
		return
	}

	if err := os.MkdirAll(config.OutDir, 0755); err != nil {
		slog.Error(err.Error())
		return
	}
	snapshot := filepath.Join(config.OutDir, fmt.Sprintf("%s_thresholds_%s.csv", st.ID, set.Version))
	if err := threshold.WriteCSV(set, snapshot); err != nil {
		slog.Error(fmt.Sprint("Could not write the snapshot: ", err))
		return
	}

	slog.Info(fmt.Sprintf("Activated version '%s' for %s, snapshot in '%s'", set.Version, st.ID, snapshot))

	if config.Trim {
		removed, err := store.TrimBaseline(st.ID, cutoff, pool)
		if err != nil {
			slog.Error(fmt.Sprint("Could not trim the baseline: ", err))
			return
		}
		slog.Info(fmt.Sprintf("Trimmed %d baseline samples older than %s", removed, cutoff.Format(time.DateOnly)))
	}
}
