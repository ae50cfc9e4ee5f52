package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"obsqc/ingest"
	"obsqc/pipeline"
	"obsqc/qc"
	"obsqc/station"
	"obsqc/store"
	"obsqc/threshold"
	"obsqc/tidy"
	"obsqc/utils"
)

type Config struct {
	Station    string   `arg:"positional,required" help:"Station ID from the registry"`
	Files      []string `arg:"positional,required" help:"TOA5 logger files to screen"`
	Stations   string   `arg:"--stations" default:"config/stations.csv" help:"Station registry file"`
	Variables  string   `arg:"--variables" default:"config/variables.csv" help:"Variable configuration file"`
	Aliases    string   `arg:"--aliases" default:"config/aliases.csv" help:"Column alias map"`
	Thresholds string   `arg:"-t,--thresholds" help:"Threshold snapshot CSV. Defaults to the latest set version in the database"`
	OutDir     string   `arg:"-o,--out" default:"." help:"Directory the cleaned output is written to"`

	From *utils.Timestamp `arg:"--from" help:"Screen observations only starting from this date-only timestamp"`
	To   *utils.Timestamp `arg:"--to" help:"Screen observations only until this date-only timestamp"`
	Vars []string         `arg:"--vars" help:"Optional space separated list of configured variables to screen"`

	Insert  bool `help:"Copy flagged results and accepted baseline values into the database"`
	Verbose bool `arg:"-v" help:"Increase verbosity level"`
}

func (Config) Description() string {
	return `Screen logger files for one station and write the cleaned output.
Thresholds come from a CSV snapshot ('--thresholds') or from the latest
set version in the database. The database also backs '--insert', both
require the "OBSQC_CONN_STRING" environement variable.`
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

	offset, err := st.Offset()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	step, err := st.SampleStep()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	aliases, err := ingest.LoadAliases(config.Aliases)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	if config.From != nil && config.To != nil && config.From.After(*config.To) {
		slog.Error("'--from' is later than '--to'")
		os.Exit(1)
	}
	span := utils.TimeSpan{From: config.From.Inner(), To: config.To.Inner()}

	var pool *pgxpool.Pool
	if config.Thresholds == "" || config.Insert {
		pool, err = pgxpool.New(context.TODO(), os.Getenv(store.OBSQC_ENV_VAR))
		if err != nil {
			slog.Error(fmt.Sprint("Could not connect to the database: ", err))
			return
		}
		defer pool.Close()

		if config.Insert {
			if err := store.EnsureSchema(pool); err != nil {
				slog.Error(fmt.Sprint("Could not ensure the schema: ", err))
				return
			}
		}
	}

	var set *threshold.Set
	if config.Thresholds != "" {
		set, err = threshold.ReadCSV(config.Thresholds)
	} else {
		set, err = store.LoadSet(st.ID, "", pool)
	}
	if err != nil {
		slog.Error(fmt.Sprint("Could not load thresholds: ", err))
		return
	}

	if set.Station != st.ID {
		slog.Error(fmt.Sprintf("Threshold set belongs to '%s', not '%s'", set.Station, st.ID))
		os.Exit(1)
	}
	if err := set.Validate(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	configured := make([]string, 0)
	for _, cfg := range registry.Configs(st.ID) {
		configured = append(configured, cfg.Name)
	}
	vars := utils.FilterSlice(config.Vars, configured, "Variable '%s' is not configured for this station, skipping")
	rules := slices.Concat(pipeline.DefaultRules, pipeline.PanelRules(pipeline.PANEL_VARIABLE, configured))

	pipe, err := pipeline.NewPipeline(st, set, rules)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	slog.Info(fmt.Sprintf("Screening %d files for %s with set version '%s'", len(config.Files), st.ID, set.Version))
	utils.SetLogFile(st.ID, "run")

	series, units := config.load(st, offset, aliases, vars, span)
	if len(series) == 0 {
		utils.ResetLogFile()
		slog.Warn("No observations to screen")
		return
	}

	results := pipe.Screen(series)

	frame := tidy.NewFrame(units)
	for variable, evaluated := range results {
		frame.AddSeries(variable, evaluated)
	}
	if inserted := frame.Regularize(step); inserted > 0 {
		slog.Info(fmt.Sprintf("Filled %d empty slots to keep the output grid regular", inserted))
	}

	if err := os.MkdirAll(config.OutDir, 0755); err != nil {
		slog.Error(err.Error())
		return
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	if windowed := span.ToDirName(); windowed != "" {
		stamp = windowed
	}
	outPath := filepath.Join(config.OutDir, fmt.Sprintf("%s_%s_tidy.csv", st.ID, stamp))
	if err := frame.Write(outPath); err != nil {
		slog.Error(fmt.Sprint("Could not write the output: ", err))
		return
	}
	slog.Info(fmt.Sprintf("Wrote %d records to '%s'", frame.Len(), outPath))

	if config.Insert {
		insert(st.ID, set.Version, results, pool)
	}

	utils.ResetLogFile()
	slog.Info("Run complete!")
}

// load reads every input file and groups the observations, normalized
// to UTC, by variable. Only columns listed in vars survive, and only
// inside the given span. Duplicate timestamps keep the value seen
// first.
func (config *Config) load(st *station.Station, offset time.Duration, aliases *ingest.AliasMap, vars []string, span utils.TimeSpan) (map[string][]qc.Observation, map[string]string) {
	series := make(map[string][]qc.Observation)
	units := make(map[string]string)

	bar := utils.NewBar(len(config.Files), "Reading logger files...")
	for _, path := range config.Files {
		bar.Add(1)

		file, err := ingest.ReadTOA5(path, aliases)
		if err != nil {
			slog.Error(fmt.Sprintf("'%s' skipped: %s", path, err))
			continue
		}
		if file.Header.Station != st.ID {
			slog.Warn(fmt.Sprintf("'%s' belongs to station '%s', skipped", path, file.Header.Station))
			continue
		}
		if config.Verbose {
			slog.Info(fmt.Sprintf("'%s': %d rows from logger %s", path, len(file.Rows), file.Header.LoggerID()))
		}

		for _, variable := range file.Columns {
			if variable == ingest.RECORD_COLUMN || !slices.Contains(vars, variable) {
				continue
			}

			for _, obs := range file.Observations(variable, offset) {
				if !span.Contains(obs.Obstime) {
					continue
				}
				series[variable] = append(series[variable], obs)
			}

			if _, ok := units[variable]; !ok {
				unit := file.Units[variable]
				if unit == "" {
					unit = aliases.Unit(variable)
				}
				units[variable] = unit
			}
		}
	}

	for variable := range series {
		sorted := series[variable]
		slices.SortStableFunc(sorted, func(a, b qc.Observation) int {
			return a.Obstime.Compare(b.Obstime)
		})

		deduped := slices.CompactFunc(sorted, func(a, b qc.Observation) bool {
			return a.Obstime.Equal(b.Obstime)
		})
		if dropped := len(sorted) - len(deduped); dropped > 0 {
			slog.Warn(fmt.Sprintf("%s - %s: dropped %d duplicate timestamps", st.ID, variable, dropped))
		}
		series[variable] = deduped
	}
	return series, units
}

func insert(stationID, version string, results map[string][]qc.Result, pool *pgxpool.Pool) {
	flat := make([]qc.Result, 0)
	for _, evaluated := range results {
		flat = append(flat, evaluated...)
	}

	flagged := store.FlaggedSeries{Station: stationID, Version: version, Results: flat}
	logStr := fmt.Sprintf("%s - flagged: ", stationID)
	if _, err := store.InsertFlagged(&flagged, pool, logStr); err != nil {
		slog.Error(logStr + err.Error())
	}

	for variable, baseline := range pipeline.HarvestBaseline(results) {
		logStr := fmt.Sprintf("%s - %s: ", stationID, variable)
		samples := store.BaselineSeries{Station: stationID, Variable: variable, Samples: baseline.Samples}
		if _, err := store.InsertBaseline(&samples, pool, logStr); err != nil {
			slog.Error(logStr + err.Error())
		}
	}
}
