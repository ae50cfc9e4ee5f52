package compile

import (
	"fmt"
	"log/slog"
	"os"

	"obsqc/station"
	"obsqc/tidy"
	"obsqc/utils"
)

type Config struct {
	Station   string   `arg:"positional,required" help:"Station ID from the registry"`
	Files     []string `arg:"positional,required" help:"Cleaned per run files to concatenate"`
	Stations  string   `arg:"--stations" default:"config/stations.csv" help:"Station registry file"`
	Variables string   `arg:"--variables" default:"config/variables.csv" help:"Variable configuration file"`
	Out       string   `arg:"-o,--out" default:"master.csv" help:"Path the concatenated record is written to"`
}

func (Config) Description() string {
	return `Concatenate cleaned per run files into one master record.
Rows are sorted, duplicate cells keep their first occurrence and gaps
are filled with empty flagged rows on the station's sampling grid.`
}

func (config *Config) Execute() {
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

	step, err := st.SampleStep()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	var master *tidy.Frame
	duplicates := 0

	bar := utils.NewBar(len(config.Files), "Reading cleaned files...")
	for _, path := range config.Files {
		bar.Add(1)

		frame, err := tidy.ReadFile(path)
		if err != nil {
			slog.Error(fmt.Sprintf("'%s' skipped: %s", path, err))
			continue
		}
		duplicates += frame.Duplicates()

		if master == nil {
			master = frame
			continue
		}
		duplicates += master.Merge(frame)
	}

	if master == nil || master.Len() == 0 {
		slog.Error("No readable input files")
		os.Exit(1)
	}

	inserted := master.Regularize(step)

	if err := master.Write(config.Out); err != nil {
		slog.Error(fmt.Sprint("Could not write the master record: ", err))
		os.Exit(1)
	}

	slog.Info(fmt.Sprintf(
		"Compiled %d records into '%s', %d duplicate cells dropped, %d empty slots filled",
		master.Len(), config.Out, duplicates, inserted,
	))
}
