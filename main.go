package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"

	"obsqc/check"
	"obsqc/compile"
	"obsqc/index"
	"obsqc/rebuild"
	"obsqc/run"
	"obsqc/utils"
)

type CmdArgs struct {
	Run     *run.Config     `arg:"subcommand:run" help:"Screen logger files for a station"`
	Rebuild *rebuild.Config `arg:"subcommand:rebuild" help:"Derive a new threshold set version from stored history"`
	Check   *check.Config   `arg:"subcommand:check" help:"Validate the configuration and preview thresholds"`
	Compile *compile.Config `arg:"subcommand:compile" help:"Concatenate cleaned files into a master record"`
	Index   *index.Config   `arg:"subcommand:index" help:"Drop or recreate the series indices"`
}

func (CmdArgs) Description() string {
	return "Adaptive quality control for environmental sensor timeseries."
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	slog.SetDefault(slog.New(utils.ConsoleHandler(slog.LevelInfo)))

	args := CmdArgs{}
	parser := arg.MustParse(&args)

	switch {
	case args.Run != nil:
		args.Run.Execute()
	case args.Rebuild != nil:
		args.Rebuild.Execute()
	case args.Check != nil:
		args.Check.Execute()
	case args.Compile != nil:
		args.Compile.Execute()
	case args.Index != nil:
		args.Index.Execute()
	default:
		fmt.Println("Error: passing a subcommand is required.")
		fmt.Println()
		parser.WriteHelp(os.Stdout)
	}
}
