// Package store persists screening state in Postgres.
//
// The schema keeps four tables:
//
//	public.baseline     accepted history feeding the profiler
//	public.flagged      screened observations with their flag
//	thresholds.set      one row per derived snapshot
//	thresholds.band     per bin soft limits of a snapshot
//
// Series are written with CopyFrom behind small inserter interfaces,
// one bulk call per batch. The connection string is read from the
// environment.
package store

import (
	"obsqc/qc"
	"obsqc/threshold"
)

const OBSQC_ENV_VAR string = "OBSQC_CONN_STRING"

// FlaggedSeries holds the screened results of one station variable.
type FlaggedSeries struct {
	Station string
	Version string
	Results []qc.Result
}

func (s *FlaggedSeries) Len() int {
	return len(s.Results)
}

func (s *FlaggedSeries) InsertFlagged(i int) ([]any, error) {
	res := s.Results[i]
	return []any{
		s.Station,
		res.Variable,
		res.Obstime,
		res.Original,
		res.Corrected,
		string(res.Code),
		s.Version,
	}, nil
}

// BaselineSeries holds accepted samples of one station variable.
type BaselineSeries struct {
	Station  string
	Variable string
	Samples  []threshold.Sample
}

func (s *BaselineSeries) Len() int {
	return len(s.Samples)
}

func (s *BaselineSeries) InsertBaseline(i int) ([]any, error) {
	sample := s.Samples[i]
	return []any{s.Station, s.Variable, sample.Obstime, sample.Value}, nil
}
