package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"obsqc/threshold"
	"obsqc/utils"
)

// LoadBaseline fetches the accepted history of one station variable
// inside the given timespan, oldest first.
func LoadBaseline(station, variable string, span utils.TimeSpan, pool *pgxpool.Pool) (*threshold.Baseline, error) {
	rows, err := pool.Query(
		context.TODO(),
		`SELECT obstime, value FROM public.baseline
		   WHERE station = $1 AND variable = $2
		   AND ($3::timestamptz IS NULL OR obstime >= $3)
		   AND ($4::timestamptz IS NULL OR obstime < $4)
		   ORDER BY obstime`,
		station, variable, span.From, span.To,
	)
	if err != nil {
		return nil, err
	}

	samples, err := pgx.CollectRows(rows, pgx.RowToStructByName[threshold.Sample])
	if err != nil {
		return nil, err
	}

	return &threshold.Baseline{Variable: variable, Samples: samples}, nil
}

// TrimBaseline removes samples older than the cutoff for every
// variable of a station. Returns the number of deleted rows.
func TrimBaseline(station string, cutoff time.Time, pool *pgxpool.Pool) (int64, error) {
	tag, err := pool.Exec(
		context.TODO(),
		`DELETE FROM public.baseline WHERE station = $1 AND obstime < $2`,
		station, cutoff,
	)
	return tag.RowsAffected(), err
}
