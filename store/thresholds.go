package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"obsqc/threshold"
)

var MISSING_SET_ERR error = errors.New("No threshold set stored for station")

var BAND_TABLE pgx.Identifier = pgx.Identifier{"thresholds", "band"}
var BAND_COLS []string = []string{
	"station", "version", "built_at", "variable", "month", "daytime",
	"soft_min", "soft_max", "hard_min", "hard_max", "rate_limit",
	"flatline_window", "flatline_epsilon", "diurnal", "night_max",
}

// SaveSet stores a snapshot, the set row and its band rows in one
// transaction. Versions are immutable, saving the same version twice
// is an error.
func SaveSet(set *threshold.Set, pool *pgxpool.Pool) error {
	rows := threshold.ToRows(set)

	transaction, err := pool.Begin(context.TODO())
	if err != nil {
		return err
	}

	_, err = transaction.Exec(
		context.TODO(),
		`INSERT INTO thresholds.set (station, version, built_at) VALUES ($1, $2, $3)`,
		set.Station, set.Version, set.BuiltAt,
	)
	if err != nil {
		transaction.Rollback(context.TODO())
		return err
	}

	_, err = transaction.CopyFrom(
		context.TODO(),
		BAND_TABLE,
		BAND_COLS,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return rows[i].ToRow(), nil
		}),
	)
	if err != nil {
		transaction.Rollback(context.TODO())
		return err
	}

	return transaction.Commit(context.TODO())
}

// LatestVersion returns the version of the newest set built for a
// station.
func LatestVersion(station string, pool *pgxpool.Pool) (string, error) {
	var version string
	err := pool.QueryRow(
		context.TODO(),
		`SELECT version FROM thresholds.set WHERE station = $1 ORDER BY built_at DESC LIMIT 1`,
		station,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: '%s'", MISSING_SET_ERR, station)
	}
	return version, err
}

// LoadSet fetches one snapshot. An empty version loads the newest.
func LoadSet(station, version string, pool *pgxpool.Pool) (*threshold.Set, error) {
	if version == "" {
		var err error
		version, err = LatestVersion(station, pool)
		if err != nil {
			return nil, err
		}
	}

	rows, err := pool.Query(
		context.TODO(),
		`SELECT station, version, built_at, variable, month, daytime,
		        soft_min, soft_max, hard_min, hard_max, rate_limit,
		        flatline_window, flatline_epsilon, diurnal, night_max
		   FROM thresholds.band WHERE station = $1 AND version = $2`,
		station, version,
	)
	if err != nil {
		return nil, err
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[threshold.Row])
	if err != nil {
		return nil, errors.New("Could not collect rows: " + err.Error())
	}
	if len(collected) == 0 {
		return nil, fmt.Errorf("%w: '%s' version '%s'", MISSING_SET_ERR, station, version)
	}

	return threshold.FromRows(collected)
}
