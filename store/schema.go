package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const SCHEMA string = `
CREATE SCHEMA IF NOT EXISTS thresholds;

CREATE TABLE IF NOT EXISTS public.baseline (
    station TEXT NOT NULL,
    variable TEXT NOT NULL,
    obstime TIMESTAMPTZ NOT NULL,
    value DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS baseline_series ON public.baseline (station, variable, obstime);

CREATE TABLE IF NOT EXISTS public.flagged (
    station TEXT NOT NULL,
    variable TEXT NOT NULL,
    obstime TIMESTAMPTZ NOT NULL,
    original DOUBLE PRECISION,
    corrected DOUBLE PRECISION,
    flag TEXT NOT NULL,
    version TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS flagged_series ON public.flagged (station, variable, obstime);

CREATE TABLE IF NOT EXISTS thresholds.set (
    station TEXT NOT NULL,
    version TEXT NOT NULL,
    built_at TIMESTAMPTZ NOT NULL,
    UNIQUE (station, version)
);

CREATE TABLE IF NOT EXISTS thresholds.band (
    station TEXT NOT NULL,
    version TEXT NOT NULL,
    built_at TIMESTAMPTZ NOT NULL,
    variable TEXT NOT NULL,
    month INT NOT NULL,
    daytime BOOLEAN NOT NULL,
    soft_min DOUBLE PRECISION NOT NULL,
    soft_max DOUBLE PRECISION NOT NULL,
    hard_min DOUBLE PRECISION NOT NULL,
    hard_max DOUBLE PRECISION NOT NULL,
    rate_limit DOUBLE PRECISION NOT NULL,
    flatline_window TEXT NOT NULL,
    flatline_epsilon DOUBLE PRECISION NOT NULL,
    diurnal BOOLEAN NOT NULL,
    night_max DOUBLE PRECISION
);
`

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(pool *pgxpool.Pool) error {
	slog.Info("Ensuring database schema...")
	_, err := pool.Exec(context.Background(), SCHEMA)
	return err
}
