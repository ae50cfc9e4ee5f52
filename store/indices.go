package store

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

const DROP_INDICES string = `
DROP INDEX IF EXISTS baseline_series;
DROP INDEX IF EXISTS flagged_series;
`

const CREATE_INDICES string = `
CREATE INDEX IF NOT EXISTS baseline_series ON public.baseline (station, variable, obstime);
CREATE INDEX IF NOT EXISTS flagged_series ON public.flagged (station, variable, obstime);
`

// DropIndices removes the series indices before a large backfill,
// CopyFrom runs noticeably faster without them.
func DropIndices(conn *pgx.Conn) {
	slog.Info("Dropping table indices...")

	_, err := conn.Exec(context.Background(), DROP_INDICES)
	if err != nil {
		slog.Error(err.Error())
		return
	}

	slog.Info("Finished dropping indices!")
}

func CreateIndices(conn *pgx.Conn) {
	slog.Info("Creating table indices...")

	_, err := conn.Exec(context.Background(), CREATE_INDICES)
	if err != nil {
		slog.Error(err.Error())
		return
	}

	slog.Info("Finished creating indices!")
}
