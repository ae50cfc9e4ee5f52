package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlaggedInserter interface {
	InsertFlagged(i int) ([]any, error)
	Len() int
}

type BaselineInserter interface {
	InsertBaseline(i int) ([]any, error)
	Len() int
}

var FLAGGED_TABLE pgx.Identifier = pgx.Identifier{"public", "flagged"}
var FLAGGED_COLS []string = []string{"station", "variable", "obstime", "original", "corrected", "flag", "version"}

var BASELINE_TABLE pgx.Identifier = pgx.Identifier{"public", "baseline"}
var BASELINE_COLS []string = []string{"station", "variable", "obstime", "value"}

func InsertFlagged(ts FlaggedInserter, pool *pgxpool.Pool, logStr string) (int64, error) {
	size := ts.Len()
	count, err := pool.CopyFrom(
		context.TODO(),
		FLAGGED_TABLE,
		FLAGGED_COLS,
		pgx.CopyFromSlice(size, ts.InsertFlagged),
	)
	if err != nil {
		return count, err
	}

	logStr += fmt.Sprintf("%v/%v flagged rows inserted", count, size)
	if int(count) != size {
		slog.Warn(logStr)
	} else {
		slog.Info(logStr)
	}
	return count, nil
}

func InsertBaseline(ts BaselineInserter, pool *pgxpool.Pool, logStr string) (int64, error) {
	size := ts.Len()
	count, err := pool.CopyFrom(
		context.TODO(),
		BASELINE_TABLE,
		BASELINE_COLS,
		pgx.CopyFromSlice(size, ts.InsertBaseline),
	)
	if err != nil {
		return count, err
	}

	logStr += fmt.Sprintf("%v/%v baseline samples inserted", count, size)
	if int(count) != size {
		slog.Warn(logStr)
	} else {
		slog.Info(logStr)
	}
	return count, nil
}
