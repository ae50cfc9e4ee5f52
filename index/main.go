package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"obsqc/store"
)

type Config struct {
	Action string `arg:"positional,required" help:"Valid choices: [\"drop\", \"create\"]"`
}

func (Config) Description() string {
	return `Drop or recreate the series indices.
Dropping them before a large backfill and recreating them afterwards
speeds the bulk copy up. Requires the "OBSQC_CONN_STRING" environement
variable.`
}

func (config *Config) Execute() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println(err)
		return
	}

	conn, err := pgx.Connect(context.Background(), os.Getenv(store.OBSQC_ENV_VAR))
	if err != nil {
		slog.Error(fmt.Sprint("Could not connect to the database: ", err))
		return
	}
	defer conn.Close(context.Background())

	switch config.Action {
	case "drop":
		store.DropIndices(conn)
	case "create":
		store.CreateIndices(conn)
	default:
		fmt.Printf("Invalid action '%s', valid choices: [\"drop\", \"create\"]\n", config.Action)
		os.Exit(1)
	}
}
