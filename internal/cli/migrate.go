package cli

import (
	"context"
	"flag"

	"licitaciones/db/migrations"
	"licitaciones/internal/config"

	"github.com/MonkyMars/gecho"
	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "applies or rolls back database migrations" }
func (*migrateCmd) Usage() string {
	return `licitaciones migrate [up|down|status]

Runs the embedded goose migrations against POSTGRES_CONN. Defaults to "up".
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	command := migrations.Up
	switch f.NArg() {
	case 0:
	case 1:
		command = f.Arg(0)
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg := config.GetConfig()
	logger := config.NewLogger(cfg, false)

	dbConn, err := openDB(cfg)
	if err != nil {
		logger.Error("Failed to open database", gecho.Field("error", err.Error()))
		return subcommands.ExitFailure
	}
	defer dbConn.Close()

	if err := migrations.Run(dbConn.DB, command, logger); err != nil {
		logger.Error("Migration failed", gecho.Field("error", err.Error()))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
