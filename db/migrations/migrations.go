package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/MonkyMars/gecho"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Направления миграций, которые понимает Run
const (
	Up     = "up"
	Down   = "down"
	Status = "status"
)

// Run выполняет миграции, встроенные в бинарник
func Run(db *sql.DB, command string, logger *gecho.Logger) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	logger.Info("Running migrations", gecho.Field("command", command))

	var err error
	switch command {
	case Up:
		err = goose.Up(db, ".")
	case Down:
		err = goose.Down(db, ".")
	case Status:
		err = goose.Status(db, ".")
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations (%s): %w", command, err)
	}
	return nil
}
