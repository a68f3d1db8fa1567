// Package cli подкоманды бинарника licitaciones: serve, migrate, import.
package cli

import (
	"fmt"

	"licitaciones/internal/config"

	"github.com/google/subcommands"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Register регистрирует подкоманды
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(&serveCmd{}, "")
	c.Register(&migrateCmd{}, "")
	c.Register(&importCmd{}, "")
}

// openDB подключается к Postgres с настройками пула из конфигурации
func openDB(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.ConnString == "" {
		return nil, fmt.Errorf("POSTGRES_CONN env variable is not set")
	}
	dbConn, err := sqlx.Connect("postgres", cfg.Database.ConnString)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to DB: %w", err)
	}
	dbConn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	return dbConn, nil
}
