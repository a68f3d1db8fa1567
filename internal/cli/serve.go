package cli

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"licitaciones/db"
	"licitaciones/db/migrations"
	"licitaciones/internal/config"
	"licitaciones/internal/handlers"
	"licitaciones/internal/metrics"

	"github.com/MonkyMars/gecho"
	"github.com/google/subcommands"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	addr    string
	migrate bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "starts the HTTP server" }
func (*serveCmd) Usage() string {
	return `licitaciones serve [-addr host:port] [-migrate]

Serves the JSON API under /api, the HTML pages under /tenders
and Prometheus metrics under /metrics.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	cfg := config.GetConfig()
	f.StringVar(&c.addr, "addr", cfg.Server.Address, "listen address (SERVER_ADDRESS)")
	f.BoolVar(&c.migrate, "migrate", cfg.Server.MigrateOnStart, "apply migrations before serving (MIGRATE_ON_START)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.GetConfig()
	logger := config.NewLogger(cfg, true)

	dbConn, err := openDB(cfg)
	if err != nil {
		logger.Error("Failed to open database", gecho.Field("error", err.Error()))
		return subcommands.ExitFailure
	}
	defer dbConn.Close()

	if c.migrate {
		if err := migrations.Run(dbConn.DB, migrations.Up, logger); err != nil {
			logger.Error("Failed to migrate", gecho.Field("error", err.Error()))
			return subcommands.ExitFailure
		}
	}

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store, config.NewLogger(cfg, false), cfg.Display.Currency)
	router := handlers.NewRouter(h, metrics.New(), cfg.Cors)

	srv := &http.Server{
		Addr:         c.addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", gecho.Field("address", c.addr), gecho.Field("env", cfg.Server.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", gecho.Field("error", err.Error()))
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", gecho.Field("error", err.Error()))
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
