// Package main is the entry point for the ratectl CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/irfndi/ratepulse/internal/cli"
	"github.com/irfndi/ratepulse/internal/config"
	"github.com/irfndi/ratepulse/internal/database"
	"github.com/irfndi/ratepulse/internal/logging"
	"github.com/irfndi/ratepulse/internal/pricefeed"
	"github.com/irfndi/ratepulse/internal/services"
	"github.com/irfndi/ratepulse/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout stays clean for tables and JSON.
	logger := logging.NewLogger(cfg)
	if cfg.Logging.File == "" {
		logger.SetOutput(os.Stderr)
	}
	logger.SetLevel(logging.ParseLogrusLevel(cfg.Logging.CLILevel))

	app := &cli.App{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Assets:  cfg.Dashboard.Assets,
		Open:    opener(cfg, logger),
		Logger:  logger,
		Version: version,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func opener(cfg *config.Config, logger *logrus.Logger) cli.OpenFunc {
	return func(ctx context.Context) (cli.Dashboard, func(), error) {
		db, err := database.NewPostgresConnection(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		rates := database.NewRateRepository(database.NewTracedPool(db.Pool, telemetry.Tracer()), cfg.Database.RatesTable)
		prices := pricefeed.NewClient(&cfg.PriceAPI, logger)
		dashboard := services.NewDashboardService(cfg.Dashboard, rates, prices, nil, nil, logger)
		return dashboard, db.Close, nil
	}
}
