// Package main is the entry point for the Tienda order ledger.
// It opens the configured store, applies the schema and runs the interactive menu.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/prn-tf/tienda/internal/cli"
	"github.com/prn-tf/tienda/internal/config"
	"github.com/prn-tf/tienda/internal/metrics"
	"github.com/prn-tf/tienda/internal/migrations"
	"github.com/prn-tf/tienda/internal/pkg/credential"
	"github.com/prn-tf/tienda/internal/pkg/logging"
	"github.com/prn-tf/tienda/internal/repository/factory"
	"github.com/prn-tf/tienda/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := pflag.StringP("config", "c", "", "path to the configuration file")
	showVersion := pflag.Bool("version", false, "print version information and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("Tienda %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure logging: %v\n", err)
		return 1
	}

	logger.Info().
		Str("version", Version).
		Str("driver", cfg.Database.Driver).
		Msg("starting tienda")

	ctx := context.Background()

	// A store that cannot be opened or migrated is fatal.
	store, err := factory.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open store")
		return 1
	}
	defer store.Close()

	migrator, err := migrations.NewMigrator(store.SQLDB, store.Driver, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create migrator")
		return 1
	}
	if err := migrator.Up(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to apply schema")
		return 1
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		logger.Error().Err(err).Msg("failed to register metrics")
		return 1
	}
	if cfg.Metrics.Enabled {
		defer writeMetrics(registry, cfg.Metrics.TextfilePath, logger)
	}

	hasher := credential.NewPBKDF2Hasher(cfg.Auth.PBKDF2Iterations)
	users := service.NewUserService(store.Repos.User, hasher, m, logger)
	ledger := service.NewLedgerService(store.Repos.Catalog, store.Repos.Order, m, logger).
		WithCatalogView(store.CatalogView)

	app := cli.NewApp(users, ledger, os.Stdin, os.Stdout, logger)
	app.HidePasswords(cli.StdinIsTerminal())

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("menu stopped")
		return 1
	}

	return 0
}

func writeMetrics(g prometheus.Gatherer, path string, logger zerolog.Logger) {
	if err := metrics.WriteTextfile(g, path); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to write metrics")
		return
	}
	logger.Info().Str("path", path).Msg("metrics written")
}
