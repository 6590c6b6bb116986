// Package main is the entry point for the Tienda database migration tool.
// It manages the SQLite and PostgreSQL schema with the embedded migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/prn-tf/tienda/internal/config"
	"github.com/prn-tf/tienda/internal/migrations"
	"github.com/prn-tf/tienda/internal/pkg/logging"
	"github.com/prn-tf/tienda/internal/repository/factory"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the configuration file")
	pflag.Usage = printUsage
	pflag.Parse()

	if pflag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := pflag.Arg(0)

	switch command {
	case "version":
		fmt.Printf("Tienda Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	case "up", "down", "status", "current":
		if err := migrate(command, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func migrate(command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// The migrator only needs the database handle.
	cfg.Cache.Enabled = false
	store, err := factory.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	m, err := migrations.NewMigrator(store.SQLDB, store.Driver, logger)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		if err := m.Up(ctx); err != nil {
			return err
		}
		fmt.Println("Migrations applied")

	case "down":
		if err := m.Down(ctx); err != nil {
			return err
		}
		fmt.Println("Rolled back one migration")

	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%05d  %-8s  %s\n", s.Version, state, s.Path)
		}

	case "current":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d\n", v)
	}

	return nil
}

func printUsage() {
	fmt.Println(`Tienda Migration Tool

Usage:
  tienda-migrate [--config path] <command>

Commands:
  up          Run all pending migrations
  down        Rollback the last migration
  status      Show current migration status
  current     Print the applied schema version
  version     Print version information
  help        Show this help message

Environment Variables:
  TIENDA_DATABASE_DRIVER    sqlite (default) or postgres
  TIENDA_DATABASE_PATH      SQLite database file
  TIENDA_DATABASE_HOST      PostgreSQL host (see configs/config.yaml for the rest)

Examples:
  tienda-migrate up
  tienda-migrate --config configs/config.yaml status
  TIENDA_DATABASE_DRIVER=postgres tienda-migrate down`)
}
