// Package factory opens the configured store and assembles its repositories.
package factory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tienda/internal/cache/memory"
	rediscache "github.com/prn-tf/tienda/internal/cache/redis"
	"github.com/prn-tf/tienda/internal/config"
	"github.com/prn-tf/tienda/internal/repository"
	"github.com/prn-tf/tienda/internal/repository/postgres"
	"github.com/prn-tf/tienda/internal/repository/sqlite"
)

// Store is an opened database with its repositories.
type Store struct {
	// Repos read and write the store directly.
	Repos    repository.Repositories
	Database repository.DatabaseHealth

	// CatalogView serves catalog listings for display. It is cached when the
	// cache is enabled and is never used to price an order.
	CatalogView repository.CatalogRepository

	// SQLDB is a database/sql handle for the migrator.
	SQLDB *sql.DB

	// Driver is the configured driver name.
	Driver string

	closers []func() error
}

// Close releases the cache and the database connection.
func (s *Store) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open connects to the store selected by cfg.Database.Driver. When the cache
// is enabled, CatalogView is wrapped with a read-through cache.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	store := &Store{Driver: cfg.Database.Driver}

	switch cfg.Database.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Database.Path); dir != "." && dir != "" && cfg.Database.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFromDatabase(cfg.Database), logger)
		if err != nil {
			return nil, err
		}
		store.Repos = sqlite.NewRepositories(db)
		store.Database = db
		store.SQLDB = db.DB()
		store.closers = append(store.closers, db.Close)

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		sqlDB := db.SQLDB()
		store.Repos = postgres.NewRepositories(db)
		store.Database = db
		store.SQLDB = sqlDB
		store.closers = append(store.closers, db.Close, sqlDB.Close)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	store.CatalogView = store.Repos.Catalog
	if cfg.Cache.Enabled {
		cache, closeCache := openCache(ctx, cfg, logger)
		store.CatalogView = repository.NewCachedCatalogRepository(store.Repos.Catalog, cache, cfg.Cache.CatalogTTL, logger)
		store.closers = append(store.closers, closeCache)
	}

	return store, nil
}

// openCache returns Redis when configured and reachable, otherwise an in-process cache.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, func() error) {
	if cfg.Redis.Enabled {
		client, err := rediscache.NewClient(ctx, cfg.Redis, logger)
		if err == nil {
			return rediscache.NewCache(client, "tienda:"), client.Close
		}
		logger.Warn().Err(err).Msg("redis unavailable, using in-process catalog cache")
	}

	c := memory.NewCache(time.Minute)
	return c, func() error {
		c.Stop()
		return nil
	}
}
