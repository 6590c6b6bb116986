// Package postgres provides the PostgreSQL store backed by a pgx connection pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tienda/internal/config"
	"github.com/prn-tf/tienda/internal/repository"
)

const connectTimeout = 10 * time.Second

// querier is the read/write surface shared by the pool and an open transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var (
	_ querier = (*pgxpool.Pool)(nil)
	_ querier = (pgx.Tx)(nil)
)

// DB is the PostgreSQL store handle.
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// poolConfig translates the database settings into a pgxpool config.
// Zero settings keep the pgx defaults.
func poolConfig(cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pc.MinConns = int32(min(cfg.MaxIdleConns, int(pc.MaxConns)))
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	pc.ConnConfig.ConnectTimeout = connectTimeout

	if logger.GetLevel() <= zerolog.DebugLevel {
		pc.ConnConfig.Tracer = &queryTracer{logger: logger}
	}
	return pc, nil
}

// NewDB connects the pool and checks the server answers.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	logger = logger.With().Str("component", "postgres").Logger()

	pc, err := poolConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_conns", pc.MaxConns).
		Msg("connected to PostgreSQL")

	return &DB{Pool: pool, logger: logger}, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	db.Pool.Close()
	db.logger.Info().Msg("connection pool closed")
	return nil
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Health checks the database connection health.
func (db *DB) Health(ctx context.Context) error {
	return db.Ping(ctx)
}

// SQLDB returns a database/sql handle sharing the pool, used by the migrator.
// Closing it does not close the pool.
func (db *DB) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(db.Pool)
}

// WithTx runs fn in a transaction and commits when it returns nil.
// The transaction is rolled back when fn fails or panics.
func (db *DB) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.Pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			db.logger.Warn().Err(rbErr).Msg("rollback failed")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	done = true
	return nil
}

// queryTracer logs every statement with its duration at debug level.
type queryTracer struct {
	logger zerolog.Logger
}

type queryStartKey struct{}

type queryStart struct {
	sql   string
	nargs int
	at    time.Time
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, nargs: len(data.Args), at: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	t.logger.Debug().
		Err(data.Err).
		Str("sql", start.sql).
		Int("args", start.nargs).
		Dur("duration", time.Since(start.at)).
		Str("command_tag", data.CommandTag.String()).
		Msg("query")
}

// NewRepositories creates all PostgreSQL repositories backed by db.
func NewRepositories(db *DB) repository.Repositories {
	return repository.Repositories{
		User:    NewUserRepository(db),
		Catalog: NewCatalogRepository(db),
		Order:   NewOrderRepository(db),
	}
}

var _ repository.DatabaseHealth = (*DB)(nil)
