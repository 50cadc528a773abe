// Package db is the SQL-first data access layer of the portfolio site. It is
// NOT an ORM: all SQL is explicit and lives in the repositories. The package
// adds per-operation connection checkout, hook dispatch, unified error
// mapping and a small dialect abstraction on top of database/sql.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds all options for opening the database handle.
type Config struct {
	// DSN is the driver-specific data-source name.
	DSN string

	// DriverName is "mysql", "postgres" or "sqlite3".
	DriverName string

	// Pool settings. Zero keeps the database/sql defaults.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// LazyConnect skips the connectivity check in Open, so the process can
	// start while the store is down; each operation then fails on its own
	// with ErrConnectionFailed.
	LazyConnect bool

	// Logger receives connection diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Hooks executed around every statement. nil entries are skipped.
	Hooks []Hook
}

// ─────────────────────────────────────────────────────────────────────────────
// DB
// ─────────────────────────────────────────────────────────────────────────────

// DB is a thin, concurrency-safe wrapper around *sql.DB.
//
// Repositories never run statements on DB directly: they Acquire a Conn for
// one operation and close it afterwards.
type DB struct {
	sqldb   *sql.DB
	cfg     Config
	dialect Dialect
	logger  *slog.Logger
	hooks   hookChain
	errMap  ErrorMapper
}

// Open opens the database described by cfg and, unless cfg.LazyConnect is
// set, verifies connectivity with Ping.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("portfolio/db: DSN must not be empty")
	}
	if cfg.DriverName == "" {
		return nil, fmt.Errorf("portfolio/db: DriverName must not be empty")
	}

	sqldb, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("portfolio/db: open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &DB{
		sqldb:   sqldb,
		cfg:     cfg,
		dialect: dialectFor(cfg.DriverName),
		logger:  logger,
		hooks:   newHookChain(cfg.Hooks),
		errMap:  DefaultErrorMapper(),
	}

	if cfg.LazyConnect {
		return d, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("portfolio/db: ping: %w", d.mapErr(err))
	}
	return d, nil
}

// Raw returns the underlying *sql.DB.
func (d *DB) Raw() *sql.DB { return d.sqldb }

// Dialect returns the SQL dialect of the configured driver.
func (d *DB) Dialect() Dialect { return d.dialect }

// SetErrorMapper replaces the default error mapper.
func (d *DB) SetErrorMapper(m ErrorMapper) { d.errMap = m }

// Close closes the handle. Safe to call multiple times.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.mapErr(d.sqldb.PingContext(ctx))
}

// Exec executes a statement outside the per-operation checkout. It exists for
// schema setup and tooling; repositories go through Acquire.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	res, err := d.sqldb.ExecContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

func (d *DB) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Row: wraps *sql.Row to translate errors uniformly
// ─────────────────────────────────────────────────────────────────────────────

// Row wraps *sql.Row and maps errors through the unified error mapper. The
// statement's outcome is only known once the row is scanned, so Scan is what
// reports to the hooks.
type Row struct {
	raw    *sql.Row
	errMap ErrorMapper
	done   func(err error)
}

// Scan copies columns from the matched row into dest values.
// ErrNotFound is returned when no row was found.
func (r *Row) Scan(dest ...any) error {
	err := r.raw.Scan(dest...)
	if err != nil {
		err = r.errMap.Map(err)
	}
	if r.done != nil {
		r.done(err)
	}
	return err
}
