package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Conn: one connection for one operation
// ─────────────────────────────────────────────────────────────────────────────

// Conn is a connection checked out for a single operation. It mirrors the
// statement helpers of DB so repository code is written against Querier.
// Callers MUST Close it once the statement is done.
type Conn struct {
	conn   *sql.Conn
	hooks  hookChain
	errMap ErrorMapper
}

// Acquire checks out one connection for the next operation.
//
// On any failure (network, auth, missing database, closed handle) it logs a
// diagnostic and returns an error matching ErrConnectionFailed; the driver
// error is kept as the cause but never surfaced as its own type.
func (d *DB) Acquire(ctx context.Context) (*Conn, error) {
	c, err := d.sqldb.Conn(ctx)
	if err == nil {
		// database/sql dials lazily; a dead server only shows up on first use.
		err = c.PingContext(ctx)
		if err != nil {
			_ = c.Close()
		}
	}
	if err != nil {
		cerr := &DBError{Sentinel: ErrConnectionFailed, Cause: err}
		d.logger.ErrorContext(ctx, "portfolio/db: acquire connection",
			slog.String("driver", d.cfg.DriverName),
			slog.Any("error", err),
		)
		return nil, cerr
	}
	return &Conn{conn: c, hooks: d.hooks, errMap: d.errMap}, nil
}

// Close returns the connection. Safe to call on a nil Conn.
func (c *Conn) Close() error {
	if c == nil {
		return nil
	}
	return c.conn.Close()
}

// Exec executes a statement that does not return rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	c.hooks.Before(ctx, query, args)
	res, err := c.conn.ExecContext(ctx, query, args...)
	err = c.mapErr(err)
	c.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query returning rows. The caller MUST close *sql.Rows.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	c.hooks.Before(ctx, query, args)
	rows, err := c.conn.QueryContext(ctx, query, args...)
	err = c.mapErr(err)
	c.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *Row {
	start := time.Now()
	c.hooks.Before(ctx, query, args)
	raw := c.conn.QueryRowContext(ctx, query, args...)
	return &Row{raw: raw, errMap: c.errMap, done: func(err error) {
		c.hooks.After(ctx, query, args, time.Since(start), err)
	}}
}

func (c *Conn) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return c.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Querier / Connector: the interfaces accepted by repositories
// ─────────────────────────────────────────────────────────────────────────────

// Querier is the statement surface repositories use.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *Row
}

// Connector hands out per-operation connections.
type Connector interface {
	Acquire(ctx context.Context) (*Conn, error)
	Dialect() Dialect
}

var (
	_ Querier   = (*Conn)(nil)
	_ Connector = (*DB)(nil)
)
