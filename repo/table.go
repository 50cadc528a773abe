package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Skryldev/portfolio/db"
)

// ─────────────────────────────────────────────────────────────────────────────
// Schema: the per-record configuration of a Table
// ─────────────────────────────────────────────────────────────────────────────

// Schema describes how record type E maps onto its table. Columns lists the
// writable columns (everything except id); Fields and Values must return one
// entry per column, in the same order.
type Schema[E any] struct {
	Table   string
	Columns []string

	// OrderBy is the ORDER BY body used by List. Empty keeps store order.
	OrderBy string

	// Key returns the address of the record's id.
	Key func(*E) *int64
	// Fields returns scan destinations for Columns.
	Fields func(*E) []any
	// Values returns the bound values for Columns.
	Values func(*E) []any
}

// ─────────────────────────────────────────────────────────────────────────────
// Table: one generic repository for every section
// ─────────────────────────────────────────────────────────────────────────────

// Table implements list/get/create/update/delete for one record type. Every
// call checks out its own connection, runs exactly one statement and returns
// the connection; nothing is cached between calls.
//
// When no connection can be obtained, List returns an empty slice, Get and
// First return nil, and mutations do nothing; each also returns an error
// matching db.ErrConnectionFailed so callers can tell "no rows" from "store
// unreachable".
//
// Updates are full-row overwrites with no version check: two concurrent
// editors of the same row race and the last write wins.
type Table[E any] struct {
	c      db.Connector
	schema Schema[E]

	returning bool
	sqlList   string
	sqlGet    string
	sqlFirst  string
	sqlInsert string
	sqlUpdate string
	sqlDelete string
}

// NewTable builds the statements of s once, in c's dialect.
func NewTable[E any](c db.Connector, s Schema[E]) *Table[E] {
	dialect := c.Dialect()
	cols := "id, " + strings.Join(s.Columns, ", ")

	list := fmt.Sprintf("SELECT %s FROM %s", cols, s.Table)
	if s.OrderBy != "" {
		list += " ORDER BY " + s.OrderBy
	}

	sets := make([]string, len(s.Columns))
	binds := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		sets[i] = col + " = ?"
		binds[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.Table, strings.Join(s.Columns, ", "), strings.Join(binds, ", "))
	if dialect.Returning {
		insert += " RETURNING id"
	}

	return &Table[E]{
		c:         c,
		schema:    s,
		returning: dialect.Returning,
		sqlList:   list,
		sqlGet:    dialect.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", cols, s.Table)),
		sqlFirst:  fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT 1", cols, s.Table),
		sqlInsert: dialect.Rebind(insert),
		sqlUpdate: dialect.Rebind(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.Table, strings.Join(sets, ", "))),
		sqlDelete: dialect.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.Table)),
	}
}

// Name returns the table name.
func (t *Table[E]) Name() string { return t.schema.Table }

// List returns every row in the table's order.
func (t *Table[E]) List(ctx context.Context) ([]*E, error) {
	conn, err := t.c.Acquire(ctx)
	if err != nil {
		return nil, t.wrap("list", err)
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, t.sqlList)
	if err != nil {
		return nil, t.wrap("list", err)
	}
	defer rows.Close()

	var out []*E
	for rows.Next() {
		e := new(E)
		if err := rows.Scan(t.dest(e)...); err != nil {
			return nil, t.wrap("scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, t.wrap("list", err)
	}
	return out, nil
}

// Get returns the row with the given id, or db.ErrNotFound.
func (t *Table[E]) Get(ctx context.Context, id int64) (*E, error) {
	return t.one(ctx, "get", t.sqlGet, id)
}

// First returns the row with the lowest id, or db.ErrNotFound when the table
// is empty. Used for singleton tables.
func (t *Table[E]) First(ctx context.Context) (*E, error) {
	return t.one(ctx, "first", t.sqlFirst)
}

// Create inserts e, stores the assigned id in it and returns that id.
func (t *Table[E]) Create(ctx context.Context, e *E) (int64, error) {
	conn, err := t.c.Acquire(ctx)
	if err != nil {
		return 0, t.wrap("create", err)
	}
	defer conn.Close()

	var id int64
	if t.returning {
		if err := conn.QueryRow(ctx, t.sqlInsert, t.schema.Values(e)...).Scan(&id); err != nil {
			return 0, t.wrap("create", err)
		}
	} else {
		res, err := conn.Exec(ctx, t.sqlInsert, t.schema.Values(e)...)
		if err != nil {
			return 0, t.wrap("create", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, t.wrap("create", err)
		}
	}
	*t.schema.Key(e) = id
	return id, nil
}

// Update overwrites every column of the row keyed by e's id with e's current
// values. Updating an id that no longer exists changes nothing.
func (t *Table[E]) Update(ctx context.Context, e *E) error {
	conn, err := t.c.Acquire(ctx)
	if err != nil {
		return t.wrap("update", err)
	}
	defer conn.Close()

	args := append(t.schema.Values(e), *t.schema.Key(e))
	if _, err := conn.Exec(ctx, t.sqlUpdate, args...); err != nil {
		return t.wrap("update", err)
	}
	return nil
}

// Delete removes the row with the given id. Deleting a missing row is a
// no-op, so repeated deletes are safe.
func (t *Table[E]) Delete(ctx context.Context, id int64) error {
	conn, err := t.c.Acquire(ctx)
	if err != nil {
		return t.wrap("delete", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(ctx, t.sqlDelete, id); err != nil {
		return t.wrap("delete", err)
	}
	return nil
}

func (t *Table[E]) one(ctx context.Context, op, query string, args ...any) (*E, error) {
	conn, err := t.c.Acquire(ctx)
	if err != nil {
		return nil, t.wrap(op, err)
	}
	defer conn.Close()

	e := new(E)
	if err := conn.QueryRow(ctx, query, args...).Scan(t.dest(e)...); err != nil {
		return nil, t.wrap(op, err)
	}
	return e, nil
}

// dest returns the scan destinations of e: id first, then Columns.
func (t *Table[E]) dest(e *E) []any {
	return append([]any{t.schema.Key(e)}, t.schema.Fields(e)...)
}

func (t *Table[E]) wrap(op string, err error) error {
	return fmt.Errorf("repo/%s: %s: %w", t.schema.Table, op, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Column helpers
// ─────────────────────────────────────────────────────────────────────────────

// text scans a nullable text column into a string; NULL reads as "".
type text struct{ dst *string }

func (t text) Scan(src any) error {
	var ns sql.NullString
	if err := ns.Scan(src); err != nil {
		return err
	}
	*t.dst = ns.String
	return nil
}

// flag scans an integer 0/1 column into a bool.
type flag struct{ dst *bool }

func (f flag) Scan(src any) error {
	var n sql.NullInt64
	if err := n.Scan(src); err != nil {
		return err
	}
	*f.dst = n.Int64 != 0
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
