// db/db_test.go: unit tests for the data access layer.
// Uses an in-memory SQLite database; no external services required.
//
// Run:  go test ./db/... -v -race
package db_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Skryldev/portfolio/db"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers
// ─────────────────────────────────────────────────────────────────────────────

func newTestDB(t *testing.T, hooks ...db.Hook) *db.DB {
	t.Helper()
	d, err := db.Open(db.Config{
		DSN:          "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
		Hooks:        append([]db.Hook{db.NewLogHook(db.LogHookConfig{LogArgs: true})}, hooks...),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS social_links (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			platform   TEXT NOT NULL UNIQUE,
			url        TEXT NOT NULL,
			icon_class TEXT
		)`)
	if err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return d
}

func insertLink(t *testing.T, d *db.DB, platform string) error {
	t.Helper()
	ctx := context.Background()
	c, err := d.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer c.Close()
	_, err = c.Exec(ctx,
		`INSERT INTO social_links (platform, url, icon_class) VALUES (?, ?, ?)`,
		platform, "https://example.com/"+platform, "bi bi-"+platform,
	)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Open / Ping
// ─────────────────────────────────────────────────────────────────────────────

func TestOpen(t *testing.T) {
	d := newTestDB(t)
	if err := d.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if d.Dialect().Bind != db.BindQuestion {
		t.Fatalf("sqlite3 should bind with '?', got %v", d.Dialect().Bind)
	}
}

func TestOpen_InvalidDSN(t *testing.T) {
	_, err := db.Open(db.Config{DSN: "", DriverName: "sqlite3"})
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Acquire
// ─────────────────────────────────────────────────────────────────────────────

func TestAcquire_ExecAndQueryRow(t *testing.T) {
	d := newTestDB(t)
	if err := insertLink(t, d, "github"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ctx := context.Background()
	c, err := d.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer c.Close()

	var url string
	if err := c.QueryRow(ctx, `SELECT url FROM social_links WHERE platform = ?`, "github").Scan(&url); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if url != "https://example.com/github" {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestAcquire_QueryRowNotFound(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	c, err := d.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer c.Close()

	var url string
	err = c.QueryRow(ctx, `SELECT url FROM social_links WHERE id = ?`, 99999).Scan(&url)
	if !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAcquire_ClosedHandle(t *testing.T) {
	d := newTestDB(t)
	_ = d.Close()

	c, err := d.Acquire(context.Background())
	if c != nil {
		t.Fatal("expected no connection from a closed handle")
	}
	if !db.IsConnectionFailed(err) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	var dbErr *db.DBError
	if !errors.As(err, &dbErr) || dbErr.Cause == nil {
		t.Fatalf("expected *DBError with a cause, got %#v", err)
	}
}

func TestAcquire_LazyConnectUnreachable(t *testing.T) {
	d, err := db.Open(db.Config{
		DSN:         "file:/nonexistent-dir/portfolio.db?mode=ro",
		DriverName:  "sqlite3",
		LazyConnect: true,
	})
	if err != nil {
		t.Fatalf("lazy open should not dial: %v", err)
	}
	defer d.Close()

	if _, err := d.Acquire(context.Background()); !db.IsConnectionFailed(err) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
}

func TestConn_CloseNil(t *testing.T) {
	var c *db.Conn
	if err := c.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error mapping
// ─────────────────────────────────────────────────────────────────────────────

func TestErrorMapper_DuplicateKey(t *testing.T) {
	d := newTestDB(t)
	if err := insertLink(t, d, "linkedin"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := insertLink(t, d, "linkedin")
	if !db.IsDuplicateKey(err) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestErrorMapper_CheckViolation(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	c, err := d.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer c.Close()

	_, err = c.Exec(ctx, `INSERT INTO social_links (platform, url) VALUES (?, NULL)`, "github")
	if !db.IsCheckViolation(err) {
		t.Fatalf("expected ErrCheckViolation, got %v", err)
	}
}

func TestErrorMapper_MySQLNumbers(t *testing.T) {
	tests := []struct {
		number uint16
		is     func(error) bool
	}{
		{1062, db.IsDuplicateKey},
		{1048, db.IsCheckViolation},
		{1213, db.IsDeadlock},
		{1205, db.IsDeadlock},
		{3024, db.IsTimeout},
		{1045, db.IsConnectionFailed},
	}
	for _, tt := range tests {
		err := db.DefaultErrorMapper().Map(&mysql.MySQLError{Number: tt.number, Message: "x"})
		if !tt.is(err) {
			t.Fatalf("mysql error %d mapped to %v", tt.number, err)
		}
	}
}

func TestErrorMapper_ContextCanceled(t *testing.T) {
	mapped := db.DefaultErrorMapper().Map(context.Canceled)
	if !db.IsTimeout(mapped) {
		t.Fatalf("expected ErrTimeout, got %v", mapped)
	}
}

func TestErrorMapper_NoDoubleWrap(t *testing.T) {
	first := db.DefaultErrorMapper().Map(errors.New("UNIQUE constraint failed: skills.name"))
	second := db.DefaultErrorMapper().Map(first)
	if first != second {
		t.Fatalf("mapped error was wrapped twice: %v", second)
	}
}

func TestErrorMapper_PQCodeFromText(t *testing.T) {
	err := errors.New(`pq: duplicate key value violates unique constraint "users_username_key" (SQLSTATE 23505)`)
	if !db.IsDuplicateKey(db.DefaultErrorMapper().Map(err)) {
		t.Fatal("expected ErrDuplicateKey from SQLSTATE 23505")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Hooks
// ─────────────────────────────────────────────────────────────────────────────

type countingHook struct {
	before int
	after  int
}

func (h *countingHook) BeforeQuery(_ context.Context, _ string, _ []any) { h.before++ }
func (h *countingHook) AfterQuery(_ context.Context, _ string, _ []any, _ time.Duration, _ error) {
	h.after++
}

func TestHooks_CalledOnConnExec(t *testing.T) {
	hook := &countingHook{}
	d := newTestDB(t, hook)
	// newTestDB ran the schema statement through the hooks already.
	before, after := hook.before, hook.after

	if err := insertLink(t, d, "x"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if hook.before != before+1 || hook.after != after+1 {
		t.Fatalf("hook not called: before=%d after=%d", hook.before-before, hook.after-after)
	}
}

type recordingHook struct {
	queries []string
	errs    []error
}

func (h *recordingHook) BeforeQuery(context.Context, string, []any) {}
func (h *recordingHook) AfterQuery(_ context.Context, q string, _ []any, _ time.Duration, err error) {
	h.queries = append(h.queries, q)
	h.errs = append(h.errs, err)
}

func TestHooks_QueryRowReportsScanOutcome(t *testing.T) {
	hook := &recordingHook{}
	d := newTestDB(t, hook)
	ctx := context.Background()
	c, err := d.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer c.Close()

	seen := len(hook.errs)
	row := c.QueryRow(ctx, `SELECT url FROM social_links WHERE id = ?`, 404)
	if len(hook.errs) != seen {
		t.Fatal("AfterQuery fired before the row was scanned")
	}
	var url string
	if err := row.Scan(&url); !db.IsNotFound(err) {
		t.Fatalf("scan: %v", err)
	}
	if len(hook.errs) != seen+1 || !db.IsNotFound(hook.errs[seen]) {
		t.Fatalf("hook saw %v, want ErrNotFound", hook.errs[seen:])
	}
}

func TestLogHook_TagsStatementAndTable(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := newTestDB(t, db.NewLogHook(db.LogHookConfig{Logger: logger}))
	buf.Reset()

	if err := insertLink(t, d, "github"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := insertLink(t, d, "github"); !db.IsDuplicateKey(err) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		if err := json.Unmarshal(line, &e); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %s", len(entries), buf.String())
	}
	for _, e := range entries {
		if e["stmt"] != "INSERT" || e["table"] != "social_links" {
			t.Fatalf("entry not tagged with statement target: %v", e)
		}
	}
	if entries[0]["level"] != "DEBUG" || entries[1]["level"] != "ERROR" {
		t.Fatalf("unexpected levels: %v / %v", entries[0]["level"], entries[1]["level"])
	}
}

type panickyHook struct{}

func (panickyHook) BeforeQuery(context.Context, string, []any) { panic("boom") }
func (panickyHook) AfterQuery(context.Context, string, []any, time.Duration, error) {
	panic("boom")
}

func TestHooks_PanicRecovered(t *testing.T) {
	d := newTestDB(t, panickyHook{})
	if err := insertLink(t, d, "mastodon"); err != nil {
		t.Fatalf("insert with panicking hook: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Dialects and drivers
// ─────────────────────────────────────────────────────────────────────────────

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect db.Dialect
		in      string
		want    string
	}{
		{"question unchanged", db.Dialect{Bind: db.BindQuestion}, "UPDATE skills SET name = ? WHERE id = ?", "UPDATE skills SET name = ? WHERE id = ?"},
		{"dollar numbered", db.Dialect{Bind: db.BindDollar}, "UPDATE skills SET name = ?, level = ? WHERE id = ?", "UPDATE skills SET name = $1, level = $2 WHERE id = $3"},
		{"no binds", db.Dialect{Bind: db.BindDollar}, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.in); got != tt.want {
				t.Fatalf("Rebind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMySQLDriver_DSN(t *testing.T) {
	dsn, err := db.MySQLDriver{}.DSN(db.DriverOptions{
		Host: "localhost", User: "root", Password: "root", Database: "portfolio",
	})
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if !strings.HasPrefix(dsn, "root:root@tcp(localhost:3306)/portfolio?") {
		t.Fatalf("unexpected dsn: %q", dsn)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("dsn should enable parseTime: %q", dsn)
	}
}

func TestPostgresDriver_DSN(t *testing.T) {
	dsn, err := db.PostgresDriver{}.DSN(db.DriverOptions{
		Host: "db", User: "app", Password: "secret", Database: "portfolio",
	})
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	want := "host=db port=5432 user=app password=secret dbname=portfolio sslmode=disable"
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}
	if !(db.PostgresDriver{}).Dialect().Returning {
		t.Fatal("postgres must insert with RETURNING")
	}
}

func TestDriver_MissingDatabase(t *testing.T) {
	for _, drv := range []db.Driver{db.MySQLDriver{}, db.PostgresDriver{}, db.SQLiteDriver{}} {
		if _, err := drv.DSN(db.DriverOptions{Host: "localhost"}); err == nil {
			t.Fatalf("%s: expected error without database", drv.Name())
		}
	}
}

func TestLookupDriver_Unknown(t *testing.T) {
	if _, err := db.LookupDriver("oracle"); err == nil {
		t.Fatal("expected error for unregistered driver")
	}
}
