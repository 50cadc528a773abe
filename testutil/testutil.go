// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/migrations"
)

// OpenDB opens a private in-memory SQLite database with the portfolio schema
// applied (including the seeded about row). It is closed via t.Cleanup.
// hooks observe every statement, the schema setup included.
func OpenDB(t *testing.T, hooks ...db.Hook) *db.DB {
	t.Helper()
	// Shared cache keeps one database across the pool's connections.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := db.Open(db.Config{
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
		Hooks:        hooks,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if err := migrations.Apply(context.Background(), d, "sqlite3"); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return d
}

// OpenClosedDB returns a handle that can no longer hand out connections,
// standing in for an unreachable store.
func OpenClosedDB(t *testing.T) *db.DB {
	t.Helper()
	d := OpenDB(t)
	_ = d.Close()
	return d
}

// SeedUser inserts a user row the way an operator would provision it.
func SeedUser(t *testing.T, d *db.DB, username, passwordHash, fullName string) {
	t.Helper()
	_, err := d.Exec(context.Background(),
		`INSERT INTO users (username, password_hash, full_name) VALUES (?, ?, ?)`,
		username, passwordHash, fullName,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}
