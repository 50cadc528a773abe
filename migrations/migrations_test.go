package migrations_test

import (
	"context"
	"testing"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/migrations"
	_ "github.com/mattn/go-sqlite3"
)

func TestUpStatements(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite3"} {
		stmts, err := migrations.UpStatements(driver)
		if err != nil {
			t.Fatalf("%s: %v", driver, err)
		}
		// seven tables plus the about seed row
		if len(stmts) != 8 {
			t.Fatalf("%s: expected 8 statements, got %d", driver, len(stmts))
		}
	}
}

func TestUpStatements_UnknownDriver(t *testing.T) {
	if _, err := migrations.UpStatements("oracle"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, err := migrations.Source("oracle"); err == nil {
		t.Fatal("expected error for unknown driver source")
	}
}

func TestSource(t *testing.T) {
	src, err := migrations.Source("sqlite3")
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected first version 1, got %d", v)
	}
}

func TestApply_Idempotent(t *testing.T) {
	d, err := db.Open(db.Config{
		DSN:          "file:migrations_apply?mode=memory&cache=shared",
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := migrations.Apply(ctx, d, "sqlite3"); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	var n int
	if err := d.Raw().QueryRowContext(ctx, `SELECT COUNT(*) FROM about`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one about row, got %d", n)
	}
}
