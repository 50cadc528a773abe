// Package migrations embeds the portfolio schema for every supported driver.
//
// Production databases are provisioned out of band; these files reproduce the
// same tables for local development and tests, and are applied with
// cmd/migrate (golang-migrate) or Apply.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/Skryldev/portfolio/db"
)

//go:embed mysql/*.sql postgres/*.sql sqlite3/*.sql
var files embed.FS

// Source returns a golang-migrate source over the embedded files of driver.
func Source(driver string) (source.Driver, error) {
	if _, err := fs.Stat(files, driver); err != nil {
		return nil, fmt.Errorf("migrations: no schema for driver %q", driver)
	}
	return iofs.New(files, driver)
}

// UpStatements returns the statements of every up migration of driver, in
// version order.
func UpStatements(driver string) ([]string, error) {
	entries, err := fs.ReadDir(files, driver)
	if err != nil {
		return nil, fmt.Errorf("migrations: no schema for driver %q", driver)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var stmts []string
	for _, name := range names {
		raw, err := files.ReadFile(path.Join(driver, name))
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(raw), ";") {
			if s := strings.TrimSpace(stmt); s != "" {
				stmts = append(stmts, s)
			}
		}
	}
	return stmts, nil
}

// Apply runs every up statement of driver against d without version
// bookkeeping. The statements are idempotent, so Apply suits throwaway
// SQLite databases; shared databases go through cmd/migrate.
func Apply(ctx context.Context, d *db.DB, driver string) error {
	stmts, err := UpStatements(driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrations: apply %s: %w", driver, err)
		}
	}
	return nil
}
