package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"

	"github.com/Skryldev/portfolio/auth"
	"github.com/Skryldev/portfolio/config"
	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/migrations"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	// passwd needs no database.
	if args[0] == "passwd" {
		if len(args) < 2 {
			fatalf("passwd: password argument required")
		}
		fmt.Println(auth.HashPassword(args[1]))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}

	dbURL, err := databaseURL(cfg.Database)
	if err != nil {
		fatalf("database url: %v", err)
	}

	src, err := migrations.Source(cfg.Database.Driver)
	if err != nil {
		fatalf("migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		fatalf("migration init failed: %v", err)
	}
	defer m.Close()

	m.Log = &migrateLogger{}

	command := args[0]
	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatalf("up failed: %v", err)
		}
		slog.Info("migrations: up completed", "driver", cfg.Database.Driver)

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fatalf("down: invalid steps argument %q", args[1])
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatalf("down failed: %v", err)
		}
		slog.Info("migrations: down completed", "steps", steps)

	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			fatalf("version failed: %v", err)
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			fatalf("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			fatalf("force: invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			fatalf("force failed: %v", err)
		}
		slog.Info("migrations: forced", "version", v)

	case "drop":
		fmt.Fprintln(os.Stderr, "WARNING: drop will destroy all tables. Type 'yes' to confirm:")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("aborted")
			os.Exit(0)
		}
		if err := m.Drop(); err != nil {
			fatalf("drop failed: %v", err)
		}
		slog.Info("migrations: all tables dropped")

	default:
		usage()
		os.Exit(1)
	}
}

// databaseURL renders the configured database in golang-migrate's URL form.
func databaseURL(c config.DatabaseConfig) (string, error) {
	switch c.Driver {
	case "mysql":
		dsn, err := db.MySQLDriver{}.DSN(c.DriverOptions())
		if err != nil {
			return "", err
		}
		return "mysql://" + dsn, nil

	case "postgres":
		port := c.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
			Path:     "/" + c.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil

	case "sqlite3":
		return "sqlite3://" + c.Name, nil
	}
	return "", fmt.Errorf("unsupported driver %q", c.Driver)
}

// ─────────────────────────────────────────────────────────────────────────────

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}
func (l *migrateLogger) Verbose() bool { return false }

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate <command> [args]

Commands:
  up               Apply all pending migrations
  down [N]         Rollback N migrations (default: 1)
  version          Print current migration version
  force <V>        Force set migration version (bypass dirty state)
  drop             Drop all tables (dev only)
  passwd <plain>   Print the stored digest for a password

Environment (or .env):
  DB_DRIVER     mysql | postgres | sqlite3 (default: mysql)
  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME
                Connection target; DB_NAME is the file path for sqlite3.`)
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
