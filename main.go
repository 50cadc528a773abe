// main.go: portfolio site server
// ============================================================
// Wires configuration, the database handle, repositories, the
// section service and the HTTP surface, then serves until
// SIGINT/SIGTERM.
//
// The database is opened lazily: the site starts while the store
// is down and each request degrades on its own.
// ============================================================
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers self-register with database/sql.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Skryldev/portfolio/auth"
	"github.com/Skryldev/portfolio/config"
	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/migrations"
	"github.com/Skryldev/portfolio/repo"
	"github.com/Skryldev/portfolio/service"
	"github.com/Skryldev/portfolio/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}

	// ── Structured logger ─────────────────────────────────────────────────
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "config", cfg.String())

	if cfg.Auth.SecretKey == config.DevSecretKey {
		slog.Warn("SECRET_KEY is the development default; sessions can be forged")
	}

	// ── Database ─────────────────────────────────────────────────────────
	database, err := db.OpenWithDriver(cfg.Database.Driver, cfg.Database.DriverOptions(), db.Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		LazyConnect:     true,
		Logger:          logger,
		Hooks: []db.Hook{
			db.NewLogHook(db.LogHookConfig{
				Logger:             logger,
				SlowQueryThreshold: 200 * time.Millisecond,
			}),
		},
	})
	if err != nil {
		fatalf("open database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Ping(ctx); err != nil {
		slog.Warn("database unreachable at startup", "driver", cfg.Database.Driver, "err", err)
	}

	// Local SQLite files get the schema on boot; server databases are
	// migrated with cmd/migrate.
	if cfg.Database.Driver == "sqlite3" {
		if err := migrations.Apply(ctx, database, "sqlite3"); err != nil {
			fatalf("apply sqlite schema: %v", err)
		}
	}

	// ── Application ──────────────────────────────────────────────────────
	repos := repo.New(database)
	sessions, err := auth.NewSessions(cfg.Auth.SecretKey, cfg.Auth.SessionTTL)
	if err != nil {
		fatalf("sessions: %v", err)
	}
	srv := web.New(web.Options{
		Portfolio:      service.New(repos, logger),
		Users:          repos.Users,
		Sessions:       sessions,
		UploadsDir:     cfg.Files.UploadsDir,
		CVFilename:     cfg.Files.CVFilename,
		AllowedOrigins: cfg.Server.AllowedOrigins(),
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "err", err)
		}
	}()

	slog.Info("listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatalf("serve: %v", err)
	}
	slog.Info("server stopped")
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
