package db

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Hook observes every statement a Conn runs. AfterQuery receives the mapped
// error the caller sees; for QueryRow it fires when the row is scanned.
// Hooks run on request goroutines and must not block. A panicking hook is
// logged and skipped.
type Hook interface {
	BeforeQuery(ctx context.Context, query string, args []any)
	AfterQuery(ctx context.Context, query string, args []any, duration time.Duration, err error)
}

type hookChain struct {
	hooks []Hook
}

func newHookChain(hooks []Hook) hookChain {
	c := hookChain{}
	for _, h := range hooks {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
	return c
}

func (c hookChain) Before(ctx context.Context, query string, args []any) {
	for _, h := range c.hooks {
		c.guard(ctx, "BeforeQuery", func() { h.BeforeQuery(ctx, query, args) })
	}
}

func (c hookChain) After(ctx context.Context, query string, args []any, d time.Duration, err error) {
	for _, h := range c.hooks {
		c.guard(ctx, "AfterQuery", func() { h.AfterQuery(ctx, query, args, d, err) })
	}
}

func (hookChain) guard(ctx context.Context, phase string, call func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "portfolio/db: hook panicked", slog.String("phase", phase), slog.Any("panic", r))
		}
	}()
	call()
}

// ── Logging hook ─────────────────────────────────────────────────────────────

// LogHookConfig configures NewLogHook.
type LogHookConfig struct {
	Logger *slog.Logger

	// SlowQueryThreshold turns successful statements slower than this into
	// warnings. Zero disables it.
	SlowQueryThreshold time.Duration

	// LogArgs adds bound values to each entry. Keep it off outside
	// development: users.password_hash is bound as an argument.
	LogArgs bool
}

// NewLogHook logs one entry per statement, tagged with the statement verb and
// the section table it touched. Missing rows and fast statements log at
// debug, slow ones warn, failures are errors.
func NewLogHook(cfg LogHookConfig) Hook {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return logHook(cfg)
}

type logHook LogHookConfig

func (logHook) BeforeQuery(context.Context, string, []any) {}

func (h logHook) AfterQuery(ctx context.Context, query string, args []any, d time.Duration, err error) {
	verb, table := statementTarget(query)
	attrs := []any{
		slog.String("stmt", verb),
		slog.String("table", table),
		slog.Duration("duration", d),
	}
	if h.LogArgs && len(args) > 0 {
		attrs = append(attrs, slog.Any("args", args))
	}

	switch {
	case err != nil && !IsNotFound(err):
		attrs = append(attrs, slog.String("query", shortQuery(query)), slog.Any("error", err))
		h.Logger.ErrorContext(ctx, "portfolio/db: statement failed", attrs...)
	case err == nil && h.SlowQueryThreshold > 0 && d > h.SlowQueryThreshold:
		attrs = append(attrs, slog.String("query", shortQuery(query)))
		h.Logger.WarnContext(ctx, "portfolio/db: slow statement", attrs...)
	default:
		h.Logger.DebugContext(ctx, "portfolio/db: statement", append(attrs, slog.Bool("no_rows", err != nil))...)
	}
}

// statementTarget returns the upper-cased leading keyword of query and the
// table it reads or writes, "" when there is none (DDL, SELECT 1).
func statementTarget(query string) (verb, table string) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "", ""
	}
	verb = strings.ToUpper(words[0])

	var after string
	switch verb {
	case "SELECT", "DELETE":
		after = "FROM"
	case "INSERT":
		after = "INTO"
	case "UPDATE":
		if len(words) > 1 {
			table = words[1]
		}
		return verb, strings.Trim(table, "`\"")
	default:
		return verb, ""
	}
	for i := 1; i < len(words)-1; i++ {
		if strings.EqualFold(words[i], after) {
			return verb, strings.Trim(words[i+1], "`\"(")
		}
	}
	return verb, ""
}

func shortQuery(q string) string {
	if len(q) > 300 {
		return q[:300] + "…"
	}
	return q
}
