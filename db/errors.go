package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sentinel errors
// ─────────────────────────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("portfolio/db: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("portfolio/db: duplicate key")

	// ErrCheckViolation is returned when a CHECK or NOT NULL constraint is violated.
	ErrCheckViolation = errors.New("portfolio/db: constraint violation")

	// ErrDeadlock is returned when the database detects a deadlock or a lock timeout.
	ErrDeadlock = errors.New("portfolio/db: deadlock detected")

	// ErrTimeout is returned when a statement exceeds its deadline.
	ErrTimeout = errors.New("portfolio/db: query timeout")

	// ErrConnectionFailed is returned when no connection to the store could be
	// obtained (network, auth, missing database, closed handle).
	ErrConnectionFailed = errors.New("portfolio/db: connection failed")
)

func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool     { return errors.Is(err, ErrDuplicateKey) }
func IsCheckViolation(err error) bool   { return errors.Is(err, ErrCheckViolation) }
func IsDeadlock(err error) bool         { return errors.Is(err, ErrDeadlock) }
func IsTimeout(err error) bool          { return errors.Is(err, ErrTimeout) }
func IsConnectionFailed(err error) bool { return errors.Is(err, ErrConnectionFailed) }

// ─────────────────────────────────────────────────────────────────────────────
// DBError: sentinel plus the original driver error
// ─────────────────────────────────────────────────────────────────────────────

// DBError wraps a sentinel error with the original driver error so callers can
// use errors.Is(err, ErrNotFound) while logs keep the raw cause.
type DBError struct {
	Sentinel error
	Cause    error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// ─────────────────────────────────────────────────────────────────────────────
// ErrorMapper
// ─────────────────────────────────────────────────────────────────────────────

// ErrorMapper translates raw driver errors into the package's sentinel errors.
type ErrorMapper interface {
	Map(err error) error
}

// ErrorMapperFunc adapts a function to ErrorMapper.
type ErrorMapperFunc func(error) error

func (f ErrorMapperFunc) Map(err error) error { return f(err) }

// DefaultErrorMapper handles database/sql, context, PostgreSQL, MySQL and
// SQLite errors.
func DefaultErrorMapper() ErrorMapper {
	return ErrorMapperFunc(defaultMap)
}

func defaultMap(err error) error {
	if err == nil {
		return nil
	}

	// Already mapped, do not double-wrap.
	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}

	if mapped := mapPQError(err); mapped != nil {
		return mapped
	}
	if mapped := mapMySQLError(err); mapped != nil {
		return mapped
	}
	if mapped := mapSQLiteError(err); mapped != nil {
		return mapped
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq) mapping
// ─────────────────────────────────────────────────────────────────────────────

func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return mapByPGCode(string(pqErr.Code), err)
	}
	return mapByPGCode(pqCodeFromString(err.Error()), err)
}

func pqCodeFromString(s string) string {
	const marker = "(SQLSTATE "
	idx := strings.LastIndex(s, marker)
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(marker):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// PostgreSQL SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapByPGCode(code string, cause error) error {
	switch code {
	case "23505":
		return &DBError{Sentinel: ErrDuplicateKey, Cause: cause}
	case "23502", "23514":
		return &DBError{Sentinel: ErrCheckViolation, Cause: cause}
	case "40P01":
		return &DBError{Sentinel: ErrDeadlock, Cause: cause}
	case "57014":
		return &DBError{Sentinel: ErrTimeout, Cause: cause}
	case "08000", "08003", "08006", "08001", "08004", "08007", "08P01", "28P01", "3D000":
		return &DBError{Sentinel: ErrConnectionFailed, Cause: cause}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL mapping
// ─────────────────────────────────────────────────────────────────────────────

func mapMySQLError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		if errors.Is(err, mysql.ErrInvalidConn) {
			return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
		}
		return nil
	}
	num := me.Number
	switch num {
	case 1062:
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case 1048, 1364, 3819:
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	case 1205, 1213:
		return &DBError{Sentinel: ErrDeadlock, Cause: err}
	case 3024:
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	case 1044, 1045, 1049, 2002, 2003, 2006, 2013:
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite mapping (string-based)
// ─────────────────────────────────────────────────────────────────────────────

func mapSQLiteError(err error) error {
	s := err.Error()
	switch {
	case strings.Contains(s, "UNIQUE constraint failed"):
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case strings.Contains(s, "CHECK constraint failed"), strings.Contains(s, "NOT NULL constraint failed"):
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	case strings.Contains(s, "database is locked"):
		return &DBError{Sentinel: ErrDeadlock, Cause: err}
	case strings.Contains(s, "unable to open database file"):
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return nil
}

// ChainMapper tries each mapper in order and returns the first remapped error.
func ChainMapper(mappers ...ErrorMapper) ErrorMapper {
	return ErrorMapperFunc(func(err error) error {
		if err == nil {
			return nil
		}
		for _, m := range mappers {
			if mapped := m.Map(err); mapped != err {
				return mapped
			}
		}
		return err
	})
}
