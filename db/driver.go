// Package db: driver.go
// Defines the pluggable driver abstraction layer. Each driver adapter builds
// its DSN from structured options and describes the SQL dialect the
// repositories must speak (bind variables, RETURNING support).
package db

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ─────────────────────────────────────────────────────────────────────────────
// Dialect
// ─────────────────────────────────────────────────────────────────────────────

// BindStyle is the placeholder syntax a driver accepts.
type BindStyle int

const (
	// BindQuestion is "?" (MySQL, SQLite).
	BindQuestion BindStyle = iota
	// BindDollar is "$1, $2, ..." (PostgreSQL).
	BindDollar
)

// Dialect captures the differences between drivers that matter to
// repositories. Statements are always written with "?" and rebound once.
type Dialect struct {
	Bind BindStyle
	// Returning reports whether INSERT ... RETURNING id must be used because
	// the driver does not implement LastInsertId.
	Returning bool
}

// Rebind rewrites "?" placeholders into the dialect's bind style.
// Statements must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d.Bind != BindDollar {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver interface
// ─────────────────────────────────────────────────────────────────────────────

// Driver encapsulates database-specific behaviour:
//   - building a DSN from structured options
//   - the SQL dialect repositories must use
//   - a driver-specific ErrorMapper
type Driver interface {
	// Name returns the name passed to sql.Register, e.g. "mysql".
	Name() string

	// DSN converts structured options into a driver DSN string.
	DSN(opts DriverOptions) (string, error)

	Dialect() Dialect

	ErrorMapper() ErrorMapper
}

// DriverOptions carries the common connection parameters in a driver-agnostic
// form. DSN() converts them to the driver's native format.
type DriverOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	// Timeout bounds the dial; zero leaves the driver default.
	Timeout time.Duration
	// Extra holds driver-specific key/value parameters.
	Extra map[string]string
}

// ─────────────────────────────────────────────────────────────────────────────
// Driver registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// RegisterDriver adds a Driver to the registry. Panics on a duplicate name.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, ok := drivers[d.Name()]; ok {
		panic(fmt.Sprintf("portfolio/db: driver %q already registered", d.Name()))
	}
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name or an error.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("portfolio/db: driver %q not registered", name)
	}
	return d, nil
}

// OpenWithDriver opens a DB using a registered Driver and structured options.
//
//	d, err := db.OpenWithDriver("mysql", db.DriverOptions{
//	    Host: "localhost", User: "root", Password: "root", Database: "portfolio",
//	}, db.Config{LazyConnect: true})
func OpenWithDriver(driverName string, driverOpts DriverOptions, cfg Config) (*DB, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return nil, err
	}

	dsn, err := drv.DSN(driverOpts)
	if err != nil {
		return nil, fmt.Errorf("portfolio/db: DSN construction failed: %w", err)
	}

	cfg.DriverName = drv.Name()
	cfg.DSN = dsn

	d, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	d.SetErrorMapper(ChainMapper(drv.ErrorMapper(), DefaultErrorMapper()))
	return d, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL driver adapter (go-sql-driver/mysql)
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the production adapter.
type MySQLDriver struct{}

func (MySQLDriver) Name() string { return "mysql" }

func (MySQLDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("mysql driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	c.DBName = o.Database
	c.ParseTime = true
	c.Timeout = o.Timeout
	if len(o.Extra) > 0 {
		c.Params = make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			c.Params[k] = v
		}
	}
	return c.FormatDSN(), nil
}

func (MySQLDriver) Dialect() Dialect         { return Dialect{Bind: BindQuestion} }
func (MySQLDriver) ErrorMapper() ErrorMapper { return DefaultErrorMapper() }

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL driver adapter (lib/pq)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter.
type PostgresDriver struct{}

func (PostgresDriver) Name() string { return "postgres" }

func (PostgresDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("postgres driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		o.Host, port, o.User, o.Password, o.Database,
	)
	if o.Timeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", int(o.Timeout.Seconds()))
	}
	for k, v := range o.Extra {
		dsn += fmt.Sprintf(" %s=%s", k, v)
	}
	return dsn, nil
}

func (PostgresDriver) Dialect() Dialect         { return Dialect{Bind: BindDollar, Returning: true} }
func (PostgresDriver) ErrorMapper() ErrorMapper { return DefaultErrorMapper() }

// ─────────────────────────────────────────────────────────────────────────────
// SQLite driver adapter (mattn/go-sqlite3)
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter used for local development
// and tests. The binary must blank-import the driver.
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string { return "sqlite3" }

func (SQLiteDriver) DSN(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	dsn := o.Database
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for k, v := range o.Extra {
		dsn += sep + k + "=" + v
		sep = "&"
	}
	return dsn, nil
}

func (SQLiteDriver) Dialect() Dialect         { return Dialect{Bind: BindQuestion} }
func (SQLiteDriver) ErrorMapper() ErrorMapper { return DefaultErrorMapper() }

func init() {
	RegisterDriver(MySQLDriver{})
	RegisterDriver(PostgresDriver{})
	RegisterDriver(SQLiteDriver{})
}

// dialectFor returns the dialect of a registered driver, "?" binds otherwise.
func dialectFor(name string) Dialect {
	drv, err := LookupDriver(name)
	if err != nil {
		return Dialect{Bind: BindQuestion}
	}
	return drv.Dialect()
}
