// Package config loads the process configuration from the environment and an
// optional .env file. Every setting has a local-development default, so an
// empty environment yields a working setup against a local MySQL.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/Skryldev/portfolio/db"
)

// Config is the root configuration object.
type Config struct {
	Database DatabaseConfig `koanf:"db" validate:"required"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Files    FilesConfig    `koanf:"files" validate:"required"`
	Log      LogConfig      `koanf:"log" validate:"required"`
}

// DatabaseConfig selects the driver and connection target. For sqlite3,
// Name is the database file path.
type DatabaseConfig struct {
	Driver   string        `koanf:"driver" validate:"required,oneof=mysql postgres sqlite3"`
	Host     string        `koanf:"host" validate:"required_unless=Driver sqlite3"`
	Port     int           `koanf:"port" validate:"min=0,max=65535"`
	User     string        `koanf:"user"`
	Password string        `koanf:"password"`
	Name     string        `koanf:"name" validate:"required"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`
}

type ServerConfig struct {
	Port int `koanf:"port" validate:"required,min=1,max=65535"`
	// CORSAllowedOrigins is a comma-separated list; empty disables CORS.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

type AuthConfig struct {
	SecretKey  string        `koanf:"secret_key" validate:"required"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`
}

type FilesConfig struct {
	UploadsDir string `koanf:"uploads_dir" validate:"required"`
	CVFilename string `koanf:"cv_filename" validate:"required"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// DevSecretKey is the default session secret. It is only fit for local use.
const DevSecretKey = "dev-secret-change-me"

var defaults = map[string]any{
	"db.driver":                   "mysql",
	"db.host":                     "localhost",
	"db.port":                     0,
	"db.user":                     "root",
	"db.password":                 "root",
	"db.name":                     "portafolio_matias",
	"db.timeout":                  10 * time.Second,
	"server.port":                 5000,
	"server.cors_allowed_origins": "",
	"auth.secret_key":             DevSecretKey,
	"auth.session_ttl":            24 * time.Hour,
	"files.uploads_dir":           "static/uploads",
	"files.cv_filename":           "Modern Professional CV Resume.pdf",
	"log.level":                   "info",
}

// envKeys maps each recognized environment variable to its config key.
var envKeys = map[string]string{
	"DB_DRIVER":            "db.driver",
	"DB_HOST":              "db.host",
	"DB_PORT":              "db.port",
	"DB_USER":              "db.user",
	"DB_PASSWORD":          "db.password",
	"DB_NAME":              "db.name",
	"DB_TIMEOUT":           "db.timeout",
	"PORT":                 "server.port",
	"CORS_ALLOWED_ORIGINS": "server.cors_allowed_origins",
	"SECRET_KEY":           "auth.secret_key",
	"SESSION_TTL":          "auth.session_ttl",
	"UPLOADS_DIR":          "files.uploads_dir",
	"CV_FILENAME":          "files.cv_filename",
	"LOG_LEVEL":            "log.level",
}

// Load reads envFiles (".env" when none are given) into the process
// environment, overlays the environment on the defaults and validates the
// result. Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("config: default %s: %w", key, err)
		}
	}

	err := k.Load(env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		key, ok := envKeys[name]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// DriverOptions converts the database settings for db.OpenWithDriver.
func (c DatabaseConfig) DriverOptions() db.DriverOptions {
	return db.DriverOptions{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Name,
		Timeout:  c.Timeout,
	}
}

// AllowedOrigins splits CORSAllowedOrigins, dropping blanks.
func (c ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr returns the listen address for Port.
func (c ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// String masks secrets.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s@%s:%d/%s, Port: %d, Auth: *** (masked) ***}",
		c.Database.Driver, c.Database.Host, c.Database.Port, c.Database.Name, c.Server.Port)
}
