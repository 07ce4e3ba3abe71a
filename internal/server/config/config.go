// Package config loads the server configuration from flags, environment
// variables and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iudanet/notex/internal/server/mutation"
)

// Environment variables; flags take precedence over them
const (
	EnvAddr              = "NOTEX_ADDR"
	EnvDB                = "NOTEX_DB"
	EnvLogLevel          = "NOTEX_LOG_LEVEL"
	EnvLogFormat         = "NOTEX_LOG_FORMAT"
	EnvPageSize          = "NOTEX_PAGE_SIZE"
	EnvMaxPageSize       = "NOTEX_MAX_PAGE_SIZE"
	EnvDeletePolicy      = "NOTEX_DELETE_POLICY"
	EnvEnforceReferences = "NOTEX_ENFORCE_REFERENCES"
	EnvShutdownTimeout   = "NOTEX_SHUTDOWN_TIMEOUT"
)

// Config holds the server settings
type Config struct {
	Addr              string
	DBPath            string
	LogLevel          slog.Level
	LogFormat         string // text или json
	DeletePolicy      mutation.DeletePolicy
	PageSize          int
	MaxPageSize       int
	ShutdownTimeout   time.Duration
	EnforceReferences bool
	ShowVersion       bool
}

// LookupFunc returns the value of a configuration variable
type LookupFunc func(key string) (string, bool)

// Chain returns a lookup that tries each source in order.
func Chain(sources ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		for _, src := range sources {
			if v, ok := src(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

// ReadEnvFile reads KEY=VALUE pairs from a .env file without touching the
// process environment. A missing file yields an empty lookup.
func ReadEnvFile(path string) (LookupFunc, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return func(string) (string, bool) { return "", false }, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}, nil
}

// Parse builds a Config from command line arguments, falling back to lookup
// and then to built-in defaults.
func Parse(args []string, lookup LookupFunc) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	flagSet := flag.NewFlagSet("notex-server", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var (
		addr            = flagSet.String("addr", env(EnvAddr, ":8080"), "HTTP listen address")
		dbPath          = flagSet.String("db", env(EnvDB, "notex.db"), "SQLite database path")
		logLevel        = flagSet.String("log-level", env(EnvLogLevel, "info"), "Log level: debug, info, warn, error")
		logFormat       = flagSet.String("log-format", env(EnvLogFormat, "text"), "Log format: text or json")
		pageSize        = flagSet.String("page-size", env(EnvPageSize, "100"), "Default sync page size")
		maxPageSize     = flagSet.String("max-page-size", env(EnvMaxPageSize, "1000"), "Maximum sync page size")
		deletePolicy    = flagSet.String("delete-policy", env(EnvDeletePolicy, string(mutation.DeleteOrphan)), "Delete policy: orphan or cascade")
		enforceRefs     = flagSet.String("enforce-references", env(EnvEnforceReferences, "false"), "Reject notes and blocks whose parent is not live")
		shutdownTimeout = flagSet.String("shutdown-timeout", env(EnvShutdownTimeout, "10s"), "Graceful shutdown timeout")
		showVersion     = flagSet.Bool("version", false, "Show version information")
	)

	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg := &Config{
		Addr:        *addr,
		DBPath:      *dbPath,
		LogFormat:   strings.ToLower(*logFormat),
		ShowVersion: *showVersion,
	}

	var err error
	if err = cfg.LogLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q", *logFormat)
	}
	if cfg.PageSize, err = positiveInt("page-size", *pageSize); err != nil {
		return nil, err
	}
	if cfg.MaxPageSize, err = positiveInt("max-page-size", *maxPageSize); err != nil {
		return nil, err
	}
	if cfg.PageSize > cfg.MaxPageSize {
		return nil, fmt.Errorf("page-size %d exceeds max-page-size %d", cfg.PageSize, cfg.MaxPageSize)
	}
	if cfg.DeletePolicy, err = mutation.ParseDeletePolicy(*deletePolicy); err != nil {
		return nil, err
	}
	if cfg.EnforceReferences, err = strconv.ParseBool(*enforceRefs); err != nil {
		return nil, fmt.Errorf("invalid enforce-references %q: %w", *enforceRefs, err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(*shutdownTimeout); err != nil {
		return nil, fmt.Errorf("invalid shutdown-timeout %q: %w", *shutdownTimeout, err)
	}

	return cfg, nil
}

// NewLogger creates the server logger according to the configuration
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func positiveInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, value)
	}
	return n, nil
}
