// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// SQLiteConfig holds the options for opening an SQLite data source.
type SQLiteConfig struct {
	// Path to database file. Use ":memory:" for in-memory databases.
	// Persistent paths must be absolute and have a .db extension.
	// A missing file is created.
	Path string

	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger

	// ProductionEnvVar is the environment variable checked to determine
	// production mode. If the variable equals "production" (case-insensitive),
	// in-memory databases are rejected unless AllowMemoryInProduction is true.
	// Default: "ENV".
	ProductionEnvVar string

	// AllowMemoryInProduction permits :memory: databases when the production
	// environment variable is set.
	AllowMemoryInProduction bool

	// Pragmas override or extend the default pragmas. Names are the
	// driver's DSN parameter names.
	Pragmas map[string]string
}

// defaults returns a copy of cfg with default values applied.
func (cfg SQLiteConfig) defaults() SQLiteConfig {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ProductionEnvVar == "" {
		cfg.ProductionEnvVar = "ENV"
	}
	return cfg
}

// isProduction returns true if the production environment variable is set.
func (cfg SQLiteConfig) isProduction() bool {
	return strings.EqualFold(os.Getenv(cfg.ProductionEnvVar), "production")
}

// isMemory returns true if Path indicates an in-memory database.
func (cfg SQLiteConfig) isMemory() bool {
	return isMemoryPath(cfg.Path)
}

// memorySeq numbers in-memory databases opened by this process.
var memorySeq atomic.Uint64

// memoryName returns a database name no other in-memory open in this
// process uses.
func memoryName() string {
	return fmt.Sprintf("sqlseed-mem-%d-%d", os.Getpid(), memorySeq.Add(1))
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// OpenSQLite opens an SQLite database and returns a provider for it.
//
// The pool is limited to a single connection, so a session must be closed
// before the next one can be acquired.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig, mode Mode) (*DBProvider, error) {
	db, err := openSQLite(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewDBProvider(db, mode, nil), nil
}

func openSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	cfg = cfg.defaults()

	pragmas := persistentPragmas
	if cfg.isMemory() {
		if cfg.isProduction() && !cfg.AllowMemoryInProduction {
			return nil, fmt.Errorf("%w: in-memory database not allowed in production (%s=production)", ErrConfiguration, cfg.ProductionEnvVar)
		}
		cfg.Logger.Info("DB mode: in-memory")
		pragmas = memoryPragmas
	} else {
		if err := validatePersistentPath(cfg.Path); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		if isRegularFile(cfg.Path) {
			cfg.Logger.Info("DB mode: persistent", "path", cfg.Path)
		} else {
			cfg.Logger.Info("DB mode: persistent, creating database", "path", cfg.Path)
		}
	}

	dsn := buildDSN(cfg.Path, withPragmas(pragmas, cfg.Pragmas))
	cfg.Logger.Debug("opening database", "driver", driverName, "dsn", dsn)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// Ensure cleanup on error
	success := false
	defer func() {
		if !success {
			db.Close()
		}
	}()

	// SQLite works best with limited connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	success = true
	return db, nil
}

// validatePersistentPath checks that a path is valid for a persistent database.
func validatePersistentPath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s: persistent database path must be absolute", path)
	}
	if filepath.Ext(path) != ".db" {
		return fmt.Errorf("%s: expected .db extension", path)
	}
	if isDirectory(path) {
		return fmt.Errorf("%s: path is a directory", path)
	}
	dir := filepath.Dir(path)
	if !isDirectory(dir) {
		return fmt.Errorf("%s: parent directory does not exist", dir)
	}
	return nil
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// withPragmas returns base with the values in overrides applied.
// Names not in base are appended in sorted order.
func withPragmas(base []pragma, overrides map[string]string) []pragma {
	if len(overrides) == 0 {
		return base
	}
	out := make([]pragma, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		if v, ok := overrides[p.name]; ok {
			p.value = v
		}
		seen[p.name] = true
		out = append(out, p)
	}
	var extra []string
	for name := range overrides {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, pragma{name: name, value: overrides[name]})
	}
	return out
}
