// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/mdhender/sqlseed/sqlscript"
	"github.com/spf13/pflag"
)

// EnvPrefix starts every environment variable read by LoadConfig.
// A double underscore separates key levels, so
// SQLSEED_DATASOURCES__MAIN__PATH sets datasources.main.path.
const EnvPrefix = "SQLSEED_"

// Supported values for DataSourceConfig.Driver.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

// Config describes the data sources to populate and the populators that
// fill them.
type Config struct {
	// CommentPrefix starts a line comment in every script unless a
	// populator sets its own. Default: "--".
	CommentPrefix string `koanf:"comment_prefix"`

	// ProductionEnvVar names the variable that marks a production
	// environment, where in-memory SQLite databases are refused.
	// Default: "ENV".
	ProductionEnvVar string `koanf:"production_env_var"`

	// MaxStatementSize bounds the bytes of one script statement.
	// Zero means sqlscript.DefaultMaxStatementSize.
	MaxStatementSize int `koanf:"max_statement_size"`

	DataSources map[string]DataSourceConfig `koanf:"datasources"`
	Populators  map[string]PopulatorConfig  `koanf:"populators"`
}

// DataSourceConfig describes one data source. Exactly one of Driver and
// Provider must be set.
type DataSourceConfig struct {
	// Driver opens a connection pool itself: "sqlite" or "pgx".
	Driver string `koanf:"driver"`
	// Provider names a Provider supplied through Options.Resolver.
	Provider string `koanf:"provider"`

	// Path is the SQLite database file, or ":memory:".
	Path string `koanf:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `koanf:"dsn"`
	// Pragmas override the default SQLite pragmas.
	Pragmas map[string]string `koanf:"pragmas"`
	// AllowMemoryInProduction permits an in-memory SQLite database in production.
	AllowMemoryInProduction bool `koanf:"allow_memory_in_production"`

	// Mode is "plain" (default) or "transactional". A provider sets its
	// own mode, so Mode and Isolation are rejected alongside Provider.
	Mode string `koanf:"mode"`
	// Isolation is the isolation level of session transactions:
	// "default", "read_committed", "repeatable_read" or "serializable".
	Isolation string `koanf:"isolation"`

	// Populator names the populator run before the first session.
	Populator string `koanf:"populator"`
}

// PopulatorConfig describes one named populator. Exactly one of File,
// Directory and Populators must be set.
type PopulatorConfig struct {
	File      string `koanf:"file"`
	Directory string `koanf:"directory"`
	// Populators is a whitespace separated list of populator names,
	// run in order.
	Populators string `koanf:"populators"`

	// Optional makes a missing File a no-op.
	Optional      bool   `koanf:"optional"`
	CommentPrefix string `koanf:"comment_prefix"`
}

func (c PopulatorConfig) kind() string {
	switch {
	case c.File != "":
		return "file"
	case c.Directory != "":
		return "directory"
	case c.Populators != "":
		return "composite"
	}
	return ""
}

// defaults returns a copy of cfg with default values applied.
func (cfg Config) defaults() Config {
	if cfg.CommentPrefix == "" {
		cfg.CommentPrefix = sqlscript.DefaultCommentPrefix
	}
	if cfg.ProductionEnvVar == "" {
		cfg.ProductionEnvVar = "ENV"
	}
	return cfg
}

// Validate reports every problem in cfg. The error matches ErrConfiguration.
// Names given in DataSourceConfig.Provider and DataSourceConfig.Populator that
// are not defined here are left for the resolver to find.
func (cfg Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}

	if cfg.MaxStatementSize < 0 {
		bad("max_statement_size must not be negative")
	}

	for _, name := range sortedKeys(cfg.Populators) {
		pc := cfg.Populators[name]
		set := 0
		for _, v := range []string{pc.File, pc.Directory, pc.Populators} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			bad("populator %q: exactly one of file, directory and populators must be set", name)
		}
		if pc.Optional && pc.File == "" {
			bad("populator %q: optional applies only to file populators", name)
		}
	}

	for _, name := range sortedKeys(cfg.DataSources) {
		ds := cfg.DataSources[name]
		switch {
		case ds.Driver == "" && ds.Provider == "":
			bad("datasource %q: one of driver and provider must be set", name)
		case ds.Driver != "" && ds.Provider != "":
			bad("datasource %q: driver and provider are mutually exclusive", name)
		}
		switch ds.Driver {
		case "", DriverSQLite, DriverPgx:
		default:
			bad("datasource %q: unknown driver %q", name, ds.Driver)
		}
		if ds.Driver == DriverSQLite && ds.Path == "" {
			bad("datasource %q: sqlite requires a path", name)
		}
		if ds.Driver == DriverPgx && ds.DSN == "" {
			bad("datasource %q: pgx requires a dsn", name)
		}
		if _, err := ParseMode(ds.Mode); err != nil {
			bad("datasource %q: unknown mode %q", name, ds.Mode)
		}
		if _, err := parseIsolation(ds.Isolation); err != nil {
			bad("datasource %q: unknown isolation %q", name, ds.Isolation)
		}
		if ds.Provider != "" && (ds.Mode != "" || ds.Isolation != "") {
			bad("datasource %q: mode and isolation are set by provider %q", name, ds.Provider)
		}
		if ds.Populator == "" {
			bad("datasource %q: populator must be set", name)
		}
	}

	return errors.Join(errs...)
}

// LoadConfig loads configuration from a YAML file, environment variables
// and flags. Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// Relative file, directory and path values in the file are resolved against
// the file's directory. An empty path skips the file; a nil flag set skips flags.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"comment_prefix":     sqlscript.DefaultCommentPrefix,
		"production_env_var": "ENV",
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load the config file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("%w: reading config file %s: %w", ErrConfiguration, path, err)
		}
	}

	// 3. Load environment variables
	// Transform: SQLSEED_DATASOURCES__MAIN__PATH -> datasources.main.path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: unable to decode config: %w", ErrConfiguration, err)
	}

	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			cfg.resolvePaths(filepath.Dir(abs))
		}
	}

	return cfg, nil
}

// resolvePaths makes relative script and database paths relative to baseDir.
func (cfg *Config) resolvePaths(baseDir string) {
	for name, pc := range cfg.Populators {
		pc.File = resolvePathRelativeTo(pc.File, baseDir)
		pc.Directory = resolvePathRelativeTo(pc.Directory, baseDir)
		cfg.Populators[name] = pc
	}
	for name, ds := range cfg.DataSources {
		if ds.Driver == DriverSQLite && !isMemoryPath(ds.Path) {
			ds.Path = resolvePathRelativeTo(ds.Path, baseDir)
		}
		cfg.DataSources[name] = ds
	}
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
