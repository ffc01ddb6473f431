// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Options supplies the runtime collaborators that do not belong in a
// configuration file.
type Options struct {
	// Resolver supplies providers and populators named in the
	// configuration but not defined by it. Optional.
	Resolver Resolver
	// Logger for operational logging. Uses slog.Default() if nil.
	Logger *slog.Logger
	// Metrics, if set, records population attempts.
	Metrics *Metrics
}

func (o Options) defaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// DataSourceInfo summarizes a configured data source.
type DataSourceInfo struct {
	Name   string
	Kind   string // driver name, or "provider"
	Target string // file path, host, or provider name
	// Mode of a provider data source is the provider's own, when the
	// provider has a Mode method, and Plain otherwise.
	Mode      Mode
	Populator string
	Populated bool
}

// DescribeConfig summarizes the data sources in cfg without resolving
// names or opening pools. Provider data sources report Plain, since their
// mode is only known once the provider is resolved.
func DescribeConfig(cfg Config) ([]DataSourceInfo, error) {
	cfg = cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	infos := make([]DataSourceInfo, 0, len(cfg.DataSources))
	for _, name := range sortedKeys(cfg.DataSources) {
		ds := cfg.DataSources[name]
		mode, _ := ParseMode(ds.Mode)
		info := DataSourceInfo{Name: name, Kind: ds.Driver, Mode: mode, Populator: ds.Populator}
		switch ds.Driver {
		case DriverSQLite:
			info.Target = ds.Path
		case DriverPgx:
			cc, err := pgx.ParseConfig(ds.DSN)
			if err != nil {
				return nil, fmt.Errorf("datasource %q: %w: parse dsn: %w", name, ErrConfiguration, err)
			}
			info.Target = pgxTarget(cc)
		default:
			info.Kind, info.Target = "provider", ds.Provider
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Environment holds the gates built from a Config.
// It is immutable once built; Close releases the pools it opened.
type Environment struct {
	gates   map[string]*Gate
	infos   map[string]DataSourceInfo
	closers []io.Closer
	logger  *slog.Logger
}

// Build validates cfg, resolves every populator and provider it names,
// opens the pools it defines and returns the resulting gates.
//
// Every name is resolved before any pool is opened, so a configuration
// error never leaves a half-built environment behind. No population runs
// until a session is requested.
func Build(ctx context.Context, cfg Config, opts Options) (*Environment, error) {
	cfg = cfg.defaults()
	opts = opts.defaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Phase 1: resolve names
	b := &builder{cfg: cfg, opts: opts, built: make(map[string]Populator), visiting: make(map[string]bool)}
	pops := make(map[string]Populator, len(cfg.DataSources))
	ext := make(map[string]Provider)
	var errs []error
	for _, name := range sortedKeys(cfg.DataSources) {
		ds := cfg.DataSources[name]
		p, err := b.populator(ds.Populator)
		if err != nil {
			errs = append(errs, fmt.Errorf("datasource %q: %w", name, err))
		} else {
			pops[name] = p
		}
		if ds.Provider != "" {
			prov, err := ResolveProvider(opts.Resolver, ds.Provider)
			if err != nil {
				errs = append(errs, fmt.Errorf("datasource %q: %w", name, err))
			} else {
				ext[name] = prov
			}
		}
	}
	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}

	// Phase 2: open pools and build gates
	env := &Environment{
		gates:  make(map[string]*Gate, len(cfg.DataSources)),
		infos:  make(map[string]DataSourceInfo, len(cfg.DataSources)),
		logger: opts.Logger,
	}

	// Ensure cleanup on error
	success := false
	defer func() {
		if !success {
			_ = env.Close()
		}
	}()

	for _, name := range sortedKeys(cfg.DataSources) {
		ds := cfg.DataSources[name]
		mode, _ := ParseMode(ds.Mode)
		txOpts, _ := parseIsolation(ds.Isolation)
		logger := opts.Logger.With("datasource", name)

		info := DataSourceInfo{Name: name, Mode: mode, Populator: ds.Populator}
		var prov Provider
		switch {
		case ds.Provider != "":
			prov = ext[name]
			info.Kind, info.Target = "provider", ds.Provider
			if m, ok := prov.(interface{ Mode() Mode }); ok {
				info.Mode = m.Mode()
			}
		case ds.Driver == DriverSQLite:
			db, err := openSQLite(ctx, SQLiteConfig{
				Path:                    ds.Path,
				Logger:                  logger,
				ProductionEnvVar:        cfg.ProductionEnvVar,
				AllowMemoryInProduction: ds.AllowMemoryInProduction,
				Pragmas:                 ds.Pragmas,
			})
			if err != nil {
				return nil, fmt.Errorf("datasource %q: %w", name, err)
			}
			dbp := NewDBProvider(db, mode, txOpts)
			env.closers = append(env.closers, dbp)
			prov = dbp
			info.Kind, info.Target = DriverSQLite, ds.Path
		case ds.Driver == DriverPgx:
			pgp, err := NewPgxProvider(ds.DSN, mode, txOpts)
			if err != nil {
				return nil, fmt.Errorf("datasource %q: %w", name, err)
			}
			env.closers = append(env.closers, pgp)
			prov = pgp
			info.Kind, info.Target = DriverPgx, pgp.Target()
		}

		env.gates[name] = NewGate(prov, pops[name], WithLogger(logger), WithMetrics(opts.Metrics))
		env.infos[name] = info
		logger.Debug("datasource ready", "kind", info.Kind, "mode", info.Mode, "populator", ds.Populator)
	}

	success = true
	return env, nil
}

// builder turns populator configurations into Populators.
type builder struct {
	cfg      Config
	opts     Options
	built    map[string]Populator
	visiting map[string]bool
}

// populator returns the populator called name. Names defined in the
// configuration take precedence over the resolver.
func (b *builder) populator(name string) (Populator, error) {
	if p, ok := b.built[name]; ok {
		return p, nil
	}
	pc, ok := b.cfg.Populators[name]
	if !ok {
		return ResolvePopulator(b.opts.Resolver, name)
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("%w: populator %q refers to itself", ErrConfiguration, name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	prefix := pc.CommentPrefix
	if prefix == "" {
		prefix = b.cfg.CommentPrefix
	}
	logger := b.opts.Logger.With("populator", name)

	var p Populator
	switch pc.kind() {
	case "file":
		fp := NewFilePopulator(pc.File)
		fp.Optional, fp.CommentPrefix, fp.Logger = pc.Optional, prefix, logger
		fp.MaxStatementSize = b.cfg.MaxStatementSize
		p = fp
	case "directory":
		dp := NewDirPopulator(pc.Directory)
		dp.CommentPrefix, dp.Logger = prefix, logger
		dp.MaxStatementSize = b.cfg.MaxStatementSize
		p = dp
	case "composite":
		var c Composite
		for _, child := range ParseNames(pc.Populators) {
			cp, err := b.populator(child)
			if err != nil {
				return nil, fmt.Errorf("populator %q: %w", name, err)
			}
			c = append(c, cp)
		}
		p = c
	default:
		return nil, fmt.Errorf("%w: populator %q has no source", ErrConfiguration, name)
	}
	b.built[name] = p
	return p, nil
}

// Gate returns the gate for the named data source.
func (e *Environment) Gate(name string) (*Gate, error) {
	g, ok := e.gates[name]
	if !ok {
		return nil, fmt.Errorf("datasource %q: %w", name, ErrNotFound)
	}
	return g, nil
}

// Names returns the data source names in sorted order.
func (e *Environment) Names() []string {
	return sortedKeys(e.gates)
}

// Describe returns a summary of every data source, sorted by name.
func (e *Environment) Describe() []DataSourceInfo {
	out := make([]DataSourceInfo, 0, len(e.infos))
	for _, name := range sortedKeys(e.infos) {
		info := e.infos[name]
		info.Populated = e.gates[name].Populated()
		out = append(out, info)
	}
	return out
}

// Populate acquires and releases one session from the named data source,
// populating it if that has not happened yet.
func (e *Environment) Populate(ctx context.Context, name string) error {
	g, err := e.Gate(name)
	if err != nil {
		return err
	}
	s, err := g.Session(ctx)
	if err != nil {
		return err
	}
	return s.Close()
}

// Initialize populates the data source when exactly one is configured and
// returns its name. With none or several it only logs and returns "".
func (e *Environment) Initialize(ctx context.Context) (string, error) {
	names := e.Names()
	if len(names) != 1 {
		e.logger.Info("skipping startup population",
			"datasources", len(names),
			"names", strings.Join(names, ","))
		return "", nil
	}
	e.logger.Info("startup population", "datasource", names[0])
	if err := e.Populate(ctx, names[0]); err != nil {
		return "", err
	}
	return names[0], nil
}

// Close closes every pool opened by Build.
// Providers supplied through the resolver are left open.
func (e *Environment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// parseIsolation maps an isolation level name to transaction options.
func parseIsolation(s string) (*sql.TxOptions, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return nil, nil
	case "read_uncommitted":
		return &sql.TxOptions{Isolation: sql.LevelReadUncommitted}, nil
	case "read_committed":
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}, nil
	case "repeatable_read":
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}, nil
	case "serializable":
		return &sql.TxOptions{Isolation: sql.LevelSerializable}, nil
	}
	return nil, fmt.Errorf("%w: unknown isolation %q", ErrConfiguration, s)
}
