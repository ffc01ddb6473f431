// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mdhender/sqlseed/sqlscript"
)

// Populator fills a database with seed data.
//
// Populate executes statements through ex. It must not commit or roll back;
// the caller owns the transaction.
type Populator interface {
	Populate(ctx context.Context, ex Execer) error
}

// PopulatorFunc adapts an ordinary function to the Populator interface.
type PopulatorFunc func(ctx context.Context, ex Execer) error

// Populate calls f(ctx, ex).
func (f PopulatorFunc) Populate(ctx context.Context, ex Execer) error {
	return f(ctx, ex)
}

// Noop is a Populator that does nothing.
var Noop Populator = PopulatorFunc(func(context.Context, Execer) error { return nil })

// ScriptOptions controls how a script is read and executed.
type ScriptOptions struct {
	// CommentPrefix starts a line comment. Empty selects "--".
	CommentPrefix string
	// Source names the script in logs and errors.
	Source string
	// MaxStatementSize bounds one statement in bytes. Zero selects
	// sqlscript.DefaultMaxStatementSize.
	MaxStatementSize int
	Logger           *slog.Logger
}

func (o *ScriptOptions) defaults() {
	if o.CommentPrefix == "" {
		o.CommentPrefix = sqlscript.DefaultCommentPrefix
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// PopulateFromReader executes every statement read from r, in order.
// A nil reader has nothing to execute. r is not closed.
//
// The first failing statement stops the script and is reported as a
// DatabaseError naming that statement.
func PopulateFromReader(ctx context.Context, ex Execer, r io.Reader, opts ScriptOptions) error {
	if r == nil {
		return nil
	}
	opts.defaults()

	// hide any Close method so the scanner leaves r open
	sc, err := sqlscript.Open(struct{ io.Reader }{r}, opts.CommentPrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	sc.WithLogger(opts.Logger).WithMaxStatementSize(opts.MaxStatementSize)
	defer sc.Close()

	n := 0
	for stmt := range sc.All() {
		if err := ctx.Err(); err != nil {
			return &DatabaseError{Source: opts.Source, Err: err}
		}
		opts.Logger.Debug("exec", "source", opts.Source, "sql", stmt)
		if _, err := ex.ExecContext(ctx, stmt); err != nil {
			logStatementError(opts.Logger, opts.Source, err)
			return &DatabaseError{Source: opts.Source, Statement: stmt, Err: err}
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return &DatabaseError{Source: opts.Source, Err: fmt.Errorf("read script: %w", err)}
	}
	opts.Logger.Debug("script done", "source", opts.Source, "statements", n)
	return nil
}

// logStatementError adds the server's diagnostics for PostgreSQL failures.
func logStatementError(logger *slog.Logger, source string, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		logger.Error("statement failed",
			"source", source,
			"code", pgErr.Code,
			"detail", pgErr.Detail,
			"err", pgErr.Message)
		return
	}
	logger.Error("statement failed", "source", source, "err", err)
}

// Composite runs its populators in order, stopping at the first failure.
type Composite []Populator

// NewComposite returns a Composite of pops. Nil entries are skipped.
func NewComposite(pops ...Populator) Composite {
	c := make(Composite, 0, len(pops))
	for _, p := range pops {
		if p != nil {
			c = append(c, p)
		}
	}
	return c
}

// ResolveComposite looks up every name in r and returns a Composite of the
// results. All names are resolved before anything runs; an unknown name or
// a value that is not a Populator is a configuration error.
func ResolveComposite(r Resolver, names ...string) (Composite, error) {
	c := make(Composite, 0, len(names))
	var errs []error
	for _, name := range names {
		p, err := ResolvePopulator(r, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c = append(c, p)
	}
	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Populate implements Populator.
func (c Composite) Populate(ctx context.Context, ex Execer) error {
	for _, p := range c {
		if err := p.Populate(ctx, ex); err != nil {
			return err
		}
	}
	return nil
}

// ParseNames splits a whitespace separated list of names.
func ParseNames(s string) []string {
	return strings.Fields(s)
}
