// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// PgxProvider hands out PostgreSQL sessions through pgx.
//
// It keeps one pool per set of credentials, so SessionAs can connect as
// users other than the one named in the DSN.
type PgxProvider struct {
	base *pgx.ConnConfig
	mode Mode
	opts *sql.TxOptions

	mu    sync.Mutex
	pools map[string]*sql.DB
}

// NewPgxProvider parses dsn and returns a provider for it.
// No connection is made until the first session is requested.
func NewPgxProvider(dsn string, mode Mode, opts *sql.TxOptions) (*PgxProvider, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %w", ErrConfiguration, err)
	}
	return &PgxProvider{
		base:  cfg,
		mode:  mode,
		opts:  opts,
		pools: make(map[string]*sql.DB),
	}, nil
}

// Session implements Provider using the credentials from the DSN.
func (p *PgxProvider) Session(ctx context.Context) (*Session, error) {
	return p.SessionAs(ctx, p.base.User, p.base.Password)
}

// SessionAs implements UserProvider.
func (p *PgxProvider) SessionAs(ctx context.Context, user, password string) (*Session, error) {
	conn, err := p.pool(user, password).Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection for %q: %w", user, err)
	}
	return newSession(conn, p.mode, p.opts), nil
}

// Target returns the host and database the provider connects to.
func (p *PgxProvider) Target() string {
	return pgxTarget(p.base)
}

func pgxTarget(cfg *pgx.ConnConfig) string {
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
}

// Mode returns the mode sessions start in.
func (p *PgxProvider) Mode() Mode {
	return p.mode
}

// Close closes every pool the provider opened.
func (p *PgxProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for key, db := range p.pools {
		errs = append(errs, db.Close())
		delete(p.pools, key)
	}
	return errors.Join(errs...)
}

func (p *PgxProvider) pool(user, password string) *sql.DB {
	key := user + "\x00" + password
	p.mu.Lock()
	defer p.mu.Unlock()
	if db, ok := p.pools[key]; ok {
		return db
	}
	cfg := p.base.Copy()
	cfg.User, cfg.Password = user, password
	db := stdlib.OpenDB(*cfg)
	p.pools[key] = db
	return db
}
