// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Mode selects how a provider hands out sessions.
type Mode int

const (
	// Plain sessions start in autocommit mode.
	Plain Mode = iota
	// Transactional sessions start with autocommit off, the way connections
	// enlisted in an externally managed transaction do.
	Transactional
)

func (m Mode) String() string {
	switch m {
	case Plain:
		return "plain"
	case Transactional:
		return "transactional"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name. The empty string selects Plain.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain":
		return Plain, nil
	case "transactional", "xa":
		return Transactional, nil
	}
	return Plain, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

// Provider hands out database sessions.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// UserProvider is a Provider that can also connect as a given user.
type UserProvider interface {
	Provider
	SessionAs(ctx context.Context, user, password string) (*Session, error)
}

// DBProvider hands out sessions backed by a *sql.DB pool.
type DBProvider struct {
	db   *sql.DB
	mode Mode
	opts *sql.TxOptions
}

// NewDBProvider returns a provider drawing connections from db.
// opts configures the transactions sessions begin; it may be nil.
func NewDBProvider(db *sql.DB, mode Mode, opts *sql.TxOptions) *DBProvider {
	return &DBProvider{db: db, mode: mode, opts: opts}
}

// NewGormProvider returns a provider drawing connections from the pool
// behind a gorm handle.
func NewGormProvider(db *gorm.DB, mode Mode, opts *sql.TxOptions) (*DBProvider, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil gorm handle", ErrConfiguration)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: gorm: %w", ErrConfiguration, err)
	}
	return NewDBProvider(sqlDB, mode, opts), nil
}

// Session implements Provider.
func (p *DBProvider) Session(ctx context.Context) (*Session, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return newSession(conn, p.mode, p.opts), nil
}

// DB returns the underlying pool.
func (p *DBProvider) DB() *sql.DB {
	return p.db
}

// Mode returns the mode sessions start in.
func (p *DBProvider) Mode() Mode {
	return p.mode
}

// Close closes the underlying pool.
func (p *DBProvider) Close() error {
	return p.db.Close()
}
