// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Execer executes a statement.
// *sql.DB, *sql.Conn, *sql.Tx and *Session all satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queryer is the statement surface shared by *sql.Conn and *sql.Tx.
type queryer interface {
	Execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Session is a single database connection with explicit commit control.
//
// In autocommit mode every statement commits on its own. With autocommit
// off, the first statement begins a transaction that stays open until
// Commit, Rollback, SetAutoCommit(true) or Close. The context passed with
// that first statement governs the transaction.
//
// A Session is not safe for concurrent use.
type Session struct {
	conn       *sql.Conn
	txOpts     *sql.TxOptions
	autoCommit bool
	tx         *sql.Tx
	closed     bool
}

func newSession(conn *sql.Conn, mode Mode, opts *sql.TxOptions) *Session {
	return &Session{
		conn:       conn,
		txOpts:     opts,
		autoCommit: mode != Transactional,
	}
}

// AutoCommit reports whether the session commits after every statement.
func (s *Session) AutoCommit() bool {
	return s.autoCommit
}

// SetAutoCommit switches autocommit mode.
// Switching it on commits any open transaction.
func (s *Session) SetAutoCommit(on bool) error {
	if s.closed {
		return sql.ErrConnDone
	}
	if on == s.autoCommit {
		return nil
	}
	if on {
		if err := s.Commit(); err != nil {
			return err
		}
	}
	s.autoCommit = on
	return nil
}

// Commit commits the open transaction, if any.
func (s *Session) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the open transaction, if any.
func (s *Session) Rollback() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// InTx reports whether a transaction is open.
func (s *Session) InTx() bool {
	return s.tx != nil
}

// ExecContext executes a statement on the session.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q, err := s.target(ctx)
	if err != nil {
		return nil, err
	}
	return q.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the session.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q, err := s.target(ctx)
	if err != nil {
		return nil, err
	}
	return q.QueryContext(ctx, query, args...)
}

// Conn returns the underlying connection.
// Statements run on it directly bypass any open transaction.
func (s *Session) Conn() *sql.Conn {
	return s.conn
}

// Close rolls back any open transaction and returns the connection to its pool.
// Calling Close more than once is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	rbErr := s.Rollback()
	return errors.Join(rbErr, s.conn.Close())
}

// target returns the open transaction, beginning one when autocommit is off.
func (s *Session) target(ctx context.Context) (queryer, error) {
	if s.closed {
		return nil, sql.ErrConnDone
	}
	if s.autoCommit {
		return s.conn, nil
	}
	if s.tx == nil {
		tx, err := s.conn.BeginTx(ctx, s.txOpts)
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}
