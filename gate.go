// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Gate wraps a Provider so that a Populator runs exactly once, before the
// first session is handed to a caller.
//
// Population runs in its own transaction on the session being acquired.
// It is committed on success. On failure it is rolled back, the session is
// closed and the error is returned; the next acquisition tries again.
// Concurrent first acquisitions share a single population attempt.
type Gate struct {
	provider  Provider
	populator Populator
	logger    *slog.Logger
	metrics   *Metrics

	populated atomic.Bool
	flight    singleflight.Group
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the gate's logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records population attempts in m.
func WithMetrics(m *Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// NewGate returns a gate that populates sessions from p with pop.
// A nil populator does nothing.
func NewGate(p Provider, pop Populator, opts ...GateOption) *Gate {
	if pop == nil {
		pop = Noop
	}
	g := &Gate{
		provider:  p,
		populator: pop,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns a session from the wrapped provider, populating the
// database first if that has not happened yet.
func (g *Gate) Session(ctx context.Context) (*Session, error) {
	s, err := g.provider.Session(ctx)
	if err != nil {
		return nil, err
	}
	return g.release(ctx, s)
}

// SessionAs is Session for a given user.
// The wrapped provider must implement UserProvider.
func (g *Gate) SessionAs(ctx context.Context, user, password string) (*Session, error) {
	up, ok := g.provider.(UserProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T does not accept credentials", ErrConfiguration, g.provider)
	}
	s, err := up.SessionAs(ctx, user, password)
	if err != nil {
		return nil, err
	}
	return g.release(ctx, s)
}

// Populated reports whether population has completed.
func (g *Gate) Populated() bool {
	return g.populated.Load()
}

// Provider returns the wrapped provider.
func (g *Gate) Provider() Provider {
	return g.provider
}

// release hands s to the caller once the database is populated.
func (g *Gate) release(ctx context.Context, s *Session) (*Session, error) {
	if g.populated.Load() {
		g.metrics.sessionReleased()
		return s, nil
	}
	keep := false
	defer func() {
		if !keep {
			_ = s.Close()
		}
	}()
	_, err, shared := g.flight.Do("populate", func() (any, error) {
		// a flight that started after a successful one must not repeat it
		if g.populated.Load() {
			return nil, nil
		}
		if err := g.populateOnce(ctx, s); err != nil {
			return nil, err
		}
		g.populated.Store(true)
		return nil, nil
	})
	if err != nil {
		if shared {
			g.logger.Debug("sharing failed population", "err", err)
		}
		return nil, err
	}
	keep = true
	g.metrics.sessionReleased()
	return s, nil
}

// populateOnce runs the populator in a transaction on s.
// Whatever autocommit mode s was in is restored before returning.
func (g *Gate) populateOnce(ctx context.Context, s *Session) (err error) {
	started := time.Now()
	autoCommit := s.AutoCommit()
	committed := false

	defer func() {
		if !committed {
			if rbErr := s.Rollback(); rbErr != nil {
				g.logger.Warn("rollback failed", "err", rbErr)
			}
		}
		if autoCommit {
			if acErr := s.SetAutoCommit(true); acErr != nil && err == nil {
				err = asDatabaseError("restore autocommit", acErr)
			}
		}
		// committed is false with a nil err only while panicking
		g.metrics.observe(committed && err == nil, time.Since(started))
		switch {
		case err != nil:
			g.logger.Warn("population failed", "err", err, "elapsed", time.Since(started))
		case !committed:
			g.logger.Error("population aborted", "elapsed", time.Since(started))
		default:
			g.logger.Info("database populated", "elapsed", time.Since(started))
		}
	}()

	if autoCommit {
		if err := s.SetAutoCommit(false); err != nil {
			return asDatabaseError("disable autocommit", err)
		}
	}

	g.logger.Info("populating database")
	if err := g.populator.Populate(ctx, s); err != nil {
		return asDatabaseError("", err)
	}
	if err := s.Commit(); err != nil {
		return asDatabaseError("", err)
	}
	committed = true
	return nil
}
