// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlscript

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"log/slog"
	"regexp"
)

// DefaultMaxStatementSize bounds the length of a single statement,
// terminator included, unless WithMaxStatementSize sets another limit.
// The read buffer only grows as far as the longest statement needs.
const DefaultMaxStatementSize = 64 << 20

// reNewlines matches the line breaks folded into a single space.
var reNewlines = regexp.MustCompile(`[\r\n]+`)

// ScanStatements is a bufio.SplitFunc that returns one SQL statement per token.
//
// Every bare semicolon terminates a statement; quoting is not recognized.
// Runs of line breaks inside a statement become a single space and the result
// is trimmed. Empty statements are skipped and text after the final semicolon
// is discarded rather than returned.
func ScanStatements(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for {
		i := bytes.IndexByte(data[advance:], ';')
		if i < 0 {
			break
		}
		stmt := bytes.TrimSpace(reNewlines.ReplaceAll(data[advance:advance+i], []byte(" ")))
		advance += i + 1
		if len(stmt) > 0 {
			return advance, stmt, nil
		}
	}
	if atEOF {
		// trailing content without a terminator
		return len(data), nil, nil
	}
	return advance, nil, nil
}

// Scanner yields the statements of a SQL script, one at a time.
//
// A Scanner is single-pass: once HasNext reports false it keeps doing so and
// the underlying source has been closed.
type Scanner struct {
	sc      *bufio.Scanner
	src     io.Reader // nil once closed
	next    string
	ready   bool
	done    bool
	started bool
	err     error
	logger  *slog.Logger
}

// NewScanner returns a Scanner reading statements from r.
// If r is an io.Closer it is closed when the input is exhausted or on Close.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), DefaultMaxStatementSize)
	sc.Split(ScanStatements)
	return &Scanner{sc: sc, src: r, logger: slog.Default()}
}

// Open returns a Scanner over r with line comments starting with
// commentPrefix removed. An empty prefix selects DefaultCommentPrefix.
func Open(r io.Reader, commentPrefix string) (*Scanner, error) {
	if commentPrefix == "" {
		commentPrefix = DefaultCommentPrefix
	}
	f, err := NewCommentFilter(r, commentPrefix)
	if err != nil {
		return nil, err
	}
	return NewScanner(f), nil
}

// WithLogger sets the logger used to report read failures.
func (s *Scanner) WithLogger(logger *slog.Logger) *Scanner {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithMaxStatementSize sets the longest statement, terminator included, the
// scanner accepts; longer ones stop the scan with bufio.ErrTooLong.
// A limit of zero or less keeps the current one. It has no effect once
// HasNext has been called.
func (s *Scanner) WithMaxStatementSize(n int) *Scanner {
	if n > 0 && !s.started {
		s.sc.Buffer(make([]byte, 0, min(4096, n)), n)
	}
	return s
}

// HasNext reports whether another statement is available.
// Repeated calls without an intervening Next do not read any input.
func (s *Scanner) HasNext() bool {
	if s.ready {
		return true
	}
	if s.done {
		return false
	}
	s.started = true
	if s.sc.Scan() {
		s.next, s.ready = s.sc.Text(), true
		return true
	}
	s.done = true
	if err := s.sc.Err(); err != nil {
		s.err = err
		s.logger.Warn("sqlscript: failed to read the next statement", "err", err)
	}
	s.closeSource()
	return false
}

// Next returns the next statement.
// It returns ErrEmptyIteration if no statement is available.
func (s *Scanner) Next() (string, error) {
	if !s.HasNext() {
		return "", ErrEmptyIteration
	}
	stmt := s.next
	s.next, s.ready = "", false
	return stmt, nil
}

// Remove is not supported; it always returns ErrUnsupported.
func (s *Scanner) Remove() error {
	return ErrUnsupported
}

// All returns an iterator over the remaining statements.
// Statements consumed by one iterator are not seen by another.
func (s *Scanner) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for s.HasNext() {
			stmt, _ := s.Next()
			if !yield(stmt) {
				return
			}
		}
	}
}

// Err returns the read error that ended the scan, if any.
// A clean end of input is reported as nil.
func (s *Scanner) Err() error {
	return s.err
}

// Close stops the scan and closes the underlying source.
func (s *Scanner) Close() error {
	s.done, s.ready, s.next = true, false, ""
	if s.src == nil {
		return nil
	}
	c, ok := s.src.(io.Closer)
	s.src = nil
	if ok {
		return c.Close()
	}
	return nil
}

// closeSource closes the source on the way out; close errors are ignored.
func (s *Scanner) closeSource() {
	if s.src == nil {
		return
	}
	if c, ok := s.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Debug("sqlscript: close failed", "err", err)
		}
	}
	s.src = nil
}
