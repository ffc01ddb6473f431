// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports contradictory or missing settings,
	// or a named entry that resolves to the wrong kind of value.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound reports a missing file, directory or registry entry.
	ErrNotFound = errors.New("not found")

	// ErrDatabase reports a failed population: a statement, script or
	// transaction failure. The population is rolled back.
	ErrDatabase = errors.New("database error")
)

// DatabaseError describes a failed population.
// It matches ErrDatabase and its cause with errors.Is.
type DatabaseError struct {
	Source    string // script or step that failed, if known
	Statement string // failing statement, if any
	Err       error
}

func (e *DatabaseError) Error() string {
	msg := "populate"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Statement != "" {
		msg += fmt.Sprintf(": statement %q", e.Statement)
	}
	return msg + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() []error {
	return []error{ErrDatabase, e.Err}
}

// asDatabaseError wraps err in a DatabaseError unless it already is one.
func asDatabaseError(source string, err error) error {
	if err == nil || errors.Is(err, ErrDatabase) {
		return err
	}
	return &DatabaseError{Source: source, Err: err}
}
