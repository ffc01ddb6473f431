// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlscript

import "errors"

var (
	// ErrInvalidArgument is returned when a filter is built without a comment prefix.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyIteration is returned by Next when no statement is available.
	ErrEmptyIteration = errors.New("no sql statement to return")

	// ErrUnsupported is returned by Remove; a Scanner is read-only.
	ErrUnsupported = errors.New("unsupported operation: scanner is read-only")
)
