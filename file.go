// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// FilePopulator executes the statements in a single script.
type FilePopulator struct {
	FS   fs.FS
	Name string // path of the script within FS
	// Optional makes a missing script a no-op instead of an error.
	Optional      bool
	CommentPrefix string
	// MaxStatementSize bounds one statement; zero selects the default.
	MaxStatementSize int
	Logger           *slog.Logger
}

// NewFilePopulator returns a populator for the script at an OS path.
func NewFilePopulator(name string) *FilePopulator {
	return &FilePopulator{
		FS:   os.DirFS(filepath.Dir(name)),
		Name: filepath.Base(name),
	}
}

func (p *FilePopulator) String() string {
	return "file " + p.Name
}

// Populate implements Populator.
func (p *FilePopulator) Populate(ctx context.Context, ex Execer) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return populateFile(ctx, ex, p.FS, p.Name, p.Optional, ScriptOptions{
		CommentPrefix:    p.CommentPrefix,
		MaxStatementSize: p.MaxStatementSize,
		Logger:           logger,
	})
}

// populateFile runs the script name from fsys. opts.Source is set to name.
func populateFile(ctx context.Context, ex Execer, fsys fs.FS, name string, optional bool, opts ScriptOptions) error {
	logger := opts.Logger
	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if optional {
				logger.Debug("optional script not found", "name", name)
				return nil
			}
			return &DatabaseError{Source: name, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
		}
		return &DatabaseError{Source: name, Err: err}
	}
	defer f.Close()

	logger.Info("running script", "name", name)
	opts.Source = name
	return PopulateFromReader(ctx, ex, f, opts)
}

// DirPopulator executes every script in a directory, in ascending name order.
// Subdirectories are skipped.
type DirPopulator struct {
	FS            fs.FS
	Dir           string // directory within FS; "." for the root
	CommentPrefix string
	// MaxStatementSize bounds one statement; zero selects the default.
	MaxStatementSize int
	Logger           *slog.Logger
}

// NewDirPopulator returns a populator for the directory at an OS path.
func NewDirPopulator(dir string) *DirPopulator {
	return &DirPopulator{FS: os.DirFS(dir), Dir: "."}
}

func (p *DirPopulator) String() string {
	return "directory " + p.Dir
}

// Populate implements Populator.
func (p *DirPopulator) Populate(ctx context.Context, ex Execer) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dir := p.Dir
	if dir == "" {
		dir = "."
	}
	names, err := listScripts(p.FS, dir, logger)
	if err != nil {
		return &DatabaseError{Source: dir, Err: fmt.Errorf("not a directory: %w", err)}
	}
	opts := ScriptOptions{
		CommentPrefix:    p.CommentPrefix,
		MaxStatementSize: p.MaxStatementSize,
		Logger:           logger,
	}
	for _, name := range names {
		if err := populateFile(ctx, ex, p.FS, name, false, opts); err != nil {
			return err
		}
	}
	return nil
}

// listScripts returns the regular files in dir, sorted by name.
// Symbolic links are followed.
func listScripts(fsys fs.FS, dir string, logger *slog.Logger) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := path.Join(dir, e.Name())
		if e.IsDir() {
			logger.Debug("skipping directory", "name", name)
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			fi, err := fs.Stat(fsys, name)
			if err != nil || !fi.Mode().IsRegular() {
				logger.Debug("skipping link", "name", name)
				continue
			}
		} else if !e.Type().IsRegular() {
			logger.Debug("skipping special file", "name", name)
			continue
		}
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})

	return names, nil
}
