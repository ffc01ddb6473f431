// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdhender/sqlseed"
	"github.com/mdhender/sqlseed/internal/testutil"
	_ "modernc.org/sqlite"
)

// newSQLite opens a fresh persistent database with an empty table t(id).
func newSQLite(t *testing.T) *sqlseed.DBProvider {
	t.Helper()
	ctx := context.Background()
	p, err := sqlseed.OpenSQLite(ctx, sqlseed.SQLiteConfig{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Logger: testutil.NewTestLogger(t),
	}, sqlseed.Plain)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	if _, err := p.DB().ExecContext(ctx, `CREATE TABLE t (id INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return p
}

// countRows returns the number of rows in t.
// Every session must be closed first; the pool holds a single connection.
func countRows(t *testing.T, p *sqlseed.DBProvider) int {
	t.Helper()
	var n int
	if err := p.DB().QueryRowContext(context.Background(), `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

// writeFile writes a script under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// TestOpenSQLite_Memory tests opening an in-memory database.
func TestOpenSQLite_Memory(t *testing.T) {
	ctx := context.Background()

	p, err := sqlseed.OpenSQLite(ctx, sqlseed.SQLiteConfig{Path: ":memory:"}, sqlseed.Plain)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer p.Close()

	var one int
	if err := p.DB().QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		t.Fatalf("query: %v", err)
	}
	if p.Mode() != sqlseed.Plain {
		t.Errorf("expected plain mode, got %v", p.Mode())
	}
}

// TestOpenSQLite_MemoryIsolated tests that two in-memory opens get separate databases.
func TestOpenSQLite_MemoryIsolated(t *testing.T) {
	ctx := context.Background()

	var dbs []*sqlseed.DBProvider
	for i := 0; i < 2; i++ {
		p, err := sqlseed.OpenSQLite(ctx, sqlseed.SQLiteConfig{Path: ":memory:", Logger: testutil.NewTestLogger(t)}, sqlseed.Plain)
		if err != nil {
			t.Fatalf("OpenSQLite %d failed: %v", i, err)
		}
		defer p.Close()
		dbs = append(dbs, p)
	}

	for i, p := range dbs {
		if _, err := p.DB().ExecContext(ctx, `CREATE TABLE seed (id INTEGER)`); err != nil {
			t.Fatalf("create table in database %d: %v", i, err)
		}
	}
	if _, err := dbs[0].DB().ExecContext(ctx, `INSERT INTO seed VALUES (1)`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := dbs[1].DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM seed`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("second database sees %d rows from the first", n)
	}
}

// TestOpenSQLite_Memory_ProductionRejection tests that memory DBs are rejected in production.
func TestOpenSQLite_Memory_ProductionRejection(t *testing.T) {
	t.Setenv("TEST_ENV", "production")

	_, err := sqlseed.OpenSQLite(context.Background(), sqlseed.SQLiteConfig{
		Path:             ":memory:",
		ProductionEnvVar: "TEST_ENV",
	}, sqlseed.Plain)
	if err == nil {
		t.Fatal("expected error for memory DB in production")
	}
}

// TestOpenSQLite_Memory_ProductionAllowed tests AllowMemoryInProduction flag.
func TestOpenSQLite_Memory_ProductionAllowed(t *testing.T) {
	t.Setenv("TEST_ENV", "production")

	p, err := sqlseed.OpenSQLite(context.Background(), sqlseed.SQLiteConfig{
		Path:                    ":memory:",
		ProductionEnvVar:        "TEST_ENV",
		AllowMemoryInProduction: true,
	}, sqlseed.Plain)
	if err != nil {
		t.Fatalf("OpenSQLite should succeed with AllowMemoryInProduction: %v", err)
	}
	p.Close()
}

// TestOpenSQLite_Persistent tests that a missing database file is created.
func TestOpenSQLite_Persistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.db")

	p, err := sqlseed.OpenSQLite(context.Background(), sqlseed.SQLiteConfig{Path: path}, sqlseed.Transactional)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer p.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file should exist: %v", err)
	}
	var mode string
	if err := p.DB().QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}

// TestOpenSQLite_Pragmas tests that configured pragmas override the defaults.
func TestOpenSQLite_Pragmas(t *testing.T) {
	p, err := sqlseed.OpenSQLite(context.Background(), sqlseed.SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "pragmas.db"),
		Pragmas: map[string]string{"busy_timeout": "1234"},
	}, sqlseed.Plain)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer p.Close()

	var timeout int
	if err := p.DB().QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("query busy_timeout: %v", err)
	}
	if timeout != 1234 {
		t.Errorf("expected busy_timeout 1234, got %d", timeout)
	}
}

func TestOpenSQLite_InvalidPaths(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"relative path", "relative/path.db"},
		{"no extension", filepath.Join(dir, "noext")},
		{"parent dir missing", filepath.Join(dir, "nonexistent", "test.db")},
		{"directory", dir + ".db"},
	}
	if err := os.Mkdir(dir+".db", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(dir + ".db") })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlseed.OpenSQLite(context.Background(), sqlseed.SQLiteConfig{Path: tt.path}, sqlseed.Plain)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, sqlseed.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}
