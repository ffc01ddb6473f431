// Copyright (c) 2026 Michael D Henderson. All rights reserved.

// Package sqlseed populates an empty database with seed data from SQL
// scripts the first time a connection is requested.
//
// A Gate wraps a Provider. The first session acquired through the gate
// runs a Populator inside a transaction before it is returned:
//   - success commits and every later session is returned untouched
//   - failure rolls back, closes the session and returns a DatabaseError;
//     the next acquisition tries again
//   - concurrent first acquisitions share one population attempt
//
// # Basic Usage
//
//	prov, err := sqlseed.OpenSQLite(ctx, sqlseed.SQLiteConfig{Path: "/var/lib/app/app.db"}, sqlseed.Plain)
//	if err != nil {
//	    return err
//	}
//	gate := sqlseed.NewGate(prov, sqlseed.NewComposite(
//	    sqlseed.NewFilePopulator("/etc/app/schema.sql"),
//	    sqlseed.NewDirPopulator("/etc/app/seeds"),
//	))
//	s, err := gate.Session(ctx) // populated on first use
//
// # Populators
//
// FilePopulator runs one script, DirPopulator runs every file in a
// directory in ascending name order, and Composite runs a list of
// populators in order. Scripts are split on every semicolon and lines
// starting with "--" are ignored; see package sqlscript for the exact rules.
//
// # Configuration
//
// LoadConfig reads data sources and named populators from YAML, the
// environment and command line flags. Build resolves every name up front and
// returns an Environment holding one Gate per data source.
//
//	datasources:
//	  main: {driver: sqlite, path: app.db, populator: seed}
//	populators:
//	  seed:   {populators: "schema data"}
//	  schema: {file: schema.sql}
//	  data:   {directory: seeds}
//
// # Driver Support
//
// SQLite data sources support two drivers via build tags:
//   - modernc.org/sqlite (default, pure Go, no CGO)
//   - github.com/mattn/go-sqlite3 (CGO, use -tags mattn)
//
// With -tags mattn the application must import the driver itself:
//
//	import _ "github.com/mattn/go-sqlite3"
//
// PostgreSQL data sources use github.com/jackc/pgx/v5.
package sqlseed
