// Copyright (c) 2026 Michael D Henderson. All rights reserved.

//go:build mattn

package sqlseed

import (
	"fmt"
	"strings"
)

// driverName is the database/sql driver registered by github.com/mattn/go-sqlite3.
// The application must import the driver itself.
const driverName = "sqlite3"

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// memoryPragmas are optimized for in-memory databases.
var memoryPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "MEMORY"},
	{name: "_synchronous", value: "OFF"},
	{name: "_txlock", value: "exclusive"},
}

// persistentPragmas are optimized for durable persistent databases.
var persistentPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "WAL"},
	{name: "_synchronous", value: "NORMAL"},
}

// buildDSN constructs a DSN for github.com/mattn/go-sqlite3.
// mattn uses the syntax: file:path?_foreign_keys=1&_journal_mode=WAL
// Each in-memory path gets a freshly named database, so two opens never
// share tables.
func buildDSN(path string, pragmas []pragma) string {
	var sb strings.Builder

	sep := "?"
	if isMemoryPath(path) {
		sb.WriteString("file:")
		sb.WriteString(memoryName())
		sb.WriteString("?mode=memory&cache=shared")
		sep = "&"
	} else {
		sb.WriteString("file:")
		sb.WriteString(path)
	}

	for _, p := range pragmas {
		sb.WriteString(sep)
		fmt.Fprintf(&sb, "%s=%s", p.name, p.value)
		sep = "&"
	}

	return sb.String()
}
