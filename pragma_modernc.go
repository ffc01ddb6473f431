// Copyright (c) 2026 Michael D Henderson. All rights reserved.

//go:build !mattn

package sqlseed

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// memoryPragmas are optimized for in-memory databases.
var memoryPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "MEMORY"},
	{name: "synchronous", value: "OFF"},
	{name: "temp_store", value: "MEMORY"},
	{name: "locking_mode", value: "EXCLUSIVE"},
}

// persistentPragmas are optimized for durable persistent databases.
var persistentPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "WAL"},
	{name: "synchronous", value: "NORMAL"},
	{name: "temp_store", value: "FILE"},
	{name: "locking_mode", value: "NORMAL"},
}

// buildDSN constructs a DSN for modernc.org/sqlite.
// modernc uses the syntax: file:path?_pragma=name(value)&_pragma=name2(value2)
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
		fmt.Fprintf(&sb, "_pragma=%s(%s)", p.name, p.value)
		sep = "&"
	}

	return sb.String()
}
