//go:build cgo_sqlite

package main

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteDriver = "sqlite3"
	sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
)
