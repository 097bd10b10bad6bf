//go:build !cgo_sqlite

package storage

// Pure Go SQLite, no C toolchain required. Build with -tags cgo_sqlite to
// use github.com/mattn/go-sqlite3 instead.

import (
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver used for stores.
const DriverName = "sqlite"
