//go:build cgo_sqlite

package storage

// CGO_ENABLED=1 go build -tags cgo_sqlite ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver used for stores.
const DriverName = "sqlite3"
