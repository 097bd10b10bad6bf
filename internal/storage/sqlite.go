package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nan-gameware/wowdb/internal/csvload"
	"github.com/nan-gameware/wowdb/internal/ident"
)

const memoryDSN = ":memory:"

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}

	// One long-lived connection: every statement must see the same
	// in-memory database, and SQLite has a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if dsn != memoryDSN {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	return db, nil
}

// createTable replaces table with the contents of frame in one transaction.
func createTable(ctx context.Context, db *sql.DB, table string, frame *csvload.Frame) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once committed.
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident.Quote(table)); err != nil {
		return fmt.Errorf("failed to drop stale table: %w", err)
	}

	columns := make([]string, len(frame.Columns))
	defs := make([]string, len(frame.Columns))
	placeholders := make([]string, len(frame.Columns))
	for i, col := range frame.Columns {
		columns[i] = ident.Quote(col.Name)
		defs[i] = columns[i] + " " + col.Type.String()
		placeholders[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", ident.Quote(table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if len(frame.Rows) > 0 {
		insert := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			ident.Quote(table),
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
		)
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, row := range frame.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// createTableAs replaces table with the result of query.
func createTableAs(ctx context.Context, db *sql.DB, table, query string, args []any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident.Quote(table)); err != nil {
		return fmt.Errorf("failed to drop stale table: %w", err)
	}
	stmt := fmt.Sprintf("CREATE TABLE %s AS %s", ident.Quote(table), trimStatement(query))
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to materialize %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func trimStatement(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
}
