package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/csvload"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/ident"
)

// QueryOptions are passed along with a query. Load is used only when the
// query is a bare table name that has to be loaded first.
type QueryOptions struct {
	Params config.Params
	Load   csvload.Options
}

// Row maps column names to values: int64, float64, string or nil.
type Row map[string]any

// Result is an ordered query result.
type Result struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.Rows)
}

// Values returns row i in column order.
func (r *Result) Values(i int) []any {
	values := make([]any, len(r.Columns))
	for c, col := range r.Columns {
		values[c] = r.Rows[i][col]
	}
	return values
}

// Query runs a SQL statement. A bare object name is loaded first and
// selected in full.
func (s *Storage) Query(ctx context.Context, sqlOrName string, opts QueryOptions) (*Result, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	stmt := sqlOrName
	args := opts.Params.Args()
	if ident.Valid(sqlOrName) {
		if _, err := s.Load(ctx, sqlOrName, opts.Load); err != nil {
			return nil, err
		}
		stmt = "select * from " + ident.Quote(sqlOrName)
		args = nil
	}

	s.logger.Debug("Running query", "sql", stmt)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanResult(rows)
}

// Materialize stores the result of query as table view. It reports whether
// the view was newly built; a view that is already realized is left untouched
// and handled by the object_exists policy.
func (s *Storage) Materialize(ctx context.Context, view, query string, params config.Params) (bool, error) {
	if err := s.requireOpen(); err != nil {
		return false, err
	}
	if !ident.Valid(view) {
		return false, wdberrors.NewInvalidNameError(view)
	}

	if previous, ok := s.registry.lookup(view); ok {
		s.objectExists(view, kindView, previous, query)
		return false, nil
	}

	if err := createTableAs(ctx, s.db, view, query, params.Args()); err != nil {
		return false, err
	}

	s.registry.add(view, query)
	s.metrics.Realized(kindView)
	s.logger.Debug("Materialized view", "view", view)
	return true, nil
}

func scanResult(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	// Joins often repeat a name such as ID; each column keeps its own key.
	columns = csvload.DedupeNames(columns)
	result := &Result{Columns: columns, Rows: []Row{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return result, nil
}

func normalize(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case float32:
		return float64(val)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	}
	return v
}
