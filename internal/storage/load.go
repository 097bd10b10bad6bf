package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nan-gameware/wowdb/internal/csvload"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/fetch"
	"github.com/nan-gameware/wowdb/internal/ident"
	"github.com/nan-gameware/wowdb/internal/metrics"
)

const (
	kindTable = "table"
	kindView  = "view"
)

// Load makes table queryable, reading <Dir>/<table>.csv or downloading it on
// a cache miss. It reports whether the table was newly loaded; a table that
// is already realized is left untouched and handled by the object_exists policy.
func (s *Storage) Load(ctx context.Context, table string, opts csvload.Options) (bool, error) {
	if err := s.requireOpen(); err != nil {
		return false, err
	}
	if !ident.Valid(table) {
		return false, wdberrors.NewInvalidNameError(table)
	}

	path := filepath.Join(s.dir, table+".csv")
	if previous, ok := s.registry.lookup(table); ok {
		s.objectExists(table, kindTable, previous, path)
		return false, nil
	}

	if err := opts.Validate(); err != nil {
		return false, fmt.Errorf("table %s: %w", table, err)
	}

	path, err := s.tablePath(ctx, table, path)
	if err != nil {
		return false, err
	}

	frame, err := csvload.ReadFile(path, opts)
	if err != nil {
		return false, fmt.Errorf("failed to load table %s: %w", table, err)
	}
	if err := createTable(ctx, s.db, table, frame); err != nil {
		return false, fmt.Errorf("failed to load table %s: %w", table, err)
	}

	s.registry.add(table, path)
	s.metrics.Realized(kindTable)
	s.logger.Debug("Loaded table", "table", table, "rows", len(frame.Rows), "columns", len(frame.Columns))
	return true, nil
}

func (s *Storage) tablePath(ctx context.Context, table, path string) (string, error) {
	_, err := os.Stat(path)
	if err == nil {
		s.metrics.Fetch(metrics.FetchCached)
		s.logger.Debug("Using cached table", "table", table, "path", path)
		return path, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return s.fetcher.Fetch(ctx, fetch.Request{
		Table:   table,
		Version: s.version,
		Locale:  s.locale,
		Dir:     s.dir,
	})
}
