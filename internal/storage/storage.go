// Package storage owns the SQLite database of one build version and the CSV
// cache directory next to it. Tables and views realized into a Storage are
// remembered for its lifetime so each is fetched and built at most once.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/fetch"
	"github.com/nan-gameware/wowdb/internal/ident"
	"github.com/nan-gameware/wowdb/internal/metrics"
)

// Fetcher downloads a table export and returns the local file path.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) (string, error)
}

// Options configures a Storage.
type Options struct {
	// Version is the build, e.g. 9.2.0.45335.
	Version string
	// Path is the cache base directory. Empty uses a temporary directory
	// that is removed on Close.
	Path string
	// Name selects a persistent <Path>/<Version>/<Name>.sqlite database.
	// Empty uses an in-memory database.
	Name         string
	Locale       string
	ObjectExists string
	Fetcher      Fetcher
	Logger       *slog.Logger
	Metrics      *metrics.Recorder
}

type state int

const (
	stateNew state = iota
	stateOpen
	stateClosed
)

// Storage is a scoped handle: Open it once, Close it once.
type Storage struct {
	version  string
	basePath string
	name     string
	locale   string
	policy   Policy
	fetcher  Fetcher
	logger   *slog.Logger
	metrics  *metrics.Recorder

	state    state
	dir      string
	tmpDir   string
	db       *sql.DB
	registry *registry
}

// New validates opts. Nothing touches the filesystem until Open.
func New(opts Options) (*Storage, error) {
	if !ident.ValidVersion(opts.Version) {
		return nil, wdberrors.NewConfigError("storage version", opts.Version, "expected four dotted numbers")
	}
	if opts.Name != "" && !ident.Valid(opts.Name) {
		return nil, wdberrors.NewConfigError("storage name", opts.Name, "")
	}
	policy, err := ParsePolicy(opts.ObjectExists)
	if err != nil {
		return nil, err
	}
	locale, err := fetch.ParseLocale(opts.Locale)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewClient(fetch.WithLogger(logger), fetch.WithMetrics(opts.Metrics))
	}

	return &Storage{
		version:  opts.Version,
		basePath: opts.Path,
		name:     opts.Name,
		locale:   locale,
		policy:   policy,
		fetcher:  fetcher,
		logger:   logger,
		metrics:  opts.Metrics,
		registry: newRegistry(),
	}, nil
}

func (s *Storage) String() string {
	name := s.name
	if name == "" {
		name = "MEMORY"
	}
	path := s.dir
	if path == "" {
		path = s.basePath
	}
	if path == "" {
		path = "TMPDIR"
	}
	return fmt.Sprintf("WoWDB[%s @ %s; version %s]", name, path, s.version)
}

// Version returns the build version of the store.
func (s *Storage) Version() string {
	return s.version
}

// Dir returns the version directory holding cached CSV files. It is empty
// until the store is opened.
func (s *Storage) Dir() string {
	return s.dir
}

// Objects returns the realized table and view names in realization order.
func (s *Storage) Objects() []string {
	return s.registry.names()
}

// Open creates the version directory and opens the database.
func (s *Storage) Open(ctx context.Context) (err error) {
	switch s.state {
	case stateOpen:
		return wdberrors.NewAccessError(s.String(), "attempt to re-open storage")
	case stateClosed:
		return wdberrors.NewAccessError(s.String(), "attempt to reopen closed storage")
	}

	s.logger.Info("Opening storage", "storage", s.String())

	if s.basePath == "" {
		dir, err := os.MkdirTemp("", "wowdb-")
		if err != nil {
			return fmt.Errorf("failed to create temporary directory: %w", err)
		}
		s.tmpDir = dir
		s.dir = dir
	} else {
		s.dir = filepath.Join(s.basePath, s.version)
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			s.dir = ""
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, s.removeTmpDir())
			s.dir = ""
		}
	}()

	dsn := memoryDSN
	if s.name != "" {
		dsn = filepath.Join(s.dir, s.name+".sqlite")
	}
	db, err := openDatabase(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	s.db = db
	s.state = stateOpen
	s.logger.Info("Opened storage", "storage", s.String())
	return nil
}

// Close releases the database and removes a temporary directory. Closing a
// store that is not open does nothing.
func (s *Storage) Close() error {
	if s.state != stateOpen {
		return nil
	}
	s.state = stateClosed

	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	s.db = nil
	errs = append(errs, s.removeTmpDir())
	s.logger.Debug("Closed storage", "storage", s.String())
	return errors.Join(errs...)
}

func (s *Storage) removeTmpDir() error {
	if s.tmpDir == "" {
		return nil
	}
	dir := s.tmpDir
	s.tmpDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove temporary directory: %w", err)
	}
	return nil
}

// With opens s, runs fn and always closes s again.
func With(ctx context.Context, s *Storage, fn func(*Storage) error) (err error) {
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}

func (s *Storage) requireOpen() error {
	if s.state != stateOpen {
		return wdberrors.NewAccessError(s.String(), "database not open")
	}
	return nil
}

// objectExists applies the policy to a repeated realization request.
func (s *Storage) objectExists(name, kind, previous, fingerprint string) {
	conflict := previous != fingerprint
	s.metrics.ObjectExists(s.policy.String(), conflict)

	switch s.policy {
	case PolicySkip:
		s.logger.Debug("Object already loaded", "object", name, "kind", kind, "conflict", conflict)
	case PolicyWarn:
		if conflict {
			s.logger.Warn("Object already loaded with a different definition", "object", name, "kind", kind)
			return
		}
		s.logger.Warn("Object already loaded", "object", name, "kind", kind)
	}
}
