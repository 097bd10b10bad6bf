// Package cmdutil wires settings into the components shared by the commands.
package cmdutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/fetch"
	"github.com/nan-gameware/wowdb/internal/metrics"
	"github.com/nan-gameware/wowdb/internal/ratelimit"
	"github.com/nan-gameware/wowdb/internal/storage"
)

// StdoutPath selects standard output in --output flags.
const StdoutPath = "-"

// Runtime holds the process-wide collaborators of a command.
type Runtime struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Stdout  io.Writer
}

func (rt *Runtime) logger() *slog.Logger {
	if rt == nil || rt.Logger == nil {
		return slog.Default()
	}
	return rt.Logger
}

func (rt *Runtime) recorder() *metrics.Recorder {
	if rt == nil {
		return nil
	}
	return rt.Metrics
}

// NewFetcher builds an export client from the export.* settings.
func NewFetcher(rt *Runtime) *fetch.Client {
	settings := config.Export()
	return fetch.NewClient(
		fetch.WithBaseURL(settings.URL),
		fetch.WithTimeout(settings.Timeout),
		fetch.WithRetries(settings.Retries),
		fetch.WithRateLimiter(ratelimit.New("wow.tools", settings.Rate)),
		fetch.WithLogger(rt.logger()),
		fetch.WithMetrics(rt.recorder()),
	)
}

// NewStorage creates (but does not open) the storage described by cfg. The
// storage.path setting fills in a missing path.
func NewStorage(cfg config.StorageConfig, rt *Runtime) (*storage.Storage, error) {
	path := cfg.Path
	if path == "" {
		path = config.StoragePath()
	}
	return storage.New(storage.Options{
		Version:      cfg.Version,
		Path:         path,
		Name:         cfg.Name,
		Locale:       cfg.Locale,
		ObjectExists: cfg.ObjectExists,
		Fetcher:      NewFetcher(rt),
		Logger:       rt.logger(),
		Metrics:      rt.recorder(),
	})
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenOutput returns stdout for "" and "-", otherwise the created or
// truncated file.
func OpenOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == StdoutPath {
		if stdout == nil {
			stdout = os.Stdout
		}
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// ParseLevel maps a log.level setting to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", name)
}
