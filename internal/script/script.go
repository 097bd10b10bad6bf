// Package script runs declarative load/query/render documents.
package script

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nan-gameware/wowdb/internal/config"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/metrics"
	"github.com/nan-gameware/wowdb/internal/output"
	"github.com/nan-gameware/wowdb/internal/storage"
)

// Options carries the collaborators of a run.
type Options struct {
	// Path is the cache base directory used when the script's db section
	// has none.
	Path    string
	Fetcher storage.Fetcher
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// Stdout receives outputs without a file. Defaults to os.Stdout.
	Stdout io.Writer
}

type step struct {
	name     string
	file     string
	renderer output.Renderer
}

// Run executes s: tables are loaded, then every query runs, then every
// output is rendered, each in document order.
func Run(ctx context.Context, s *config.Script, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	steps, err := plan(s)
	if err != nil {
		return err
	}

	path := s.DB.Path
	if path == "" {
		path = opts.Path
	}
	store, err := storage.New(storage.Options{
		Version:      s.DB.Build,
		Path:         path,
		Name:         s.DB.Name,
		Locale:       s.DB.Locale,
		ObjectExists: s.DB.ObjectExists,
		Fetcher:      opts.Fetcher,
		Logger:       logger,
		Metrics:      opts.Metrics,
	})
	if err != nil {
		return err
	}

	return storage.With(ctx, store, func(st *storage.Storage) error {
		logger.Debug("Running script", "storage", st.String())
		for _, table := range s.DB.Tables {
			if _, err := st.Load(ctx, table.Name, table.Options); err != nil {
				return err
			}
		}

		results := make(map[string]*storage.Result, s.Queries.Len())
		for _, name := range s.Queries.Keys() {
			q, _ := s.Queries.Get(name)
			res, err := st.Query(ctx, q.SQL, storage.QueryOptions{Params: q.Params})
			if err != nil {
				return fmt.Errorf("query %s: %w", name, err)
			}
			logger.Debug("Query finished", "query", name, "rows", res.Len())
			results[name] = res
		}

		src := output.SourceFunc(func(_ context.Context, name string) (*storage.Result, error) {
			res, ok := results[name]
			if !ok {
				return nil, wdberrors.NewConfigError("query", name, "unknown query")
			}
			return res, nil
		})
		for _, step := range steps {
			if err := render(ctx, step, src, stdout); err != nil {
				return fmt.Errorf("output %s: %w", step.name, err)
			}
		}
		return nil
	})
}

// plan builds every renderer before any table is fetched. Templates see
// every query result by name and nothing else, and add no trailing newline.
func plan(s *config.Script) ([]step, error) {
	queries := s.Queries.Keys()
	steps := make([]step, 0, s.Output.Len())
	for _, name := range s.Output.Keys() {
		out, _ := s.Output.Get(name)

		var (
			r   output.Renderer
			err error
		)
		switch out.Format {
		case config.FormatJinja2:
			r, err = output.NewBoundJinja(name, out.Template, output.Bindings{Names: queries})
		case config.FormatTemplate:
			r, err = output.NewBoundTemplate(name, out.Template, output.Bindings{Names: queries})
		case config.FormatTable:
			query := out.Query
			if query == "" {
				query = name
			}
			r, err = output.NewTable(query, output.TableOptions{Style: out.Style})
		default:
			err = wdberrors.NewConfigError("output format", out.Format, "unsupported")
		}
		if err != nil {
			return nil, err
		}
		steps = append(steps, step{name: name, file: out.File, renderer: r})
	}
	return steps, nil
}

func render(ctx context.Context, st step, src output.Source, stdout io.Writer) (err error) {
	if st.file == "" {
		return st.renderer.Render(ctx, src, stdout)
	}
	f, err := os.Create(st.file)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return st.renderer.Render(ctx, src, f)
}
