// Package query implements the single-object query command.
package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/nan-gameware/wowdb/internal/cmdutil"
	"github.com/nan-gameware/wowdb/internal/config"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/ident"
	"github.com/nan-gameware/wowdb/internal/output"
	"github.com/nan-gameware/wowdb/internal/schema"
	"github.com/nan-gameware/wowdb/internal/storage"
	"github.com/nan-gameware/wowdb/internal/tui"
)

// Options are the parsed command-line arguments.
type Options struct {
	ConfigFile string
	OutputFile string
	Object     string
}

var (
	selectObject = tui.SelectObject
	isTerminal   = func() bool { return isatty.IsTerminal(os.Stdin.Fd()) }
)

// Run renders one object through the output configured for it.
func Run(ctx context.Context, opts Options, rt *cmdutil.Runtime) error {
	logger := slog.Default()
	if rt != nil && rt.Logger != nil {
		logger = rt.Logger
	}

	doc, err := config.LoadDocument(opts.ConfigFile)
	if err != nil {
		return err
	}
	s, err := schema.FromConfig(doc.Schema)
	if err != nil {
		return err
	}
	outputs, err := output.NewRegistry(&doc.Output, output.WithLogger(logger))
	if err != nil {
		return err
	}

	name := opts.Object
	if name == "" {
		if name, err = pickObject(s); err != nil {
			return err
		}
	}
	if !ident.Valid(name) {
		return wdberrors.NewInvalidNameError(name)
	}

	store, err := cmdutil.NewStorage(doc.Storage, rt)
	if err != nil {
		return err
	}

	var stdout io.Writer
	if rt != nil {
		stdout = rt.Stdout
	}
	return storage.With(ctx, store, func(st *storage.Storage) (err error) {
		logger.Debug("Rendering object", "object", name, "storage", st.String())
		w, err := cmdutil.OpenOutput(opts.OutputFile, stdout)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, w.Close()) }()
		return outputs.Render(ctx, name, output.FromSchema(s, st), w)
	})
}

func pickObject(s *schema.Schema) (string, error) {
	names := s.Names()
	if !isTerminal() || len(names) == 0 {
		return "", errors.New("OBJECT is required")
	}
	choices := make([]tui.Choice, 0, len(names))
	for _, name := range names {
		d := s.Describe(name)
		choices = append(choices, tui.Choice{Name: d.Name, Kind: string(d.Kind), Dependencies: d.Dependencies})
	}
	return selectObject("Select an object to query", choices)
}
