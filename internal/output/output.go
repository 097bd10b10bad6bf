// Package output renders query results. Each output name maps to a renderer
// built from its configuration; names without configuration get the default
// renderer, a box-drawn table unless the document overrides it.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/datastore"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/schema"
	"github.com/nan-gameware/wowdb/internal/storage"
)

// DefaultKey is the output entry that replaces the built-in default renderer.
const DefaultKey = "default"

// Output kinds.
const (
	KindTable     = "table"
	KindTemplate  = "template"
	KindJinja     = "jinja"
	KindDatasette = "datasette"
)

// Source returns the rows of a named object.
type Source interface {
	Query(ctx context.Context, name string) (*storage.Result, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, name string) (*storage.Result, error)

func (f SourceFunc) Query(ctx context.Context, name string) (*storage.Result, error) {
	return f(ctx, name)
}

// FromSchema resolves names through s against store.
func FromSchema(s *schema.Schema, store schema.Store) Source {
	return SourceFunc(func(ctx context.Context, name string) (*storage.Result, error) {
		return s.Query(ctx, name, store)
	})
}

// Renderer writes one output.
type Renderer interface {
	Render(ctx context.Context, src Source, w io.Writer) error
}

// Registry holds the renderers of a document's output section.
type Registry struct {
	defaultSpec map[string]any
	renderers   map[string]Renderer
	deps        deps
}

type deps struct {
	httpClient datastore.HTTPDoer
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*deps)

// WithHTTPClient sets the client used by datasette outputs.
func WithHTTPClient(c datastore.HTTPDoer) Option {
	return func(d *deps) {
		d.httpClient = c
	}
}

// WithLogger sets the logger passed to renderers.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

func builtinDefault() map[string]any {
	return map[string]any{"kind": KindTable, "style": StyleBox}
}

// NewRegistry builds every configured renderer. cfg may be nil.
func NewRegistry(cfg *config.Ordered[map[string]any], opts ...Option) (*Registry, error) {
	r := &Registry{
		defaultSpec: builtinDefault(),
		renderers:   make(map[string]Renderer),
		deps:        deps{logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(&r.deps)
	}

	if cfg == nil {
		return r, nil
	}
	if spec, ok := cfg.Get(DefaultKey); ok {
		if _, err := r.create(DefaultKey, spec); err != nil {
			return nil, err
		}
		r.defaultSpec = spec
	}
	for _, name := range cfg.Keys() {
		if name == DefaultKey {
			continue
		}
		spec, _ := cfg.Get(name)
		renderer, err := r.create(name, spec)
		if err != nil {
			return nil, err
		}
		r.renderers[name] = renderer
	}
	return r, nil
}

// Get returns the renderer for name, creating a default one on first use.
func (r *Registry) Get(name string) (Renderer, error) {
	if renderer, ok := r.renderers[name]; ok {
		return renderer, nil
	}
	renderer, err := r.create(name, r.defaultSpec)
	if err != nil {
		return nil, err
	}
	r.renderers[name] = renderer
	return renderer, nil
}

// Render writes the output called name to w.
func (r *Registry) Render(ctx context.Context, name string, src Source, w io.Writer) error {
	renderer, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := renderer.Render(ctx, src, w); err != nil {
		return fmt.Errorf("output %s: %w", name, err)
	}
	return nil
}

// Create builds a standalone renderer for name from an output spec.
func Create(name string, spec map[string]any, opts ...Option) (Renderer, error) {
	r := &Registry{deps: deps{logger: slog.Default()}}
	for _, opt := range opts {
		opt(&r.deps)
	}
	return r.create(name, spec)
}

func (r *Registry) create(name string, spec map[string]any) (Renderer, error) {
	kind, _ := spec["kind"].(string)
	params := maps.Clone(spec)
	delete(params, "kind")

	switch kind {
	case KindTable:
		var opts TableOptions
		if err := decodeOptions(name, params, &opts); err != nil {
			return nil, err
		}
		return NewTable(name, opts)
	case KindTemplate:
		var opts TemplateOptions
		if err := decodeOptions(name, params, &opts); err != nil {
			return nil, err
		}
		return NewTemplate(name, opts)
	case KindJinja:
		var opts TemplateOptions
		if err := decodeOptions(name, params, &opts); err != nil {
			return nil, err
		}
		return NewJinja(name, opts)
	case KindDatasette:
		var opts DatasetteOptions
		if err := decodeOptions(name, params, &opts); err != nil {
			return nil, err
		}
		return NewDatasette(name, opts, r.deps.httpClient, r.deps.logger)
	case "":
		return nil, wdberrors.NewConfigError("output kind", "", "output "+name+" has no kind")
	}
	return nil, wdberrors.NewConfigError("output kind", kind, "expected table, template, jinja or datasette")
}

func decodeOptions(name string, params map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		TagName:     "yaml",
		Result:      target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return wdberrors.NewConfigError("output options", name, err.Error())
	}
	return nil
}

// rowMaps converts a result to plain maps for template engines.
func rowMaps(res *storage.Result) []map[string]any {
	rows := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		rows[i] = map[string]any(row)
	}
	return rows
}
