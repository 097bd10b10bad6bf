// Package schema resolves named tables and views against a store. Views
// declare the objects they depend on; resolving a view realizes those
// dependencies first, depth-first in declaration order.
package schema

import (
	"context"
	"slices"
	"strings"

	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/csvload"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/storage"
)

// Store is the part of *storage.Storage the resolver needs.
type Store interface {
	Load(ctx context.Context, table string, opts csvload.Options) (bool, error)
	Materialize(ctx context.Context, view, query string, params config.Params) (bool, error)
	Query(ctx context.Context, sqlOrName string, opts storage.QueryOptions) (*storage.Result, error)
}

// Kind tells tables and views apart.
type Kind string

const (
	KindTable Kind = "table"
	KindView  Kind = "view"
)

// Object is a named table or view.
type Object interface {
	Name() string
	Kind() Kind
	Dependencies() []string
	// Realize makes the object available in the store under its name.
	Realize(ctx context.Context, store Store) error
	// Query returns the object's rows.
	Query(ctx context.Context, store Store) (*storage.Result, error)
}

// Table is loaded verbatim from its CSV export.
type Table struct {
	name    string
	options csvload.Options
}

// NewTable creates a table object with CSV load options.
func NewTable(name string, opts csvload.Options) *Table {
	return &Table{name: name, options: opts}
}

func (t *Table) Name() string           { return t.name }
func (t *Table) Kind() Kind             { return KindTable }
func (t *Table) Dependencies() []string { return nil }

func (t *Table) Realize(ctx context.Context, store Store) error {
	_, err := store.Load(ctx, t.name, t.options)
	return err
}

func (t *Table) Query(ctx context.Context, store Store) (*storage.Result, error) {
	return store.Query(ctx, t.name, storage.QueryOptions{Load: t.options})
}

// View is a SQL query over other objects.
type View struct {
	name         string
	query        string
	dependencies []string
	params       config.Params
}

// NewView creates a view object.
func NewView(name, query string, dependencies []string, params config.Params) *View {
	return &View{name: name, query: query, dependencies: dependencies, params: params}
}

func (v *View) Name() string           { return v.name }
func (v *View) Kind() Kind             { return KindView }
func (v *View) Dependencies() []string { return v.dependencies }

// SQL returns the view's query text.
func (v *View) SQL() string { return v.query }

func (v *View) Realize(ctx context.Context, store Store) error {
	_, err := store.Materialize(ctx, v.name, v.query, v.params)
	return err
}

func (v *View) Query(ctx context.Context, store Store) (*storage.Result, error) {
	return store.Query(ctx, v.query, storage.QueryOptions{Params: v.params})
}

// Schema maps object names to objects. Names that were never declared
// resolve to plain tables, which are added on first use.
type Schema struct {
	objects map[string]Object
	order   []string
}

// New builds a schema from declared tables and views. A name declared as
// both is a configuration error.
func New(tables *config.Ordered[csvload.Options], views *config.Ordered[config.ViewConfig]) (*Schema, error) {
	s := &Schema{objects: make(map[string]Object)}

	var both []string
	if tables != nil && views != nil {
		for _, name := range tables.Keys() {
			if _, ok := views.Get(name); ok {
				both = append(both, name)
			}
		}
	}
	if len(both) > 0 {
		return nil, wdberrors.NewConfigError("schema", strings.Join(both, ", "), "defined both as table and view")
	}

	if tables != nil {
		for _, name := range tables.Keys() {
			opts, _ := tables.Get(name)
			s.add(NewTable(name, opts))
		}
	}
	if views != nil {
		for _, name := range views.Keys() {
			cfg, _ := views.Get(name)
			query, err := cfg.Statement()
			if err != nil {
				return nil, err
			}
			s.add(NewView(name, query, cfg.Dependencies, cfg.Params))
		}
	}
	return s, nil
}

// FromConfig builds a schema from a document's schema section.
func FromConfig(cfg config.SchemaConfig) (*Schema, error) {
	return New(&cfg.Tables, &cfg.Views)
}

func (s *Schema) add(obj Object) {
	s.objects[obj.Name()] = obj
	s.order = append(s.order, obj.Name())
}

// Get returns the object called name, creating a plain table for names
// that were never declared.
func (s *Schema) Get(name string) Object {
	if obj, ok := s.objects[name]; ok {
		return obj
	}
	obj := NewTable(name, csvload.Options{})
	s.add(obj)
	return obj
}

// Names returns every known object: declared tables, then declared views,
// then names added on first use.
func (s *Schema) Names() []string {
	return slices.Clone(s.order)
}

// Description summarizes an object.
type Description struct {
	Name         string
	Kind         Kind
	Dependencies []string
	// SQL is the query text of a view.
	SQL      string
	Declared bool
}

// Describe reports what name resolves to without changing the schema.
func (s *Schema) Describe(name string) Description {
	obj, ok := s.objects[name]
	if !ok {
		return Description{Name: name, Kind: KindTable}
	}
	d := Description{
		Name:         name,
		Kind:         obj.Kind(),
		Dependencies: slices.Clone(obj.Dependencies()),
		Declared:     true,
	}
	if v, ok := obj.(*View); ok {
		d.SQL = v.SQL()
	}
	return d
}

// Query resolves name and its dependencies in store and returns its rows.
func (s *Schema) Query(ctx context.Context, name string, store Store) (*storage.Result, error) {
	obj, err := s.resolve(ctx, name, store, nil)
	if err != nil {
		return nil, err
	}
	return obj.Query(ctx, store)
}

// resolve realizes every dependency of name, depth-first. stack holds the
// names currently being resolved.
func (s *Schema) resolve(ctx context.Context, name string, store Store, stack []string) (Object, error) {
	if slices.Contains(stack, name) {
		cycle := append(slices.Clone(stack[slices.Index(stack, name):]), name)
		return nil, wdberrors.NewConfigError("dependencies", strings.Join(cycle, " -> "), "dependency cycle")
	}

	obj := s.Get(name)
	stack = append(stack, name)
	for _, dep := range obj.Dependencies() {
		depObj, err := s.resolve(ctx, dep, store, stack)
		if err != nil {
			return nil, err
		}
		if err := depObj.Realize(ctx, store); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
