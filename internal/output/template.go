package output

import (
	"context"
	"fmt"
	"io"
	"text/template"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// TemplateOptions configure template and jinja outputs. Each dependency is
// queried and bound to the template under its own name; the default is the
// output's name.
type TemplateOptions struct {
	Template     string   `yaml:"template"`
	Dependencies []string `yaml:"dependencies"`
}

func (o TemplateOptions) dependencies(name string) []string {
	if len(o.Dependencies) == 0 {
		return []string{name}
	}
	return o.Dependencies
}

// Bindings fixes the results bound to a template. Unlike
// TemplateOptions.Dependencies an empty list binds nothing.
type Bindings struct {
	Names []string
	// Newline appends a line break after the rendered text.
	Newline bool
}

// bindResults queries every dependency.
func bindResults(ctx context.Context, src Source, deps []string) (map[string]any, error) {
	data := make(map[string]any, len(deps))
	for _, dep := range deps {
		res, err := src.Query(ctx, dep)
		if err != nil {
			return nil, err
		}
		data[dep] = rowMaps(res)
	}
	return data, nil
}

// TemplateRenderer renders a Go text/template.
type TemplateRenderer struct {
	name    string
	deps    []string
	newline bool
	tmpl    *template.Template
}

// NewTemplate parses opts.Template.
func NewTemplate(name string, opts TemplateOptions) (*TemplateRenderer, error) {
	return NewBoundTemplate(name, opts.Template, Bindings{Names: opts.dependencies(name), Newline: true})
}

// NewBoundTemplate parses text and binds exactly b.Names.
func NewBoundTemplate(name, text string, b Bindings) (*TemplateRenderer, error) {
	if text == "" {
		return nil, wdberrors.NewConfigError("template", name, "template is required")
	}
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, wdberrors.NewConfigError("template", name, err.Error())
	}
	return &TemplateRenderer{name: name, deps: b.Names, newline: b.Newline, tmpl: tmpl}, nil
}

func (r *TemplateRenderer) Render(ctx context.Context, src Source, w io.Writer) error {
	data, err := bindResults(ctx, src, r.deps)
	if err != nil {
		return err
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	if !r.newline {
		return nil
	}
	_, err = fmt.Fprintln(w)
	return err
}
