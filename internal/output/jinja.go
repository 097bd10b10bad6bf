package output

import (
	"context"
	"fmt"
	"io"

	"github.com/flosch/pongo2/v6"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// JinjaRenderer renders a Jinja-style template.
type JinjaRenderer struct {
	name    string
	deps    []string
	newline bool
	tmpl    *pongo2.Template
}

// NewJinja compiles opts.Template.
func NewJinja(name string, opts TemplateOptions) (*JinjaRenderer, error) {
	return NewBoundJinja(name, opts.Template, Bindings{Names: opts.dependencies(name), Newline: true})
}

// NewBoundJinja compiles text and binds exactly b.Names.
func NewBoundJinja(name, text string, b Bindings) (*JinjaRenderer, error) {
	if text == "" {
		return nil, wdberrors.NewConfigError("template", name, "template is required")
	}
	tmpl, err := pongo2.FromString(text)
	if err != nil {
		return nil, wdberrors.NewConfigError("template", name, err.Error())
	}
	return &JinjaRenderer{name: name, deps: b.Names, newline: b.Newline, tmpl: tmpl}, nil
}

func (r *JinjaRenderer) Render(ctx context.Context, src Source, w io.Writer) error {
	data, err := bindResults(ctx, src, r.deps)
	if err != nil {
		return err
	}
	if err := r.tmpl.ExecuteWriter(pongo2.Context(data), w); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	if !r.newline {
		return nil
	}
	_, err = fmt.Fprintln(w)
	return err
}
