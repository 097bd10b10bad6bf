package output

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"

	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// Table styles.
const (
	StyleBox     = "box"
	StyleRounded = "rounded"
	StyleDouble  = "double"
	StyleBold    = "bold"
	StyleASCII   = "ascii"
)

// Table formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatHTML     = "html"
)

const nullValue = "NULL"

var tableStyles = map[string]table.Style{
	StyleBox:     table.StyleLight,
	StyleRounded: table.StyleRounded,
	StyleDouble:  table.StyleDouble,
	StyleBold:    table.StyleBold,
	StyleASCII:   table.StyleDefault,
}

type TableOptions struct {
	Style   string            `yaml:"style"`
	Format  string            `yaml:"format"`
	Headers map[string]string `yaml:"headers"`
	Title   string            `yaml:"title"`
}

// TableRenderer lays out the rows of one object as a text table.
type TableRenderer struct {
	name  string
	opts  TableOptions
	style table.Style
}

// NewTable creates a table renderer for the object called name.
func NewTable(name string, opts TableOptions) (*TableRenderer, error) {
	if opts.Style == "" {
		opts.Style = StyleBox
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	style, ok := tableStyles[opts.Style]
	if !ok {
		return nil, wdberrors.NewConfigError("table style", opts.Style, "expected box, rounded, double, bold or ascii")
	}
	switch opts.Format {
	case FormatText, FormatMarkdown, FormatCSV, FormatHTML:
	default:
		return nil, wdberrors.NewConfigError("table format", opts.Format, "expected text, markdown, csv or html")
	}
	return &TableRenderer{name: name, opts: opts, style: style}, nil
}

func (r *TableRenderer) Render(ctx context.Context, src Source, w io.Writer) error {
	res, err := src.Query(ctx, r.name)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(r.style)
	// Column names are case-sensitive.
	t.Style().Format.Header = text.FormatDefault
	if r.opts.Title != "" {
		t.SetTitle(r.opts.Title)
	}

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
		if renamed, ok := r.opts.Headers[col]; ok {
			header[i] = renamed
		}
	}
	t.AppendHeader(header)

	for i := range res.Rows {
		values := res.Values(i)
		for c := range values {
			if values[c] == nil {
				values[c] = nullValue
			}
		}
		t.AppendRow(table.Row(values))
	}

	switch r.opts.Format {
	case FormatMarkdown:
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	case FormatHTML:
		t.RenderHTML()
	default:
		t.Render()
	}

	if len(res.Columns) == 0 {
		// go-pretty writes nothing for an empty table.
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
