package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nan-gameware/wowdb/internal/config"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/storage"
	"github.com/nan-gameware/wowdb/internal/testutil"
)

func fakeSource(t *testing.T) (Source, *[]string) {
	t.Helper()
	var asked []string
	results := map[string]*storage.Result{
		"races": {
			Columns: []string{"ID", "Name_lang"},
			Rows: []storage.Row{
				{"ID": int64(1), "Name_lang": "Human"},
				{"ID": int64(2), "Name_lang": "Orc"},
			},
		},
		"sparse": {
			Columns: []string{"ID", "Note"},
			Rows:    []storage.Row{{"ID": int64(7), "Note": nil}},
		},
	}
	src := SourceFunc(func(_ context.Context, name string) (*storage.Result, error) {
		asked = append(asked, name)
		res, ok := results[name]
		if !ok {
			return nil, wdberrors.NewNotFoundError(name, "")
		}
		return res, nil
	})
	return src, &asked
}

func outputs(t *testing.T, doc string) *config.Ordered[map[string]any] {
	t.Helper()
	cfg, err := config.ParseDocument([]byte(doc))
	require.NoError(t, err)
	return &cfg.Output
}

func TestUnconfiguredOutputUsesDefaultTable(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)

	renderer, err := reg.Get("races")
	require.NoError(t, err)
	table, ok := renderer.(*TableRenderer)
	require.True(t, ok)
	assert.Equal(t, StyleBox, table.opts.Style)

	again, err := reg.Get("races")
	require.NoError(t, err)
	assert.Same(t, renderer, again)

	src, _ := fakeSource(t)
	var buf bytes.Buffer
	require.NoError(t, reg.Render(context.Background(), "races", src, &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "┌"), out)
	assert.Contains(t, out, "Name_lang")
	assert.Contains(t, out, "Human")
	assert.Contains(t, out, "Orc")
	assert.True(t, strings.HasSuffix(out, "┘\n"), out)
}

func TestDefaultOverride(t *testing.T) {
	reg, err := NewRegistry(outputs(t, "output: {default: {kind: table, style: ascii}}"))
	require.NoError(t, err)

	src, _ := fakeSource(t)
	var buf bytes.Buffer
	require.NoError(t, reg.Render(context.Background(), "races", src, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "+"), buf.String())
}

func TestTableOptions(t *testing.T) {
	reg, err := NewRegistry(outputs(t, `
output:
  races: {kind: table, format: csv, headers: {Name_lang: Race}}
  sparse: {kind: table, style: rounded}
`))
	require.NoError(t, err)
	src, _ := fakeSource(t)

	var buf bytes.Buffer
	require.NoError(t, reg.Render(context.Background(), "races", src, &buf))
	assert.Equal(t, "ID,Race\n1,Human\n2,Orc\n", buf.String())

	buf.Reset()
	require.NoError(t, reg.Render(context.Background(), "sparse", src, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "╭"), buf.String())
	assert.Contains(t, buf.String(), "NULL")
}

func TestRegistryErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "output: {o: {kind: xml}}"},
		{"missing kind", "output: {o: {style: box}}"},
		{"unknown table option", "output: {o: {kind: table, tablefmt: presto}}"},
		{"unknown style", "output: {o: {kind: table, style: fancy}}"},
		{"unknown format", "output: {o: {kind: table, format: pdf}}"},
		{"template missing", "output: {o: {kind: template}}"},
		{"template syntax", "output: {o: {kind: template, template: '{{ .x '}}"},
		{"jinja syntax", "output: {o: {kind: jinja, template: '{% for %}'}}"},
		{"datasette without url", "output: {o: {kind: datasette}}"},
		{"bad default", "output: {default: {kind: nope}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(outputs(t, tt.doc))
			require.Error(t, err)
			assert.True(t, wdberrors.IsConfigError(err), err.Error())
		})
	}
}

func TestTemplateOutput(t *testing.T) {
	golden := testutil.NewGoldenHelper(t, "testdata/golden")
	reg, err := NewRegistry(outputs(t, `
output:
  report:
    kind: template
    dependencies: [races]
    template: "{{range .races}}{{.ID}}: {{.Name_lang}}\n{{end}}"
`))
	require.NoError(t, err)
	src, asked := fakeSource(t)

	var buf bytes.Buffer
	require.NoError(t, reg.Render(context.Background(), "report", src, &buf))
	golden.AssertGoldenString("template_races", buf.String())
	assert.Equal(t, []string{"races"}, *asked)
}

func TestTemplateDefaultsToOwnName(t *testing.T) {
	renderer, err := Create("races", map[string]any{"kind": KindTemplate, "template": "{{len .races}}"})
	require.NoError(t, err)
	src, asked := fakeSource(t)

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(context.Background(), src, &buf))
	assert.Equal(t, "2\n", buf.String())
	assert.Equal(t, []string{"races"}, *asked)
}

func TestJinjaOutput(t *testing.T) {
	golden := testutil.NewGoldenHelper(t, "testdata/golden")
	reg, err := NewRegistry(outputs(t, `
output:
  summary:
    kind: jinja
    dependencies: [races]
    template: "Races: {% for r in races %}{{ r.ID }}={{ r.Name_lang }};{% endfor %}"
`))
	require.NoError(t, err)
	src, _ := fakeSource(t)

	var buf bytes.Buffer
	require.NoError(t, reg.Render(context.Background(), "summary", src, &buf))
	golden.AssertGoldenString("jinja_races", buf.String())
}

func TestBoundRenderersBindExactly(t *testing.T) {
	src, asked := fakeSource(t)

	banner, err := NewBoundJinja("banner", "hello", Bindings{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, banner.Render(context.Background(), src, &buf))
	assert.Equal(t, "hello", buf.String())
	assert.Empty(t, *asked)

	count, err := NewBoundTemplate("count", "{{len .races}}/{{len .sparse}}", Bindings{Names: []string{"races", "sparse"}})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, count.Render(context.Background(), src, &buf))
	assert.Equal(t, "2/1", buf.String())
	assert.Equal(t, []string{"races", "sparse"}, *asked)

	_, err = NewBoundTemplate("empty", "", Bindings{})
	assert.True(t, wdberrors.IsConfigError(err))
}

func TestRenderPropagatesSourceErrors(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	src, _ := fakeSource(t)

	err = reg.Render(context.Background(), "Missing", src, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, wdberrors.IsNotFoundError(err))
}

func TestDatasetteOutput(t *testing.T) {
	var gotPath string
	var gotRows struct {
		Rows []map[string]any `json:"rows"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotRows); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	reg, err := NewRegistry(outputs(t, "output: {races: {kind: datasette, url: '"+ts.URL+"', token: secret}}"),
		WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	src, _ := fakeSource(t)

	var buf bytes.Buffer
	require.NoError(t, reg.Render(context.Background(), "races", src, &buf))
	assert.Equal(t, "Inserted 2 rows into wowdb/races\n", buf.String())
	assert.Equal(t, "/-/insert/wowdb/races", gotPath)
	require.Len(t, gotRows.Rows, 2)
	assert.Equal(t, "Orc", gotRows.Rows[1]["Name_lang"])
}

func TestSourceFunc(t *testing.T) {
	boom := errors.New("boom")
	src := SourceFunc(func(context.Context, string) (*storage.Result, error) { return nil, boom })
	_, err := src.Query(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
