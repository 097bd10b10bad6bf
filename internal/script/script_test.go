package script

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nan-gameware/wowdb/internal/config"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/fetch"
	"github.com/nan-gameware/wowdb/internal/testutil"
)

const racesCSV = "ID,Name,Faction\n1,Human,1\n2,Orc,2\n3,Dwarf,1\n"

type fixture struct {
	srv    *testutil.ExportServer
	env    *testutil.TestEnv
	stdout *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		srv:    testutil.NewExportServer(t),
		env:    testutil.NewTestEnv(t),
		stdout: &bytes.Buffer{},
	}
	f.srv.AddTable("ChrRaces", racesCSV)
	f.srv.AddTable("Map", "ID,Directory,MapType\n0,Azeroth,1\n1,Kalimdor,1\n")
	return f
}

func (f *fixture) run(t *testing.T, doc string) error {
	t.Helper()
	s, err := config.ParseScript([]byte(doc))
	require.NoError(t, err)
	return Run(context.Background(), s, Options{
		Path:    f.env.Path("cache"),
		Fetcher: fetch.NewClient(fetch.WithBaseURL(f.srv.URL())),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout:  f.stdout,
	})
}

func TestRunRendersOutputsInOrder(t *testing.T) {
	f := newFixture(t)
	tableFile := f.env.Path("alliance.txt")

	err := f.run(t, fmt.Sprintf(`
db:
  build: 9.2.0.45335
  tables:
    - ChrRaces
queries:
  alliance:
    sql: select ID, Name from ChrRaces where Faction = ? order by ID
    params: [1]
  total:
    sql: select count(*) as n from ChrRaces
output:
  jinja:
    format: jinja2
    template: "{%% for r in alliance %%}{{ r.ID }}={{ r.Name }};{%% endfor %%}\n"
  names:
    format: template
    template: "{{range $i, $r := .alliance}}{{if $i}},{{end}}{{$r.Name}}{{end}} ({{index .total 0 \"n\"}})\n"
  alliance:
    format: table
    style: ascii
    file: %s
`, tableFile))
	require.NoError(t, err)

	assert.Equal(t, "1=Human;3=Dwarf;\nHuman,Dwarf (3)\n", f.stdout.String())

	table := f.env.ReadFileString("alliance.txt")
	assert.Contains(t, table, "Human")
	assert.Contains(t, table, "Dwarf")
	assert.NotContains(t, table, "Orc")
}

func TestRunLoadsDeclaredTablesWithOptions(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db:
  build: 9.2.0.45335
  tables:
    - ChrRaces
    - table: Map
      usecols: [ID, Directory]
queries:
  maps:
    sql: select * from Map order by ID
output:
  maps:
    format: template
    template: "{{range .maps}}{{len .}}:{{.Directory}} {{end}}\n"
`)
	require.NoError(t, err)

	assert.Equal(t, 1, f.srv.Hits("ChrRaces"))
	assert.Equal(t, 1, f.srv.Hits("Map"))
	assert.Equal(t, "2:Azeroth 2:Kalimdor \n", f.stdout.String())
}

func TestRunUsesDeclaredBuildAndLocale(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db:
  build: 8.3.0.34220
  locale: de_DE
  tables: [ChrRaces]
queries: {}
output: {}
`)
	require.NoError(t, err)

	reqs := f.srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "8.3.0.34220", reqs[0].Get("build"))
	assert.Equal(t, "deDE", reqs[0].Get("locale"))
}

func TestRunFileOutputTruncates(t *testing.T) {
	f := newFixture(t)
	f.env.WriteFileString("out.txt", "stale content that is longer than the result\n")

	err := f.run(t, fmt.Sprintf(`
db: {build: 9.2.0.45335}
queries:
  one: {sql: select 1 as n}
output:
  one:
    format: template
    template: "{{range .one}}{{.n}}{{end}}"
    file: %s
`, f.env.Path("out.txt")))
	require.NoError(t, err)

	assert.Equal(t, "1", f.env.ReadFileString("out.txt"))
	assert.Empty(t, f.stdout.String())
}

func TestRunWithoutQueries(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db: {build: 9.2.0.45335}
queries: {}
output:
  banner: {format: jinja2, template: hello}
  footer: {format: template, template: " world"}
`)
	require.NoError(t, err)
	assert.Equal(t, "hello world", f.stdout.String())
}

func TestRunTemplateErrorBeforeFetch(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db: {build: 9.2.0.45335, tables: [ChrRaces]}
queries:
  races: {sql: select * from ChrRaces}
output:
  races:
    format: template
    template: "{{range .races}"
`)
	require.Error(t, err)
	assert.True(t, wdberrors.IsConfigError(err))
	assert.Equal(t, 0, f.srv.Hits("ChrRaces"))
}

func TestRunQueryError(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db: {build: 9.2.0.45335}
queries:
  broken: {sql: select * from nowhere}
output: {}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query broken")
}

func TestRunInvalidBuild(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db: {build: latest}
queries: {}
output: {}
`)
	require.Error(t, err)
	assert.True(t, wdberrors.IsConfigError(err))
}

func TestRunMissingTable(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, `
db: {build: 9.2.0.45335, tables: [Nope]}
queries: {}
output: {}
`)
	require.Error(t, err)
	assert.True(t, wdberrors.IsNotFoundError(err))
}
