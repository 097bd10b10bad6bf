package schema

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/csvload"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
	"github.com/nan-gameware/wowdb/internal/fetch"
	"github.com/nan-gameware/wowdb/internal/storage"
	"github.com/nan-gameware/wowdb/internal/testutil"
)

// recordingStore logs every call instead of touching a database.
type recordingStore struct {
	calls []string
	fail  map[string]error
}

func (r *recordingStore) Load(_ context.Context, table string, _ csvload.Options) (bool, error) {
	r.calls = append(r.calls, "load "+table)
	return true, r.fail[table]
}

func (r *recordingStore) Materialize(_ context.Context, view, _ string, _ config.Params) (bool, error) {
	r.calls = append(r.calls, "materialize "+view)
	return true, r.fail[view]
}

func (r *recordingStore) Query(_ context.Context, sqlOrName string, _ storage.QueryOptions) (*storage.Result, error) {
	r.calls = append(r.calls, "query "+sqlOrName)
	return &storage.Result{}, nil
}

func mustParse(t *testing.T, doc string) *Schema {
	t.Helper()
	cfg, err := config.ParseDocument([]byte(doc))
	require.NoError(t, err)
	s, err := FromConfig(cfg.Schema)
	require.NoError(t, err)
	return s
}

func TestNewRejectsTableAndView(t *testing.T) {
	cfg, err := config.ParseDocument([]byte(`
schema:
  tables: {region: {}, Map: {}}
  views: {region: {query: select 1}}
`))
	require.NoError(t, err)

	_, err = FromConfig(cfg.Schema)
	require.Error(t, err)
	assert.True(t, wdberrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "region")
}

func TestResolveOrder(t *testing.T) {
	s := mustParse(t, `
schema:
  tables:
    a: {}
  views:
    b: {query: select * from a, dependencies: [a]}
    c: {query: select * from a, dependencies: [a, x]}
    d: {query: select * from b join c, dependencies: [b, c]}
`)
	store := &recordingStore{}

	_, err := s.Query(context.Background(), "d", store)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"load a",
		"materialize b",
		"load a",
		"load x",
		"materialize c",
		"query select * from b join c",
	}, store.calls)
}

func TestUndeclaredNameIsTable(t *testing.T) {
	s := mustParse(t, "schema: {}")
	store := &recordingStore{}

	assert.Equal(t, Description{Name: "Map", Kind: KindTable}, s.Describe("Map"))
	assert.Empty(t, s.Names())

	_, err := s.Query(context.Background(), "Map", store)
	require.NoError(t, err)
	assert.Equal(t, []string{"query Map"}, store.calls)
	assert.Equal(t, []string{"Map"}, s.Names())
	assert.Same(t, s.Get("Map"), s.Get("Map"))
}

func TestDependencyCycle(t *testing.T) {
	s := mustParse(t, `
schema:
  views:
    a: {query: select 1, dependencies: [b]}
    b: {query: select 1, dependencies: [c]}
    c: {query: select 1, dependencies: [a]}
`)
	store := &recordingStore{}

	_, err := s.Query(context.Background(), "a", store)
	require.Error(t, err)
	assert.True(t, wdberrors.IsConfigError(err))
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
	assert.Empty(t, store.calls)
}

func TestSelfDependency(t *testing.T) {
	s := mustParse(t, "schema: {views: {a: {query: select 1, dependencies: [a]}}}")
	err := s.Realize(context.Background(), "a", &recordingStore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> a")
}

func TestDependencyFailureStopsResolution(t *testing.T) {
	s := mustParse(t, "schema: {views: {v: {query: select 1, dependencies: [a, b]}}}")
	boom := errors.New("boom")
	store := &recordingStore{fail: map[string]error{"a": boom}}

	_, err := s.Query(context.Background(), "v", store)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"load a"}, store.calls)
}

func TestNamesAndDescribe(t *testing.T) {
	s := mustParse(t, `
schema:
  views:
    v: {query: select 1, dependencies: [t]}
  tables:
    t: {}
`)
	assert.Equal(t, []string{"t", "v"}, s.Names())
	assert.Equal(t, Description{Name: "v", Kind: KindView, Dependencies: []string{"t"}, SQL: "select 1", Declared: true}, s.Describe("v"))
	assert.Equal(t, Description{Name: "t", Kind: KindTable, Declared: true}, s.Describe("t"))
}

func TestBigRegionsScenario(t *testing.T) {
	srv := testutil.NewExportServer(t)
	srv.AddTable("region", "ID,Name,pop\n1,Elwynn,500\n2,Stormwind,2000000\n3,Orgrimmar,1500000\n")
	env := testutil.NewTestEnv(t)

	s := mustParse(t, `
schema:
  tables: {region: {}}
  views:
    big_regions:
      query: select * from region where pop > 1000000
      dependencies: [region]
`)

	store, err := storage.New(storage.Options{
		Version: "9.2.0.45335",
		Path:    env.RootDir(),
		Fetcher: fetch.NewClient(fetch.WithBaseURL(srv.URL())),
		Logger:  slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	err = storage.With(context.Background(), store, func(st *storage.Storage) error {
		res, err := s.Query(context.Background(), "big_regions", st)
		require.NoError(t, err)
		require.Equal(t, 2, res.Len())
		for _, row := range res.Rows {
			assert.Greater(t, row["pop"].(int64), int64(1000000))
		}
		assert.Equal(t, []string{"region"}, st.Objects())

		require.NoError(t, s.Realize(context.Background(), "big_regions", st))
		assert.Equal(t, []string{"region", "big_regions"}, st.Objects())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("region"))
}
