package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/nan-gameware/wowdb/cmd/query"
	"github.com/nan-gameware/wowdb/internal/cmdutil"
	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/metrics"
	"github.com/nan-gameware/wowdb/internal/testutil"
)

func resetCmdState(t *testing.T) string {
	t.Helper()
	testutil.ResetSettings(t)

	origLogger := slog.Default()
	origQuery, origScript, origMCP := runQuery, runScript, runMCP
	t.Cleanup(func() {
		slog.SetDefault(origLogger)
		runQuery, runScript, runMCP = origQuery, origScript, origMCP
	})

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	if err := os.WriteFile(filepath.Join(dir, "wowdb-query.yaml"), []byte("storage: {version: 9.2.0.45335}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context, error) {
	t.Helper()

	cli := &CLI{}
	parser, err := newParser(cli, kong.Exit(func(code int) {
		t.Fatalf("unexpected Kong exit %d", code)
	}))
	assert.NoError(t, err)
	kctx, err := parser.Parse(args)
	return cli, kctx, err
}

func TestQueryCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, kctx, err := parseCLI(t, "-d", "query", "-c", "wowdb-query.yaml", "-o", "out.txt", "ChrRaces")
	assert.NoError(t, err)
	assert.NotZero(t, kctx)
	assert.True(t, cli.Debug)
	assert.Equal(t, "ChrRaces", cli.Query.Object)
	assert.Equal(t, "out.txt", cli.Query.Output)
	assert.Equal(t, "wowdb-query.yaml", filepath.Base(cli.Query.Config))
}

func TestQueryCommandDefaults(t *testing.T) {
	resetCmdState(t)

	cli, _, err := parseCLI(t, "query", "--config", "wowdb-query.yaml")
	assert.NoError(t, err)
	assert.False(t, cli.Debug)
	assert.Equal(t, "-", cli.Query.Output)
	assert.Equal(t, "", cli.Query.Object)
	assert.Equal(t, "", cli.MetricsFile)
}

func TestCommandsRequireArguments(t *testing.T) {
	resetCmdState(t)

	tests := []struct {
		name string
		args []string
	}{
		{"query without config", []string{"query", "ChrRaces"}},
		{"query with missing config", []string{"query", "-c", "nope.yaml", "ChrRaces"}},
		{"script without file", []string{"script"}},
		{"mcp without config", []string{"mcp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRunDispatchesQuery(t *testing.T) {
	resetCmdState(t)

	var got query.Options
	var gotRuntime *cmdutil.Runtime
	runQuery = func(ctx context.Context, opts query.Options, rt *cmdutil.Runtime) error {
		assert.NotZero(t, ctx)
		got = opts
		gotRuntime = rt
		return nil
	}

	cli, kctx, err := parseCLI(t, "query", "-c", "wowdb-query.yaml", "Map")
	assert.NoError(t, err)

	var stdout, stderr bytes.Buffer
	assert.NoError(t, run(context.Background(), kctx, cli, &stdout, &stderr))

	assert.Equal(t, "Map", got.Object)
	assert.Equal(t, "-", got.OutputFile)
	assert.Equal(t, cli.Query.Config, got.ConfigFile)
	assert.NotZero(t, gotRuntime)
	assert.True(t, gotRuntime.Stdout == io.Writer(&stdout))
	assert.NotZero(t, gotRuntime.Metrics)
}

func TestRunDispatchesScriptAndMCP(t *testing.T) {
	dir := resetCmdState(t)

	var calls []string
	runScript = func(_ context.Context, path string, _ *cmdutil.Runtime) error {
		calls = append(calls, "script "+filepath.Base(path))
		return nil
	}
	runMCP = func(_ context.Context, path string, _ *cmdutil.Runtime) error {
		calls = append(calls, "mcp "+filepath.Base(path))
		return nil
	}

	for _, args := range [][]string{
		{"script", filepath.Join(dir, "wowdb-query.yaml")},
		{"mcp", "-c", "wowdb-query.yaml"},
	} {
		cli, kctx, err := parseCLI(t, args...)
		assert.NoError(t, err)
		assert.NoError(t, run(context.Background(), kctx, cli, &bytes.Buffer{}, &bytes.Buffer{}))
	}
	assert.Equal(t, []string{"script wowdb-query.yaml", "mcp wowdb-query.yaml"}, calls)
}

func TestRunReturnsCommandError(t *testing.T) {
	resetCmdState(t)

	boom := errors.New("boom")
	runQuery = func(context.Context, query.Options, *cmdutil.Runtime) error { return boom }

	cli, kctx, err := parseCLI(t, "query", "-c", "wowdb-query.yaml", "Map")
	assert.NoError(t, err)
	assert.IsError(t, run(context.Background(), kctx, cli, &bytes.Buffer{}, &bytes.Buffer{}), boom)
}

func TestDebugFlagLogsToStderr(t *testing.T) {
	resetCmdState(t)

	runQuery = func(_ context.Context, _ query.Options, rt *cmdutil.Runtime) error {
		rt.Logger.Debug("debug message")
		return nil
	}

	cli, kctx, err := parseCLI(t, "--debug", "query", "-c", "wowdb-query.yaml", "Map")
	assert.NoError(t, err)

	var stdout, stderr bytes.Buffer
	assert.NoError(t, run(context.Background(), kctx, cli, &stdout, &stderr))
	assert.Equal(t, "debug", config.LogLevel())
	assert.Contains(t, stderr.String(), "debug message")
	assert.Equal(t, "", stdout.String())
}

func TestDefaultLevelHidesDebug(t *testing.T) {
	resetCmdState(t)

	runQuery = func(_ context.Context, _ query.Options, rt *cmdutil.Runtime) error {
		rt.Logger.Debug("debug message")
		return nil
	}

	cli, kctx, err := parseCLI(t, "query", "-c", "wowdb-query.yaml", "Map")
	assert.NoError(t, err)

	var stderr bytes.Buffer
	assert.NoError(t, run(context.Background(), kctx, cli, &bytes.Buffer{}, &stderr))
	assert.NotContains(t, stderr.String(), "debug message")
}

func TestMetricsFileWrittenAfterRun(t *testing.T) {
	dir := resetCmdState(t)

	runQuery = func(_ context.Context, _ query.Options, rt *cmdutil.Runtime) error {
		rt.Metrics.Fetch(metrics.FetchDownloaded)
		return errors.New("fails after fetching")
	}

	cli, kctx, err := parseCLI(t, "--metrics-file", "wowdb.prom", "query", "-c", "wowdb-query.yaml", "Map")
	assert.NoError(t, err)
	assert.Error(t, run(context.Background(), kctx, cli, &bytes.Buffer{}, &bytes.Buffer{}))

	data, err := os.ReadFile(filepath.Join(dir, "wowdb.prom"))
	assert.NoError(t, err)
	assert.Contains(t, string(data), `wowdb_fetch_total{outcome="downloaded"} 1`)
}
