package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/lepinkainen/humanlog"

	"github.com/nan-gameware/wowdb/cmd/mcp"
	"github.com/nan-gameware/wowdb/cmd/query"
	"github.com/nan-gameware/wowdb/cmd/script"
	"github.com/nan-gameware/wowdb/internal/cmdutil"
	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/metrics"
)

var (
	runQuery  = query.Run
	runScript = script.Run
	runMCP    = mcp.Run
)

// CLI represents the complete command structure for the wowdb application
type CLI struct {
	// Global flags
	Debug       bool   `short:"d" help:"Enable debug output"`
	MetricsFile string `help:"Write Prometheus metrics to this file after the run" type:"path"`

	Query  QueryCmd  `cmd:"" help:"Query one table or view"`
	Script ScriptCmd `cmd:"" help:"Run a declarative load/query/render script"`
	MCP    MCPCmd    `cmd:"" name:"mcp" help:"Serve tables and views to MCP clients over stdio"`
}

// QueryCmd represents the query command
type QueryCmd struct {
	Config string `short:"c" help:"Configuration file location" type:"existingfile" required:""`
	Output string `short:"o" help:"Output to a file ('-' for stdout)" default:"-"`
	Object string `arg:"" optional:"" help:"Name of the object to query; omitted opens a picker"`
}

// ScriptCmd represents the script command
type ScriptCmd struct {
	File string `arg:"" help:"Script file" type:"existingfile"`
}

// MCPCmd represents the mcp command
type MCPCmd struct {
	Config string `short:"c" help:"Configuration file location" type:"existingfile" required:""`
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("wowdb"),
		kong.Description("Query World of Warcraft client database exports."),
		kong.UsageOnError(),
	}, opts...)
	return kong.New(cli, opts...)
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, kctx, &cli, os.Stdout, os.Stderr); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, kctx *kong.Context, cli *CLI, stdout, stderr io.Writer) error {
	rt, err := setup(cli, stdout, stderr)
	if err != nil {
		return err
	}
	kctx.BindTo(ctx, (*context.Context)(nil))
	runErr := kctx.Run(rt)
	if cli.MetricsFile != "" {
		if err := rt.Metrics.WriteTextfile(cli.MetricsFile); err != nil {
			rt.Logger.Error("Failed to write metrics", "path", cli.MetricsFile, "error", err)
		}
	}
	return runErr
}

func setup(cli *CLI, stdout, stderr io.Writer) (*cmdutil.Runtime, error) {
	if err := config.InitSettings(); err != nil {
		return nil, err
	}
	if cli.Debug {
		config.SetLogLevel("debug")
	}
	level, err := cmdutil.ParseLevel(config.LogLevel())
	if err != nil {
		return nil, fmt.Errorf("invalid log.level setting: %w", err)
	}

	// stdout carries rendered output, so logs go to stderr
	handler := humanlog.NewHandler(stderr, &humanlog.Options{
		Level: level,
	})
	logger := slog.New(handler).With("run", runID())
	slog.SetDefault(logger)

	return &cmdutil.Runtime{
		Logger:  logger,
		Metrics: metrics.New(),
		Stdout:  stdout,
	}, nil
}

func runID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Run methods for each command

func (q *QueryCmd) Run(ctx context.Context, rt *cmdutil.Runtime) error {
	return runQuery(ctx, query.Options{
		ConfigFile: q.Config,
		OutputFile: q.Output,
		Object:     q.Object,
	}, rt)
}

func (s *ScriptCmd) Run(ctx context.Context, rt *cmdutil.Runtime) error {
	return runScript(ctx, s.File, rt)
}

func (m *MCPCmd) Run(ctx context.Context, rt *cmdutil.Runtime) error {
	return runMCP(ctx, m.Config, rt)
}
