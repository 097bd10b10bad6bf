// Package mcp implements the mcp command.
package mcp

import (
	"context"
	"log/slog"

	"github.com/nan-gameware/wowdb/internal/cmdutil"
	"github.com/nan-gameware/wowdb/internal/config"
	wdbmcp "github.com/nan-gameware/wowdb/internal/mcp"
	"github.com/nan-gameware/wowdb/internal/schema"
	"github.com/nan-gameware/wowdb/internal/storage"
)

type server interface {
	Serve(ctx context.Context) error
}

var newServer = func(s *schema.Schema, store schema.Store, logger *slog.Logger) server {
	return wdbmcp.NewServer(s, store, logger)
}

// Run serves the objects of the config document over MCP stdio until the
// client disconnects.
func Run(ctx context.Context, configFile string, rt *cmdutil.Runtime) error {
	logger := slog.Default()
	if rt != nil && rt.Logger != nil {
		logger = rt.Logger
	}

	doc, err := config.LoadDocument(configFile)
	if err != nil {
		return err
	}
	s, err := schema.FromConfig(doc.Schema)
	if err != nil {
		return err
	}
	store, err := cmdutil.NewStorage(doc.Storage, rt)
	if err != nil {
		return err
	}

	return storage.With(ctx, store, func(st *storage.Storage) error {
		logger.Info("Starting MCP server", "version", st.Version(), "storage", st.String(), "objects", len(s.Names()))
		return newServer(s, st, logger).Serve(ctx)
	})
}
