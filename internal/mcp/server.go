// Package mcp exposes the configured schema as MCP tools over stdio.
package mcp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/nan-gameware/wowdb/internal/schema"
)

const (
	// ServerName is the MCP server name
	ServerName = "wowdb"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server answers tool calls against one open store. Calls are handled one
// at a time because the store is not safe for concurrent use.
type Server struct {
	mcp    *server.MCPServer
	schema *schema.Schema
	store  schema.Store
	logger *slog.Logger

	mu sync.Mutex
}

// NewServer registers the wowdb tools. store must stay open while the server runs.
func NewServer(s *schema.Schema, store schema.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		mcp:    server.NewMCPServer(ServerName, ServerVersion),
		schema: s,
		store:  store,
		logger: logger,
	}
	srv.registerTools()
	return srv
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(_ context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(listObjectsTool(), s.handleListObjects)
	s.mcp.AddTool(queryObjectTool(), s.handleQueryObject)
}
