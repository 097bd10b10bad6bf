package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nan-gameware/wowdb/internal/ident"
)

type objectInfo struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	Dependencies []string `json:"dependencies,omitempty"`
	SQL          string   `json:"sql,omitempty"`
}

type queryResponse struct {
	Object    string           `json:"object"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	Total     int              `json:"total"`
	Truncated bool             `json:"truncated,omitempty"`
}

func (s *Server) handleListObjects(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects := []objectInfo{}
	for _, name := range s.schema.Names() {
		d := s.schema.Describe(name)
		objects = append(objects, objectInfo{Name: d.Name, Kind: string(d.Kind), Dependencies: d.Dependencies, SQL: d.SQL})
	}
	return mcp.NewToolResultText(formatJSON(map[string]any{"objects": objects})), nil
}

func (s *Server) handleQueryObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}
	name, _ := args["object"].(string)
	if !ident.Valid(name) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid object name: %q", name)), nil
	}
	limit := 0
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Querying object", "object", name, "kind", s.schema.Describe(name).Kind)
	res, err := s.schema.Query(ctx, name, s.store)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := queryResponse{
		Object:  name,
		Columns: res.Columns,
		Rows:    make([]map[string]any, 0, len(res.Rows)),
		Total:   res.Len(),
	}
	for i, row := range res.Rows {
		if limit > 0 && i >= limit {
			resp.Truncated = true
			break
		}
		resp.Rows = append(resp.Rows, row)
	}
	return mcp.NewToolResultText(formatJSON(resp)), nil
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
