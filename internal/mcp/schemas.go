package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func listObjectsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_objects",
		Description: "List the tables and views declared in the wowdb configuration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func queryObjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_object",
		Description: "Resolve a table or view for the configured build and return its rows",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"object": map[string]interface{}{
					"type":        "string",
					"description": "Table or view name, e.g. ChrRaces",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of rows to return (0 for all)",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"object"},
		},
	}
}
