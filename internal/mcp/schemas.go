package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// findReferencesTool returns the tool definition for find_references
func findReferencesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_references",
		Description: "Find every reference to a store variable across the workspace: its export declaration, verified import-clause occurrences, and this.<name> accesses",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the file the query originates from (a store file or a consumer)",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Store variable name or local import alias at the query position",
				},
				"scope": map[string]interface{}{
					"type":        "string",
					"description": "workspace scans every candidate file; file reports only the querying file's own accesses plus the definitions",
					"enum":        []string{"workspace", "file"},
					"default":     "workspace",
				},
			},
			Required: []string{"file", "name"},
		},
	}
}

// goToDefinitionTool returns the tool definition for go_to_definition
func goToDefinitionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "go_to_definition",
		Description: "Resolve a store variable name or import alias to its export declaration in the backing store file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the file the query originates from",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Store variable name or local import alias",
				},
			},
			Required: []string{"file", "name"},
		},
	}
}

// syncBufferTool returns the tool definition for sync_buffer
func syncBufferTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sync_buffer",
		Description: "Overlay live editor buffer content for a file so queries see unsaved edits; close the buffer to fall back to disk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of the file",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Full buffer content; omit to close the buffer and read from disk again",
				},
			},
			Required: []string{"file"},
		},
	}
}

// indexWorkspaceTool returns the tool definition for index_workspace
func indexWorkspaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_workspace",
		Description: "Sweep the workspace and bring the store definition index up to date",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"root": map[string]interface{}{
					"type":        "string",
					"description": "Workspace root; must match the root the server was started with",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, reindex every store file ignoring snapshot hashes",
					"default":     false,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query current index statistics: store files, store names, open buffers, and pending reindexes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
