package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/storenav/storenav/internal/engine"
	"github.com/storenav/storenav/internal/storage"
	"github.com/storenav/storenav/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeSweepInProgress = -32002 // A workspace sweep is already running
)

// handleFindReferences handles the find_references tool invocation
func (s *Server) handleFindReferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	file, err := requireFileArg(args, "file")
	if err != nil {
		return nil, err
	}
	name, err := requireStringArg(args, "name")
	if err != nil {
		return nil, err
	}

	scope := "workspace"
	if val, ok := args["scope"].(string); ok && val != "" {
		scope = val
	}

	switch scope {
	case "workspace":
		resp := s.engine.References(ctx, file, name)
		response := map[string]interface{}{
			"references":    formatLocations(resp.Results),
			"count":         len(resp.Results),
			"files_scanned": resp.FilesScanned,
			"cancelled":     resp.Cancelled,
			"duration_ms":   resp.Duration.Milliseconds(),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil

	case "file":
		refs := s.engine.ReferencesFromComponent(file, name)
		response := map[string]interface{}{
			"references": formatLocations(refs),
			"count":      len(refs),
		}
		return mcp.NewToolResultText(formatJSON(response)), nil

	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid scope", map[string]interface{}{
			"param":   "scope",
			"value":   scope,
			"allowed": []string{"workspace", "file"},
		})
	}
}

// handleGoToDefinition handles the go_to_definition tool invocation
func (s *Server) handleGoToDefinition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	file, err := requireFileArg(args, "file")
	if err != nil {
		return nil, err
	}
	name, err := requireStringArg(args, "name")
	if err != nil {
		return nil, err
	}

	defs := s.engine.Definitions(file, name)

	response := map[string]interface{}{
		"definitions": formatLocations(defs),
		"count":       len(defs),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSyncBuffer handles the sync_buffer tool invocation
func (s *Server) handleSyncBuffer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	file, err := requireFileArg(args, "file")
	if err != nil {
		return nil, err
	}

	// An absent text parameter closes the buffer and falls back to disk
	text, ok := args["text"].(string)
	if !ok {
		s.engine.SyncBuffer(file, nil)
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"file": file,
			"open": false,
		})), nil
	}

	s.engine.SyncBuffer(file, &text)
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"file": file,
		"open": true,
	})), nil
}

// handleIndexWorkspace handles the index_workspace tool invocation
func (s *Server) handleIndexWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := false
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		force, _ = args["force"].(bool)

		// The server is bound to one workspace; a different root is a
		// client mistake, not a request to switch
		if root, ok := args["root"].(string); ok && root != "" && filepath.Clean(root) != s.root {
			return nil, newMCPError(ErrorCodeInvalidParams, "root does not match the served workspace", map[string]interface{}{
				"param":     "root",
				"value":     root,
				"workspace": s.root,
			})
		}
	}

	stats, err := s.engine.SweepWorkspace(ctx, force)
	if errors.Is(err, engine.ErrSweepInProgress) {
		return nil, newMCPError(ErrorCodeSweepInProgress, "a workspace sweep is already running", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "workspace sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"store_files_indexed":  stats.StoreFilesIndexed,
		"store_files_restored": stats.StoreFilesRestored,
		"store_files_failed":   stats.StoreFilesFailed,
		"store_names":          stats.StoreNames,
		"duration_ms":          stats.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.engine.Status()

	response := map[string]interface{}{
		"workspace":         s.root,
		"store_files":       st.StoreFiles,
		"store_names":       st.StoreNames,
		"open_buffers":      st.OpenBuffers,
		"cached_snapshots":  st.CachedSnapshots,
		"pending_reindexes": st.PendingReindexes,
		"snapshot_enabled":  s.storage != nil,
		"build_mode":        storage.BuildMode,
		"sqlite_driver":     storage.DriverName,
	}
	if !st.LastSweptAt.IsZero() {
		response["last_swept_at"] = st.LastSweptAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requireStringArg extracts a required non-empty string parameter
func requireStringArg(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// requireFileArg extracts a required absolute file path parameter
func requireFileArg(args map[string]interface{}, key string) (string, error) {
	val, err := requireStringArg(args, key)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(val) {
		return "", newMCPError(ErrorCodeInvalidParams, key+" must be an absolute path", map[string]interface{}{
			"param": key,
			"value": val,
		})
	}
	return val, nil
}

// formatLocations converts locations into the wire representation
func formatLocations(locs []types.Location) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(locs))
	for _, loc := range locs {
		out = append(out, map[string]interface{}{
			"file":       loc.Path,
			"line":       loc.Start.Line,
			"column":     loc.Start.Column,
			"end_line":   loc.End.Line,
			"end_column": loc.End.Column,
			"kind":       string(loc.Kind),
		})
	}
	return out
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
