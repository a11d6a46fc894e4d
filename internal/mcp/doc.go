// Package mcp implements the Model Context Protocol (MCP) server for
// storenav.
//
// The server exposes five tools to MCP-compatible editors and assistants:
//   - find_references: every reference to a store variable across the workspace
//   - go_to_definition: resolve a name or import alias to its export declaration
//   - sync_buffer: overlay live editor content so queries see unsaved edits
//   - index_workspace: sweep the workspace and rebuild the definition index
//   - get_status: current index statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Because stdout carries the protocol, all logging goes to stderr.
//
// # Tool: find_references
//
//	Request:
//	{
//	  "name": "find_references",
//	  "arguments": {
//	    "file": "/ws/src/widget.ts",
//	    "name": "count"
//	  }
//	}
//
//	Response:
//	{
//	  "references": [
//	    {"file": "/ws/src/counter.store.ts", "line": 3, "column": 14, "kind": "definition"},
//	    {"file": "/ws/src/widget.ts", "line": 1, "column": 10, "kind": "import"},
//	    {"file": "/ws/src/widget.ts", "line": 5, "column": 17, "kind": "access"}
//	  ],
//	  "count": 3,
//	  "files_scanned": 12,
//	  "cancelled": false
//	}
//
// A query from a consumer file first resolves the name through the file's
// import bindings; an unresolvable name yields an empty result, never an
// error. A cancelled scan returns the partial result with cancelled set.
//
// # Tool: sync_buffer
//
// Editors push full buffer content on change so navigation works against
// unsaved edits. Passing close instead of text drops the overlay:
//
//	{"name": "sync_buffer", "arguments": {"file": "/ws/src/widget.ts", "close": true}}
package mcp
