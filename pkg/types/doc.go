// Package types provides shared type definitions for the storenav MCP server.
//
// This package defines the domain types passed between the indexing engine,
// the reference search engine, and the MCP adapter.
//
// # Core Types
//
// Location references a source span together with the way it refers to a
// store name:
//
//	loc := types.Location{
//	    Path:  "/ws/src/counter.store.ts",
//	    Start: types.Position{Line: 3, Column: 14},
//	    End:   types.Position{Line: 3, Column: 19},
//	    Kind:  types.RefDefinition,
//	}
//
// Positions are 1-based for both lines and columns; columns count bytes.
//
// # Deduplication
//
// Reference results are deduplicated by (file, line, column) via
// Location.Key, which makes aggregation order independent:
//
//	refs = types.DedupLocations(refs)
//
// An import occurrence that coincides with an access occurrence is reported
// exactly once.
package types
