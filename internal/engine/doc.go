// Package engine wires the store navigation components into one long-lived
// object: the text cache, the store definition index, the import resolution
// index, the debounce scheduler, and the reference search engine.
//
// The engine owns the event surface. Host notifications (file saved, changed,
// removed, buffer synced) invalidate cached text; a store file whose observed
// content actually changed gets a debounced reindex so edit bursts coalesce
// into one rescan. Queries (definitions, references, status) read the current
// in-memory index, which stays authoritative at all times.
//
// An optional SQLite snapshot records each store file's exported names and a
// content hash. On the next sweep, files whose hash still matches are restored
// from the snapshot without rescanning, so a restart over a large unchanged
// workspace is cheap.
package engine
