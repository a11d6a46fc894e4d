// Package storage persists the store definition index snapshot in SQLite.
//
// The snapshot exists so a restarted server can answer queries without
// waiting for a full workspace sweep: the sweep validates each tracked store
// file by content hash and reindexes only the files that changed. The
// in-memory index is always authoritative; snapshot write failures degrade
// to logging and never fail a reindex.
//
// # Schema
//
// Three tables, cascading deletes downward:
//
//	workspaces     one row per indexed workspace root
//	store_files    tracked store files with a SHA-256 content hash
//	store_exports  exported store names per file
//
// # Drivers
//
// Two SQLite drivers are selected by build tags:
//
//	CGO_ENABLED=1 go build ./...              github.com/mattn/go-sqlite3
//	CGO_ENABLED=0 go build -tags purego ./... modernc.org/sqlite
//
// The pure Go driver needs no C toolchain and is the default for
// cross-compilation; the cgo driver is faster.
package storage
