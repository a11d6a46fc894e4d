// Package search implements the reference search engine.
//
// The engine composes the text cache, the store definition index, and the
// import resolution index to answer two query shapes:
//
//   - FindReferencesToStore: workspace-wide. Every definition span in the
//     store file, plus for each file verifiably importing the name from that
//     store, the name's occurrence in the import clause and every
//     this.<name> property access.
//   - FindReferencesFromComponent: local. Resolves an alias through the
//     component's import bindings and reports the store's definitions plus
//     the component's own accesses only.
//
// Qualification for the workspace scan is textual: the store file's base
// name (extension stripped) must appear in the import specifier and the
// store name in the clause's name list. A this.<name> occurrence with no
// such verified import in the same file is never reported, which suppresses
// unrelated instance properties that happen to share a store's name.
//
// Results are deduplicated by (file, line, column), so aggregation is order
// independent and an import occurrence coinciding with an access occurrence
// counts once. The workspace scan checks its context between per-file scans
// and exits early with the partial result on cancellation; a cancelled scan
// is not an error.
package search
