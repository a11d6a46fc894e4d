package imports

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/storenav/storenav/internal/scanner"
)

// TextProvider supplies the last known text of a file, absent on read failure
type TextProvider interface {
	GetText(path string) (string, bool)
}

// Resolver is the import resolution index: per consumer file, a memoized map
// from locally used alias to the absolute path of the store file it resolves
// to. Analysis runs at most once per invalidation cycle; repeated queries hit
// the memo.
type Resolver struct {
	texts       TextProvider
	scan        *scanner.Scanner
	exists      func(path string) bool
	isStoreFile func(path string) bool
	extensions  []string

	mu     sync.Mutex
	byFile map[string]map[string]string // consumer file -> alias -> store file
}

// New creates a resolver. exists probes the disk for extension completion;
// isStoreFile applies the store suffix convention; extensions are tried in
// order when a relative specifier lacks one.
func New(texts TextProvider, exists, isStoreFile func(path string) bool, extensions []string) *Resolver {
	return &Resolver{
		texts:       texts,
		scan:        scanner.New(),
		exists:      exists,
		isStoreFile: isStoreFile,
		extensions:  extensions,
		byFile:      make(map[string]map[string]string),
	}
}

// AnalyzeImports scans the file's cached text for named-import declarations
// and records alias -> store file for every binding whose specifier resolves
// to a store file. The result is memoized until the file is invalidated.
// Bare package specifiers and unresolvable paths are skipped silently.
func (r *Resolver) AnalyzeImports(path string) {
	bindings := make(map[string]string)

	if text, ok := r.texts.GetText(path); ok {
		dir := filepath.Dir(path)
		for _, decl := range r.scan.ScanImports(path, text) {
			resolved, ok := r.resolveSpecifier(dir, decl.Specifier)
			if !ok || !r.isStoreFile(resolved) {
				continue
			}
			for _, name := range decl.Names {
				bindings[name.Alias] = resolved
			}
		}
	}

	r.mu.Lock()
	r.byFile[path] = bindings
	r.mu.Unlock()
}

// EnsureAnalyzed runs AnalyzeImports only when no memoized entry exists for
// the file. Idempotent.
func (r *Resolver) EnsureAnalyzed(path string) {
	r.mu.Lock()
	_, ok := r.byFile[path]
	r.mu.Unlock()

	if !ok {
		r.AnalyzeImports(path)
	}
}

// Resolve returns the store file backing the alias in the consumer file,
// analyzing lazily on first use
func (r *Resolver) Resolve(path, alias string) (string, bool) {
	r.EnsureAnalyzed(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.byFile[path][alias]
	return store, ok
}

// Bindings returns a copy of the file's alias map, analyzing lazily
func (r *Resolver) Bindings(path string) map[string]string {
	r.EnsureAnalyzed(path)

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.byFile[path]))
	for alias, store := range r.byFile[path] {
		out[alias] = store
	}
	return out
}

// Invalidate drops the memoized bindings for the file; the next query
// recomputes them
func (r *Resolver) Invalidate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byFile, path)
}

// Reset drops every memoized entry
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byFile = make(map[string]map[string]string)
}

// resolveSpecifier resolves a module specifier relative to the importing
// file's directory. Only relative specifiers participate; a configured source
// extension is appended when the bare path does not exist but the extended
// one does.
func (r *Resolver) resolveSpecifier(dir, spec string) (string, bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return "", false
	}

	resolved := filepath.Clean(filepath.Join(dir, filepath.FromSlash(spec)))
	if r.exists(resolved) {
		return resolved, true
	}
	for _, ext := range r.extensions {
		if r.exists(resolved + ext) {
			return resolved + ext, true
		}
	}
	return "", false
}
