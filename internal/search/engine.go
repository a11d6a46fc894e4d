package search

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/storenav/storenav/internal/imports"
	"github.com/storenav/storenav/internal/index"
	"github.com/storenav/storenav/internal/scanner"
	"github.com/storenav/storenav/pkg/types"
)

// TextProvider supplies last known file text, absent on read failure
type TextProvider interface {
	GetText(path string) (string, bool)
}

// FileEnumerator lists candidate workspace files
type FileEnumerator interface {
	EnumerateFiles(ctx context.Context) ([]string, error)
}

// Response contains reference search results and scan metadata
type Response struct {
	Results      []types.Location
	FilesScanned int
	Cancelled    bool
	Duration     time.Duration
}

// Engine composes the text cache, definition index, and import resolution
// index to answer reference queries
type Engine struct {
	texts    TextProvider
	files    FileEnumerator
	index    *index.Index
	resolver *imports.Resolver
	scan     *scanner.Scanner
}

// New creates a reference search engine over the given collaborators
func New(texts TextProvider, files FileEnumerator, ix *index.Index, resolver *imports.Resolver) *Engine {
	return &Engine{
		texts:    texts,
		files:    files,
		index:    ix,
		resolver: resolver,
		scan:     scanner.New(),
	}
}

// FindReferencesToStore returns every definition of storeName in storeFile
// plus, for every other workspace file verifiably importing storeName from
// storeFile, the occurrence inside the import clause and every
// this.<storeName> access in that file. Results are deduplicated by
// (file, line, column).
//
// The scan iterates candidate files sequentially and checks the cancellation
// signal between files; on cancellation the partial result accumulated so
// far is returned with Cancelled set, never an error.
func (e *Engine) FindReferencesToStore(ctx context.Context, storeFile, storeName string) *Response {
	start := time.Now()
	resp := &Response{}

	if text, ok := e.texts.GetText(storeFile); ok {
		resp.Results = append(resp.Results, e.index.FindDefinitions(storeFile, text, storeName)...)
	}

	// The import check is textual on purpose: the store file's base name
	// (extension stripped) must appear in the module specifier and the store
	// name must appear in that import's name list.
	base := strings.TrimSuffix(filepath.Base(storeFile), filepath.Ext(storeFile))

	candidates, err := e.files.EnumerateFiles(ctx)
	if err != nil {
		// Enumeration cut short still yields whatever was gathered
		resp.Cancelled = ctx.Err() != nil
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			resp.Cancelled = true
			break
		}
		if candidate == storeFile {
			continue
		}

		e.scanCandidate(candidate, base, storeName, resp)
		resp.FilesScanned++
	}

	resp.Results = types.DedupLocations(resp.Results)
	resp.Duration = time.Since(start)
	return resp
}

// scanCandidate appends the candidate file's import-clause and access
// occurrences when it verifiably imports storeName from the store file
func (e *Engine) scanCandidate(candidate, base, storeName string, resp *Response) {
	text, ok := e.texts.GetText(candidate)
	if !ok {
		return
	}

	qualified := false
	for _, decl := range e.scan.ScanImports(candidate, text) {
		if !strings.Contains(decl.Specifier, base) {
			continue
		}
		for _, name := range decl.Names {
			if name.Name == storeName {
				resp.Results = append(resp.Results, name.Loc)
				qualified = true
			}
		}
	}
	if !qualified {
		return
	}

	resp.Results = append(resp.Results, e.scan.ScanAccesses(candidate, text, storeName)...)
}

// FindReferencesFromComponent resolves storeName through the component
// file's import bindings and returns the store's definitions plus only the
// component's own this.<storeName> accesses. The query is local; it never
// rescans the workspace. An unresolvable name yields an empty result.
func (e *Engine) FindReferencesFromComponent(componentFile, storeName string) []types.Location {
	storeFile, ok := e.resolver.Resolve(componentFile, storeName)
	if !ok {
		return nil
	}

	var results []types.Location
	if text, ok := e.texts.GetText(storeFile); ok {
		results = append(results, e.index.FindDefinitions(storeFile, text, storeName)...)
	}
	if text, ok := e.texts.GetText(componentFile); ok {
		results = append(results, e.scan.ScanAccesses(componentFile, text, storeName)...)
	}

	return types.DedupLocations(results)
}

// Definitions returns the export-declaration spans of storeName in the given
// file, used by the go-to-definition provider
func (e *Engine) Definitions(storeFile, storeName string) []types.Location {
	text, ok := e.texts.GetText(storeFile)
	if !ok {
		return nil
	}
	return e.index.FindDefinitions(storeFile, text, storeName)
}
