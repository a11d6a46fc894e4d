package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/storenav/storenav/internal/scanner"
	"github.com/storenav/storenav/pkg/types"
)

// Index is the store definition index: a forward map from store file to its
// exported store names and a reverse map from store name to the files
// exporting it. The two maps are only ever updated together, inside one
// critical section, so a reader can never observe them disagreeing.
type Index struct {
	suffixes []string
	scan     *scanner.Scanner

	mu      sync.RWMutex
	forward map[string]map[string]struct{} // store file -> exported names
	reverse map[string]map[string]struct{} // store name -> defining files
}

// New creates an empty index classifying store files by the given path
// suffixes
func New(suffixes []string) *Index {
	return &Index{
		suffixes: suffixes,
		scan:     scanner.New(),
		forward:  make(map[string]map[string]struct{}),
		reverse:  make(map[string]map[string]struct{}),
	}
}

// IsStoreFile reports whether the path matches the store suffix convention
func (ix *Index) IsStoreFile(path string) bool {
	for _, suffix := range ix.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Reindex rescans the file's text for export declarations and applies the
// diff against the previous exported-name set. Passing empty text clears the
// file's entries, which is how deleted or unreadable files drain out of the
// index.
func (ix *Index) Reindex(path, text string) {
	current := make(map[string]struct{})
	for _, exp := range ix.scan.ScanExports(path, text) {
		current[exp.Name] = struct{}{}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	previous := ix.forward[path]

	// Names that vanished from the file
	for name := range previous {
		if _, ok := current[name]; ok {
			continue
		}
		if files, ok := ix.reverse[name]; ok {
			delete(files, path)
			if len(files) == 0 {
				delete(ix.reverse, name)
			}
		}
	}

	// Newly appearing names
	for name := range current {
		if _, ok := previous[name]; ok {
			continue
		}
		files, ok := ix.reverse[name]
		if !ok {
			files = make(map[string]struct{})
			ix.reverse[name] = files
		}
		files[path] = struct{}{}
	}

	if len(current) == 0 {
		delete(ix.forward, path)
		return
	}
	ix.forward[path] = current
}

// Restore installs a known exported-name set without rescanning text, used
// when loading a validated snapshot. Forward and reverse entries are applied
// as a pair, exactly like Reindex.
func (ix *Index) Restore(path string, names []string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Drop any previous entries for the path first
	for name := range ix.forward[path] {
		if files, ok := ix.reverse[name]; ok {
			delete(files, path)
			if len(files) == 0 {
				delete(ix.reverse, name)
			}
		}
	}
	delete(ix.forward, path)

	if len(names) == 0 {
		return
	}

	current := make(map[string]struct{}, len(names))
	for _, name := range names {
		current[name] = struct{}{}
		files, ok := ix.reverse[name]
		if !ok {
			files = make(map[string]struct{})
			ix.reverse[name] = files
		}
		files[path] = struct{}{}
	}
	ix.forward[path] = current
}

// Remove clears every entry for the file, pruning emptied reverse entries
func (ix *Index) Remove(path string) {
	ix.Reindex(path, "")
}

// IsStoreVariable reports whether the file currently exports the name.
// Unknown files and names are simply false, never an error.
func (ix *Index) IsStoreVariable(path, name string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names, ok := ix.forward[path]
	if !ok {
		return false
	}
	_, ok = names[name]
	return ok
}

// FindDefinitions returns the identifier span of every export declaration of
// the name in the file's text. Multiple declarations all count.
func (ix *Index) FindDefinitions(path, text, name string) []types.Location {
	return ix.scan.ScanDefinitions(path, text, name)
}

// DefiningFiles returns the files currently exporting the name, sorted
func (ix *Index) DefiningFiles(name string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := make([]string, 0, len(ix.reverse[name]))
	for path := range ix.reverse[name] {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// Exports returns the names currently exported by the file, sorted
func (ix *Index) Exports(path string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	names := make([]string, 0, len(ix.forward[path]))
	for name := range ix.forward[path] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StoreFiles returns every indexed store file, sorted
func (ix *Index) StoreFiles() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	files := make([]string, 0, len(ix.forward))
	for path := range ix.forward {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// Counts returns the number of indexed store files and distinct store names
func (ix *Index) Counts() (files, names int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.forward), len(ix.reverse)
}

// Reset drops every entry, for test isolation and workspace switches
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.forward = make(map[string]map[string]struct{})
	ix.reverse = make(map[string]map[string]struct{})
}
