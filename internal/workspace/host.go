package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Host supplies workspace facilities to the engine: file content by path and
// workspace-wide file enumeration. The production implementation reads from
// disk; tests substitute an in-memory host.
type Host interface {
	// ReadFile returns the on-disk content of an absolute path
	ReadFile(path string) ([]byte, error)

	// Exists reports whether a file exists at the absolute path
	Exists(path string) bool

	// EnumerateFiles returns every workspace file matching the include
	// patterns and not matching the exclude patterns, as absolute paths
	EnumerateFiles(ctx context.Context) ([]string, error)
}

// DiskHost implements Host over a workspace directory on disk
type DiskHost struct {
	root    string
	include []string
	exclude []string
}

// NewDiskHost creates a host rooted at the workspace directory. Include and
// exclude are doublestar glob patterns relative to the root.
func NewDiskHost(root string, include, exclude []string) *DiskHost {
	return &DiskHost{
		root:    root,
		include: include,
		exclude: exclude,
	}
}

// Root returns the workspace root directory
func (h *DiskHost) Root() string {
	return h.root
}

// ReadFile returns the file content from disk
func (h *DiskHost) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists reports whether a regular file exists at the path
func (h *DiskHost) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EnumerateFiles walks the workspace once, matching each file's root-relative
// path against the include and exclude patterns. Unreadable subtrees are
// skipped, not fatal.
func (h *DiskHost) EnumerateFiles(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(h.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(h.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && h.excludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if h.excluded(rel) || !h.included(rel) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return files, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a single absolute path would be enumerated
func (h *DiskHost) Matches(path string) bool {
	rel, err := filepath.Rel(h.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return !h.excluded(rel) && h.included(rel)
}

func (h *DiskHost) included(rel string) bool {
	for _, pattern := range h.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (h *DiskHost) excluded(rel string) bool {
	for _, pattern := range h.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// excludedDir reports whether an entire directory subtree can be pruned.
// A directory is prunable when an exclude pattern matches an arbitrary child
// of it, which is the shape of patterns like "**/node_modules/**". Patterns
// that exclude only some children leave the directory walkable and are
// applied per file instead.
func (h *DiskHost) excludedDir(rel string) bool {
	return h.excluded(rel + "/\x00")
}
