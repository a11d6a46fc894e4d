// Package watcher translates file system notifications into engine events.
// It watches every directory under the workspace root, filters events through
// the workspace's include and exclude patterns, and forwards the survivors.
// Coalescing of rapid edit bursts happens in the engine's debounce scheduler,
// not here.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Events receives filtered file system notifications. A write that reached
// the disk is a save, not a mere content change.
type Events interface {
	OnFileSaved(path string)
	OnFileRemoved(path string)
}

// PathFilter decides whether a file path belongs to the workspace
type PathFilter interface {
	Matches(path string) bool
}

// Watcher monitors the workspace directory tree for changes
type Watcher struct {
	fs      *fsnotify.Watcher
	root    string
	events  Events
	filter  PathFilter
	exclude []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	processed atomic.Int64
}

// New creates a watcher for the workspace rooted at root. exclude patterns
// prune entire directory subtrees from watching.
func New(root string, events Events, filter PathFilter, exclude []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fs:      fsw,
		root:    root,
		events:  events,
		filter:  filter,
		exclude: exclude,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start adds watches for every directory under the root and begins event
// processing
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop cancels event processing and closes the underlying watcher
func (w *Watcher) Stop() {
	w.cancel()
	if err := w.fs.Close(); err != nil {
		log.Printf("watcher: close: %v", err)
	}
	w.wg.Wait()
}

// EventsProcessed returns the number of forwarded notifications
func (w *Watcher) EventsProcessed() int64 {
	return w.processed.Load()
}

// addWatches walks the tree and registers every non-excluded directory.
// Unreadable subtrees are skipped, not fatal.
func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			log.Printf("watcher: failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// handleEvent routes one notification. A created directory starts being
// watched; removals and renames drop the file from the index, every other
// relevant operation invalidates it.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excludedDir(path) {
				if err := w.fs.Add(path); err != nil {
					log.Printf("watcher: failed to watch new directory %s: %v", path, err)
				}
			}
			return
		}
	}

	if !w.filter.Matches(path) {
		return
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.events.OnFileRemoved(path)
		w.processed.Add(1)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.events.OnFileSaved(path)
		w.processed.Add(1)
	}
}

// excludedDir reports whether an exclude pattern covers arbitrary children of
// the directory, the shape of patterns like "**/node_modules/**"
func (w *Watcher) excludedDir(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel) + "/\x00"

	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
