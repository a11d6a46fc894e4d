package engine

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/storenav/storenav/internal/config"
	"github.com/storenav/storenav/internal/debounce"
	"github.com/storenav/storenav/internal/imports"
	"github.com/storenav/storenav/internal/index"
	"github.com/storenav/storenav/internal/search"
	"github.com/storenav/storenav/internal/storage"
	"github.com/storenav/storenav/internal/textcache"
	"github.com/storenav/storenav/internal/workspace"
	"github.com/storenav/storenav/pkg/types"
)

// ErrSweepInProgress is returned when a workspace sweep is already running
var ErrSweepInProgress = errors.New("workspace sweep already in progress")

// Engine is the long-lived index object owning the text cache, the store
// definition index, the import resolution index, and the debounce scheduler.
// All host events and queries flow through it.
type Engine struct {
	cfg  *config.Config
	root string
	host workspace.Host

	cache     *textcache.Cache
	index     *index.Index
	resolver  *imports.Resolver
	scheduler *debounce.Scheduler
	search    *search.Engine

	// snapshot is optional; nil disables persistence
	snapshot storage.Storage
	ws       *storage.Workspace

	sweep sweepLock
}

// Status summarizes the engine's current index state
type Status struct {
	StoreFiles       int
	StoreNames       int
	OpenBuffers      int
	CachedSnapshots  int
	PendingReindexes int
	LastSweptAt      time.Time
}

// Statistics describes one workspace sweep
type Statistics struct {
	StoreFilesIndexed  int
	StoreFilesRestored int
	StoreFilesFailed   int
	StoreNames         int
	Duration           time.Duration
}

// New creates an engine over the workspace rooted at root. snapshot may be
// nil to run purely in memory.
func New(cfg *config.Config, root string, host workspace.Host, snapshot storage.Storage) *Engine {
	e := &Engine{
		cfg:      cfg,
		root:     root,
		host:     host,
		snapshot: snapshot,
	}

	e.index = index.New(cfg.StoreSuffixes)
	e.cache = textcache.New(host, cfg.IsStoreFile)
	e.resolver = imports.New(e.cache, host.Exists, cfg.IsStoreFile, cfg.SourceExtensions)
	e.scheduler = debounce.NewScheduler(cfg.Debounce())
	e.search = search.New(e.cache, host, e.index, e.resolver)

	e.cache.SetHooks(e.scheduleReindex, e.resolver.Invalidate)

	return e
}

// Close stops the scheduler; pending reindexes are dropped
func (e *Engine) Close() {
	e.scheduler.Stop()
}

// Reset drops every index and cache structure, for test isolation and
// workspace switches
func (e *Engine) Reset() {
	e.index.Reset()
	e.cache.Reset()
	e.resolver.Reset()
}

// OnFileSaved handles a save notification: the cached text and import
// bindings are invalidated and, for a store file, a debounced reindex is
// rescheduled
func (e *Engine) OnFileSaved(path string) {
	e.cache.Invalidate(path)
}

// OnFileChanged handles a content-change notification. It refreshes cached
// text and import bindings but does not schedule a reindex; the exported-name
// set stays as of the last save until the next save event, or until a query
// reads the drifted content.
func (e *Engine) OnFileChanged(path string) {
	e.cache.Refresh(path)
}

// OnFileRemoved drops every trace of the path. For a store file the
// scheduled reindex finds no content and drains its names out of the index.
func (e *Engine) OnFileRemoved(path string) {
	e.cache.Forget(path)
}

// SyncBuffer overlays live editor content for the path; a nil text closes
// the buffer and falls back to disk
func (e *Engine) SyncBuffer(path string, text *string) {
	if text == nil {
		e.cache.CloseBuffer(path)
		return
	}
	e.cache.UpdateBuffer(path, *text)
}

// IsStoreFile reports whether the path matches the store suffix convention
func (e *Engine) IsStoreFile(path string) bool {
	return e.cfg.IsStoreFile(path)
}

// IsStoreVariable reports whether the store file currently exports the name
func (e *Engine) IsStoreVariable(path, name string) bool {
	return e.index.IsStoreVariable(path, name)
}

// Definitions returns the export-declaration spans for the name. When file
// is not a store file the name is first resolved through its import
// bindings; an unresolvable name yields an empty result.
func (e *Engine) Definitions(file, name string) []types.Location {
	if e.cfg.IsStoreFile(file) {
		return e.search.Definitions(file, name)
	}

	storeFile, ok := e.resolver.Resolve(file, name)
	if !ok {
		return nil
	}
	return e.search.Definitions(storeFile, name)
}

// ReferencesToStore runs the workspace-wide reference scan for a store name
func (e *Engine) ReferencesToStore(ctx context.Context, storeFile, storeName string) *search.Response {
	return e.search.FindReferencesToStore(ctx, storeFile, storeName)
}

// ReferencesFromComponent runs the component-local reference query
func (e *Engine) ReferencesFromComponent(componentFile, storeName string) []types.Location {
	return e.search.FindReferencesFromComponent(componentFile, storeName)
}

// References answers a find-references request for the given file and name.
// A store file queries its own name workspace-wide; any other file resolves
// the alias first and then scans the workspace for the backing store.
func (e *Engine) References(ctx context.Context, file, name string) *search.Response {
	if e.cfg.IsStoreFile(file) {
		return e.ReferencesToStore(ctx, file, name)
	}

	storeFile, ok := e.resolver.Resolve(file, name)
	if !ok {
		return &search.Response{}
	}
	return e.ReferencesToStore(ctx, storeFile, name)
}

// ResolveAlias returns the store file backing the alias in the consumer file
func (e *Engine) ResolveAlias(file, alias string) (string, bool) {
	return e.resolver.Resolve(file, alias)
}

// Status reports current index and cache counts
func (e *Engine) Status() Status {
	files, names := e.index.Counts()
	buffers, snapshots := e.cache.Stats()

	st := Status{
		StoreFiles:       files,
		StoreNames:       names,
		OpenBuffers:      buffers,
		CachedSnapshots:  snapshots,
		PendingReindexes: e.scheduler.Pending(),
	}
	if e.ws != nil {
		st.LastSweptAt = e.ws.LastSweptAt
	}
	return st
}

// scheduleReindex installs a debounced reindex for the path, replacing any
// pending one
func (e *Engine) scheduleReindex(path string) {
	e.scheduler.Schedule(path, func() {
		e.reindexNow(path)
	})
}

// reindexNow rescans the file's cached text and applies the diff to the
// definition index. Absent content clears the file's entries, which is the
// lazy pruning path for deleted files.
func (e *Engine) reindexNow(path string) {
	text, _ := e.cache.GetText(path)
	e.index.Reindex(path, text)
	e.persist(path, text)
}

// persist mirrors the file's index entry into the snapshot database.
// Failures only log; the in-memory index is authoritative.
func (e *Engine) persist(path, text string) {
	if e.snapshot == nil || e.ws == nil {
		return
	}
	ctx := context.Background()

	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	names := e.index.Exports(path)
	if len(names) == 0 {
		if err := e.snapshot.DeleteStoreFile(ctx, e.ws.ID, rel); err != nil {
			log.Printf("snapshot: failed to delete %s: %v", rel, err)
		}
		return
	}

	file := &storage.StoreFile{
		WorkspaceID: e.ws.ID,
		FilePath:    rel,
		ContentHash: contentHash(text),
	}
	if err := e.snapshot.UpsertStoreFile(ctx, file); err != nil {
		log.Printf("snapshot: failed to upsert %s: %v", rel, err)
		return
	}
	if err := e.snapshot.ReplaceExports(ctx, file.ID, names); err != nil {
		log.Printf("snapshot: failed to record exports for %s: %v", rel, err)
	}
}

// ensureWorkspace loads or creates the snapshot's workspace record. A
// changed store-suffix convention invalidates prior hashes wholesale.
func (e *Engine) ensureWorkspace(ctx context.Context) (force bool, err error) {
	if e.snapshot == nil {
		return false, nil
	}
	suffixes := strings.Join(e.cfg.StoreSuffixes, ",")

	ws, err := e.snapshot.GetWorkspace(ctx, e.root)
	if err == storage.ErrNotFound {
		ws = &storage.Workspace{
			RootPath:      e.root,
			StoreSuffixes: suffixes,
			IndexVersion:  storage.CurrentSchemaVersion,
		}
		if err := e.snapshot.CreateWorkspace(ctx, ws); err != nil {
			return false, err
		}
		e.ws = ws
		return false, nil
	}
	if err != nil {
		return false, err
	}

	e.ws = ws
	if ws.StoreSuffixes != suffixes {
		ws.StoreSuffixes = suffixes
		return true, nil
	}
	return false, nil
}
