package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storenav/storenav/internal/config"
	"github.com/storenav/storenav/internal/storage"
	"github.com/storenav/storenav/pkg/types"
)

// memHost is an in-memory workspace for engine tests
type memHost struct {
	mu    sync.Mutex
	files map[string]string
}

func newMemHost(files map[string]string) *memHost {
	return &memHost{files: files}
}

func (h *memHost) ReadFile(path string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	text, ok := h.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(text), nil
}

func (h *memHost) Exists(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.files[path]
	return ok
}

func (h *memHost) EnumerateFiles(ctx context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	paths := make([]string, 0, len(h.files))
	for path := range h.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (h *memHost) write(path, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = text
}

func (h *memHost) remove(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, path)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DebounceMs = 20
	return cfg
}

const counterStore = `import { reactive } from "framework"

export const count = reactive(0)
export let total = reactive(0)
`

const widgetComponent = `import { count } from "./counter.store"

export class Widget {
  render() {
    return this.count + 1
  }
}
`

func newTestEngine(t *testing.T, host *memHost) *Engine {
	t.Helper()
	e := New(testConfig(), "/ws", host, nil)
	t.Cleanup(e.Close)
	return e
}

func TestSweepWorkspaceIndexesStoreFiles(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
		"/ws/src/widget.ts":        widgetComponent,
	})
	e := newTestEngine(t, host)

	stats, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.StoreFilesIndexed)
	assert.Equal(t, 0, stats.StoreFilesRestored)
	assert.Equal(t, 0, stats.StoreFilesFailed)
	assert.Equal(t, 2, stats.StoreNames)

	assert.True(t, e.IsStoreVariable("/ws/src/counter.store.ts", "count"))
	assert.True(t, e.IsStoreVariable("/ws/src/counter.store.ts", "total"))
	assert.False(t, e.IsStoreVariable("/ws/src/counter.store.ts", "missing"))
}

func TestSweepRejectsConcurrentRun(t *testing.T) {
	host := newMemHost(map[string]string{})
	e := newTestEngine(t, host)

	require.True(t, e.sweep.TryAcquire())
	defer e.sweep.Release()

	_, err := e.SweepWorkspace(context.Background(), false)
	assert.ErrorIs(t, err, ErrSweepInProgress)
}

func TestDefinitionsFromComponentResolvesImport(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
		"/ws/src/widget.ts":        widgetComponent,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)

	defs := e.Definitions("/ws/src/widget.ts", "count")
	require.Len(t, defs, 1)
	assert.Equal(t, "/ws/src/counter.store.ts", defs[0].Path)
	assert.Equal(t, 3, defs[0].Start.Line)
	assert.Equal(t, types.RefDefinition, defs[0].Kind)

	// Unknown alias resolves to nothing, not an error
	assert.Empty(t, e.Definitions("/ws/src/widget.ts", "nope"))
}

func TestReferencesAcrossWorkspace(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
		"/ws/src/widget.ts":        widgetComponent,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)

	resp := e.References(context.Background(), "/ws/src/counter.store.ts", "count")
	require.NotNil(t, resp)
	assert.False(t, resp.Cancelled)

	// Definition in the store file, the import-clause occurrence, and the
	// this.count access in the component
	require.Len(t, resp.Results, 3)

	// Querying from the component lands on the same store
	fromComponent := e.References(context.Background(), "/ws/src/widget.ts", "count")
	assert.Equal(t, len(resp.Results), len(fromComponent.Results))
}

func TestDebouncedReindexAfterSave(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)
	require.False(t, e.IsStoreVariable("/ws/src/counter.store.ts", "step"))

	host.write("/ws/src/counter.store.ts", counterStore+"export const step = reactive(1)\n")
	e.OnFileSaved("/ws/src/counter.store.ts")

	assert.Eventually(t, func() bool {
		return e.IsStoreVariable("/ws/src/counter.store.ts", "step")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChangeEventDoesNotReindex(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)

	host.write("/ws/src/counter.store.ts", counterStore+"export const step = reactive(1)\n")
	e.OnFileChanged("/ws/src/counter.store.ts")

	// A change alone leaves the exported-name set as of the last save
	time.Sleep(150 * time.Millisecond)
	assert.False(t, e.IsStoreVariable("/ws/src/counter.store.ts", "step"))

	// A query reads the drifted content and the index catches up
	resp := e.References(context.Background(), "/ws/src/counter.store.ts", "count")
	require.NotNil(t, resp)
	assert.Eventually(t, func() bool {
		return e.IsStoreVariable("/ws/src/counter.store.ts", "step")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBufferContentWinsOverDisk(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)

	edited := "export const renamed = reactive(0)\n"
	e.SyncBuffer("/ws/src/counter.store.ts", &edited)

	assert.Eventually(t, func() bool {
		return e.IsStoreVariable("/ws/src/counter.store.ts", "renamed") &&
			!e.IsStoreVariable("/ws/src/counter.store.ts", "count")
	}, 2*time.Second, 10*time.Millisecond)

	// Closing the buffer falls back to the disk content
	e.SyncBuffer("/ws/src/counter.store.ts", nil)
	assert.Eventually(t, func() bool {
		return e.IsStoreVariable("/ws/src/counter.store.ts", "count")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemovedFileDrainsOutOfIndex(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)
	require.True(t, e.IsStoreVariable("/ws/src/counter.store.ts", "count"))

	host.remove("/ws/src/counter.store.ts")
	e.OnFileRemoved("/ws/src/counter.store.ts")

	assert.Eventually(t, func() bool {
		return !e.IsStoreVariable("/ws/src/counter.store.ts", "count")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweepRestoresFromSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storenav.db")
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
		"/ws/src/widget.ts":        widgetComponent,
	})

	first, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	e1 := New(testConfig(), "/ws", host, first)
	stats, err := e1.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StoreFilesIndexed)
	e1.Close()
	require.NoError(t, first.Close())

	// A fresh process over unchanged content restores without rescanning
	second, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	e2 := New(testConfig(), "/ws", host, second)
	defer e2.Close()

	stats, err = e2.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.StoreFilesIndexed)
	assert.Equal(t, 1, stats.StoreFilesRestored)
	assert.True(t, e2.IsStoreVariable("/ws/src/counter.store.ts", "count"))

	// Changed content defeats the hash check and is reindexed
	host.write("/ws/src/counter.store.ts", counterStore+"export const step = reactive(1)\n")
	stats, err = e2.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StoreFilesIndexed)
	assert.Equal(t, 0, stats.StoreFilesRestored)
	assert.True(t, e2.IsStoreVariable("/ws/src/counter.store.ts", "step"))
}

func TestStatusCounts(t *testing.T) {
	host := newMemHost(map[string]string{
		"/ws/src/counter.store.ts": counterStore,
		"/ws/src/widget.ts":        widgetComponent,
	})
	e := newTestEngine(t, host)

	_, err := e.SweepWorkspace(context.Background(), false)
	require.NoError(t, err)

	st := e.Status()
	assert.Equal(t, 1, st.StoreFiles)
	assert.Equal(t, 2, st.StoreNames)
	assert.Equal(t, 0, st.OpenBuffers)

	text := "export const x = 1\n"
	e.SyncBuffer("/ws/src/widget.ts", &text)
	st = e.Status()
	assert.Equal(t, 1, st.OpenBuffers)
}
