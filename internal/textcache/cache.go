package textcache

import (
	"crypto/sha256"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// snapshotLimit bounds the number of disk snapshots held at once. Open
// buffers are never evicted.
const snapshotLimit = 4096

// Reader supplies file content by absolute path
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// Cache holds the last known text per file path. An open editor buffer
// always wins over a disk snapshot; a stale snapshot is never preferred over
// live buffer content. Read failures surface as absence, not errors.
type Cache struct {
	reader      Reader
	isStoreFile func(path string) bool

	mu      sync.Mutex
	buffers map[string]string          // open editor buffers
	disk    *lru.Cache[string, string] // bounded disk snapshots
	seen    map[string][32]byte        // last observed content hash; survives invalidation

	// onStoreChanged schedules a debounced reindex for a store file whose
	// observed content changed. onImportsInvalidated drops the file's
	// memoized import bindings. Both fire outside the cache lock.
	onStoreChanged       func(path string)
	onImportsInvalidated func(path string)
}

// New creates a cache reading through to the given reader. isStoreFile
// decides which paths get reindex scheduling on content change.
func New(reader Reader, isStoreFile func(path string) bool) *Cache {
	disk, err := lru.New[string, string](snapshotLimit)
	if err != nil {
		// Only possible with an invalid size constant
		panic(err)
	}

	return &Cache{
		reader:      reader,
		isStoreFile: isStoreFile,
		buffers:     make(map[string]string),
		disk:        disk,
		seen:        make(map[string][32]byte),
	}
}

// SetHooks wires the change-side effects. Must be called before the cache
// sees traffic.
func (c *Cache) SetHooks(onStoreChanged, onImportsInvalidated func(path string)) {
	c.onStoreChanged = onStoreChanged
	c.onImportsInvalidated = onImportsInvalidated
}

// GetText returns the file's live buffer text when one is open, else the last
// disk snapshot, else reads from storage and caches the result. A missing or
// unreadable file yields ("", false). When freshly read content differs from
// the last observed content of a store file, a reindex is scheduled and the
// file's import bindings are dropped.
func (c *Cache) GetText(path string) (string, bool) {
	c.mu.Lock()
	if text, ok := c.buffers[path]; ok {
		c.mu.Unlock()
		return text, true
	}
	if text, ok := c.disk.Get(path); ok {
		c.mu.Unlock()
		return text, true
	}
	c.mu.Unlock()

	data, err := c.reader.ReadFile(path)
	if err != nil {
		return "", false
	}
	text := string(data)

	c.mu.Lock()
	// A buffer may have opened during the read; buffers always win
	if buffered, ok := c.buffers[path]; ok {
		c.mu.Unlock()
		return buffered, true
	}
	c.disk.Add(path, text)
	changed := c.observeLocked(path, text)
	c.mu.Unlock()

	if changed {
		c.contentChanged(path)
	}
	return text, true
}

// OpenBuffer overlays live editor content for the path
func (c *Cache) OpenBuffer(path, text string) {
	c.UpdateBuffer(path, text)
}

// UpdateBuffer replaces the live buffer content for the path
func (c *Cache) UpdateBuffer(path, text string) {
	c.mu.Lock()
	c.buffers[path] = text
	changed := c.observeLocked(path, text)
	c.mu.Unlock()

	if changed {
		c.contentChanged(path)
	}
}

// CloseBuffer drops the live buffer so the next access reads from disk.
// The disk snapshot is evicted too since it may predate unsaved edits.
func (c *Cache) CloseBuffer(path string) {
	c.mu.Lock()
	_, open := c.buffers[path]
	delete(c.buffers, path)
	c.disk.Remove(path)
	c.mu.Unlock()

	if open {
		c.invalidated(path)
	}
}

// Invalidate evicts the disk snapshot and the file's memoized import
// bindings; a store file gets its reindex rescheduled. An open buffer stays,
// it is still the live content.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	c.disk.Remove(path)
	c.mu.Unlock()

	c.invalidated(path)
}

// Refresh evicts the disk snapshot and the file's memoized import bindings
// without scheduling a reindex. Content-change notifications use it; the
// definition index catches up on the next save, or lazily when a query reads
// the drifted content.
func (c *Cache) Refresh(path string) {
	c.mu.Lock()
	c.disk.Remove(path)
	c.mu.Unlock()

	if c.onImportsInvalidated != nil {
		c.onImportsInvalidated(path)
	}
}

// Forget drops all knowledge of the path including its observed-content
// hash, used when a file is removed from the workspace
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	delete(c.buffers, path)
	c.disk.Remove(path)
	delete(c.seen, path)
	c.mu.Unlock()

	c.invalidated(path)
}

// Prime installs freshly read content without firing change hooks. The
// workspace sweep uses it so priming N store files does not schedule N
// redundant debounced reindexes on top of the sweep's own indexing.
func (c *Cache) Prime(path, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, open := c.buffers[path]; open {
		return
	}
	c.disk.Add(path, text)
	c.observeLocked(path, text)
}

// Stats returns the number of open buffers and held disk snapshots
func (c *Cache) Stats() (buffers, snapshots int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffers), c.disk.Len()
}

// Reset drops every buffer, snapshot, and observation
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers = make(map[string]string)
	c.disk.Purge()
	c.seen = make(map[string][32]byte)
}

// observeLocked records the content hash and reports whether it differs from
// the previous observation. First observation of a path counts as a change.
func (c *Cache) observeLocked(path, text string) bool {
	hash := sha256.Sum256([]byte(text))
	previous, ok := c.seen[path]
	c.seen[path] = hash
	return !ok || previous != hash
}

func (c *Cache) contentChanged(path string) {
	if c.onImportsInvalidated != nil {
		c.onImportsInvalidated(path)
	}
	if c.isStoreFile(path) && c.onStoreChanged != nil {
		c.onStoreChanged(path)
	}
}

func (c *Cache) invalidated(path string) {
	c.contentChanged(path)
}
