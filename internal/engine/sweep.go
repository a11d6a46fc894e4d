package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/storenav/storenav/internal/storage"
)

// contentHash fingerprints file content for snapshot validation
func contentHash(text string) [32]byte {
	return sha256.Sum256([]byte(text))
}

// SweepWorkspace enumerates the workspace and brings the definition index up
// to date. Files whose snapshot hash still matches are restored without a
// rescan; everything else is reindexed with a bounded concurrent fan-out.
// Only one sweep runs at a time; a second request gets ErrSweepInProgress.
func (e *Engine) SweepWorkspace(ctx context.Context, force bool) (*Statistics, error) {
	if !e.sweep.TryAcquire() {
		return nil, ErrSweepInProgress
	}
	defer e.sweep.Release()

	start := time.Now()

	wsForce, err := e.ensureWorkspace(ctx)
	if err != nil {
		// Run without persistence rather than failing the sweep
		log.Printf("snapshot: disabled for this run: %v", err)
		e.snapshot = nil
		e.ws = nil
	}
	force = force || wsForce

	files, err := e.host.EnumerateFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate workspace: %w", err)
	}

	var storeFiles []string
	for _, path := range files {
		if e.cfg.IsStoreFile(path) {
			storeFiles = append(storeFiles, path)
		}
	}

	prior := e.loadPrior(ctx)

	var indexed, restored, failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, e.cfg.SweepWorkers)
	for _, path := range storeFiles {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			e.sweepFile(gctx, path, prior, force, &indexed, &restored, &failed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.pruneSnapshot(ctx, storeFiles, prior)

	stats := &Statistics{
		StoreFilesIndexed:  int(indexed.Load()),
		StoreFilesRestored: int(restored.Load()),
		StoreFilesFailed:   int(failed.Load()),
		Duration:           time.Since(start),
	}
	_, stats.StoreNames = e.index.Counts()

	if e.snapshot != nil && e.ws != nil {
		e.ws.TotalStoreFiles, e.ws.TotalStoreNames = e.index.Counts()
		e.ws.LastSweptAt = time.Now()
		if err := e.snapshot.UpdateWorkspace(ctx, e.ws); err != nil {
			log.Printf("snapshot: failed to update workspace record: %v", err)
		}
	}

	return stats, nil
}

// sweepFile indexes one store file, restoring from the snapshot when the
// content hash is unchanged
func (e *Engine) sweepFile(ctx context.Context, path string, prior map[string]*storage.StoreFile,
	force bool, indexed, restored, failed *atomic.Int32) {

	data, err := e.host.ReadFile(path)
	if err != nil {
		// Unreadable files drain out of the index
		e.index.Remove(path)
		failed.Add(1)
		return
	}
	text := string(data)

	rel := e.relPath(path)
	if !force && rel != "" {
		if pf, ok := prior[rel]; ok && pf.ContentHash == contentHash(text) {
			if names, err := e.snapshot.ListExports(ctx, pf.ID); err == nil {
				e.cache.Prime(path, text)
				e.index.Restore(path, names)
				restored.Add(1)
				return
			}
		}
	}

	e.cache.Prime(path, text)
	e.index.Reindex(path, text)
	e.persist(path, text)
	indexed.Add(1)
}

// loadPrior returns the snapshot's tracked store files keyed by relative path
func (e *Engine) loadPrior(ctx context.Context) map[string]*storage.StoreFile {
	if e.snapshot == nil || e.ws == nil {
		return nil
	}

	files, err := e.snapshot.ListStoreFiles(ctx, e.ws.ID)
	if err != nil {
		log.Printf("snapshot: failed to list store files: %v", err)
		return nil
	}

	prior := make(map[string]*storage.StoreFile, len(files))
	for _, file := range files {
		prior[file.FilePath] = file
	}
	return prior
}

// pruneSnapshot deletes snapshot records for store files no longer present
// in the workspace
func (e *Engine) pruneSnapshot(ctx context.Context, storeFiles []string, prior map[string]*storage.StoreFile) {
	if e.snapshot == nil || e.ws == nil || len(prior) == 0 {
		return
	}

	present := make(map[string]struct{}, len(storeFiles))
	for _, path := range storeFiles {
		if rel := e.relPath(path); rel != "" {
			present[rel] = struct{}{}
		}
	}

	for rel := range prior {
		if _, ok := present[rel]; ok {
			continue
		}
		if err := e.snapshot.DeleteStoreFile(ctx, e.ws.ID, rel); err != nil {
			log.Printf("snapshot: failed to prune %s: %v", rel, err)
		}
	}
}

// relPath converts an absolute workspace path to the snapshot's relative,
// slash-separated form
func (e *Engine) relPath(path string) string {
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}
