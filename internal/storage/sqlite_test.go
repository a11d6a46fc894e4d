package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestWorkspace(t *testing.T, store *SQLiteStorage) *Workspace {
	t.Helper()
	ws := &Workspace{
		RootPath:      "/ws",
		StoreSuffixes: ".store.ts,.store.tsx",
		IndexVersion:  CurrentSchemaVersion,
	}
	require.NoError(t, store.CreateWorkspace(context.Background(), ws))
	require.NotZero(t, ws.ID)
	return ws
}

func TestWorkspaceLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	ws := newTestWorkspace(t, store)

	got, err := store.GetWorkspace(ctx, "/ws")
	require.NoError(t, err)
	assert.Equal(t, ws.ID, got.ID)
	assert.Equal(t, ".store.ts,.store.tsx", got.StoreSuffixes)
	assert.True(t, got.LastSweptAt.IsZero())

	ws.TotalStoreFiles = 3
	ws.TotalStoreNames = 7
	ws.LastSweptAt = time.Now()
	require.NoError(t, store.UpdateWorkspace(ctx, ws))

	got, err = store.GetWorkspace(ctx, "/ws")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalStoreFiles)
	assert.Equal(t, 7, got.TotalStoreNames)
	assert.False(t, got.LastSweptAt.IsZero())
}

func TestWorkspaceNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetWorkspace(context.Background(), "/nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateWorkspaceDuplicate(t *testing.T) {
	store := newTestStorage(t)
	newTestWorkspace(t, store)

	err := store.CreateWorkspace(context.Background(), &Workspace{
		RootPath:     "/ws",
		IndexVersion: CurrentSchemaVersion,
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateWorkspaceMissing(t *testing.T) {
	store := newTestStorage(t)

	err := store.UpdateWorkspace(context.Background(), &Workspace{ID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFileUpsertRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	ws := newTestWorkspace(t, store)

	file := &StoreFile{
		WorkspaceID: ws.ID,
		FilePath:    "src/counter.store.ts",
		ContentHash: sha256.Sum256([]byte("export const count = 1\n")),
	}
	require.NoError(t, store.UpsertStoreFile(ctx, file))
	require.NotZero(t, file.ID)

	got, err := store.GetStoreFile(ctx, ws.ID, "src/counter.store.ts")
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, file.ContentHash, got.ContentHash)

	// Upserting again with new content keeps the same row
	file2 := &StoreFile{
		WorkspaceID: ws.ID,
		FilePath:    "src/counter.store.ts",
		ContentHash: sha256.Sum256([]byte("export const count = 2\n")),
	}
	require.NoError(t, store.UpsertStoreFile(ctx, file2))
	assert.Equal(t, file.ID, file2.ID)

	got, err = store.GetStoreFile(ctx, ws.ID, "src/counter.store.ts")
	require.NoError(t, err)
	assert.Equal(t, file2.ContentHash, got.ContentHash)
}

func TestListAndDeleteStoreFiles(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	ws := newTestWorkspace(t, store)

	for _, path := range []string{"src/b.store.ts", "src/a.store.ts"} {
		require.NoError(t, store.UpsertStoreFile(ctx, &StoreFile{
			WorkspaceID: ws.ID,
			FilePath:    path,
			ContentHash: sha256.Sum256([]byte(path)),
		}))
	}

	files, err := store.ListStoreFiles(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "src/a.store.ts", files[0].FilePath, "listing is path ordered")

	require.NoError(t, store.DeleteStoreFile(ctx, ws.ID, "src/a.store.ts"))
	files, err = store.ListStoreFiles(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestReplaceExports(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	ws := newTestWorkspace(t, store)

	file := &StoreFile{
		WorkspaceID: ws.ID,
		FilePath:    "src/counter.store.ts",
		ContentHash: sha256.Sum256([]byte("x")),
	}
	require.NoError(t, store.UpsertStoreFile(ctx, file))

	require.NoError(t, store.ReplaceExports(ctx, file.ID, []string{"count", "total"}))
	names, err := store.ListExports(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "total"}, names)

	// Replacement fully supersedes the previous set
	require.NoError(t, store.ReplaceExports(ctx, file.ID, []string{"count"}))
	names, err = store.ListExports(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"count"}, names)

	// Empty set clears everything
	require.NoError(t, store.ReplaceExports(ctx, file.ID, nil))
	names, err = store.ListExports(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDeleteCascadesToExports(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	ws := newTestWorkspace(t, store)

	file := &StoreFile{
		WorkspaceID: ws.ID,
		FilePath:    "src/counter.store.ts",
		ContentHash: sha256.Sum256([]byte("x")),
	}
	require.NoError(t, store.UpsertStoreFile(ctx, file))
	require.NoError(t, store.ReplaceExports(ctx, file.ID, []string{"count"}))

	require.NoError(t, store.DeleteStoreFile(ctx, ws.ID, "src/counter.store.ts"))

	names, err := store.ListExports(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.db")

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening applies no duplicate migrations
	store, err = NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
