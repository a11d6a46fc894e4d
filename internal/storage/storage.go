package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting the store definition index
// snapshot between runs. The in-memory index stays authoritative; the
// snapshot only lets a restart skip reindexing unchanged files.
type Storage interface {
	// Workspace operations
	CreateWorkspace(ctx context.Context, ws *Workspace) error
	GetWorkspace(ctx context.Context, rootPath string) (*Workspace, error)
	UpdateWorkspace(ctx context.Context, ws *Workspace) error

	// Store file operations
	UpsertStoreFile(ctx context.Context, file *StoreFile) error
	GetStoreFile(ctx context.Context, workspaceID int64, filePath string) (*StoreFile, error)
	ListStoreFiles(ctx context.Context, workspaceID int64) ([]*StoreFile, error)
	DeleteStoreFile(ctx context.Context, workspaceID int64, filePath string) error

	// Exported name operations
	ReplaceExports(ctx context.Context, fileID int64, names []string) error
	ListExports(ctx context.Context, fileID int64) ([]string, error)

	// Database operations
	Close() error
}

// Workspace represents one indexed component workspace
type Workspace struct {
	ID              int64
	RootPath        string
	StoreSuffixes   string // comma-joined suffix convention active at sweep time
	TotalStoreFiles int
	TotalStoreNames int
	IndexVersion    string
	LastSweptAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StoreFile represents a tracked store file and its content fingerprint
type StoreFile struct {
	ID          int64
	WorkspaceID int64
	FilePath    string // relative to the workspace root
	ContentHash [32]byte
	IndexedAt   time.Time
}
