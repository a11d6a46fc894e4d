package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateWorkspace inserts a new workspace record
func (s *SQLiteStorage) CreateWorkspace(ctx context.Context, ws *Workspace) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (root_path, store_suffixes, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ws.RootPath, ws.StoreSuffixes, ws.IndexVersion, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get workspace id: %w", err)
	}
	ws.ID = id
	ws.CreatedAt = now
	ws.UpdatedAt = now
	return nil
}

// GetWorkspace retrieves a workspace by root path
func (s *SQLiteStorage) GetWorkspace(ctx context.Context, rootPath string) (*Workspace, error) {
	ws := &Workspace{}
	var lastSwept sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, root_path, store_suffixes, total_store_files, total_store_names,
		       index_version, last_swept_at, created_at, updated_at
		FROM workspaces WHERE root_path = ?`, rootPath).Scan(
		&ws.ID, &ws.RootPath, &ws.StoreSuffixes, &ws.TotalStoreFiles, &ws.TotalStoreNames,
		&ws.IndexVersion, &lastSwept, &ws.CreatedAt, &ws.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	if lastSwept.Valid {
		ws.LastSweptAt = lastSwept.Time
	}
	return ws, nil
}

// UpdateWorkspace updates the workspace's statistics and sweep time
func (s *SQLiteStorage) UpdateWorkspace(ctx context.Context, ws *Workspace) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE workspaces
		SET store_suffixes = ?, total_store_files = ?, total_store_names = ?,
		    index_version = ?, last_swept_at = ?, updated_at = ?
		WHERE id = ?`,
		ws.StoreSuffixes, ws.TotalStoreFiles, ws.TotalStoreNames,
		ws.IndexVersion, ws.LastSweptAt, now, ws.ID)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	ws.UpdatedAt = now
	return nil
}

// UpsertStoreFile inserts or updates a store file record, setting file.ID
func (s *SQLiteStorage) UpsertStoreFile(ctx context.Context, file *StoreFile) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO store_files (workspace_id, file_path, content_hash, indexed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workspace_id, file_path)
		DO UPDATE SET content_hash = excluded.content_hash, indexed_at = excluded.indexed_at`,
		file.WorkspaceID, file.FilePath, file.ContentHash[:], now)
	if err != nil {
		return fmt.Errorf("failed to upsert store file: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM store_files WHERE workspace_id = ? AND file_path = ?",
		file.WorkspaceID, file.FilePath).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to get store file id: %w", err)
	}
	file.IndexedAt = now
	return nil
}

// GetStoreFile retrieves a store file by workspace and relative path
func (s *SQLiteStorage) GetStoreFile(ctx context.Context, workspaceID int64, filePath string) (*StoreFile, error) {
	file := &StoreFile{}
	var hash []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, file_path, content_hash, indexed_at
		FROM store_files WHERE workspace_id = ? AND file_path = ?`,
		workspaceID, filePath).Scan(
		&file.ID, &file.WorkspaceID, &file.FilePath, &hash, &file.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get store file: %w", err)
	}

	copy(file.ContentHash[:], hash)
	return file, nil
}

// ListStoreFiles returns every store file tracked for the workspace
func (s *SQLiteStorage) ListStoreFiles(ctx context.Context, workspaceID int64) ([]*StoreFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, file_path, content_hash, indexed_at
		FROM store_files WHERE workspace_id = ? ORDER BY file_path`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list store files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []*StoreFile
	for rows.Next() {
		file := &StoreFile{}
		var hash []byte
		if err := rows.Scan(&file.ID, &file.WorkspaceID, &file.FilePath, &hash, &file.IndexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store file: %w", err)
		}
		copy(file.ContentHash[:], hash)
		files = append(files, file)
	}
	return files, rows.Err()
}

// DeleteStoreFile removes a store file and, via cascade, its exported names
func (s *SQLiteStorage) DeleteStoreFile(ctx context.Context, workspaceID int64, filePath string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM store_files WHERE workspace_id = ? AND file_path = ?",
		workspaceID, filePath)
	if err != nil {
		return fmt.Errorf("failed to delete store file: %w", err)
	}
	return nil
}

// ReplaceExports atomically replaces the exported-name set of a file
func (s *SQLiteStorage) ReplaceExports(ctx context.Context, fileID int64, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM store_exports WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("failed to clear exports: %w", err)
	}
	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO store_exports (file_id, name) VALUES (?, ?)", fileID, name); err != nil {
			return fmt.Errorf("failed to insert export %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exports: %w", err)
	}
	return nil
}

// ListExports returns the exported names recorded for a file, sorted
func (s *SQLiteStorage) ListExports(ctx context.Context, fileID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM store_exports WHERE file_id = ? ORDER BY name", fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// isUniqueViolation reports whether the error is a unique constraint
// failure under either SQLite driver
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
