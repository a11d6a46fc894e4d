package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/storenav/storenav/internal/config"
	"github.com/storenav/storenav/internal/engine"
	"github.com/storenav/storenav/internal/storage"
	"github.com/storenav/storenav/internal/watcher"
	"github.com/storenav/storenav/internal/workspace"
)

const (
	// ServerName is the MCP server name
	ServerName = "storenav-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	root    string
	cfg     *config.Config
	storage storage.Storage
	engine  *engine.Engine
	watcher *watcher.Watcher
}

// NewServer creates a server over the given workspace root. Configuration is
// read from storenav.toml in the root when present.
func NewServer(workspaceRoot string) (*Server, error) {
	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	cfg.ApplyLogLevel()

	host := workspace.NewDiskHost(root, cfg.Include, cfg.Exclude)

	// Snapshot persistence is best effort; the server runs in memory when the
	// database cannot be opened
	store, err := openSnapshot(cfg)
	if err != nil {
		log.Printf("snapshot: running without persistence: %v", err)
		store = nil
	}

	eng := engine.New(cfg, root, host, store)

	w, err := watcher.New(root, eng, host, cfg.Exclude)
	if err != nil {
		eng.Close()
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	mcpServer := server.NewMCPServer(ServerName, ServerVersion)

	s := &Server{
		mcp:     mcpServer,
		root:    root,
		cfg:     cfg,
		storage: store,
		engine:  eng,
		watcher: w,
	}
	s.registerTools()

	return s, nil
}

// Serve runs the initial workspace sweep, starts file watching, and blocks on
// the stdio transport until the client disconnects
func (s *Server) Serve(ctx context.Context) error {
	defer s.shutdown()

	if err := s.watcher.Start(); err != nil {
		// Queries and explicit sweeps still work without live notifications
		log.Printf("watcher: disabled: %v", err)
	}

	go func() {
		stats, err := s.engine.SweepWorkspace(ctx, false)
		if err != nil {
			log.Printf("initial sweep failed: %v", err)
			return
		}
		log.Printf("initial sweep: %d indexed, %d restored, %d failed in %s",
			stats.StoreFilesIndexed, stats.StoreFilesRestored, stats.StoreFilesFailed, stats.Duration)
	}()

	return server.ServeStdio(s.mcp)
}

func (s *Server) shutdown() {
	s.watcher.Stop()
	s.engine.Close()
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(findReferencesTool(), s.handleFindReferences)
	s.mcp.AddTool(goToDefinitionTool(), s.handleGoToDefinition)
	s.mcp.AddTool(syncBufferTool(), s.handleSyncBuffer)
	s.mcp.AddTool(indexWorkspaceTool(), s.handleIndexWorkspace)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}

// openSnapshot opens the index snapshot database, defaulting to a per-user
// directory when no path is configured
func openSnapshot(cfg *config.Config) (storage.Storage, error) {
	dir := cfg.DBPath
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".storenav", "indices")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	return storage.NewSQLiteStorage(filepath.Join(dir, "storenav.db"))
}
