package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the optional per-workspace configuration file
const ConfigFileName = "storenav.toml"

// Config holds all tunables for the store navigation engine. Everything is
// fixed at startup; the store suffix convention in particular must not change
// while the index is live.
type Config struct {
	// StoreSuffixes classifies store files by path suffix
	StoreSuffixes []string `toml:"store_suffixes"`

	// SourceExtensions are tried, in order, when a relative import specifier
	// lacks an extension
	SourceExtensions []string `toml:"source_extensions"`

	// Include and Exclude are doublestar glob patterns for workspace file
	// enumeration
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`

	// DebounceMs is the quiet period before a rescheduled reindex fires
	DebounceMs int `toml:"debounce_ms"`

	// SweepWorkers bounds the initial sweep fan-out (0 = NumCPU)
	SweepWorkers int `toml:"sweep_workers"`

	// DBPath locates the index snapshot database directory
	DBPath string `toml:"db_path"`

	// LogLevel is one of debug, info, quiet
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used when no file overrides exist
func Default() *Config {
	return &Config{
		StoreSuffixes:    []string{".store.ts", ".store.tsx"},
		SourceExtensions: []string{".ts", ".tsx"},
		Include:          []string{"**/*.ts", "**/*.tsx"},
		Exclude:          []string{"**/node_modules/**", "**/.git/**", "**/dist/**"},
		DebounceMs:       300,
		SweepWorkers:     runtime.NumCPU(),
		DBPath:           "",
		LogLevel:         "info",
	}
}

// Load reads storenav.toml from the workspace root when present, merges it
// over defaults, then applies environment overrides and validation. A missing
// file is not an error.
func Load(workspaceRoot string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspaceRoot, ConfigFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if env := os.Getenv("STORENAV_DB_PATH"); env != "" {
		cfg.DBPath = env
	}
	if env := os.Getenv("STORENAV_LOG_LEVEL"); env != "" {
		cfg.LogLevel = env
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Debounce returns the quiet period as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// IsStoreFile reports whether the path matches the store suffix convention
func (c *Config) IsStoreFile(path string) bool {
	for _, suffix := range c.StoreSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (c *Config) validate() error {
	if len(c.StoreSuffixes) == 0 {
		return fmt.Errorf("store_suffixes cannot be empty")
	}
	for _, suffix := range c.StoreSuffixes {
		if !strings.HasPrefix(suffix, ".") {
			return fmt.Errorf("store suffix %q must start with a dot", suffix)
		}
	}
	for _, ext := range c.SourceExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("source extension %q must start with a dot", ext)
		}
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("include patterns cannot be empty")
	}
	if c.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms cannot be negative")
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = Default().DebounceMs
	}
	if c.SweepWorkers <= 0 {
		c.SweepWorkers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.LogLevel {
	case "debug", "info", "quiet":
	default:
		return fmt.Errorf("log_level must be debug, info, or quiet, got %q", c.LogLevel)
	}
	return nil
}

// ApplyLogLevel configures the standard logger. Stdout carries the MCP
// protocol, so output only ever goes to stderr or nowhere.
func (c *Config) ApplyLogLevel() {
	switch c.LogLevel {
	case "quiet":
		log.SetOutput(io.Discard)
	case "debug":
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}
