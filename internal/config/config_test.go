package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{".store.ts", ".store.tsx"}, cfg.StoreSuffixes)
	assert.Equal(t, 300, cfg.DebounceMs)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce())
	assert.Greater(t, cfg.SweepWorkers, 0)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `
store_suffixes = [".store.js"]
debounce_ms = 150
include = ["src/**/*.js"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{".store.js"}, cfg.StoreSuffixes)
	assert.Equal(t, 150, cfg.DebounceMs)
	assert.Equal(t, []string{"src/**/*.js"}, cfg.Include)
	// Unset fields keep defaults
	assert.Equal(t, []string{".ts", ".tsx"}, cfg.SourceExtensions)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `store_suffixes = [`},
		{"suffix without dot", `store_suffixes = ["store.ts"]`},
		{"negative debounce", `debounce_ms = -1`},
		{"empty include", `include = []`},
		{"unknown log level", `log_level = "verbose"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.content), 0644))

			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestIsStoreFile(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.IsStoreFile("/ws/src/counter.store.ts"))
	assert.True(t, cfg.IsStoreFile("/ws/src/cart.store.tsx"))
	assert.False(t, cfg.IsStoreFile("/ws/src/widget.ts"))
	assert.False(t, cfg.IsStoreFile("/ws/src/counter.store.ts.bak"))
}

func TestDBPathEnvOverride(t *testing.T) {
	t.Setenv("STORENAV_DB_PATH", "/tmp/custom-db")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-db", cfg.DBPath)
}

func TestLogLevelEnvOverride(t *testing.T) {
	t.Setenv("STORENAV_LOG_LEVEL", "quiet")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "quiet", cfg.LogLevel)

	t.Setenv("STORENAV_LOG_LEVEL", "verbose")
	_, err = Load(t.TempDir())
	assert.Error(t, err)
}
