package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEnumerateFiles(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "src/counter.store.ts", "export const count = 1\n")
	b := writeFile(t, root, "src/widget.ts", "// widget\n")
	writeFile(t, root, "src/styles.css", "")
	writeFile(t, root, "node_modules/lib/index.ts", "")
	writeFile(t, root, "dist/bundle.ts", "")

	host := NewDiskHost(root,
		[]string{"**/*.ts", "**/*.tsx"},
		[]string{"**/node_modules/**", "**/dist/**"})

	files, err := host.EnumerateFiles(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, files)
}

func TestEnumerateFilesCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	host := NewDiskHost(root, []string{"**/*.ts"}, nil)
	_, err := host.EnumerateFiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatches(t *testing.T) {
	root := t.TempDir()
	host := NewDiskHost(root, []string{"**/*.ts"}, []string{"**/node_modules/**"})

	assert.True(t, host.Matches(filepath.Join(root, "src", "a.ts")))
	assert.False(t, host.Matches(filepath.Join(root, "src", "a.css")))
	assert.False(t, host.Matches(filepath.Join(root, "node_modules", "x", "a.ts")))
}

func TestReadFileAndExists(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.ts", "content")

	host := NewDiskHost(root, []string{"**/*.ts"}, nil)

	data, err := host.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	assert.True(t, host.Exists(path))
	assert.False(t, host.Exists(filepath.Join(root, "missing.ts")))
}
