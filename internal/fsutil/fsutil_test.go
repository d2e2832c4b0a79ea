package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "", NormalizePath(""))
	assert.Equal(t, "a/b/c", NormalizePath("a//b///c"))
	assert.Equal(t, "a/b", NormalizePath("a/./b"))
}

func TestAppendLineIfAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alternates")

	added, err := AppendLineIfAbsent(path, "/mirror/objects")
	require.NoError(t, err)
	assert.True(t, added)

	// Second append of the same line is a no-op.
	added, err = AppendLineIfAbsent(path, "/mirror/objects")
	require.NoError(t, err)
	assert.False(t, added)

	// A different line is appended, existing content preserved.
	added, err = AppendLineIfAbsent(path, "/other/objects")
	require.NoError(t, err)
	assert.True(t, added)

	content, err := ReadTextFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/mirror/objects\n/other/objects\n", content)
}

func TestPruneEmptyDirs(t *testing.T) {
	root := t.TempDir()
	stop := filepath.Join(root, "modules")
	leaf := filepath.Join(stop, "a", "b", "c")
	require.NoError(t, os.MkdirAll(leaf, 0755))

	PruneEmptyDirs(leaf, stop)

	assert.NoDirExists(t, filepath.Join(stop, "a"))
	assert.DirExists(t, stop)
}

func TestPruneEmptyDirsStopsAtNonEmpty(t *testing.T) {
	root := t.TempDir()
	stop := filepath.Join(root, "modules")
	leaf := filepath.Join(stop, "a", "b")
	require.NoError(t, os.MkdirAll(leaf, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stop, "a", "keep.txt"), []byte("x"), 0644))

	PruneEmptyDirs(leaf, stop)

	assert.NoDirExists(t, leaf)
	assert.DirExists(t, filepath.Join(stop, "a"))
}
