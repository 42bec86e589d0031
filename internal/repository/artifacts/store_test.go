package artifacts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStoreSaveAndExists(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	assert.False(t, store.Exists("u1", "r1", ".pdf"))

	require.NoError(t, store.Save("u1", "r1", ".pdf", []byte("%PDF content")))

	assert.True(t, store.Exists("u1", "r1", ".pdf"))
	data, err := os.ReadFile(store.Path("u1", "r1", ".pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF content", string(data))

	// No temp files left next to the published artifact.
	entries, err := os.ReadDir(filepath.Dir(store.Path("u1", "r1", ".pdf")))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "r1.pdf", entries[0].Name())
}

func TestFileStoreSanitizesPathParts(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root, zap.NewNop())
	require.NoError(t, err)

	path := store.Path("../evil", "../../r1", ".pdf")
	rel, err := filepath.Rel(root, path)
	require.NoError(t, err)
	assert.NotContains(t, rel, "..")

	require.NoError(t, store.Save("../evil", "../../r1", ".pdf", []byte("x")))
	assert.True(t, store.Exists("../evil", "../../r1", ".pdf"))
}

func TestFileStorePurgeOlderThan(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.Save("u1", "old", ".pdf", []byte("old")))
	require.NoError(t, store.Save("u1", "fresh", ".pdf", []byte("fresh")))

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("u1", "old", ".pdf"), stale, stale))

	removed, err := store.PurgeOlderThan(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, store.Exists("u1", "old", ".pdf"))
	assert.True(t, store.Exists("u1", "fresh", ".pdf"))
}
