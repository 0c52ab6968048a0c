package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

func TestPruneRecordings(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck // Best-effort

	kept := recordGame(t, dir, store)
	gone := recordGame(t, dir, store)
	require.NoError(t, os.Remove(gone.Path))

	removed, err := pruneRecordings(store)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entry, err := store.Recording(gone.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = store.Recording(kept.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, kept.Path, entry.Path)
}

func TestMoveIndexed(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck // Best-effort

	r := recordGame(t, dir, store)
	dst := r.Path + ".zst"
	require.NoError(t, moveIndexed(store, r.Path, dst))

	entry, err := store.Recording(r.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, dst, entry.Path)

	// Unknown files are ignored.
	require.NoError(t, moveIndexed(store, filepath.Join(dir, "other.rec"), filepath.Join(dir, "other.rec.zst")))
}
