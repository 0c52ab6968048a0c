package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-tetrion/internal/core"
	"github.com/vovakirdan/tui-tetrion/internal/game"
	"github.com/vovakirdan/tui-tetrion/internal/recording"
	"github.com/vovakirdan/tui-tetrion/internal/storage"
)

func recordGame(t *testing.T, dir string, store *storage.Store) *game.Recorded {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Seed = 7
	r, err := game.StartRecorded(cfg, game.RecorderConfig{Directory: dir, Store: store, Player: "eve"}, time.Now())
	require.NoError(t, err)
	for !r.Finished() {
		require.NoError(t, r.HandleEvent(0, core.EventDropPressed))
		require.NoError(t, r.HandleEvent(0, core.EventDropReleased))
		r.Update()
	}
	_, err = r.Finish()
	require.NoError(t, err)
	return r
}

func TestVerifyFiles(t *testing.T) {
	dir := t.TempDir()
	good := recordGame(t, dir, nil).Path

	garbage := filepath.Join(dir, "garbage"+recording.FileExtension)
	require.NoError(t, os.WriteFile(garbage, []byte("not a recording"), 0o644))
	missing := filepath.Join(dir, "missing"+recording.FileExtension)

	outcomes := verifyFiles(context.Background(), []string{good, garbage, missing}, 2, log.New(io.Discard))
	require.Len(t, outcomes, 3)

	assert.Equal(t, good, outcomes[0].Path)
	require.True(t, outcomes[0].OK(), "good recording failed: %v", outcomes[0].Err)
	assert.Positive(t, outcomes[0].Steps())
	assert.Positive(t, outcomes[0].Result.Tetrions[0].SnapshotsCompared)

	assert.False(t, outcomes[1].OK())
	assert.ErrorIs(t, outcomes[1].Err, recording.ErrStructural)

	assert.False(t, outcomes[2].OK())
	assert.ErrorIs(t, outcomes[2].Err, os.ErrNotExist)
}

func TestVerifyFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := verifyFiles(ctx, []string{"a.rec", "b.rec"}, 1, log.New(io.Discard))
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestStoreOutcome(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck // Best-effort

	r := recordGame(t, dir, store)
	outcomes := verifyFiles(context.Background(), []string{r.Path}, 1, log.New(io.Discard))
	require.True(t, outcomes[0].OK())

	saved, err := storeOutcome(store, outcomes[0])
	require.NoError(t, err)
	assert.True(t, saved)

	history, err := store.Verifications(r.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].OK)
	assert.Equal(t, outcomes[0].Steps(), history[0].Steps)

	// A renamed file is matched through its header checksum.
	moved := filepath.Join(dir, "moved"+recording.FileExtension)
	require.NoError(t, os.Rename(r.Path, moved))
	outcomes = verifyFiles(context.Background(), []string{moved}, 1, log.New(io.Discard))
	saved, err = storeOutcome(store, outcomes[0])
	require.NoError(t, err)
	assert.True(t, saved)

	unknown := verifyOutcome{Path: filepath.Join(dir, "unknown.rec")}
	saved, err = storeOutcome(store, unknown)
	require.NoError(t, err)
	assert.False(t, saved)
}
