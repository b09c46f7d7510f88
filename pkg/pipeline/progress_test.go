package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	f := NewProgressFile(path)

	progress := &RunProgress{RunID: "run-1"}
	progress.MarkDone("Acme")
	progress.MarkDone("Globex")
	progress.MarkDone("Acme")
	require.NoError(t, f.Save(progress))

	loaded, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, []string{"Acme", "Globex"}, loaded.Completed)
	assert.True(t, loaded.Done("Acme"))
	assert.False(t, loaded.Done("Initech"))
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestProgressLoadMissingFileIsFreshStart(t *testing.T) {
	f := NewProgressFile(filepath.Join(t.TempDir(), "missing.json"))
	progress, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, progress.Completed)
}

func TestProgressLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewProgressFile(path).Load()
	require.Error(t, err)
}

func TestProgressClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	f := NewProgressFile(path)
	require.NoError(t, f.Save(&RunProgress{RunID: "run-1"}))
	require.NoError(t, f.Clear())
	require.NoError(t, f.Clear())

	progress, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, progress.RunID)
}

func TestProgressSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewProgressFile(filepath.Join(dir, "progress.json"))
	require.NoError(t, f.Save(&RunProgress{RunID: "run-1"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "progress.json", entries[0].Name())
}
