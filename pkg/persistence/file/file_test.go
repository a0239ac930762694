package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/persistence"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	record := models.Record{
		"container_number": "MSCU1234566",
		"weight":           18000.0,
		"route":            map[string]any{"origin": map[string]any{"port": "CNSHA"}},
	}

	require.NoError(t, store.Put(ctx, "ship-1", record))

	loaded, err := store.Get(ctx, "ship-1")
	require.NoError(t, err)
	assert.Equal(t, "MSCU1234566", loaded["container_number"])
	assert.Equal(t, 18000.0, loaded["weight"])
}

func TestStore_GetMissingRecord(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, persistence.IsNotFound(err))
}

func TestStore_PutOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ship-1", models.Record{"status": "LOADED"}))
	require.NoError(t, store.Put(ctx, "ship-1", models.Record{"status": "DEPARTED"}))

	loaded, err := store.Get(ctx, "ship-1")
	require.NoError(t, err)
	assert.Equal(t, "DEPARTED", loaded["status"])
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o600))

	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, persistence.IsNotFound(err))
}

func TestStore_EntityIDCannotEscapeRoot(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Put(context.Background(), "../escape", models.Record{"a": 1}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape.json", entries[0].Name())
}

func TestStore_FileURLPrefixStripped(t *testing.T) {
	dir := t.TempDir()
	store := NewStore("file://" + dir)

	require.NoError(t, store.Put(context.Background(), "ship-1", models.Record{"a": 1}))
	assert.NoError(t, store.HealthCheck(context.Background()))
}
