package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/persistence"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ship-1", models.Record{"status": "LOADED"}))

	loaded, err := store.Get(ctx, "ship-1")
	require.NoError(t, err)
	assert.Equal(t, "LOADED", loaded["status"])
}

func TestStore_GetMissingRecord(t *testing.T) {
	store := NewStore()

	_, err := store.Get(context.Background(), "nope")
	assert.True(t, persistence.IsNotFound(err))
}

func TestStore_IsolatesStoredRecords(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	original := models.Record{"status": "LOADED"}
	require.NoError(t, store.Put(ctx, "ship-1", original))

	// Mutating the caller's map or a loaded copy must not leak into the
	// stored record.
	original["status"] = "MUTATED"

	loaded, err := store.Get(ctx, "ship-1")
	require.NoError(t, err)
	assert.Equal(t, "LOADED", loaded["status"])

	loaded["status"] = "ALSO-MUTATED"

	again, err := store.Get(ctx, "ship-1")
	require.NoError(t, err)
	assert.Equal(t, "LOADED", again["status"])
}
