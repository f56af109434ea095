package storage

import (
	"testing"
	"time"

	"github.com/hiveops/hivectl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFlagRoundTrip(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.GetFlag("solo", "generate-gossip-keys")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveFlag("solo", "generate-gossip-keys", "false"))

	value, found, err := store.GetFlag("solo", "generate-gossip-keys")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "false", value)
}

func TestFlagScopedByNamespace(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveFlag("ns-a", "generate-tls-keys", "true"))

	_, found, err := store.GetFlag("ns-b", "generate-tls-keys")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteFlag(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveFlag("solo", "generate-tls-keys", "true"))
	require.NoError(t, store.DeleteFlag("solo", "generate-tls-keys"))

	_, found, err := store.GetFlag("solo", "generate-tls-keys")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing flag is not an error
	require.NoError(t, store.DeleteFlag("solo", "generate-tls-keys"))
}

func TestRunHistory(t *testing.T) {
	store := newTestStore(t)

	rec := &types.RunRecord{
		ID:        "run-1",
		Command:   "node add",
		Namespace: "solo",
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	require.NoError(t, store.SaveRun(rec))

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "node add", runs[0].Command)
	assert.Equal(t, "solo", runs[0].Namespace)
}
