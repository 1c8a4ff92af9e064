package cartclient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cartclient.json")
	store := NewFileStore(path)

	_, ok := store.Get(RecoveryTokenKey)
	assert.False(t, ok)

	require.NoError(t, store.Set(RecoveryTokenKey, "tok123"))

	value, ok := store.Get(RecoveryTokenKey)
	require.True(t, ok)
	assert.Equal(t, "tok123", value)

	// A fresh store over the same file sees the persisted value.
	reopened := NewFileStore(path)
	value, ok = reopened.Get(RecoveryTokenKey)
	require.True(t, ok)
	assert.Equal(t, "tok123", value)

	require.NoError(t, reopened.Delete(RecoveryTokenKey))
	_, ok = reopened.Get(RecoveryTokenKey)
	assert.False(t, ok)
}

func TestFileStoreToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cartclient.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := NewFileStore(path)
	_, ok := store.Get(RecoveryTokenKey)
	assert.False(t, ok)

	require.NoError(t, store.Set("k", "v"))
	value, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Set(SessionIDKey, "sess_1_abc"))
	value, ok := store.Get(SessionIDKey)
	require.True(t, ok)
	assert.Equal(t, "sess_1_abc", value)

	require.NoError(t, store.Delete(SessionIDKey))
	_, ok = store.Get(SessionIDKey)
	assert.False(t, ok)
}
