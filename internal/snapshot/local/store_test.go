package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopsage/crawler/internal/snapshot"
)

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	snap := snapshot.Snapshot{StartURL: "https://shop.test", Aggregated: "content"}
	require.NoError(t, store.Put(ctx, "shop.test", snap))

	got, err := store.Get(ctx, "shop.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "https://shop.test", got.StartURL)
	require.Equal(t, "content", got.Aggregated)
}

func TestStore_GetAbsentReturnsNil(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "nobody.test")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_KeysListsJSONFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "beta.test", snapshot.Snapshot{}))
	require.NoError(t, store.Put(ctx, "alpha.test", snapshot.Snapshot{}))
	// Unrelated files in the directory are not snapshot keys.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha.test", "beta.test"}, keys)
}

func TestStore_SanitizesKeyIntoFilename(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "https://www.shop.test/page", snapshot.Snapshot{Aggregated: "x"}))

	got, err := store.Get(ctx, "shop.test")
	require.NoError(t, err)
	require.NotNil(t, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "shop.test.json", entries[0].Name())
}

func TestStore_CreatesBaseDir(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "nested", "snapshots")
	_, err := New(base)
	require.NoError(t, err)

	info, err := os.Stat(base)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
