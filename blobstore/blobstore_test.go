package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/imageset/internal/cache"
)

// storeUnderTest exercises the BlobStore contract shared by all
// backends that can run without external services.
func storeUnderTest(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("OpenMissing", func(t *testing.T) {
		_, err := store.Open(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PutOpenRead", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "snapshots/run1", []byte("payload-1")))

		data, err := ReadAll(ctx, store, "snapshots/run1")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload-1"), data)
	})

	t.Run("CreateStreamed", func(t *testing.T) {
		w, err := store.Create(ctx, "snapshots/run2")
		require.NoError(t, err)
		_, err = w.Write([]byte("part-a/"))
		require.NoError(t, err)
		_, err = w.Write([]byte("part-b"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		data, err := ReadAll(ctx, store, "snapshots/run2")
		require.NoError(t, err)
		assert.Equal(t, []byte("part-a/part-b"), data)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx, "snapshots/")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"snapshots/run1", "snapshots/run2"}, names)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "snapshots/run1"))
		_, err := store.Open(ctx, "snapshots/run1")
		require.ErrorIs(t, err, ErrNotFound)
		// Deleting a missing blob is not an error.
		require.NoError(t, store.Delete(ctx, "snapshots/run1"))
	})

	t.Run("BlobReadAt", func(t *testing.T) {
		b, err := store.Open(ctx, "snapshots/run2")
		require.NoError(t, err)
		defer b.Close()

		assert.Equal(t, int64(13), b.Size())
		buf := make([]byte, 6)
		n, err := b.ReadAt(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "part-a", string(buf[:n]))
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	storeUnderTest(t, NewLocalStore(t.TempDir()))
}

func TestCachingStore(t *testing.T) {
	storeUnderTest(t, NewCachingStore(NewMemoryStore(), cache.NewLRU(1<<20), 4))
}

func TestCachingStoreHitsCache(t *testing.T) {
	ctx := context.Background()
	lru := cache.NewLRU(1 << 20)
	store := NewCachingStore(NewMemoryStore(), lru, 4)

	require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))

	b, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer b.Close()

	buf := make([]byte, 10)
	_, err = b.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(buf))

	// Second read is served from cache.
	_, err = b.ReadAt(buf, 0)
	require.NoError(t, err)
	hits, _ := lru.Stats()
	assert.Greater(t, hits, int64(0))

	// A crossing read assembles from multiple blocks.
	small := make([]byte, 4)
	n, err := b.ReadAt(small, 2)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(small[:n]))

	// Overwrite invalidates.
	require.NoError(t, store.Put(ctx, "blob", []byte("abcdefghij")))
	b2, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer b2.Close()
	_, err = b2.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij", string(buf))
}
