package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/hupe1980/pgmgo/internal/cache"
	"github.com/stretchr/testify/require"
)

func newCachingFixture(t *testing.T, data []byte, blockSize int64) (*CachingStore, *cache.LRU) {
	t.Helper()

	inner := NewMemoryStore()
	require.NoError(t, inner.Put(context.Background(), "blob", data))

	lru := cache.NewLRU(1<<20, nil)
	return NewCachingStore(inner, lru, blockSize), lru
}

func TestCachingBlobReadThrough(t *testing.T) {
	ctx := context.Background()
	data := []byte("abcdefghijklmnopqrstuvwxyz")
	store, lru := newCachingFixture(t, data, 8)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 4)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, "efghijklmn", string(buf))

	_, missesBefore := lru.Stats()
	require.Greater(t, missesBefore, int64(0))

	// Same range again: served entirely from cache.
	n, err = blob.ReadAt(ctx, buf, 4)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, "efghijklmn", string(buf))

	_, missesAfter := lru.Stats()
	require.Equal(t, missesBefore, missesAfter)
}

func TestCachingBlobFullRead(t *testing.T) {
	ctx := context.Background()
	data := bytes.Repeat([]byte("0123456789"), 100)
	store, _ := newCachingFixture(t, data, 64)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	require.Equal(t, int64(len(data)), blob.Size())

	got, err := io.ReadAll(NewReader(ctx, blob))
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestCachingBlobShortReadEOF(t *testing.T) {
	ctx := context.Background()
	store, _ := newCachingFixture(t, []byte("short"), 4)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 16)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 5, n)
	require.Equal(t, "short", string(buf[:n]))

	n, err = blob.ReadAt(ctx, buf, 5)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 0, n)
}

func TestCachingBlobReadRange(t *testing.T) {
	ctx := context.Background()
	store, _ := newCachingFixture(t, []byte("0123456789abcdef"), 4)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 6, 6)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "6789ab", string(got))
}

func TestCachingStorePutInvalidates(t *testing.T) {
	ctx := context.Background()
	data := []byte("generation-one!!")
	store, _ := newCachingFixture(t, data, 4)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	buf := make([]byte, len(data))
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.NoError(t, blob.Close())

	// Republishing under the same name must drop the cached blocks.
	next := []byte("generation-two!!")
	require.NoError(t, store.Put(ctx, "blob", next))

	blob, err = store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, next, buf)
}

func TestCachingStoreDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	store, lru := newCachingFixture(t, []byte("to be deleted"), 4)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.NoError(t, blob.Close())
	require.Greater(t, lru.Size(), int64(0))

	require.NoError(t, store.Delete(ctx, "blob"))
	require.Equal(t, int64(0), lru.Size())

	_, err = store.Open(ctx, "blob")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStoreWithNoopCache(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "blob", []byte("uncached data")))

	store := NewCachingStore(inner, cache.Noop{}, 4)

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	got, err := io.ReadAll(NewReader(ctx, blob))
	require.NoError(t, err)
	require.Equal(t, "uncached data", string(got))
}
