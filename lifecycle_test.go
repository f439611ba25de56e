package pgmgo_test

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hupe1980/pgmgo"
	"github.com/hupe1980/pgmgo/blobstore"
	"github.com/hupe1980/pgmgo/index/sampled"
	"github.com/hupe1980/pgmgo/persistence"
	"github.com/hupe1980/pgmgo/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLifecycle walks one list through the whole public surface: build from
// unsorted input, point and neighbor queries, range iteration, set algebra,
// slicing, snapshot save and load, and a zero-copy mmap reload.
func TestLifecycle(t *testing.T) {
	ctx := context.Background()

	rng := rand.New(rand.NewSource(42))
	keys := make([]int64, 10_000)
	for i := range keys {
		keys[i] = rng.Int63n(5_000) - 2_500 // dense enough to force duplicates
	}

	sl, err := pgmgo.New(keys)
	require.NoError(t, err)
	require.Equal(t, len(keys), sl.Len())

	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	require.Equal(t, sorted, sl.Keys())

	// Point queries agree with direct scans over the sorted reference.
	for _, probe := range []int64{sorted[0], sorted[len(sorted)/2], sorted[len(sorted)-1], -9_999, 9_999} {
		lb, _ := slices.BinarySearch(sorted, probe)
		assert.Equal(t, lb < len(sorted) && sorted[lb] == probe, sl.Contains(probe), "Contains(%d)", probe)

		ub, _ := slices.BinarySearch(sorted, probe+1)
		assert.Equal(t, ub, sl.Rank(probe), "Rank(%d)", probe)
		assert.Equal(t, ub-lb, sl.Count(probe), "Count(%d)", probe)
	}

	// Neighbor queries bracket a probe that sits between keys.
	if lt, ok := sl.FindLt(0); ok {
		assert.Less(t, lt, int64(0))
	}
	if ge, ok := sl.FindGe(0); ok {
		assert.GreaterOrEqual(t, ge, int64(0))
	}

	// Range iteration matches the reference window.
	var got []int64
	for k := range sl.Range(-100, 100) {
		got = append(got, k)
	}
	lo, _ := slices.BinarySearch(sorted, int64(-100))
	hi, _ := slices.BinarySearch(sorted, int64(101))
	assert.Equal(t, sorted[lo:hi], got)

	// Set algebra and slicing derive new lists without touching sl.
	evens, err := pgmgo.FromSeq(func(yield func(int64) bool) {
		for k := int64(-2_500); k <= 2_500; k += 2 {
			if !yield(k) {
				return
			}
		}
	})
	require.NoError(t, err)

	merged := sl.Union(evens)
	assert.Equal(t, sl.Len()+evens.Len(), merged.Len())

	distinct := sl.DropDuplicates()
	assert.LessOrEqual(t, distinct.Len(), sl.Len())
	assert.True(t, slices.IsSorted(distinct.Keys()))

	half, err := sl.Slice(0, sl.Len(), 2)
	require.NoError(t, err)
	assert.Equal(t, (sl.Len()+1)/2, half.Len())

	require.Equal(t, sorted, sl.Keys(), "derivations must not mutate the source list")

	// Snapshot roundtrip through a buffer.
	var buf bytes.Buffer
	require.NoError(t, sl.Save(ctx, &buf))

	loaded, err := pgmgo.Load(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, sl.Keys(), loaded.Keys())

	// Zero-copy reload from a raw snapshot file.
	path := filepath.Join(t.TempDir(), "lifecycle.pgm")
	require.NoError(t, sl.SaveFile(ctx, path, func(o *persistence.Options) {
		o.Encoding = persistence.EncodingRaw
		o.Compression = persistence.CompressionNone
	}))

	mapped, err := pgmgo.LoadMmapFile(path)
	require.NoError(t, err)
	assert.Equal(t, sl.Keys(), mapped.Keys())
	assert.Equal(t, sl.Rank(0), mapped.Rank(0))
	require.NoError(t, mapped.Close())
}

// TestLifecycleManaged moves a snapshot through the persistence manager and
// a blob store: snapshot to disk, publish, lose the local copy, fetch it
// back, restore.
func TestLifecycleManaged(t *testing.T) {
	ctx := context.Background()

	sl, err := pgmgo.New([]int64{7, -1, 7, 3, 0})
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	pm := persistence.NewManager(persistence.ManagerOptions{
		Path:  filepath.Join(t.TempDir(), "current.pgm"),
		Store: store,
		Controller: resource.NewController(resource.Config{
			MaxConcurrentSnapshots: 2,
		}),
	})

	require.NoError(t, pm.Snapshot(ctx, func(ctx context.Context, w io.Writer) error {
		return sl.Save(ctx, w)
	}))
	require.NoError(t, pm.Publish(ctx, "snapshots/current.pgm"))

	names, err := store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/current.pgm"}, names)

	require.NoError(t, os.Remove(pm.Path()))
	require.NoError(t, pm.Fetch(ctx, "snapshots/current.pgm"))

	var restored *pgmgo.SortedList
	require.NoError(t, pm.Restore(ctx, func(ctx context.Context, r io.Reader) error {
		var err error
		restored, err = pgmgo.Load(ctx, r)
		return err
	}))

	assert.Equal(t, sl.Keys(), restored.Keys())
}

// TestLifecycleAlternateIndex runs the same journey with a sampled index in
// place of the default pgm one; results must not depend on the index family.
func TestLifecycleAlternateIndex(t *testing.T) {
	ctx := context.Background()

	builder, err := sampled.NewBuilder(func(o *sampled.Options) {
		o.Interval = 16
	})
	require.NoError(t, err)

	keys := make([]int64, 1_000)
	for i := range keys {
		keys[i] = int64(i * 7 % 997)
	}

	sl, err := pgmgo.New(keys, pgmgo.WithIndex(builder))
	require.NoError(t, err)

	assert.True(t, sl.Contains(0))
	assert.Equal(t, 1_000, sl.Rank(996))

	var buf bytes.Buffer
	require.NoError(t, sl.Save(ctx, &buf))

	// Meta carries the builder label along.
	_, meta, err := persistence.ReadMeta(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "sampled", meta.Index)

	loaded, err := pgmgo.Load(ctx, &buf, pgmgo.WithIndex(builder))
	require.NoError(t, err)
	assert.Equal(t, sl.Keys(), loaded.Keys())
	assert.Equal(t, sl.Stats().Height, loaded.Stats().Height)
}
