package sampled

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilder(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		b, err := NewBuilder()
		require.NoError(t, err)
		assert.Equal(t, "sampled", b.Name())
		assert.Equal(t, 32, b.Interval())
	})

	t.Run("invalid interval", func(t *testing.T) {
		_, err := NewBuilder(func(o *Options) {
			o.Interval = 0
		})
		require.Error(t, err)
	})
}

func TestEmptyIndex(t *testing.T) {
	ix := Default.Build(nil)

	assert.Equal(t, 0, ix.Segments())
	assert.Equal(t, 0, ix.Height())
	assert.Equal(t, 0, ix.SizeInBytes())

	pos := ix.ApproximatePosition(-3)
	assert.Equal(t, 0, pos.Lo)
	assert.Equal(t, 0, pos.Hi)
}

func TestApproximatePosition(t *testing.T) {
	b, err := NewBuilder(func(o *Options) {
		o.Interval = 4
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(4711))

	keys := make([]int64, 2_000)
	for i := range keys {
		keys[i] = rng.Int63n(500) // plenty of duplicates
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ix := b.Build(keys)
	assert.Equal(t, 1, ix.Height())
	assert.Equal(t, 500, ix.Segments())
	assert.Equal(t, 500*8, ix.SizeInBytes())

	probes := []int64{math.MinInt64, -1, 0, 1, 250, 499, 500, math.MaxInt64}
	for _, k := range keys {
		probes = append(probes, k)
	}

	for _, q := range probes {
		pos := ix.ApproximatePosition(q)

		require.GreaterOrEqual(t, pos.Lo, 0, "key %d", q)
		require.LessOrEqual(t, pos.Hi, len(keys), "key %d", q)

		lo := sort.Search(len(keys), func(i int) bool { return keys[i] >= q })
		hi := sort.Search(len(keys), func(i int) bool { return keys[i] > q })

		require.GreaterOrEqual(t, lo, pos.Lo, "key %d", q)
		require.LessOrEqual(t, hi, pos.Hi, "key %d", q)
	}
}
