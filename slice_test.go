package pgmgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlice(t *testing.T) {
	sl := buildList(t, 5, 3, 1, 4, 1, 5, 9, 2, 6) // [1 1 2 3 4 5 5 6 9]

	tests := []struct {
		name  string
		start int
		stop  int
		step  int
		want  []int64
	}{
		{name: "full copy", start: 0, stop: 9, step: 1, want: []int64{1, 1, 2, 3, 4, 5, 5, 6, 9}},
		{name: "prefix", start: 0, stop: 3, step: 1, want: []int64{1, 1, 2}},
		{name: "middle", start: 2, stop: 5, step: 1, want: []int64{2, 3, 4}},
		{name: "stop beyond end clamps", start: 5, stop: 100, step: 1, want: []int64{5, 5, 6, 9}},
		{name: "start beyond end", start: 100, stop: 200, step: 1, want: []int64{}},
		{name: "negative start", start: -3, stop: 9, step: 1, want: []int64{5, 6, 9}},
		{name: "negative stop", start: 0, stop: -6, step: 1, want: []int64{1, 1, 2}},
		{name: "empty interval", start: 5, stop: 5, step: 1, want: []int64{}},
		{name: "inverted interval", start: 7, stop: 2, step: 1, want: []int64{}},
		{name: "step two", start: 0, stop: 9, step: 2, want: []int64{1, 2, 4, 5, 9}},
		{name: "step three offset", start: 1, stop: 8, step: 3, want: []int64{1, 4, 6}},
		{name: "reverse full", start: 8, stop: -10, step: -1, want: []int64{1, 1, 2, 3, 4, 5, 5, 6, 9}},
		{name: "reverse partial", start: 5, stop: 1, step: -1, want: []int64{2, 3, 4, 5}},
		{name: "reverse step two", start: 8, stop: -10, step: -2, want: []int64{1, 2, 4, 5, 9}},
		{name: "reverse empty", start: 2, stop: 7, step: -1, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sl.Slice(tt.start, tt.stop, tt.step)
			require.NoError(t, err)

			assert.Equal(t, tt.want, got.Keys())
		})
	}

	t.Run("zero step", func(t *testing.T) {
		_, err := sl.Slice(0, 9, 0)
		require.ErrorIs(t, err, ErrInvalidSliceStep)
	})

	t.Run("source unchanged", func(t *testing.T) {
		_, err := sl.Slice(2, 5, 1)
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 1, 2, 3, 4, 5, 5, 6, 9}, sl.Keys())
	})

	t.Run("result is queryable", func(t *testing.T) {
		sub, err := sl.Slice(2, 7, 1) // [2 3 4 5 5]
		require.NoError(t, err)

		assert.Equal(t, 5, sub.Len())
		assert.True(t, sub.Contains(5))
		assert.Equal(t, 2, sub.Count(5))
		assert.False(t, sub.Contains(9))
	})

	t.Run("empty list", func(t *testing.T) {
		empty := buildList(t)

		got, err := empty.Slice(0, 10, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())

		got, err = empty.Slice(5, -100, -2)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())
	})
}

func TestSliceRoundTrip(t *testing.T) {
	// A full unit-stride slice must reproduce the list exactly, duplicate
	// counts included.
	sl := buildList(t, 7, 7, 7, 1, 1, 3)

	got, err := sl.Slice(0, sl.Len(), 1)
	require.NoError(t, err)

	assert.Equal(t, sl.Keys(), got.Keys())
}
