package pgmgo

import (
	"iter"
	"math"
	"sort"
)

// lowerBound returns the leftmost insertion point of x: the first position
// whose key is >= x. The position index narrows the search to a small window
// before the binary search runs.
func (sl *SortedList) lowerBound(x int64) int {
	pos := sl.idx.ApproximatePosition(x)

	return pos.Lo + sort.Search(pos.Hi-pos.Lo, func(i int) bool {
		return sl.keys[pos.Lo+i] >= x
	})
}

// upperBound returns the rightmost insertion point of x: the first position
// whose key is > x.
func (sl *SortedList) upperBound(x int64) int {
	pos := sl.idx.ApproximatePosition(x)

	return pos.Lo + sort.Search(pos.Hi-pos.Lo, func(i int) bool {
		return sl.keys[pos.Lo+i] > x
	})
}

// Contains reports whether x is present.
func (sl *SortedList) Contains(x int64) bool {
	sl.cfg.metricsCollector.RecordQuery(QueryContains)

	lb := sl.lowerBound(x)

	return lb < len(sl.keys) && sl.keys[lb] == x
}

// FindLt returns the largest key strictly less than x. The second return
// value is false when no such key exists.
func (sl *SortedList) FindLt(x int64) (int64, bool) {
	sl.cfg.metricsCollector.RecordQuery(QueryFind)

	it := sl.lowerBound(x)
	if it <= 0 {
		return 0, false
	}

	return sl.keys[it-1], true
}

// FindLe returns the largest key less than or equal to x. The second return
// value is false when no such key exists.
func (sl *SortedList) FindLe(x int64) (int64, bool) {
	sl.cfg.metricsCollector.RecordQuery(QueryFind)

	it := sl.upperBound(x)
	if it <= 0 {
		return 0, false
	}

	return sl.keys[it-1], true
}

// FindGt returns the smallest key strictly greater than x. The second return
// value is false when no such key exists.
func (sl *SortedList) FindGt(x int64) (int64, bool) {
	sl.cfg.metricsCollector.RecordQuery(QueryFind)

	it := sl.upperBound(x)
	if it >= len(sl.keys) {
		return 0, false
	}

	return sl.keys[it], true
}

// FindGe returns the smallest key greater than or equal to x. The second
// return value is false when no such key exists.
func (sl *SortedList) FindGe(x int64) (int64, bool) {
	sl.cfg.metricsCollector.RecordQuery(QueryFind)

	it := sl.lowerBound(x)
	if it >= len(sl.keys) {
		return 0, false
	}

	return sl.keys[it], true
}

// Rank returns the number of keys less than or equal to x.
func (sl *SortedList) Rank(x int64) int {
	sl.cfg.metricsCollector.RecordQuery(QueryRank)

	return sl.upperBound(x)
}

// Count returns the number of occurrences of x.
func (sl *SortedList) Count(x int64) int {
	sl.cfg.metricsCollector.RecordQuery(QueryCount)

	lb := sl.lowerBound(x)
	if lb >= len(sl.keys) || sl.keys[lb] != x {
		return 0
	}

	return sl.upperBound(x) - lb
}

// RangeOptions controls Range iteration.
type RangeOptions struct {
	// IncludeLow includes keys equal to the lower bound.
	IncludeLow bool
	// IncludeHigh includes keys equal to the upper bound.
	IncludeHigh bool
	// Reverse emits keys in descending order.
	Reverse bool
}

// DefaultRangeOptions holds the default Range options: both bounds
// inclusive, ascending order.
var DefaultRangeOptions = RangeOptions{
	IncludeLow:  true,
	IncludeHigh: true,
}

// Range returns a lazy iterator over the keys between low and high. Bound
// inclusion and direction are controlled via RangeOptions; by default both
// bounds are inclusive and iteration ascends. An inverted interval yields
// nothing. The sequence can be ranged over multiple times and aborts cleanly
// on early break.
func (sl *SortedList) Range(low, high int64, optFns ...func(o *RangeOptions)) iter.Seq[int64] {
	opts := DefaultRangeOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	sl.cfg.metricsCollector.RecordQuery(QueryRange)

	start := sl.upperBound(low)
	if opts.IncludeLow {
		start = sl.lowerBound(low)
	}

	end := sl.lowerBound(high)
	if opts.IncludeHigh {
		end = sl.upperBound(high)
	}

	return func(yield func(int64) bool) {
		if opts.Reverse {
			for i := end - 1; i >= start; i-- {
				if !yield(sl.keys[i]) {
					return
				}
			}

			return
		}

		for i := start; i < end; i++ {
			if !yield(sl.keys[i]) {
				return
			}
		}
	}
}

// At returns the key at position i. Negative positions count from the end,
// Python style: At(-1) is the largest key. Positions out of range after
// normalization fail with an IndexOutOfRangeError.
func (sl *SortedList) At(i int) (int64, error) {
	sl.cfg.metricsCollector.RecordQuery(QueryAt)

	if i < 0 {
		i += len(sl.keys)
	}

	if i < 0 || i >= len(sl.keys) {
		return 0, &IndexOutOfRangeError{Index: i, Len: len(sl.keys)}
	}

	return sl.keys[i], nil
}

// IndexOptions restricts the positions searched by Index.
type IndexOptions struct {
	// Start is the first position considered. Negative values count from
	// the end; out-of-range values clamp.
	Start int
	// Stop is the position after the last one considered, with the same
	// normalization as Start. The default covers the whole list.
	Stop int
}

// Index returns the position of the first occurrence of x, searching the
// positions [start, stop) after Python-style normalization. The returned
// position is absolute, not relative to start. When x does not occur in the
// searched window, Index fails with a KeyNotFoundError.
func (sl *SortedList) Index(x int64, optFns ...func(o *IndexOptions)) (int, error) {
	opts := IndexOptions{Start: 0, Stop: math.MaxInt}
	for _, fn := range optFns {
		fn(&opts)
	}

	sl.cfg.metricsCollector.RecordQuery(QueryIndex)

	start := clampPosition(opts.Start, len(sl.keys))
	stop := clampPosition(opts.Stop, len(sl.keys))

	it := sl.lowerBound(x)
	if it < start {
		// The run of x, if any, may still reach into the window.
		it = start
	}

	if it >= stop || it >= len(sl.keys) || sl.keys[it] != x {
		return 0, &KeyNotFoundError{Key: x}
	}

	return it, nil
}

// clampPosition normalizes a Python-style position against length n:
// negative values count from the end, anything out of range clamps to the
// nearest valid bound.
func clampPosition(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}

	if i > n {
		i = n
	}

	return i
}
