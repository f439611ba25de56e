// Package pgmgo provides a sorted in-memory container for int64 keys backed
// by a learned position index.
//
// A SortedList keeps its keys in one contiguous ascending buffer, including
// duplicates, and pairs the buffer with a compact approximate-position index
// (a piecewise geometric model by default). Every lookup first asks the index
// for a small window that is guaranteed to contain the key, then finishes
// with a short binary search inside that window, so point queries touch a
// handful of cache lines instead of log2(n) scattered ones.
//
// Features:
//
//   - Point queries: Contains, Rank, Count, order-statistic At
//   - Neighbor queries: FindLt, FindLe, FindGt, FindGe
//   - Lazy range iteration in both directions via iter.Seq
//   - Multiset algebra: Union, Difference, Intersect, DropDuplicates
//   - Python-style slicing with negative indexes and strides
//   - Pluggable position indexes: index/pgm (learned), index/sampled
//   - Roaring bitmap import/export for interop with bitmap pipelines
//   - Snapshot persistence with checksums, compression and mmap loading
//   - Structured logging (log/slog) and pluggable metrics collection
//
// # Quick Start
//
//	sl, err := pgmgo.New([]int64{30, 10, 20, 10})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sl.Contains(20)        // true
//	sl.Rank(10)            // 2
//	v, ok := sl.FindGt(10) // 20, true
//
//	for k := range sl.Range(10, 20) {
//	    fmt.Println(k)
//	}
//
// Lists are immutable once built: every deriving operation (Union, Slice,
// DropDuplicates, ...) returns a new list and leaves its operands untouched.
// Immutability is what makes concurrent reads safe without any locking.
//
// # Construction
//
// New accepts keys in any order and sorts a private copy. NewFromSorted skips
// the sorting pass but verifies ascending order and fails with
// ErrUnsortedKeys instead of silently repairing. FromSeq drains an iterator,
// FromBitmap drains a roaring bitmap, and NewBuilder accumulates keys
// incrementally before building once.
package pgmgo

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"time"

	"github.com/hupe1980/pgmgo/index"
)

// SortedList is an immutable ordered multiset of int64 keys. The zero value
// is not usable; construct lists with New, NewFromSorted, FromSeq,
// FromBitmap or a Builder.
//
// All methods are safe for concurrent use.
type SortedList struct {
	keys []int64
	idx  index.Index
	cfg  options

	// mmapCloser releases the mapped region backing keys for lists
	// loaded with LoadMmapFile. Nil for heap-backed lists.
	mmapCloser io.Closer
}

// New creates a list from the given keys. The input is copied and the copy is
// sorted when it is not already ascending, so the caller's slice is never
// modified and may be in any order.
func New(keys []int64, optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)

	buf := make([]int64, len(keys))
	copy(buf, keys)

	presorted := slices.IsSorted(buf)
	if !presorted {
		slices.Sort(buf)
	}

	return adopt(buf, cfg, presorted), nil
}

// NewFromSorted creates a list from keys that are already in ascending order.
// The input is copied but not re-sorted; if it breaks ascending order the
// constructor fails with ErrUnsortedKeys. Use this over New when the data is
// pre-sorted and silently repairing a violated precondition would hide a bug.
func NewFromSorted(keys []int64, optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)

	if !slices.IsSorted(keys) {
		return nil, ErrUnsortedKeys
	}

	buf := make([]int64, len(keys))
	copy(buf, keys)

	return adopt(buf, cfg, true), nil
}

// FromSeq creates a list by draining the sequence. The sequence is consumed
// exactly once and completely; ordering does not matter.
func FromSeq(seq iter.Seq[int64], optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)

	var buf []int64
	for k := range seq {
		buf = append(buf, k)
	}

	presorted := slices.IsSorted(buf)
	if !presorted {
		slices.Sort(buf)
	}

	return adopt(buf, cfg, presorted), nil
}

// adopt takes ownership of an ascending buffer and builds the position index
// over it. All internal producers (set algebra, slicing, snapshot loads) end
// up here; the precondition is not re-checked.
func adopt(keys []int64, cfg options, presorted bool) *SortedList {
	start := time.Now()

	idx := cfg.builder.Build(keys)

	sl := &SortedList{
		keys: keys,
		idx:  idx,
		cfg:  cfg,
	}

	duration := time.Since(start)
	cfg.metricsCollector.RecordBuild(len(keys), presorted, duration)
	cfg.logger.LogBuild(len(keys), idx.Segments(), idx.Height(), presorted, duration)

	return sl
}

// Len returns the number of keys in the list, duplicates included.
func (sl *SortedList) Len() int { return len(sl.keys) }

// Min returns the smallest key. The second return value is false when the
// list is empty.
func (sl *SortedList) Min() (int64, bool) {
	if len(sl.keys) == 0 {
		return 0, false
	}

	return sl.keys[0], true
}

// Max returns the largest key. The second return value is false when the
// list is empty.
func (sl *SortedList) Max() (int64, bool) {
	if len(sl.keys) == 0 {
		return 0, false
	}

	return sl.keys[len(sl.keys)-1], true
}

// Keys returns a copy of the key buffer in ascending order.
func (sl *SortedList) Keys() []int64 {
	out := make([]int64, len(sl.keys))
	copy(out, sl.keys)

	return out
}

// All returns an ascending iterator over every key. The sequence can be
// ranged over multiple times.
func (sl *SortedList) All() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for _, k := range sl.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// String implements fmt.Stringer.
func (sl *SortedList) String() string {
	if len(sl.keys) == 0 {
		return fmt.Sprintf("SortedList(count=0, index=%s)", sl.cfg.builder.Name())
	}

	return fmt.Sprintf("SortedList(count=%d, min=%d, max=%d, index=%s)",
		len(sl.keys), sl.keys[0], sl.keys[len(sl.keys)-1], sl.cfg.builder.Name())
}

// withKeys derives a new list from an ascending buffer, inheriting the
// receiver's configuration.
func (sl *SortedList) withKeys(keys []int64) *SortedList {
	return adopt(keys, sl.cfg, true)
}
