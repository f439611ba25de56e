package pgmgo

import (
	"slices"
	"time"
)

// Union returns a new list containing every key of both operands, duplicates
// preserved: a key occurring m times on the left and n times on the right
// occurs m+n times in the result. Operands are not modified; the result
// inherits the receiver's configuration.
func (sl *SortedList) Union(other *SortedList) *SortedList {
	return sl.union(other.keys, other.Len())
}

// UnionKeys is Union over a raw key slice. The slice is copied and the copy
// sorted when needed, so the caller's data is never modified.
func (sl *SortedList) UnionKeys(keys []int64) *SortedList {
	return sl.union(sortedCopy(keys), len(keys))
}

func (sl *SortedList) union(other []int64, right int) *SortedList {
	began := time.Now()

	out := make([]int64, 0, len(sl.keys)+len(other))

	i, j := 0, 0
	for i < len(sl.keys) && j < len(other) {
		// Strict comparison keeps the merge stable: on ties the
		// receiver's keys come first.
		if other[j] < sl.keys[i] {
			out = append(out, other[j])
			j++
		} else {
			out = append(out, sl.keys[i])
			i++
		}
	}

	out = append(out, sl.keys[i:]...)
	out = append(out, other[j:]...)

	return sl.finishMerge(MergeUnion, out, right, began)
}

// Difference returns a new list with the multiset difference of the two
// operands: each occurrence of a key on the right cancels at most one
// occurrence on the left. Operands are not modified; the result inherits the
// receiver's configuration.
func (sl *SortedList) Difference(other *SortedList) *SortedList {
	return sl.difference(other.keys, other.Len())
}

// DifferenceKeys is Difference over a raw key slice. The slice is copied and
// the copy sorted when needed, so the caller's data is never modified.
func (sl *SortedList) DifferenceKeys(keys []int64) *SortedList {
	return sl.difference(sortedCopy(keys), len(keys))
}

func (sl *SortedList) difference(other []int64, right int) *SortedList {
	began := time.Now()

	out := make([]int64, 0, len(sl.keys))

	i, j := 0, 0
	for i < len(sl.keys) && j < len(other) {
		switch {
		case sl.keys[i] < other[j]:
			out = append(out, sl.keys[i])
			i++
		case sl.keys[i] > other[j]:
			j++
		default:
			i++
			j++
		}
	}

	out = append(out, sl.keys[i:]...)

	// When nothing was cancelled the buffer is adopted as-is; otherwise
	// it is copied down to its real size.
	if len(out) < len(sl.keys) {
		out = slices.Clone(out)
	}

	return sl.finishMerge(MergeDifference, out, right, began)
}

// Intersect returns a new list with the multiset intersection of the two
// operands: each key occurs min(m, n) times, where m and n are its
// multiplicities on the left and right. Operands are not modified; the
// result inherits the receiver's configuration.
func (sl *SortedList) Intersect(other *SortedList) *SortedList {
	return sl.intersect(other.keys, other.Len())
}

// IntersectKeys is Intersect over a raw key slice. The slice is copied and
// the copy sorted when needed, so the caller's data is never modified.
func (sl *SortedList) IntersectKeys(keys []int64) *SortedList {
	return sl.intersect(sortedCopy(keys), len(keys))
}

func (sl *SortedList) intersect(other []int64, right int) *SortedList {
	began := time.Now()

	limit := len(sl.keys)
	if len(other) < limit {
		limit = len(other)
	}

	out := make([]int64, 0, limit)

	i, j := 0, 0
	for i < len(sl.keys) && j < len(other) {
		switch {
		case sl.keys[i] < other[j]:
			i++
		case sl.keys[i] > other[j]:
			j++
		default:
			out = append(out, sl.keys[i])
			i++
			j++
		}
	}

	if len(out) < limit {
		out = slices.Clone(out)
	}

	return sl.finishMerge(MergeIntersect, out, right, began)
}

// DropDuplicates returns a new list with every key occurring exactly once.
// The receiver is not modified; the result inherits its configuration.
func (sl *SortedList) DropDuplicates() *SortedList {
	began := time.Now()

	out := make([]int64, 0, len(sl.keys))

	for i, k := range sl.keys {
		if i == 0 || k != sl.keys[i-1] {
			out = append(out, k)
		}
	}

	if len(out) < len(sl.keys) {
		out = slices.Clone(out)
	}

	return sl.finishMerge(MergeDropDuplicates, out, 0, began)
}

// finishMerge adopts the merged buffer and records telemetry for the
// operation.
func (sl *SortedList) finishMerge(op string, out []int64, right int, began time.Time) *SortedList {
	res := adopt(out, sl.cfg, true)

	duration := time.Since(began)
	sl.cfg.metricsCollector.RecordMerge(op, res.Len(), duration)
	sl.cfg.logger.LogMerge(op, sl.Len(), right, res.Len(), duration)

	return res
}

// sortedCopy returns a private ascending copy of keys.
func sortedCopy(keys []int64) []int64 {
	out := make([]int64, len(keys))
	copy(out, keys)

	if !slices.IsSorted(out) {
		slices.Sort(out)
	}

	return out
}
