package pgmgo

import (
	"slices"
	"time"
)

// Slice returns a new list holding the keys selected by the Python slice
// expression [start:stop:step]. Negative positions count from the end and
// out-of-range positions clamp, exactly like CPython's slice normalization;
// an empty selection is a valid empty list, not an error. Only step == 0 is
// rejected, with ErrInvalidSliceStep.
//
// A descending slice that should run through the first element needs a stop
// of -Len()-1 or less, the same contortion Python requires.
//
// A step of 1 extracts an ascending run and skips the sorting pass; any
// other step goes through the possibly-unsorted construction path.
func (sl *SortedList) Slice(start, stop, step int) (*SortedList, error) {
	if step == 0 {
		return nil, ErrInvalidSliceStep
	}

	began := time.Now()

	n := len(sl.keys)
	start = adjustSliceIndex(start, n, step)
	stop = adjustSliceIndex(stop, n, step)

	length := 0

	if step > 0 {
		if start < stop {
			length = (stop-start-1)/step + 1
		}
	} else {
		if stop < start {
			length = (start-stop-1)/(-step) + 1
		}
	}

	out := make([]int64, 0, length)
	for i, pos := 0, start; i < length; i, pos = i+1, pos+step {
		out = append(out, sl.keys[pos])
	}

	var res *SortedList

	if step == 1 {
		res = adopt(out, sl.cfg, true)
	} else {
		presorted := slices.IsSorted(out)
		if !presorted {
			slices.Sort(out)
		}

		res = adopt(out, sl.cfg, presorted)
	}

	duration := time.Since(began)
	sl.cfg.metricsCollector.RecordMerge(MergeSlice, res.Len(), duration)
	sl.cfg.logger.LogMerge(MergeSlice, sl.Len(), 0, res.Len(), duration)

	return res, nil
}

// adjustSliceIndex normalizes one slice bound against length n, mirroring
// CPython's PySlice_AdjustIndices: negative values count from the end and
// the clamping floor and ceiling depend on the iteration direction.
func adjustSliceIndex(i, n, step int) int {
	if i < 0 {
		i += n
		if i < 0 {
			if step < 0 {
				return -1
			}

			return 0
		}

		return i
	}

	if i >= n {
		if step < 0 {
			return n - 1
		}

		return n
	}

	return i
}
