package pgmgo

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// FromBitmap creates a list from the set bits of a roaring bitmap, one key
// per bit. Bits are drained in ascending uint64 order; bits above
// math.MaxInt64 reinterpret as negative keys, in which case the normal
// sorting pass puts them back in int64 order.
func FromBitmap(bm *roaring64.Bitmap, optFns ...Option) (*SortedList, error) {
	cfg := applyOptions(optFns)

	buf := make([]int64, 0, bm.GetCardinality())

	it := bm.Iterator()
	for it.HasNext() {
		buf = append(buf, int64(it.Next()))
	}

	presorted := slices.IsSorted(buf)
	if !presorted {
		slices.Sort(buf)
	}

	return adopt(buf, cfg, presorted), nil
}

// Bitmap exports the distinct keys as a roaring bitmap, mapping negative
// keys to their uint64 bit patterns (the inverse of FromBitmap). Bitmaps
// hold each bit at most once, so multiplicity is not preserved.
func (sl *SortedList) Bitmap() *roaring64.Bitmap {
	bm := roaring64.New()

	for _, k := range sl.keys {
		bm.Add(uint64(k))
	}

	return bm
}
