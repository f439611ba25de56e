package pgmgo

// Stats describes the shape and memory footprint of a list and its position
// index.
type Stats struct {
	// LeafSegments is the number of atoms in the data level of the index:
	// linear segments for a pgm index, samples for a sampled one.
	LeafSegments int
	// DataSizeBytes is the footprint of the key buffer.
	DataSizeBytes int
	// IndexSizeBytes is the footprint of the index structure, excluding
	// the key buffer.
	IndexSizeBytes int
	// Height is the number of index levels.
	Height int
}

// Stats returns construction statistics for the list.
func (sl *SortedList) Stats() Stats {
	return Stats{
		LeafSegments:   sl.idx.Segments(),
		DataSizeBytes:  len(sl.keys) * 8,
		IndexSizeBytes: sl.idx.SizeInBytes(),
		Height:         sl.idx.Height(),
	}
}

// Map returns the stats under their legacy flat keys: "leaf segments",
// "data size", "index size" and "height".
func (s Stats) Map() map[string]uint64 {
	return map[string]uint64{
		"leaf segments": uint64(s.LeafSegments),
		"data size":     uint64(s.DataSizeBytes),
		"index size":    uint64(s.IndexSizeBytes),
		"height":        uint64(s.Height),
	}
}
