package pgmgo

// Close releases resources held by this list.
//
// This is only relevant for lists loaded with LoadMmapFile, whose key buffer
// is a view into a mapped file; heap-backed lists have nothing to release.
// After Close the list must not be used.
func (sl *SortedList) Close() error {
	if sl == nil {
		return nil
	}

	if sl.mmapCloser != nil {
		err := sl.mmapCloser.Close()
		sl.mmapCloser = nil

		return err
	}

	return nil
}
