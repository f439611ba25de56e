// Package mmap provides read-only memory-mapped file access.
//
// Memory mapping lets snapshot loaders hand out key buffers that alias the
// file contents directly, without copying them through the Go heap. The
// mapping must stay alive for as long as any view into it is in use.
//
// Usage:
//
//	m, err := mmap.Open("snapshot.pgm")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessRandom)
//
// Unix platforms use mmap(2) with madvise(2) for access hints; Windows uses
// CreateFileMapping/MapViewOfFile and treats Advise as a no-op.
//
// Bytes is safe for concurrent reads. Close is idempotent, but callers must
// ensure no goroutine touches the returned slice after Close returns.
package mmap
