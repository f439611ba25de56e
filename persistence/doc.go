// Package persistence provides snapshot serialization for sorted key buffers.
//
// A snapshot is a self-describing binary file holding the key buffer of one
// list. The position index is never stored; it is rebuilt from the buffer on
// load, which keeps the format independent of index implementations.
//
// # File layout
//
// All integers are little-endian.
//
//	FileHeader      64 bytes, CRC32-guarded
//	meta section    MetaLen bytes of codec-encoded Meta, then CRC32
//	padding         zeros up to the next 8-byte boundary
//	payload         raw or delta encoded keys (see below)
//	footer          CRC32 over the payload bytes
//
// Raw payloads store each key as 8 little-endian bytes. Because the payload
// starts on an 8-byte boundary, raw files can be loaded zero-copy via
// MmapKeys on little-endian platforms.
//
// Delta payloads split the keys into blocks of BlockLen. Each block stores
// the first key as a zigzag varint followed by unsigned varint deltas, and
// is wrapped in a frame:
//
//	UncompressedLen uint32
//	StoredLen       uint32  // 0 means stored uncompressed
//	FrameCRC        uint32  // CRC32 of the stored bytes
//	stored bytes
//
// Frames are compressed with LZ4 or ZSTD; incompressible blocks fall back
// to stored form. Block encoding is parallelized across CPUs on save while
// the output order stays deterministic.
//
// # Atomicity
//
// SaveToFile writes through a temp file in the target directory, fsyncs and
// renames, so readers never observe partial snapshots. The Manager adds
// concurrency gating, rate limiting, and blob store transfer on top.
package persistence
