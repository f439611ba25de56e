// Package blobstore abstracts the storage backends that hold snapshot
// files.
//
// A BlobStore reads and writes named blobs. Implementations must be safe
// for concurrent use. The package ships four backends:
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem with mmap-backed reads
//   - s3.Store: Amazon S3 with range reads and parallel multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// CachingStore wraps any of them with a block-level read cache.
//
// Blobs are written once and never modified in place; replacing a blob
// means writing a new one under the same name. Create returns a
// WritableBlob whose content becomes visible only after Close returns
// nil, so readers never observe partial writes.
package blobstore
