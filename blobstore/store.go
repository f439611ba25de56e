package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for storing and retrieving named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	// Returns ErrNotFound if the blob does not exist.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a blob for streaming writes. The content becomes
	// visible under name only after the returned blob is closed without
	// error. Canceling ctx abandons the write: Close then discards the
	// data instead of publishing it.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off. It returns
	// io.EOF when fewer than len(p) bytes remain.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over [off, off+length), clamped to the
	// blob size. The caller must close it.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64

	Close() error
}

// WritableBlob is a write-only handle returned by BlobStore.Create.
type WritableBlob interface {
	io.Writer

	// Sync flushes buffered data where the backend supports it. Object
	// stores commit only on Close and implement Sync as a no-op.
	Sync() error

	// Close finalizes the blob. The write is durable and visible only
	// after Close returns nil. After a write error or a canceled Create
	// context, Close discards the data and returns the error.
	Close() error
}

// Mappable is an optional interface for Blobs that expose their content
// as a memory-mapped byte slice.
type Mappable interface {
	// Bytes returns the underlying byte slice without copying.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// NewReader adapts a Blob into a sequential io.Reader starting at
// offset 0.
func NewReader(ctx context.Context, b Blob) io.Reader {
	return &blobReader{ctx: ctx, blob: b, limit: -1}
}

// NewSectionReader adapts a Blob into a sequential io.Reader over
// [off, off+n).
func NewSectionReader(ctx context.Context, b Blob, off, n int64) io.Reader {
	return &blobReader{ctx: ctx, blob: b, off: off, limit: off + n}
}

type blobReader struct {
	ctx   context.Context
	blob  Blob
	off   int64
	limit int64 // -1 when unbounded
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.limit >= 0 {
		if r.off >= r.limit {
			return 0, io.EOF
		}
		if remaining := r.limit - r.off; int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}

	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	return n, err
}
