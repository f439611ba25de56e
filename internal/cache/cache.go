// Package cache provides a byte-oriented block cache for immutable blobs.
package cache

// Key identifies a cached block. It must be stable across processes:
// blob name plus block index.
type Key struct {
	// Name identifies the source blob.
	Name string
	// Block is the block index within the blob.
	Block uint64
}

// BlockCache is a cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. Implementations may retain b; the caller must
	// treat it as immutable afterwards.
	Set(key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns hit/miss counters.
	Stats() (hits, misses int64)
}

// Noop is a BlockCache that caches nothing.
type Noop struct{}

func (Noop) Get(Key) ([]byte, bool)        { return nil, false }
func (Noop) Set(Key, []byte)               {}
func (Noop) Invalidate(func(key Key) bool) {}
func (Noop) Stats() (int64, int64)         { return 0, 0 }

var _ BlockCache = Noop{}
