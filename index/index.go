package index

import "fmt"

// Position is a window into a sorted key buffer. For the query key that
// produced it, every feasible insertion index i (leftmost and rightmost
// included) satisfies Lo <= i <= Hi, with 0 <= Lo <= Hi <= n for a buffer of
// length n. Element candidates for the key live in buffer[Lo:Hi], so a search
// never has to look outside that slice.
type Position struct {
	// Lo is the lowest candidate insertion index.
	Lo int
	// Hi is the highest candidate insertion index.
	Hi int
}

// Len returns the number of buffer slots covered by the window.
func (p Position) Len() int { return p.Hi - p.Lo }

// String implements fmt.Stringer.
func (p Position) String() string { return fmt.Sprintf("[%d,%d)", p.Lo, p.Hi) }

// Index locates keys in the sorted buffer it was built over. Implementations
// are immutable after construction and safe for concurrent readers.
type Index interface {
	// ApproximatePosition returns a window that encloses every insertion
	// point of key in the underlying buffer. It must hold for any key,
	// including keys that are absent or outside the buffer's key range.
	// An index built over an empty buffer returns the zero Position.
	ApproximatePosition(key int64) Position

	// Segments returns the number of atoms the index is made of: linear
	// segments for a learned index, samples for a sampled one.
	Segments() int

	// Height returns the number of internal levels, zero for an index
	// over an empty buffer.
	Height() int

	// SizeInBytes returns the approximate in-memory footprint of the
	// index structure, excluding the key buffer itself.
	SizeInBytes() int
}

// Builder constructs an Index over a sorted key buffer. Build must accept any
// ascending (duplicates allowed) buffer, including an empty one, and must not
// retain the slice it is given beyond the returned Index.
type Builder interface {
	// Name identifies the index family, e.g. "pgm" or "sampled".
	Name() string

	// Build constructs the index. The keys slice must already be sorted
	// in ascending order.
	Build(keys []int64) Index
}
