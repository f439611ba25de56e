// Package sampled implements a fixed-stride position index: every interval-th
// key of the buffer is kept as a sample, and lookups binary search the
// samples to bracket the query. It trades the learned model of index/pgm for
// predictability and serves as the reference implementation of the window
// contract.
package sampled

import (
	"fmt"
	"sort"

	"github.com/hupe1980/pgmgo/index"
)

// Compile time check to ensure Index satisfies the index.Index interface.
var _ index.Index = (*Index)(nil)

// Compile time check to ensure Builder satisfies the index.Builder interface.
var _ index.Builder = (*Builder)(nil)

// Options configures the index construction.
type Options struct {
	// Interval is the sampling stride. Lookup windows span at most
	// Interval+1 buffer slots per consulted sample.
	Interval int
}

// DefaultOptions holds the default index options.
var DefaultOptions = Options{
	Interval: 32,
}

// Builder constructs sampled indexes with a fixed stride.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder, applying the given option functions to
// DefaultOptions. The interval must be at least one.
func NewBuilder(optFns ...func(o *Options)) (*Builder, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Interval < 1 {
		return nil, fmt.Errorf("interval must be >= 1, got %d", opts.Interval)
	}

	return &Builder{opts: opts}, nil
}

// Default is a shared builder with DefaultOptions. It is stateless and safe
// for concurrent use.
var Default = &Builder{opts: DefaultOptions}

// Name implements the index.Builder interface.
func (b *Builder) Name() string { return "sampled" }

// Interval returns the configured sampling stride.
func (b *Builder) Interval() int { return b.opts.Interval }

// Build implements the index.Builder interface. The keys slice must be
// sorted in ascending order; it is not retained.
func (b *Builder) Build(keys []int64) index.Index {
	ix := &Index{n: len(keys), interval: b.opts.Interval}

	for i := 0; i < len(keys); i += b.opts.Interval {
		ix.samples = append(ix.samples, keys[i])
	}

	return ix
}

// Index is an immutable stride sample of a sorted buffer. The zero value is
// an index over an empty buffer.
type Index struct {
	n        int
	interval int
	samples  []int64
}

// ApproximatePosition implements the index.Index interface.
func (ix *Index) ApproximatePosition(key int64) index.Position {
	if ix.n == 0 {
		return index.Position{}
	}

	if key < ix.samples[0] {
		return index.Position{}
	}

	// Sample a is the last one strictly below key, so everything before
	// position a*interval is below key as well. Sample b is the last one
	// not above key, so everything from position (b+1)*interval on is
	// above key.
	a := sort.Search(len(ix.samples), func(i int) bool { return ix.samples[i] >= key }) - 1
	if a < 0 {
		a = 0
	}

	b := sort.Search(len(ix.samples), func(i int) bool { return ix.samples[i] > key }) - 1

	lo := a * ix.interval

	hi := (b + 1) * ix.interval
	if hi > ix.n {
		hi = ix.n
	}

	return index.Position{Lo: lo, Hi: hi}
}

// Segments implements the index.Index interface. It reports the number of
// retained samples.
func (ix *Index) Segments() int { return len(ix.samples) }

// Height implements the index.Index interface.
func (ix *Index) Height() int {
	if ix.n == 0 {
		return 0
	}

	return 1
}

// SizeInBytes implements the index.Index interface.
func (ix *Index) SizeInBytes() int { return len(ix.samples) * 8 }
