// Package pgmgo provides a sorted in-memory container for int64 keys backed
// by a learned position index.
//
// This file implements the incremental Builder API for staged ingestion.
package pgmgo

import (
	"iter"
	"slices"
)

// Builder accumulates keys incrementally and builds a SortedList once at the
// end of ingestion. Feeding a builder is cheaper than unioning many small
// lists: keys are buffered unsorted and the single sorting pass runs at
// Build time.
//
// Methods return the receiver for chaining. A Builder is not safe for
// concurrent use.
type Builder struct {
	keys   []int64
	optFns []Option
}

// NewBuilder creates an empty builder. The options are applied to the list
// produced by Build.
func NewBuilder(optFns ...Option) *Builder {
	return &Builder{optFns: optFns}
}

// Add appends keys in any order.
func (b *Builder) Add(keys ...int64) *Builder {
	b.keys = append(b.keys, keys...)

	return b
}

// AddSeq drains the sequence into the builder.
func (b *Builder) AddSeq(seq iter.Seq[int64]) *Builder {
	for k := range seq {
		b.keys = append(b.keys, k)
	}

	return b
}

// Grow reserves capacity for at least n more keys, for callers that know
// their ingestion size up front.
func (b *Builder) Grow(n int) *Builder {
	b.keys = slices.Grow(b.keys, n)

	return b
}

// Len returns the number of keys accumulated so far.
func (b *Builder) Len() int { return len(b.keys) }

// Build constructs the list and resets the builder. The accumulated buffer
// is handed over, not copied, so the builder is empty afterwards and can be
// reused for a new ingestion round.
func (b *Builder) Build() (*SortedList, error) {
	cfg := applyOptions(b.optFns)

	buf := b.keys
	b.keys = nil

	presorted := slices.IsSorted(buf)
	if !presorted {
		slices.Sort(buf)
	}

	return adopt(buf, cfg, presorted), nil
}
