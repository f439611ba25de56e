// Package index defines the contract between the sorted key buffer and the
// position indexes that accelerate searches over it.
//
// A position index answers one question: given a query key, which slice of
// the buffer can contain it? The answer is a Position window [Lo, Hi] that is
// guaranteed to enclose every feasible insertion point for the key, so the
// caller can finish with a short binary search instead of scanning the whole
// buffer.
//
// Implementations live in subpackages:
//
//   - index/pgm: piecewise geometric model with a configurable error bound.
//     Sub-linear space, near-constant lookups on smooth key distributions.
//   - index/sampled: fixed-stride sample of the buffer. Simple, predictable,
//     useful as a baseline and for tiny data sets.
//
// Builders are cheap, stateless factories. The list core keeps the Builder it
// was configured with and re-runs it whenever a new buffer is adopted, so a
// derived list (union, difference, slice) always carries a fresh index over
// its own keys.
package index
