// Package pgm implements a piecewise geometric model index over sorted int64
// keys. The buffer is approximated by a sequence of linear segments, each
// predicting positions within a bounded error, and the segments themselves
// are indexed recursively until a single root segment remains.
//
// Lookups walk the levels from the root down, narrowing a candidate window at
// every step. The window returned for a key is guaranteed to contain both the
// leftmost and the rightmost insertion point of that key, which makes it safe
// for duplicate-heavy buffers where a run of equal keys can span several
// segments.
package pgm

import (
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/pgmgo/index"
)

// Compile time check to ensure Index satisfies the index.Index interface.
var _ index.Index = (*Index)(nil)

// Compile time check to ensure Builder satisfies the index.Builder interface.
var _ index.Builder = (*Builder)(nil)

const segmentBytes = 24 // key (8) + slope (8) + pos (8) on 64-bit platforms

// segment is one linear model: positions near key are predicted as
// pos + slope*(k-key). The segment covers buffer positions [pos, next.pos).
type segment struct {
	key   int64
	slope float64
	pos   int
}

// level is one layer of the recursive structure. Level zero predicts data
// positions, higher levels predict segment indexes of the level below.
type level struct {
	segs []segment
	// err is the verified maximum prediction error of this level. It is
	// measured after fitting with the exact arithmetic used at query time,
	// so lookups stay correct even when float rounding nudges a
	// prediction past the fitting tolerance.
	err int
	// below is the number of entries in the layer this level indexes.
	below int
}

// Options configures the index construction.
type Options struct {
	// Epsilon bounds the prediction error of the data level. Larger
	// values mean fewer segments but wider search windows.
	Epsilon int
	// EpsilonRecursive bounds the prediction error of the internal
	// levels built over segment keys.
	EpsilonRecursive int
}

// DefaultOptions holds the default index options.
var DefaultOptions = Options{
	Epsilon:          64,
	EpsilonRecursive: 4,
}

// Builder constructs pgm indexes with a fixed pair of error bounds.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder, applying the given option functions to
// DefaultOptions. Both error bounds must be at least one.
func NewBuilder(optFns ...func(o *Options)) (*Builder, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Epsilon < 1 {
		return nil, fmt.Errorf("epsilon must be >= 1, got %d", opts.Epsilon)
	}

	if opts.EpsilonRecursive < 1 {
		return nil, fmt.Errorf("epsilon recursive must be >= 1, got %d", opts.EpsilonRecursive)
	}

	return &Builder{opts: opts}, nil
}

// Default is a shared builder with DefaultOptions. It is stateless and safe
// for concurrent use.
var Default = &Builder{opts: DefaultOptions}

// Name implements the index.Builder interface.
func (b *Builder) Name() string { return "pgm" }

// Epsilon returns the configured data-level error bound.
func (b *Builder) Epsilon() int { return b.opts.Epsilon }

// Build implements the index.Builder interface. The keys slice must be
// sorted in ascending order; it is not retained.
func (b *Builder) Build(keys []int64) index.Index {
	ix := &Index{n: len(keys)}

	if len(keys) == 0 {
		return ix
	}

	segs := fitSegments(keys, b.opts.Epsilon)
	ix.levels = append(ix.levels, level{
		segs:  segs,
		err:   verifyError(segs, keys),
		below: len(keys),
	})

	for {
		top := ix.levels[len(ix.levels)-1].segs
		if len(top) == 1 {
			break
		}

		skeys := make([]int64, len(top))
		for i, s := range top {
			skeys[i] = s.key
		}

		next := fitSegments(skeys, b.opts.EpsilonRecursive)
		ix.levels = append(ix.levels, level{
			segs:  next,
			err:   verifyError(next, skeys),
			below: len(skeys),
		})
	}

	return ix
}

// Index is an immutable piecewise geometric model. The zero value is an
// index over an empty buffer.
type Index struct {
	n      int
	levels []level // levels[0] is the data level, the last one is the root
}

// ApproximatePosition implements the index.Index interface. The returned
// window contains every insertion point of key, for present and absent keys
// alike.
func (ix *Index) ApproximatePosition(key int64) index.Position {
	if ix.n == 0 {
		return index.Position{}
	}

	root := ix.levels[len(ix.levels)-1]
	if key < root.segs[0].key {
		return index.Position{}
	}

	winLo, winHi := 0, len(root.segs)

	for li := len(ix.levels) - 1; li >= 0; li-- {
		lvl := ix.levels[li]

		// a owns the leftmost insertion point, b the rightmost. They
		// differ when a run of equal keys straddles a segment border.
		a := searchSegGE(lvl.segs, key, winLo, winHi) - 1
		if a < 0 {
			a = 0
		}

		b := searchSegGT(lvl.segs, key, winLo, winHi) - 1

		lo := lvl.start(a)
		if p := lvl.predict(a, key) - lvl.err; p > lo {
			lo = p
		}

		hi := lvl.start(b + 1)
		if p := lvl.predict(b, key) + lvl.err + 1; p < hi {
			hi = p
		}

		if li == 0 {
			if hi > ix.n {
				hi = ix.n
			}

			return index.Position{Lo: lo, Hi: hi}
		}

		// Segment a of the next level sits one slot before the lowest
		// feasible insertion point, so widen the window by one.
		winLo = lo - 1
		if winLo < 0 {
			winLo = 0
		}

		winHi = hi
	}

	return index.Position{Lo: 0, Hi: ix.n} // unreachable
}

// Segments implements the index.Index interface. It reports the number of
// data-level segments.
func (ix *Index) Segments() int {
	if len(ix.levels) == 0 {
		return 0
	}

	return len(ix.levels[0].segs)
}

// Height implements the index.Index interface.
func (ix *Index) Height() int { return len(ix.levels) }

// SizeInBytes implements the index.Index interface.
func (ix *Index) SizeInBytes() int {
	total := 0
	for _, lvl := range ix.levels {
		total += len(lvl.segs) * segmentBytes
	}

	return total
}

// start returns the first position covered by segment i, or the total entry
// count of the layer below for i == len(segs).
func (l level) start(i int) int {
	if i >= len(l.segs) {
		return l.below
	}

	return l.segs[i].pos
}

// predict evaluates segment si at key and clamps the result into the
// positions the segment covers. The clamp keeps predictions monotone across
// segment borders and caps them at the layer size.
func (l level) predict(si int, key int64) int {
	s := l.segs[si]

	p := int(math.Floor(float64(s.pos) + s.slope*(float64(key)-float64(s.key))))
	if p < s.pos {
		p = s.pos
	}

	if next := l.start(si + 1); p > next {
		p = next
	}

	return p
}

// searchSegGE returns the index of the first segment in [lo, hi) whose key is
// >= key, or hi if there is none.
func searchSegGE(segs []segment, key int64, lo, hi int) int {
	return lo + sort.Search(hi-lo, func(i int) bool {
		return segs[lo+i].key >= key
	})
}

// searchSegGT returns the index of the first segment in [lo, hi) whose key is
// > key, or hi if there is none.
func searchSegGT(segs []segment, key int64, lo, hi int) int {
	return lo + sort.Search(hi-lo, func(i int) bool {
		return segs[lo+i].key > key
	})
}

// fitSegments runs a greedy shrinking-cone fit over the ascending keys and
// returns segments covering every position. eps must be >= 1, which also
// guarantees that every segment absorbs at least two points and the
// recursive construction terminates.
func fitSegments(keys []int64, eps int) []segment {
	var segs []segment

	start := 0
	slLo, slHi := math.Inf(-1), math.Inf(1)

	closeSegment := func() {
		segs = append(segs, segment{
			key:   keys[start],
			slope: chooseSlope(slLo, slHi),
			pos:   start,
		})
	}

	for i := 1; i < len(keys); i++ {
		dx := float64(keys[i]) - float64(keys[start])
		dy := float64(i - start)

		if dx == 0 {
			// Same key as the origin: the intercept alone must
			// absorb the offset.
			if dy <= float64(eps) {
				continue
			}
		} else {
			lo := (dy - float64(eps)) / dx
			if lo < slLo {
				lo = slLo
			}

			hi := (dy + float64(eps)) / dx
			if hi > slHi {
				hi = slHi
			}

			if lo <= hi {
				slLo, slHi = lo, hi
				continue
			}
		}

		closeSegment()

		start = i
		slLo, slHi = math.Inf(-1), math.Inf(1)
	}

	closeSegment()

	return segs
}

// chooseSlope picks a non-negative slope from the feasible interval. A
// negative slope would break prediction monotonicity, and zero is always
// admissible when the upper bound is open.
func chooseSlope(lo, hi float64) float64 {
	if math.IsInf(hi, 1) {
		return 0
	}

	s := (lo + hi) / 2
	if s < 0 {
		return 0
	}

	return s
}

// verifyError measures the worst prediction error of a fitted level against
// the keys it was built over, using the same arithmetic as lookups. The
// result replaces the nominal epsilon in the window math, so the containment
// guarantee does not depend on float rounding behaving like real numbers.
func verifyError(segs []segment, keys []int64) int {
	lvl := level{segs: segs, below: len(keys)}

	maxErr := 0
	si := 0

	for i, k := range keys {
		for si+1 < len(segs) && segs[si+1].pos <= i {
			si++
		}

		d := lvl.predict(si, k) - i
		if d < 0 {
			d = -d
		}

		if d > maxErr {
			maxErr = d
		}
	}

	return maxErr
}
