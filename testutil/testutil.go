package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random int64 in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// UniformKeys generates n i.i.d. keys uniform in [lo, hi), unsorted.
// Uniform data is the friendly case for a piecewise-linear position index:
// rank grows linearly in the key, so few segments suffice.
func (r *RNG) UniformKeys(n int, lo, hi int64) []int64 {
	if hi <= lo {
		panic("testutil: UniformKeys needs lo < hi")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	span := uint64(hi - lo)
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = lo + int64(r.rand.Uint64()%span)
	}

	return keys
}

// JitteredKeys generates n keys along the arithmetic progression
// start + i*step, each displaced by uniform noise in [-jitter, jitter].
// This models timestamps and auto-increment identifiers: near-linear with
// local disorder. The result is unsorted when jitter exceeds step.
func (r *RNG) JitteredKeys(n int, start, step, jitter int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]int64, n)
	for i := range keys {
		keys[i] = start + int64(i)*step
		if jitter > 0 {
			keys[i] += r.rand.Int63n(2*jitter+1) - jitter
		}
	}

	return keys
}

// ClusteredKeys generates n keys gathered around `clusters` random centers
// in [lo, hi), with Gaussian spread around each center. Clustered data has
// sharply varying local density, which forces a learned index to spend
// segments where keys bunch up.
func (r *RNG) ClusteredKeys(n, clusters int, lo, hi int64, spread int64) []int64 {
	if hi <= lo {
		panic("testutil: ClusteredKeys needs lo < hi")
	}
	if clusters < 1 {
		clusters = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	span := uint64(hi - lo)
	centers := make([]int64, clusters)
	for i := range centers {
		centers[i] = lo + int64(r.rand.Uint64()%span)
	}

	keys := make([]int64, n)
	for i := range keys {
		c := centers[i%clusters]
		k := c + int64(r.rand.NormFloat64()*float64(spread))

		// Clamp into the requested interval.
		keys[i] = min(max(k, lo), hi-1)
	}

	return keys
}

// LogUniformKeys generates n keys whose magnitudes are uniform in log space
// over [1, maxKey]. Exponentially growing gaps are the adversarial case for
// piecewise-linear models: no linear segment covers many keys.
func (r *RNG) LogUniformKeys(n int, maxKey int64) []int64 {
	if maxKey < 2 {
		panic("testutil: LogUniformKeys needs maxKey >= 2")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	logMax := math.Log(float64(maxKey))
	keys := make([]int64, n)
	for i := range keys {
		k := int64(math.Exp(r.rand.Float64() * logMax))
		keys[i] = min(max(k, 1), maxKey)
	}

	return keys
}

// ZipfKeys generates a duplicate-heavy multiset of n keys drawn from
// `distinct` values with Zipfian multiplicities: P(k) ∝ 1/(k+1)^s.
// s=1.0 gives standard Zipf, s=1.5 gives heavy tail (80/20 rule).
// Real-world multisets (event types, user ids) are distributed this way.
func (r *RNG) ZipfKeys(n, distinct int, s float64) []int64 {
	if distinct < 1 {
		panic("testutil: ZipfKeys needs distinct >= 1")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Cumulative mass per value, computed once; sampling is then a binary
	// search per key.
	cum := make([]float64, distinct)
	var total float64
	for k := range cum {
		total += 1.0 / math.Pow(float64(k+1), s)
		cum[k] = total
	}

	keys := make([]int64, n)
	for i := range keys {
		u := r.rand.Float64() * total
		pos, _ := slices.BinarySearch(cum, u)
		if pos >= distinct {
			pos = distinct - 1
		}
		keys[i] = int64(pos)
	}

	return keys
}

// SequentialKeys returns the exact arithmetic progression start + i*step,
// already sorted for step >= 0. A single linear segment fits it perfectly.
func SequentialKeys(n int, start, step int64) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = start + int64(i)*step
	}

	return keys
}

// SortedCopy returns an ascending copy of keys, leaving the input untouched.
// Use it as ground truth next to a list built from the unsorted original.
func SortedCopy(keys []int64) []int64 {
	out := slices.Clone(keys)
	slices.Sort(out)

	return out
}
