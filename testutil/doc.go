// Package testutil provides testing utilities for pgmgo.
//
// This package is intended for use in tests and benchmarks only. It provides
// a seeded, thread-safe random source and generators for key distributions
// that stress a position index in different ways: uniform noise, near-linear
// runs, clustered densities, log-uniform spreads and duplicate-heavy
// multisets.
//
// # Key Generation
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.UniformKeys(100_000, -1e12, 1e12) // i.i.d. uniform
//	keys = rng.JitteredKeys(100_000, 0, 1000, 50) // near-linear
//	keys = rng.ZipfKeys(100_000, 1024, 1.2)       // heavy duplicates
//
// # Reference Data
//
//	sorted := testutil.SortedCopy(keys)
package testutil
