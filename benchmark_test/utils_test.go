package benchmark_test

import (
	"testing"

	"github.com/hupe1980/pgmgo"
	"github.com/hupe1980/pgmgo/index/sampled"
	"github.com/hupe1980/pgmgo/testutil"
)

const (
	benchSeed = 4711
	benchSize = 100_000
)

// datasets returns the key distributions exercised by the build and query
// benchmarks, regenerated deterministically per call.
func datasets() map[string][]int64 {
	rng := testutil.NewRNG(benchSeed)

	return map[string][]int64{
		"uniform":    rng.UniformKeys(benchSize, -1<<40, 1<<40),
		"jittered":   rng.JitteredKeys(benchSize, 0, 1_000, 250),
		"clustered":  rng.ClusteredKeys(benchSize, 32, 0, 1<<40, 10_000),
		"loguniform": rng.LogUniformKeys(benchSize, 1<<40),
		"zipf":       rng.ZipfKeys(benchSize, 4_096, 1.2),
	}
}

// indexConfigs pairs a label with the construction options selecting an
// index family.
func indexConfigs(b *testing.B) map[string][]pgmgo.Option {
	sampledBuilder, err := sampled.NewBuilder()
	if err != nil {
		b.Fatal(err)
	}

	return map[string][]pgmgo.Option{
		"pgm":     nil,
		"sampled": {pgmgo.WithIndex(sampledBuilder)},
	}
}

func buildList(b *testing.B, keys []int64, opts ...pgmgo.Option) *pgmgo.SortedList {
	b.Helper()

	sl, err := pgmgo.New(keys, opts...)
	if err != nil {
		b.Fatal(err)
	}

	return sl
}

// probesFor derives a probe set that mixes present keys with near misses.
func probesFor(keys []int64, n int) []int64 {
	rng := testutil.NewRNG(benchSeed + 1)

	probes := make([]int64, n)
	for i := range probes {
		k := keys[rng.Intn(len(keys))]
		if i%2 == 1 {
			k++ // likely miss next to a hit
		}
		probes[i] = k
	}

	return probes
}
