package benchmark_test

import (
	"slices"
	"testing"

	"github.com/hupe1980/pgmgo"
	"github.com/hupe1980/pgmgo/testutil"
)

func BenchmarkBuild(b *testing.B) {
	for name, keys := range datasets() {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(8 * len(keys)))

			for i := 0; i < b.N; i++ {
				sl := buildList(b, keys)
				_ = sl.Len()
			}
		})
	}
}

func BenchmarkBuildPresorted(b *testing.B) {
	keys := testutil.SortedCopy(datasets()["uniform"])

	b.ReportAllocs()
	b.SetBytes(int64(8 * len(keys)))

	for i := 0; i < b.N; i++ {
		sl, err := pgmgo.NewFromSorted(keys)
		if err != nil {
			b.Fatal(err)
		}
		_ = sl.Len()
	}
}

func BenchmarkContains(b *testing.B) {
	keys := datasets()["uniform"]
	probes := probesFor(keys, 1<<14)

	for name, opts := range indexConfigs(b) {
		b.Run(name, func(b *testing.B) {
			sl := buildList(b, keys, opts...)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = sl.Contains(probes[i%len(probes)])
			}
		})
	}

	// Plain binary search over the sorted buffer, as the no-index floor.
	b.Run("binsearch", func(b *testing.B) {
		sorted := testutil.SortedCopy(keys)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = slices.BinarySearch(sorted, probes[i%len(probes)])
		}
	})
}

func BenchmarkContainsByDistribution(b *testing.B) {
	for name, keys := range datasets() {
		b.Run(name, func(b *testing.B) {
			sl := buildList(b, keys)
			probes := probesFor(keys, 1<<14)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = sl.Contains(probes[i%len(probes)])
			}
		})
	}
}

func BenchmarkRank(b *testing.B) {
	keys := datasets()["clustered"]
	probes := probesFor(keys, 1<<14)

	for name, opts := range indexConfigs(b) {
		b.Run(name, func(b *testing.B) {
			sl := buildList(b, keys, opts...)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = sl.Rank(probes[i%len(probes)])
			}
		})
	}
}

func BenchmarkCount(b *testing.B) {
	keys := datasets()["zipf"] // heavy duplicates make Count do real work
	probes := probesFor(keys, 1<<14)

	sl := buildList(b, keys)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sl.Count(probes[i%len(probes)])
	}
}

func BenchmarkFindGe(b *testing.B) {
	keys := datasets()["loguniform"]
	probes := probesFor(keys, 1<<14)

	sl := buildList(b, keys)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = sl.FindGe(probes[i%len(probes)])
	}
}

func BenchmarkRange(b *testing.B) {
	keys := datasets()["uniform"]
	sl := buildList(b, keys)
	sorted := testutil.SortedCopy(keys)

	// Windows of ~1k keys each.
	width := (sorted[len(sorted)-1] - sorted[0]) / int64(len(sorted)/1_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		low := sorted[(i*997)%len(sorted)]

		n := 0
		for range sl.Range(low, low+width) {
			n++
		}
	}
}

func BenchmarkAt(b *testing.B) {
	sl := buildList(b, datasets()["uniform"])

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sl.At(i % sl.Len()); err != nil {
			b.Fatal(err)
		}
	}
}
