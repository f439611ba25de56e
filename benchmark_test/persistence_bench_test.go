package benchmark_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/pgmgo"
	"github.com/hupe1980/pgmgo/persistence"
	"github.com/hupe1980/pgmgo/testutil"
)

// formats lists the snapshot layouts worth comparing: raw is the mmap-able
// baseline, the delta variants trade CPU for size.
var formats = map[string]func(o *persistence.Options){
	"raw": func(o *persistence.Options) {
		o.Encoding = persistence.EncodingRaw
		o.Compression = persistence.CompressionNone
	},
	"delta": func(o *persistence.Options) {
		o.Compression = persistence.CompressionNone
	},
	"delta-lz4": func(o *persistence.Options) {
		o.Compression = persistence.CompressionLZ4
	},
	"delta-zstd": func(o *persistence.Options) {
		o.Compression = persistence.CompressionZSTD
	},
}

func BenchmarkSave(b *testing.B) {
	ctx := context.Background()
	rng := testutil.NewRNG(benchSeed)
	sl := buildList(b, rng.JitteredKeys(benchSize, 0, 1_000, 250))

	for name, optFn := range formats {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(8 * sl.Len()))

			var buf bytes.Buffer
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if err := sl.Save(ctx, &buf, optFn); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportMetric(float64(buf.Len())/float64(sl.Len()), "bytes/key")
		})
	}
}

func BenchmarkLoad(b *testing.B) {
	ctx := context.Background()
	rng := testutil.NewRNG(benchSeed)
	sl := buildList(b, rng.JitteredKeys(benchSize, 0, 1_000, 250))

	for name, optFn := range formats {
		b.Run(name, func(b *testing.B) {
			var buf bytes.Buffer
			if err := sl.Save(ctx, &buf, optFn); err != nil {
				b.Fatal(err)
			}
			snapshot := buf.Bytes()

			b.ReportAllocs()
			b.SetBytes(int64(8 * sl.Len()))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := pgmgo.Load(ctx, bytes.NewReader(snapshot)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLoadMmap(b *testing.B) {
	ctx := context.Background()
	rng := testutil.NewRNG(benchSeed)
	sl := buildList(b, rng.JitteredKeys(benchSize, 0, 1_000, 250))

	path := filepath.Join(b.TempDir(), "bench.pgm")
	if err := sl.SaveFile(ctx, path, formats["raw"]); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		mapped, err := pgmgo.LoadMmapFile(path)
		if err != nil {
			b.Fatal(err)
		}
		if err := mapped.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
