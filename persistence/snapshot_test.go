package persistence

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/hupe1980/pgmgo/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialKeys(n int) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(i*3 - n)
	}
	return keys
}

func TestSnapshotRoundtrip(t *testing.T) {
	ctx := context.Background()

	encodings := []struct {
		name        string
		encoding    Encoding
		compression CompressionType
	}{
		{"raw", EncodingRaw, CompressionNone},
		{"delta-none", EncodingDelta, CompressionNone},
		{"delta-lz4", EncodingDelta, CompressionLZ4},
		{"delta-zstd", EncodingDelta, CompressionZSTD},
	}

	keySets := map[string][]int64{
		"empty":      {},
		"single":     {42},
		"duplicates": {-7, -7, -7, 0, 0, 3, 3, 3, 3},
		"negatives":  {math.MinInt64, -1 << 40, -55, -1},
		"full-range": {math.MinInt64, math.MinInt64, -1, 0, 1, math.MaxInt64, math.MaxInt64},
		"dense":      sequentialKeys(20001),
	}

	for _, enc := range encodings {
		t.Run(enc.name, func(t *testing.T) {
			for name, keys := range keySets {
				var buf bytes.Buffer
				err := Save(ctx, &buf, keys, nil, func(o *Options) {
					o.Encoding = enc.encoding
					o.Compression = enc.compression
				})
				require.NoError(t, err, "save %s", name)

				got, meta, err := Load(ctx, bytes.NewReader(buf.Bytes()))
				require.NoError(t, err, "load %s", name)
				require.Equal(t, keys, got, "keys %s", name)

				require.Equal(t, uint64(len(keys)), meta.Count)
				if len(keys) > 0 {
					require.Equal(t, keys[0], meta.MinKey)
					require.Equal(t, keys[len(keys)-1], meta.MaxKey)
				}
			}
		})
	}
}

func TestSnapshotSmallBlocks(t *testing.T) {
	ctx := context.Background()
	keys := sequentialKeys(1000)

	// BlockLen 7 forces many blocks plus a partial tail block.
	var buf bytes.Buffer
	err := Save(ctx, &buf, keys, nil, func(o *Options) {
		o.BlockLen = 7
		o.Parallelism = 4
	})
	require.NoError(t, err)

	got, _, err := Load(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, keys, got)
}

func TestSnapshotMetaStamping(t *testing.T) {
	ctx := context.Background()
	keys := []int64{-5, 1, 9}

	var buf bytes.Buffer
	err := Save(ctx, &buf, keys, &Meta{
		Name:  "ledger-keys",
		Index: "pgm(64,4)",
		Count: 999, // overwritten by Save
	})
	require.NoError(t, err)

	_, meta, err := Load(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, "ledger-keys", meta.Name)
	assert.Equal(t, "pgm(64,4)", meta.Index)
	assert.Equal(t, uint64(3), meta.Count)
	assert.Equal(t, int64(-5), meta.MinKey)
	assert.Equal(t, int64(9), meta.MaxKey)
	assert.Equal(t, "go-json", meta.Codec)
	assert.False(t, meta.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), meta.CreatedAt, time.Minute)
}

func TestSnapshotPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	var buf bytes.Buffer
	err := Save(ctx, &buf, []int64{1}, &Meta{CreatedAt: created})
	require.NoError(t, err)

	_, meta, err := Load(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.True(t, meta.CreatedAt.Equal(created))
}

func TestSnapshotCodecOption(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	err := Save(ctx, &buf, []int64{1, 2}, nil, func(o *Options) {
		o.Codec = codec.JSON{}
	})
	require.NoError(t, err)

	// Meta stays readable by the default loader regardless of the codec
	// that produced it.
	_, meta, err := Load(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "json", meta.Codec)
}

func TestSnapshotOptionValidation(t *testing.T) {
	ctx := context.Background()
	keys := []int64{1, 2, 3}

	var buf bytes.Buffer

	err := Save(ctx, &buf, keys, nil, func(o *Options) { o.BlockLen = 0 })
	require.ErrorContains(t, err, "block length")

	err = Save(ctx, &buf, keys, nil, func(o *Options) {
		o.Encoding = EncodingRaw
		o.Compression = CompressionZSTD
	})
	require.ErrorContains(t, err, "raw encoding")

	err = Save(ctx, &buf, keys, nil, func(o *Options) { o.Encoding = Encoding(9) })
	require.ErrorIs(t, err, ErrUnknownEncoding)

	err = Save(ctx, &buf, keys, nil, func(o *Options) { o.Compression = CompressionType(9) })
	require.ErrorIs(t, err, ErrUnknownCompression)
}

func TestSnapshotPayloadCorruption(t *testing.T) {
	ctx := context.Background()
	keys := sequentialKeys(500)

	t.Run("RawFooter", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Save(ctx, &buf, keys, nil, func(o *Options) {
			o.Encoding = EncodingRaw
			o.Compression = CompressionNone
		}))

		data := buf.Bytes()
		data[len(data)-100] ^= 0x01

		_, _, err := Load(ctx, bytes.NewReader(data))
		require.True(t, IsChecksumMismatch(err), "got %v", err)
	})

	t.Run("DeltaBlock", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Save(ctx, &buf, keys, nil))

		// Flip a byte in the first block's stored bytes: the frame CRC
		// catches it before the payload footer is even reached.
		data := buf.Bytes()
		data[payloadOffset(metaLenOf(t, data))+frameHeaderSize] ^= 0x01

		_, _, err := Load(ctx, bytes.NewReader(data))
		require.True(t, IsChecksumMismatch(err), "got %v", err)

		var mismatch *ChecksumMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "block 0", mismatch.Section)
	})

	t.Run("Meta", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Save(ctx, &buf, keys, &Meta{Name: "corrupt-me"}))

		data := buf.Bytes()
		data[headerSize+2] ^= 0x01

		_, _, err := Load(ctx, bytes.NewReader(data))
		require.True(t, IsChecksumMismatch(err), "got %v", err)

		var mismatch *ChecksumMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "meta", mismatch.Section)
	})
}

func metaLenOf(t *testing.T, data []byte) uint32 {
	t.Helper()
	header, err := parseHeader(data)
	require.NoError(t, err)
	return header.MetaLen
}

func TestSnapshotTruncated(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, Save(ctx, &buf, sequentialKeys(100), nil))
	data := buf.Bytes()

	for _, cut := range []int{0, 1, headerSize - 1, headerSize + 3, len(data) / 2, len(data) - 1} {
		_, _, err := Load(ctx, bytes.NewReader(data[:cut]))
		require.Error(t, err, "cut=%d", cut)
	}
}

func TestReadMeta(t *testing.T) {
	ctx := context.Background()
	keys := sequentialKeys(256)

	var buf bytes.Buffer
	require.NoError(t, Save(ctx, &buf, keys, &Meta{Name: "peek"}, func(o *Options) {
		o.BlockLen = 64
	}))

	header, meta, err := ReadMeta(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, EncodingDelta, header.Encoding)
	assert.Equal(t, CompressionZSTD, header.Compression)
	assert.Equal(t, uint32(64), header.BlockLen)
	assert.Equal(t, uint64(256), header.Count)
	assert.Equal(t, keys[0], header.MinKey)
	assert.Equal(t, keys[len(keys)-1], header.MaxKey)

	assert.Equal(t, "peek", meta.Name)
	assert.Equal(t, uint64(256), meta.Count)
}

func TestSnapshotContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Save(ctx, &buf, sequentialKeys(100000), nil)
	require.ErrorIs(t, err, context.Canceled)
}
