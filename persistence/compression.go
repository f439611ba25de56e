package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the block compression algorithm.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 block compression (fastest).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// encodeFrame wraps a plain block in a frame:
// [UncompressedLen uint32][StoredLen uint32][FrameCRC uint32][stored bytes].
// StoredLen == 0 means the block is stored uncompressed; the stored bytes
// then span UncompressedLen. The CRC covers the stored bytes.
//
// Blocks that do not shrink below 90% of their plain size are stored
// uncompressed so decompression never costs more than it saves.
func encodeFrame(plain []byte, compression CompressionType) ([]byte, error) {
	var compressed []byte

	switch compression {
	case CompressionNone:
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(plain))
		buf := make([]byte, bound)
		n, err := lz4.CompressBlock(plain, buf, nil)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			compressed = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(plain, nil)
		putZstdEncoder(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, compression)
	}

	stored := plain
	storedLen := uint32(0)
	if len(compressed) > 0 && float64(len(compressed)) <= float64(len(plain))*0.9 {
		stored = compressed
		storedLen = uint32(len(compressed))
	}

	frame := make([]byte, frameHeaderSize+len(stored))
	binary.LittleEndian.PutUint32(frame[0:], uint32(len(plain)))
	binary.LittleEndian.PutUint32(frame[4:], storedLen)
	binary.LittleEndian.PutUint32(frame[8:], Checksum(stored))
	copy(frame[frameHeaderSize:], stored)
	return frame, nil
}

// decodeFrameFrom reads one frame from r and returns the plain block bytes.
// maxPlain bounds the uncompressed size a frame may claim, so corrupt
// headers cannot trigger unbounded allocations. section names the frame in
// checksum errors.
func decodeFrameFrom(r io.Reader, compression CompressionType, maxPlain int, section string) ([]byte, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	uncompressedLen := binary.LittleEndian.Uint32(hdr[0:])
	storedLen := binary.LittleEndian.Uint32(hdr[4:])
	frameCRC := binary.LittleEndian.Uint32(hdr[8:])

	if int(uncompressedLen) > maxPlain {
		return nil, fmt.Errorf("persistence: frame %s claims %d bytes, limit %d", section, uncompressedLen, maxPlain)
	}

	readLen := storedLen
	if readLen == 0 {
		readLen = uncompressedLen
	}

	stored := make([]byte, readLen)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, err
	}
	if got := Checksum(stored); got != frameCRC {
		return nil, &ChecksumMismatchError{Section: section, Expected: frameCRC, Actual: got}
	}

	if storedLen == 0 {
		return stored, nil
	}

	plain := make([]byte, uncompressedLen)
	switch compression {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(stored, plain)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedLen {
			return nil, fmt.Errorf("persistence: frame %s decompressed to %d bytes, want %d", section, n, uncompressedLen)
		}
		return plain, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(stored, plain[:0])
		putZstdDecoder(dec)
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedLen {
			return nil, fmt.Errorf("persistence: frame %s decompressed to %d bytes, want %d", section, len(decoded), uncompressedLen)
		}
		return decoded, nil
	default:
		// CompressionNone with a non-zero StoredLen is malformed.
		return nil, fmt.Errorf("%w: compressed frame in %s payload", ErrUnknownCompression, compression)
	}
}
