package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MagicNumber identifies snapshot files (ASCII: "PGM1").
	MagicNumber = 0x50474D31
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	headerSize      = 64
	frameHeaderSize = 12
)

// Encoding selects the key payload layout.
type Encoding uint8

const (
	// EncodingRaw stores keys as fixed 8-byte little-endian words.
	// Raw payloads are 8-aligned and can be loaded zero-copy via MmapKeys.
	EncodingRaw Encoding = 1
	// EncodingDelta stores keys as varint deltas in compressible blocks.
	EncodingDelta Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "raw"
	case EncodingDelta:
		return "delta"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

var (
	ErrInvalidMagic       = errors.New("invalid magic number")
	ErrInvalidVersion     = errors.New("unsupported version")
	ErrUnknownEncoding    = errors.New("unknown encoding")
	ErrUnknownCompression = errors.New("unknown compression")
)

// FileHeader is the 64-byte header at the start of every snapshot file.
// The trailing CRC guards the preceding 60 bytes.
type FileHeader struct {
	Magic       uint32
	Version     uint32
	Encoding    Encoding
	Compression CompressionType
	_           [2]byte
	BlockLen    uint32 // keys per delta block; 0 for raw
	Count       uint64 // number of keys
	MinKey      int64  // 0 when Count == 0
	MaxKey      int64  // 0 when Count == 0
	MetaLen     uint32 // length of the codec-encoded meta section
	_           [16]byte
	HeaderCRC   uint32
}

// MarshalBinary serializes the header and stamps its CRC.
func (h FileHeader) MarshalBinary() ([]byte, error) {
	h.Magic = MagicNumber
	h.Version = Version
	h.HeaderCRC = 0

	var buf bytes.Buffer
	buf.Grow(headerSize)
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}

	b := buf.Bytes()
	binary.LittleEndian.PutUint32(b[headerSize-4:], Checksum(b[:headerSize-4]))
	return b, nil
}

// parseHeader validates and decodes a serialized header.
func parseHeader(b []byte) (FileHeader, error) {
	var h FileHeader
	if len(b) < headerSize {
		return h, io.ErrUnexpectedEOF
	}
	if err := binary.Read(bytes.NewReader(b[:headerSize]), binary.LittleEndian, &h); err != nil {
		return h, err
	}

	if h.Magic != MagicNumber {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}
	if got := Checksum(b[:headerSize-4]); got != h.HeaderCRC {
		return h, &ChecksumMismatchError{Section: "header", Expected: h.HeaderCRC, Actual: got}
	}

	switch h.Encoding {
	case EncodingRaw, EncodingDelta:
	default:
		return h, fmt.Errorf("%w: %d", ErrUnknownEncoding, h.Encoding)
	}
	switch h.Compression {
	case CompressionNone, CompressionLZ4, CompressionZSTD:
	default:
		return h, fmt.Errorf("%w: %d", ErrUnknownCompression, h.Compression)
	}
	if h.Encoding == EncodingRaw && h.Compression != CompressionNone {
		return h, fmt.Errorf("%w: raw payloads are never compressed", ErrUnknownCompression)
	}
	if h.Encoding == EncodingDelta && h.Count > 0 && h.BlockLen == 0 {
		return h, fmt.Errorf("%w: delta payload without block length", ErrUnknownEncoding)
	}

	return h, nil
}

// readHeader reads and validates a header from r.
func readHeader(r io.Reader) (FileHeader, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return FileHeader{}, err
	}
	return parseHeader(buf[:])
}

// payloadOffset returns the 8-aligned file offset of the key payload for a
// meta section of the given length.
func payloadOffset(metaLen uint32) int {
	end := headerSize + int(metaLen) + checksumSize
	return (end + 7) &^ 7
}
