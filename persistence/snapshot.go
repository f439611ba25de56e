package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/hupe1980/pgmgo/codec"
	"golang.org/x/sync/errgroup"
)

const (
	// rawChunkKeys is the number of keys encoded per write on the raw path.
	rawChunkKeys = 8192

	// maxMetaLen bounds the meta section so corrupt-but-plausible headers
	// cannot trigger unbounded allocations.
	maxMetaLen = 1 << 20
)

// Meta is the codec-encoded metadata section of a snapshot.
//
// Count, MinKey, MaxKey and Codec are stamped on save; Name and Index are
// caller-provided labels (Index records the position index builder the
// list was using, purely informational).
type Meta struct {
	Name      string    `json:"name,omitempty"`
	Count     uint64    `json:"count"`
	MinKey    int64     `json:"min_key"`
	MaxKey    int64     `json:"max_key"`
	Index     string    `json:"index,omitempty"`
	Codec     string    `json:"codec"`
	CreatedAt time.Time `json:"created_at"`
}

// Options configure snapshot writes.
type Options struct {
	// Encoding selects the payload layout.
	Encoding Encoding

	// Compression is applied per delta block. Raw payloads are never
	// compressed (they must stay mmap-able).
	Compression CompressionType

	// BlockLen is the number of keys per delta block.
	BlockLen int

	// Codec serializes the meta section. Any codec producing JSON-
	// compatible output keeps snapshots readable by default loaders.
	Codec codec.Codec

	// Parallelism bounds concurrent block encoders.
	Parallelism int
}

// DefaultOptions returns the default snapshot write options.
func DefaultOptions() Options {
	return Options{
		Encoding:    EncodingDelta,
		Compression: CompressionZSTD,
		BlockLen:    4096,
		Codec:       codec.Default,
		Parallelism: runtime.GOMAXPROCS(0),
	}
}

// Save writes keys as a snapshot to w. The keys must already be sorted in
// ascending order; Save does not verify this.
//
// meta may be nil. Count, key bounds, and the codec name are always stamped
// from the data being written.
func Save(ctx context.Context, w io.Writer, keys []int64, meta *Meta, optFns ...func(*Options)) error {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.BlockLen < 1 {
		return fmt.Errorf("persistence: block length must be >= 1, got %d", opts.BlockLen)
	}

	switch opts.Encoding {
	case EncodingRaw:
		if opts.Compression != CompressionNone {
			return fmt.Errorf("persistence: raw encoding does not support compression")
		}
	case EncodingDelta:
		switch opts.Compression {
		case CompressionNone, CompressionLZ4, CompressionZSTD:
		default:
			return fmt.Errorf("%w: %d", ErrUnknownCompression, opts.Compression)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownEncoding, opts.Encoding)
	}

	var m Meta
	if meta != nil {
		m = *meta
	}
	m.Count = uint64(len(keys))
	m.MinKey, m.MaxKey = 0, 0
	if len(keys) > 0 {
		m.MinKey = keys[0]
		m.MaxKey = keys[len(keys)-1]
	}
	m.Codec = opts.Codec.Name()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	metaBytes, err := opts.Codec.Marshal(&m)
	if err != nil {
		return fmt.Errorf("persistence: encode meta: %w", err)
	}
	if len(metaBytes) > maxMetaLen {
		return fmt.Errorf("persistence: meta section too large: %d bytes", len(metaBytes))
	}

	blockLen := uint32(opts.BlockLen)
	if opts.Encoding == EncodingRaw {
		blockLen = 0
	}
	header := FileHeader{
		Encoding:    opts.Encoding,
		Compression: opts.Compression,
		BlockLen:    blockLen,
		Count:       m.Count,
		MinKey:      m.MinKey,
		MaxKey:      m.MaxKey,
		MetaLen:     uint32(len(metaBytes)),
	}
	headerBytes, err := header.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(headerBytes); err != nil {
		return err
	}

	if _, err := w.Write(metaBytes); err != nil {
		return err
	}
	var crcBuf [checksumSize]byte
	binary.LittleEndian.PutUint32(crcBuf[:], Checksum(metaBytes))
	if _, err := w.Write(crcBuf[:]); err != nil {
		return err
	}

	// Zero padding keeps the payload 8-aligned for mmap loaders.
	written := headerSize + len(metaBytes) + checksumSize
	if pad := payloadOffset(header.MetaLen) - written; pad > 0 {
		var zeros [8]byte
		if _, err := w.Write(zeros[:pad]); err != nil {
			return err
		}
	}

	cw := NewChecksumWriter(w)
	switch opts.Encoding {
	case EncodingRaw:
		err = writeRawPayload(ctx, cw, keys)
	case EncodingDelta:
		err = writeDeltaPayload(ctx, cw, keys, opts)
	}
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(crcBuf[:], cw.Sum())
	_, err = w.Write(crcBuf[:])
	return err
}

func writeRawPayload(ctx context.Context, w io.Writer, keys []int64) error {
	buf := make([]byte, 0, rawChunkKeys*8)
	for start := 0; start < len(keys); start += rawChunkKeys {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+rawChunkKeys, len(keys))
		buf = buf[:0]
		for _, k := range keys[start:end] {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(k))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func writeDeltaPayload(ctx context.Context, w io.Writer, keys []int64, opts Options) error {
	if len(keys) == 0 {
		return nil
	}

	blockLen := opts.BlockLen
	numBlocks := (len(keys) + blockLen - 1) / blockLen
	frames := make([][]byte, numBlocks)

	// Blocks encode independently; writes below stay in block order.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)
	for i := range numBlocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := i * blockLen
			end := min(start+blockLen, len(keys))
			frame, err := encodeFrame(encodeDeltaBlock(keys[start:end]), opts.Compression)
			if err != nil {
				return err
			}
			frames[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, frame := range frames {
		if _, err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a snapshot from r and returns its keys and metadata.
func Load(ctx context.Context, r io.Reader) ([]int64, *Meta, error) {
	header, meta, err := readHeaderAndMeta(r)
	if err != nil {
		return nil, nil, err
	}

	read := headerSize + int(header.MetaLen) + checksumSize
	if pad := payloadOffset(header.MetaLen) - read; pad > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
			return nil, nil, err
		}
	}

	cr := NewChecksumReader(r)
	keys := make([]int64, header.Count)
	switch header.Encoding {
	case EncodingRaw:
		err = readRawPayload(ctx, cr, keys)
	case EncodingDelta:
		err = readDeltaPayload(ctx, cr, keys, header)
	}
	if err != nil {
		return nil, nil, err
	}
	payloadCRC := cr.Sum()

	var crcBuf [checksumSize]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, nil, err
	}
	if expected := binary.LittleEndian.Uint32(crcBuf[:]); expected != payloadCRC {
		return nil, nil, &ChecksumMismatchError{Section: "payload", Expected: expected, Actual: payloadCRC}
	}

	return keys, meta, nil
}

func readRawPayload(ctx context.Context, r io.Reader, keys []int64) error {
	buf := make([]byte, rawChunkKeys*8)
	for start := 0; start < len(keys); start += rawChunkKeys {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+rawChunkKeys, len(keys))
		chunk := buf[:(end-start)*8]
		if _, err := io.ReadFull(r, chunk); err != nil {
			return err
		}
		for i := range end - start {
			keys[start+i] = int64(binary.LittleEndian.Uint64(chunk[i*8:]))
		}
	}
	return nil
}

func readDeltaPayload(ctx context.Context, r io.Reader, keys []int64, header FileHeader) error {
	if len(keys) == 0 {
		return nil
	}

	blockLen := int(header.BlockLen)
	numBlocks := (len(keys) + blockLen - 1) / blockLen
	maxPlain := (blockLen + 1) * binary.MaxVarintLen64

	for i := range numBlocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := i * blockLen
		end := min(start+blockLen, len(keys))
		plain, err := decodeFrameFrom(r, header.Compression, maxPlain, fmt.Sprintf("block %d", i))
		if err != nil {
			return err
		}
		if err := decodeDeltaBlock(plain, keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// ReadMeta reads only the header and meta section of a snapshot. It leaves
// r positioned at the padding before the payload.
func ReadMeta(r io.Reader) (FileHeader, *Meta, error) {
	return readHeaderAndMeta(r)
}

func readHeaderAndMeta(r io.Reader) (FileHeader, *Meta, error) {
	header, err := readHeader(r)
	if err != nil {
		return FileHeader{}, nil, err
	}
	if header.MetaLen > maxMetaLen {
		return FileHeader{}, nil, fmt.Errorf("persistence: meta section too large: %d bytes", header.MetaLen)
	}

	metaBytes := make([]byte, header.MetaLen)
	if _, err := io.ReadFull(r, metaBytes); err != nil {
		return FileHeader{}, nil, err
	}
	var crcBuf [checksumSize]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return FileHeader{}, nil, err
	}
	if expected, actual := binary.LittleEndian.Uint32(crcBuf[:]), Checksum(metaBytes); expected != actual {
		return FileHeader{}, nil, &ChecksumMismatchError{Section: "meta", Expected: expected, Actual: actual}
	}

	var meta Meta
	if err := decodeMeta(metaBytes, &meta); err != nil {
		return FileHeader{}, nil, err
	}
	return header, &meta, nil
}

// decodeMeta decodes a meta section. Meta is JSON on the wire regardless of
// which codec produced it, so the default codec can always decode it.
func decodeMeta(metaBytes []byte, meta *Meta) error {
	if err := codec.Default.Unmarshal(metaBytes, meta); err != nil {
		return fmt.Errorf("persistence: decode meta: %w", err)
	}
	return nil
}
