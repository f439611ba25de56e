package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"github.com/hupe1980/pgmgo/internal/mmap"
)

// ErrMmapUnsupported is returned when a snapshot cannot be loaded zero-copy:
// the platform is big-endian, or the file is not raw encoded.
var ErrMmapUnsupported = errors.New("zero-copy load unsupported")

// MappedKeys is a key buffer that aliases a memory-mapped snapshot.
//
// Keys stays valid until Close. Callers must not mutate it; the mapping is
// read-only and writes fault.
type MappedKeys struct {
	Keys []int64

	meta *Meta
	m    *mmap.Mapping
}

// Meta returns the snapshot metadata.
func (mk *MappedKeys) Meta() *Meta {
	return mk.meta
}

// Close unmaps the snapshot. Keys must not be used afterwards.
func (mk *MappedKeys) Close() error {
	if mk == nil {
		return nil
	}
	mk.Keys = nil
	if mk.m != nil {
		err := mk.m.Close()
		mk.m = nil
		return err
	}
	return nil
}

// MmapKeys memory-maps a raw-encoded snapshot and returns a key buffer
// aliasing the file contents. Header, meta, and payload checksums are
// verified before the alias is handed out.
//
// Only raw-encoded snapshots on little-endian platforms qualify; delta
// files must go through Load.
func MmapKeys(path string) (*MappedKeys, error) {
	if !isLittleEndian() {
		return nil, fmt.Errorf("%w: big-endian platform", ErrMmapUnsupported)
	}

	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	mk, err := mapKeys(m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return mk, nil
}

func mapKeys(m *mmap.Mapping) (*MappedKeys, error) {
	data := m.Bytes()

	header, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if header.Encoding != EncodingRaw {
		return nil, fmt.Errorf("%w: %s encoded snapshot", ErrMmapUnsupported, header.Encoding)
	}
	if header.MetaLen > maxMetaLen {
		return nil, fmt.Errorf("persistence: meta section too large: %d bytes", header.MetaLen)
	}

	metaEnd := headerSize + int(header.MetaLen)
	payloadOff := payloadOffset(header.MetaLen)
	payloadLen := int(header.Count) * 8
	if len(data) < payloadOff+payloadLen+checksumSize {
		return nil, fmt.Errorf("persistence: snapshot truncated: %d bytes", len(data))
	}

	metaBytes := data[headerSize:metaEnd]
	if expected, actual := binary.LittleEndian.Uint32(data[metaEnd:]), Checksum(metaBytes); expected != actual {
		return nil, &ChecksumMismatchError{Section: "meta", Expected: expected, Actual: actual}
	}
	var meta Meta
	if err := decodeMeta(metaBytes, &meta); err != nil {
		return nil, err
	}

	payload := data[payloadOff : payloadOff+payloadLen]
	if expected, actual := binary.LittleEndian.Uint32(data[payloadOff+payloadLen:]), Checksum(payload); expected != actual {
		return nil, &ChecksumMismatchError{Section: "payload", Expected: expected, Actual: actual}
	}

	var keys []int64
	if header.Count > 0 {
		if err := validateInt64Alignment(payload); err != nil {
			return nil, err
		}
		keys = unsafe.Slice((*int64)(unsafe.Pointer(&payload[0])), header.Count)
	}

	// Position queries jump around the buffer.
	_ = m.Advise(mmap.AccessRandom)

	return &MappedKeys{Keys: keys, meta: &meta, m: m}, nil
}

// isLittleEndian checks the native byte order at runtime.
func isLittleEndian() bool {
	var probe uint16 = 0x0001
	return *(*byte)(unsafe.Pointer(&probe)) == 1
}

// validateInt64Alignment checks that a payload can back an []int64.
// Save 8-aligns payloads and mappings are page-aligned, so a failure here
// means a foreign or hand-edited file.
func validateInt64Alignment(payload []byte) error {
	if ptr := uintptr(unsafe.Pointer(&payload[0])); ptr%8 != 0 {
		return fmt.Errorf("%w: payload at address 0x%x is not 8-aligned", ErrMmapUnsupported, ptr)
	}
	return nil
}
