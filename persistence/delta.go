package persistence

import (
	"encoding/binary"
	"errors"
)

// errMalformedBlock indicates varint data that does not decode to the
// expected number of keys.
var errMalformedBlock = errors.New("persistence: malformed delta block")

// encodeDeltaBlock encodes a run of sorted keys as the first key in zigzag
// varint form followed by unsigned varint deltas.
//
// Deltas are computed in uint64 space, so runs spanning the full int64
// range (e.g. MinInt64 to MaxInt64) encode exactly.
func encodeDeltaBlock(keys []int64) []byte {
	buf := make([]byte, 0, binary.MaxVarintLen64*len(keys))
	buf = binary.AppendVarint(buf, keys[0])
	prev := keys[0]
	for _, k := range keys[1:] {
		buf = binary.AppendUvarint(buf, uint64(k)-uint64(prev))
		prev = k
	}
	return buf
}

// decodeDeltaBlock decodes a delta block into out, which must already have
// the expected length. The block must be fully consumed.
func decodeDeltaBlock(data []byte, out []int64) error {
	first, n := binary.Varint(data)
	if n <= 0 {
		return errMalformedBlock
	}
	data = data[n:]
	out[0] = first

	prev := first
	for i := 1; i < len(out); i++ {
		delta, n := binary.Uvarint(data)
		if n <= 0 {
			return errMalformedBlock
		}
		data = data[n:]
		prev = int64(uint64(prev) + delta)
		out[i] = prev
	}
	if len(data) != 0 {
		return errMalformedBlock
	}
	return nil
}
