package wire

// MaxVarintLen is the longest encoding of a 64-bit varint
const MaxVarintLen = 10

// DecodeVarint reads a base-128 varint from the front of buf. It returns the
// value and the number of bytes consumed. A varint longer than ten bytes, or
// a tenth byte carrying bits beyond 64, is rejected.
func DecodeVarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint

	for i := 0; i < MaxVarintLen; i++ {
		if i >= len(buf) {
			return 0, 0, ErrUnexpectedEOF
		}
		b := buf[i]

		// The tenth byte may only contribute the single remaining bit.
		if i == MaxVarintLen-1 && b > 1 {
			return 0, 0, ErrInvalidVarint
		}

		result |= uint64(b&0x7F) << shift
		if b < 0x80 {
			return result, i + 1, nil
		}
		shift += 7
	}

	return 0, 0, ErrInvalidVarint
}

// AppendVarint appends the forward encoding of v to dst
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// UTILITY FUNCTIONS

// DecodeZigZag32 decodes a zigzag-encoded 32-bit integer
func DecodeZigZag32(encoded uint64) int32 {
	return int32((uint32(encoded) >> 1) ^ uint32(-int32(encoded&1)))
}

// DecodeZigZag64 decodes a zigzag-encoded 64-bit integer
func DecodeZigZag64(encoded uint64) int64 {
	return int64((encoded >> 1) ^ uint64(-int64(encoded&1)))
}

// EncodeZigZag32 encodes a signed 32-bit integer using zigzag encoding
func EncodeZigZag32(v int32) uint64 {
	return uint64((uint32(v) << 1) ^ uint32(v>>31))
}

// EncodeZigZag64 encodes a signed 64-bit integer using zigzag encoding
func EncodeZigZag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// VarintSize returns the number of bytes needed to encode the given varint
func VarintSize(v uint64) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	case v < 1<<35:
		return 5
	case v < 1<<42:
		return 6
	case v < 1<<49:
		return 7
	case v < 1<<56:
		return 8
	case v < 1<<63:
		return 9
	default:
		return 10
	}
}
