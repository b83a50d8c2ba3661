package message

// EncodeULEB128 returns the unsigned little-endian base-128 encoding of v.
func EncodeULEB128(v uint64) []byte {
	buf := make([]byte, 0, 10)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
			continue
		}
		return append(buf, b)
	}
}

// DecodeULEB128 decodes a varint from the head of buf and returns the value
// along with the number of bytes consumed.
func DecodeULEB128(buf []byte) (uint64, int, error) {
	var (
		v     uint64
		shift uint
	)
	for i, b := range buf {
		if i == 9 && b > 1 {
			return 0, 0, ErrMalformedLEB128
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, ErrMalformedLEB128
		}
	}
	return 0, 0, ErrMalformedLEB128
}
