package consensus

import "encoding/binary"

// CompactSize is the variable-length integer used for every count and
// length prefix on the wire. Values below 0xfd take one byte; larger values
// take a 0xfd/0xfe/0xff marker followed by 2, 4 or 8 little-endian bytes.
type CompactSize uint64

func (c CompactSize) Encode() []byte {
	return AppendCompactSize(nil, uint64(c))
}

// Len returns the encoded size in bytes: 1, 3, 5 or 9.
func (c CompactSize) Len() int {
	return CompactSizeLen(uint64(c))
}

func CompactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffff_ffff:
		return 5
	default:
		return 9
	}
}

// AppendCompactSize appends the minimal encoding of n to dst.
func AppendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return AppendU16le(dst, uint16(n))
	case n <= 0xffff_ffff:
		dst = append(dst, 0xfe)
		return AppendU32le(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return AppendU64le(dst, n)
	}
}

// DecodeCompactSize decodes one CompactSize value from the front of b and
// returns it with the number of bytes consumed. An encoding that uses a
// wider prefix class than the value needs is rejected.
func DecodeCompactSize(b []byte) (CompactSize, int, error) {
	if len(b) < 1 {
		return 0, 0, txerr(ERR_UNEXPECTED_EOF, "compactsize: empty")
	}
	tag := b[0]
	switch {
	case tag < 0xfd:
		return CompactSize(tag), 1, nil
	case tag == 0xfd:
		if len(b) < 3 {
			return 0, 0, txerr(ERR_UNEXPECTED_EOF, "compactsize: truncated u16")
		}
		n := uint64(binary.LittleEndian.Uint16(b[1:3]))
		if n < 0xfd {
			return 0, 0, txerr(ERR_NON_MINIMAL_VARINT, "compactsize: non-minimal u16")
		}
		return CompactSize(n), 3, nil
	case tag == 0xfe:
		if len(b) < 5 {
			return 0, 0, txerr(ERR_UNEXPECTED_EOF, "compactsize: truncated u32")
		}
		n := uint64(binary.LittleEndian.Uint32(b[1:5]))
		if n < 0x1_0000 {
			return 0, 0, txerr(ERR_NON_MINIMAL_VARINT, "compactsize: non-minimal u32")
		}
		return CompactSize(n), 5, nil
	default: // 0xff
		if len(b) < 9 {
			return 0, 0, txerr(ERR_UNEXPECTED_EOF, "compactsize: truncated u64")
		}
		n := binary.LittleEndian.Uint64(b[1:9])
		if n < 0x1_0000_0000 {
			return 0, 0, txerr(ERR_NON_MINIMAL_VARINT, "compactsize: non-minimal u64")
		}
		return CompactSize(n), 9, nil
	}
}
