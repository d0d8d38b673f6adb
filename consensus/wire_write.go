package consensus

import (
	"encoding/binary"
	"io"
)

// Encodable is implemented by every wire type. Encode writes the canonical
// encoding to w and returns the number of bytes written.
type Encodable interface {
	Encode(w io.Writer) (int, error)
}

func AppendU16le(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendU32le(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func AppendU64le(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// AppendVarBytes appends a CompactSize length followed by b.
func AppendVarBytes(dst []byte, b []byte) []byte {
	dst = AppendCompactSize(dst, uint64(len(b)))
	return append(dst, b...)
}
