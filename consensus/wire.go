package consensus

import (
	"encoding/binary"
	"math"
)

// DecodeLimits bounds the allocations a decoder will make on behalf of
// untrusted input. Every count and length prefix is checked against these
// caps before any slice is allocated.
type DecodeLimits struct {
	MaxElements       uint64 // inputs, outputs, transactions per block
	MaxScriptBytes    uint64
	MaxWitnessItems   uint64 // per input
	MaxWitnessItemLen uint64
	MaxPayloadBytes   uint64
}

const (
	MAX_SEQUENCE_ELEMENTS  = 100_000
	MAX_SCRIPT_BYTES       = 10_000
	MAX_WITNESS_ITEMS      = 500
	MAX_WITNESS_ITEM_BYTES = 4_000_000
	MAX_PAYLOAD_BYTES      = 4_000_000
)

func DefaultDecodeLimits() DecodeLimits {
	return DecodeLimits{
		MaxElements:       MAX_SEQUENCE_ELEMENTS,
		MaxScriptBytes:    MAX_SCRIPT_BYTES,
		MaxWitnessItems:   MAX_WITNESS_ITEMS,
		MaxWitnessItemLen: MAX_WITNESS_ITEM_BYTES,
		MaxPayloadBytes:   MAX_PAYLOAD_BYTES,
	}
}

// Reader is a bounds-checked cursor over an in-memory encoding. It never
// reads past the end of its buffer and never trusts a length prefix without
// checking it against the remaining bytes and the configured limits.
type Reader struct {
	b      []byte
	pos    int
	limits DecodeLimits
}

// NewReader creates a Reader over b with the default limits.
func NewReader(b []byte) *Reader {
	return &Reader{b: b, limits: DefaultDecodeLimits()}
}

// NewReaderWithLimits creates a Reader over b with caller-supplied limits.
func NewReaderWithLimits(b []byte, limits DecodeLimits) *Reader {
	return &Reader{b: b, limits: limits}
}

func (r *Reader) Limits() DecodeLimits { return r.limits }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.pos }

func (r *Reader) Remaining() int {
	if r.pos >= len(r.b) {
		return 0
	}
	return len(r.b) - r.pos
}

// Peek returns the next n bytes without consuming them.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, txerr(ERR_UNEXPECTED_EOF, "peek past end")
	}
	return r.b[r.pos : r.pos+n], nil
}

// ReadExact returns the next n bytes. The returned slice aliases the
// underlying buffer.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, txerrf(ERR_UNEXPECTED_EOF, "need %d bytes, have %d", n, r.Remaining())
	}
	start := r.pos
	r.pos += n
	return r.b[start:r.pos], nil
}

func (r *Reader) ReadU8() (byte, error) {
	b, err := r.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16LE() (uint16, error) {
	b, err := r.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32LE() (uint32, error) {
	b, err := r.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadI32LE() (int32, error) {
	v, err := r.ReadU32LE()
	return int32(v), err
}

func (r *Reader) ReadU64LE() (uint64, error) {
	b, err := r.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadI64LE() (int64, error) {
	v, err := r.ReadU64LE()
	return int64(v), err
}

func (r *Reader) ReadHash() ([32]byte, error) {
	var h [32]byte
	b, err := r.ReadExact(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (r *Reader) ReadCompactSize() (uint64, error) {
	cs, used, err := DecodeCompactSize(r.b[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += used
	return uint64(cs), nil
}

// ReadCount reads a sequence element count and checks it against max.
func (r *Reader) ReadCount(max uint64, name string) (int, error) {
	n, err := r.ReadCompactSize()
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, txerrf(ERR_OVERSIZED, "%s %d exceeds limit %d", name, n, max)
	}
	return toIntLen(n, name)
}

// ReadVarBytes reads a CompactSize length and that many bytes, returning a
// copy. Lengths above max or above the remaining input are rejected before
// allocating.
func (r *Reader) ReadVarBytes(max uint64, name string) ([]byte, error) {
	n, err := r.ReadCount(max, name)
	if err != nil {
		return nil, err
	}
	if n > r.Remaining() {
		return nil, txerrf(ERR_UNEXPECTED_EOF, "%s declares %d bytes, have %d", name, n, r.Remaining())
	}
	b, _ := r.ReadExact(n)
	return append([]byte(nil), b...), nil
}

// Done fails with ERR_TRAILING_BYTES if input remains.
func (r *Reader) Done() error {
	if r.Remaining() != 0 {
		return txerrf(ERR_TRAILING_BYTES, "%d trailing bytes", r.Remaining())
	}
	return nil
}

func toIntLen(v uint64, name string) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, txerrf(ERR_OVERSIZED, "%s overflows int", name)
	}
	// #nosec G115 -- v is bounded to int above.
	return int(v), nil
}
