package consensus

import (
	"slices"

	"github.com/holiman/uint256"

	"dashcore.dev/core/hashes"
)

// CompactToTarget expands the nBits encoding. It reports the sign bit and
// whether the value overflows 256 bits; callers treat either as invalid.
func CompactToTarget(bits uint32) (target *uint256.Int, negative, overflow bool) {
	size := bits >> 24
	word := uint64(bits & 0x007f_ffff)

	target = new(uint256.Int)
	if size <= 3 {
		word >>= 8 * (3 - size)
		target.SetUint64(word)
	} else {
		target.SetUint64(word)
		if size-3 < 32 {
			target.Lsh(target, uint(8*(size-3)))
		} else {
			target.Clear()
		}
	}
	negative = word != 0 && bits&0x0080_0000 != 0
	overflow = word != 0 && (size > 34 ||
		(word > 0xff && size > 33) ||
		(word > 0xffff && size > 32))
	return target, negative, overflow
}

// TargetToCompact encodes target in the nBits form. The result is never
// negative.
func TargetToCompact(target *uint256.Int) uint32 {
	size := uint32((target.BitLen() + 7) / 8) // #nosec G115 -- at most 32.
	var compact uint64
	if size <= 3 {
		compact = target.Uint64() << (8 * (3 - size))
	} else {
		compact = new(uint256.Int).Rsh(target, uint(8*(size-3))).Uint64()
	}
	if compact&0x0080_0000 != 0 {
		compact >>= 8
		size++
	}
	return uint32(compact) | size<<24 // #nosec G115 -- compact fits 23 bits here.
}

// Target expands the header's nBits, rejecting negative, overflowing and
// zero targets.
func (h *BlockHeader) Target() (*uint256.Int, error) {
	t, neg, over := CompactToTarget(h.Bits)
	switch {
	case neg:
		return nil, txerrf(ERR_TARGET_INVALID, "bits %#08x: negative target", h.Bits)
	case over:
		return nil, txerrf(ERR_TARGET_INVALID, "bits %#08x: target overflows", h.Bits)
	case t.IsZero():
		return nil, txerrf(ERR_TARGET_INVALID, "bits %#08x: zero target", h.Bits)
	}
	return t, nil
}

// CalcWork returns the expected number of hashes for a target, 2^256 /
// (target+1). Invalid targets yield zero work.
func CalcWork(bits uint32) *uint256.Int {
	t, neg, over := CompactToTarget(bits)
	if neg || over || t.IsZero() {
		return new(uint256.Int)
	}
	// 2^256 / (t+1) == (^t / (t+1)) + 1 without a 257-bit intermediate.
	denom := new(uint256.Int).AddUint64(t, 1)
	if denom.IsZero() {
		return uint256.NewInt(1)
	}
	work := new(uint256.Int).Not(t)
	work.Div(work, denom)
	return work.AddUint64(work, 1)
}

// HashToBig interprets a hash in wire byte order as a little-endian
// number, the way proof-of-work compares it with the target.
func HashToBig(h hashes.Hash256) *uint256.Int {
	be := slices.Clone(h[:])
	slices.Reverse(be)
	return new(uint256.Int).SetBytes(be)
}

// CheckProofOfWork verifies powHash does not exceed the header's target and
// that the target is not easier than powLimit.
func CheckProofOfWork(powHash hashes.Hash256, bits uint32, powLimit *uint256.Int) error {
	t, neg, over := CompactToTarget(bits)
	if neg || over || t.IsZero() {
		return txerrf(ERR_TARGET_INVALID, "bits %#08x out of range", bits)
	}
	if powLimit != nil && t.Gt(powLimit) {
		return txerrf(ERR_TARGET_INVALID, "bits %#08x above pow limit", bits)
	}
	if HashToBig(powHash).Gt(t) {
		return txerrf(ERR_TARGET_INVALID, "hash %s above target", powHash)
	}
	return nil
}
