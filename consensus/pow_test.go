package consensus

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"dashcore.dev/core/hashes"
)

func TestCompactToTarget(t *testing.T) {
	cases := []struct {
		bits     uint32
		target   uint64
		shift    uint
		negative bool
		overflow bool
		compact  uint32
	}{
		{0x00000000, 0, 0, false, false, 0},
		{0x00123456, 0, 0, false, false, 0},
		{0x01003456, 0, 0, false, false, 0},
		{0x02000056, 0, 0, false, false, 0},
		{0x03000000, 0, 0, false, false, 0},
		{0x04000000, 0, 0, false, false, 0},
		{0x00923456, 0, 0, false, false, 0},
		{0x01803456, 0, 0, false, false, 0},
		{0x01123456, 0x12, 0, false, false, 0x01120000},
		{0x02123456, 0x1234, 0, false, false, 0x02123400},
		{0x03123456, 0x123456, 0, false, false, 0x03123456},
		{0x04123456, 0x12345600, 0, false, false, 0x04123456},
		{0x05009234, 0x92340000, 0, false, false, 0x05009234},
		{0x20123456, 0x123456, 8 * 29, false, false, 0x20123456},
		{0x1d00ffff, 0xffff, 8 * 26, false, false, 0x1d00ffff},
		{0x01fedcba, 0x7e, 0, true, false, 0x017e0000},
		{0x04923456, 0x12345600, 0, true, false, 0x04123456},
	}
	for _, tc := range cases {
		target, neg, over := CompactToTarget(tc.bits)
		want := new(uint256.Int).Lsh(uint256.NewInt(tc.target), tc.shift)
		require.Truef(t, target.Eq(want), "bits %#08x: target %s want %s", tc.bits, target.Hex(), want.Hex())
		require.Equalf(t, tc.negative, neg, "bits %#08x negative", tc.bits)
		require.Equalf(t, tc.overflow, over, "bits %#08x overflow", tc.bits)
		require.Equalf(t, tc.compact, TargetToCompact(target), "bits %#08x compact", tc.bits)
	}
}

func TestCompactToTargetOverflow(t *testing.T) {
	for _, bits := range []uint32{0xff123456, 0x23000001, 0x22000100, 0x21010000} {
		_, _, over := CompactToTarget(bits)
		require.Truef(t, over, "bits %#08x", bits)
	}
	_, _, over := CompactToTarget(0x22000001)
	require.False(t, over)
}

func TestHeaderTarget(t *testing.T) {
	cases := []struct {
		name string
		bits uint32
	}{
		{"zero", 0x00000000},
		{"negative", 0x04923456},
		{"overflow", 0xff123456},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := BlockHeader{Bits: tc.bits}
			_, err := h.Target()
			require.ErrorIs(t, err, ErrTargetInvalid)
		})
	}

	h := BlockHeader{Bits: 0x1d00ffff}
	target, err := h.Target()
	require.NoError(t, err)
	require.Equal(t, uint32(0x1d00ffff), TargetToCompact(target))
}

func TestCalcWork(t *testing.T) {
	require.Equal(t, uint64(0x100010001), CalcWork(0x1d00ffff).Uint64())
	require.True(t, CalcWork(0).IsZero())
	require.True(t, CalcWork(0x04923456).IsZero())
	// 2^256 / (2^254 + 1), rounded down.
	require.Equal(t, uint64(3), CalcWork(0x2100_4000).Uint64())
}

func TestCheckProofOfWorkGenesis(t *testing.T) {
	h, err := ParseBlockHeader(mustHex(t, genesisHeaderHex))
	require.NoError(t, err)
	powHash := hashes.Hash256(h.BlockHash())

	limit, _, _ := CompactToTarget(0x1d00ffff)
	require.NoError(t, CheckProofOfWork(powHash, h.Bits, limit))
	require.NoError(t, CheckProofOfWork(powHash, h.Bits, nil))

	require.ErrorIs(t, CheckProofOfWork(powHash, 0x1b00ffff, nil), ErrTargetInvalid)

	tighter, _, _ := CompactToTarget(0x1c00ffff)
	require.ErrorIs(t, CheckProofOfWork(powHash, h.Bits, tighter), ErrTargetInvalid)
}
