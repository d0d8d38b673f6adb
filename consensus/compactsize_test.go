package consensus

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactSizeEncodeDecode(t *testing.T) {
	cases := []struct {
		name string
		val  uint64
		hex  string
	}{
		{"zero", 0, "00"},
		{"max_u8_minimal", 252, "fc"},
		{"u16_boundary", 253, "fdfd00"},
		{"u16_max", 65535, "fdffff"},
		{"u32_boundary", 65536, "fe00000100"},
		{"u32_mid", 0x12345678, "fe78563412"},
		{"u64_boundary", 0x1_0000_0000, "ff0000000001000000"},
		{"u64_high", 0xffff_ffff_ffff_ffff, "ffffffffffffffffff"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc := CompactSize(tc.val).Encode()
			require.Equal(t, tc.hex, hex.EncodeToString(enc))
			require.Equal(t, len(enc), CompactSize(tc.val).Len())
			require.Equal(t, len(enc), CompactSizeLen(tc.val))
			require.Equal(t, enc, AppendCompactSize(nil, tc.val))

			dec, n, err := DecodeCompactSize(enc)
			require.NoError(t, err)
			require.Equal(t, len(enc), n)
			require.Equal(t, tc.val, uint64(dec))
		})
	}
}

func TestCompactSizeRejectsNonMinimal(t *testing.T) {
	cases := []struct {
		name string
		hex  string
	}{
		{"u16_for_zero", "fd0000"},
		{"u16_for_252", "fdfc00"},
		{"u32_for_u16", "feffff0000"},
		{"u64_for_u32", "ffffffffff00000000"},
		{"u64_for_zero", "ff0000000000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeCompactSize(mustHex(t, tc.hex))
			require.ErrorIs(t, err, ErrNonMinimalVarInt)
		})
	}
}

func TestCompactSizeTruncated(t *testing.T) {
	for _, h := range []string{"", "fd", "fdff", "fe000001", "ff00000000000001"} {
		_, _, err := DecodeCompactSize(mustHex(t, h))
		require.ErrorIs(t, err, ErrUnexpectedEOF, "input %q", h)
		var e *Error
		require.ErrorAs(t, err, &e)
		require.True(t, e.Code.IsDecodeError(), "input %q", h)
	}
}

func FuzzReadCompactSize(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0xfd, 0xfd, 0x00})
	f.Add([]byte{0xfe, 0x00, 0x00, 0x01, 0x00})
	f.Add([]byte{0xff, 0, 0, 0, 0, 1, 0, 0, 0})
	f.Fuzz(func(t *testing.T, b []byte) {
		v, n, err := DecodeCompactSize(b)
		if err != nil {
			return
		}
		require.Equal(t, b[:n], v.Encode(), "accepted %x", b[:n])
	})
}
