// Package address encodes and decodes the human-readable forms of payment
// targets and private keys: Base58Check strings for key-hash and
// script-hash addresses and WIF keys, and Bech32/Bech32m strings for
// witness programs. The network is always supplied by the caller.
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"dashcore.dev/core/hashes"
)

var (
	ErrBadChecksum               = errors.New("address: bad checksum")
	ErrBadNetwork                = errors.New("address: version does not match network")
	ErrInvalidLength             = errors.New("address: invalid payload length")
	ErrInvalidFormat             = errors.New("address: invalid format")
	ErrUnsupportedWitnessVersion = errors.New("address: unsupported witness version")
	ErrUnsupported               = errors.New("address: script has no address form")
)

const checksumLen = 4

func checksum(b []byte) [checksumLen]byte {
	h := hashes.DoubleSHA256(b)
	return [checksumLen]byte(h[:checksumLen])
}

// CheckEncode returns base58(version || payload || checksum). The version
// may be one byte (addresses, WIF) or four (extended keys).
func CheckEncode(version, payload []byte) string {
	b := make([]byte, 0, len(version)+len(payload)+checksumLen)
	b = append(b, version...)
	b = append(b, payload...)
	sum := checksum(b)
	return base58.Encode(append(b, sum[:]...))
}

// CheckDecode reverses CheckEncode, splitting off versionLen leading bytes.
// The checksum is verified before anything else is interpreted.
func CheckDecode(s string, versionLen int) (version, payload []byte, err error) {
	if s == "" {
		return nil, nil, fmt.Errorf("%w: empty string", ErrInvalidFormat)
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("%w: not base58", ErrInvalidFormat)
	}
	if len(raw) < versionLen+checksumLen {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(raw))
	}
	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	want := checksum(body)
	if !bytes.Equal(sum, want[:]) {
		return nil, nil, ErrBadChecksum
	}
	return body[:versionLen], body[versionLen:], nil
}
