// Package hashes holds the fixed-width digest types used as content
// identifiers throughout the chain format, together with the hash
// compositions that produce them.
//
// Digests are stored in wire (internal) byte order. String and
// MarshalText render them in display order, which reverses the bytes; the
// reversal is never applied internally.
package hashes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	//nolint:staticcheck // RIPEMD160 is required by the address format.
	"golang.org/x/crypto/ripemd160"
)

const (
	Hash256Size = 32
	Hash160Size = 20
)

// Hash256 is a 32-byte digest in wire order.
type Hash256 [Hash256Size]byte

// Hash160 is a 20-byte RIPEMD160(SHA256(x)) digest.
type Hash160 [Hash160Size]byte

// SHA256 returns a single application of SHA-256.
func SHA256(b []byte) Hash256 {
	return sha256.Sum256(b)
}

// DoubleSHA256 returns SHA-256 applied twice. Content identifiers and
// Base58Check checksums use this composition.
func DoubleSHA256(b []byte) Hash256 {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// DoubleSHA256Parts hashes the concatenation of parts without building it.
func DoubleSHA256Parts(parts ...[]byte) Hash256 {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var first Hash256
	h.Sum(first[:0])
	return sha256.Sum256(first[:])
}

// Hash160Of returns RIPEMD160(SHA256(b)).
func Hash160Of(b []byte) Hash160 {
	first := sha256.Sum256(b)
	r := ripemd160.New()
	_, _ = r.Write(first[:])
	var out Hash160
	r.Sum(out[:0])
	return out
}

// TaggedHash implements the domain-separated construction
// SHA256(SHA256(tag) || SHA256(tag) || msg...). Digests computed under
// different tags cannot collide by construction.
func TaggedHash(tag string, msgs ...[]byte) Hash256 {
	tagDigest := sha256.Sum256([]byte(tag))
	h := sha256.New()
	_, _ = h.Write(tagDigest[:])
	_, _ = h.Write(tagDigest[:])
	for _, m := range msgs {
		_, _ = h.Write(m)
	}
	var out Hash256
	h.Sum(out[:0])
	return out
}

func (h Hash256) IsZero() bool {
	return h == Hash256{}
}

// String returns the display-order (byte-reversed) hex encoding.
func (h Hash256) String() string {
	return reversedHex(h[:])
}

func (h Hash256) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash256) UnmarshalText(text []byte) error {
	parsed, err := Hash256FromString(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Hash256FromString parses a display-order hex string.
func Hash256FromString(s string) (Hash256, error) {
	var h Hash256
	if err := decodeReversed(h[:], s); err != nil {
		return Hash256{}, err
	}
	return h, nil
}

// Hash256FromBytes copies a wire-order slice.
func Hash256FromBytes(b []byte) (Hash256, error) {
	var h Hash256
	if len(b) != Hash256Size {
		return h, fmt.Errorf("hashes: hash256 needs %d bytes, got %d", Hash256Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash160) String() string {
	return hex.EncodeToString(h[:])
}

// Hash160FromBytes copies a 20-byte slice.
func Hash160FromBytes(b []byte) (Hash160, error) {
	var h Hash160
	if len(b) != Hash160Size {
		return h, fmt.Errorf("hashes: hash160 needs %d bytes, got %d", Hash160Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

func reversedHex(b []byte) string {
	r := make([]byte, len(b))
	for i := range b {
		r[i] = b[len(b)-1-i]
	}
	return hex.EncodeToString(r)
}

func decodeReversed(dst []byte, s string) error {
	if len(s) != hex.EncodedLen(len(dst)) {
		return fmt.Errorf("hashes: want %d hex chars, got %d", hex.EncodedLen(len(dst)), len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("hashes: %w", err)
	}
	for i := range raw {
		dst[i] = raw[len(raw)-1-i]
	}
	return nil
}
