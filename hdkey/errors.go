package hdkey

import (
	"errors"

	"dashcore.dev/core/address"
)

var (
	// ErrHardenedFromPublic is returned when a hardened child is requested
	// from a public extended key.
	ErrHardenedFromPublic = errors.New("hdkey: cannot derive a hardened key from a public key")

	// ErrInvalidTweak is returned in the rare case that a derived child
	// scalar or point is invalid. Callers are expected to skip to the next
	// index.
	ErrInvalidTweak = errors.New("hdkey: derived key is invalid")

	ErrInvalidKeyData  = errors.New("hdkey: invalid extended key data")
	ErrDepthExceeded   = errors.New("hdkey: maximum derivation depth exceeded")
	ErrInvalidSeedLen  = errors.New("hdkey: seed length out of range")
	ErrInvalidPath     = errors.New("hdkey: invalid derivation path")
	ErrParentMismatch  = errors.New("hdkey: parent fingerprint does not match")
	ErrInvalidMnemonic = errors.New("hdkey: invalid mnemonic")

	ErrBadChecksum = address.ErrBadChecksum
	ErrBadNetwork  = address.ErrBadNetwork
)
