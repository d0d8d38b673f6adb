// Package crypto is the narrow elliptic-curve boundary used by the signing
// and key-derivation code. Callers depend on the Curve interface; the
// secp256k1 implementation delegates to btcec.
package crypto

import "errors"

var (
	// ErrInvalidTweak is returned when a tweak is not a valid scalar or the
	// tweaked key would be zero or the point at infinity.
	ErrInvalidTweak = errors.New("crypto: invalid tweak")

	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
	ErrInvalidPublicKey  = errors.New("crypto: invalid public key")
	ErrInvalidSignature  = errors.New("crypto: invalid signature")
)

const (
	PrivateKeyLen       = 32
	PublicKeyLen        = 33 // compressed SEC1
	XOnlyPublicKeyLen   = 32
	SchnorrSignatureLen = 64
)

// Curve is the set of curve operations the library consumes. Secret keys
// are 32-byte big-endian scalars; public keys are accepted in compressed or
// uncompressed SEC1 form and always returned compressed.
type Curve interface {
	DerivePublic(secret []byte) ([]byte, error)

	// Sign returns a DER-encoded low-S ECDSA signature over digest.
	Sign(secret []byte, digest [32]byte) ([]byte, error)
	Verify(pub []byte, digest [32]byte, sig []byte) bool

	// TweakAddPrivate returns (secret + tweak) mod n.
	TweakAddPrivate(secret []byte, tweak [32]byte) ([]byte, error)
	// TweakAddPublic returns pub + tweak*G.
	TweakAddPublic(pub []byte, tweak [32]byte) ([]byte, error)

	// SignSchnorr returns a 64-byte BIP340 signature.
	SignSchnorr(secret []byte, digest [32]byte) ([]byte, error)
	// VerifySchnorr checks a BIP340 signature against a 32-byte x-only key.
	VerifySchnorr(xonly []byte, digest [32]byte, sig []byte) bool
}
