package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Secp256k1 implements Curve over btcec. The zero value is ready to use.
type Secp256k1 struct{}

var _ Curve = Secp256k1{}

func parsePrivate(secret []byte) (*btcec.PrivateKey, error) {
	if len(secret) != PrivateKeyLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPrivateKey, len(secret))
	}
	var k btcec.ModNScalar
	if overflow := k.SetByteSlice(secret); overflow || k.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	priv, _ := btcec.PrivKeyFromBytes(secret)
	return priv, nil
}

func parsePublic(pub []byte) (*btcec.PublicKey, error) {
	p, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return p, nil
}

// ValidPrivateKey reports whether secret is a scalar in [1, n-1].
func ValidPrivateKey(secret []byte) bool {
	_, err := parsePrivate(secret)
	return err == nil
}

// ValidPublicKey reports whether pub is a SEC1 encoding of a curve point.
func ValidPublicKey(pub []byte) bool {
	_, err := parsePublic(pub)
	return err == nil
}

func (Secp256k1) DerivePublic(secret []byte) ([]byte, error) {
	priv, err := parsePrivate(secret)
	if err != nil {
		return nil, err
	}
	return priv.PubKey().SerializeCompressed(), nil
}

func (Secp256k1) Sign(secret []byte, digest [32]byte) ([]byte, error) {
	priv, err := parsePrivate(secret)
	if err != nil {
		return nil, err
	}
	return ecdsa.Sign(priv, digest[:]).Serialize(), nil
}

func (Secp256k1) Verify(pub []byte, digest [32]byte, sig []byte) bool {
	p, err := parsePublic(pub)
	if err != nil {
		return false
	}
	s, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(digest[:], p)
}

func (Secp256k1) TweakAddPrivate(secret []byte, tweak [32]byte) ([]byte, error) {
	priv, err := parsePrivate(secret)
	if err != nil {
		return nil, err
	}
	var t btcec.ModNScalar
	if overflow := t.SetBytes(&tweak); overflow != 0 {
		return nil, ErrInvalidTweak
	}
	sum := new(btcec.ModNScalar).Set(&priv.Key)
	sum.Add(&t)
	if sum.IsZero() {
		return nil, ErrInvalidTweak
	}
	out := sum.Bytes()
	return out[:], nil
}

func (Secp256k1) TweakAddPublic(pub []byte, tweak [32]byte) ([]byte, error) {
	p, err := parsePublic(pub)
	if err != nil {
		return nil, err
	}
	var t btcec.ModNScalar
	if overflow := t.SetBytes(&tweak); overflow != 0 {
		return nil, ErrInvalidTweak
	}

	var tG, parent, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&t, &tG)
	p.AsJacobian(&parent)
	btcec.AddNonConst(&tG, &parent, &sum)
	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, ErrInvalidTweak
	}
	sum.ToAffine()
	return btcec.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed(), nil
}

func (Secp256k1) SignSchnorr(secret []byte, digest [32]byte) ([]byte, error) {
	priv, err := parsePrivate(secret)
	if err != nil {
		return nil, err
	}
	sig, err := schnorr.Sign(priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

func (Secp256k1) VerifySchnorr(xonly []byte, digest [32]byte, sig []byte) bool {
	if len(xonly) != XOnlyPublicKeyLen || len(sig) != SchnorrSignatureLen {
		return false
	}
	p, err := schnorr.ParsePubKey(xonly)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(digest[:], p)
}

// XOnly returns the 32-byte BIP340 encoding of a SEC1 public key.
func XOnly(pub []byte) ([]byte, error) {
	p, err := parsePublic(pub)
	if err != nil {
		return nil, err
	}
	return schnorr.SerializePubKey(p), nil
}

// SignCompact produces a 65-byte recoverable signature, header byte first,
// as used by signed messages.
func SignCompact(secret []byte, digest [32]byte) ([]byte, error) {
	priv, err := parsePrivate(secret)
	if err != nil {
		return nil, err
	}
	return ecdsa.SignCompact(priv, digest[:], true), nil
}

// RecoverCompact recovers the compressed public key from a SignCompact
// signature.
func RecoverCompact(sig []byte, digest [32]byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSignature, len(sig))
	}
	pub, _, err := ecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return pub.SerializeCompressed(), nil
}

// UncompressPublicKey re-encodes a SEC1 public key in the 65-byte form.
func UncompressPublicKey(pub []byte) ([]byte, error) {
	p, err := parsePublic(pub)
	if err != nil {
		return nil, err
	}
	return p.SerializeUncompressed(), nil
}
