// Package hdkey implements hierarchical deterministic keys: master key
// generation from a seed, private and public child derivation, and the
// 78-byte extended key record in its Base58Check form.
//
// Extended keys are independent values. A child remembers its parent only
// through the 4-byte parent fingerprint, which CheckParent compares.
package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"dashcore.dev/core/address"
	"dashcore.dev/core/crypto"
	"dashcore.dev/core/hashes"
	"dashcore.dev/core/network"
)

const (
	// HardenedKeyStart is the first hardened child index.
	HardenedKeyStart uint32 = 0x8000_0000

	MinSeedBytes       = 16
	MaxSeedBytes       = 64
	RecommendedSeedLen = 32

	// SerializedKeyLen is the size of the extended key record before
	// Base58Check encoding.
	SerializedKeyLen = 78

	maxDepth     = 255
	chainCodeLen = 32
)

var masterHMACKey = []byte("Bitcoin seed")

var curve crypto.Curve = crypto.Secp256k1{}

// ExtendedKey is implemented by *ExtendedPrivKey and *ExtendedPubKey.
type ExtendedKey interface {
	String() string
	Serialize() []byte
	Fingerprint() [4]byte
	IsPrivate() bool
	Public() *ExtendedPubKey
}

// keyMeta holds the record fields shared by both variants.
type keyMeta struct {
	Params     *network.Params
	Depth      uint8
	ParentFP   [4]byte
	ChildIndex uint32
	ChainCode  [chainCodeLen]byte
}

// ExtendedPrivKey is an extended key carrying the private scalar.
type ExtendedPrivKey struct {
	keyMeta
	key []byte
}

// ExtendedPubKey is an extended key carrying only the compressed public
// point.
type ExtendedPubKey struct {
	keyMeta
	key []byte
}

var (
	_ ExtendedKey = (*ExtendedPrivKey)(nil)
	_ ExtendedKey = (*ExtendedPubKey)(nil)
)

func hmac512(key, data []byte) (il [32]byte, ir [32]byte) {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	sum := mac.Sum(nil)
	copy(il[:], sum[:32])
	copy(ir[:], sum[32:])
	return il, ir
}

// NewMaster derives the master key of seed.
func NewMaster(seed []byte, params *network.Params) (*ExtendedPrivKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSeedLen, len(seed))
	}
	il, ir := hmac512(masterHMACKey, seed)
	if !crypto.ValidPrivateKey(il[:]) {
		return nil, fmt.Errorf("%w: seed yields an unusable master key", ErrInvalidKeyData)
	}
	k := &ExtendedPrivKey{keyMeta: keyMeta{Params: params, ChainCode: ir}, key: il[:]}
	return k, nil
}

func (m *keyMeta) childMeta(index uint32, parentFP [4]byte, chainCode [32]byte) (keyMeta, error) {
	if m.Depth == maxDepth {
		return keyMeta{}, ErrDepthExceeded
	}
	return keyMeta{
		Params:     m.Params,
		Depth:      m.Depth + 1,
		ParentFP:   parentFP,
		ChildIndex: index,
		ChainCode:  chainCode,
	}, nil
}

func tweakErr(err error) error {
	if errors.Is(err, crypto.ErrInvalidTweak) {
		return fmt.Errorf("%w: %w", ErrInvalidTweak, err)
	}
	return err
}

// PrivKey returns a copy of the 32-byte secret.
func (k *ExtendedPrivKey) PrivKey() []byte { return bytes.Clone(k.key) }

// PubKey returns the compressed public key.
func (k *ExtendedPrivKey) PubKey() []byte {
	pub, err := curve.DerivePublic(k.key)
	if err != nil {
		// The scalar was validated on construction.
		return nil
	}
	return pub
}

func (k *ExtendedPrivKey) IsPrivate() bool { return true }

// Fingerprint is the first four bytes of the Hash160 of the public key.
func (k *ExtendedPrivKey) Fingerprint() [4]byte { return fingerprint(k.PubKey()) }

func fingerprint(pub []byte) [4]byte {
	h := hashes.Hash160Of(pub)
	return [4]byte(h[:4])
}

// Child derives the child at index. Indexes from HardenedKeyStart up are
// hardened.
func (k *ExtendedPrivKey) Child(index uint32) (*ExtendedPrivKey, error) {
	pub := k.PubKey()
	data := make([]byte, 0, 37)
	if index >= HardenedKeyStart {
		data = append(data, 0x00)
		data = append(data, k.key...)
	} else {
		data = append(data, pub...)
	}
	data = binary.BigEndian.AppendUint32(data, index)

	il, ir := hmac512(k.ChainCode[:], data)
	meta, err := k.childMeta(index, fingerprint(pub), ir)
	if err != nil {
		return nil, err
	}
	childKey, err := curve.TweakAddPrivate(k.key, il)
	if err != nil {
		return nil, tweakErr(err)
	}
	return &ExtendedPrivKey{keyMeta: meta, key: childKey}, nil
}

// Derive walks path from k. The path is taken relative to k.
func (k *ExtendedPrivKey) Derive(path DerivationPath) (*ExtendedPrivKey, error) {
	cur := k
	for _, index := range path {
		next, err := cur.Child(index)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
		cur = next
	}
	return cur, nil
}

// Neuter returns the public variant of k.
func (k *ExtendedPrivKey) Neuter() *ExtendedPubKey {
	return &ExtendedPubKey{keyMeta: k.keyMeta, key: k.PubKey()}
}

func (k *ExtendedPrivKey) Public() *ExtendedPubKey { return k.Neuter() }

// WIF returns the secret in wallet import format for compressed keys.
func (k *ExtendedPrivKey) WIF() (*address.WIF, error) {
	return address.NewWIF(k.key, k.Params, true)
}

// Address returns the pay-to-pubkey-hash address of the key.
func (k *ExtendedPrivKey) Address() (*address.PubKeyHashAddress, error) {
	return address.NewAddressFromPubKey(k.PubKey(), k.Params)
}

func (k *ExtendedPrivKey) Serialize() []byte {
	return k.serialize(k.Params.HDPrivateKeyID, append([]byte{0x00}, k.key...))
}

func (k *ExtendedPrivKey) String() string {
	return address.CheckEncode(k.Params.HDPrivateKeyID[:], k.Serialize()[4:])
}

// PubKey returns a copy of the compressed public key.
func (k *ExtendedPubKey) PubKey() []byte { return bytes.Clone(k.key) }

func (k *ExtendedPubKey) IsPrivate() bool { return false }

func (k *ExtendedPubKey) Fingerprint() [4]byte { return fingerprint(k.key) }

func (k *ExtendedPubKey) Public() *ExtendedPubKey { return k }

// Child derives the non-hardened child at index.
func (k *ExtendedPubKey) Child(index uint32) (*ExtendedPubKey, error) {
	if index >= HardenedKeyStart {
		return nil, ErrHardenedFromPublic
	}
	data := binary.BigEndian.AppendUint32(bytes.Clone(k.key), index)
	il, ir := hmac512(k.ChainCode[:], data)
	meta, err := k.childMeta(index, fingerprint(k.key), ir)
	if err != nil {
		return nil, err
	}
	childKey, err := curve.TweakAddPublic(k.key, il)
	if err != nil {
		return nil, tweakErr(err)
	}
	return &ExtendedPubKey{keyMeta: meta, key: childKey}, nil
}

// Derive walks path from k. Any hardened element fails with
// ErrHardenedFromPublic.
func (k *ExtendedPubKey) Derive(path DerivationPath) (*ExtendedPubKey, error) {
	cur := k
	for _, index := range path {
		next, err := cur.Child(index)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
		cur = next
	}
	return cur, nil
}

func (k *ExtendedPubKey) Address() (*address.PubKeyHashAddress, error) {
	return address.NewAddressFromPubKey(k.key, k.Params)
}

func (k *ExtendedPubKey) Serialize() []byte {
	return k.serialize(k.Params.HDPublicKeyID, k.key)
}

func (k *ExtendedPubKey) String() string {
	return address.CheckEncode(k.Params.HDPublicKeyID[:], k.Serialize()[4:])
}

// serialize lays out version || depth || parent fingerprint || index ||
// chain code || key data.
func (m *keyMeta) serialize(version [4]byte, keyData []byte) []byte {
	b := make([]byte, 0, SerializedKeyLen)
	b = append(b, version[:]...)
	b = append(b, m.Depth)
	b = append(b, m.ParentFP[:]...)
	b = binary.BigEndian.AppendUint32(b, m.ChildIndex)
	b = append(b, m.ChainCode[:]...)
	return append(b, keyData...)
}

// CheckParent verifies that child records parent as its parent.
func CheckParent(child, parent ExtendedKey) error {
	var fp [4]byte
	switch c := child.(type) {
	case *ExtendedPrivKey:
		fp = c.ParentFP
	case *ExtendedPubKey:
		fp = c.ParentFP
	}
	if fp != parent.Fingerprint() {
		return fmt.Errorf("%w: child records %x, parent is %x", ErrParentMismatch, fp, parent.Fingerprint())
	}
	return nil
}

// Parse decodes a Base58Check extended key for params. The version bytes
// select the private or public variant.
func Parse(s string, params *network.Params) (ExtendedKey, error) {
	version, payload, err := address.CheckDecode(s, 4)
	if err != nil {
		return nil, err
	}
	if len(payload) != SerializedKeyLen-4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKeyData, len(payload)+4)
	}
	meta := keyMeta{
		Params:     params,
		Depth:      payload[0],
		ParentFP:   [4]byte(payload[1:5]),
		ChildIndex: binary.BigEndian.Uint32(payload[5:9]),
		ChainCode:  [32]byte(payload[9:41]),
	}
	keyData := payload[41:]
	if meta.Depth == 0 {
		if meta.ParentFP != [4]byte{} {
			return nil, fmt.Errorf("%w: master key with parent fingerprint", ErrInvalidKeyData)
		}
		if meta.ChildIndex != 0 {
			return nil, fmt.Errorf("%w: master key with child index", ErrInvalidKeyData)
		}
	}

	switch [4]byte(version) {
	case params.HDPrivateKeyID:
		if keyData[0] != 0x00 {
			return nil, fmt.Errorf("%w: private key prefix %#02x", ErrInvalidKeyData, keyData[0])
		}
		secret := bytes.Clone(keyData[1:])
		if !crypto.ValidPrivateKey(secret) {
			return nil, fmt.Errorf("%w: private key out of range", ErrInvalidKeyData)
		}
		return &ExtendedPrivKey{keyMeta: meta, key: secret}, nil
	case params.HDPublicKeyID:
		if keyData[0] != 0x02 && keyData[0] != 0x03 {
			return nil, fmt.Errorf("%w: public key prefix %#02x", ErrInvalidKeyData, keyData[0])
		}
		if !crypto.ValidPublicKey(keyData) {
			return nil, fmt.Errorf("%w: public key not on curve", ErrInvalidKeyData)
		}
		return &ExtendedPubKey{keyMeta: meta, key: bytes.Clone(keyData)}, nil
	}
	return nil, fmt.Errorf("%w: extended key version %x on %s", ErrBadNetwork, version, params)
}

// ParsePrivate decodes an extended private key.
func ParsePrivate(s string, params *network.Params) (*ExtendedPrivKey, error) {
	k, err := Parse(s, params)
	if err != nil {
		return nil, err
	}
	priv, ok := k.(*ExtendedPrivKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key where private expected", ErrInvalidKeyData)
	}
	return priv, nil
}

// ParsePublic decodes an extended public key.
func ParsePublic(s string, params *network.Params) (*ExtendedPubKey, error) {
	k, err := Parse(s, params)
	if err != nil {
		return nil, err
	}
	pub, ok := k.(*ExtendedPubKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key where public expected", ErrInvalidKeyData)
	}
	return pub, nil
}
