package address

import (
	"fmt"

	"dashcore.dev/core/crypto"
	"dashcore.dev/core/network"
)

const compressMagic = 0x01

// WIF is a private key in wallet import format.
type WIF struct {
	PrivKey    []byte
	Compressed bool
	Params     *network.Params
}

// NewWIF wraps a 32-byte secret. Compressed selects the public key form
// the key's addresses are derived from.
func NewWIF(secret []byte, params *network.Params, compressed bool) (*WIF, error) {
	if !crypto.ValidPrivateKey(secret) {
		return nil, crypto.ErrInvalidPrivateKey
	}
	return &WIF{PrivKey: append([]byte(nil), secret...), Compressed: compressed, Params: params}, nil
}

// DecodeWIF parses s, which must use the WIF version byte of params.
func DecodeWIF(s string, params *network.Params) (*WIF, error) {
	version, payload, err := CheckDecode(s, 1)
	if err != nil {
		return nil, err
	}
	if version[0] != params.PrivateKeyID {
		return nil, fmt.Errorf("%w: wif version %d on %s", ErrBadNetwork, version[0], params)
	}
	w := &WIF{Params: params}
	switch {
	case len(payload) == crypto.PrivateKeyLen:
	case len(payload) == crypto.PrivateKeyLen+1 && payload[crypto.PrivateKeyLen] == compressMagic:
		w.Compressed = true
		payload = payload[:crypto.PrivateKeyLen]
	default:
		return nil, fmt.Errorf("%w: wif payload of %d bytes", ErrInvalidLength, len(payload))
	}
	if !crypto.ValidPrivateKey(payload) {
		return nil, crypto.ErrInvalidPrivateKey
	}
	w.PrivKey = payload
	return w, nil
}

func (w *WIF) String() string {
	payload := append([]byte(nil), w.PrivKey...)
	if w.Compressed {
		payload = append(payload, compressMagic)
	}
	return CheckEncode([]byte{w.Params.PrivateKeyID}, payload)
}

// PubKey returns the public key in the form selected by Compressed.
func (w *WIF) PubKey() ([]byte, error) {
	pub, err := crypto.Secp256k1{}.DerivePublic(w.PrivKey)
	if err != nil {
		return nil, err
	}
	if w.Compressed {
		return pub, nil
	}
	return crypto.UncompressPublicKey(pub)
}

// Address returns the pay-to-pubkey-hash address of the key.
func (w *WIF) Address() (*PubKeyHashAddress, error) {
	pub, err := w.PubKey()
	if err != nil {
		return nil, err
	}
	return NewAddressFromPubKey(pub, w.Params)
}
