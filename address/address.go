package address

import (
	"fmt"
	"strings"

	"dashcore.dev/core/hashes"
	"dashcore.dev/core/network"
	"dashcore.dev/core/script"
)

// Address is a decoded payment target bound to the network it was encoded
// for.
type Address interface {
	// String returns the canonical encoding.
	String() string
	// ScriptPubKey returns the output script paying to the address.
	ScriptPubKey() script.Script
	Params() *network.Params
}

// PubKeyHashAddress pays to the hash of a public key.
type PubKeyHashAddress struct {
	params *network.Params
	hash   hashes.PubkeyHash
}

func NewPubKeyHashAddress(hash hashes.PubkeyHash, params *network.Params) *PubKeyHashAddress {
	return &PubKeyHashAddress{params: params, hash: hash}
}

// NewAddressFromPubKey hashes a 33- or 65-byte SEC1 public key.
func NewAddressFromPubKey(pub []byte, params *network.Params) (*PubKeyHashAddress, error) {
	switch {
	case len(pub) == 33 && (pub[0] == 0x02 || pub[0] == 0x03):
	case len(pub) == 65 && pub[0] == 0x04:
	default:
		return nil, fmt.Errorf("%w: public key of %d bytes", ErrInvalidLength, len(pub))
	}
	return NewPubKeyHashAddress(hashes.PubkeyHash(hashes.Hash160Of(pub)), params), nil
}

func (a *PubKeyHashAddress) String() string {
	return CheckEncode([]byte{a.params.PubKeyHashAddrID}, a.hash[:])
}

func (a *PubKeyHashAddress) ScriptPubKey() script.Script {
	return script.PayToPubKeyHash(a.hash)
}

func (a *PubKeyHashAddress) Params() *network.Params { return a.params }

func (a *PubKeyHashAddress) Hash160() hashes.PubkeyHash { return a.hash }

// ScriptHashAddress pays to the hash of a redeem script.
type ScriptHashAddress struct {
	params *network.Params
	hash   hashes.ScriptHash
}

func NewScriptHashAddress(hash hashes.ScriptHash, params *network.Params) *ScriptHashAddress {
	return &ScriptHashAddress{params: params, hash: hash}
}

func NewScriptHashAddressFromScript(redeem script.Script, params *network.Params) (*ScriptHashAddress, error) {
	if redeem.Len() > script.MaxScriptElementSize {
		return nil, fmt.Errorf("%w: redeem script of %d bytes", ErrInvalidLength, redeem.Len())
	}
	return NewScriptHashAddress(hashes.ScriptHash(hashes.Hash160Of(redeem)), params), nil
}

func (a *ScriptHashAddress) String() string {
	return CheckEncode([]byte{a.params.ScriptHashAddrID}, a.hash[:])
}

func (a *ScriptHashAddress) ScriptPubKey() script.Script {
	return script.PayToScriptHash(a.hash)
}

func (a *ScriptHashAddress) Params() *network.Params { return a.params }

func (a *ScriptHashAddress) Hash160() hashes.ScriptHash { return a.hash }

// WitnessAddress pays to a witness program of any version.
type WitnessAddress struct {
	params  *network.Params
	version int
	program []byte
}

func NewWitnessAddress(version int, program []byte, params *network.Params) (*WitnessAddress, error) {
	if !params.SupportsSegwit() {
		return nil, fmt.Errorf("%w: %s has no segwit addresses", ErrUnsupported, params)
	}
	if err := checkProgram(version, program); err != nil {
		return nil, err
	}
	return &WitnessAddress{params: params, version: version, program: append([]byte(nil), program...)}, nil
}

func (a *WitnessAddress) String() string {
	s, err := EncodeSegwit(a.params.Bech32HRP, a.version, a.program)
	if err != nil {
		// The program was validated on construction.
		return ""
	}
	return s
}

func (a *WitnessAddress) ScriptPubKey() script.Script {
	s, _ := script.PayToWitness(a.version, a.program)
	return s
}

func (a *WitnessAddress) Params() *network.Params { return a.params }

func (a *WitnessAddress) Version() int { return a.version }

// Program returns a copy of the witness program.
func (a *WitnessAddress) Program() []byte { return append([]byte(nil), a.program...) }

// Decode parses an address string for params. Strings starting with the
// network's Bech32 prefix are decoded as witness addresses, everything else
// as Base58Check.
func Decode(s string, params *network.Params) (Address, error) {
	if params.SupportsSegwit() && len(s) > len(params.Bech32HRP) &&
		strings.EqualFold(s[:len(params.Bech32HRP)+1], params.Bech32HRP+"1") {
		version, program, err := DecodeSegwit(params.Bech32HRP, s)
		if err != nil {
			return nil, err
		}
		return &WitnessAddress{params: params, version: version, program: program}, nil
	}

	version, payload, err := CheckDecode(s, 1)
	if err != nil {
		return nil, err
	}
	if len(payload) != hashes.Hash160Size {
		return nil, fmt.Errorf("%w: payload of %d bytes", ErrInvalidLength, len(payload))
	}
	h := hashes.Hash160(payload)
	switch version[0] {
	case params.PubKeyHashAddrID:
		return NewPubKeyHashAddress(hashes.PubkeyHash(h), params), nil
	case params.ScriptHashAddrID:
		return NewScriptHashAddress(hashes.ScriptHash(h), params), nil
	}
	return nil, fmt.Errorf("%w: version %d on %s", ErrBadNetwork, version[0], params)
}

// FromScript maps a standard output script to its address.
func FromScript(s script.Script, params *network.Params) (Address, error) {
	if h, ok := s.PubKeyHash(); ok {
		return NewPubKeyHashAddress(hashes.PubkeyHash(h), params), nil
	}
	if h, ok := s.ScriptHash(); ok {
		return NewScriptHashAddress(hashes.ScriptHash(h), params), nil
	}
	if version, program, ok := s.WitnessProgram(); ok {
		return NewWitnessAddress(version, program, params)
	}
	return nil, fmt.Errorf("%w: %s script", ErrUnsupported, script.Classify(s))
}
