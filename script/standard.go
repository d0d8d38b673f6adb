package script

import "fmt"

// Class identifies a recognized script template.
type Class byte

const (
	NonStandardTy         Class = iota // None of the recognized forms.
	PubKeyTy                           // Pay to pubkey.
	PubKeyHashTy                       // Pay to pubkey hash.
	ScriptHashTy                       // Pay to script hash.
	WitnessV0PubKeyHashTy              // Pay to witness pubkey hash.
	WitnessV0ScriptHashTy              // Pay to witness script hash.
	WitnessV1TaprootTy                 // Pay to taproot output key.
	WitnessUnknownTy                   // Witness program of an undefined version or length.
	MultiSigTy                         // Bare multisig.
	NullDataTy                         // Provably unspendable data carrier.
)

var classNames = [...]string{
	NonStandardTy:         "nonstandard",
	PubKeyTy:              "pubkey",
	PubKeyHashTy:          "pubkeyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	WitnessV0ScriptHashTy: "witness_v0_scripthash",
	WitnessV1TaprootTy:    "witness_v1_taproot",
	WitnessUnknownTy:      "witness_unknown",
	MultiSigTy:            "multisig",
	NullDataTy:            "nulldata",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Invalid(%d)", byte(c))
}

const (
	witnessV0KeyLen    = 20
	witnessV0ScriptLen = 32
	taprootKeyLen      = 32

	compressedPubKeyLen   = 33
	uncompressedPubKeyLen = 65

	minWitnessProgramLen = 2
	maxWitnessProgramLen = 40
)

// IsPayToPubKeyHash matches OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
func (s Script) IsPayToPubKeyHash() bool {
	return len(s) == 25 &&
		s[0] == OP_DUP &&
		s[1] == OP_HASH160 &&
		s[2] == OP_DATA_20 &&
		s[23] == OP_EQUALVERIFY &&
		s[24] == OP_CHECKSIG
}

// IsPayToScriptHash matches OP_HASH160 <20> OP_EQUAL.
func (s Script) IsPayToScriptHash() bool {
	return len(s) == 23 &&
		s[0] == OP_HASH160 &&
		s[1] == OP_DATA_20 &&
		s[22] == OP_EQUAL
}

// WitnessProgram splits a witness program script into its version and
// program. ok is false when s is not of the form <small int> <2..40 bytes>
// encoded as a single direct push.
func (s Script) WitnessProgram() (version int, program []byte, ok bool) {
	if len(s) < 4 || len(s) > 2+maxWitnessProgramLen {
		return 0, nil, false
	}
	if s[0] != OP_0 && (s[0] < OP_1 || s[0] > OP_16) {
		return 0, nil, false
	}
	n := int(s[1])
	if n < minWitnessProgramLen || n > maxWitnessProgramLen || n+2 != len(s) {
		return 0, nil, false
	}
	return SmallIntValue(s[0]), s[2:], true
}

func (s Script) IsWitnessProgram() bool {
	_, _, ok := s.WitnessProgram()
	return ok
}

func (s Script) IsPayToWitnessPubKeyHash() bool {
	v, p, ok := s.WitnessProgram()
	return ok && v == 0 && len(p) == witnessV0KeyLen
}

func (s Script) IsPayToWitnessScriptHash() bool {
	v, p, ok := s.WitnessProgram()
	return ok && v == 0 && len(p) == witnessV0ScriptLen
}

func (s Script) IsPayToTaproot() bool {
	v, p, ok := s.WitnessProgram()
	return ok && v == 1 && len(p) == taprootKeyLen
}

// IsNullData matches OP_RETURN followed only by pushes, within the standard
// relay size.
func (s Script) IsNullData() bool {
	if len(s) == 0 || s[0] != OP_RETURN || len(s) > MaxNullDataSize {
		return false
	}
	return s[1:].IsPushOnly()
}

// PayToPubKey returns the key of a bare P2PK script: <33 or 65 bytes>
// OP_CHECKSIG.
func (s Script) PayToPubKey() ([]byte, bool) {
	switch {
	case len(s) == compressedPubKeyLen+2 && s[0] == OP_DATA_33 && s[34] == OP_CHECKSIG:
		if s[1] != 0x02 && s[1] != 0x03 {
			return nil, false
		}
		return s[1:34], true
	case len(s) == uncompressedPubKeyLen+2 && s[0] == OP_DATA_65 && s[66] == OP_CHECKSIG:
		if s[1] != 0x04 {
			return nil, false
		}
		return s[1:66], true
	}
	return nil, false
}

func (s Script) IsPayToPubKey() bool {
	_, ok := s.PayToPubKey()
	return ok
}

// MultiSigDetails holds the parameters of a bare multisig script.
type MultiSigDetails struct {
	Required int
	PubKeys  [][]byte
}

// MultiSig parses <m> <pubkey>... <n> OP_CHECKMULTISIG with 1 <= m <= n <= 16
// and each key a 33- or 65-byte push.
func (s Script) MultiSig() (MultiSigDetails, bool) {
	var d MultiSigDetails
	if len(s) < 3 || s[len(s)-1] != OP_CHECKMULTISIG {
		return d, false
	}
	t := s.Tokenizer()
	if !t.Next() || !IsSmallInt(t.Opcode()) || t.Opcode() == OP_0 {
		return d, false
	}
	m := SmallIntValue(t.Opcode())

	n := -1
	for t.Next() {
		op := t.Opcode()
		if op <= OP_PUSHDATA4 {
			if l := len(t.Data()); l != compressedPubKeyLen && l != uncompressedPubKeyLen {
				return d, false
			}
			d.PubKeys = append(d.PubKeys, t.Data())
			continue
		}
		if !IsSmallInt(op) {
			return d, false
		}
		n = SmallIntValue(op)
		break
	}
	if t.Err() != nil || n < 1 || n != len(d.PubKeys) || m > n {
		return MultiSigDetails{}, false
	}
	if !t.Next() || t.Opcode() != OP_CHECKMULTISIG || !t.Done() {
		return MultiSigDetails{}, false
	}
	d.Required = m
	return d, true
}

func (s Script) IsMultiSig() bool {
	_, ok := s.MultiSig()
	return ok
}

// Classify returns the template s matches. The specific hash templates are
// tried before the generic witness, multisig and bare-key forms.
func Classify(s Script) Class {
	switch {
	case s.IsPayToPubKeyHash():
		return PubKeyHashTy
	case s.IsPayToScriptHash():
		return ScriptHashTy
	case s.IsPayToWitnessPubKeyHash():
		return WitnessV0PubKeyHashTy
	case s.IsPayToWitnessScriptHash():
		return WitnessV0ScriptHashTy
	case s.IsPayToTaproot():
		return WitnessV1TaprootTy
	case s.IsWitnessProgram():
		v, _, _ := s.WitnessProgram()
		if v == 0 {
			// v0 programs are only defined for 20 and 32 bytes.
			return NonStandardTy
		}
		return WitnessUnknownTy
	case s.IsMultiSig():
		return MultiSigTy
	case s.IsNullData():
		return NullDataTy
	case s.IsPayToPubKey():
		return PubKeyTy
	}
	return NonStandardTy
}

// PubKeyHash returns the 20-byte hash of a P2PKH script.
func (s Script) PubKeyHash() ([]byte, bool) {
	if !s.IsPayToPubKeyHash() {
		return nil, false
	}
	return s[3:23], true
}

// ScriptHash returns the 20-byte hash of a P2SH script.
func (s Script) ScriptHash() ([]byte, bool) {
	if !s.IsPayToScriptHash() {
		return nil, false
	}
	return s[2:22], true
}

// NullDataPayload concatenates the pushes following OP_RETURN.
func (s Script) NullDataPayload() ([]byte, bool) {
	if !s.IsNullData() {
		return nil, false
	}
	pushes, err := s[1:].PushedData()
	if err != nil {
		return nil, false
	}
	var out []byte
	for _, p := range pushes {
		out = append(out, p...)
	}
	return out, true
}
