package consensus

import (
	"fmt"

	"dashcore.dev/core/hashes"
	"dashcore.dev/core/script"
)

// SigHashMode selects which outputs a signature commits to.
type SigHashMode uint8

const (
	// SigHashDefault is taproot's implicit ALL, encoded as 0x00 and omitted
	// from the signature.
	SigHashDefault SigHashMode = 0x00
	SigHashAll     SigHashMode = 0x01
	SigHashNone    SigHashMode = 0x02
	SigHashSingle  SigHashMode = 0x03
)

const (
	sigHashAnyoneCanPayBit = 0x80
	sigHashModeMask        = 0x1f
)

// SigHashType is a closed flag value: a mode plus the ANYONECANPAY
// modifier.
type SigHashType struct {
	Mode         SigHashMode
	AnyoneCanPay bool
}

var (
	SigHashTypeAll    = SigHashType{Mode: SigHashAll}
	SigHashTypeNone   = SigHashType{Mode: SigHashNone}
	SigHashTypeSingle = SigHashType{Mode: SigHashSingle}
)

// Byte returns the one-byte encoding appended to signatures.
func (t SigHashType) Byte() byte {
	b := byte(t.Mode)
	if t.AnyoneCanPay {
		b |= sigHashAnyoneCanPayBit
	}
	return b
}

func (t SigHashType) String() string {
	var s string
	switch t.Mode {
	case SigHashDefault:
		s = "DEFAULT"
	case SigHashAll:
		s = "ALL"
	case SigHashNone:
		s = "NONE"
	case SigHashSingle:
		s = "SINGLE"
	default:
		s = fmt.Sprintf("MODE(%d)", uint8(t.Mode))
	}
	if t.AnyoneCanPay {
		s += "|ANYONECANPAY"
	}
	return s
}

// ParseSigHashType accepts only the standard encodings: ALL, NONE and
// SINGLE, each optionally with ANYONECANPAY.
func ParseSigHashType(b byte) (SigHashType, error) {
	t := SigHashType{Mode: SigHashMode(b &^ sigHashAnyoneCanPayBit), AnyoneCanPay: b&sigHashAnyoneCanPayBit != 0}
	switch t.Mode {
	case SigHashAll, SigHashNone, SigHashSingle:
		return t, nil
	}
	return SigHashType{}, txerrf(ERR_BAD_SIGHASH, "non-standard sighash type %#02x", b)
}

// ParseTaprootSigHashType additionally accepts DEFAULT (0x00), which has
// no ANYONECANPAY form.
func ParseTaprootSigHashType(b byte) (SigHashType, error) {
	if b == 0x00 {
		return SigHashType{Mode: SigHashDefault}, nil
	}
	return ParseSigHashType(b)
}

// legacySigHashType maps an arbitrary 32-bit legacy flag to its effective
// behavior. Unknown modes behave as ALL.
func legacySigHashType(raw uint32) SigHashType {
	t := SigHashType{Mode: SigHashAll, AnyoneCanPay: raw&sigHashAnyoneCanPayBit != 0}
	switch SigHashMode(raw & sigHashModeMask) {
	case SigHashNone:
		t.Mode = SigHashNone
	case SigHashSingle:
		t.Mode = SigHashSingle
	}
	return t
}

// singleSentinel is the digest returned by legacy SINGLE when the input has
// no matching output: the number one in little-endian byte order.
var singleSentinel = hashes.Hash256{0x01}

// LegacySigHash computes the original signature digest for input idx with
// a standard flag.
func LegacySigHash(tx *Transaction, idx int, scriptCode script.Script, ht SigHashType) (hashes.Hash256, error) {
	if ht.Mode == SigHashDefault {
		return hashes.Hash256{}, txerr(ERR_BAD_SIGHASH, "DEFAULT is taproot only")
	}
	return LegacySigHashRaw(tx, idx, scriptCode, uint32(ht.Byte()))
}

// LegacySigHashRaw computes the original signature digest with the raw
// 32-bit flag value, which is serialized as given.
//
// The signed transaction is a copy with every scriptSig emptied except the
// one at idx, which is replaced by scriptCode minus OP_CODESEPARATORs. NONE
// drops all outputs; SINGLE keeps outputs up to idx, blanking the earlier
// ones. Both zero the other inputs' sequence numbers. ANYONECANPAY keeps
// only input idx. SINGLE with no output at idx yields the fixed digest
// 0x01 00..00 instead of failing.
func LegacySigHashRaw(tx *Transaction, idx int, scriptCode script.Script, raw uint32) (hashes.Hash256, error) {
	if idx < 0 || idx >= len(tx.Inputs) {
		return hashes.Hash256{}, txerrf(ERR_INDEX_OUT_OF_RANGE, "input %d of %d", idx, len(tx.Inputs))
	}
	ht := legacySigHashType(raw)
	if ht.Mode == SigHashSingle && idx >= len(tx.Outputs) {
		return singleSentinel, nil
	}

	code := scriptCode.WithoutCodeSeparators()
	cp := &Transaction{
		Version:        tx.Version,
		Type:           tx.Type,
		LockTime:       tx.LockTime,
		SpecialPayload: tx.SpecialPayload,
	}

	if ht.AnyoneCanPay {
		in := tx.Inputs[idx]
		cp.Inputs = []TxIn{{PrevOut: in.PrevOut, ScriptSig: code, Sequence: in.Sequence}}
	} else {
		cp.Inputs = make([]TxIn, len(tx.Inputs))
		for i, in := range tx.Inputs {
			cp.Inputs[i] = TxIn{PrevOut: in.PrevOut, Sequence: in.Sequence}
			if i == idx {
				cp.Inputs[i].ScriptSig = code
			} else if ht.Mode == SigHashNone || ht.Mode == SigHashSingle {
				cp.Inputs[i].Sequence = 0
			}
		}
	}

	switch ht.Mode {
	case SigHashNone:
		cp.Outputs = nil
	case SigHashSingle:
		cp.Outputs = make([]TxOut, idx+1)
		for i := 0; i < idx; i++ {
			cp.Outputs[i] = NullTxOut()
		}
		cp.Outputs[idx] = tx.Outputs[idx]
	default:
		cp.Outputs = tx.Outputs
	}

	buf := cp.appendEncoding(make([]byte, 0, cp.BaseSize()+4), false)
	buf = AppendU32le(buf, raw)
	return hashes.DoubleSHA256(buf), nil
}

// SigHashCache holds the per-transaction digests shared by every input's
// witness signature hash. Build it once per transaction and reuse it.
type SigHashCache struct {
	tx *Transaction

	// BIP143, double SHA-256.
	hashPrevouts hashes.Hash256
	hashSequence hashes.Hash256
	hashOutputs  hashes.Hash256

	// BIP341, single SHA-256. Present only with a complete prevout set.
	taproot      bool
	prevOuts     []TxOut
	shaPrevouts  hashes.Hash256
	shaAmounts   hashes.Hash256
	shaScripts   hashes.Hash256
	shaSequences hashes.Hash256
	shaOutputs   hashes.Hash256
}

// NewSigHashCache precomputes the shared digests. fetcher may be nil when
// no taproot inputs will be signed; otherwise it must resolve every input's
// previous output.
func NewSigHashCache(tx *Transaction, fetcher PrevOutputFetcher) (*SigHashCache, error) {
	c := &SigHashCache{tx: tx}

	prevouts := make([]byte, 0, len(tx.Inputs)*OutPointSize)
	sequences := make([]byte, 0, len(tx.Inputs)*4)
	for i := range tx.Inputs {
		prevouts = tx.Inputs[i].PrevOut.AppendTo(prevouts)
		sequences = AppendU32le(sequences, tx.Inputs[i].Sequence)
	}
	var outputs []byte
	for i := range tx.Outputs {
		outputs = tx.Outputs[i].AppendTo(outputs)
	}

	c.shaPrevouts = hashes.SHA256(prevouts)
	c.shaSequences = hashes.SHA256(sequences)
	c.shaOutputs = hashes.SHA256(outputs)
	c.hashPrevouts = hashes.SHA256(c.shaPrevouts[:])
	c.hashSequence = hashes.SHA256(c.shaSequences[:])
	c.hashOutputs = hashes.SHA256(c.shaOutputs[:])

	if fetcher == nil {
		return c, nil
	}
	c.prevOuts = make([]TxOut, len(tx.Inputs))
	var amounts, scripts []byte
	for i := range tx.Inputs {
		out, ok := fetcher.FetchPrevOutput(tx.Inputs[i].PrevOut)
		if !ok {
			return nil, txerrf(ERR_MISSING_PREVOUTS, "no previous output for input %d (%s)", i, tx.Inputs[i].PrevOut)
		}
		c.prevOuts[i] = out
		amounts = AppendU64le(amounts, uint64(out.Value)) // #nosec G115 -- two's complement on the wire.
		scripts = AppendVarBytes(scripts, out.ScriptPubKey)
	}
	c.shaAmounts = hashes.SHA256(amounts)
	c.shaScripts = hashes.SHA256(scripts)
	c.taproot = true
	return c, nil
}

// SegwitV0SigHash computes the BIP143 digest for input idx spending amount
// with the given scriptCode.
func (c *SigHashCache) SegwitV0SigHash(idx int, scriptCode script.Script, amount int64, ht SigHashType) (hashes.Hash256, error) {
	tx := c.tx
	if idx < 0 || idx >= len(tx.Inputs) {
		return hashes.Hash256{}, txerrf(ERR_INDEX_OUT_OF_RANGE, "input %d of %d", idx, len(tx.Inputs))
	}
	if ht.Mode == SigHashDefault {
		return hashes.Hash256{}, txerr(ERR_BAD_SIGHASH, "DEFAULT is taproot only")
	}

	var zero hashes.Hash256
	hashPrevouts, hashSequence, hashOutputs := zero, zero, zero
	if !ht.AnyoneCanPay {
		hashPrevouts = c.hashPrevouts
	}
	if !ht.AnyoneCanPay && ht.Mode == SigHashAll {
		hashSequence = c.hashSequence
	}
	switch {
	case ht.Mode == SigHashAll:
		hashOutputs = c.hashOutputs
	case ht.Mode == SigHashSingle && idx < len(tx.Outputs):
		hashOutputs = hashes.DoubleSHA256(tx.Outputs[idx].AppendTo(nil))
	}

	in := &tx.Inputs[idx]
	buf := make([]byte, 0, 4+32+32+OutPointSize+9+len(scriptCode)+8+4+32+4+4)
	buf = AppendU32le(buf, tx.wireVersion())
	buf = append(buf, hashPrevouts[:]...)
	buf = append(buf, hashSequence[:]...)
	buf = in.PrevOut.AppendTo(buf)
	buf = AppendVarBytes(buf, scriptCode)
	buf = AppendU64le(buf, uint64(amount)) // #nosec G115 -- two's complement on the wire.
	buf = AppendU32le(buf, in.Sequence)
	buf = append(buf, hashOutputs[:]...)
	buf = AppendU32le(buf, tx.LockTime)
	buf = AppendU32le(buf, uint32(ht.Byte()))
	return hashes.DoubleSHA256(buf), nil
}

// SegwitV0SigHash is the uncached BIP143 digest.
func SegwitV0SigHash(tx *Transaction, idx int, scriptCode script.Script, amount int64, ht SigHashType) (hashes.Hash256, error) {
	c, err := NewSigHashCache(tx, nil)
	if err != nil {
		return hashes.Hash256{}, err
	}
	return c.SegwitV0SigHash(idx, scriptCode, amount, ht)
}

// TapLeafVersion is the leaf version of BIP342 tapscript.
const TapLeafVersion = 0xc0

// TapLeafHash is the tagged hash identifying a tapscript leaf.
func TapLeafHash(leafVersion byte, s script.Script) hashes.Hash256 {
	buf := make([]byte, 0, 1+9+len(s))
	buf = append(buf, leafVersion)
	buf = AppendVarBytes(buf, s)
	return hashes.TaggedHash("TapLeaf", buf)
}

// TapscriptSpend carries the script-path extension of the taproot digest.
type TapscriptSpend struct {
	LeafHash hashes.Hash256
	// CodeSepPos is the opcode position of the last executed
	// OP_CODESEPARATOR, or 0xffffffff when none was executed.
	CodeSepPos uint32
}

// TaprootSigHash computes the BIP341 digest for input idx. leaf is nil for
// a key-path spend. annex, when present, must start with 0x50.
func (c *SigHashCache) TaprootSigHash(idx int, ht SigHashType, leaf *TapscriptSpend, annex []byte) (hashes.Hash256, error) {
	tx := c.tx
	if idx < 0 || idx >= len(tx.Inputs) {
		return hashes.Hash256{}, txerrf(ERR_INDEX_OUT_OF_RANGE, "input %d of %d", idx, len(tx.Inputs))
	}
	if !c.taproot {
		return hashes.Hash256{}, txerr(ERR_MISSING_PREVOUTS, "taproot digest needs every previous output")
	}
	if ht.Mode == SigHashDefault && ht.AnyoneCanPay {
		return hashes.Hash256{}, txerr(ERR_BAD_SIGHASH, "DEFAULT cannot be combined with ANYONECANPAY")
	}
	if ht.Mode > SigHashSingle {
		return hashes.Hash256{}, txerrf(ERR_BAD_SIGHASH, "sighash mode %d", ht.Mode)
	}
	if len(annex) > 0 && annex[0] != 0x50 {
		return hashes.Hash256{}, txerr(ERR_BAD_SIGHASH, "annex must start with 0x50")
	}
	if ht.Mode == SigHashSingle && idx >= len(tx.Outputs) {
		return hashes.Hash256{}, txerrf(ERR_INDEX_OUT_OF_RANGE, "SINGLE input %d has no output", idx)
	}

	buf := make([]byte, 0, 1+1+4+4+5*32+1+OutPointSize+8+9+34+4+32+32+1+4)
	buf = append(buf, 0x00) // epoch
	buf = append(buf, ht.Byte())
	buf = AppendU32le(buf, tx.wireVersion())
	buf = AppendU32le(buf, tx.LockTime)
	if !ht.AnyoneCanPay {
		buf = append(buf, c.shaPrevouts[:]...)
		buf = append(buf, c.shaAmounts[:]...)
		buf = append(buf, c.shaScripts[:]...)
		buf = append(buf, c.shaSequences[:]...)
	}
	if ht.Mode == SigHashAll || ht.Mode == SigHashDefault {
		buf = append(buf, c.shaOutputs[:]...)
	}

	var spendType byte
	if leaf != nil {
		spendType |= 2
	}
	if len(annex) > 0 {
		spendType |= 1
	}
	buf = append(buf, spendType)

	if ht.AnyoneCanPay {
		in := &tx.Inputs[idx]
		prev := c.prevOuts[idx]
		buf = in.PrevOut.AppendTo(buf)
		buf = AppendU64le(buf, uint64(prev.Value)) // #nosec G115 -- two's complement on the wire.
		buf = AppendVarBytes(buf, prev.ScriptPubKey)
		buf = AppendU32le(buf, in.Sequence)
	} else {
		buf = AppendU32le(buf, uint32(idx)) // #nosec G115 -- idx < len(Inputs).
	}
	if len(annex) > 0 {
		h := hashes.SHA256(AppendVarBytes(nil, annex))
		buf = append(buf, h[:]...)
	}
	if ht.Mode == SigHashSingle {
		h := hashes.SHA256(tx.Outputs[idx].AppendTo(nil))
		buf = append(buf, h[:]...)
	}
	if leaf != nil {
		buf = append(buf, leaf.LeafHash[:]...)
		buf = append(buf, 0x00) // key version
		buf = AppendU32le(buf, leaf.CodeSepPos)
	}
	return hashes.TaggedHash("TapSighash", buf), nil
}

// TaprootSigHash is the uncached BIP341 digest.
func TaprootSigHash(tx *Transaction, idx int, fetcher PrevOutputFetcher, ht SigHashType, leaf *TapscriptSpend, annex []byte) (hashes.Hash256, error) {
	if fetcher == nil {
		return hashes.Hash256{}, txerr(ERR_MISSING_PREVOUTS, "nil previous output fetcher")
	}
	c, err := NewSigHashCache(tx, fetcher)
	if err != nil {
		return hashes.Hash256{}, err
	}
	return c.TaprootSigHash(idx, ht, leaf, annex)
}

// PrevOutputFetcher resolves the outputs spent by a transaction's inputs.
type PrevOutputFetcher interface {
	FetchPrevOutput(OutPoint) (TxOut, bool)
}

// PrevOutputs is a map-backed PrevOutputFetcher.
type PrevOutputs map[OutPoint]TxOut

func (p PrevOutputs) FetchPrevOutput(op OutPoint) (TxOut, bool) {
	out, ok := p[op]
	return out, ok
}
