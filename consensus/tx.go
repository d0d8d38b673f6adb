package consensus

import (
	"bytes"
	"fmt"
	"io"

	"dashcore.dev/core/hashes"
	"dashcore.dev/core/script"
)

const (
	// MaxPrevOutIndex is the output index carried by a coinbase input.
	MaxPrevOutIndex = 0xffff_ffff

	// SequenceFinal disables lock time and replacement for an input.
	SequenceFinal = 0xffff_ffff

	// SpecialTxVersion is the first transaction version that may carry a
	// typed special payload.
	SpecialTxVersion = 3

	witnessMarker = 0x00
	witnessFlag   = 0x01

	WitnessScaleFactor = 4
)

// OutPoint references an output of a previous transaction.
type OutPoint struct {
	Txid hashes.Txid
	Vout uint32
}

// NullOutPoint is the all-zero, max-index reference carried by coinbase
// inputs.
func NullOutPoint() OutPoint {
	return OutPoint{Vout: MaxPrevOutIndex}
}

func (o OutPoint) IsNull() bool {
	return o.Vout == MaxPrevOutIndex && o.Txid.IsZero()
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Txid, o.Vout)
}

const OutPointSize = 36

func (o OutPoint) AppendTo(dst []byte) []byte {
	dst = append(dst, o.Txid[:]...)
	return AppendU32le(dst, o.Vout)
}

func (o OutPoint) Encode(w io.Writer) (int, error) {
	return w.Write(o.AppendTo(make([]byte, 0, OutPointSize)))
}

func DecodeOutPoint(r *Reader) (OutPoint, error) {
	var o OutPoint
	h, err := r.ReadHash()
	if err != nil {
		return o, err
	}
	vout, err := r.ReadU32LE()
	if err != nil {
		return o, err
	}
	o.Txid = hashes.Txid(h)
	o.Vout = vout
	return o, nil
}

// Witness is the stack of items proving an input's witness program.
type Witness [][]byte

func (w Witness) SerializeSize() int {
	n := CompactSizeLen(uint64(len(w)))
	for _, item := range w {
		n += CompactSizeLen(uint64(len(item))) + len(item)
	}
	return n
}

func (w Witness) AppendTo(dst []byte) []byte {
	dst = AppendCompactSize(dst, uint64(len(w)))
	for _, item := range w {
		dst = AppendVarBytes(dst, item)
	}
	return dst
}

func DecodeWitness(r *Reader) (Witness, error) {
	lim := r.Limits()
	n, err := r.ReadCount(lim.MaxWitnessItems, "witness items")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	w := make(Witness, 0, min(n, r.Remaining()))
	for range n {
		item, err := r.ReadVarBytes(lim.MaxWitnessItemLen, "witness item")
		if err != nil {
			return nil, err
		}
		w = append(w, item)
	}
	return w, nil
}

// TxIn is a transaction input. Witness is carried outside the legacy
// encoding and is only serialized in the extended form.
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig script.Script
	Sequence  uint32
	Witness   Witness
}

// SerializeSize is the legacy encoded size, excluding the witness.
func (in *TxIn) SerializeSize() int {
	return OutPointSize + CompactSizeLen(uint64(len(in.ScriptSig))) + len(in.ScriptSig) + 4
}

func (in *TxIn) AppendTo(dst []byte) []byte {
	dst = in.PrevOut.AppendTo(dst)
	dst = AppendVarBytes(dst, in.ScriptSig)
	return AppendU32le(dst, in.Sequence)
}

func (in *TxIn) Encode(w io.Writer) (int, error) {
	return w.Write(in.AppendTo(make([]byte, 0, in.SerializeSize())))
}

// DecodeTxIn reads the legacy part of an input. The witness, if any, is
// read separately after all outputs.
func DecodeTxIn(r *Reader) (TxIn, error) {
	var in TxIn
	op, err := DecodeOutPoint(r)
	if err != nil {
		return in, err
	}
	sig, err := r.ReadVarBytes(r.Limits().MaxScriptBytes, "script_sig")
	if err != nil {
		return in, err
	}
	seq, err := r.ReadU32LE()
	if err != nil {
		return in, err
	}
	in.PrevOut = op
	in.ScriptSig = sig
	in.Sequence = seq
	return in, nil
}

// TxOut is a transaction output. Value is in duffs.
type TxOut struct {
	Value        int64
	ScriptPubKey script.Script
}

// NullTxOut is the blanked output used by legacy SIGHASH_SINGLE: value -1
// and an empty script.
func NullTxOut() TxOut {
	return TxOut{Value: -1}
}

func (o *TxOut) IsNull() bool {
	return o.Value == -1 && len(o.ScriptPubKey) == 0
}

func (o *TxOut) SerializeSize() int {
	return 8 + CompactSizeLen(uint64(len(o.ScriptPubKey))) + len(o.ScriptPubKey)
}

func (o *TxOut) AppendTo(dst []byte) []byte {
	dst = AppendU64le(dst, uint64(o.Value)) // #nosec G115 -- two's complement on the wire.
	return AppendVarBytes(dst, o.ScriptPubKey)
}

func (o *TxOut) Encode(w io.Writer) (int, error) {
	return w.Write(o.AppendTo(make([]byte, 0, o.SerializeSize())))
}

func DecodeTxOut(r *Reader) (TxOut, error) {
	var o TxOut
	v, err := r.ReadI64LE()
	if err != nil {
		return o, err
	}
	spk, err := r.ReadVarBytes(r.Limits().MaxScriptBytes, "script_pubkey")
	if err != nil {
		return o, err
	}
	o.Value = v
	o.ScriptPubKey = spk
	return o, nil
}

// Transaction is a Dash transaction. The 32-bit version on the wire is split
// into a 16-bit Version and a 16-bit special transaction Type. When Version
// is at least 3 and Type is not TxTypeClassic a length-prefixed payload
// follows the lock time.
//
// Identifiers are derived from the current field values on every call.
type Transaction struct {
	Version        uint16
	Type           TxType
	Inputs         []TxIn
	Outputs        []TxOut
	LockTime       uint32
	SpecialPayload []byte
}

// HasSpecialPayload reports whether the payload field is part of the
// encoding.
func (tx *Transaction) HasSpecialPayload() bool {
	return tx.Version >= SpecialTxVersion && tx.Type != TxTypeClassic
}

// HasWitness reports whether any input carries witness data.
func (tx *Transaction) HasWitness() bool {
	for i := range tx.Inputs {
		if len(tx.Inputs[i].Witness) != 0 {
			return true
		}
	}
	return false
}

// IsCoinbase reports a single input spending the null outpoint.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevOut.IsNull()
}

func (tx *Transaction) wireVersion() uint32 {
	return uint32(tx.Version) | uint32(tx.Type)<<16
}

// useExtended selects the marker/flag form. A transaction with no inputs
// but some outputs uses it as well, so the empty input count is not
// mistaken for the marker. With no inputs and no outputs the legacy
// 0x00 0x00 form is unambiguous; quorum commitments are written that way.
func (tx *Transaction) useExtended() bool {
	return tx.HasWitness() || (len(tx.Inputs) == 0 && len(tx.Outputs) > 0)
}

func (tx *Transaction) appendEncoding(dst []byte, extended bool) []byte {
	dst = AppendU32le(dst, tx.wireVersion())
	if extended {
		dst = append(dst, witnessMarker, witnessFlag)
	}
	dst = AppendCompactSize(dst, uint64(len(tx.Inputs)))
	for i := range tx.Inputs {
		dst = tx.Inputs[i].AppendTo(dst)
	}
	dst = AppendCompactSize(dst, uint64(len(tx.Outputs)))
	for i := range tx.Outputs {
		dst = tx.Outputs[i].AppendTo(dst)
	}
	if extended {
		for i := range tx.Inputs {
			dst = tx.Inputs[i].Witness.AppendTo(dst)
		}
	}
	dst = AppendU32le(dst, tx.LockTime)
	if tx.HasSpecialPayload() {
		dst = AppendVarBytes(dst, tx.SpecialPayload)
	}
	return dst
}

// BaseSize is the size of the encoding without witness data.
func (tx *Transaction) BaseSize() int {
	n := 4 + CompactSizeLen(uint64(len(tx.Inputs))) + CompactSizeLen(uint64(len(tx.Outputs))) + 4
	for i := range tx.Inputs {
		n += tx.Inputs[i].SerializeSize()
	}
	for i := range tx.Outputs {
		n += tx.Outputs[i].SerializeSize()
	}
	if tx.HasSpecialPayload() {
		n += CompactSizeLen(uint64(len(tx.SpecialPayload))) + len(tx.SpecialPayload)
	}
	return n
}

// SerializeSize is the size of the canonical encoding.
func (tx *Transaction) SerializeSize() int {
	n := tx.BaseSize()
	if tx.useExtended() {
		n += 2
		for i := range tx.Inputs {
			n += tx.Inputs[i].Witness.SerializeSize()
		}
	}
	return n
}

// Weight is BaseSize*3 + SerializeSize.
func (tx *Transaction) Weight() int {
	return tx.BaseSize()*(WitnessScaleFactor-1) + tx.SerializeSize()
}

// VSize is the weight divided by four, rounded up.
func (tx *Transaction) VSize() int {
	return (tx.Weight() + WitnessScaleFactor - 1) / WitnessScaleFactor
}

// Bytes returns the canonical encoding: extended when any witness is
// present, legacy otherwise.
func (tx *Transaction) Bytes() []byte {
	return tx.appendEncoding(make([]byte, 0, tx.SerializeSize()), tx.useExtended())
}

// BaseBytes returns the encoding without marker, flag and witnesses.
func (tx *Transaction) BaseBytes() []byte {
	return tx.appendEncoding(make([]byte, 0, tx.BaseSize()), false)
}

func (tx *Transaction) Encode(w io.Writer) (int, error) {
	return w.Write(tx.Bytes())
}

// Txid is the double SHA-256 of the base encoding, special payload
// included.
func (tx *Transaction) Txid() hashes.Txid {
	return hashes.Txid(hashes.DoubleSHA256(tx.BaseBytes()))
}

// Wtxid covers witness data as well. Without witnesses it equals Txid.
func (tx *Transaction) Wtxid() hashes.Wtxid {
	if !tx.HasWitness() {
		return hashes.Wtxid(tx.Txid())
	}
	return hashes.Wtxid(hashes.DoubleSHA256(tx.Bytes()))
}

// PayloadHash is the double SHA-256 of the special payload bytes, or false
// when the transaction carries none.
func (tx *Transaction) PayloadHash() (hashes.PayloadHash, bool) {
	if !tx.HasSpecialPayload() {
		return hashes.PayloadHash{}, false
	}
	return hashes.PayloadHash(hashes.DoubleSHA256(tx.SpecialPayload)), true
}

// Copy returns a deep copy; mutating it never affects tx.
func (tx *Transaction) Copy() *Transaction {
	out := &Transaction{
		Version:        tx.Version,
		Type:           tx.Type,
		LockTime:       tx.LockTime,
		SpecialPayload: bytes.Clone(tx.SpecialPayload),
	}
	if tx.Inputs != nil {
		out.Inputs = make([]TxIn, len(tx.Inputs))
		for i, in := range tx.Inputs {
			out.Inputs[i] = TxIn{
				PrevOut:   in.PrevOut,
				ScriptSig: bytes.Clone(in.ScriptSig),
				Sequence:  in.Sequence,
			}
			if in.Witness != nil {
				w := make(Witness, len(in.Witness))
				for j, item := range in.Witness {
					w[j] = bytes.Clone(item)
				}
				out.Inputs[i].Witness = w
			}
		}
	}
	if tx.Outputs != nil {
		out.Outputs = make([]TxOut, len(tx.Outputs))
		for i, o := range tx.Outputs {
			out.Outputs[i] = TxOut{Value: o.Value, ScriptPubKey: bytes.Clone(o.ScriptPubKey)}
		}
	}
	return out
}

// DecodeTransaction reads one transaction from r. Both the legacy and the
// marker/flag encodings are accepted.
func DecodeTransaction(r *Reader) (*Transaction, error) {
	lim := r.Limits()
	ver, err := r.ReadU32LE()
	if err != nil {
		return nil, err
	}
	// #nosec G115 -- the two halves of the wire version.
	tx := &Transaction{Version: uint16(ver), Type: TxType(ver >> 16)}

	extended := false
	if p, err := r.Peek(2); err == nil && p[0] == witnessMarker {
		switch p[1] {
		case 0x00:
			// Empty input and output lists, read below as two zero counts.
		case witnessFlag:
			if _, err := r.ReadExact(2); err != nil {
				return nil, err
			}
			extended = true
		default:
			return nil, txerrf(ERR_BAD_WITNESS_FLAG, "witness flag %#02x", p[1])
		}
	}

	nIn, err := r.ReadCount(lim.MaxElements, "inputs")
	if err != nil {
		return nil, err
	}
	if nIn > 0 {
		// Each input is at least 41 bytes; never preallocate past the input.
		tx.Inputs = make([]TxIn, 0, min(nIn, r.Remaining()/41+1))
	}
	for range nIn {
		in, err := DecodeTxIn(r)
		if err != nil {
			return nil, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}

	nOut, err := r.ReadCount(lim.MaxElements, "outputs")
	if err != nil {
		return nil, err
	}
	if nOut > 0 {
		tx.Outputs = make([]TxOut, 0, min(nOut, r.Remaining()/9+1))
	}
	for range nOut {
		out, err := DecodeTxOut(r)
		if err != nil {
			return nil, err
		}
		tx.Outputs = append(tx.Outputs, out)
	}

	if extended {
		for i := range tx.Inputs {
			w, err := DecodeWitness(r)
			if err != nil {
				return nil, err
			}
			tx.Inputs[i].Witness = w
		}
		if !tx.HasWitness() && (len(tx.Inputs) > 0 || len(tx.Outputs) == 0) {
			return nil, txerr(ERR_SUPERFLUOUS_WITNESS, "witness flag set but every witness is empty")
		}
	}

	if tx.LockTime, err = r.ReadU32LE(); err != nil {
		return nil, err
	}

	if tx.HasSpecialPayload() {
		payload, err := r.ReadVarBytes(lim.MaxPayloadBytes, "special payload")
		if err != nil {
			return nil, err
		}
		tx.SpecialPayload = payload
	}
	return tx, nil
}

// ParseTransaction decodes b, which must hold exactly one transaction.
func ParseTransaction(b []byte) (*Transaction, error) {
	return ParseTransactionWithLimits(b, DefaultDecodeLimits())
}

func ParseTransactionWithLimits(b []byte, limits DecodeLimits) (*Transaction, error) {
	r := NewReaderWithLimits(b, limits)
	tx, err := DecodeTransaction(r)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return tx, nil
}
