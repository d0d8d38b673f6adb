package consensus

import (
	"bytes"

	"dashcore.dev/core/crypto"
	"dashcore.dev/core/hashes"
	"dashcore.dev/core/script"
)

func checkIndex(tx *Transaction, idx int) error {
	if idx < 0 || idx >= len(tx.Inputs) {
		return txerrf(ERR_INDEX_OUT_OF_RANGE, "input %d of %d", idx, len(tx.Inputs))
	}
	return nil
}

// SignP2PKHInput signs input idx, which spends prevScript, and installs the
// scriptSig <sig||hashtype> <pubkey>.
func SignP2PKHInput(c crypto.Curve, tx *Transaction, idx int, prevScript script.Script, secret []byte, ht SigHashType) error {
	if err := checkIndex(tx, idx); err != nil {
		return err
	}
	pub, err := c.DerivePublic(secret)
	if err != nil {
		return err
	}
	want, ok := prevScript.PubKeyHash()
	if !ok {
		return txerr(ERR_SCRIPT_MISMATCH, "previous output is not pay-to-pubkey-hash")
	}
	if h := hashes.Hash160Of(pub); !bytes.Equal(h[:], want) {
		return txerr(ERR_SCRIPT_MISMATCH, "key does not match pubkey hash")
	}
	digest, err := LegacySigHash(tx, idx, prevScript, ht)
	if err != nil {
		return err
	}
	sig, err := c.Sign(secret, digest)
	if err != nil {
		return err
	}
	scriptSig, err := script.NewBuilder().AddData(append(sig, ht.Byte())).AddData(pub).Script()
	if err != nil {
		return err
	}
	tx.Inputs[idx].ScriptSig = scriptSig
	return nil
}

// VerifyP2PKHInput checks the scriptSig of input idx against the
// pay-to-pubkey-hash prevScript it spends.
func VerifyP2PKHInput(c crypto.Curve, tx *Transaction, idx int, prevScript script.Script) error {
	if err := checkIndex(tx, idx); err != nil {
		return err
	}
	want, ok := prevScript.PubKeyHash()
	if !ok {
		return txerr(ERR_SCRIPT_MISMATCH, "previous output is not pay-to-pubkey-hash")
	}
	pushes, err := tx.Inputs[idx].ScriptSig.PushedData()
	if err != nil || len(pushes) != 2 || !tx.Inputs[idx].ScriptSig.IsPushOnly() {
		return txerr(ERR_SCRIPT_MISMATCH, "scriptSig is not <sig> <pubkey>")
	}
	sig, pub := pushes[0], pushes[1]
	if h := hashes.Hash160Of(pub); !bytes.Equal(h[:], want) {
		return txerr(ERR_SCRIPT_MISMATCH, "pubkey does not match pubkey hash")
	}
	if len(sig) < 2 {
		return txerr(ERR_SIG_INVALID, "signature too short")
	}
	raw := uint32(sig[len(sig)-1])
	digest, err := LegacySigHashRaw(tx, idx, prevScript, raw)
	if err != nil {
		return err
	}
	if !c.Verify(pub, digest, sig[:len(sig)-1]) {
		return txerr(ERR_SIG_INVALID, "ecdsa signature does not verify")
	}
	return nil
}

// p2wpkhScriptCode is the BIP143 scriptCode of a v0 key-hash program.
func p2wpkhScriptCode(program []byte) script.Script {
	var h [20]byte
	copy(h[:], program)
	return script.PayToPubKeyHash(h)
}

// SignP2WPKHInput signs input idx, which spends amount locked by the
// pay-to-witness-pubkey-hash prevScript, and installs the witness
// [<sig||hashtype>, <pubkey>].
func SignP2WPKHInput(c crypto.Curve, cache *SigHashCache, idx int, prevScript script.Script, amount int64, secret []byte, ht SigHashType) error {
	tx := cache.tx
	if err := checkIndex(tx, idx); err != nil {
		return err
	}
	if !prevScript.IsPayToWitnessPubKeyHash() {
		return txerr(ERR_SCRIPT_MISMATCH, "previous output is not pay-to-witness-pubkey-hash")
	}
	_, program, _ := prevScript.WitnessProgram()
	pub, err := c.DerivePublic(secret)
	if err != nil {
		return err
	}
	if h := hashes.Hash160Of(pub); !bytes.Equal(h[:], program) {
		return txerr(ERR_SCRIPT_MISMATCH, "key does not match witness program")
	}
	digest, err := cache.SegwitV0SigHash(idx, p2wpkhScriptCode(program), amount, ht)
	if err != nil {
		return err
	}
	sig, err := c.Sign(secret, digest)
	if err != nil {
		return err
	}
	tx.Inputs[idx].ScriptSig = nil
	tx.Inputs[idx].Witness = Witness{append(sig, ht.Byte()), pub}
	return nil
}

// VerifyP2WPKHInput checks the witness of input idx against the
// pay-to-witness-pubkey-hash prevScript and the spent amount.
func VerifyP2WPKHInput(c crypto.Curve, cache *SigHashCache, idx int, prevScript script.Script, amount int64) error {
	tx := cache.tx
	if err := checkIndex(tx, idx); err != nil {
		return err
	}
	if !prevScript.IsPayToWitnessPubKeyHash() {
		return txerr(ERR_SCRIPT_MISMATCH, "previous output is not pay-to-witness-pubkey-hash")
	}
	_, program, _ := prevScript.WitnessProgram()
	in := &tx.Inputs[idx]
	if len(in.ScriptSig) != 0 {
		return txerr(ERR_SCRIPT_MISMATCH, "native witness spend with non-empty scriptSig")
	}
	if len(in.Witness) != 2 {
		return txerrf(ERR_SCRIPT_MISMATCH, "witness has %d items, want 2", len(in.Witness))
	}
	sig, pub := in.Witness[0], in.Witness[1]
	if h := hashes.Hash160Of(pub); !bytes.Equal(h[:], program) {
		return txerr(ERR_SCRIPT_MISMATCH, "pubkey does not match witness program")
	}
	if len(sig) < 2 {
		return txerr(ERR_SIG_INVALID, "signature too short")
	}
	ht, err := ParseSigHashType(sig[len(sig)-1])
	if err != nil {
		return err
	}
	digest, err := cache.SegwitV0SigHash(idx, p2wpkhScriptCode(program), amount, ht)
	if err != nil {
		return err
	}
	if !c.Verify(pub, digest, sig[:len(sig)-1]) {
		return txerr(ERR_SIG_INVALID, "ecdsa signature does not verify")
	}
	return nil
}

// SignTaprootKeyPath signs input idx with the already tweaked output key
// secret. DEFAULT produces a bare 64-byte signature; other types append the
// hash type byte.
func SignTaprootKeyPath(c crypto.Curve, cache *SigHashCache, idx int, outputSecret []byte, ht SigHashType) error {
	tx := cache.tx
	if err := checkIndex(tx, idx); err != nil {
		return err
	}
	digest, err := cache.TaprootSigHash(idx, ht, nil, nil)
	if err != nil {
		return err
	}
	sig, err := c.SignSchnorr(outputSecret, digest)
	if err != nil {
		return err
	}
	if ht.Mode != SigHashDefault || ht.AnyoneCanPay {
		sig = append(sig, ht.Byte())
	}
	tx.Inputs[idx].ScriptSig = nil
	tx.Inputs[idx].Witness = Witness{sig}
	return nil
}

// VerifyTaprootKeyPath checks a key-path witness against the output key of
// the spent pay-to-taproot output.
func VerifyTaprootKeyPath(c crypto.Curve, cache *SigHashCache, idx int) error {
	tx := cache.tx
	if err := checkIndex(tx, idx); err != nil {
		return err
	}
	if !cache.taproot {
		return txerr(ERR_MISSING_PREVOUTS, "taproot verification needs every previous output")
	}
	prev := cache.prevOuts[idx].ScriptPubKey
	if !prev.IsPayToTaproot() {
		return txerr(ERR_SCRIPT_MISMATCH, "previous output is not pay-to-taproot")
	}
	_, outputKey, _ := prev.WitnessProgram()

	w := tx.Inputs[idx].Witness
	var annex []byte
	if len(w) >= 2 && len(w[len(w)-1]) > 0 && w[len(w)-1][0] == 0x50 {
		annex = w[len(w)-1]
		w = w[:len(w)-1]
	}
	if len(w) != 1 {
		return txerrf(ERR_SCRIPT_MISMATCH, "key path witness has %d items", len(w))
	}
	sig := w[0]
	ht := SigHashType{Mode: SigHashDefault}
	switch len(sig) {
	case crypto.SchnorrSignatureLen:
	case crypto.SchnorrSignatureLen + 1:
		var err error
		if ht, err = ParseSigHashType(sig[64]); err != nil {
			return err
		}
		sig = sig[:64]
	default:
		return txerrf(ERR_SIG_INVALID, "schnorr signature of %d bytes", len(sig))
	}
	digest, err := cache.TaprootSigHash(idx, ht, nil, annex)
	if err != nil {
		return err
	}
	if !c.VerifySchnorr(outputKey, digest, sig) {
		return txerr(ERR_SIG_INVALID, "schnorr signature does not verify")
	}
	return nil
}
