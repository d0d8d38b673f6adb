package consensus

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"dashcore.dev/core/crypto"
	"dashcore.dev/core/hashes"
	"dashcore.dev/core/script"
)

const bip143SecretHex = "619c335025c7f4012e556c2a58b2506e30b8511b53ade95ea316fd8c3286feb9"

func TestSignVerifyP2PKH(t *testing.T) {
	c := crypto.Secp256k1{}
	secret := mustHex(t, bip143SecretHex)
	pub, err := c.DerivePublic(secret)
	require.NoError(t, err)
	prev := script.PayToPubKeyHash(hashes.Hash160Of(pub))

	for _, ht := range []SigHashType{SigHashTypeAll, SigHashTypeSingle, {Mode: SigHashNone, AnyoneCanPay: true}} {
		t.Run(ht.String(), func(t *testing.T) {
			tx := mustParseTx(t, bip143TxHex)
			require.NoError(t, SignP2PKHInput(c, tx, 0, prev, secret, ht))
			require.True(t, tx.Inputs[0].ScriptSig.IsPushOnly())
			require.NoError(t, VerifyP2PKHInput(c, tx, 0, prev))

			reparsed, err := ParseTransaction(tx.Bytes())
			require.NoError(t, err)
			require.NoError(t, VerifyP2PKHInput(c, reparsed, 0, prev))
		})
	}

	tx := mustParseTx(t, bip143TxHex)
	require.NoError(t, SignP2PKHInput(c, tx, 0, prev, secret, SigHashTypeAll))
	tx.Outputs[0].Value++
	require.ErrorIs(t, VerifyP2PKHInput(c, tx, 0, prev), ErrSigInvalid)
}

func TestSignP2PKHRejects(t *testing.T) {
	c := crypto.Secp256k1{}
	secret := mustHex(t, bip143SecretHex)
	tx := mustParseTx(t, bip143TxHex)

	other := script.PayToPubKeyHash([20]byte{1, 2, 3})
	require.ErrorIs(t, SignP2PKHInput(c, tx, 0, other, secret, SigHashTypeAll), ErrScriptMismatch)
	require.ErrorIs(t, SignP2PKHInput(c, tx, 5, other, secret, SigHashTypeAll), ErrIndexOutOfRange)
	require.ErrorIs(t, SignP2PKHInput(c, tx, 0, script.Script{script.OP_TRUE}, secret, SigHashTypeAll), ErrScriptMismatch)

	pub, err := c.DerivePublic(secret)
	require.NoError(t, err)
	prev := script.PayToPubKeyHash(hashes.Hash160Of(pub))
	require.ErrorIs(t, VerifyP2PKHInput(c, tx, 0, prev), ErrScriptMismatch)
}

func TestSignVerifyP2WPKH(t *testing.T) {
	c := crypto.Secp256k1{}
	secret := mustHex(t, bip143SecretHex)
	prev := script.Script(mustHex(t, "00141d0f172a0ecb48aee1be1f2687d2963ae33f71a1"))
	const amount = 600_000_000

	tx := mustParseTx(t, bip143TxHex)
	cache, err := NewSigHashCache(tx, nil)
	require.NoError(t, err)
	require.NoError(t, SignP2WPKHInput(c, cache, 1, prev, amount, secret, SigHashTypeAll))
	require.True(t, tx.HasWitness())
	require.Len(t, tx.Inputs[1].Witness, 2)
	require.Equal(t, byte(0x01), tx.Inputs[1].Witness[0][len(tx.Inputs[1].Witness[0])-1])
	require.NoError(t, VerifyP2WPKHInput(c, cache, 1, prev, amount))

	// Witness data is outside the txid, so the cached digests stay valid.
	reparsed, err := ParseTransaction(tx.Bytes())
	require.NoError(t, err)
	require.Equal(t, tx.Txid(), reparsed.Txid())
	require.NotEqual(t, hashes.Hash256(reparsed.Txid()), hashes.Hash256(reparsed.Wtxid()))
	fresh, err := NewSigHashCache(reparsed, nil)
	require.NoError(t, err)
	require.NoError(t, VerifyP2WPKHInput(c, fresh, 1, prev, amount))

	require.ErrorIs(t, VerifyP2WPKHInput(c, fresh, 1, prev, amount+1), ErrSigInvalid)

	wrong := script.Script(mustHex(t, "00140000000000000000000000000000000000000000"))
	require.ErrorIs(t, VerifyP2WPKHInput(c, fresh, 1, wrong, amount), ErrScriptMismatch)
	require.ErrorIs(t, SignP2WPKHInput(c, fresh, 1, wrong, amount, secret, SigHashTypeAll), ErrScriptMismatch)

	reparsed.Inputs[1].ScriptSig = script.Script{script.OP_0}
	require.ErrorIs(t, VerifyP2WPKHInput(c, fresh, 1, prev, amount), ErrScriptMismatch)
}

func taprootKey(t *testing.T) (secret, xonly []byte) {
	t.Helper()
	c := crypto.Secp256k1{}
	secret = bytes.Repeat([]byte{0x42}, 32)
	pub, err := c.DerivePublic(secret)
	require.NoError(t, err)
	xonly, err = crypto.XOnly(pub)
	require.NoError(t, err)
	return secret, xonly
}

func TestSignVerifyTaprootKeyPath(t *testing.T) {
	c := crypto.Secp256k1{}
	secret, xonly := taprootKey(t)

	cases := []struct {
		name   string
		ht     SigHashType
		sigLen int
	}{
		{"default", SigHashType{Mode: SigHashDefault}, 64},
		{"all", SigHashTypeAll, 65},
		{"single_anyonecanpay", SigHashType{Mode: SigHashSingle, AnyoneCanPay: true}, 65},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx, prevs := taprootFixture(t)
			spk, err := script.PayToWitness(1, xonly)
			require.NoError(t, err)
			prevs[tx.Inputs[0].PrevOut] = TxOut{Value: 100000, ScriptPubKey: spk}

			cache, err := NewSigHashCache(tx, prevs)
			require.NoError(t, err)
			require.NoError(t, SignTaprootKeyPath(c, cache, 0, secret, tc.ht))
			require.Len(t, tx.Inputs[0].Witness, 1)
			require.Len(t, tx.Inputs[0].Witness[0], tc.sigLen)
			require.NoError(t, VerifyTaprootKeyPath(c, cache, 0))
		})
	}
}

func TestVerifyTaprootKeyPathRejects(t *testing.T) {
	c := crypto.Secp256k1{}
	secret, xonly := taprootKey(t)
	tx, prevs := taprootFixture(t)
	spk, err := script.PayToWitness(1, xonly)
	require.NoError(t, err)
	prevs[tx.Inputs[0].PrevOut] = TxOut{Value: 100000, ScriptPubKey: spk}

	cache, err := NewSigHashCache(tx, prevs)
	require.NoError(t, err)
	require.NoError(t, SignTaprootKeyPath(c, cache, 0, secret, SigHashTypeAll))

	// An annex changes the digest the signature must cover.
	tx.Inputs[0].Witness = append(tx.Inputs[0].Witness, []byte{0x50, 0x00})
	require.ErrorIs(t, VerifyTaprootKeyPath(c, cache, 0), ErrSigInvalid)
	tx.Inputs[0].Witness = tx.Inputs[0].Witness[:1]
	require.NoError(t, VerifyTaprootKeyPath(c, cache, 0))

	sig := tx.Inputs[0].Witness[0]
	tx.Inputs[0].Witness[0] = sig[:63]
	require.ErrorIs(t, VerifyTaprootKeyPath(c, cache, 0), ErrSigInvalid)

	bad := bytes.Clone(sig)
	bad[64] = 0x04
	tx.Inputs[0].Witness[0] = bad
	require.ErrorIs(t, VerifyTaprootKeyPath(c, cache, 0), ErrBadSighash)

	tx.Inputs[0].Witness = Witness{sig, {0x01}}
	require.ErrorIs(t, VerifyTaprootKeyPath(c, cache, 0), ErrScriptMismatch)

	// Input 1 spends a v0 program.
	require.ErrorIs(t, VerifyTaprootKeyPath(c, cache, 1), ErrScriptMismatch)

	noPrevs, err := NewSigHashCache(tx, nil)
	require.NoError(t, err)
	require.ErrorIs(t, VerifyTaprootKeyPath(c, noPrevs, 0), ErrMissingPrevouts)
	require.ErrorIs(t, SignTaprootKeyPath(c, noPrevs, 0, secret, SigHashTypeAll), ErrMissingPrevouts)
}
