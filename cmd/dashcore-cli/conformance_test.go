package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	genesisHeaderHex   = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c"
	genesisBlockHash   = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	genesisCoinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"
	genesisTxid        = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

	cbtxHex         = "03000500010000000000000000000000000000000000000000000000000000000000000000ffffffff03021027ffffffff010065cd1d0000000001510000000046020010270000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaabbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	cbtxTxid        = "706cbf73eb44f35364644f0ad9fe62f12639fd11ba1e32574f9317a8476c2e3c"
	cbtxPayloadHash = "519540e34eccf09ab5522499ffb1aaa0535afa5c99454c7d0461dab6bb5769ad"

	bip143TxHex      = "0100000002fff7f7881a8099afa6940d42d1e7f6362bec38171ea3edf433541db4e4ad969f0000000000eeffffffef51e1b804cc89d182d279655c3aa89e815b1b309fe287d9b2b55d57b90ec68a0100000000ffffffff02202cb206000000001976a9148280b37df378db99f66f85c95a783a76ac7a6d5988ac9093510d000000001976a9143bde42dbee7e4dbe6a21b2d50ce2f0167faa815988ac11000000"
	bip143ScriptCode = "76a9141d0f172a0ecb48aee1be1f2687d2963ae33f71a188ac"

	abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	generatorPubHex = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
)

func testApp() *app {
	return &app{cfg: DefaultConfig(), log: zerolog.Nop()}
}

func runReq(t *testing.T, a *app, req Request) Response {
	t.Helper()
	in, err := json.Marshal(req)
	require.NoError(t, err)
	var out bytes.Buffer
	a.runConformance(bytes.NewReader(in), &out)
	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "response: %s", out.String())
	return resp
}

func requireOk(t *testing.T, resp Response) {
	t.Helper()
	require.Truef(t, resp.Ok, "unexpected error %q", resp.Err)
}

func TestConformanceParseTx(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "parse_tx", TxHex: genesisCoinbaseHex})
	requireOk(t, resp)
	require.Equal(t, genesisTxid, resp.TxidHex)
	require.Equal(t, genesisTxid, resp.WtxidHex)
	require.Equal(t, 204, resp.Size)
	require.Equal(t, 204, resp.BaseSize)
	require.Equal(t, 816, resp.Weight)
	require.Equal(t, 204, resp.VSize)
	require.Equal(t, "classic", resp.TxType)
	require.Empty(t, resp.PayloadHash)

	resp = runReq(t, a, Request{Op: "parse_tx", TxHex: cbtxHex})
	requireOk(t, resp)
	require.Equal(t, cbtxTxid, resp.TxidHex)
	require.Equal(t, "coinbase", resp.TxType)
	require.Equal(t, cbtxPayloadHash, resp.PayloadHash)
}

func TestConformanceParseTxErrors(t *testing.T) {
	a := testApp()
	cases := []struct {
		name string
		hex  string
		want string
	}{
		{"truncated", genesisCoinbaseHex[:100], "ERR_UNEXPECTED_EOF"},
		{"trailing", genesisCoinbaseHex + "00", "ERR_TRAILING_BYTES"},
		{"empty", "", "ERR_UNEXPECTED_EOF"},
		{"bad_hex", "zz", "bad tx_hex"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := runReq(t, a, Request{Op: "parse_tx", TxHex: tc.hex})
			require.False(t, resp.Ok)
			require.Equal(t, tc.want, resp.Err)
		})
	}
}

func TestConformanceMaxElements(t *testing.T) {
	a := testApp()
	a.cfg.MaxElements = 1
	resp := runReq(t, a, Request{Op: "parse_tx", TxHex: bip143TxHex})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_OVERSIZED", resp.Err)
}

func TestConformanceBlock(t *testing.T) {
	a := testApp()
	block := genesisHeaderHex + "01" + genesisCoinbaseHex

	resp := runReq(t, a, Request{Op: "parse_block", BlockHex: block})
	requireOk(t, resp)
	require.Equal(t, genesisBlockHash, resp.BlockHash)
	require.Equal(t, genesisTxid, resp.MerkleHex)
	require.Equal(t, 1, resp.TxCount)
	require.Equal(t, 285, resp.Size)
	require.Empty(t, resp.WitnessMerkleHex)

	// Flip one byte of the committed merkle root.
	tampered := block[:72] + "00" + block[74:]
	resp = runReq(t, a, Request{Op: "parse_block", BlockHex: tampered})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_MERKLE_MISMATCH", resp.Err)

	resp = runReq(t, a, Request{Op: "block_hash", HeaderHex: genesisHeaderHex})
	requireOk(t, resp)
	require.Equal(t, genesisBlockHash, resp.BlockHash)

	resp = runReq(t, a, Request{Op: "block_hash", HeaderHex: genesisHeaderHex[:158]})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_UNEXPECTED_EOF", resp.Err)
}

func TestConformanceMerkleRoot(t *testing.T) {
	a := testApp()
	cases := []struct {
		name  string
		txids []string
		want  string
	}{
		{"single_leaf", []string{genesisTxid}, genesisTxid},
		{"two_leaves", []string{genesisTxid, cbtxTxid}, "524015471efc018ec9d8aecd21eac6010546351f89f48f7751bcb1d10c912a20"},
		{"odd_duplicates_last", []string{genesisTxid, cbtxTxid, genesisTxid}, "a62cdcfa401ae69b93c875617fb14c7886e5648067451726300acedf79e3e6a1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := runReq(t, a, Request{Op: "merkle_root", Txids: tc.txids})
			requireOk(t, resp)
			require.Equal(t, tc.want, resp.MerkleHex)
		})
	}

	resp := runReq(t, a, Request{Op: "merkle_root"})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_MERKLE_EMPTY", resp.Err)
}

func TestConformanceSighash(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "sighash_legacy", TxHex: bip143TxHex, ScriptHex: bip143ScriptCode, InputIndex: 0, HashType: 1})
	requireOk(t, resp)
	require.Equal(t, "47194bc3c303a30aa5f78e45c7c2980b3be1284a9d69b1ea9ec0d29aac5f6848", resp.DigestHex)

	resp = runReq(t, a, Request{Op: "sighash_segwit_v0", TxHex: bip143TxHex, ScriptHex: bip143ScriptCode, InputIndex: 1, Amount: 600_000_000, HashType: 1})
	requireOk(t, resp)
	require.Equal(t, "c37af31116d1b27caf68aae9e3ac82f1477929014d5b917657d0eb49478cb670", resp.DigestHex)

	resp = runReq(t, a, Request{Op: "sighash_segwit_v0", TxHex: bip143TxHex, ScriptHex: bip143ScriptCode, InputIndex: 2, Amount: 1, HashType: 1})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_INDEX_OUT_OF_RANGE", resp.Err)

	resp = runReq(t, a, Request{Op: "sighash_segwit_v0", TxHex: bip143TxHex, ScriptHex: bip143ScriptCode, InputIndex: 1, HashType: 0x100})
	require.False(t, resp.Ok)
	require.Equal(t, "bad hash_type", resp.Err)

	resp = runReq(t, a, Request{Op: "sighash_taproot", TxHex: bip143TxHex, HashType: 0})
	require.False(t, resp.Ok)
	require.Equal(t, "bad prevouts", resp.Err)
}

func TestConformanceProofOfWork(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "compact_target", Bits: 0x1d00ffff})
	requireOk(t, resp)
	require.Equal(t, "00000000ffff0000000000000000000000000000000000000000000000000000", resp.TargetHex)
	require.Equal(t, uint32(0x1d00ffff), resp.Compact)
	require.Equal(t, "4295032833", resp.Work)
	require.False(t, resp.Negative)
	require.False(t, resp.Overflow)

	resp = runReq(t, a, Request{Op: "compact_target", Bits: 0x04923456})
	requireOk(t, resp)
	require.True(t, resp.Negative)
	require.Equal(t, "0", resp.Work)

	resp = runReq(t, a, Request{Op: "pow_check", HeaderHex: genesisHeaderHex})
	requireOk(t, resp)
	require.Equal(t, genesisBlockHash, resp.BlockHash)

	// A different nonce leaves the hash far above the target.
	bumped := genesisHeaderHex[:152] + "00000000"
	resp = runReq(t, a, Request{Op: "pow_check", HeaderHex: bumped})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_TARGET_INVALID", resp.Err)
}

func TestConformanceCompactSize(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "compact_size_encode", Value: 253})
	requireOk(t, resp)
	require.Equal(t, "fdfd00", resp.Encoded)

	resp = runReq(t, a, Request{Op: "compact_size_decode", DataHex: "fe00000100"})
	requireOk(t, resp)
	require.Equal(t, uint64(65536), resp.Value)
	require.Equal(t, 5, resp.Consumed)

	resp = runReq(t, a, Request{Op: "compact_size_decode", DataHex: "fd0000"})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_NON_MINIMAL_VARINT", resp.Err)
}

func TestConformanceCoinbasePayload(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "coinbase_payload", TxHex: cbtxHex})
	requireOk(t, resp)
	require.Equal(t, uint32(10000), resp.Height)
	require.Equal(t, cbtxPayloadHash, resp.PayloadHash)

	resp = runReq(t, a, Request{Op: "coinbase_payload", TxHex: genesisCoinbaseHex})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_BAD_PAYLOAD", resp.Err)
}

func TestConformanceAddresses(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "address_decode", Address: "Xn9KtWHuvMBuSbpzPFTzYG2bC9Wp2ZZJJG"})
	requireOk(t, resp)
	require.Equal(t, "pubkeyhash", resp.ScriptClass)

	back := runReq(t, a, Request{Op: "address_from_script", ScriptHex: resp.ScriptPubKey})
	requireOk(t, back)
	require.Equal(t, "Xn9KtWHuvMBuSbpzPFTzYG2bC9Wp2ZZJJG", back.Address)

	resp = runReq(t, a, Request{Op: "address_decode", Address: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_BAD_NETWORK", resp.Err)

	resp = runReq(t, a, Request{Op: "address_decode", Network: "bitcoin", Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"})
	requireOk(t, resp)
	require.Equal(t, "0014751e76e8199196d454941c45d1b3a323f1433bd6", resp.ScriptPubKey)
	require.Equal(t, "witness_v0_keyhash", resp.ScriptClass)

	resp = runReq(t, a, Request{Op: "address_from_pubkey", Network: "bitcoin", PubkeyHex: generatorPubHex})
	requireOk(t, resp)
	require.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", resp.Address)

	resp = runReq(t, a, Request{Op: "address_decode", Network: "nope", Address: "x"})
	require.False(t, resp.Ok)
	require.Equal(t, "bad network", resp.Err)
}

func TestConformanceWIF(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "wif_decode", WIF: "XBhGczf8xYB2r4fHjqS9wLVmgqqVwXRoHkNEpnoCtKb2x5RsXrCP"})
	requireOk(t, resp)
	require.True(t, resp.Compressed)
	require.Equal(t, "XvVL6ULKprv3pPxtEnqYJMfjSwDd3uJmFy", resp.Address)
	require.Len(t, resp.PubkeyHex, 66)

	resp = runReq(t, a, Request{Op: "wif_decode", WIF: "XBhGczf8xYB2r4fHjqS9wLVmgqqVwXRoHkNEpnoCtKb2x5RsXrCQ"})
	require.False(t, resp.Ok)
	require.Equal(t, "ERR_BAD_CHECKSUM", resp.Err)
}

func TestConformanceHDDerive(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "hd_derive", Mnemonic: abandonMnemonic, Passphrase: "TREZOR", Path: "m/44'/5'/0'/0/0"})
	requireOk(t, resp)
	require.Equal(t, "xprvA4FbmrPMHpuLqxzctyKgebrcy1jePLKYWDHntvo1W2RKbnSEvoBRsYsL1KNRH9tRck6DvsdUjbHhqMWVoZEeFustidjHa2YnhYchwvrfXYf", resp.Xprv)
	require.Equal(t, "xpub6HExBMvF8CTe4T55zzrh1joMX3a8no3PsSDPhKCd4MxJUamPULVgRMBorbax9hE6T1NSRYPKU1USGN3VFQRiUBBeKrQLCe1hnSzn7eSSZBQ", resp.Xpub)
	require.Equal(t, "034aeeebe4512c6ae6635df74b39b40079ef2dd6f5d2c7a0ff3c37cf4b67681795", resp.PubkeyHex)
	require.Equal(t, "Xn9KtWHuvMBuSbpzPFTzYG2bC9Wp2ZZJJG", resp.Address)

	resp = runReq(t, a, Request{Op: "hd_derive", Network: "bitcoin", SeedHex: "000102030405060708090a0b0c0d0e0f", Path: "m/0H"})
	requireOk(t, resp)
	require.Equal(t, "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7", resp.Xprv)
	require.Equal(t, "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw", resp.Xpub)

	// Public derivation from the vector-1 child continues non-hardened.
	pub := runReq(t, a, Request{Op: "hd_derive", Network: "bitcoin", ExtendedKey: resp.Xpub, Path: "m/1"})
	requireOk(t, pub)
	require.Empty(t, pub.Xprv)
	require.Equal(t, "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ", pub.Xpub)

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"hardened_from_public", Request{Network: "bitcoin", ExtendedKey: resp.Xpub, Path: "m/1'"}, "ERR_HARDENED_FROM_PUBLIC"},
		{"short_seed", Request{SeedHex: "0001"}, "ERR_INVALID_SEED_LEN"},
		{"bad_mnemonic", Request{Mnemonic: strings.Repeat("abandon ", 12)}, "ERR_INVALID_MNEMONIC"},
		{"bad_path", Request{SeedHex: "000102030405060708090a0b0c0d0e0f", Path: "m/x"}, "ERR_INVALID_PATH"},
		{"wrong_network", Request{Network: "testnet", ExtendedKey: resp.Xpub}, "ERR_BAD_NETWORK"},
		{"no_key", Request{}, "one of seed_hex, mnemonic or extended_key is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Op = "hd_derive"
			got := runReq(t, a, tc.req)
			require.False(t, got.Ok)
			require.Equal(t, tc.want, got.Err)
		})
	}
}

func TestConformanceBadRequests(t *testing.T) {
	a := testApp()

	resp := runReq(t, a, Request{Op: "no_such_op"})
	require.False(t, resp.Ok)
	require.Equal(t, "unknown op", resp.Err)

	var out bytes.Buffer
	a.runConformance(strings.NewReader("{not json"), &out)
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.False(t, resp.Ok)
	require.True(t, strings.HasPrefix(resp.Err, "bad request"))
}

func TestErrCode(t *testing.T) {
	require.Equal(t, "plain", errCode(badRequest("plain")))
}
