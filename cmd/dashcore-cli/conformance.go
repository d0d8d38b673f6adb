package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dashcore.dev/core/address"
	"dashcore.dev/core/consensus"
	"dashcore.dev/core/crypto"
	"dashcore.dev/core/hashes"
	"dashcore.dev/core/hdkey"
	"dashcore.dev/core/network"
	"dashcore.dev/core/script"
)

// Request is one conformance query. Transaction ids and merkle roots are
// in display (reversed) hex; digests are in wire order.
type Request struct {
	Op         string        `json:"op"`
	Network    string        `json:"network,omitempty"`
	TxHex      string        `json:"tx_hex,omitempty"`
	BlockHex   string        `json:"block_hex,omitempty"`
	HeaderHex  string        `json:"header_hex,omitempty"`
	Txids      []string      `json:"txids,omitempty"`
	InputIndex int           `json:"input_index,omitempty"`
	ScriptHex  string        `json:"script_hex,omitempty"`
	Amount     int64         `json:"amount,omitempty"`
	HashType   uint32        `json:"hash_type,omitempty"`
	Prevouts   []PrevoutJSON `json:"prevouts,omitempty"`
	Bits       uint32        `json:"bits,omitempty"`
	Value      uint64        `json:"value,omitempty"`
	DataHex    string        `json:"hex,omitempty"`

	Address     string `json:"address,omitempty"`
	PubkeyHex   string `json:"pubkey_hex,omitempty"`
	WIF         string `json:"wif,omitempty"`
	SeedHex     string `json:"seed_hex,omitempty"`
	Mnemonic    string `json:"mnemonic,omitempty"`
	Passphrase  string `json:"passphrase,omitempty"`
	Path        string `json:"path,omitempty"`
	ExtendedKey string `json:"extended_key,omitempty"`
}

// PrevoutJSON is a spent output, listed in input order.
type PrevoutJSON struct {
	Value     int64  `json:"value"`
	ScriptHex string `json:"script_hex"`
}

type Response struct {
	Ok  bool   `json:"ok"`
	Err string `json:"err,omitempty"`

	TxidHex     string `json:"txid,omitempty"`
	WtxidHex    string `json:"wtxid,omitempty"`
	Size        int    `json:"size,omitempty"`
	BaseSize    int    `json:"base_size,omitempty"`
	Weight      int    `json:"weight,omitempty"`
	VSize       int    `json:"vsize,omitempty"`
	TxType      string `json:"tx_type,omitempty"`
	PayloadHash string `json:"payload_hash,omitempty"`
	Height      uint32 `json:"height,omitempty"`
	TxCount     int    `json:"tx_count,omitempty"`

	MerkleHex        string `json:"merkle_root,omitempty"`
	WitnessMerkleHex string `json:"witness_merkle_root,omitempty"`
	DigestHex        string `json:"digest,omitempty"`
	BlockHash        string `json:"block_hash,omitempty"`

	TargetHex string `json:"target,omitempty"`
	Work      string `json:"work,omitempty"`
	Compact   uint32 `json:"compact,omitempty"`
	Negative  bool   `json:"negative,omitempty"`
	Overflow  bool   `json:"overflow,omitempty"`

	Value    uint64 `json:"value,omitempty"`
	Encoded  string `json:"encoded,omitempty"`
	Consumed int    `json:"consumed,omitempty"`

	Address      string `json:"address,omitempty"`
	ScriptPubKey string `json:"script_pubkey,omitempty"`
	ScriptClass  string `json:"script_class,omitempty"`
	PubkeyHex    string `json:"pubkey,omitempty"`
	Compressed   bool   `json:"compressed,omitempty"`
	Xprv         string `json:"xprv,omitempty"`
	Xpub         string `json:"xpub,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

var errCodes = []struct {
	err  error
	code string
}{
	{address.ErrBadChecksum, "ERR_BAD_CHECKSUM"},
	{address.ErrBadNetwork, "ERR_BAD_NETWORK"},
	{address.ErrInvalidLength, "ERR_INVALID_LENGTH"},
	{address.ErrInvalidFormat, "ERR_INVALID_FORMAT"},
	{address.ErrUnsupportedWitnessVersion, "ERR_UNSUPPORTED_WITNESS_VERSION"},
	{address.ErrUnsupported, "ERR_UNSUPPORTED"},
	{hdkey.ErrHardenedFromPublic, "ERR_HARDENED_FROM_PUBLIC"},
	{hdkey.ErrInvalidTweak, "ERR_INVALID_TWEAK"},
	{hdkey.ErrInvalidKeyData, "ERR_INVALID_KEY_DATA"},
	{hdkey.ErrDepthExceeded, "ERR_DEPTH_EXCEEDED"},
	{hdkey.ErrInvalidSeedLen, "ERR_INVALID_SEED_LEN"},
	{hdkey.ErrInvalidPath, "ERR_INVALID_PATH"},
	{hdkey.ErrInvalidMnemonic, "ERR_INVALID_MNEMONIC"},
	{crypto.ErrInvalidPrivateKey, "ERR_INVALID_PRIVATE_KEY"},
	{crypto.ErrInvalidPublicKey, "ERR_INVALID_PUBLIC_KEY"},
}

// errCode maps library errors to stable codes. Errors from outside the
// library keep their message.
func errCode(err error) string {
	var ce *consensus.Error
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	for _, c := range errCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return err.Error()
}

type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

func decodeHexField(name, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, badRequest("bad %s", name)
	}
	return b, nil
}

func (a *app) conformanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conformance",
		Short: "Answer one JSON request from stdin with one JSON response on stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.runConformance(cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}
}

// runConformance always writes exactly one response, including for
// malformed requests.
func (a *app) runConformance(in io.Reader, out io.Writer) {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		writeResp(out, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}
	resp, err := a.dispatch(req)
	if err != nil {
		a.log.Debug().Str("op", req.Op).Err(err).Msg("request rejected")
		writeResp(out, Response{Ok: false, Err: errCode(err)})
		return
	}
	resp.Ok = true
	writeResp(out, resp)
}

func (a *app) dispatch(req Request) (Response, error) {
	switch req.Op {
	case "parse_tx":
		return a.opParseTx(req)
	case "parse_block":
		return a.opParseBlock(req)
	case "block_hash":
		return a.opBlockHash(req)
	case "merkle_root":
		return opMerkleRoot(req)
	case "sighash_legacy":
		return a.opSighashLegacy(req)
	case "sighash_segwit_v0":
		return a.opSighashSegwitV0(req)
	case "sighash_taproot":
		return a.opSighashTaproot(req)
	case "compact_target":
		return opCompactTarget(req)
	case "pow_check":
		return opPowCheck(req)
	case "compact_size_encode":
		return Response{Encoded: hex.EncodeToString(consensus.CompactSize(req.Value).Encode())}, nil
	case "compact_size_decode":
		b, err := decodeHexField("hex", req.DataHex)
		if err != nil {
			return Response{}, err
		}
		v, n, err := consensus.DecodeCompactSize(b)
		if err != nil {
			return Response{}, err
		}
		return Response{Value: uint64(v), Consumed: n}, nil
	case "coinbase_payload":
		return a.opCoinbasePayload(req)
	case "address_decode":
		return a.opAddressDecode(req)
	case "address_from_script":
		return a.opAddressFromScript(req)
	case "address_from_pubkey":
		return a.opAddressFromPubkey(req)
	case "wif_decode":
		return a.opWIFDecode(req)
	case "hd_derive":
		return a.opHDDerive(req)
	}
	return Response{}, badRequest("unknown op")
}

func (a *app) params(name string) (*network.Params, error) {
	if name == "" {
		return a.cfg.Params(), nil
	}
	return network.ByName(name)
}

func (a *app) parseTx(txHex string) (*consensus.Transaction, error) {
	b, err := decodeHexField("tx_hex", txHex)
	if err != nil {
		return nil, err
	}
	return consensus.ParseTransactionWithLimits(b, a.cfg.Limits())
}

func (a *app) opParseTx(req Request) (Response, error) {
	tx, err := a.parseTx(req.TxHex)
	if err != nil {
		return Response{}, err
	}
	resp := Response{
		TxidHex:  tx.Txid().String(),
		WtxidHex: tx.Wtxid().String(),
		Size:     tx.SerializeSize(),
		BaseSize: tx.BaseSize(),
		Weight:   tx.Weight(),
		VSize:    tx.VSize(),
		TxType:   tx.Type.String(),
	}
	if h, ok := tx.PayloadHash(); ok {
		resp.PayloadHash = h.String()
	}
	return resp, nil
}

func (a *app) opParseBlock(req Request) (Response, error) {
	b, err := decodeHexField("block_hex", req.BlockHex)
	if err != nil {
		return Response{}, err
	}
	blk, err := consensus.ParseBlockWithLimits(b, a.cfg.Limits())
	if err != nil {
		return Response{}, err
	}
	if err := blk.CheckMerkleRoot(); err != nil {
		return Response{}, err
	}
	resp := Response{
		BlockHash: blk.BlockHash().String(),
		MerkleHex: blk.Header.MerkleRoot.String(),
		TxCount:   len(blk.Transactions),
		Size:      blk.SerializeSize(),
	}
	if _, ok := blk.WitnessCommitment(); ok {
		if err := blk.CheckWitnessCommitment(); err != nil {
			return Response{}, err
		}
		root, err := consensus.WitnessMerkleRoot(blk.Transactions)
		if err != nil {
			return Response{}, err
		}
		resp.WitnessMerkleHex = root.String()
	}
	return resp, nil
}

func (a *app) opBlockHash(req Request) (Response, error) {
	b, err := decodeHexField("header_hex", req.HeaderHex)
	if err != nil {
		return Response{}, err
	}
	h, err := consensus.ParseBlockHeader(b)
	if err != nil {
		return Response{}, err
	}
	return Response{BlockHash: h.BlockHash().String()}, nil
}

func opMerkleRoot(req Request) (Response, error) {
	leaves := make([]hashes.Hash256, 0, len(req.Txids))
	for _, s := range req.Txids {
		h, err := hashes.Hash256FromString(s)
		if err != nil {
			return Response{}, badRequest("bad txid")
		}
		leaves = append(leaves, h)
	}
	root, err := consensus.MerkleRoot(leaves)
	if err != nil {
		return Response{}, err
	}
	return Response{MerkleHex: root.String()}, nil
}

func (a *app) opSighashLegacy(req Request) (Response, error) {
	tx, err := a.parseTx(req.TxHex)
	if err != nil {
		return Response{}, err
	}
	sc, err := decodeHexField("script_hex", req.ScriptHex)
	if err != nil {
		return Response{}, err
	}
	d, err := consensus.LegacySigHashRaw(tx, req.InputIndex, sc, req.HashType)
	if err != nil {
		return Response{}, err
	}
	return Response{DigestHex: hex.EncodeToString(d[:])}, nil
}

func hashTypeByte(v uint32) (byte, error) {
	if v > 0xff {
		return 0, badRequest("bad hash_type")
	}
	return byte(v), nil
}

func (a *app) opSighashSegwitV0(req Request) (Response, error) {
	tx, err := a.parseTx(req.TxHex)
	if err != nil {
		return Response{}, err
	}
	sc, err := decodeHexField("script_hex", req.ScriptHex)
	if err != nil {
		return Response{}, err
	}
	b, err := hashTypeByte(req.HashType)
	if err != nil {
		return Response{}, err
	}
	ht, err := consensus.ParseSigHashType(b)
	if err != nil {
		return Response{}, err
	}
	d, err := consensus.SegwitV0SigHash(tx, req.InputIndex, sc, req.Amount, ht)
	if err != nil {
		return Response{}, err
	}
	return Response{DigestHex: hex.EncodeToString(d[:])}, nil
}

func (a *app) opSighashTaproot(req Request) (Response, error) {
	tx, err := a.parseTx(req.TxHex)
	if err != nil {
		return Response{}, err
	}
	if len(req.Prevouts) != len(tx.Inputs) {
		return Response{}, badRequest("bad prevouts")
	}
	prevs := make(consensus.PrevOutputs, len(tx.Inputs))
	for i, p := range req.Prevouts {
		spk, err := decodeHexField("prevout script_hex", p.ScriptHex)
		if err != nil {
			return Response{}, err
		}
		prevs[tx.Inputs[i].PrevOut] = consensus.TxOut{Value: p.Value, ScriptPubKey: spk}
	}
	b, err := hashTypeByte(req.HashType)
	if err != nil {
		return Response{}, err
	}
	ht, err := consensus.ParseTaprootSigHashType(b)
	if err != nil {
		return Response{}, err
	}
	d, err := consensus.TaprootSigHash(tx, req.InputIndex, prevs, ht, nil, nil)
	if err != nil {
		return Response{}, err
	}
	return Response{DigestHex: hex.EncodeToString(d[:])}, nil
}

func opCompactTarget(req Request) (Response, error) {
	t, neg, over := consensus.CompactToTarget(req.Bits)
	b := t.Bytes32()
	return Response{
		TargetHex: hex.EncodeToString(b[:]),
		Negative:  neg,
		Overflow:  over,
		Compact:   consensus.TargetToCompact(t),
		Work:      consensus.CalcWork(req.Bits).Dec(),
	}, nil
}

func opPowCheck(req Request) (Response, error) {
	b, err := decodeHexField("header_hex", req.HeaderHex)
	if err != nil {
		return Response{}, err
	}
	h, err := consensus.ParseBlockHeader(b)
	if err != nil {
		return Response{}, err
	}
	hash := h.BlockHash()
	if err := consensus.CheckProofOfWork(hashes.Hash256(hash), h.Bits, nil); err != nil {
		return Response{}, err
	}
	return Response{BlockHash: hash.String(), Work: consensus.CalcWork(h.Bits).Dec()}, nil
}

func (a *app) opCoinbasePayload(req Request) (Response, error) {
	tx, err := a.parseTx(req.TxHex)
	if err != nil {
		return Response{}, err
	}
	p, err := tx.CoinbasePayload()
	if err != nil {
		return Response{}, err
	}
	resp := Response{Height: p.Height, TxType: tx.Type.String()}
	if h, ok := tx.PayloadHash(); ok {
		resp.PayloadHash = h.String()
	}
	return resp, nil
}

func addressResponse(addr address.Address) Response {
	spk := addr.ScriptPubKey()
	return Response{
		Address:      addr.String(),
		ScriptPubKey: spk.Hex(),
		ScriptClass:  script.Classify(spk).String(),
	}
}

func (a *app) opAddressDecode(req Request) (Response, error) {
	params, err := a.params(req.Network)
	if err != nil {
		return Response{}, badRequest("bad network")
	}
	addr, err := address.Decode(req.Address, params)
	if err != nil {
		return Response{}, err
	}
	return addressResponse(addr), nil
}

func (a *app) opAddressFromScript(req Request) (Response, error) {
	params, err := a.params(req.Network)
	if err != nil {
		return Response{}, badRequest("bad network")
	}
	spk, err := decodeHexField("script_hex", req.ScriptHex)
	if err != nil {
		return Response{}, err
	}
	addr, err := address.FromScript(spk, params)
	if err != nil {
		return Response{}, err
	}
	return addressResponse(addr), nil
}

func (a *app) opAddressFromPubkey(req Request) (Response, error) {
	params, err := a.params(req.Network)
	if err != nil {
		return Response{}, badRequest("bad network")
	}
	pub, err := decodeHexField("pubkey_hex", req.PubkeyHex)
	if err != nil {
		return Response{}, err
	}
	addr, err := address.NewAddressFromPubKey(pub, params)
	if err != nil {
		return Response{}, err
	}
	return addressResponse(addr), nil
}

func (a *app) opWIFDecode(req Request) (Response, error) {
	params, err := a.params(req.Network)
	if err != nil {
		return Response{}, badRequest("bad network")
	}
	w, err := address.DecodeWIF(req.WIF, params)
	if err != nil {
		return Response{}, err
	}
	pub, err := w.PubKey()
	if err != nil {
		return Response{}, err
	}
	addr, err := w.Address()
	if err != nil {
		return Response{}, err
	}
	resp := addressResponse(addr)
	resp.PubkeyHex = hex.EncodeToString(pub)
	resp.Compressed = w.Compressed
	return resp, nil
}

func (a *app) opHDDerive(req Request) (Response, error) {
	params, err := a.params(req.Network)
	if err != nil {
		return Response{}, badRequest("bad network")
	}
	pathStr := req.Path
	if pathStr == "" {
		pathStr = "m"
	}
	path, err := hdkey.ParsePath(pathStr)
	if err != nil {
		return Response{}, err
	}

	var key hdkey.ExtendedKey
	switch {
	case req.SeedHex != "":
		seed, err := decodeHexField("seed_hex", req.SeedHex)
		if err != nil {
			return Response{}, err
		}
		if key, err = hdkey.NewMaster(seed, params); err != nil {
			return Response{}, err
		}
	case req.Mnemonic != "":
		if key, err = hdkey.NewMasterFromMnemonic(req.Mnemonic, req.Passphrase, params); err != nil {
			return Response{}, err
		}
	case req.ExtendedKey != "":
		if key, err = hdkey.Parse(req.ExtendedKey, params); err != nil {
			return Response{}, err
		}
	default:
		return Response{}, badRequest("one of seed_hex, mnemonic or extended_key is required")
	}
	return deriveResponse(key, path)
}

func deriveResponse(key hdkey.ExtendedKey, path hdkey.DerivationPath) (Response, error) {
	var pub *hdkey.ExtendedPubKey
	var resp Response
	switch k := key.(type) {
	case *hdkey.ExtendedPrivKey:
		child, err := k.Derive(path)
		if err != nil {
			return Response{}, err
		}
		resp.Xprv = child.String()
		pub = child.Neuter()
	case *hdkey.ExtendedPubKey:
		child, err := k.Derive(path)
		if err != nil {
			return Response{}, err
		}
		pub = child
	default:
		return Response{}, badRequest("unsupported key")
	}
	addr, err := pub.Address()
	if err != nil {
		return Response{}, err
	}
	resp.Xpub = pub.String()
	resp.PubkeyHex = hex.EncodeToString(pub.PubKey())
	resp.Address = addr.String()
	return resp, nil
}
