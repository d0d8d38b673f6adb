package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"dashcore.dev/core/address"
	"dashcore.dev/core/consensus"
	"dashcore.dev/core/hashes"
	"dashcore.dev/core/hdkey"
	"dashcore.dev/core/network"
	"dashcore.dev/core/script"
)

type inputView struct {
	PrevOut   string   `json:"prevout"`
	ScriptSig string   `json:"script_sig"`
	Sequence  uint32   `json:"sequence"`
	Witness   []string `json:"witness,omitempty"`
}

type outputView struct {
	Value        int64  `json:"value"`
	ScriptPubKey string `json:"script_pubkey"`
	Asm          string `json:"asm"`
	Class        string `json:"class"`
	Address      string `json:"address,omitempty"`
}

type txView struct {
	Txid        string       `json:"txid"`
	Wtxid       string       `json:"wtxid"`
	Version     uint16       `json:"version"`
	Type        string       `json:"type"`
	Size        int          `json:"size"`
	BaseSize    int          `json:"base_size"`
	VSize       int          `json:"vsize"`
	Weight      int          `json:"weight"`
	LockTime    uint32       `json:"locktime"`
	Coinbase    bool         `json:"coinbase,omitempty"`
	Inputs      []inputView  `json:"inputs"`
	Outputs     []outputView `json:"outputs"`
	Payload     string       `json:"payload,omitempty"`
	PayloadHash string       `json:"payload_hash,omitempty"`
	Height      uint32       `json:"height,omitempty"`
	Quorum      *quorumView  `json:"quorum_commitment,omitempty"`
}

type quorumView struct {
	Version      uint16 `json:"version"`
	LLMQType     string `json:"llmq_type"`
	QuorumHash   string `json:"quorum_hash"`
	QuorumIndex  int16  `json:"quorum_index"`
	Signers      int    `json:"signers"`
	ValidMembers int    `json:"valid_members"`
}

func countSet(bits []bool) int {
	n := 0
	for _, b := range bits {
		if b {
			n++
		}
	}
	return n
}

type blockView struct {
	Hash         string   `json:"hash"`
	Version      int32    `json:"version"`
	PrevBlock    string   `json:"previous_block"`
	MerkleRoot   string   `json:"merkle_root"`
	Time         uint32   `json:"time"`
	Bits         string   `json:"bits"`
	Nonce        uint32   `json:"nonce"`
	Size         int      `json:"size"`
	MerkleValid  bool     `json:"merkle_valid"`
	WitnessValid *bool    `json:"witness_commitment_valid,omitempty"`
	Txids        []string `json:"txids"`
}

func newTxView(tx *consensus.Transaction, params *network.Params) txView {
	v := txView{
		Txid:     tx.Txid().String(),
		Wtxid:    tx.Wtxid().String(),
		Version:  tx.Version,
		Type:     tx.Type.String(),
		Size:     tx.SerializeSize(),
		BaseSize: tx.BaseSize(),
		VSize:    tx.VSize(),
		Weight:   tx.Weight(),
		LockTime: tx.LockTime,
		Coinbase: tx.IsCoinbase(),
	}
	for _, in := range tx.Inputs {
		iv := inputView{PrevOut: in.PrevOut.String(), ScriptSig: in.ScriptSig.String(), Sequence: in.Sequence}
		for _, item := range in.Witness {
			iv.Witness = append(iv.Witness, hex.EncodeToString(item))
		}
		v.Inputs = append(v.Inputs, iv)
	}
	for _, out := range tx.Outputs {
		ov := outputView{
			Value:        out.Value,
			ScriptPubKey: out.ScriptPubKey.Hex(),
			Asm:          out.ScriptPubKey.String(),
			Class:        script.Classify(out.ScriptPubKey).String(),
		}
		if addr, err := address.FromScript(out.ScriptPubKey, params); err == nil {
			ov.Address = addr.String()
		}
		v.Outputs = append(v.Outputs, ov)
	}
	if h, ok := tx.PayloadHash(); ok {
		v.Payload = hex.EncodeToString(tx.SpecialPayload)
		v.PayloadHash = h.String()
	}
	switch tx.Type {
	case consensus.TxTypeCoinbase:
		if p, err := tx.CoinbasePayload(); err == nil {
			v.Height = p.Height
		}
	case consensus.TxTypeQuorumCommitment:
		if p, err := tx.QuorumCommitmentPayload(); err == nil {
			c := p.Commitment
			v.Height = p.Height
			v.Quorum = &quorumView{
				Version:      c.Version,
				LLMQType:     c.LLMQType.String(),
				QuorumHash:   hashes.BlockHash(c.QuorumHash).String(),
				QuorumIndex:  c.QuorumIndex,
				Signers:      countSet(c.Signers),
				ValidMembers: countSet(c.ValidMembers),
			}
		}
	}
	return v
}

func newBlockView(blk *consensus.Block) blockView {
	h := blk.Header
	v := blockView{
		Hash:        blk.BlockHash().String(),
		Version:     h.Version,
		PrevBlock:   h.PrevBlock.String(),
		MerkleRoot:  h.MerkleRoot.String(),
		Time:        h.Time,
		Bits:        fmt.Sprintf("%08x", h.Bits),
		Nonce:       h.Nonce,
		Size:        blk.SerializeSize(),
		MerkleValid: blk.CheckMerkleRoot() == nil,
	}
	if _, ok := blk.WitnessCommitment(); ok {
		valid := blk.CheckWitnessCommitment() == nil
		v.WitnessValid = &valid
	}
	for _, tx := range blk.Transactions {
		v.Txids = append(v.Txids, tx.Txid().String())
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// hexArg takes the hex payload from args[0], or from r when the argument
// is "-".
func hexArg(args []string, r io.Reader) ([]byte, error) {
	s := args[0]
	if s == "-" {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		s = string(b)
	}
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}

func (a *app) decodeTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode-tx <hex|->",
		Short: "Decode a serialized transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := hexArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			tx, err := consensus.ParseTransactionWithLimits(b, a.cfg.Limits())
			if err != nil {
				return err
			}
			a.log.Debug().Str("txid", tx.Txid().String()).Int("size", len(b)).Msg("decoded transaction")
			return writeJSON(cmd.OutOrStdout(), newTxView(tx, a.cfg.Params()))
		},
	}
}

func (a *app) decodeBlockCmd() *cobra.Command {
	var withTxs bool
	cmd := &cobra.Command{
		Use:   "decode-block <hex|->",
		Short: "Decode a serialized block and check its commitments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := hexArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			blk, err := consensus.ParseBlockWithLimits(b, a.cfg.Limits())
			if err != nil {
				return err
			}
			a.log.Debug().Str("hash", blk.BlockHash().String()).Int("txs", len(blk.Transactions)).Msg("decoded block")
			if !withTxs {
				return writeJSON(cmd.OutOrStdout(), newBlockView(blk))
			}
			params := a.cfg.Params()
			txs := make([]txView, 0, len(blk.Transactions))
			for _, tx := range blk.Transactions {
				txs = append(txs, newTxView(tx, params))
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				blockView
				Transactions []txView `json:"transactions"`
			}{newBlockView(blk), txs})
		},
	}
	cmd.Flags().BoolVar(&withTxs, "txs", false, "include decoded transactions")
	return cmd
}

type addressView struct {
	Address      string `json:"address"`
	ScriptPubKey string `json:"script_pubkey"`
	Class        string `json:"class"`
	Network      string `json:"network"`
}

func newAddressView(addr address.Address) addressView {
	spk := addr.ScriptPubKey()
	return addressView{
		Address:      addr.String(),
		ScriptPubKey: spk.Hex(),
		Class:        script.Classify(spk).String(),
		Network:      addr.Params().Name,
	}
}

func (a *app) addressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Encode and decode addresses",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "decode <address>",
			Short: "Decode an address for the configured network",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := address.Decode(args[0], a.cfg.Params())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), newAddressView(addr))
			},
		},
		&cobra.Command{
			Use:   "from-pubkey <hex>",
			Short: "Pay-to-pubkey-hash address of a SEC1 public key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				pub, err := hexArg(args, cmd.InOrStdin())
				if err != nil {
					return err
				}
				addr, err := address.NewAddressFromPubKey(pub, a.cfg.Params())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), newAddressView(addr))
			},
		},
		&cobra.Command{
			Use:   "from-script <hex>",
			Short: "Address paid by an output script",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				spk, err := hexArg(args, cmd.InOrStdin())
				if err != nil {
					return err
				}
				addr, err := address.FromScript(spk, a.cfg.Params())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), newAddressView(addr))
			},
		},
	)
	return cmd
}

type hdView struct {
	Path    string `json:"path"`
	Xprv    string `json:"xprv,omitempty"`
	Xpub    string `json:"xpub"`
	PubKey  string `json:"pubkey"`
	Address string `json:"address"`
	WIF     string `json:"wif,omitempty"`
}

func (a *app) hdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hd",
		Short: "BIP32 and BIP39 key derivation",
	}

	var seedHex, mnemonic, passphrase, pathStr, extKey string
	derive := &cobra.Command{
		Use:   "derive",
		Short: "Derive a key from a seed, mnemonic or extended key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := a.cfg.Params()
			path, err := hdkey.ParsePath(pathStr)
			if err != nil {
				return err
			}
			var key hdkey.ExtendedKey
			switch {
			case seedHex != "":
				seed, err := hex.DecodeString(seedHex)
				if err != nil {
					return fmt.Errorf("invalid seed hex: %w", err)
				}
				if key, err = hdkey.NewMaster(seed, params); err != nil {
					return err
				}
			case mnemonic != "":
				if key, err = hdkey.NewMasterFromMnemonic(mnemonic, passphrase, params); err != nil {
					return err
				}
			case extKey != "":
				if key, err = hdkey.Parse(extKey, params); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --seed, --mnemonic or --key is required")
			}

			v := hdView{Path: path.String()}
			var pub *hdkey.ExtendedPubKey
			if priv, ok := key.(*hdkey.ExtendedPrivKey); ok {
				child, err := priv.Derive(path)
				if err != nil {
					return err
				}
				wif, err := child.WIF()
				if err != nil {
					return err
				}
				v.Xprv, v.WIF = child.String(), wif.String()
				pub = child.Neuter()
			} else {
				if pub, err = key.Public().Derive(path); err != nil {
					return err
				}
			}
			addr, err := pub.Address()
			if err != nil {
				return err
			}
			v.Xpub, v.PubKey, v.Address = pub.String(), hex.EncodeToString(pub.PubKey()), addr.String()
			fp := pub.Fingerprint()
			a.log.Debug().Str("path", v.Path).Str("fingerprint", hex.EncodeToString(fp[:])).Msg("derived key")
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	f := derive.Flags()
	f.StringVar(&seedHex, "seed", "", "hex seed, 16 to 64 bytes")
	f.StringVar(&mnemonic, "mnemonic", "", "BIP39 mnemonic sentence")
	f.StringVar(&passphrase, "passphrase", "", "BIP39 passphrase")
	f.StringVar(&extKey, "key", "", "serialized extended key")
	f.StringVar(&pathStr, "path", "m", "derivation path, e.g. m/44'/5'/0'/0/0")

	var bits int
	gen := &cobra.Command{
		Use:   "mnemonic",
		Short: "Generate a new BIP39 mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := hdkey.NewMnemonic(bits)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), m)
			return err
		},
	}
	gen.Flags().IntVar(&bits, "bits", 128, "entropy bits: 128, 160, 192, 224 or 256")

	cmd.AddCommand(derive, gen)
	return cmd
}

func (a *app) sighashCmd() *cobra.Command {
	var (
		txHex, scriptHex, mode string
		index                  int
		hashType               uint32
		amount                 int64
	)
	cmd := &cobra.Command{
		Use:   "sighash",
		Short: "Compute the signature digest of one input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := Request{TxHex: txHex, ScriptHex: scriptHex, InputIndex: index, HashType: hashType, Amount: amount}
			var resp Response
			var err error
			switch mode {
			case "legacy":
				resp, err = a.opSighashLegacy(req)
			case "segwit":
				resp, err = a.opSighashSegwitV0(req)
			default:
				return fmt.Errorf("unknown mode %q", mode)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.DigestHex)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&txHex, "tx", "", "transaction hex")
	f.StringVar(&scriptHex, "script", "", "script code hex")
	f.StringVar(&mode, "mode", "legacy", "digest algorithm: legacy|segwit")
	f.IntVar(&index, "index", 0, "input index")
	f.Uint32Var(&hashType, "hash-type", 1, "hash type")
	f.Int64Var(&amount, "amount", 0, "spent amount in duffs (segwit only)")
	_ = cmd.MarkFlagRequired("tx")
	return cmd
}
