package consensus

import (
	"bytes"
	"io"
	"time"

	"dashcore.dev/core/hashes"
	"dashcore.dev/core/script"
)

const BlockHeaderSize = 80

// BlockHeader is the fixed 80-byte chain-linkage record.
type BlockHeader struct {
	Version    int32
	PrevBlock  hashes.BlockHash
	MerkleRoot hashes.MerkleNode
	Time       uint32
	Bits       uint32
	Nonce      uint32
}

func (h *BlockHeader) AppendTo(dst []byte) []byte {
	dst = AppendU32le(dst, uint32(h.Version)) // #nosec G115 -- two's complement on the wire.
	dst = append(dst, h.PrevBlock[:]...)
	dst = append(dst, h.MerkleRoot[:]...)
	dst = AppendU32le(dst, h.Time)
	dst = AppendU32le(dst, h.Bits)
	return AppendU32le(dst, h.Nonce)
}

func (h *BlockHeader) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, BlockHeaderSize))
}

func (h *BlockHeader) Encode(w io.Writer) (int, error) {
	return w.Write(h.Bytes())
}

// BlockHash is the double SHA-256 of the header encoding.
func (h *BlockHeader) BlockHash() hashes.BlockHash {
	return hashes.BlockHash(hashes.DoubleSHA256(h.Bytes()))
}

func (h *BlockHeader) Timestamp() time.Time {
	return time.Unix(int64(h.Time), 0).UTC()
}

func DecodeBlockHeader(r *Reader) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.Version, err = r.ReadI32LE(); err != nil {
		return h, err
	}
	prev, err := r.ReadHash()
	if err != nil {
		return h, err
	}
	merkle, err := r.ReadHash()
	if err != nil {
		return h, err
	}
	if h.Time, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	if h.Bits, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	if h.Nonce, err = r.ReadU32LE(); err != nil {
		return h, err
	}
	h.PrevBlock = hashes.BlockHash(prev)
	h.MerkleRoot = hashes.MerkleNode(merkle)
	return h, nil
}

// ParseBlockHeader decodes exactly BlockHeaderSize bytes.
func ParseBlockHeader(b []byte) (BlockHeader, error) {
	if len(b) != BlockHeaderSize {
		return BlockHeader{}, txerrf(ERR_UNEXPECTED_EOF, "block header is %d bytes, want %d", len(b), BlockHeaderSize)
	}
	return DecodeBlockHeader(NewReader(b))
}

// Block is a header followed by its transactions, coinbase first.
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

func (b *Block) BlockHash() hashes.BlockHash {
	return b.Header.BlockHash()
}

func (b *Block) Bytes() []byte {
	size := BlockHeaderSize + CompactSizeLen(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		size += tx.SerializeSize()
	}
	out := b.Header.AppendTo(make([]byte, 0, size))
	out = AppendCompactSize(out, uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		out = tx.appendEncoding(out, tx.useExtended())
	}
	return out
}

func (b *Block) Encode(w io.Writer) (int, error) {
	return w.Write(b.Bytes())
}

// SerializeSize is the length of Bytes.
func (b *Block) SerializeSize() int {
	n := BlockHeaderSize + CompactSizeLen(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		n += tx.SerializeSize()
	}
	return n
}

func DecodeBlock(r *Reader) (*Block, error) {
	h, err := DecodeBlockHeader(r)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadCount(r.Limits().MaxElements, "transactions")
	if err != nil {
		return nil, err
	}
	blk := &Block{Header: h}
	if n > 0 {
		// A transaction is at least 10 bytes.
		blk.Transactions = make([]*Transaction, 0, min(n, r.Remaining()/10+1))
	}
	for range n {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		blk.Transactions = append(blk.Transactions, tx)
	}
	return blk, nil
}

// ParseBlock decodes b, which must hold exactly one block.
func ParseBlock(b []byte) (*Block, error) {
	return ParseBlockWithLimits(b, DefaultDecodeLimits())
}

func ParseBlockWithLimits(b []byte, limits DecodeLimits) (*Block, error) {
	r := NewReaderWithLimits(b, limits)
	blk, err := DecodeBlock(r)
	if err != nil {
		return nil, err
	}
	if err := r.Done(); err != nil {
		return nil, err
	}
	return blk, nil
}

// ComputeMerkleRoot returns the transaction merkle root of the block's
// current contents.
func (b *Block) ComputeMerkleRoot() (hashes.MerkleNode, error) {
	return TxMerkleRoot(b.Transactions)
}

// CheckMerkleRoot verifies the header commits to the transactions.
func (b *Block) CheckMerkleRoot() error {
	root, err := b.ComputeMerkleRoot()
	if err != nil {
		return err
	}
	if root != b.Header.MerkleRoot {
		return txerrf(ERR_MERKLE_MISMATCH, "header merkle root %s, computed %s", b.Header.MerkleRoot, root)
	}
	return nil
}

// witnessCommitmentHeader prefixes the 32-byte commitment inside the
// coinbase OP_RETURN output.
var witnessCommitmentHeader = []byte{script.OP_RETURN, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// WitnessCommitmentScript builds the coinbase output script carrying c.
func WitnessCommitmentScript(c hashes.Hash256) script.Script {
	s := make(script.Script, 0, len(witnessCommitmentHeader)+32)
	s = append(s, witnessCommitmentHeader...)
	return append(s, c[:]...)
}

// WitnessCommitment returns the commitment carried by the coinbase. When
// several outputs match, the last one counts.
func (b *Block) WitnessCommitment() (hashes.Hash256, bool) {
	if len(b.Transactions) == 0 {
		return hashes.Hash256{}, false
	}
	outs := b.Transactions[0].Outputs
	for i := len(outs) - 1; i >= 0; i-- {
		spk := outs[i].ScriptPubKey
		if len(spk) >= len(witnessCommitmentHeader)+32 && bytes.HasPrefix(spk, witnessCommitmentHeader) {
			var c hashes.Hash256
			copy(c[:], spk[len(witnessCommitmentHeader):])
			return c, true
		}
	}
	return hashes.Hash256{}, false
}

// CheckWitnessCommitment verifies the coinbase commitment against the
// witness merkle root, taking the reserved value from the coinbase
// witness. Blocks without witness data and without a commitment pass.
func (b *Block) CheckWitnessCommitment() error {
	want, ok := b.WitnessCommitment()
	if !ok {
		for _, tx := range b.Transactions {
			if tx.HasWitness() {
				return txerr(ERR_MERKLE_MISMATCH, "witness data without commitment")
			}
		}
		return nil
	}
	cb := b.Transactions[0]
	if len(cb.Inputs) != 1 || len(cb.Inputs[0].Witness) != 1 || len(cb.Inputs[0].Witness[0]) != 32 {
		return txerr(ERR_MERKLE_MISMATCH, "coinbase witness reserved value missing")
	}
	var reserved [32]byte
	copy(reserved[:], cb.Inputs[0].Witness[0])
	root, err := WitnessMerkleRoot(b.Transactions)
	if err != nil {
		return err
	}
	if got := WitnessCommitment(root, reserved); got != want {
		return txerrf(ERR_MERKLE_MISMATCH, "witness commitment %x, computed %x", want[:], got[:])
	}
	return nil
}
