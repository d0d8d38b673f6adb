package hashes

// Distinct identifier types keep digests of the same shape but different
// meaning from being mixed up.

// Txid identifies a transaction by its base (non-witness) encoding.
type Txid Hash256

// Wtxid identifies a transaction including witness data.
type Wtxid Hash256

// BlockHash identifies a block by its 80-byte header.
type BlockHash Hash256

// MerkleNode is an interior or root node of the transaction merkle tree.
type MerkleNode Hash256

// PayloadHash is the digest of a special-transaction payload.
type PayloadHash Hash256

// WScriptHash is the single SHA-256 of a witness script.
type WScriptHash Hash256

// PubkeyHash is the Hash160 of a serialized public key.
type PubkeyHash Hash160

// ScriptHash is the Hash160 of a redeem script.
type ScriptHash Hash160

func (h Txid) String() string        { return Hash256(h).String() }
func (h Wtxid) String() string       { return Hash256(h).String() }
func (h BlockHash) String() string   { return Hash256(h).String() }
func (h MerkleNode) String() string  { return Hash256(h).String() }
func (h PayloadHash) String() string { return Hash256(h).String() }
func (h WScriptHash) String() string { return Hash256(h).String() }
func (h PubkeyHash) String() string  { return Hash160(h).String() }
func (h ScriptHash) String() string  { return Hash160(h).String() }

func (h Txid) IsZero() bool { return Hash256(h).IsZero() }

func (h Txid) MarshalText() ([]byte, error)      { return Hash256(h).MarshalText() }
func (h BlockHash) MarshalText() ([]byte, error) { return Hash256(h).MarshalText() }

func (h *Txid) UnmarshalText(text []byte) error {
	return (*Hash256)(h).UnmarshalText(text)
}

func (h *BlockHash) UnmarshalText(text []byte) error {
	return (*Hash256)(h).UnmarshalText(text)
}

// TxidFromString parses a display-order transaction id.
func TxidFromString(s string) (Txid, error) {
	h, err := Hash256FromString(s)
	return Txid(h), err
}

// BlockHashFromString parses a display-order block hash.
func BlockHashFromString(s string) (BlockHash, error) {
	h, err := Hash256FromString(s)
	return BlockHash(h), err
}
