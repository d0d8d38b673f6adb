package consensus

import "fmt"

// TxType is the DIP2 special transaction type carried in the high half of
// the wire version.
type TxType uint16

const (
	TxTypeClassic                  TxType = 0
	TxTypeProviderRegistration     TxType = 1
	TxTypeProviderUpdateService    TxType = 2
	TxTypeProviderUpdateRegistrar  TxType = 3
	TxTypeProviderUpdateRevocation TxType = 4
	TxTypeCoinbase                 TxType = 5
	TxTypeQuorumCommitment         TxType = 6
	TxTypeMasternodeHardFork       TxType = 7
	TxTypeAssetLock                TxType = 8
	TxTypeAssetUnlock              TxType = 9
)

var txTypeNames = map[TxType]string{
	TxTypeClassic:                  "classic",
	TxTypeProviderRegistration:     "provider_registration",
	TxTypeProviderUpdateService:    "provider_update_service",
	TxTypeProviderUpdateRegistrar:  "provider_update_registrar",
	TxTypeProviderUpdateRevocation: "provider_update_revocation",
	TxTypeCoinbase:                 "coinbase",
	TxTypeQuorumCommitment:         "quorum_commitment",
	TxTypeMasternodeHardFork:       "mnhf_signal",
	TxTypeAssetLock:                "asset_lock",
	TxTypeAssetUnlock:              "asset_unlock",
}

func (t TxType) String() string {
	if name, ok := txTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint16(t))
}

// IsKnown reports whether t is one of the defined special types.
func (t TxType) IsKnown() bool {
	_, ok := txTypeNames[t]
	return ok
}

// BLSSignatureSize is the length of a serialized BLS12-381 G2 signature.
const BLSSignatureSize = 96

// CoinbasePayload is the DIP4 payload of a TxTypeCoinbase transaction.
// Fields beyond those of the payload's Version are zero.
type CoinbasePayload struct {
	Version           uint16
	Height            uint32
	MerkleRootMNList  [32]byte
	MerkleRootQuorums [32]byte // version >= 2

	BestCLHeightDiff  uint64                 // version >= 3
	BestCLSignature   [BLSSignatureSize]byte // version >= 3
	CreditPoolBalance int64                  // version >= 3
}

func (p *CoinbasePayload) Bytes() []byte {
	b := make([]byte, 0, 2+4+32+32+9+BLSSignatureSize+8)
	b = AppendU16le(b, p.Version)
	b = AppendU32le(b, p.Height)
	b = append(b, p.MerkleRootMNList[:]...)
	if p.Version >= 2 {
		b = append(b, p.MerkleRootQuorums[:]...)
	}
	if p.Version >= 3 {
		b = AppendCompactSize(b, p.BestCLHeightDiff)
		b = append(b, p.BestCLSignature[:]...)
		b = AppendU64le(b, uint64(p.CreditPoolBalance)) // #nosec G115 -- two's complement on the wire.
	}
	return b
}

// ParseCoinbasePayload decodes a coinbase payload. The whole input must be
// consumed.
func ParseCoinbasePayload(b []byte) (*CoinbasePayload, error) {
	r := NewReader(b)
	p := &CoinbasePayload{}
	var err error
	if p.Version, err = r.ReadU16LE(); err != nil {
		return nil, badPayload("cbtx", err)
	}
	if p.Version == 0 {
		return nil, txerr(ERR_BAD_PAYLOAD, "cbtx: version 0")
	}
	if p.Height, err = r.ReadU32LE(); err != nil {
		return nil, badPayload("cbtx", err)
	}
	if p.MerkleRootMNList, err = r.ReadHash(); err != nil {
		return nil, badPayload("cbtx", err)
	}
	if p.Version >= 2 {
		if p.MerkleRootQuorums, err = r.ReadHash(); err != nil {
			return nil, badPayload("cbtx", err)
		}
	}
	if p.Version >= 3 {
		if p.BestCLHeightDiff, err = r.ReadCompactSize(); err != nil {
			return nil, badPayload("cbtx", err)
		}
		sig, err := r.ReadExact(BLSSignatureSize)
		if err != nil {
			return nil, badPayload("cbtx", err)
		}
		copy(p.BestCLSignature[:], sig)
		if p.CreditPoolBalance, err = r.ReadI64LE(); err != nil {
			return nil, badPayload("cbtx", err)
		}
	}
	if err := r.Done(); err != nil {
		return nil, badPayload("cbtx", err)
	}
	return p, nil
}

// CoinbasePayload decodes the special payload of a coinbase special
// transaction.
func (tx *Transaction) CoinbasePayload() (*CoinbasePayload, error) {
	if tx.Type != TxTypeCoinbase || !tx.HasSpecialPayload() {
		return nil, txerrf(ERR_BAD_PAYLOAD, "tx type %s carries no coinbase payload", tx.Type)
	}
	return ParseCoinbasePayload(tx.SpecialPayload)
}

func badPayload(kind string, err error) error {
	return txerrf(ERR_BAD_PAYLOAD, "%s: %v", kind, err)
}
