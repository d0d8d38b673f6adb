package consensus

import "fmt"

// BLSPublicKeySize is the length of a serialized BLS12-381 G1 public key.
const BLSPublicKeySize = 48

// LLMQType identifies a long-living masternode quorum configuration.
type LLMQType uint8

const (
	LLMQType50_60           LLMQType = 1
	LLMQType400_60          LLMQType = 2
	LLMQType400_85          LLMQType = 3
	LLMQType100_67          LLMQType = 4
	LLMQType60_75           LLMQType = 5
	LLMQType25_67           LLMQType = 6
	LLMQTypeTest            LLMQType = 100
	LLMQTypeDevnet          LLMQType = 101
	LLMQTypeTestV17         LLMQType = 102
	LLMQTypeTestDIP0024     LLMQType = 103
	LLMQTypeTestInstantSend LLMQType = 104
	LLMQTypeDevnetDIP0024   LLMQType = 105
	LLMQTypeTestPlatform    LLMQType = 106
	LLMQTypeDevnetPlatform  LLMQType = 107
)

var llmqTypeNames = map[LLMQType]string{
	LLMQType50_60:           "llmq_50_60",
	LLMQType400_60:          "llmq_400_60",
	LLMQType400_85:          "llmq_400_85",
	LLMQType100_67:          "llmq_100_67",
	LLMQType60_75:           "llmq_60_75",
	LLMQType25_67:           "llmq_25_67",
	LLMQTypeTest:            "llmq_test",
	LLMQTypeDevnet:          "llmq_devnet",
	LLMQTypeTestV17:         "llmq_test_v17",
	LLMQTypeTestDIP0024:     "llmq_test_dip0024",
	LLMQTypeTestInstantSend: "llmq_test_instantsend",
	LLMQTypeDevnetDIP0024:   "llmq_devnet_dip0024",
	LLMQTypeTestPlatform:    "llmq_test_platform",
	LLMQTypeDevnetPlatform:  "llmq_devnet_platform",
}

func (t LLMQType) String() string {
	if name, ok := llmqTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// QuorumCommitment is a DIP6 final commitment. Signers and ValidMembers
// are member bitsets; QuorumIndex is only on the wire for versions 2 and 4.
type QuorumCommitment struct {
	Version      uint16
	LLMQType     LLMQType
	QuorumHash   [32]byte
	QuorumIndex  int16
	Signers      []bool
	ValidMembers []bool

	QuorumPublicKey   [BLSPublicKeySize]byte
	QuorumVVecHash    [32]byte
	ThresholdSig      [BLSSignatureSize]byte
	MembersSig        [BLSSignatureSize]byte
}

// HasQuorumIndex reports whether the commitment version carries the
// rotation quorum index.
func (c *QuorumCommitment) HasQuorumIndex() bool {
	return c.Version == 2 || c.Version == 4
}

func (c *QuorumCommitment) SerializeSize() int {
	n := 2 + 1 + 32 + BLSPublicKeySize + 32 + 2*BLSSignatureSize
	n += CompactSizeLen(uint64(len(c.Signers))) + bitsetLen(len(c.Signers))
	n += CompactSizeLen(uint64(len(c.ValidMembers))) + bitsetLen(len(c.ValidMembers))
	if c.HasQuorumIndex() {
		n += 2
	}
	return n
}

func (c *QuorumCommitment) AppendTo(dst []byte) []byte {
	dst = AppendU16le(dst, c.Version)
	dst = append(dst, byte(c.LLMQType))
	dst = append(dst, c.QuorumHash[:]...)
	if c.HasQuorumIndex() {
		dst = AppendU16le(dst, uint16(c.QuorumIndex)) // #nosec G115 -- two's complement on the wire.
	}
	dst = appendBitset(dst, c.Signers)
	dst = appendBitset(dst, c.ValidMembers)
	dst = append(dst, c.QuorumPublicKey[:]...)
	dst = append(dst, c.QuorumVVecHash[:]...)
	dst = append(dst, c.ThresholdSig[:]...)
	return append(dst, c.MembersSig[:]...)
}

// DecodeQuorumCommitment reads one commitment from r. Bitset lengths are
// bounded by the reader's MaxElements.
func DecodeQuorumCommitment(r *Reader) (QuorumCommitment, error) {
	var c QuorumCommitment
	var err error
	if c.Version, err = r.ReadU16LE(); err != nil {
		return c, err
	}
	typ, err := r.ReadU8()
	if err != nil {
		return c, err
	}
	c.LLMQType = LLMQType(typ)
	if c.QuorumHash, err = r.ReadHash(); err != nil {
		return c, err
	}
	if c.HasQuorumIndex() {
		idx, err := r.ReadU16LE()
		if err != nil {
			return c, err
		}
		c.QuorumIndex = int16(idx) // #nosec G115 -- two's complement on the wire.
	}
	if c.Signers, err = readBitset(r, "signers"); err != nil {
		return c, err
	}
	if c.ValidMembers, err = readBitset(r, "valid members"); err != nil {
		return c, err
	}
	for _, dst := range [][]byte{c.QuorumPublicKey[:], c.QuorumVVecHash[:], c.ThresholdSig[:], c.MembersSig[:]} {
		b, err := r.ReadExact(len(dst))
		if err != nil {
			return c, err
		}
		copy(dst, b)
	}
	return c, nil
}

// QuorumCommitmentPayload is the special payload of a
// TxTypeQuorumCommitment transaction.
type QuorumCommitmentPayload struct {
	Version    uint16
	Height     uint32
	Commitment QuorumCommitment
}

func (p *QuorumCommitmentPayload) SerializeSize() int {
	return 2 + 4 + p.Commitment.SerializeSize()
}

func (p *QuorumCommitmentPayload) Bytes() []byte {
	b := make([]byte, 0, p.SerializeSize())
	b = AppendU16le(b, p.Version)
	b = AppendU32le(b, p.Height)
	return p.Commitment.AppendTo(b)
}

// ParseQuorumCommitmentPayload decodes a quorum commitment payload with the
// default limits. The whole input must be consumed.
func ParseQuorumCommitmentPayload(b []byte) (*QuorumCommitmentPayload, error) {
	return ParseQuorumCommitmentPayloadWithLimits(b, DefaultDecodeLimits())
}

func ParseQuorumCommitmentPayloadWithLimits(b []byte, limits DecodeLimits) (*QuorumCommitmentPayload, error) {
	r := NewReaderWithLimits(b, limits)
	p := &QuorumCommitmentPayload{}
	var err error
	if p.Version, err = r.ReadU16LE(); err != nil {
		return nil, badPayload("qc", err)
	}
	if p.Height, err = r.ReadU32LE(); err != nil {
		return nil, badPayload("qc", err)
	}
	if p.Commitment, err = DecodeQuorumCommitment(r); err != nil {
		return nil, badPayload("qc", err)
	}
	if err := r.Done(); err != nil {
		return nil, badPayload("qc", err)
	}
	return p, nil
}

// QuorumCommitmentPayload decodes the special payload of a quorum
// commitment transaction.
func (tx *Transaction) QuorumCommitmentPayload() (*QuorumCommitmentPayload, error) {
	if tx.Type != TxTypeQuorumCommitment || !tx.HasSpecialPayload() {
		return nil, txerrf(ERR_BAD_PAYLOAD, "tx type %s carries no quorum commitment", tx.Type)
	}
	return ParseQuorumCommitmentPayload(tx.SpecialPayload)
}

func bitsetLen(n int) int { return (n + 7) / 8 }

// appendBitset writes a CompactSize bit count followed by the bits packed
// least significant first.
func appendBitset(dst []byte, bits []bool) []byte {
	dst = AppendCompactSize(dst, uint64(len(bits)))
	packed := make([]byte, bitsetLen(len(bits)))
	for i, set := range bits {
		if set {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	return append(dst, packed...)
}

// readBitset reads a bitset written by appendBitset. Padding bits past the
// count must be clear so the encoding stays canonical.
func readBitset(r *Reader, name string) ([]bool, error) {
	n, err := r.ReadCount(r.Limits().MaxElements, name)
	if err != nil {
		return nil, err
	}
	packed, err := r.ReadExact(bitsetLen(n))
	if err != nil {
		return nil, err
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = packed[i/8]&(1<<(i%8)) != 0
	}
	if rem := n % 8; rem != 0 && packed[len(packed)-1]>>rem != 0 {
		return nil, txerrf(ERR_BAD_PAYLOAD, "%s: padding bits set", name)
	}
	return bits, nil
}
