package script

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrPushTooLarge    = errors.New("script: push exceeds maximum element size")
	ErrInvalidProgram  = errors.New("script: invalid witness program")
	ErrInvalidMultiSig = errors.New("script: invalid multisig parameters")
)

// Builder assembles a script from opcodes and data, always choosing the
// minimal push encoding. The first error sticks and is returned by Script.
//
//	s, err := script.NewBuilder().
//		AddOp(script.OP_DUP).AddOp(script.OP_HASH160).
//		AddData(hash).
//		AddOp(script.OP_EQUALVERIFY).AddOp(script.OP_CHECKSIG).
//		Script()
type Builder struct {
	script Script
	err    error
}

func NewBuilder() *Builder {
	return &Builder{script: make(Script, 0, 64)}
}

func (b *Builder) AddOp(op byte) *Builder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, op)
	return b
}

func (b *Builder) AddOps(ops ...byte) *Builder {
	for _, op := range ops {
		b.AddOp(op)
	}
	return b
}

// AddData pushes data with the smallest opcode that can carry it. Single
// bytes 1..16 and 0x81 become OP_1..OP_16 and OP_1NEGATE; empty data
// becomes OP_0.
func (b *Builder) AddData(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	if len(data) > MaxScriptElementSize {
		b.err = fmt.Errorf("%w: %d bytes", ErrPushTooLarge, len(data))
		return b
	}
	b.script = appendPush(b.script, data)
	return b
}

// AddFullData pushes data of any length without the element size check.
// It exists for building test fixtures that exceed relay policy.
func (b *Builder) AddFullData(data []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.script = appendPush(b.script, data)
	return b
}

// AddInt64 pushes n using the script number encoding.
func (b *Builder) AddInt64(n int64) *Builder {
	if b.err != nil {
		return b
	}
	switch {
	case n == 0:
		b.script = append(b.script, OP_0)
		return b
	case n == -1:
		b.script = append(b.script, OP_1NEGATE)
		return b
	case n >= 1 && n <= 16:
		b.script = append(b.script, byte(int64(OP_1-1)+n))
		return b
	}
	b.script = appendPush(b.script, ScriptNum(n))
	return b
}

func (b *Builder) Script() (Script, error) {
	return b.script, b.err
}

// ScriptNum encodes n in the minimal little-endian sign-magnitude form used
// by script numbers.
func ScriptNum(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	var abs uint64
	if neg {
		abs = uint64(-(n + 1)) + 1
	} else {
		abs = uint64(n)
	}
	var out []byte
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	if out[len(out)-1]&0x80 != 0 {
		if neg {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	} else if neg {
		out[len(out)-1] |= 0x80
	}
	return out
}

func appendPush(dst Script, data []byte) Script {
	n := len(data)
	switch {
	case n == 0:
		return append(dst, OP_0)
	case n == 1 && data[0] >= 1 && data[0] <= 16:
		return append(dst, OP_1-1+data[0])
	case n == 1 && data[0] == 0x81:
		return append(dst, OP_1NEGATE)
	case n < int(OP_PUSHDATA1):
		dst = append(dst, byte(n))
	case n <= 0xff:
		dst = append(dst, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		dst = append(dst, OP_PUSHDATA2)
		dst = binary.LittleEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, OP_PUSHDATA4)
		dst = binary.LittleEndian.AppendUint32(dst, uint32(n)) // #nosec G115 -- slice lengths fit in u32 for any real script.
	}
	return append(dst, data...)
}

// PayToPubKeyHash builds OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY OP_CHECKSIG.
func PayToPubKeyHash(hash [20]byte) Script {
	s := make(Script, 0, 25)
	s = append(s, OP_DUP, OP_HASH160, OP_DATA_20)
	s = append(s, hash[:]...)
	return append(s, OP_EQUALVERIFY, OP_CHECKSIG)
}

// PayToScriptHash builds OP_HASH160 <hash> OP_EQUAL.
func PayToScriptHash(hash [20]byte) Script {
	s := make(Script, 0, 23)
	s = append(s, OP_HASH160, OP_DATA_20)
	s = append(s, hash[:]...)
	return append(s, OP_EQUAL)
}

// PayToWitness builds <version> <program>. Version 0 requires a 20 or
// 32 byte program; other versions accept 2 to 40 bytes.
func PayToWitness(version int, program []byte) (Script, error) {
	if version < 0 || version > 16 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidProgram, version)
	}
	if len(program) < minWitnessProgramLen || len(program) > maxWitnessProgramLen {
		return nil, fmt.Errorf("%w: %d byte program", ErrInvalidProgram, len(program))
	}
	if version == 0 && len(program) != witnessV0KeyLen && len(program) != witnessV0ScriptLen {
		return nil, fmt.Errorf("%w: %d byte v0 program", ErrInvalidProgram, len(program))
	}
	op, _ := SmallIntOpcode(version)
	s := make(Script, 0, 2+len(program))
	s = append(s, op, byte(len(program)))
	return append(s, program...), nil
}

// PayToPubKey builds <pubkey> OP_CHECKSIG.
func PayToPubKey(pubKey []byte) (Script, error) {
	if len(pubKey) != compressedPubKeyLen && len(pubKey) != uncompressedPubKeyLen {
		return nil, fmt.Errorf("script: pubkey of %d bytes", len(pubKey))
	}
	return NewBuilder().AddData(pubKey).AddOp(OP_CHECKSIG).Script()
}

// MultiSigScript builds <required> <keys...> <len(keys)> OP_CHECKMULTISIG.
func MultiSigScript(required int, pubKeys [][]byte) (Script, error) {
	if required < 1 || required > len(pubKeys) || len(pubKeys) > 16 {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidMultiSig, required, len(pubKeys))
	}
	b := NewBuilder().AddInt64(int64(required))
	for _, k := range pubKeys {
		if len(k) != compressedPubKeyLen && len(k) != uncompressedPubKeyLen {
			return nil, fmt.Errorf("%w: pubkey of %d bytes", ErrInvalidMultiSig, len(k))
		}
		b.AddData(k)
	}
	return b.AddInt64(int64(len(pubKeys))).AddOp(OP_CHECKMULTISIG).Script()
}

// NullData builds OP_RETURN <data>.
func NullData(data []byte) (Script, error) {
	s, err := NewBuilder().AddOp(OP_RETURN).AddData(data).Script()
	if err != nil {
		return nil, err
	}
	if len(s) > MaxNullDataSize {
		return nil, fmt.Errorf("script: null data of %d bytes exceeds %d", len(s), MaxNullDataSize)
	}
	return s, nil
}
