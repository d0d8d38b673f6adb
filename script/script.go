// Package script models transaction scripts as opaque byte programs with
// opcode-aware iteration and recognition of the standard spending
// templates. It does not execute scripts.
package script

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"strings"
)

const (
	// MaxScriptSize is the largest script the protocol will evaluate.
	// Larger scripts can still be built and serialized.
	MaxScriptSize = 10_000

	// MaxScriptElementSize is the largest single push the protocol allows.
	MaxScriptElementSize = 520

	// MaxNullDataSize bounds a standard OP_RETURN output script.
	MaxNullDataSize = 83
)

// ErrEarlyEndOfScript reports a push opcode whose declared payload runs past
// the end of the script.
var ErrEarlyEndOfScript = errors.New("script: early end of script")

// Script is a serialized script program. Its zero value is the empty script.
type Script []byte

// FromHex parses a hex-encoded script.
func FromHex(s string) (Script, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return Script(b), nil
}

func (s Script) Bytes() []byte { return []byte(s) }

func (s Script) Len() int { return len(s) }

func (s Script) Hex() string { return hex.EncodeToString(s) }

func (s Script) Equal(o Script) bool { return bytes.Equal(s, o) }

// IsOversized reports whether the script exceeds MaxScriptSize.
func (s Script) IsOversized() bool {
	return len(s) > MaxScriptSize
}

// IsValidSize is the inverse of IsOversized.
func (s Script) IsValidSize() bool {
	return !s.IsOversized()
}

// IsUnspendable reports scripts that can never be satisfied: a leading
// OP_RETURN or an oversized program.
func (s Script) IsUnspendable() bool {
	return (len(s) > 0 && s[0] == OP_RETURN) || s.IsOversized()
}

// Instruction is one decoded script element: an opcode, plus the pushed
// bytes when the opcode is a data push.
type Instruction struct {
	Opcode byte
	Data   []byte
}

// IsPush reports whether the instruction pushes data, OP_0 included.
func (in Instruction) IsPush() bool {
	return in.Opcode <= OP_PUSHDATA4
}

// IsMinimalPush reports whether the push uses the shortest encoding for
// its data.
func (in Instruction) IsMinimalPush() bool {
	if !in.IsPush() {
		return true
	}
	n := len(in.Data)
	switch {
	case n == 0:
		return in.Opcode == OP_0
	case n == 1 && in.Data[0] >= 1 && in.Data[0] <= 16:
		return false // should be OP_1..OP_16
	case n == 1 && in.Data[0] == 0x81:
		return false // should be OP_1NEGATE
	case n <= 75:
		return int(in.Opcode) == n
	case n <= 0xff:
		return in.Opcode == OP_PUSHDATA1
	case n <= 0xffff:
		return in.Opcode == OP_PUSHDATA2
	}
	return in.Opcode == OP_PUSHDATA4
}

func (in Instruction) String() string {
	if in.IsPush() && in.Opcode != OP_0 {
		return hex.EncodeToString(in.Data)
	}
	return OpcodeName(in.Opcode)
}

// OpcodeName returns the conventional name of op.
func OpcodeName(op byte) string {
	if op >= 1 && op <= 75 {
		return fmt.Sprintf("OP_DATA_%d", op)
	}
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_UNKNOWN%d", op)
}

// Tokenizer walks a script one instruction at a time without allocating.
// It stops at the first malformed push and reports ErrEarlyEndOfScript
// through Err; it never reads beyond the script.
//
//	t := s.Tokenizer()
//	for t.Next() {
//		_ = t.Opcode()
//	}
//	if err := t.Err(); err != nil {
//		...
//	}
type Tokenizer struct {
	script []byte
	offset int
	op     byte
	data   []byte
	err    error
}

// Tokenizer returns a fresh tokenizer positioned at the start of s.
func (s Script) Tokenizer() *Tokenizer {
	return &Tokenizer{script: s}
}

// Reset rewinds the tokenizer to the start of its script.
func (t *Tokenizer) Reset() {
	t.offset = 0
	t.op = 0
	t.data = nil
	t.err = nil
}

func (t *Tokenizer) Done() bool {
	return t.err != nil || t.offset >= len(t.script)
}

func (t *Tokenizer) Next() bool {
	if t.Done() {
		return false
	}
	op := t.script[t.offset]
	rest := t.script[t.offset+1:]

	var n, prefix int
	switch {
	case op < OP_PUSHDATA1:
		n = int(op)
	case op == OP_PUSHDATA1:
		prefix = 1
		if len(rest) < prefix {
			return t.fail(op, "OP_PUSHDATA1 length")
		}
		n = int(rest[0])
	case op == OP_PUSHDATA2:
		prefix = 2
		if len(rest) < prefix {
			return t.fail(op, "OP_PUSHDATA2 length")
		}
		n = int(binary.LittleEndian.Uint16(rest))
	case op == OP_PUSHDATA4:
		prefix = 4
		if len(rest) < prefix {
			return t.fail(op, "OP_PUSHDATA4 length")
		}
		n64 := uint64(binary.LittleEndian.Uint32(rest))
		if n64 > uint64(len(rest)-prefix) {
			return t.fail(op, fmt.Sprintf("push of %d bytes", n64))
		}
		n = int(n64)
	default:
		t.op = op
		t.data = nil
		t.offset++
		return true
	}

	if n > len(rest)-prefix {
		return t.fail(op, fmt.Sprintf("push of %d bytes", n))
	}
	t.op = op
	t.data = rest[prefix : prefix+n : prefix+n]
	t.offset += 1 + prefix + n
	return true
}

func (t *Tokenizer) fail(op byte, what string) bool {
	t.err = fmt.Errorf("%w: %s %s at offset %d", ErrEarlyEndOfScript, OpcodeName(op), what, t.offset)
	t.op = op
	t.data = nil
	return false
}

func (t *Tokenizer) Opcode() byte { return t.op }

// Data returns the pushed bytes of the current instruction. The slice
// aliases the script.
func (t *Tokenizer) Data() []byte { return t.data }

func (t *Tokenizer) Instruction() Instruction {
	return Instruction{Opcode: t.op, Data: t.data}
}

// Offset is the byte position just after the current instruction.
func (t *Tokenizer) Offset() int { return t.offset }

func (t *Tokenizer) Err() error { return t.err }

// Instructions returns a restartable lazy sequence over the script. A
// truncated push is yielded once as a final (Instruction, error) pair with
// the error wrapping ErrEarlyEndOfScript.
func (s Script) Instructions() iter.Seq2[Instruction, error] {
	return func(yield func(Instruction, error) bool) {
		t := s.Tokenizer()
		for t.Next() {
			if !yield(t.Instruction(), nil) {
				return
			}
		}
		if err := t.Err(); err != nil {
			yield(Instruction{Opcode: t.Opcode()}, err)
		}
	}
}

// Validate walks the whole script and returns the first parse error.
func (s Script) Validate() error {
	t := s.Tokenizer()
	for t.Next() {
	}
	return t.Err()
}

// IsPushOnly reports whether the script parses and contains only data pushes
// and small-integer opcodes.
func (s Script) IsPushOnly() bool {
	t := s.Tokenizer()
	for t.Next() {
		if t.Opcode() > OP_16 {
			return false
		}
	}
	return t.Err() == nil
}

// PushedData returns every data push in order. Small-integer opcodes are
// not included.
func (s Script) PushedData() ([][]byte, error) {
	var out [][]byte
	t := s.Tokenizer()
	for t.Next() {
		if t.Opcode() <= OP_PUSHDATA4 {
			out = append(out, t.Data())
		}
	}
	return out, t.Err()
}

// WithoutCodeSeparators returns a copy of s with every OP_CODESEPARATOR
// instruction removed. Pushed bytes equal to 0xab are left alone. A script
// that fails to parse is returned unchanged up to the malformed tail.
func (s Script) WithoutCodeSeparators() Script {
	out := make(Script, 0, len(s))
	t := s.Tokenizer()
	start := 0
	for t.Next() {
		if t.Opcode() != OP_CODESEPARATOR {
			out = append(out, s[start:t.Offset()]...)
		}
		start = t.Offset()
	}
	if t.Err() != nil {
		out = append(out, s[start:]...)
	}
	return out
}

// String renders the script in the conventional space-separated assembly
// form. A malformed tail is rendered as "[error]".
func (s Script) String() string {
	var parts []string
	t := s.Tokenizer()
	for t.Next() {
		parts = append(parts, t.Instruction().String())
	}
	if t.Err() != nil {
		parts = append(parts, "[error]")
	}
	return strings.Join(parts, " ")
}

// IsSmallInt reports whether op is OP_0 or OP_1 through OP_16.
func IsSmallInt(op byte) bool {
	return op == OP_0 || (op >= OP_1 && op <= OP_16)
}

// SmallIntValue decodes OP_0..OP_16 to 0..16.
func SmallIntValue(op byte) int {
	if op == OP_0 {
		return 0
	}
	return int(op - (OP_1 - 1))
}

// SmallIntOpcode encodes 0..16 as OP_0..OP_16.
func SmallIntOpcode(n int) (byte, error) {
	switch {
	case n == 0:
		return OP_0, nil
	case n >= 1 && n <= 16:
		return byte(int(OP_1-1) + n), nil
	}
	return 0, fmt.Errorf("script: %d is not a small integer", n)
}
