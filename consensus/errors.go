package consensus

import "fmt"

type ErrorCode string

const (
	ERR_UNEXPECTED_EOF      ErrorCode = "ERR_UNEXPECTED_EOF"
	ERR_NON_MINIMAL_VARINT  ErrorCode = "ERR_NON_MINIMAL_VARINT"
	ERR_OVERSIZED           ErrorCode = "ERR_OVERSIZED"
	ERR_TRAILING_BYTES      ErrorCode = "ERR_TRAILING_BYTES"
	ERR_BAD_WITNESS_FLAG    ErrorCode = "ERR_BAD_WITNESS_FLAG"
	ERR_SUPERFLUOUS_WITNESS ErrorCode = "ERR_SUPERFLUOUS_WITNESS"
	ERR_BAD_PAYLOAD         ErrorCode = "ERR_BAD_PAYLOAD"

	ERR_INDEX_OUT_OF_RANGE ErrorCode = "ERR_INDEX_OUT_OF_RANGE"
	ERR_BAD_SIGHASH        ErrorCode = "ERR_BAD_SIGHASH"
	ERR_MISSING_PREVOUTS   ErrorCode = "ERR_MISSING_PREVOUTS"
	ERR_SIG_INVALID        ErrorCode = "ERR_SIG_INVALID"
	ERR_SCRIPT_MISMATCH    ErrorCode = "ERR_SCRIPT_MISMATCH"

	ERR_MERKLE_EMPTY    ErrorCode = "ERR_MERKLE_EMPTY"
	ERR_MERKLE_MISMATCH ErrorCode = "ERR_MERKLE_MISMATCH"
	ERR_TARGET_INVALID  ErrorCode = "ERR_TARGET_INVALID"
)

// Sentinels for errors.Is; they match any *Error carrying the same code.
var (
	ErrUnexpectedEOF      = &Error{Code: ERR_UNEXPECTED_EOF}
	ErrNonMinimalVarInt   = &Error{Code: ERR_NON_MINIMAL_VARINT}
	ErrOversized          = &Error{Code: ERR_OVERSIZED}
	ErrTrailingBytes      = &Error{Code: ERR_TRAILING_BYTES}
	ErrBadWitnessFlag     = &Error{Code: ERR_BAD_WITNESS_FLAG}
	ErrSuperfluousWitness = &Error{Code: ERR_SUPERFLUOUS_WITNESS}
	ErrBadPayload         = &Error{Code: ERR_BAD_PAYLOAD}
	ErrIndexOutOfRange    = &Error{Code: ERR_INDEX_OUT_OF_RANGE}
	ErrBadSighash         = &Error{Code: ERR_BAD_SIGHASH}
	ErrMissingPrevouts    = &Error{Code: ERR_MISSING_PREVOUTS}
	ErrSigInvalid         = &Error{Code: ERR_SIG_INVALID}
	ErrScriptMismatch     = &Error{Code: ERR_SCRIPT_MISMATCH}
	ErrMerkleEmpty        = &Error{Code: ERR_MERKLE_EMPTY}
	ErrMerkleMismatch     = &Error{Code: ERR_MERKLE_MISMATCH}
	ErrTargetInvalid      = &Error{Code: ERR_TARGET_INVALID}
)

type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// IsDecodeError reports whether code belongs to the malformed-input class.
func (c ErrorCode) IsDecodeError() bool {
	switch c {
	case ERR_UNEXPECTED_EOF, ERR_NON_MINIMAL_VARINT, ERR_OVERSIZED, ERR_TRAILING_BYTES,
		ERR_BAD_WITNESS_FLAG, ERR_SUPERFLUOUS_WITNESS, ERR_BAD_PAYLOAD:
		return true
	}
	return false
}

func txerr(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}

func txerrf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}
