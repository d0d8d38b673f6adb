package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	maxWitnessVersion = 16
	minProgramLen     = 2
	maxProgramLen     = 40
	maxBech32Len      = 90
)

// EncodeSegwit encodes a witness program. Version 0 uses Bech32; later
// versions use Bech32m.
func EncodeSegwit(hrp string, version int, program []byte) (string, error) {
	if err := checkProgram(version, program); err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	data := append([]byte{byte(version)}, conv...)
	var s string
	if version == 0 {
		s, err = bech32.Encode(hrp, data)
	} else {
		s, err = bech32.EncodeM(hrp, data)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return s, nil
}

// DecodeSegwit decodes s, which must carry the human readable part hrp,
// and returns the witness version and program. The checksum variant must
// match the version.
func DecodeSegwit(hrp, s string) (int, []byte, error) {
	if len(s) > maxBech32Len {
		return 0, nil, fmt.Errorf("%w: %d characters", ErrInvalidLength, len(s))
	}
	gotHRP, data, variant, err := bech32.DecodeGeneric(s)
	if err != nil {
		var sumErr bech32.ErrInvalidChecksum
		if errors.As(err, &sumErr) {
			return 0, nil, ErrBadChecksum
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !strings.EqualFold(gotHRP, hrp) {
		return 0, nil, fmt.Errorf("%w: prefix %q, want %q", ErrBadNetwork, gotHRP, hrp)
	}
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: no witness version", ErrInvalidFormat)
	}
	version := int(data[0])
	if version > maxWitnessVersion {
		return 0, nil, fmt.Errorf("%w: %d", ErrUnsupportedWitnessVersion, version)
	}
	switch {
	case version == 0 && variant != bech32.Version0:
		return 0, nil, fmt.Errorf("%w: version 0 requires bech32", ErrBadChecksum)
	case version != 0 && variant != bech32.VersionM:
		return 0, nil, fmt.Errorf("%w: version %d requires bech32m", ErrBadChecksum, version)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := checkProgram(version, program); err != nil {
		return 0, nil, err
	}
	return version, program, nil
}

func checkProgram(version int, program []byte) error {
	if version < 0 || version > maxWitnessVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedWitnessVersion, version)
	}
	if len(program) < minProgramLen || len(program) > maxProgramLen {
		return fmt.Errorf("%w: program of %d bytes", ErrInvalidLength, len(program))
	}
	if version == 0 && len(program) != 20 && len(program) != 32 {
		return fmt.Errorf("%w: version 0 program of %d bytes", ErrInvalidLength, len(program))
	}
	return nil
}
