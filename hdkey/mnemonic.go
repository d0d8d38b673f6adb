package hdkey

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"dashcore.dev/core/network"
)

// NewMnemonic returns a fresh BIP39 sentence carrying bitSize bits of
// entropy: 128, 160, 192, 224 or 256.
func NewMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return bip39.NewMnemonic(entropy)
}

// SeedFromMnemonic checks the sentence against the English word list and
// its checksum, then stretches it with passphrase into a 64-byte seed.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return seed, nil
}

// NewMasterFromMnemonic is SeedFromMnemonic followed by NewMaster.
func NewMasterFromMnemonic(mnemonic, passphrase string, params *network.Params) (*ExtendedPrivKey, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewMaster(seed, params)
}
