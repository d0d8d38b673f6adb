// Package network defines the immutable per-network constants used by the
// encoders: address and key version bytes, Bech32 prefixes and BIP32/BIP44
// identifiers. Every encode and decode call takes a *Params explicitly.
package network

import (
	"fmt"
	"sort"
)

// Network discriminates the chains a Params value describes.
type Network uint8

const (
	DashMainnet Network = iota
	DashTestnet
	DashDevnet
	DashRegtest
	BitcoinMainnet
	BitcoinTestnet
)

func (n Network) String() string {
	switch n {
	case DashMainnet:
		return "dash"
	case DashTestnet:
		return "testnet"
	case DashDevnet:
		return "devnet"
	case DashRegtest:
		return "regtest"
	case BitcoinMainnet:
		return "bitcoin"
	case BitcoinTestnet:
		return "bitcoin-testnet"
	}
	return fmt.Sprintf("Network(%d)", uint8(n))
}

// Params holds the encoding constants of one network. Values are shared
// read-only; do not mutate the package-level instances.
type Params struct {
	Name string
	Net  Network

	// Base58Check version bytes.
	PubKeyHashAddrID byte
	ScriptHashAddrID byte
	PrivateKeyID     byte // WIF

	// BIP32 extended key versions, big endian as serialized.
	HDPrivateKeyID [4]byte
	HDPublicKeyID  [4]byte

	// Human readable part of segwit addresses. Empty when the network has
	// no segwit address format.
	Bech32HRP string

	// BIP44 coin type.
	HDCoinType uint32

	DefaultPort uint16
	GenesisHash string
}

// IsTestnet reports whether the network uses test coins.
func (p *Params) IsTestnet() bool {
	return p.Net != DashMainnet && p.Net != BitcoinMainnet
}

// SupportsSegwit reports whether the network defines a Bech32 prefix.
func (p *Params) SupportsSegwit() bool {
	return p.Bech32HRP != ""
}

func (p *Params) String() string { return p.Name }

var (
	dashMainHDPriv = [4]byte{0x04, 0x88, 0xad, 0xe4} // xprv
	dashMainHDPub  = [4]byte{0x04, 0x88, 0xb2, 0x1e} // xpub
	dashTestHDPriv = [4]byte{0x04, 0x35, 0x83, 0x94} // tprv
	dashTestHDPub  = [4]byte{0x04, 0x35, 0x87, 0xcf} // tpub
)

var MainNetParams = Params{
	Name:             "dash",
	Net:              DashMainnet,
	PubKeyHashAddrID: 76, // X
	ScriptHashAddrID: 16, // 7
	PrivateKeyID:     204,
	HDPrivateKeyID:   dashMainHDPriv,
	HDPublicKeyID:    dashMainHDPub,
	HDCoinType:       5,
	DefaultPort:      9999,
	GenesisHash:      "00000ffd590b1485b3caadc19b22e6379c733355108f107a430458cdf3407ab6",
}

var TestNetParams = Params{
	Name:             "testnet",
	Net:              DashTestnet,
	PubKeyHashAddrID: 140, // y
	ScriptHashAddrID: 19,  // 8 or 9
	PrivateKeyID:     239,
	HDPrivateKeyID:   dashTestHDPriv,
	HDPublicKeyID:    dashTestHDPub,
	HDCoinType:       1,
	DefaultPort:      19999,
	GenesisHash:      "00000bafbc94add76cb75e2ec92894837288a481e5c005f6563d91623bf8bc2c",
}

// DevNetParams has no fixed genesis; each devnet mines its own.
var DevNetParams = Params{
	Name:             "devnet",
	Net:              DashDevnet,
	PubKeyHashAddrID: 140,
	ScriptHashAddrID: 19,
	PrivateKeyID:     239,
	HDPrivateKeyID:   dashTestHDPriv,
	HDPublicKeyID:    dashTestHDPub,
	HDCoinType:       1,
	DefaultPort:      19799,
}

var RegressionNetParams = Params{
	Name:             "regtest",
	Net:              DashRegtest,
	PubKeyHashAddrID: 140,
	ScriptHashAddrID: 19,
	PrivateKeyID:     239,
	HDPrivateKeyID:   dashTestHDPriv,
	HDPublicKeyID:    dashTestHDPub,
	HDCoinType:       1,
	DefaultPort:      19899,
	GenesisHash:      "000008ca1832a4baf228eb1553c03d3a2c8e02399550dd6ea8d65cec3ef23d2e",
}

var BitcoinMainNetParams = Params{
	Name:             "bitcoin",
	Net:              BitcoinMainnet,
	PubKeyHashAddrID: 0x00,
	ScriptHashAddrID: 0x05,
	PrivateKeyID:     0x80,
	HDPrivateKeyID:   dashMainHDPriv,
	HDPublicKeyID:    dashMainHDPub,
	Bech32HRP:        "bc",
	HDCoinType:       0,
	DefaultPort:      8333,
	GenesisHash:      "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
}

var BitcoinTestNetParams = Params{
	Name:             "bitcoin-testnet",
	Net:              BitcoinTestnet,
	PubKeyHashAddrID: 0x6f,
	ScriptHashAddrID: 0xc4,
	PrivateKeyID:     0xef,
	HDPrivateKeyID:   dashTestHDPriv,
	HDPublicKeyID:    dashTestHDPub,
	Bech32HRP:        "tb",
	HDCoinType:       1,
	DefaultPort:      18333,
	GenesisHash:      "000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943",
}

var registry = map[string]*Params{
	MainNetParams.Name:        &MainNetParams,
	TestNetParams.Name:        &TestNetParams,
	DevNetParams.Name:         &DevNetParams,
	RegressionNetParams.Name:  &RegressionNetParams,
	BitcoinMainNetParams.Name: &BitcoinMainNetParams,
	BitcoinTestNetParams.Name: &BitcoinTestNetParams,
}

// ByName looks up one of the built-in networks.
func ByName(name string) (*Params, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("network: unknown network %q (known: %v)", name, Names())
	}
	return p, nil
}

// Names lists the built-in network names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
