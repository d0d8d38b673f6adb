package hdkey

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"dashcore.dev/core/network"
)

var mainnet = &network.MainNetParams

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// BIP32 test vector 1.
var vector1 = []struct {
	path string
	pub  string
	priv string
}{
	{"m",
		"xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
		"xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"},
	{"m/0'",
		"xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw",
		"xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7"},
	{"m/0'/1",
		"xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
		"xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs"},
	{"m/0'/1/2'",
		"xpub6D4BDPcP2GT577Vvch3R8wDkScZWzQzMMUm3PWbmWvVJrZwQY4VUNgqFJPMM3No2dFDFGTsxxpG5uJh7n7epu4trkrX7x7DogT5Uv6fcLW5",
		"xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptWmT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM"},
	{"m/0'/1/2'/2",
		"xpub6FHa3pjLCk84BayeJxFW2SP4XRrFd1JYnxeLeU8EqN3vDfZmbqBqaGJAyiLjTAwm6ZLRQUMv1ZACTj37sR62cfN7fe5JnJ7dh8zL4fiyLHV",
		"xprvA2JDeKCSNNZky6uBCviVfJSKyQ1mDYahRjijr5idH2WwLsEd4Hsb2Tyh8RfQMuPh7f7RtyzTtdrbdqqsunu5Mm3wDvUAKRHSC34sJ7in334"},
	{"m/0'/1/2'/2/1000000000",
		"xpub6H1LXWLaKsWFhvm6RVpEL9P4KfRZSW7abD2ttkWP3SSQvnyA8FSVqNTEcYFgJS2UaFcxupHiYkro49S8yGasTvXEYBVPamhGW6cFJodrTHy",
		"xprvA41z7zogVVwxVSgdKUHDy1SKmdb533PjDz7J6N6mV6uS3ze1ai8FHa8kmHScGpWmj4WggLyQjgPie1rFSruoUihUZREPSL39UNdE3BBDu76"},
}

func vector1Master(t *testing.T) *ExtendedPrivKey {
	t.Helper()
	m, err := NewMaster(mustHex(t, "000102030405060708090a0b0c0d0e0f"), mainnet)
	require.NoError(t, err)
	return m
}

func TestVector1(t *testing.T) {
	master := vector1Master(t)
	require.Equal(t, "e8f32e723decf4051aefac8e2c93c9c5b214313817cdb01a1494b917c8436b35", hex.EncodeToString(master.PrivKey()))
	require.Equal(t, "873dff81c02f525623fd1fe5167eac3a55a049de3d314bb42ee227ffed37d508", hex.EncodeToString(master.ChainCode[:]))
	require.Equal(t, [4]byte{0x34, 0x42, 0x19, 0x3e}, master.Fingerprint())

	for _, tc := range vector1 {
		t.Run(tc.path, func(t *testing.T) {
			path, err := ParsePath(tc.path)
			require.NoError(t, err)
			k, err := master.Derive(path)
			require.NoError(t, err)
			require.Equal(t, tc.priv, k.String())
			require.Equal(t, tc.pub, k.Neuter().String())
			require.Len(t, k.Serialize(), SerializedKeyLen)
			require.Len(t, k.Neuter().Serialize(), SerializedKeyLen)
			require.Equal(t, uint8(len(path)), k.Depth)

			parsed, err := ParsePrivate(tc.priv, mainnet)
			require.NoError(t, err)
			require.Equal(t, k, parsed)

			pub, err := ParsePublic(tc.pub, mainnet)
			require.NoError(t, err)
			require.Equal(t, k.Neuter(), pub)
		})
	}
}

func TestVector1PublicDerivation(t *testing.T) {
	// Non-hardened steps can be taken from the public parent alone.
	steps := []struct {
		parent int
		index  uint32
	}{
		{1, 1},
		{3, 2},
		{4, 1000000000},
	}
	for _, st := range steps {
		parent, err := ParsePublic(vector1[st.parent].pub, mainnet)
		require.NoError(t, err)
		child, err := parent.Child(st.index)
		require.NoError(t, err)
		require.Equal(t, vector1[st.parent+1].pub, child.String())
		require.NoError(t, CheckParent(child, parent))
	}
}

func TestCheckParent(t *testing.T) {
	master := vector1Master(t)
	child, err := master.Child(Hardened(0))
	require.NoError(t, err)
	require.NoError(t, CheckParent(child, master))
	require.NoError(t, CheckParent(child.Neuter(), master.Neuter()))

	grandchild, err := child.Child(1)
	require.NoError(t, err)
	require.ErrorIs(t, CheckParent(grandchild, master), ErrParentMismatch)
}

func TestDerivationIsDeterministic(t *testing.T) {
	seed := mustHex(t, "fffcf9f6f3f0edeae7e4e1dedbd8d5d2cfccc9c6c3c0bdbab7b4b1aeaba8a5a29f9c999693908d8a8784817e7b7875726f6c696663605d5a5754514e4b484542")
	path := DerivationPath{0, Hardened(2147483647), 1, Hardened(2147483646), 2}

	a, err := NewMaster(seed, mainnet)
	require.NoError(t, err)
	b, err := NewMaster(seed, mainnet)
	require.NoError(t, err)
	ka, err := a.Derive(path)
	require.NoError(t, err)
	kb, err := b.Derive(path)
	require.NoError(t, err)
	require.Equal(t, ka.PrivKey(), kb.PrivKey())
	require.Equal(t, ka.ChainCode, kb.ChainCode)
	require.Equal(t, ka.String(), kb.String())
}

func TestHardenedFromPublic(t *testing.T) {
	pub := vector1Master(t).Neuter()
	_, err := pub.Child(Hardened(0))
	require.ErrorIs(t, err, ErrHardenedFromPublic)

	_, err = pub.Derive(DerivationPath{0, Hardened(1)})
	require.ErrorIs(t, err, ErrHardenedFromPublic)
}

func TestNewMasterSeedLength(t *testing.T) {
	for _, n := range []int{0, 15, 65} {
		_, err := NewMaster(make([]byte, n), mainnet)
		require.ErrorIs(t, err, ErrInvalidSeedLen)
	}
	for _, n := range []int{MinSeedBytes, RecommendedSeedLen, MaxSeedBytes} {
		_, err := NewMaster(make([]byte, n), mainnet)
		require.NoError(t, err)
	}
}

func TestDepthExceeded(t *testing.T) {
	k := vector1Master(t)
	k.Depth = maxDepth
	_, err := k.Child(0)
	require.ErrorIs(t, err, ErrDepthExceeded)
	_, err = k.Neuter().Child(0)
	require.ErrorIs(t, err, ErrDepthExceeded)
}

func TestParseVector5(t *testing.T) {
	cases := []struct {
		name string
		key  string
		want error
	}{
		{"pub_version_with_private_data", "xpub661MyMwAqRbcEYS8w7XLSVeEsBXy79zSzH1J8vCdxAZningWLdN3zgtU6LBpB85b3D2yc8sfvZU521AAwdZafEz7mnzBBsz4wKY5fTtTQBm", ErrInvalidKeyData},
		{"priv_version_with_public_data", "xprv9s21ZrQH143K24Mfq5zL5MhWK9hUhhGbd45hLXo2Pq2oqzMMo63oStZzFGTQQD3dC4H2D5GBj7vWvSQaaBv5cxi9gafk7NF3pnBju6dwKvH", ErrInvalidKeyData},
		{"pub_prefix_04", "xpub661MyMwAqRbcEYS8w7XLSVeEsBXy79zSzH1J8vCdxAZningWLdN3zgtU6Txnt3siSujt9RCVYsx4qHZGc62TG4McvMGcAUjeuwZdduYEvFn", ErrInvalidKeyData},
		{"priv_prefix_04", "xprv9s21ZrQH143K24Mfq5zL5MhWK9hUhhGbd45hLXo2Pq2oqzMMo63oStZzFGpWnsj83BHtEy5Zt8CcDr1UiRXuWCmTQLxEK9vbz5gPstX92JQ", ErrInvalidKeyData},
		{"pub_prefix_01", "xpub661MyMwAqRbcEYS8w7XLSVeEsBXy79zSzH1J8vCdxAZningWLdN3zgtU6N8ZMMXctdiCjxTNq964yKkwrkBJJwpzZS4HS2fxvyYUA4q2Xe4", ErrInvalidKeyData},
		{"priv_prefix_01", "xprv9s21ZrQH143K24Mfq5zL5MhWK9hUhhGbd45hLXo2Pq2oqzMMo63oStZzFAzHGBP2UuGCqWLTAPLcMtD9y5gkZ6Eq3Rjuahrv17fEQ3Qen6J", ErrInvalidKeyData},
		{"priv_depth0_parent_fp", "xprv9s2SPatNQ9Vc6GTbVMFPFo7jsaZySyzk7L8n2uqKXJen3KUmvQNTuLh3fhZMBoG3G4ZW1N2kZuHEPY53qmbZzCHshoQnNf4GvELZfqTUrcv", ErrInvalidKeyData},
		{"pub_depth0_parent_fp", "xpub661no6RGEX3uJkY4bNnPcw4URcQTrSibUZ4NqJEw5eBkv7ovTwgiT91XX27VbEXGENhYRCf7hyEbWrR3FewATdCEebj6znwMfQkhRYHRLpJ", ErrInvalidKeyData},
		{"priv_depth0_index", "xprv9s21ZrQH4r4TsiLvyLXqM9P7k1K3EYhA1kkD6xuquB5i39AU8KF42acDyL3qsDbU9NmZn6MsGSUYZEsuoePmjzsB3eFKSUEh3Gu1N3cqVUN", ErrInvalidKeyData},
		{"pub_depth0_index", "xpub661MyMwAuDcm6CRQ5N4qiHKrJ39Xe1R1NyfouMKTTWcguwVcfrZJaNvhpebzGerh7gucBvzEQWRugZDuDXjNDRmXzSZe4c7mnTK97pTvGS8", ErrInvalidKeyData},
		{"unknown_version_priv", "DMwo58pR1QLEFihHiXPVykYB6fJmsTeHvyTp7hRThAtCX8CvYzgPcn8XnmdfHGMQzT7ayAmfo4z3gY5KfbrZWZ6St24UVf2Qgo6oujFktLHdHY4", ErrBadNetwork},
		{"unknown_version_pub", "DMwo58pR1QLEFihHiXPVykYB6fJmsTeHvyTp7hRThAtCX8CvYzgPcn8XnmdfHPmHJiEDXkTiJTVV9rHEBUem2mwVbbNfvT2MTcAqj3nesx8uBf9", ErrBadNetwork},
		{"priv_zero", "xprv9s21ZrQH143K24Mfq5zL5MhWK9hUhhGbd45hLXo2Pq2oqzMMo63oStZzF93Y5wvzdUayhgkkFoicQZcP3y52uPPxFnfoLZB21Teqt1VvEHx", ErrInvalidKeyData},
		{"priv_order", "xprv9s21ZrQH143K24Mfq5zL5MhWK9hUhhGbd45hLXo2Pq2oqzMMo63oStZzFAzHGBP2UuGCqWLTAPLcMtD5SDKr24z3aiUvKr9bJpdrcLg1y3G", ErrInvalidKeyData},
		{"pub_not_on_curve", "xpub661MyMwAqRbcEYS8w7XLSVeEsBXy79zSzH1J8vCdxAZningWLdN3zgtU6Q5JXayek4PRsn35jii4veMimro1xefsM58PgBMrvdYre8QyULY", ErrInvalidKeyData},
		{"bad_checksum", "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHL", ErrBadChecksum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.key, mainnet)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseWrongNetworkAndVariant(t *testing.T) {
	_, err := Parse(vector1[0].priv, &network.TestNetParams)
	require.ErrorIs(t, err, ErrBadNetwork)

	_, err = ParsePublic(vector1[0].priv, mainnet)
	require.ErrorIs(t, err, ErrInvalidKeyData)
	_, err = ParsePrivate(vector1[0].pub, mainnet)
	require.ErrorIs(t, err, ErrInvalidKeyData)

	master := vector1Master(t)
	master.Params = &network.TestNetParams
	back, err := Parse(master.String(), &network.TestNetParams)
	require.NoError(t, err)
	require.True(t, back.IsPrivate())
	require.Equal(t, master.Neuter().String(), back.Public().String())
}
