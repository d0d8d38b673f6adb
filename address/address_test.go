package address

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dashcore.dev/core/hashes"
	"dashcore.dev/core/network"
	"dashcore.dev/core/script"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestBase58CheckVectors(t *testing.T) {
	payload := mustHex(t, "751e76e8199196d454941c45d1b3a323f1433bd6")
	cases := []struct {
		name    string
		version byte
		want    string
	}{
		{"bitcoin_p2pkh", 0x00, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{"dash_p2pkh", 76, "XmN7PQYWKn5MJFna5fRYgP6mxT2F7xpekE"},
		{"dash_p2sh", 16, "7d5vJtfDixGnEFRNcVSRarmaCBZeScHACn"},
		{"dash_testnet_p2pkh", 140, "yWziQMcwmKjRdzi7eWjwiQX8EjWcd6dSg6"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := CheckEncode([]byte{tc.version}, payload)
			require.Equal(t, tc.want, s)
			v, p, err := CheckDecode(s, 1)
			require.NoError(t, err)
			require.Equal(t, []byte{tc.version}, v)
			require.Equal(t, payload, p)
		})
	}
}

func TestBase58CheckEverySingleCharFlipFails(t *testing.T) {
	s := "XmN7PQYWKn5MJFna5fRYgP6mxT2F7xpekE"
	for i := range s {
		orig := strings.IndexByte(base58Alphabet, s[i])
		repl := base58Alphabet[(orig+1)%len(base58Alphabet)]
		flipped := s[:i] + string(repl) + s[i+1:]
		_, _, err := CheckDecode(flipped, 1)
		require.ErrorIsf(t, err, ErrBadChecksum, "position %d", i)
	}
}

func TestBase58CheckRejects(t *testing.T) {
	_, _, err := CheckDecode("", 1)
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, _, err = CheckDecode("0OIl", 1)
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, _, err = CheckDecode("1111", 1)
	require.ErrorIs(t, err, ErrInvalidLength)
	_, _, err = CheckDecode(CheckEncode([]byte{1, 2}, nil), 4)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestDecodeDashAddresses(t *testing.T) {
	hash := hashes.PubkeyHash(mustHex(t, "751e76e8199196d454941c45d1b3a323f1433bd6"))

	a, err := Decode("XmN7PQYWKn5MJFna5fRYgP6mxT2F7xpekE", &network.MainNetParams)
	require.NoError(t, err)
	pkh, ok := a.(*PubKeyHashAddress)
	require.True(t, ok)
	require.Equal(t, hash, pkh.Hash160())
	require.Equal(t, "76a914751e76e8199196d454941c45d1b3a323f1433bd688ac", a.ScriptPubKey().Hex())
	require.Equal(t, &network.MainNetParams, a.Params())

	a, err = Decode("7d5vJtfDixGnEFRNcVSRarmaCBZeScHACn", &network.MainNetParams)
	require.NoError(t, err)
	require.IsType(t, &ScriptHashAddress{}, a)
	require.Equal(t, script.ScriptHashTy, script.Classify(a.ScriptPubKey()))

	_, err = Decode("XmN7PQYWKn5MJFna5fRYgP6mxT2F7xpekE", &network.TestNetParams)
	require.ErrorIs(t, err, ErrBadNetwork)
	_, err = Decode("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", &network.MainNetParams)
	require.ErrorIs(t, err, ErrBadNetwork)
	_, err = Decode(CheckEncode([]byte{76}, make([]byte, 21)), &network.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestAddressRoundTrip(t *testing.T) {
	for _, params := range []*network.Params{&network.MainNetParams, &network.TestNetParams, &network.BitcoinMainNetParams} {
		t.Run(params.Name, func(t *testing.T) {
			var h [20]byte
			for i := range h {
				h[i] = byte(i * 7)
			}
			addrs := []Address{
				NewPubKeyHashAddress(h, params),
				NewScriptHashAddress(h, params),
			}
			if params.SupportsSegwit() {
				w, err := NewWitnessAddress(0, h[:], params)
				require.NoError(t, err)
				addrs = append(addrs, w)
			}
			for _, a := range addrs {
				back, err := Decode(a.String(), params)
				require.NoError(t, err)
				require.Equal(t, a, back)

				fromScript, err := FromScript(a.ScriptPubKey(), params)
				require.NoError(t, err)
				require.Equal(t, a.String(), fromScript.String())
			}
		})
	}
}

func TestNewAddressFromPubKey(t *testing.T) {
	pub := mustHex(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	a, err := NewAddressFromPubKey(pub, &network.BitcoinMainNetParams)
	require.NoError(t, err)
	require.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", a.String())

	_, err = NewAddressFromPubKey(pub[:32], &network.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidLength)
	_, err = NewAddressFromPubKey(append([]byte{0x05}, pub[1:]...), &network.MainNetParams)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestFromScriptUnsupported(t *testing.T) {
	_, err := FromScript(script.Script{script.OP_RETURN}, &network.MainNetParams)
	require.ErrorIs(t, err, ErrUnsupported)

	p2wpkh := script.Script(mustHex(t, "0014751e76e8199196d454941c45d1b3a323f1433bd6"))
	_, err = FromScript(p2wpkh, &network.MainNetParams)
	require.ErrorIs(t, err, ErrUnsupported)

	a, err := FromScript(p2wpkh, &network.BitcoinMainNetParams)
	require.NoError(t, err)
	require.Equal(t, "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", a.String())
}
