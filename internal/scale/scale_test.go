package scale

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactEncode(t *testing.T) {
	cases := []struct {
		value    uint64
		expected string
	}{
		{0, "00"},
		{1, "04"},
		{42, "a8"},
		{63, "fc"},
		{64, "0101"},
		{16383, "fdff"},
		{16384, "02000100"},
		{1073741824, "0300000040"},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, hex.EncodeToString(CompactEncode(c.value)), "value %d", c.value)
	}
}

func TestCompactRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 63, 64, 16383, 16384, 1<<30 - 1, 1 << 30, 1 << 40, 1<<62 + 7} {
		encoded := CompactEncode(v)
		decoded, n, err := CompactDecode(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
		assert.Equal(t, len(encoded), n)
	}
}

func TestCompactDecodeTruncated(t *testing.T) {
	_, _, err := CompactDecode(nil)
	assert.Error(t, err)

	_, _, err = CompactDecode([]byte{0x01})
	assert.Error(t, err)
}

func TestU128RoundTrip(t *testing.T) {
	v, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128-1
	require.True(t, ok)

	decoded, err := DecodeU128(EncodeU128(v))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(decoded))

	small := big.NewInt(95)
	decoded, err = DecodeU128(EncodeU128(small))
	require.NoError(t, err)
	assert.Equal(t, int64(95), decoded.Int64())
}

func TestTwox128KnownVectors(t *testing.T) {
	// The Sudo.Key storage prefix is a fixture every substrate tool agrees on.
	assert.Equal(t, "5c0d1176a568c1f92944340dbfed9e9c", hex.EncodeToString(Twox128([]byte("Sudo"))))
	assert.Equal(t, "530ebca703c85910e7164cb7d1c9e47b", hex.EncodeToString(Twox128([]byte("Key"))))
}

func TestTwox64ConcatAppendsRawKey(t *testing.T) {
	key := []byte{0xde, 0xad, 0xbe, 0xef}
	out := Twox64Concat(key)
	require.Len(t, out, 12)
	assert.Equal(t, key, out[8:])
}

func TestBlake2b128ConcatAppendsRawKey(t *testing.T) {
	key := make([]byte, 32)
	out := Blake2b128Concat(key)
	require.Len(t, out, 48)
	assert.Equal(t, key, out[16:])
}

func TestSS58RoundTrip(t *testing.T) {
	pubkey, err := hex.DecodeString("d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
	require.NoError(t, err)

	address, err := SS58Encode(pubkey, 42)
	require.NoError(t, err)
	assert.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", address)

	decoded, err := SS58Decode(address)
	require.NoError(t, err)
	assert.Equal(t, pubkey, decoded)
}

func TestSS58DecodeRejectsGarbage(t *testing.T) {
	_, err := SS58Decode("not-an-address")
	assert.Error(t, err)

	_, err = SS58Decode("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQZ")
	assert.Error(t, err)
}

func TestSS58EncodeRejectsShortAccount(t *testing.T) {
	_, err := SS58Encode([]byte{1, 2, 3}, 63)
	assert.Error(t, err)
}

func TestCallHashDeterministic(t *testing.T) {
	call := []byte{0x1d, 0x00, 0x04, 0x2a}
	assert.Equal(t, CallHash(call), CallHash(call))
	assert.NotEqual(t, CallHash(call), CallHash(append(call, 0x00)))
}
