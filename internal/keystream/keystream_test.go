package keystream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/kestrelnet/shroomd/internal/roundkey"
)

func roundTrip(t *testing.T, size int) {
	t.Helper()
	original := bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, size/4+1)[:size]
	data := append([]byte(nil), original...)

	rk := roundkey.RoundKey(0xDEADBEEF)
	require.NoError(t, Apply(Key, rk, data))
	if size > 0 {
		require.NotEqual(t, original, data)
	}
	require.NoError(t, Apply(Key, rk, data))
	require.Equal(t, original, data)
}

func TestRoundTripSmallPayload(t *testing.T) {
	roundTrip(t, 44)
}

func TestRoundTripExactlyFirstFragment(t *testing.T) {
	roundTrip(t, firstFragmentSize)
}

func TestRoundTripSpansMultipleFragments(t *testing.T) {
	roundTrip(t, firstFragmentSize+fragmentSize+500)
}

func TestRoundTripPartialTrailingBlock(t *testing.T) {
	roundTrip(t, 1000)
}

func TestEmptyPayloadIsNoOp(t *testing.T) {
	data := []byte{}
	require.NoError(t, Apply(Key, roundkey.RoundKey(1), data))
	require.Empty(t, data)
}

func TestDifferentRoundKeysProduceDifferentCiphertext(t *testing.T) {
	original := bytes.Repeat([]byte{0xAA}, 100)
	a := append([]byte(nil), original...)
	b := append([]byte(nil), original...)
	require.NoError(t, Apply(Key, roundkey.RoundKey(1), a))
	require.NoError(t, Apply(Key, roundkey.RoundKey(2), b))
	require.NotEqual(t, a, b)
}
