package modes

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestChecksumMatchesWireCRCForCleanFrame(t *testing.T) {
	msg := mustDecodeHex(t, "8D4B969699155600E87406F5B69F")
	require.Equal(t, wireCRC(msg, LongMsgBits), Checksum(msg, LongMsgBits))
}

func TestFixSingleBitErrorRoundTrip(t *testing.T) {
	clean := mustDecodeHex(t, "8D4B969699155600E87406F5B69F")
	for i := 0; i < LongMsgBits; i++ {
		corrupted := append([]byte(nil), clean...)
		corrupted[i/8] ^= 1 << (7 - uint(i%8))
		require.NotEqual(t, wireCRC(corrupted, LongMsgBits), Checksum(corrupted, LongMsgBits))

		fixed := FixSingleBitError(corrupted, LongMsgBits)
		require.Equal(t, i, fixed)
		require.Equal(t, clean, corrupted)
	}
}

func TestRecoverAPUsesSeenCallback(t *testing.T) {
	msg := mustDecodeHex(t, "8D4B969699155600E87406F5B69F")
	crc := Checksum(msg, LongMsgBits)
	last := LongMsgBits/8 - 1

	wantAddr := uint32(0x4B9696)
	encoded := append([]byte(nil), msg...)
	encoded[last-2] = byte(wantAddr>>16) ^ byte(crc>>16)
	encoded[last-1] = byte(wantAddr>>8) ^ byte(crc>>8)
	encoded[last] = byte(wantAddr) ^ byte(crc)

	addr, ok := RecoverAP(encoded, LongMsgBits, func(a uint32) bool { return a == wantAddr })
	require.True(t, ok)
	require.Equal(t, wantAddr, addr)
}

func TestRecoverAPRejectsUnknownAddress(t *testing.T) {
	msg := mustDecodeHex(t, "8D4B969699155600E87406F5B69F")
	_, ok := RecoverAP(append([]byte(nil), msg...), LongMsgBits, func(uint32) bool { return false })
	require.False(t, ok)
}
