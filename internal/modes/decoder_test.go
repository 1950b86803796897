package modes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeDF17VelocityFrame(t *testing.T) {
	raw := mustDecodeHex(t, "8D4B969699155600E87406F5B69F")
	d := &Decoder{}

	m := d.Decode(raw, MessageLenBits(raw[0]>>3))

	require.EqualValues(t, 17, m.DF)
	require.Equal(t, uint32(0x4B9696), m.ICAOAddr())
	require.True(t, m.CRCOK)
	require.Equal(t, -1, m.ErrorBit)
	require.EqualValues(t, 19, m.METype)
	require.EqualValues(t, 1, m.MESubtype)
	require.True(t, m.HeadingValid)
	require.Greater(t, m.Velocity, 0.0)
}

func TestDecodeCallsignFrame(t *testing.T) {
	// DF17 ME type 4 (aircraft identification/category) with an all-zero
	// character field, so every flight character is aisCharset[0].
	raw := make([]byte, LongMsgBytes)
	raw[0] = 17 << 3
	raw[4] = 4 << 3 // ME type 4, subtype 0

	d := &Decoder{}
	m := d.Decode(raw, LongMsgBits)

	require.EqualValues(t, 4, m.METype)
	require.Equal(t, 3, m.AircraftType)
	for _, c := range m.Flight {
		require.Contains(t, aisCharset, string(c))
	}
}

func TestDecodeAC13FeetEncoding(t *testing.T) {
	var unit AltitudeUnit
	msg := mustDecodeHex(t, "A8001000000000000000000000")
	alt := decodeAC13(msg, &unit)
	require.Equal(t, UnitFeet, unit)
	require.GreaterOrEqual(t, alt, 0)
}

func TestDecodeAC13MetersIsReservedZero(t *testing.T) {
	var unit AltitudeUnit
	msg := make([]byte, LongMsgBytes)
	msg[3] = 1 << 6 // M bit set
	alt := decodeAC13(msg, &unit)
	require.Equal(t, UnitMeters, unit)
	require.Equal(t, 0, alt)
}

func TestDecodeSquawkInterleavedDigits(t *testing.T) {
	// Squawk 7700: octal digits a=7 b=7 c=0 d=0.
	msg := make([]byte, ShortMsgBytes)
	// a bits -> msg[3]0x80, msg[2]0x02, msg[2]0x08
	msg[3] |= 0x80
	msg[2] |= 0x02 | 0x08
	// b bits -> msg[3]0x02, msg[3]0x08, msg[3]0x20
	msg[3] |= 0x02 | 0x08 | 0x20
	got := decodeSquawk(msg)
	require.Equal(t, 7700, got)
}

func TestRecoverAPFailsClosedWithoutSeenCallback(t *testing.T) {
	raw := mustDecodeHex(t, "8D4B969699155600E87406F5B69F")
	raw[0] = 0 << 3 // DF0, not DF11/17: requires AP recovery

	d := &Decoder{} // no Seen hook wired
	m := d.Decode(raw, MessageLenBits(raw[0]>>3))
	require.False(t, m.CRCOK)
}
