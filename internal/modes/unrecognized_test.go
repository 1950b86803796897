package modes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnrecognizedMEStatsAddAndTotal(t *testing.T) {
	var s UnrecognizedMEStats
	s.Add(29, 2)
	s.Add(29, 2)
	s.Add(31, 0)

	require.EqualValues(t, 3, s.Total())
	require.ElementsMatch(t, []int{2}, s.ByType()[29])
	require.ElementsMatch(t, []int{0}, s.ByType()[31])
}

func TestUnrecognizedMEStatsDropsOutOfRange(t *testing.T) {
	var s UnrecognizedMEStats
	s.Add(255, 255)
	require.Zero(t, s.Total())
}

func TestDecodeDF17UnrecognizedMETypeIsCounted(t *testing.T) {
	// DF17 ME type 29 (Target State + Status), not interpreted by this
	// decoder but counted the way dump1090's add_unrecognized_ME does.
	raw := make([]byte, LongMsgBytes)
	raw[0] = 17 << 3
	raw[4] = 29 << 3 // ME type 29, subtype 0

	d := &Decoder{Unrecognized: &UnrecognizedMEStats{}}
	d.Decode(raw, LongMsgBits)

	require.EqualValues(t, 1, d.Unrecognized.Total())
	require.ElementsMatch(t, []int{0}, d.Unrecognized.ByType()[29])
}
