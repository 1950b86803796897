package demod

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go1090/internal/modes"
)

func TestScanSilenceProducesNoFrames(t *testing.T) {
	d := &Demodulator{}
	n := 2 * (modes.PreambleUS + modes.LongMsgBits) * 4
	m := make([]uint16, n)
	for i := range m {
		m[i] = 127
	}

	frames := d.Scan(m)
	require.Empty(t, frames)
}

func TestScanRejectsTooShortBuffer(t *testing.T) {
	d := &Demodulator{}
	frames := d.Scan(make([]uint16, 10))
	require.Empty(t, frames)
}

func TestHasPreambleRejectsFlatSignal(t *testing.T) {
	m := make([]uint16, 20)
	require.False(t, hasPreamble(m, 0))
}

func TestHasPreambleAcceptsCanonicalShape(t *testing.T) {
	// A hand-built preamble matching every inequality in the gate, with
	// the surrounding dead zones held well below the high-spike average.
	m := []uint16{
		2000, 100, 2000, 100, // spikes at 0,2; low at 1,3
		50, 50, 50, // below high between spikes
		2000, 100, 2000, // spikes at 7,9; low at 8
		50, 50, 50, 50, 50, // indices 10-14, dead zone 11-14
	}
	require.True(t, hasPreamble(m, 0))
}

func TestDetectOutOfPhaseZeroWhenInPhase(t *testing.T) {
	// Constructed so every one of the four ratio checks in
	// detectOutOfPhase comes out false: indices 4, 7, 11 (the "at(3)",
	// "at(6)", "at(10)" probes) are well under a third of their paired
	// high sample, and m[j-1] is well under a third of m[j+1].
	m := []uint16{50, 300, 300, 300, 50, 300, 300, 50, 300, 300, 300, 50}
	require.Equal(t, 0, detectOutOfPhase(m, 1))
}
