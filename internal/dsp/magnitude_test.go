package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMagnitudeLUTMatchesFormula(t *testing.T) {
	lut := NewMagnitudeLUT()
	for i := 0; i < TableSize; i++ {
		for q := 0; q < TableSize; q++ {
			want := uint16(math.Round(360 * math.Sqrt(float64(i*i+q*q))))
			got := lut[i*TableSize+q]
			require.Equalf(t, want, got, "i=%d q=%d", i, q)
		}
	}
}

func TestLookupFoldsHalfAxes(t *testing.T) {
	lut := NewMagnitudeLUT()

	// 127 +/- d must fold to the same magnitude.
	require.Equal(t, lut.Lookup(127, 127), lut.Lookup(127, 127))
	require.Equal(t, lut.Lookup(100, 127), lut.Lookup(154, 127))
	require.Equal(t, lut.Lookup(127, 0), lut.Lookup(127, 254))
}

func TestMagnitudeConvertsInterleavedBuffer(t *testing.T) {
	lut := NewMagnitudeLUT()
	iq := []byte{127, 127, 0, 0, 255, 255}
	mags := lut.Magnitude(iq, nil)
	require.Len(t, mags, 3)
	require.Equal(t, lut.Lookup(127, 127), mags[0])
	require.Equal(t, lut.Lookup(0, 0), mags[1])
	require.Equal(t, lut.Lookup(255, 255), mags[2])
}

func TestMagnitudeReusesDestinationBuffer(t *testing.T) {
	lut := NewMagnitudeLUT()
	dst := make([]uint16, 0, 4)
	iq := []byte{1, 2, 3, 4}
	out := lut.Magnitude(iq, dst)
	require.Len(t, out, 2)
}
