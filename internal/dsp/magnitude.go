// Package dsp holds the fixed-point signal processing building blocks
// shared by the demodulator: the I/Q-to-magnitude lookup table.
package dsp

import "math"

// TableSize is the width of one axis of the magnitude lookup table.
// I and Q each range over [0, 128] inclusive after folding onto the
// positive half-axis, hence 129 entries per axis.
const TableSize = 129

// MagnitudeLUT is a precomputed 129x129 table mapping a folded (|I-127|,
// |Q-127|) pair to a scaled magnitude. Index is I*TableSize+Q.
type MagnitudeLUT []uint16

// NewMagnitudeLUT builds the table once at startup: entry[i*129+q] =
// round(360 * sqrt(i^2 + q^2)). The 360x scale keeps distinct I/Q pairs
// mapped to distinct uint16 magnitudes.
func NewMagnitudeLUT() MagnitudeLUT {
	lut := make(MagnitudeLUT, TableSize*TableSize)
	for i := 0; i < TableSize; i++ {
		for q := 0; q < TableSize; q++ {
			mag := 360.0 * math.Sqrt(float64(i*i+q*q))
			lut[i*TableSize+q] = uint16(math.Round(mag))
		}
	}
	return lut
}

// Lookup returns the magnitude for a raw unsigned 8-bit I/Q pair,
// folding both components onto [0,128] before indexing.
func (lut MagnitudeLUT) Lookup(i, q uint8) uint16 {
	fi := foldAxis(i)
	fq := foldAxis(q)
	return lut[int(fi)*TableSize+int(fq)]
}

func foldAxis(v uint8) int {
	d := int(v) - 127
	if d < 0 {
		d = -d
	}
	return d
}

// Magnitude converts an interleaved I/Q byte buffer into a magnitude
// vector of half its length, reusing dst when it is already the right
// size to avoid reallocating on every sample window fill.
func (lut MagnitudeLUT) Magnitude(iq []byte, dst []uint16) []uint16 {
	n := len(iq) / 2
	if cap(dst) < n {
		dst = make([]uint16, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = lut.Lookup(iq[2*i], iq[2*i+1])
	}
	return dst
}
