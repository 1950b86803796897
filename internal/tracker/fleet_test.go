package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go1090/internal/modes"
)

func frame(df uint8, addr uint32) *modes.Message {
	m := &modes.Message{DF: df}
	m.AA[0] = byte(addr >> 16)
	m.AA[1] = byte(addr >> 8)
	m.AA[2] = byte(addr)
	return m
}

func TestFleetNeverDuplicatesAddress(t *testing.T) {
	f := NewFleet(60*time.Second, nil)
	t0 := time.Unix(1700000000, 0)

	for i := 0; i < 100; i++ {
		f.Receive(frame(17, 0xAAAAAA), -3.0, t0.Add(time.Duration(i)*600*time.Millisecond))
	}
	require.Equal(t, 1, f.Len())
}

func TestFleetShowStateMachineTicksToRemoval(t *testing.T) {
	f := NewFleet(60*time.Second, nil)
	t0 := time.Unix(1700000000, 0)

	for i := 0; i < 100; i++ {
		f.Receive(frame(17, 0xAAAAAA), -3.0, t0.Add(time.Duration(i)*600*time.Millisecond))
	}
	seenLast := t0.Add(99 * 600 * time.Millisecond)

	tick := 5 * time.Second
	// First tick after creation just flips FIRST_TIME -> NORMAL.
	f.Tick(seenLast)
	require.Equal(t, 1, f.Len())

	// At t = seen_last + ttl + tick, the record should read LAST_TIME
	// and still be present for one more render.
	f.Tick(seenLast.Add(60*time.Second + tick))
	require.Equal(t, 1, f.Len())
	require.Equal(t, ShowLastTime, f.Snapshot()[0].Show)

	// One more tick removes it.
	removed := f.Tick(seenLast.Add(60*time.Second + 2*tick))
	require.Equal(t, 1, removed)
	require.Equal(t, 0, f.Len())
}

func TestFleetCPRPairResolvesPosition(t *testing.T) {
	f := NewFleet(60*time.Second, nil)
	t0 := time.Unix(1700000000, 0)

	even := frame(17, 0x40621D)
	even.METype, even.OddFlag = 11, false
	even.RawLat, even.RawLon = 93000, 51372
	f.Receive(even, -3.0, t0)

	odd := frame(17, 0x40621D)
	odd.METype, odd.OddFlag = 11, true
	odd.RawLat, odd.RawLon = 74158, 50194
	a := f.Receive(odd, -3.0, t0.Add(10*time.Second))

	require.True(t, a.HasPosition)
	require.InDelta(t, 52.2572, a.Lat, 0.001)
	require.InDelta(t, 3.9193, a.Lon, 0.001)
}
