package cpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveGlobalKnownPair(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	// The even sample is the newer one, so the result is taken from it.
	lat, lon, ok := ResolveGlobal(93000, 51372, 74158, 50194, t0.Add(10*time.Second), t0)

	require.True(t, ok)
	require.InDelta(t, 52.2572, lat, 0.001)
	require.InDelta(t, 3.9193, lon, 0.001)
}

func TestResolveGlobalRejectsStalePair(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	_, _, ok := ResolveGlobal(93000, 51372, 74158, 50194, t0, t0.Add(11*time.Minute))
	require.False(t, ok)
}

func TestNLTableMonotoneAndPolarFloor(t *testing.T) {
	require.Equal(t, 59, NLTable(0))
	require.Equal(t, 1, NLTable(87))
	require.Equal(t, 1, NLTable(89.9))

	prev := NLTable(0)
	for lat := 1.0; lat <= 90; lat++ {
		cur := NLTable(lat)
		require.LessOrEqual(t, cur, prev)
		prev = cur
	}
}
