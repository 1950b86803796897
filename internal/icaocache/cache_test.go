package icaocache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsertThenSeenWithinTTL(t *testing.T) {
	c := New(1024)
	t0 := time.Unix(1700000000, 0)

	c.Insert(0x4B9696, t0)
	require.True(t, c.Seen(0x4B9696, t0.Add(59*time.Second)))
	require.False(t, c.Seen(0x4B9696, t0.Add(61*time.Second)))
}

func TestSeenFalseForUnknownAddress(t *testing.T) {
	c := New(1024)
	require.False(t, c.Seen(0x123456, time.Now()))
}

func TestNewPanicsOnNonPowerOfTwo(t *testing.T) {
	require.Panics(t, func() { New(100) })
}

func TestInsertOverwritesColliding(t *testing.T) {
	c := New(2) // tiny table to force a collision
	t0 := time.Unix(1700000000, 0)

	// Find two addresses that hash to the same slot.
	var a, b uint32 = 1, 1
	for i := uint32(1); i < 1<<20; i++ {
		if hash(i)&c.mask == hash(1)&c.mask && i != 1 {
			b = i
			break
		}
	}
	a = 1
	require.NotEqual(t, a, b)

	c.Insert(a, t0)
	c.Insert(b, t0.Add(time.Second))
	require.False(t, c.Seen(a, t0.Add(2*time.Second)))
	require.True(t, c.Seen(b, t0.Add(2*time.Second)))
}
