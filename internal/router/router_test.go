package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go1090/internal/modes"
	"go1090/internal/tracker"
)

type countingMetric struct{ n int }

func (c *countingMetric) IncFrames() { c.n++ }

func TestRouteUpdatesTrackerAndCountsFrame(t *testing.T) {
	fleet := tracker.NewFleet(60*time.Second, nil)
	metric := &countingMetric{}
	r := New(fleet, Sinks{}, metric)

	m := &modes.Message{DF: 17, AA: [3]byte{0x4B, 0x96, 0x96}, Bits: 112}
	now := time.Now()

	a := r.Route(m, now)
	require.Equal(t, 1, metric.n)
	require.Equal(t, uint32(0x4B9696), a.Addr)
	require.EqualValues(t, 1, a.Messages)
	require.Equal(t, 1, fleet.Len())
}

func TestRouteIsIdempotentlyOrderedAcrossRepeatedFrames(t *testing.T) {
	fleet := tracker.NewFleet(60*time.Second, nil)
	r := New(fleet, Sinks{}, nil)

	m := &modes.Message{DF: 17, AA: [3]byte{0x11, 0x22, 0x33}, Bits: 112}
	now := time.Now()

	for i := 0; i < 5; i++ {
		r.Route(m, now.Add(time.Duration(i)*time.Second))
	}

	require.Equal(t, 1, fleet.Len())
	a := fleet.Snapshot()[0]
	require.EqualValues(t, 5, a.Messages)
}
