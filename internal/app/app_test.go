package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSetsLogLevelFromVerbose(t *testing.T) {
	quiet := New(Config{})
	require.Equal(t, "info", quiet.logger.GetLevel().String())

	verbose := New(Config{Verbose: true})
	require.Equal(t, "debug", verbose.logger.GetLevel().String())
}

func TestStatsStringIncludesAircraftAndFrameCounts(t *testing.T) {
	s := Stats{FleetSize: 3, FramesSeen: 1200, Uptime: 90 * time.Second}
	str := s.String()
	require.Contains(t, str, "aircraft=3")
	require.Contains(t, str, "1,200")
}
