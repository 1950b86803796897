package app

import (
	"fmt"
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a one-line operational summary, the equivalent of the
// source's periodic stdout statistics dump.
type Stats struct {
	FleetSize  int
	FramesSeen uint64
	Uptime     time.Duration
	RSSBytes   uint64
}

// Snapshot gathers current process RSS via gopsutil and formats a
// human-readable summary line.
func Snapshot(fleetSize int, framesSeen uint64, startedAt time.Time) (Stats, error) {
	s := Stats{FleetSize: fleetSize, FramesSeen: framesSeen, Uptime: time.Since(startedAt)}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("stats: open process handle: %w", err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return s, fmt.Errorf("stats: read memory info: %w", err)
	}
	s.RSSBytes = mem.RSS
	return s, nil
}

// String renders the summary the way the source's periodic log line
// does: uptime, fleet size, frame count, and memory footprint.
func (s Stats) String() string {
	return fmt.Sprintf("uptime=%s aircraft=%d frames=%s mem=%s",
		s.Uptime.Round(time.Second),
		s.FleetSize,
		humanize.Comma(int64(s.FramesSeen)),
		humanize.Bytes(s.RSSBytes),
	)
}
