package tracker

import (
	"sync"
	"time"

	"go1090/internal/modes"
)

// Fleet is the address-keyed set of tracked aircraft, replacing the
// source's intrusive linked list with a map plus an insertion-ordered
// index so eviction sweeps stay O(n) without pointer-chasing.
type Fleet struct {
	mu     sync.RWMutex
	byAddr map[uint32]*Aircraft
	order  []uint32
	ttl    time.Duration
	lookup MetadataLookup
}

// NewFleet builds an empty fleet with the given render/eviction TTL.
// lookup may be nil to skip metadata enrichment.
func NewFleet(ttl time.Duration, lookup MetadataLookup) *Fleet {
	return &Fleet{
		byAddr: make(map[uint32]*Aircraft),
		ttl:    ttl,
		lookup: lookup,
	}
}

// FindOrCreate returns the existing record for addr, or allocates a
// fresh one seeded from the metadata lookup (if any) and marked
// ShowFirstTime.
func (f *Fleet) FindOrCreate(addr uint32, now time.Time) *Aircraft {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.byAddr[addr]; ok {
		return a
	}

	a := &Aircraft{Addr: addr, SeenFirst: now, SeenLast: now, Show: ShowFirstTime}
	if f.lookup != nil {
		if reg, mfr, cs, ok := f.lookup(addr); ok {
			a.Registration, a.Manufacturer, a.CallSign = reg, mfr, cs
		}
	}
	f.byAddr[addr] = a
	f.order = append(f.order, addr)
	return a
}

// Receive applies a decoded message to addr's record: flight id,
// altitude, squawk, velocity/heading, and CPR position scratch.
func (f *Fleet) Receive(m *modes.Message, sigLevel float64, now time.Time) *Aircraft {
	a := f.FindOrCreate(m.ICAOAddr(), now)

	f.mu.Lock()
	defer f.mu.Unlock()

	a.SeenLast = now
	a.Messages++
	a.PushSignal(sigLevel)

	if m.DF == 0 || m.DF == 4 || m.DF == 16 || m.DF == 20 {
		a.Altitude = m.Altitude
	}
	if m.DF == 4 || m.DF == 5 || m.DF == 20 || m.DF == 21 {
		a.Identity = m.Identity
	}

	if m.DF == 17 {
		switch {
		case m.METype >= 1 && m.METype <= 4:
			a.Flight = m.FlightString()
		case m.METype >= 9 && m.METype <= 18:
			a.Altitude = m.Altitude
			a.StoreCPR(m.OddFlag, m.RawLat, m.RawLon, now)
		case m.METype == 19 && m.MESubtype >= 1 && m.MESubtype <= 4:
			a.SpeedKt = m.Velocity
			a.Heading = m.Heading
			a.HeadingValid = m.HeadingValid
		}
	}

	return a
}

// Tick advances every record's show-state against the TTL and drops
// any record that just finished its ShowLastTime frame. It returns
// the number of records removed.
func (f *Fleet) Tick(now time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	kept := f.order[:0]
	for _, addr := range f.order {
		a := f.byAddr[addr]
		switch a.Show {
		case ShowFirstTime:
			a.Show = ShowNormal
		case ShowNormal:
			if now.Sub(a.SeenLast) > f.ttl {
				a.Show = ShowLastTime
			}
		case ShowLastTime:
			a.Show = ShowNone
		}

		if a.Show == ShowNone {
			delete(f.byAddr, addr)
			removed++
			continue
		}
		kept = append(kept, addr)
	}
	f.order = kept
	return removed
}

// Len returns the number of tracked records.
func (f *Fleet) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.byAddr)
}

// Snapshot returns a copy of the current record pointers, safe to
// range over without holding the fleet's lock.
func (f *Fleet) Snapshot() []*Aircraft {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Aircraft, 0, len(f.order))
	for _, addr := range f.order {
		out = append(out, f.byAddr[addr])
	}
	return out
}
