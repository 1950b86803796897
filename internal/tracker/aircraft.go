// Package tracker maintains the live set of aircraft records built up
// from decoded Mode-S frames: identity, position, velocity, a
// bounded signal-level history, and the show-state used to give a
// departing aircraft one last render before eviction.
package tracker

import (
	"time"

	"go1090/internal/cpr"
)

// ShowState is the aircraft record's render lifecycle: an aircraft is
// rendered as newly seen once, then normally, then rendered one final
// time in a "leaving" state before its record is dropped.
type ShowState int

const (
	ShowFirstTime ShowState = iota
	ShowNormal
	ShowLastTime
	ShowNone
)

// MetadataLookup enriches a record with an external registration
// database at find-or-create time. It returns ok=false when the
// address has no known entry.
type MetadataLookup func(addr uint32) (registration, manufacturer, callSign string, ok bool)

// Aircraft is one tracked ICAO address.
type Aircraft struct {
	Addr uint32

	Flight       string
	Registration string
	Manufacturer string
	CallSign     string

	Altitude     int
	SpeedKt      float64
	Heading      float64
	HeadingValid bool

	SeenFirst time.Time
	SeenLast  time.Time
	Messages  uint32
	Identity  int
	Show      ShowState

	Lat, Lon    float64
	HasPosition bool

	Distance    float64
	EstDistance float64
	estimate    cpr.Estimate
	hasEstimate bool

	sigLevels [4]float64
	sigIdx    int

	oddLat, oddLon   uint32
	oddTime          time.Time
	evenLat, evenLon uint32
	evenTime         time.Time
	hasOdd, hasEven  bool
}

// PushSignal records the RSSI of the most recent message into the
// 4-entry ring buffer, overwriting the oldest entry.
func (a *Aircraft) PushSignal(level float64) {
	a.sigLevels[a.sigIdx] = level
	a.sigIdx = (a.sigIdx + 1) % len(a.sigLevels)
}

// MeanSignal averages all four ring buffer entries; entries not yet
// written count as zero.
func (a *Aircraft) MeanSignal() float64 {
	var sum float64
	for _, v := range a.sigLevels {
		sum += v
	}
	return sum / float64(len(a.sigLevels))
}

// StoreCPR records a raw odd or even airborne-position sample and
// attempts a global CPR resolve if the opposite parity is also on
// file. On success it updates Lat/Lon and seeds the dead-reckoning
// estimator from the fresh fix.
func (a *Aircraft) StoreCPR(oddFlag bool, rawLat, rawLon uint32, now time.Time) {
	if oddFlag {
		a.oddLat, a.oddLon, a.oddTime, a.hasOdd = rawLat, rawLon, now, true
	} else {
		a.evenLat, a.evenLon, a.evenTime, a.hasEven = rawLat, rawLon, now, true
	}

	if !a.hasOdd || !a.hasEven {
		return
	}

	lat, lon, ok := cpr.ResolveGlobal(a.evenLat, a.evenLon, a.oddLat, a.oddLon, a.evenTime, a.oddTime)
	if !ok {
		return
	}

	a.Lat, a.Lon, a.HasPosition = lat, lon, true
	a.estimate = cpr.NewEstimate(lat, lon, now)
	a.hasEstimate = true
}

// UpdateHomeDistance recomputes Distance (great-circle, exact) and
// EstDistance (dead-reckoned from the last fix using current speed
// and heading) against the receiver's home position.
func (a *Aircraft) UpdateHomeDistance(homeLat, homeLon float64, now time.Time) {
	if a.HasPosition {
		a.Distance = cpr.GreatCircleMeters(a.Lat, a.Lon, homeLat, homeLon)
	}
	if a.hasEstimate {
		a.estimate.Advance(a.SpeedKt, a.Heading, a.HeadingValid, now, homeLat, homeLon)
		a.EstDistance = a.estimate.HomeDistance
	}
}
