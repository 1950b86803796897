// Package router is the single entry point every CRC-passed frame
// flows through: count it, feed the tracker, fan it to connected
// clients, and optionally print it, in a fixed order so one frame
// never produces output in two different sequences depending on
// which services happen to be listening.
package router

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/modes"
	"go1090/internal/netmux"
	"go1090/internal/tracker"
)

// Sinks are the optional downstream fan-outs a frame can reach after
// CRC and tracker processing. A nil sink is simply skipped.
type Sinks struct {
	RawOut *netmux.RawOutService
	SBSOut *netmux.SBSOutService
	WSHub  *netmux.WSHub
	Stdout bool
	Logger *logrus.Logger
}

// Metrics is the subset of netmux.Metrics the router increments.
type Metrics interface {
	IncFrames()
}

// Router applies a decoded, CRC-verified frame's effects in a fixed
// order: tracker update, SBS and websocket fan-out, optional console
// print, then raw fan-out.
type Router struct {
	Fleet  *tracker.Fleet
	Sinks  Sinks
	metric Metrics
}

// New builds a Router over fleet with the given downstream sinks.
func New(fleet *tracker.Fleet, sinks Sinks, metric Metrics) *Router {
	return &Router{Fleet: fleet, Sinks: sinks, metric: metric}
}

// Route applies one decoded frame's full set of effects:
//  1. bump the frame counter
//  2. update the tracker (always — even with no clients, position/
//     velocity history still needs to accumulate)
//  3. fan out to SBS clients, if any
//  4. print to stdout, if enabled
//  5. fan out to raw clients, if any
func (r *Router) Route(m *modes.Message, now time.Time) *tracker.Aircraft {
	if r.metric != nil {
		r.metric.IncFrames()
	}

	a := r.Fleet.Receive(m, m.SigLevel, now)

	if r.Sinks.SBSOut != nil {
		r.Sinks.SBSOut.Publish(a, m, now)
	}
	if r.Sinks.WSHub != nil {
		r.Sinks.WSHub.Broadcast(aircraftDelta(a, now))
	}
	if r.Sinks.Stdout {
		fmt.Println(formatLine(m, a, now))
	}
	if r.Sinks.RawOut != nil {
		r.Sinks.RawOut.Publish(m.Raw[:m.Bits/8])
	}

	return a
}

func aircraftDelta(a *tracker.Aircraft, now time.Time) map[string]any {
	return map[string]any{
		"hex":      fmt.Sprintf("%06x", a.Addr),
		"flight":   a.CallSign,
		"altitude": a.Altitude,
		"lat":      a.Lat,
		"lon":      a.Lon,
		"seen":     now.Sub(a.SeenLast).Seconds(),
	}
}

func formatLine(m *modes.Message, a *tracker.Aircraft, now time.Time) string {
	return fmt.Sprintf("%s DF%-2d ICAO %06X  alt=%-6d spd=%-5.0f hdg=%-3.0f flight=%q",
		now.Format("15:04:05.000"), m.DF, a.Addr, a.Altitude, a.SpeedKt, a.Heading, a.CallSign)
}
