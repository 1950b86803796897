package netmux

import (
	"fmt"
	"strings"
	"time"

	"go1090/internal/modes"
	"go1090/internal/tracker"
)

// SBS renders BaseStation-format CSV lines, the wire format the
// sbs-out service fans to connected clients. Field order and layout
// are fixed by the BaseStation protocol: 22 comma-joined fields. The
// transmission type (field 2) and which of the remaining fields are
// populated both depend on the triggering frame's DF/ME, mirroring
// dump1090's modeS_send_SBS_output dispatch table.
const (
	sbsFieldCount = 22

	fMessageType      = 0
	fTransmissionType = 1
	fSessionID        = 2
	fAircraftID       = 3
	fHexIdent         = 4
	fDateGenerated    = 6
	fTimeGenerated    = 7
	fDateLogged       = 8
	fTimeLogged       = 9
	fCallsign         = 10
	fAltitude         = 11
	fGroundSpeed      = 12
	fTrack            = 13
	fLatitude         = 14
	fLongitude        = 15
	fVerticalRate     = 16
	fSquawk           = 17
	fAlert            = 18
	fEmergency        = 19
	fSPI              = 20
	fIsOnGround       = 21
)

// EncodeSBS renders one MSG line for a, describing the event carried
// by m. now is used for the generated/logged timestamp pairs
// (BaseStation repeats the same instant in both). ok is false when m's
// DF/ME has no BaseStation representation, matching the source's
// silent "return" for anything outside its dispatch table — callers
// should skip publishing in that case.
func EncodeSBS(a *tracker.Aircraft, m *modes.Message, now time.Time) (line string, ok bool) {
	dateStr := now.Format("2006/01/02")
	timeStr := now.Format("15:04:05.000")

	fields := make([]string, sbsFieldCount)
	fields[fMessageType] = "MSG"
	fields[fSessionID] = "1"
	fields[fAircraftID] = "1"
	fields[fHexIdent] = strings.ToUpper(fmt.Sprintf("%06X", a.Addr))
	fields[fDateGenerated] = dateStr
	fields[fTimeGenerated] = timeStr
	fields[fDateLogged] = dateStr
	fields[fTimeLogged] = timeStr

	alert, emergency, spi, ground := flightStatusFlags(m)

	switch {
	case m.DF == 0:
		fields[fTransmissionType] = "5"
		fields[fAltitude] = fmt.Sprintf("%d", m.Altitude)

	case m.DF == 4:
		fields[fTransmissionType] = "5"
		fields[fAltitude] = fmt.Sprintf("%d", m.Altitude)
		fields[fAlert], fields[fEmergency], fields[fSPI], fields[fIsOnGround] = alert, emergency, spi, ground

	case m.DF == 5:
		fields[fTransmissionType] = "6"
		fields[fSquawk] = squawkField(a)
		fields[fAlert], fields[fEmergency], fields[fSPI], fields[fIsOnGround] = alert, emergency, spi, ground

	case m.DF == 11:
		fields[fTransmissionType] = "8"

	case m.DF == 17 && m.METype >= 1 && m.METype <= 4:
		fields[fTransmissionType] = "1"
		fields[fCallsign] = strings.TrimSpace(a.CallSign)
		fields[fAlert], fields[fEmergency], fields[fSPI], fields[fIsOnGround] = "0", "0", "0", "0"

	case m.DF == 17 && m.METype >= 9 && m.METype <= 18:
		fields[fTransmissionType] = "3"
		fields[fAltitude] = fmt.Sprintf("%d", m.Altitude)
		if a.HasPosition {
			fields[fLatitude] = formatCoord(a.Lat, true)
			fields[fLongitude] = formatCoord(a.Lon, true)
		}
		fields[fAlert], fields[fEmergency], fields[fSPI], fields[fIsOnGround] = "0", "0", "0", "0"

	case m.DF == 17 && m.METype == 19 && m.MESubtype == 1:
		fields[fTransmissionType] = "4"
		fields[fGroundSpeed] = fmt.Sprintf("%.1f", a.SpeedKt)
		fields[fTrack] = fmt.Sprintf("%.1f", a.Heading)
		fields[fVerticalRate] = fmt.Sprintf("%d", verticalRate(m))
		fields[fAlert], fields[fEmergency], fields[fSPI], fields[fIsOnGround] = "0", "0", "0", "0"

	case m.DF == 21:
		fields[fTransmissionType] = "6"
		fields[fSquawk] = squawkField(a)
		fields[fAlert], fields[fEmergency], fields[fSPI], fields[fIsOnGround] = alert, emergency, spi, ground

	default:
		return "", false
	}

	return strings.Join(fields, ",") + "\n", true
}

// flightStatusFlags derives the alert/emergency/SPI/on-ground flags
// BaseStation carries alongside DF4/DF5/DF21 identity frames. Other
// DFs never populate these fields, matching the source's gate.
func flightStatusFlags(m *modes.Message) (alert, emergency, spi, ground string) {
	if m.DF != 4 && m.DF != 5 && m.DF != 21 {
		return "", "", "", ""
	}
	alert, emergency, spi, ground = "0", "0", "0", "0"
	if m.Identity == 7500 || m.Identity == 7600 || m.Identity == 7700 {
		emergency = "-1"
	}
	if m.FlightStatus == 1 || m.FlightStatus == 3 {
		ground = "-1"
	}
	if m.FlightStatus == 2 || m.FlightStatus == 3 || m.FlightStatus == 4 {
		alert = "-1"
	}
	if m.FlightStatus == 4 || m.FlightStatus == 5 {
		spi = "-1"
	}
	return alert, emergency, spi, ground
}

// verticalRate decodes the raw DF17/ME19/sub1 rate field into signed
// feet per minute.
func verticalRate(m *modes.Message) int {
	sign := 1
	if m.VertRateSign != 0 {
		sign = -1
	}
	return sign * 64 * (m.VertRate - 1)
}

func formatCoord(v float64, has bool) string {
	if !has {
		return ""
	}
	return fmt.Sprintf("%.5f", v)
}

func squawkField(a *tracker.Aircraft) string {
	if a.Identity == 0 {
		return ""
	}
	return fmt.Sprintf("%04d", a.Identity)
}

// SBSOutService fans decoded aircraft state to BaseStation clients.
type SBSOutService struct {
	*Service
}

// NewSBSOutService wraps a Service with SBS framing.
func NewSBSOutService() *SBSOutService {
	return &SBSOutService{Service: NewService("sbs-out")}
}

// Publish fans one aircraft's current state out as an SBS line
// describing m. Frames with no BaseStation representation (see
// EncodeSBS) are silently skipped.
func (s *SBSOutService) Publish(a *tracker.Aircraft, m *modes.Message, now time.Time) {
	line, ok := EncodeSBS(a, m, now)
	if !ok {
		return
	}
	s.SendAll([]byte(line))
}

// SBSInService accepts upstream BaseStation feeds. The source format
// is position/velocity telemetry only (no raw Mode S payload), so
// sbs-in cannot feed the CRC/tracker pipeline the way raw-in does;
// it is accepted and counted for parity with the five-service
// contract but has no decoder to hand lines to.
type SBSInService struct {
	*Service
}

// NewSBSInService wraps a Service accepting upstream SBS feeds.
func NewSBSInService() *SBSInService {
	return &SBSInService{Service: NewService("sbs-in")}
}

// HandleConn drains and counts bytes from an upstream SBS feed without
// interpreting them.
func (s *SBSInService) HandleConn(c *Connection) {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.BytesIn += uint64(n)
			s.mu.Unlock()
		}
		if err != nil {
			break
		}
	}
	s.Remove(c)
}
