package netmux

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go1090/internal/modes"
	"go1090/internal/tracker"
)

func TestDecodeRawLineRoundTrip(t *testing.T) {
	msg := []byte{0x8D, 0x4B, 0x96, 0x96, 0x99, 0x15, 0x56, 0x00, 0xE8, 0x74, 0x06, 0xF5, 0xB6, 0x9F}
	line := EncodeRaw(msg)
	require.Equal(t, "*8D4B969699155600E87406F5B69F;\n", line)

	frame, ok := DecodeRawLine(line)
	require.True(t, ok)
	require.Equal(t, msg, frame.Bytes)
	require.Equal(t, 112, frame.Bits)
}

func TestDecodeRawLineRejectsHeartbeat(t *testing.T) {
	_, ok := DecodeRawLine(Heartbeat)
	require.False(t, ok, "an all-zero ICAO heartbeat must never be mistaken for a real frame")
}

func TestDecodeRawLineRejectsMalformed(t *testing.T) {
	cases := []string{"", "*;\n", "no-markers", "*ZZ;\n"}
	for _, c := range cases {
		_, ok := DecodeRawLine(c)
		require.False(t, ok, "line %q should not parse", c)
	}
}

func TestServiceSendAllDropsDeadPeer(t *testing.T) {
	svc := NewService("raw-out")

	server, client := net.Pipe()
	defer client.Close()
	conn := NewConnection("raw-out", server)
	svc.Add(conn)
	require.Equal(t, 1, svc.Count())

	// Close the remote side so the next write fails.
	client.Close()
	done := make(chan struct{})
	go func() { svc.SendAll([]byte("x")); close(done) }()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("SendAll did not return")
	}
	require.Equal(t, 0, svc.Count())
}

func TestEncodeSBSCallsignFrameIsTransmissionType1(t *testing.T) {
	now := time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC)
	a := &tracker.Aircraft{Addr: 0x4B9696, CallSign: "KLM1023 "}
	m := &modes.Message{DF: 17, METype: 4}

	line, ok := EncodeSBS(a, m, now)
	require.True(t, ok)
	require.Contains(t, line, "MSG,1,")
	require.Contains(t, line, "4B9696")
	require.Contains(t, line, "KLM1023")
	require.Contains(t, line, "2026/08/02")
}

func TestEncodeSBSAirbornePositionFrameIsTransmissionType3(t *testing.T) {
	now := time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC)
	a := &tracker.Aircraft{Addr: 0x4B9696, Altitude: 38000}
	a.Lat, a.Lon, a.HasPosition = 52.25, 3.91, true
	m := &modes.Message{DF: 17, METype: 11, Altitude: 38000}

	line, ok := EncodeSBS(a, m, now)
	require.True(t, ok)
	require.Contains(t, line, "MSG,3,")
	require.Contains(t, line, "38000")
	require.Contains(t, line, "52.25000")
	require.Contains(t, line, "3.91000")
}

func TestEncodeSBSVelocityFrameIsTransmissionType4WithVerticalRate(t *testing.T) {
	now := time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC)
	a := &tracker.Aircraft{Addr: 0x4B9696, SpeedKt: 490, Heading: 180}
	m := &modes.Message{DF: 17, METype: 19, MESubtype: 1, VertRateSign: 1, VertRate: 17}

	line, ok := EncodeSBS(a, m, now)
	require.True(t, ok)
	require.Contains(t, line, "MSG,4,")
	require.Contains(t, line, "490.0")
	require.Contains(t, line, "180.0")
	require.Contains(t, line, ",-1024,") // sign=1(neg) * 64 * (17-1)
}

func TestEncodeSBSIdentityFrameIsTransmissionType6WithSquawk(t *testing.T) {
	now := time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC)
	a := &tracker.Aircraft{Addr: 0x4B9696, Identity: 7700}
	m := &modes.Message{DF: 5, Identity: 7700, FlightStatus: 2}

	line, ok := EncodeSBS(a, m, now)
	require.True(t, ok)
	require.Contains(t, line, "MSG,6,")
	require.Contains(t, line, "7700")
	require.Contains(t, line, "-1") // alert flag set from FlightStatus
}

func TestEncodeSBSSurveillanceIdentFrameIsTransmissionType8(t *testing.T) {
	now := time.Date(2026, 8, 2, 10, 30, 0, 0, time.UTC)
	a := &tracker.Aircraft{Addr: 0x4B9696}
	m := &modes.Message{DF: 11}

	line, ok := EncodeSBS(a, m, now)
	require.True(t, ok)
	require.Contains(t, line, "MSG,8,")
}

func TestEncodeSBSUnhandledDFIsSkipped(t *testing.T) {
	a := &tracker.Aircraft{Addr: 0x4B9696}
	m := &modes.Message{DF: 20}

	_, ok := EncodeSBS(a, m, time.Now())
	require.False(t, ok)
}
