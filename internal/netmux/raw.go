package netmux

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/modes"
)

// Heartbeat is sent on raw-out periodically so idle clients can detect
// a dead link; an all-zero ICAO is never a real frame.
const Heartbeat = "*0000;\n"

// RawFrame is one decoded-or-raw Mode S hex frame pulled off a raw
// connection, framed as "*HEXHEXHEX...;\n".
type RawFrame struct {
	Bytes []byte
	Bits  int
}

// EncodeRaw renders msg as the "*HEX;\n" line format raw-out clients
// and raw-in peers both speak.
func EncodeRaw(msg []byte) string {
	return fmt.Sprintf("*%s;\n", strings.ToUpper(hex.EncodeToString(msg)))
}

// DecodeRawLine parses a single raw line, stripping the leading '*'
// and trailing ';'. Heartbeats, malformed lines, and payloads that are
// neither 7 nor 14 bytes long return ok=false.
func DecodeRawLine(line string) (RawFrame, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 3 || line[0] != '*' || line[len(line)-1] != ';' {
		return RawFrame{}, false
	}
	body := line[1 : len(line)-1]
	raw, err := hex.DecodeString(body)
	if err != nil {
		return RawFrame{}, false
	}
	if len(raw) != modes.ShortMsgBytes && len(raw) != modes.LongMsgBytes {
		return RawFrame{}, false
	}
	return RawFrame{Bytes: raw, Bits: len(raw) * 8}, true
}

// RawOutService fans decoded frames out to connected clients as
// "*HEX;\n" lines, interleaved with a periodic heartbeat.
type RawOutService struct {
	*Service
	logger *logrus.Logger
}

// NewRawOutService wraps a Service with raw-out framing.
func NewRawOutService(logger *logrus.Logger) *RawOutService {
	return &RawOutService{Service: NewService("raw-out"), logger: logger}
}

// Publish fans a decoded frame out to every connected client.
func (r *RawOutService) Publish(msg []byte) {
	r.SendAll([]byte(EncodeRaw(msg)))
}

// Heartbeat periodically re-sends the heartbeat line until ctx is
// canceled.
func (r *RawOutService) RunHeartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SendAll([]byte(Heartbeat))
		}
	}
}

// RawInService accepts raw Mode S lines from upstream feeders and
// delivers decoded frames to handler.
type RawInService struct {
	*Service
	logger  *logrus.Logger
	handler func(RawFrame)
}

// NewRawInService wraps a Service with raw-in line parsing.
func NewRawInService(logger *logrus.Logger, handler func(RawFrame)) *RawInService {
	return &RawInService{Service: NewService("raw-in"), logger: logger, handler: handler}
}

// HandleConn reads newline-framed raw lines from c until it closes.
func (r *RawInService) HandleConn(c *Connection) {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := scanner.Text()
		r.mu.Lock()
		r.BytesIn += uint64(len(line) + 1)
		r.mu.Unlock()

		frame, ok := DecodeRawLine(line)
		if !ok {
			if line != strings.TrimSuffix(Heartbeat, "\n") {
				r.mu.Lock()
				r.Unknown++
				r.mu.Unlock()
			}
			continue
		}
		r.handler(frame)
	}
	r.Remove(c)
}

// AcceptLoop runs a blocking accept loop on l, registering and
// dispatching each connection until ctx is canceled.
func AcceptLoop(ctx context.Context, l net.Listener, service string, onAccept func(*Connection)) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		c, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("netmux: %s accept: %w", service, err)
			}
		}
		onAccept(NewConnection(service, c))
	}
}
