// Package netmux is the connection multiplexer: five network services
// (raw-out, raw-in, sbs-out, sbs-in, http) sharing per-connection
// bookkeeping, best-effort fan-out, and counters. Unlike the source's
// single-threaded reactor, each service runs its own accept loop and
// connections are driven by per-connection goroutines; the shared
// state (the connection list, counters) is what the reactor's single
// thread used to serialize for free, so it's guarded explicitly here.
package netmux

import (
	"net"
	"sync"
	"time"

	list "github.com/bahlo/generic-list-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Connection is one network peer attached to a Service.
type Connection struct {
	ID           uuid.UUID
	Service      string
	RemoteAddr   string
	KeepAlive    bool
	RedirectSent bool

	conn    net.Conn
	inbound []byte // accumulated read buffer, parsed on '\n'
}

// NewConnection wraps an accepted or dialed net.Conn.
func NewConnection(service string, c net.Conn) *Connection {
	return &Connection{
		ID:         uuid.New(),
		Service:    service,
		RemoteAddr: c.RemoteAddr().String(),
		conn:       c,
	}
}

// Service is one of the five network services: a listening or
// connecting handle, its live connections, and its counters.
type Service struct {
	Name string

	mu          sync.Mutex
	connections *list.List[*Connection]
	elements    map[uuid.UUID]*list.Element[*Connection]
	gauge       *prometheus.GaugeVec

	BytesIn, BytesOut          uint64
	Accepted, Removed, Unknown uint64
	LastError                  string
}

// NewService builds an empty service registry.
func NewService(name string) *Service {
	return &Service{
		Name:        name,
		connections: list.New[*Connection](),
		elements:    make(map[uuid.UUID]*list.Element[*Connection]),
	}
}

// SetGauge wires g as the live-connections gauge this service updates
// on every Add/Remove, labeled by the service's own name.
func (s *Service) SetGauge(g *prometheus.GaugeVec) {
	s.mu.Lock()
	s.gauge = g
	s.mu.Unlock()
}

// Add registers a newly accepted/dialed connection.
func (s *Service) Add(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[c.ID] = s.connections.PushBack(c)
	s.Accepted++
	s.reportGaugeLocked()
}

// Remove unlinks a connection, e.g. on close or send-buffer overflow.
func (s *Service) Remove(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.elements[c.ID]; ok {
		s.connections.Remove(el)
		delete(s.elements, c.ID)
		s.Removed++
		s.reportGaugeLocked()
	}
}

// reportGaugeLocked must be called with s.mu held.
func (s *Service) reportGaugeLocked() {
	if s.gauge != nil {
		s.gauge.WithLabelValues(s.Name).Set(float64(s.connections.Len()))
	}
}

// SendAll writes payload to every live connection in turn, best-effort:
// each write has a 2-second deadline, and a peer whose write fails is
// dropped and counted. A slow peer delays the writes to the peers after
// it by up to that deadline.
func (s *Service) SendAll(payload []byte) {
	s.mu.Lock()
	conns := make([]*Connection, 0, s.connections.Len())
	for el := s.connections.Front(); el != nil; el = el.Next() {
		conns = append(conns, el.Value)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)); err != nil {
			continue
		}
		if _, err := c.conn.Write(payload); err != nil {
			s.mu.Lock()
			s.Unknown++
			s.mu.Unlock()
			s.Remove(c)
		} else {
			s.mu.Lock()
			s.BytesOut += uint64(len(payload))
			s.mu.Unlock()
		}
	}
}

// Count returns the number of currently tracked connections.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections.Len()
}
