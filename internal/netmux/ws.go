package netmux

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHub pushes aircraft snapshots to subscribed browser clients.
type WSHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	logger  *logrus.Logger
}

// NewWSHub builds an empty hub.
func NewWSHub(logger *logrus.Logger) *WSHub {
	return &WSHub{clients: make(map[*websocket.Conn]chan []byte), logger: logger}
}

// Handler upgrades the request and registers the connection until it
// closes or the write pump errors.
func (h *WSHub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	send := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for payload := range send {
		if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// Broadcast marshals v as JSON and fans it to every connected client,
// dropping (not blocking on) a client whose send buffer is full.
func (h *WSHub) Broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.WithError(err).Warn("netmux: ws broadcast marshal failed")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			h.logger.WithField("remote", conn.RemoteAddr()).Debug("netmux: ws client backlogged, dropping frame")
		}
	}
}

// Count returns the number of connected websocket clients.
func (h *WSHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
