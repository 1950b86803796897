package netmux

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/ua-parser/uap-go/uaparser"

	"go1090/internal/tracker"
)

// ReceiverInfo answers GET /data/receiver.json.
type ReceiverInfo struct {
	Version string  `json:"version"`
	Refresh int     `json:"refresh"`
	History int     `json:"history"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// AircraftJSON is one entry of the data.json array; field names match
// the dump1090-compatible wire format consumers (skyview-style map
// pages) expect.
type AircraftJSON struct {
	Hex      string  `json:"hex"`
	Flight   string  `json:"flight,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Altitude int     `json:"altitude,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Track    float64 `json:"track,omitempty"`
	Squawk   int     `json:"squawk,omitempty"`
	Seen     float64 `json:"seen"`
	Messages uint32  `json:"messages"`
	RSSI     float64 `json:"rssi"`
}

// Server is the http service: chi router plus the handlers' shared
// dependencies. It exposes tracker state as JSON and serves the
// static map UI.
type Server struct {
	Router  chi.Router
	fleet   *tracker.Fleet
	info    ReceiverInfo
	logger  *logrus.Logger
	geo     *GeoLookup
	ua      *uaparser.Parser
	wsHub   *WSHub
	webRoot string
}

// NewServer builds the chi router and registers every handler.
func NewServer(fleet *tracker.Fleet, info ReceiverInfo, logger *logrus.Logger, geo *GeoLookup, wsHub *WSHub, webRoot string) *Server {
	s := &Server{
		fleet:   fleet,
		info:    info,
		logger:  logger,
		geo:     geo,
		ua:      uaparser.NewFromSaved(),
		wsHub:   wsHub,
		webRoot: webRoot,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(cors)

	r.Get("/data/receiver.json", s.handleReceiver)
	r.Get("/data/aircraft.json", s.handleAircraft)
	r.Get("/data.json", s.handleAircraft)
	r.Get("/chunks/chunks.json", s.handleAircraft)
	if wsHub != nil {
		r.Get("/ws", wsHub.Handler)
	}
	r.Get("/metrics", s.handleMetricsPlaceholder)
	if webRoot != "" {
		r.Handle("/*", http.FileServer(http.Dir(webRoot)))
	} else {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/data.json", http.StatusFound)
		})
	}

	s.Router = r
	return s
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		country := s.geo.Country(hostOnly(r.RemoteAddr))
		ua := s.ua.Parse(r.UserAgent())

		next.ServeHTTP(w, r)

		s.logger.WithFields(logrus.Fields{
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"country":  country,
			"browser":  ua.UserAgent.Family,
			"os":       ua.Os.Family,
			"duration": time.Since(start),
		}).Debug("http access")
	})
}

func hostOnly(remoteAddr string) string {
	for i := len(remoteAddr) - 1; i >= 0; i-- {
		if remoteAddr[i] == ':' {
			return remoteAddr[:i]
		}
	}
	return remoteAddr
}

func (s *Server) handleReceiver(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.info)
}

func (s *Server) handleAircraft(w http.ResponseWriter, r *http.Request) {
	snapshot := s.fleet.Snapshot()
	now := time.Now()
	out := make([]AircraftJSON, 0, len(snapshot))
	for _, a := range snapshot {
		out = append(out, AircraftJSON{
			Hex:      hexAddr(a.Addr),
			Flight:   a.CallSign,
			Lat:      a.Lat,
			Lon:      a.Lon,
			Altitude: a.Altitude,
			Speed:    a.SpeedKt,
			Track:    a.Heading,
			Squawk:   a.Identity,
			Seen:     now.Sub(a.SeenLast).Seconds(),
			Messages: a.Messages,
			RSSI:     a.MeanSignal(),
		})
	}
	writeJSON(w, out)
}

// handleMetricsPlaceholder makes /metrics on the http service answer a
// plain 404; app.go serves promhttp.Handler on its own listener at the
// configured metrics address instead.
func (s *Server) handleMetricsPlaceholder(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "metrics not mounted", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func hexAddr(addr uint32) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		b[i] = hexDigits[addr&0xf]
		addr >>= 4
	}
	return string(b)
}
