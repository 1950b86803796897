package netmux

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the prometheus collectors exposed at /metrics,
// mirroring the statistics the source prints to stdout on SIGUSR1.
type Metrics struct {
	FramesTotal      prometheus.Counter
	BadCRCTotal      prometheus.Counter
	FixedCRCTotal    prometheus.Counter
	CacheHitTotal    prometheus.Counter
	CacheMissTotal   prometheus.Counter
	FleetSize        prometheus.Gauge
	ConnectionsGauge *prometheus.GaugeVec
}

// NewMetrics registers the collector set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "go1090_frames_total",
			Help: "Mode S frames that passed CRC (with or without correction).",
		}),
		BadCRCTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "go1090_bad_crc_total",
			Help: "Frames discarded for a CRC that could not be fixed or recovered.",
		}),
		FixedCRCTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "go1090_fixed_crc_total",
			Help: "Frames accepted after single or two-bit error correction.",
		}),
		CacheHitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "go1090_icao_cache_hit_total",
			Help: "AP recovery attempts resolved against a recently seen ICAO address.",
		}),
		CacheMissTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "go1090_icao_cache_miss_total",
			Help: "AP recovery attempts that found no matching recent ICAO address.",
		}),
		FleetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "go1090_fleet_aircraft",
			Help: "Aircraft currently tracked.",
		}),
		ConnectionsGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "go1090_connections",
			Help: "Live connections per network service.",
		}, []string{"service"}),
	}
	reg.MustRegister(m.FramesTotal, m.BadCRCTotal, m.FixedCRCTotal,
		m.CacheHitTotal, m.CacheMissTotal, m.FleetSize, m.ConnectionsGauge)
	return m
}
