// Package app wires every component — source, demodulator, decoder,
// tracker, network services, router — into the running receiver, and
// owns the process lifecycle: start, restart-on-error, and
// reverse-order teardown.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"go1090/internal/archive"
	"go1090/internal/demod"
	"go1090/internal/dsp"
	"go1090/internal/icaocache"
	"go1090/internal/logging"
	"go1090/internal/metadata"
	"go1090/internal/modes"
	"go1090/internal/netmux"
	"go1090/internal/router"
	"go1090/internal/rtlsdr"
	"go1090/internal/source"
	"go1090/internal/tracker"
)

// dataLen is the sample chunk size, matching the source's 16*16384-byte
// async buffer sizing.
const dataLen = 16 * rtlsdr.BufferChunkSize

// Application owns every long-lived component and the goroutines that
// drive them.
type Application struct {
	config Config
	logger *logrus.Logger

	cache   *icaocache.Cache
	fleet   *tracker.Fleet
	router  *router.Router
	rotator *logging.Rotator
	archive *archive.Sink

	rawOut  *netmux.RawOutService
	sbsOut  *netmux.SBSOutService
	wsHub   *netmux.WSHub
	metrics *netmux.Metrics

	unrecognized *modes.UnrecognizedMEStats

	framesSeen uint64
	startedAt  time.Time

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	restartChan chan struct{}
}

// metricsAdapter satisfies router.Metrics, tolerating a nil
// *netmux.Metrics (no metrics registry configured) without the
// Router needing to know about netmux at all.
type metricsAdapter struct{ metrics *netmux.Metrics }

func (m metricsAdapter) IncFrames() {
	if m.metrics != nil {
		m.metrics.FramesTotal.Inc()
	}
}

// metricsOnBadCRC, metricsOnFixed, metricsOnCacheHit, and
// metricsOnCacheMiss are passed to modes.Decoder as its counter hooks;
// each tolerates a.metrics being nil (no metrics registry configured).
func (a *Application) metricsOnBadCRC() {
	if a.metrics != nil {
		a.metrics.BadCRCTotal.Inc()
	}
}

func (a *Application) metricsOnFixed() {
	if a.metrics != nil {
		a.metrics.FixedCRCTotal.Inc()
	}
}

func (a *Application) metricsOnCacheHit() {
	if a.metrics != nil {
		a.metrics.CacheHitTotal.Inc()
	}
}

func (a *Application) metricsOnCacheMiss() {
	if a.metrics != nil {
		a.metrics.CacheMissTotal.Inc()
	}
}

// New builds an Application from Config, but does not start it.
func New(cfg Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config:      cfg,
		logger:      logger,
		startedAt:   time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		restartChan: make(chan struct{}, 1),
	}
}

// Start initializes every component and runs until a shutdown signal
// arrives, restarting the capture pipeline on transient errors.
func (a *Application) Start() error {
	a.logger.Info("starting go1090 receiver")

	if err := a.initialize(); err != nil {
		return fmt.Errorf("app: initialize: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			a.logger.Info("received shutdown signal")
			a.shutdown()
			return nil
		case <-a.restartChan:
			a.logger.Info("restarting capture pipeline")
			a.restart()
		default:
			if err := a.run(); err != nil {
				a.logger.WithError(err).Error("capture pipeline error, scheduling restart")
				time.Sleep(5 * time.Second)
				a.triggerRestart()
			}
		}
	}
}

func (a *Application) initialize() error {
	a.cache = icaocache.New(icaocache.DefaultSlots)
	a.unrecognized = &modes.UnrecognizedMEStats{}

	var lookup tracker.MetadataLookup
	if a.config.MetadataSQLite != "" {
		store, err := metadata.OpenSQLite(a.config.MetadataSQLite)
		if err != nil {
			return fmt.Errorf("open metadata sqlite: %w", err)
		}
		lookup = metadata.AsLookup(store)
	} else if a.config.MetadataCSV != "" {
		store, err := metadata.LoadCSV(a.config.MetadataCSV)
		if err != nil {
			return fmt.Errorf("load metadata csv: %w", err)
		}
		lookup = metadata.AsLookup(store)
	}

	ttl := a.config.FleetTTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	a.fleet = tracker.NewFleet(ttl, lookup)

	var err error
	a.rotator, err = logging.New(a.config.LogDir, a.config.LogRotateUTC, a.logger)
	if err != nil {
		return fmt.Errorf("init log rotator: %w", err)
	}

	var archiveOpts []archive.Option
	if a.config.NATSUrl != "" {
		nc, err := nats.Connect(a.config.NATSUrl)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		subj := a.config.NATSSubject
		if subj == "" {
			subj = "go1090.sbs"
		}
		archiveOpts = append(archiveOpts, archive.WithNATS(nc, subj))
	}
	if a.config.PostgresDSN != "" {
		pool, err := pgxpool.New(a.ctx, a.config.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		archiveOpts = append(archiveOpts, archive.WithPostgres(pool))
	}
	a.archive = archive.New(a.logger, archiveOpts...)

	if a.config.RawOutAddr != "" {
		a.rawOut = netmux.NewRawOutService(a.logger)
	}
	if a.config.SBSOutAddr != "" {
		a.sbsOut = netmux.NewSBSOutService()
	}
	if a.config.HTTPAddr != "" {
		a.wsHub = netmux.NewWSHub(a.logger)
	}

	if a.config.MetricsAddr != "" {
		a.metrics = netmux.NewMetrics(prometheus.DefaultRegisterer)
	}
	if a.metrics != nil {
		if a.rawOut != nil {
			a.rawOut.SetGauge(a.metrics.ConnectionsGauge)
		}
		if a.sbsOut != nil {
			a.sbsOut.SetGauge(a.metrics.ConnectionsGauge)
		}
	}

	a.router = router.New(a.fleet, router.Sinks{
		RawOut: a.rawOut,
		SBSOut: a.sbsOut,
		WSHub:  a.wsHub,
		Stdout: a.config.Stdout,
	}, metricsAdapter{a.metrics})

	return nil
}

func (a *Application) run() error {
	a.logger.Info("starting sample capture")

	win := source.NewWindow(dataLen)
	var backend source.Backend

	if a.config.CaptureFile != "" {
		backend = source.FileBackend{Path: a.config.CaptureFile, Loop: a.config.LoopCapture, Logger: a.logger}
	} else {
		dev, err := rtlsdr.Open(a.config.DeviceIndex, a.logger)
		if err != nil {
			return fmt.Errorf("open rtlsdr: %w", err)
		}
		if err := dev.Configure(a.config.Frequency, a.config.SampleRate, a.config.Gain); err != nil {
			return fmt.Errorf("configure rtlsdr: %w", err)
		}
		defer dev.Close()
		backend = source.DeviceBackend{Device: dev}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := source.Pump(a.ctx, backend, dataLen, win); err != nil && a.ctx.Err() == nil {
			a.logger.WithError(err).Error("sample pump failed")
			a.triggerRestart()
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.rotator.Run(a.ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.processSamples(win)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.tickLoop()
	}()

	a.startNetworkServices()

	<-a.ctx.Done()
	a.wg.Wait()
	return nil
}

// startNetworkServices opens whichever of the five network services
// has a configured listen address; an empty address disables that
// service entirely.
func (a *Application) startNetworkServices() {
	decoder := &modes.Decoder{
		Aggressive:   a.config.Aggressive,
		Seen:         func(addr uint32) bool { return a.cache.Seen(addr, time.Now()) },
		Remember:     func(addr uint32) { a.cache.Insert(addr, time.Now()) },
		Unrecognized: a.unrecognized,
		OnBadCRC:     a.metricsOnBadCRC,
		OnFixed:      a.metricsOnFixed,
		OnCacheHit:   a.metricsOnCacheHit,
		OnCacheMiss:  a.metricsOnCacheMiss,
	}

	if a.rawOut != nil {
		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			if err := netmux.ListenAndServe(a.ctx, netmux.ListenSpec{Addr: a.config.RawOutAddr}, "raw-out",
				func(c *netmux.Connection) { a.rawOut.Add(c) }, a.logger); err != nil && a.ctx.Err() == nil {
				a.logger.WithError(err).Error("raw-out listener failed")
			}
		}()
		go func() {
			defer a.wg.Done()
			a.rawOut.RunHeartbeat(a.ctx, 30*time.Second)
		}()
	}

	if a.config.RawInAddr != "" {
		rawIn := netmux.NewRawInService(a.logger, func(f netmux.RawFrame) {
			m := decoder.Decode(f.Bytes, f.Bits)
			if m.CRCOK {
				a.routeAndArchive(m)
			}
		})
		if a.metrics != nil {
			rawIn.SetGauge(a.metrics.ConnectionsGauge)
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := netmux.ListenAndServe(a.ctx, netmux.ListenSpec{Addr: a.config.RawInAddr}, "raw-in",
				func(c *netmux.Connection) { rawIn.Add(c); go rawIn.HandleConn(c) }, a.logger); err != nil && a.ctx.Err() == nil {
				a.logger.WithError(err).Error("raw-in listener failed")
			}
		}()
	}

	if a.sbsOut != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := netmux.ListenAndServe(a.ctx, netmux.ListenSpec{Addr: a.config.SBSOutAddr}, "sbs-out",
				func(c *netmux.Connection) { a.sbsOut.Add(c) }, a.logger); err != nil && a.ctx.Err() == nil {
				a.logger.WithError(err).Error("sbs-out listener failed")
			}
		}()
	}

	if a.config.SBSInAddr != "" {
		sbsIn := netmux.NewSBSInService()
		if a.metrics != nil {
			sbsIn.SetGauge(a.metrics.ConnectionsGauge)
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := netmux.ListenAndServe(a.ctx, netmux.ListenSpec{Addr: a.config.SBSInAddr}, "sbs-in",
				func(c *netmux.Connection) { sbsIn.Add(c); go sbsIn.HandleConn(c) }, a.logger); err != nil && a.ctx.Err() == nil {
				a.logger.WithError(err).Error("sbs-in listener failed")
			}
		}()
	}

	if a.config.HTTPAddr != "" {
		geo, err := netmux.OpenGeoLookup(a.config.GeoIPPath)
		if err != nil {
			a.logger.WithError(err).Warn("geoip database failed to open, continuing without it")
		}
		srv := netmux.NewServer(a.fleet, netmux.ReceiverInfo{
			Version: "go1090", Refresh: 1, History: 120,
			Lat: a.config.HomeLat, Lon: a.config.HomeLon,
		}, a.logger, geo, a.wsHub, a.config.WebRoot)

		httpServer := &http.Server{Addr: a.config.HTTPAddr, Handler: srv.Router}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			<-a.ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.WithError(err).Error("http server failed")
			}
		}()
	}

	if a.metrics != nil && a.config.MetricsAddr != "" {
		metricsServer := &http.Server{Addr: a.config.MetricsAddr, Handler: promhttp.Handler()}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			<-a.ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.WithError(err).Error("metrics server failed")
			}
		}()
	}
}

// processSamples pulls each freshly filled window, demodulates it,
// decodes every candidate frame, and routes the ones that pass CRC.
func (a *Application) processSamples(win *source.Window) {
	demodulator := &demod.Demodulator{Aggressive: a.config.Aggressive}
	decoder := &modes.Decoder{
		Aggressive:   a.config.Aggressive,
		Seen:         func(addr uint32) bool { return a.cache.Seen(addr, time.Now()) },
		Remember:     func(addr uint32) { a.cache.Insert(addr, time.Now()) },
		Unrecognized: a.unrecognized,
		OnBadCRC:     a.metricsOnBadCRC,
		OnFixed:      a.metricsOnFixed,
		OnCacheHit:   a.metricsOnCacheHit,
		OnCacheMiss:  a.metricsOnCacheMiss,
	}
	lut := dsp.NewMagnitudeLUT()
	var magBuf []uint16

	var lastGen uint64
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			buf, gen := win.Current()
			if gen == lastGen {
				continue
			}
			lastGen = gen

			magBuf = lut.Magnitude(buf, magBuf)
			for _, f := range demodulator.Scan(magBuf) {
				m := decoder.Decode(f.Bytes[:], f.Bits)
				if !m.CRCOK {
					continue
				}
				m.SigLevel = f.SigLevel
				m.PhaseCorrected = f.PhaseCorrected
				a.routeAndArchive(m)
			}
		}
	}
}

// routeAndArchive applies the router's fixed effect sequence and, if
// archival is configured, additionally persists the resulting SBS
// line beyond the in-memory fleet.
func (a *Application) routeAndArchive(m *modes.Message) {
	now := time.Now()
	atomic.AddUint64(&a.framesSeen, 1)
	ac := a.router.Route(m, now)
	if a.archive != nil {
		line, ok := netmux.EncodeSBS(ac, m, now)
		if !ok {
			return
		}
		if err := a.archive.Archive(a.ctx, ac, line, now); err != nil {
			a.logger.WithError(err).Warn("archive write failed")
		}
	}
}

func (a *Application) tickLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	seconds := 0
	for {
		select {
		case <-a.ctx.Done():
			return
		case now := <-ticker.C:
			a.fleet.Tick(now)
			for _, ac := range a.fleet.Snapshot() {
				ac.UpdateHomeDistance(a.config.HomeLat, a.config.HomeLon, now)
			}
			if a.metrics != nil {
				a.metrics.FleetSize.Set(float64(a.fleet.Len()))
			}

			seconds++
			if seconds%60 == 0 {
				if stats, err := Snapshot(a.fleet.Len(), atomic.LoadUint64(&a.framesSeen), a.startedAt); err != nil {
					a.logger.WithError(err).Debug("stats snapshot failed")
				} else {
					a.logger.Info(stats.String())
				}
				if total := a.unrecognized.Total(); total > 0 {
					a.logger.WithField("by_type", a.unrecognized.ByType()).Infof("%d unrecognized ME types", total)
				}
			}
		}
	}
}

func (a *Application) triggerRestart() {
	select {
	case a.restartChan <- struct{}{}:
	default:
	}
}

func (a *Application) restart() {
	a.cancel()
	a.wg.Wait()
	a.cleanup()

	a.ctx, a.cancel = context.WithCancel(context.Background())
	if err := a.initialize(); err != nil {
		a.logger.WithError(err).Error("reinitialize failed")
		time.Sleep(10 * time.Second)
		a.triggerRestart()
	}
}

// cleanup releases resources in the reverse of the order they were
// acquired in initialize/run.
func (a *Application) cleanup() {
	if a.archive != nil {
		a.archive.Close()
	}
	if a.rotator != nil {
		a.rotator.Close()
	}
}

func (a *Application) shutdown() {
	a.cancel()
	a.wg.Wait()
	a.cleanup()
}
