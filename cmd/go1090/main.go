package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go1090/internal/app"
)

var (
	version = "dev"
)

func main() {
	var config app.Config
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   "go1090",
		Short: "1090 MHz Mode S/ADS-B receiver and network feeder",
		Long: `go1090 captures I/Q samples from an RTL-SDR (or a recorded capture
file), demodulates 1090 MHz Mode S transmissions, validates and repairs their
CRC, tracks the resulting aircraft, and serves the fleet over raw, BaseStation
(SBS), and HTTP/JSON interfaces.

Example usage:
  go1090 --frequency 1090000000 --sample-rate 2000000 --gain 0 --device 0 \
    --raw-out :30002 --sbs-out :30003 --http :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("go1090 %s\n", version)
				return nil
			}
			return app.New(config).Start()
		},
	}

	flags := rootCmd.Flags()
	flags.Uint32VarP(&config.Frequency, "frequency", "f", app.DefaultFrequency, "Tuner frequency (Hz)")
	flags.Uint32VarP(&config.SampleRate, "sample-rate", "s", app.DefaultSampleRate, "Sample rate (Hz)")
	flags.IntVarP(&config.Gain, "gain", "g", app.DefaultGain, "Tuner gain in tenths-of-dB, 0 for AGC")
	flags.IntVarP(&config.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	flags.StringVar(&config.CaptureFile, "capture-file", "", "Read raw I/Q samples from a file instead of a device")
	flags.BoolVar(&config.LoopCapture, "loop", false, "Loop the capture file on EOF")
	flags.BoolVar(&config.Aggressive, "aggressive", false, "Enable two-bit CRC correction on DF17 frames")

	flags.StringVar(&config.RawOutAddr, "raw-out", "", "Listen address for the raw hex output service")
	flags.StringVar(&config.RawInAddr, "raw-in", "", "Listen address to accept raw hex frames from a feeder")
	flags.StringVar(&config.SBSOutAddr, "sbs-out", "", "Listen address for the BaseStation output service")
	flags.StringVar(&config.SBSInAddr, "sbs-in", "", "Listen address to accept a BaseStation feed")
	flags.StringVar(&config.HTTPAddr, "http", "", "Listen address for the JSON/map HTTP service")
	flags.StringVar(&config.MetricsAddr, "metrics", "", "Listen address for Prometheus /metrics")
	flags.StringVar(&config.WebRoot, "web-root", "", "Static file directory served by the HTTP service")

	flags.Float64Var(&config.HomeLat, "lat", 0, "Receiver latitude, for distance display")
	flags.Float64Var(&config.HomeLon, "lon", 0, "Receiver longitude, for distance display")

	flags.DurationVar(&config.FleetTTL, "fleet-ttl", 0, "Time an aircraft is retained without a fresh message (default 60s)")

	flags.StringVar(&config.MetadataCSV, "metadata-csv", "", "Aircraft metadata CSV file")
	flags.StringVar(&config.MetadataSQLite, "metadata-db", "", "Aircraft metadata SQLite database")

	flags.StringVar(&config.NATSUrl, "nats-url", "", "NATS server URL for archival publish")
	flags.StringVar(&config.NATSSubject, "nats-subject", "", "NATS subject for archival publish")
	flags.StringVar(&config.PostgresDSN, "postgres-dsn", "", "Postgres DSN for archival storage")
	flags.StringVar(&config.GeoIPPath, "geoip-db", "", "MaxMind GeoLite2-Country database path")

	flags.StringVarP(&config.LogDir, "log-dir", "l", "./logs", "Directory for the daily rotated log files")
	flags.BoolVarP(&config.LogRotateUTC, "utc", "u", true, "Rotate logs at UTC midnight")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&config.Stdout, "print", false, "Print decoded frames to stdout")
	flags.BoolVar(&showVersion, "version", false, "Show version information")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "go1090: %v\n", err)
		os.Exit(1)
	}
}
