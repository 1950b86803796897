package netmux

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoLookup resolves a remote IP to a country for access logging. A
// nil *GeoLookup (no database configured) is a valid no-op.
type GeoLookup struct {
	db *geoip2.Reader
}

// OpenGeoLookup opens a MaxMind GeoLite2-Country database. path == ""
// disables lookups without an error.
func OpenGeoLookup(path string) (*GeoLookup, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoLookup{db: db}, nil
}

// Country returns the ISO country code for addr, or "" if unknown or
// lookups are disabled.
func (g *GeoLookup) Country(addr string) string {
	if g == nil || g.db == nil {
		return ""
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	rec, err := g.db.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// Close releases the underlying database.
func (g *GeoLookup) Close() error {
	if g == nil || g.db == nil {
		return nil
	}
	return g.db.Close()
}
