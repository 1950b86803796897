package cpr

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// GreatCircleMeters returns the great-circle distance in meters
// between two lat/lon points. lat/lon are in degrees; orb.Point is
// (lon, lat) order.
func GreatCircleMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.Distance(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}
