package cpr

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// wgs84E2 is the WGS-84 first eccentricity squared, used to convert a
// geodetic latitude to the geocentric latitude the ECEF projection
// needs.
const wgs84E2 = 0.00669437999014

// earthRadiusMeters is the mean Earth radius used for the ECEF-style
// projection. The source's EARTH_RADIUS define was not present in the
// retrieved sources; this is the standard mean radius, close enough
// for dead-reckoning deltas over the seconds-to-minutes horizon this
// estimator operates on.
const earthRadiusMeters = 6371000.0

func geocentricLatitude(lat float64) float64 {
	return math.Atan((1.0 - wgs84E2) * math.Tan(lat))
}

// sphericalToCartesian projects a lat/lon (degrees) onto an ECEF-style
// sphere of radius earthRadiusMeters.
func sphericalToCartesian(lat, lon float64) r3.Vec {
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	geoLat := geocentricLatitude(latRad)

	return r3.Vec{
		X: earthRadiusMeters * math.Cos(lonRad) * math.Cos(geoLat),
		Y: earthRadiusMeters * math.Sin(lonRad) * math.Cos(geoLat),
		Z: earthRadiusMeters * math.Sin(geoLat),
	}
}

// cartesianToSpherical is the inverse projection, returning lat/lon in
// degrees.
func cartesianToSpherical(v r3.Vec) (lat, lon float64) {
	lon = 180 * math.Atan2(v.Y, v.X) / math.Pi
	geoLat := math.Atan2(v.Z, math.Hypot(v.X, v.Y))
	lat = 180 * math.Atan(math.Tan(geoLat)/(1.0-wgs84E2)) / math.Pi
	return lat, lon
}

// cartesianDistance is the planar (X,Y only) distance between two
// ECEF points, matching the source's deliberate choice to ignore the
// Z axis for short-range dead-reckoning deltas.
func cartesianDistance(a, b r3.Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// closestTo returns whichever of val1, val2 is nearer to val.
func closestTo(val, val1, val2 float64) float64 {
	if math.Abs(val2-val) > math.Abs(val1-val) {
		return val1
	}
	return val2
}

// Estimate holds the dead-reckoning state carried between position
// fixes: the last confirmed lat/lon, its ECEF projection, and the
// running best guess of distance-to-home.
type Estimate struct {
	Lat, Lon     float64
	SeenLast     time.Time
	HomeDistance float64
}

// NewEstimate seeds the estimator from a confirmed position fix.
func NewEstimate(lat, lon float64, seenLast time.Time) Estimate {
	return Estimate{Lat: lat, Lon: lon, SeenLast: seenLast}
}

// Advance integrates elapsed time at the given speed (knots) and
// heading (degrees) to project a new position, then recomputes the
// distance to home as whichever of the great-circle or Cartesian
// distance estimate is closer to the previous running estimate. It
// mirrors the source's guard: a zero speed or invalid heading leaves
// the estimate untouched.
func (e *Estimate) Advance(speedKt, headingDeg float64, headingValid bool, now time.Time, homeLat, homeLon float64) {
	if speedKt == 0 || !headingValid || now.Before(e.SeenLast) {
		return
	}

	cpos := sphericalToCartesian(e.Lat, e.Lon)

	heading := headingDeg
	if heading >= 180 {
		heading -= 360
	}
	headingRad := heading * math.Pi / 180

	elapsedMs := float64(now.Sub(e.SeenLast).Milliseconds())
	distance := 0.001852 * speedKt * elapsedMs
	e.SeenLast = now

	// deltaX is the eastward and deltaY the northward displacement; both
	// are applied along the local east and north directions at the
	// current position.
	deltaX := distance * math.Sin(headingRad)
	deltaY := distance * math.Cos(headingRad)
	geoLat := geocentricLatitude(e.Lat * math.Pi / 180)
	lonRad := e.Lon * math.Pi / 180
	cpos.X += -deltaX*math.Sin(lonRad) - deltaY*math.Sin(geoLat)*math.Cos(lonRad)
	cpos.Y += deltaX*math.Cos(lonRad) - deltaY*math.Sin(geoLat)*math.Sin(lonRad)
	cpos.Z += deltaY * math.Cos(geoLat)

	e.Lat, e.Lon = cartesianToSpherical(cpos)

	gcDistance := GreatCircleMeters(e.Lat, e.Lon, homeLat, homeLon)
	homeCart := sphericalToCartesian(homeLat, homeLon)
	cartDistance := cartesianDistance(cpos, homeCart)

	e.HomeDistance = closestTo(e.HomeDistance, gcDistance, cartDistance)
}
