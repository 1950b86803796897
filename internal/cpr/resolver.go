package cpr

import (
	"math"
	"time"
)

const (
	airDlat0 = 360.0 / 60.0
	airDlat1 = 360.0 / 59.0
	cprMax   = 131072.0 // 2^17
)

// maxPairAge is the longest gap between an odd and an even sample that
// the global resolver will still pair up.
const maxPairAge = 10 * time.Minute

// ResolveGlobal decodes a globally unambiguous position from one even
// and one odd raw CPR sample, each a 17-bit latitude/longitude pair.
// It returns ok=false if the pair straddles a latitude zone boundary
// or the two samples were received more than 10 minutes apart.
func ResolveGlobal(evenLat, evenLon, oddLat, oddLon uint32, evenTime, oddTime time.Time) (lat, lon float64, ok bool) {
	gap := oddTime.Sub(evenTime)
	if gap < 0 {
		gap = -gap
	}
	if gap > maxPairAge {
		return 0, 0, false
	}

	lat0, lon0 := float64(evenLat), float64(evenLon)
	lat1, lon1 := float64(oddLat), float64(oddLon)

	j := int(math.Floor((59*lat0-60*lat1)/cprMax + 0.5))

	rlat0 := airDlat0 * (float64(modInt(j, 60)) + lat0/cprMax)
	rlat1 := airDlat1 * (float64(modInt(j, 59)) + lat1/cprMax)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}
	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	nl0, nl1 := NLTable(rlat0), NLTable(rlat1)
	if nl0 != nl1 {
		return 0, 0, false
	}

	var rlat, rlon float64
	if oddTime.After(evenTime) {
		ni := nFunction(rlat1, 1)
		m := int(math.Floor((lon0*float64(nl1-1)-lon1*float64(nl1))/cprMax + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(modInt(m, ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		ni := nFunction(rlat0, 0)
		m := int(math.Floor((lon0*float64(nl0-1)-lon1*float64(nl0))/cprMax + 0.5))
		rlon = (360.0 / float64(ni)) * (float64(modInt(m, ni)) + lon0/cprMax)
		rlat = rlat0
	}

	rlon -= math.Floor((rlon+180)/360) * 360
	return rlat, rlon, true
}
