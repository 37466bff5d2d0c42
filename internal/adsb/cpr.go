package adsb

import "math"

// nlNumerator is 1 - cos(2π/60), the constant part of the longitude zone formula
var nlNumerator = 1 - math.Cos(Turn/CPR_EVEN_ZONES)

// DecodePosition reconstructs a global position from the normalized local coordinates
// of an even (x0, y0) and an odd (x1, y1) position message. mostRecent selects which of
// the two candidate positions is returned. ok is false when the latitude is out of range
// or the aircraft crossed a longitude zone boundary between the two messages.
func DecodePosition(x0, y0, x1, y1 float64, mostRecent int) (pos GeoPos, ok bool) {
	if mostRecent != ParityEven && mostRecent != ParityOdd {
		panic("adsb: most recent parity must be 0 or 1")
	}

	latIdx0, latIdx1 := cprZoneIndices(y0, y1, CPR_EVEN_ZONES, CPR_ODD_ZONES)
	lat0 := recenter((float64(latIdx0) + y0) / CPR_EVEN_ZONES)
	lat1 := recenter((float64(latIdx1) + y1) / CPR_ODD_ZONES)

	if !IsValidLatitudeT32(roundT32(lat0)) || !IsValidLatitudeT32(roundT32(lat1)) {
		return GeoPos{}, false
	}

	evenZones, oddZones := 1, 1
	a0 := cprZoneAngle(lat0)
	if !math.IsNaN(a0) {
		evenZones = int(math.Floor(Turn / a0))
		a1 := cprZoneAngle(lat1)
		if math.IsNaN(a1) || evenZones != int(math.Floor(Turn/a1)) {
			return GeoPos{}, false
		}
		oddZones = evenZones - 1
	}

	lonIdx0, lonIdx1 := cprZoneIndices(x0, x1, evenZones, oddZones)
	lon0 := recenter((float64(lonIdx0) + x0) / float64(evenZones))
	lon1 := recenter((float64(lonIdx1) + x1) / float64(oddZones))

	lat, lon := lat0, lon0
	if mostRecent == ParityOdd {
		lat, lon = lat1, lon1
	}

	return GeoPos{LonT32: clampT32(roundT32(lon)), LatT32: clampT32(roundT32(lat))}, true
}

// cprZoneIndices returns the even and odd zone index of a coordinate pair, where the
// coordinate is divided into evenZones and oddZones zones respectively
func cprZoneIndices(c0, c1 float64, evenZones, oddZones int) (int, int) {
	zones := int(math.RoundToEven(c0*float64(oddZones) - c1*float64(evenZones)))
	if zones < 0 {
		return zones + evenZones, zones + oddZones
	}
	return zones, zones
}

// cprZoneAngle returns the angular width of a longitude zone at latitude lat (in turns),
// NaN near the poles
func cprZoneAngle(lat float64) float64 {
	c := math.Cos(Turn * lat)
	return math.Acos(1 - nlNumerator/(c*c))
}

// recenter maps an angle in turns from [0, 1) to [-0.5, 0.5)
func recenter(turns float64) float64 {
	if turns >= 0.5 {
		return turns - 1
	}
	return turns
}

func roundT32(turns float64) int64 {
	return int64(math.RoundToEven(TurnsToT32(turns)))
}

func clampT32(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
