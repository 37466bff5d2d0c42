package adsb

import "math"

// Unit definitions, all expressed in SI base units (metre, second, radian)
const (
	Foot         = 0.3048
	NauticalMile = 1852.0
	Hour         = 3600.0
	Knot         = NauticalMile / Hour // metres per second
	Turn         = 2 * math.Pi         // radians
	Degree       = Turn / 360
)

// T32 is the angle unit where a full turn is 2^32
var T32 = Turn / math.Ldexp(1, 32)

// FeetToMeters converts an altitude in feet to metres
func FeetToMeters(ft float64) float64 {
	return ft * Foot
}

// KnotsToMps converts a speed in knots to metres per second
func KnotsToMps(kt float64) float64 {
	return kt * Knot
}

// TurnsToT32 converts an angle in turns to T32 units
func TurnsToT32(turns float64) float64 {
	return math.Ldexp(turns, 32)
}

// T32ToRadians converts an angle in T32 units to radians
func T32ToRadians(t32 int64) float64 {
	return float64(t32) * T32
}
