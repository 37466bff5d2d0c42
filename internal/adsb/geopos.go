package adsb

import (
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const maxLatitudeT32 = 1 << 30

// GeoPos is a position on the earth in T32 units (a full turn is 2^32)
type GeoPos struct {
	LonT32 int32
	LatT32 int32
}

// IsValidLatitudeT32 reports whether lat lies between -90 and 90 degrees
func IsValidLatitudeT32(lat int64) bool {
	return lat >= -maxLatitudeT32 && lat <= maxLatitudeT32
}

// Longitude returns the longitude in radians
func (p GeoPos) Longitude() float64 {
	return T32ToRadians(int64(p.LonT32))
}

// Latitude returns the latitude in radians
func (p GeoPos) Latitude() float64 {
	return T32ToRadians(int64(p.LatT32))
}

// LatLng returns the position as an s2 point
func (p GeoPos) LatLng() s2.LatLng {
	return s2.LatLng{Lat: s1.Angle(p.Latitude()), Lng: s1.Angle(p.Longitude())}
}

func (p GeoPos) String() string {
	ll := p.LatLng()
	return fmt.Sprintf("(%.6f°, %.6f°)", ll.Lng.Degrees(), ll.Lat.Degrees())
}
