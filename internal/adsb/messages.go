package adsb

import (
	"fmt"
	"math"

	"adsbtrack/internal/bits"
)

// Message is a decoded ADS-B message. The concrete types are *Identification,
// *Position and *Velocity.
type Message interface {
	Timestamp() int64
	ICAO() IcaoAddress
	isMessage()
}

// Header holds the fields common to every message
type Header struct {
	TimestampNs int64
	Address     IcaoAddress
}

// Timestamp returns the reception time in nanoseconds since the start of the stream
func (h Header) Timestamp() int64 { return h.TimestampNs }

// ICAO returns the address of the emitter
func (h Header) ICAO() IcaoAddress { return h.Address }

func (Header) isMessage() {}

// Identification carries the emitter category and call sign (type codes 1 to 4)
type Identification struct {
	Header
	Category uint8
	CallSign CallSign
}

// Position carries the barometric altitude and one CPR encoded position (type codes 9 to 18, 20 to 22)
type Position struct {
	Header
	AltitudeM float64
	Parity    int
	X         float64 // normalized CPR longitude in [0, 1)
	Y         float64 // normalized CPR latitude in [0, 1)
}

// Velocity carries the speed and the track or heading (type code 19)
type Velocity struct {
	Header
	SpeedMps          float64
	TrackOrHeadingRad float64
}

func (m *Identification) String() string {
	return fmt.Sprintf("Identification{%d, %s, 0x%02X, %q}", m.TimestampNs, m.Address, m.Category, m.CallSign)
}

func (m *Position) String() string {
	return fmt.Sprintf("Position{%d, %s, %.2fm, parity=%d, x=%.6f, y=%.6f}",
		m.TimestampNs, m.Address, m.AltitudeM, m.Parity, m.X, m.Y)
}

func (m *Velocity) String() string {
	return fmt.Sprintf("Velocity{%d, %s, %.2fm/s, %.2f°}",
		m.TimestampNs, m.Address, m.SpeedMps, m.TrackOrHeadingRad/Degree)
}

const identCharset = "?ABCDEFGHIJKLMNOPQRSTUVWXYZ????? ???????????????0123456789??????"

// decodeIdentification returns nil when any of the eight characters is invalid
func decodeIdentification(frame RawFrame) *Identification {
	payload := frame.Payload()
	tc := PayloadTypeCode(payload)
	ca := bits.ExtractUint(payload, 48, 3)

	chars := make([]byte, 0, 8)
	for i := 0; i < 8; i++ {
		c := identCharset[bits.ExtractUint(payload, 42-6*i, 6)]
		if c == '?' {
			return nil
		}
		chars = append(chars, c)
	}

	return &Identification{
		Header:   Header{TimestampNs: frame.TimestampNs, Address: frame.GetICAO()},
		Category: uint8((MaxIdentTC-tc)<<4) | uint8(ca),
		CallSign: CallSign(trimRight(chars)),
	}
}

func trimRight(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}

// decodePosition returns nil when the altitude field is invalid
func decodePosition(frame RawFrame) *Position {
	payload := frame.Payload()

	altFt, ok := DecodeAltitude(bits.ExtractUint(payload, 36, 12))
	if !ok {
		return nil
	}

	return &Position{
		Header:    Header{TimestampNs: frame.TimestampNs, Address: frame.GetICAO()},
		AltitudeM: FeetToMeters(float64(altFt)),
		Parity:    int(bits.ExtractUint(payload, 34, 1)),
		X:         math.Ldexp(float64(bits.ExtractUint(payload, 0, CPR_LON_BITS)), -CPR_LON_BITS),
		Y:         math.Ldexp(float64(bits.ExtractUint(payload, 17, CPR_LAT_BITS)), -CPR_LAT_BITS),
	}
}

// decodeVelocity handles subtypes 1 to 4; anything else, or a zero speed component, is dropped
func decodeVelocity(frame RawFrame) *Velocity {
	payload := frame.Payload()
	subtype := bits.ExtractUint(payload, 48, 3)
	info := uint64(bits.ExtractUint(payload, 21, 22))

	var speedKt, angle float64
	switch subtype {
	case 1, 2:
		vns := bits.ExtractUint(info, 0, 10)
		vew := bits.ExtractUint(info, 11, 10)
		if vns == 0 || vew == 0 {
			return nil
		}
		vy := float64(vns) - 1
		if bits.TestBit(info, 10) {
			vy = -vy
		}
		vx := float64(vew) - 1
		if bits.TestBit(info, 21) {
			vx = -vx
		}
		angle = math.Atan2(vx, vy)
		if angle < 0 {
			angle += Turn
		}
		speedKt = math.Hypot(vx, vy)
		if subtype == 2 {
			speedKt *= 4
		}
	case 3, 4:
		if !bits.TestBit(info, 21) {
			return nil
		}
		as := bits.ExtractUint(info, 0, 10)
		if as == 0 {
			return nil
		}
		speedKt = float64(as) - 1
		if subtype == 4 {
			speedKt *= 4
		}
		angle = float64(bits.ExtractUint(info, 11, 10)) / 1024 * Turn
	default:
		return nil
	}

	return &Velocity{
		Header:            Header{TimestampNs: frame.TimestampNs, Address: frame.GetICAO()},
		SpeedMps:          KnotsToMps(speedKt),
		TrackOrHeadingRad: angle,
	}
}
