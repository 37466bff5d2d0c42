package adsb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identificationFrame builds a type code 4 identification frame for the given call sign
func identificationFrame(t *testing.T, address uint32, callSign string) []byte {
	t.Helper()

	payload := uint64(4) << 51
	for i := 0; i < 8; i++ {
		c := byte(' ')
		if i < len(callSign) {
			c = callSign[i]
		}
		code := uint64(32)
		switch {
		case c >= 'A' && c <= 'Z':
			code = uint64(c-'A') + 1
		case c >= '0' && c <= '9':
			code = uint64(c-'0') + 48
		}
		payload |= code << uint(42-6*i)
	}

	data := make([]byte, 0, FrameLength)
	data = append(data, 0x8D, byte(address>>16), byte(address>>8), byte(address))
	for i := 6; i >= 0; i-- {
		data = append(data, byte(payload>>uint(8*i)))
	}
	crc := CalculateCRC(data)
	return append(data, byte(crc>>16), byte(crc>>8), byte(crc))
}

// TestDecode_Identification tests decoding of identification messages
func TestDecode_Identification(t *testing.T) {
	tests := []struct {
		name     string
		hex      string
		address  IcaoAddress
		category uint8
		callSign CallSign
	}{
		{name: "KLM", hex: "8D4840D6202CC371C32CE0576098", address: "4840D6", category: 0xA0, callSign: "KLM1023"},
		{name: "Ryanair", hex: "8D4D2228234994B7284820323B81", address: "4D2228", category: 0xA3, callSign: "RYR7JD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Decode(mustFrame(t, 1000, tt.hex))
			require.True(t, ok)
			ident, isIdent := msg.(*Identification)
			require.True(t, isIdent, "got %T", msg)
			assert.Equal(t, int64(1000), ident.Timestamp())
			assert.Equal(t, tt.address, ident.ICAO())
			assert.Equal(t, tt.category, ident.Category)
			assert.Equal(t, tt.callSign, ident.CallSign)
		})
	}
}

// TestDecode_IdentificationEndToEnd tests the decoding of a built identification frame
func TestDecode_IdentificationEndToEnd(t *testing.T) {
	data := identificationFrame(t, 0x4B17E5, "JAVIONS")

	frame, ok := NewRawFrame(0, data)
	require.True(t, ok)

	msg, ok := Decode(frame)
	require.True(t, ok)
	assert.Equal(t, &Identification{
		Header:   Header{TimestampNs: 0, Address: "4B17E5"},
		Category: 0xA0,
		CallSign: "JAVIONS",
	}, msg)

	data[5] ^= 0x01
	_, ok = NewRawFrame(0, data)
	assert.False(t, ok)
}

// TestDecode_InvalidCallSignCharacter tests that an unmapped character drops the message
func TestDecode_InvalidCallSignCharacter(t *testing.T) {
	data := identificationFrame(t, 0x4B17E5, "JAVIONS")
	// replace the first character code (bits 42..47 of the payload) with 0
	data[5] &^= 0xFC
	crc := CalculateCRC(data[:11])
	data[11], data[12], data[13] = byte(crc>>16), byte(crc>>8), byte(crc)

	frame, ok := NewRawFrame(0, data)
	require.True(t, ok)
	_, ok = Decode(frame)
	assert.False(t, ok)
}

// TestDecode_Position tests decoding of airborne position messages
func TestDecode_Position(t *testing.T) {
	tests := []struct {
		name   string
		hex    string
		parity int
		lat    float64
		lon    float64
	}{
		{name: "even", hex: "8D40621D58C382D690C8AC2863A7", parity: ParityEven, lat: 93000, lon: 51372},
		{name: "odd", hex: "8D40621D58C386435CC412692AD6", parity: ParityOdd, lat: 74158, lon: 50194},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Decode(mustFrame(t, 0, tt.hex))
			require.True(t, ok)
			pos, isPos := msg.(*Position)
			require.True(t, isPos, "got %T", msg)
			assert.Equal(t, IcaoAddress("40621D"), pos.Address)
			assert.InDelta(t, 38000*Foot, pos.AltitudeM, 1e-9)
			assert.Equal(t, tt.parity, pos.Parity)
			assert.Equal(t, tt.lat/CPR_LAT_MAX, pos.Y)
			assert.Equal(t, tt.lon/CPR_LON_MAX, pos.X)
		})
	}
}

// TestDecode_Velocity tests decoding of ground speed and air speed messages
func TestDecode_Velocity(t *testing.T) {
	tests := []struct {
		name  string
		hex   string
		speed float64
		angle float64
	}{
		{name: "ground speed", hex: "8D485020994409940838175B284F", speed: 81.90013721, angle: 3.19186472559},
		{name: "air speed", hex: "8DA05F219B06B6AF189400CBC33F", speed: 192.9166667, angle: 4.25833066717},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Decode(mustFrame(t, 0, tt.hex))
			require.True(t, ok)
			vel, isVel := msg.(*Velocity)
			require.True(t, isVel, "got %T", msg)
			assert.InDelta(t, tt.speed, vel.SpeedMps, 1e-6)
			assert.InDelta(t, tt.angle, vel.TrackOrHeadingRad, 1e-9)
			assert.GreaterOrEqual(t, vel.TrackOrHeadingRad, 0.0)
			assert.Less(t, vel.TrackOrHeadingRad, 2*math.Pi)
		})
	}
}

// TestDecodeVelocity_SpeedInfo tests velocity edge cases on synthetic payloads
func TestDecodeVelocity_SpeedInfo(t *testing.T) {
	header := func(subtype uint64, info uint64) RawFrame {
		payload := uint64(TC_AIRBORNE_VEL)<<51 | subtype<<48 | info<<21
		data := []byte{0x8D, 0x12, 0x34, 0x56}
		for i := 6; i >= 0; i-- {
			data = append(data, byte(payload>>uint(8*i)))
		}
		crc := CalculateCRC(data)
		data = append(data, byte(crc>>16), byte(crc>>8), byte(crc))
		frame, ok := NewRawFrame(0, data)
		require.True(t, ok)
		return frame
	}

	tests := []struct {
		name    string
		subtype uint64
		info    uint64
		ok      bool
		speedKt float64
		angle   float64
	}{
		{name: "north", subtype: 1, info: 101 | 1<<11, ok: true, speedKt: 100, angle: 0},
		{name: "east", subtype: 1, info: 1 | 101<<11, ok: true, speedKt: 100, angle: math.Pi / 2},
		{name: "south west", subtype: 1, info: 101 | 1<<10 | 101<<11 | 1<<21, ok: true, speedKt: 100 * math.Sqrt2, angle: 5 * math.Pi / 4},
		{name: "supersonic ground", subtype: 2, info: 101 | 1<<11, ok: true, speedKt: 400, angle: 0},
		{name: "north/south unavailable", subtype: 1, info: 0 | 5<<11, ok: false},
		{name: "east/west unavailable", subtype: 1, info: 5, ok: false},
		{name: "airspeed", subtype: 3, info: 251 | 256<<11 | 1<<21, ok: true, speedKt: 250, angle: math.Pi / 2},
		{name: "supersonic airspeed", subtype: 4, info: 251 | 512<<11 | 1<<21, ok: true, speedKt: 1000, angle: math.Pi},
		{name: "heading unavailable", subtype: 3, info: 251 | 256<<11, ok: false},
		{name: "airspeed unavailable", subtype: 3, info: 256<<11 | 1<<21, ok: false},
		{name: "reserved subtype", subtype: 5, info: 251 | 1<<21, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Decode(header(tt.subtype, tt.info))
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			vel := msg.(*Velocity)
			assert.InDelta(t, KnotsToMps(tt.speedKt), vel.SpeedMps, 1e-9)
			assert.InDelta(t, tt.angle, vel.TrackOrHeadingRad, 1e-9)
		})
	}
}

// TestDecode_UnhandledTypeCodes tests that other type codes are not decodable
func TestDecode_UnhandledTypeCodes(t *testing.T) {
	for _, tc := range []uint64{0, 5, 6, 7, 8, 23, 28, 31} {
		payload := tc << 51
		data := []byte{0x8D, 0x12, 0x34, 0x56}
		for i := 6; i >= 0; i-- {
			data = append(data, byte(payload>>uint(8*i)))
		}
		crc := CalculateCRC(data)
		data = append(data, byte(crc>>16), byte(crc>>8), byte(crc))

		frame, ok := NewRawFrame(0, data)
		require.True(t, ok)
		_, ok = Decode(frame)
		assert.False(t, ok, "type code %d", tc)
	}
}
