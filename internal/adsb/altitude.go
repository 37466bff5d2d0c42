package adsb

import "adsbtrack/internal/bits"

// altitudePermutation maps destination bit i to source bit altitudePermutation[i] of a
// Gillham (Q=0) altitude field, reordering it as D1 D2 D4 A1 A2 A4 B1 B2 B4 C1 C2 C4
var altitudePermutation = [12]int{7, 9, 11, 1, 3, 5, 6, 8, 10, 0, 2, 4}

const qBit = 4

// GrayDecode converts a reflected binary Gray code value to its plain binary value
func GrayDecode(g uint32) uint32 {
	for shift := uint(1); shift <= 16; shift <<= 1 {
		g ^= g >> shift
	}
	return g
}

// GrayEncode converts a plain binary value to its Gray code
func GrayEncode(v uint32) uint32 {
	return v ^ (v >> 1)
}

// DecodeAltitude decodes the 12-bit altitude field of an airborne position message into
// feet. ok is false for the reserved and invalid encodings.
func DecodeAltitude(field uint32) (feet int, ok bool) {
	if bits.TestBit(uint64(field), qBit) {
		n := (field>>(qBit+1))<<qBit | field&(1<<qBit-1)
		return int(n)*25 - 1000, true
	}

	var r uint32
	for i, src := range altitudePermutation {
		r |= ((field >> uint(src)) & 1) << uint(i)
	}

	strong := int(GrayDecode(bits.ExtractUint(uint64(r), 3, 9)))
	weak := int(GrayDecode(bits.ExtractUint(uint64(r), 0, 3)))

	switch weak {
	case 0, 5, 6:
		return 0, false
	case 7:
		weak = 5
	}
	if strong%2 == 1 {
		weak = 6 - weak
	}

	return strong*500 + weak*100 - 1300, true
}
