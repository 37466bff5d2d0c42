package adsb

// Frame layout constants
const (
	FrameLength     = 14  // bytes in an extended squitter frame
	FrameBits       = 112 // FrameLength * 8
	DFExtSquitter   = 17  // downlink format of ADS-B extended squitters
	MaxIdentTC      = 14  // base for the identification emitter category
	PayloadStart    = 4   // first payload (ME) byte
	PayloadEnd      = 11  // one past the last payload byte
	AddressStart    = 1   // first ICAO address byte
	AddressEnd      = 4   // one past the last ICAO address byte
	typeCodeStart   = 51
	typeCodeSize    = 5
	downlinkFmtBit  = 3
	downlinkFmtSize = 5
)

// ADS-B type code ranges handled by Decode
const (
	TC_IDENT_MIN      = 1
	TC_IDENT_MAX      = 4
	TC_AIRBORNE_POS1  = 9
	TC_AIRBORNE_POS1E = 18
	TC_AIRBORNE_VEL   = 19
	TC_AIRBORNE_POS2  = 20
	TC_AIRBORNE_POS2E = 22
)

// CPR decoding constants
const (
	CPR_LAT_BITS   = 17
	CPR_LON_BITS   = 17
	CPR_LAT_MAX    = 131072 // 2^17
	CPR_LON_MAX    = 131072 // 2^17
	CPR_EVEN_ZONES = 60     // latitude zones of even frames
	CPR_ODD_ZONES  = 59     // latitude zones of odd frames
)

// Parity values of position messages
const (
	ParityEven = 0
	ParityOdd  = 1
)
