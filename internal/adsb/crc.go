package adsb

// ADS-B CRC-24 polynomial constant (Mode S standard)
const MODES_GENERATOR_POLY = 0xfff409

const (
	crcBits     = 24
	crcMask     = 1<<crcBits - 1
	crcTableLen = 256
)

// defaultCRC is the checksum used to validate every received frame
var defaultCRC = NewCrc24(MODES_GENERATOR_POLY)

// Crc24 computes 24-bit cyclic redundancy checks with a precomputed byte table
type Crc24 struct {
	table [crcTableLen]uint32
}

// NewCrc24 builds the lookup table for the given 24-bit generator
func NewCrc24(generator uint32) *Crc24 {
	c := &Crc24{}
	for i := 0; i < crcTableLen; i++ {
		c.table[i] = crcBitwise(generator&crcMask, []byte{byte(i)})
	}
	return c
}

// crcBitwise simulates the CRC register one bit at a time, followed by 24 zero bits
func crcBitwise(generator uint32, data []byte) uint32 {
	table := [2]uint32{0, generator}
	var crc uint32

	for _, b := range data {
		for j := 7; j >= 0; j-- {
			top := (crc >> (crcBits - 1)) & 1
			crc = ((crc << 1) | uint32(b>>uint(j))&1) ^ table[top]
		}
	}
	for j := 0; j < crcBits; j++ {
		top := (crc >> (crcBits - 1)) & 1
		crc = (crc << 1) ^ table[top]
	}

	return crc & crcMask
}

// Checksum returns the CRC-24 of data. A frame carrying its own checksum in its last
// three bytes has a checksum of zero.
func (c *Crc24) Checksum(data []byte) uint32 {
	var crc uint32

	for _, b := range data {
		crc = ((crc << 8) | uint32(b)) ^ c.table[(crc>>(crcBits-8))&0xff]
		crc &= crcMask
	}

	// Flush the register with three zero bytes
	for i := 0; i < 3; i++ {
		crc = (crc << 8) ^ c.table[(crc>>(crcBits-8))&0xff]
		crc &= crcMask
	}

	return crc
}

// CalculateCRC calculates the ADS-B CRC-24 checksum using the Mode S generator
func CalculateCRC(data []byte) uint32 {
	return defaultCRC.Checksum(data)
}
