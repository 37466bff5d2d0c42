// Package bits provides the fixed-width bit field helpers and the immutable byte
// sequence used to pick Mode S frames apart.
package bits

import "fmt"

// ExtractUint returns the unsigned field of size bits of value that starts at bit
// start, bit 0 being the least significant one.
//
// It panics if size is not in (0, 32) or if the field does not fit in 64 bits.
func ExtractUint(value uint64, start, size int) uint32 {
	if size <= 0 || size >= 32 {
		panic(fmt.Sprintf("bits: invalid field size %d", size))
	}
	if start < 0 || start+size > 64 {
		panic(fmt.Sprintf("bits: field [%d, %d) out of range", start, start+size))
	}
	return uint32((value >> uint(start)) & (1<<uint(size) - 1))
}

// TestBit reports whether bit index of value is set. It panics if index is not in [0, 64).
func TestBit(value uint64, index int) bool {
	if index < 0 || index >= 64 {
		panic(fmt.Sprintf("bits: bit index %d out of range", index))
	}
	return value&(1<<uint(index)) != 0
}
