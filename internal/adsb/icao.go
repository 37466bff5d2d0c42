package adsb

import (
	"fmt"
	"regexp"
)

var icaoPattern = regexp.MustCompile(`^[0-9A-F]{6}$`)

// IcaoAddress is the 24-bit aircraft address written as 6 uppercase hex digits
type IcaoAddress string

// ParseIcaoAddress validates s as an ICAO address
func ParseIcaoAddress(s string) (IcaoAddress, error) {
	if !icaoPattern.MatchString(s) {
		return "", fmt.Errorf("invalid ICAO address %q", s)
	}
	return IcaoAddress(s), nil
}

// IcaoAddressFromUint32 formats the low 24 bits of v as an address
func IcaoAddressFromUint32(v uint32) IcaoAddress {
	return IcaoAddress(fmt.Sprintf("%06X", v&0xFFFFFF))
}

func (a IcaoAddress) String() string {
	return string(a)
}
