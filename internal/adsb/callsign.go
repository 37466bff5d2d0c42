package adsb

import (
	"fmt"
	"regexp"
)

var callSignPattern = regexp.MustCompile(`^[A-Z0-9 ]{0,8}$`)

// CallSign is the flight identification broadcast by an aircraft
type CallSign string

// NewCallSign validates s as a call sign
func NewCallSign(s string) (CallSign, error) {
	if !callSignPattern.MatchString(s) {
		return "", fmt.Errorf("invalid call sign %q", s)
	}
	return CallSign(s), nil
}

func (c CallSign) String() string {
	return string(c)
}
