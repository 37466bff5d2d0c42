package registry

import (
	"errors"
	"fmt"
	"regexp"

	"adsbtrack/internal/adsb"
)

// ErrNotFound is returned when an address has no entry in the registry
var ErrNotFound = errors.New("aircraft not found in registry")

// Registry looks up the static information of an aircraft from its address
type Registry interface {
	Lookup(addr adsb.IcaoAddress) (AircraftInfo, error)
}

// WakeTurbulenceCategory is the ICAO wake turbulence category of an aircraft type
type WakeTurbulenceCategory int

// Wake turbulence categories
const (
	WakeUnknown WakeTurbulenceCategory = iota
	WakeLight
	WakeMedium
	WakeHeavy
)

// ParseWakeTurbulenceCategory maps the single letter code of a category; anything
// other than L, M or H is unknown
func ParseWakeTurbulenceCategory(s string) WakeTurbulenceCategory {
	switch s {
	case "L":
		return WakeLight
	case "M":
		return WakeMedium
	case "H":
		return WakeHeavy
	}
	return WakeUnknown
}

func (c WakeTurbulenceCategory) String() string {
	switch c {
	case WakeLight:
		return "L"
	case WakeMedium:
		return "M"
	case WakeHeavy:
		return "H"
	}
	return ""
}

var (
	registrationPattern   = regexp.MustCompile(`^[A-Z0-9 .?/_+-]+$`)
	typeDesignatorPattern = regexp.MustCompile(`^[A-Z0-9]{2,4}$`)
	descriptionPattern    = regexp.MustCompile(`^[ABDGHLPRSTV-][0123468][EJPT-]$`)
)

// AircraftInfo holds the registry data of an aircraft
type AircraftInfo struct {
	Registration   string
	TypeDesignator string
	Model          string
	Description    string
	WakeTurbulence WakeTurbulenceCategory
}

// Validate checks the format of every field
func (i AircraftInfo) Validate() error {
	if !registrationPattern.MatchString(i.Registration) {
		return fmt.Errorf("invalid registration %q", i.Registration)
	}
	if i.TypeDesignator != "" && !typeDesignatorPattern.MatchString(i.TypeDesignator) {
		return fmt.Errorf("invalid type designator %q", i.TypeDesignator)
	}
	if i.Description != "" && !descriptionPattern.MatchString(i.Description) {
		return fmt.Errorf("invalid aircraft description %q", i.Description)
	}
	return nil
}

// parseRecord builds the info from a registry record
// ICAO,registration,type designator,model,description,wake turbulence category
func parseRecord(record []string) (AircraftInfo, error) {
	if len(record) != 6 {
		return AircraftInfo{}, fmt.Errorf("registry record has %d fields, want 6", len(record))
	}
	info := AircraftInfo{
		Registration:   record[1],
		TypeDesignator: record[2],
		Model:          record[3],
		Description:    record[4],
		WakeTurbulence: ParseWakeTurbulenceCategory(record[5]),
	}
	if err := info.Validate(); err != nil {
		return AircraftInfo{}, fmt.Errorf("registry entry %s: %w", record[0], err)
	}
	return info, nil
}
