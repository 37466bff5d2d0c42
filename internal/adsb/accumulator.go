package adsb

import "fmt"

// PositionPairingWindowNs is the largest gap between an even and an odd position
// message for them to be decoded together
const PositionPairingWindowNs = int64(10e9)

// AircraftState accumulates the messages of a single aircraft. It is not safe for
// concurrent use.
type AircraftState struct {
	Address           IcaoAddress
	LastMessageTs     int64
	Category          uint8
	CallSign          CallSign
	Position          *GeoPos
	AltitudeM         float64
	VelocityMps       float64
	TrackOrHeadingRad float64

	positions [2]*Position
}

// NewAircraftState creates an empty state for the aircraft with the given address
func NewAircraftState(address IcaoAddress) *AircraftState {
	return &AircraftState{Address: address}
}

// Update folds msg into the state and reports whether the global position changed
func (s *AircraftState) Update(msg Message) bool {
	s.LastMessageTs = msg.Timestamp()

	switch m := msg.(type) {
	case *Identification:
		s.Category = m.Category
		s.CallSign = m.CallSign
	case *Position:
		return s.updatePosition(m)
	case *Velocity:
		s.VelocityMps = m.SpeedMps
		s.TrackOrHeadingRad = m.TrackOrHeadingRad
	default:
		panic(fmt.Sprintf("adsb: unexpected message type %T", msg))
	}

	return false
}

func (s *AircraftState) updatePosition(m *Position) bool {
	s.AltitudeM = m.AltitudeM
	s.positions[m.Parity] = m

	even, odd := s.positions[ParityEven], s.positions[ParityOdd]
	if even == nil || odd == nil {
		return false
	}
	if abs64(even.TimestampNs-odd.TimestampNs) > PositionPairingWindowNs {
		return false
	}

	pos, ok := DecodePosition(even.X, even.Y, odd.X, odd.Y, m.Parity)
	if !ok {
		return false
	}
	s.Position = &pos
	return true
}

// HasPosition reports whether a global position has been decoded
func (s *AircraftState) HasPosition() bool {
	return s.Position != nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
