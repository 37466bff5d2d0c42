package adsb

// Decode returns the message carried by frame, or ok=false when the type code is not
// handled or one of its fields is invalid
func Decode(frame RawFrame) (msg Message, ok bool) {
	tc := frame.GetTypeCode()

	switch {
	case tc >= TC_IDENT_MIN && tc <= TC_IDENT_MAX:
		if m := decodeIdentification(frame); m != nil {
			return m, true
		}
	case (tc >= TC_AIRBORNE_POS1 && tc <= TC_AIRBORNE_POS1E) ||
		(tc >= TC_AIRBORNE_POS2 && tc <= TC_AIRBORNE_POS2E):
		if m := decodePosition(frame); m != nil {
			return m, true
		}
	case tc == TC_AIRBORNE_VEL:
		if m := decodeVelocity(frame); m != nil {
			return m, true
		}
	}

	return nil, false
}
