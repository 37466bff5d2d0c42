package beast

import (
	"errors"
	"fmt"

	"adsbtrack/internal/adsb"
)

// Beast mode message types
const (
	SyncByte   = 0x1A // Beast mode sync byte, doubled when it appears in a message body
	ModeAC     = 0x31 // Mode A/C
	ModeS      = 0x32 // Mode S Short (56 bits)
	ModeSLong  = 0x33 // Mode S Long (112 bits)
	ModeStatus = 0x34 // Status
)

const (
	mlatBytes = 6
	mlatMask  = 1<<48 - 1
)

// mlatTicksPerUs is the rate of the 12 MHz Beast timestamp counter
const mlatTicksPerUs = 12

// ErrUnknownType is returned for message types other than the ones above
var ErrUnknownType = errors.New("unknown beast message type")

// Message is a Beast frame once unescaped
type Message struct {
	MessageType byte
	MLAT        uint64 // 48-bit 12 MHz counter
	Signal      byte
	Data        []byte
}

// dataLength returns the payload length of a message type
func dataLength(messageType byte) (int, error) {
	switch messageType {
	case ModeAC, ModeStatus:
		return 2, nil
	case ModeS:
		return 7, nil
	case ModeSLong:
		return adsb.FrameLength, nil
	}
	return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownType, messageType)
}

// FromRawFrame wraps a frame into a long Mode S message, deriving the counter from
// the frame timestamp
func FromRawFrame(frame adsb.RawFrame, signal byte) *Message {
	return &Message{
		MessageType: ModeSLong,
		MLAT:        (uint64(frame.TimestampNs) * mlatTicksPerUs / 1000) & mlatMask,
		Signal:      signal,
		Data:        frame.Bytes.Bytes(),
	}
}

// TimestampNs converts the counter to nanoseconds
func (msg *Message) TimestampNs() int64 {
	return int64(msg.MLAT * 1000 / mlatTicksPerUs)
}

// RawFrame returns the CRC-checked frame carried by a long Mode S message
func (msg *Message) RawFrame() (adsb.RawFrame, bool) {
	if msg.MessageType != ModeSLong || len(msg.Data) != adsb.FrameLength {
		return adsb.RawFrame{}, false
	}
	return adsb.NewRawFrame(msg.TimestampNs(), msg.Data)
}

// IsValid checks that the payload length matches the message type
func (msg *Message) IsValid() bool {
	n, err := dataLength(msg.MessageType)
	return err == nil && len(msg.Data) == n
}

// Encode serialises the message, escaping every sync byte of its body
func (msg *Message) Encode() ([]byte, error) {
	if !msg.IsValid() {
		return nil, fmt.Errorf("invalid beast message type 0x%02x with %d bytes", msg.MessageType, len(msg.Data))
	}

	out := make([]byte, 0, 2*(2+mlatBytes+1+len(msg.Data)))
	out = append(out, SyncByte, msg.MessageType)

	body := make([]byte, 0, mlatBytes+1+len(msg.Data))
	for i := mlatBytes - 1; i >= 0; i-- {
		body = append(body, byte(msg.MLAT>>(8*uint(i))))
	}
	body = append(body, msg.Signal)
	body = append(body, msg.Data...)

	for _, b := range body {
		out = append(out, b)
		if b == SyncByte {
			out = append(out, SyncByte)
		}
	}
	return out, nil
}
