package adsb

import (
	"fmt"

	"adsbtrack/internal/bits"
)

// RawFrame is a 112-bit extended squitter whose CRC has been verified
type RawFrame struct {
	TimestampNs int64
	Bytes       bits.ByteString
}

// NewRawFrame returns the frame made of data received at timestampNs. ok is false when
// the CRC of data is not zero, in which case no frame exists.
//
// It panics if timestampNs is negative or data is not FrameLength bytes long.
func NewRawFrame(timestampNs int64, data []byte) (frame RawFrame, ok bool) {
	if timestampNs < 0 {
		panic(fmt.Sprintf("adsb: negative frame timestamp %d", timestampNs))
	}
	if len(data) != FrameLength {
		panic(fmt.Sprintf("adsb: frame of %d bytes, want %d", len(data), FrameLength))
	}
	if CalculateCRC(data) != 0 {
		return RawFrame{}, false
	}
	return RawFrame{TimestampNs: timestampNs, Bytes: bits.NewByteString(data)}, true
}

// FrameSize returns the length in bytes of the frame whose first byte is byte0, or 0
// when its downlink format is not one this decoder handles
func FrameSize(byte0 byte) int {
	if bits.ExtractUint(uint64(byte0), downlinkFmtBit, downlinkFmtSize) == DFExtSquitter {
		return FrameLength
	}
	return 0
}

// PayloadTypeCode extracts the type code from a 56-bit payload
func PayloadTypeCode(payload uint64) int {
	return int(bits.ExtractUint(payload, typeCodeStart, typeCodeSize))
}

// GetDF extracts Downlink Format from the frame
func (f RawFrame) GetDF() int {
	return int(bits.ExtractUint(uint64(f.Bytes.ByteAt(0)), downlinkFmtBit, downlinkFmtSize))
}

// GetTypeCode extracts the Type Code of the extended squitter payload
func (f RawFrame) GetTypeCode() int {
	return PayloadTypeCode(f.Payload())
}

// Payload returns the 56-bit ME field
func (f RawFrame) Payload() uint64 {
	return f.Bytes.BytesInRange(PayloadStart, PayloadEnd)
}

// GetICAO extracts the ICAO address of the emitter
func (f RawFrame) GetICAO() IcaoAddress {
	return IcaoAddressFromUint32(uint32(f.Bytes.BytesInRange(AddressStart, AddressEnd)))
}

func (f RawFrame) String() string {
	return fmt.Sprintf("%d:%s", f.TimestampNs, f.Bytes)
}
