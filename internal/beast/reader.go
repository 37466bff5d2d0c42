package beast

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
)

const readChunkSize = 4096

// FrameReader reads the extended squitter frames of a Beast stream
type FrameReader struct {
	r       io.Reader
	decoder *Decoder
	chunk   []byte
	pending []*Message
	eof     bool

	skipped atomic.Uint64
}

// NewFrameReader creates a reader of the Beast stream r
func NewFrameReader(r io.Reader, logger *logrus.Logger) *FrameReader {
	return &FrameReader{
		r:       r,
		decoder: NewDecoder(logger),
		chunk:   make([]byte, readChunkSize),
	}
}

// NextFrame returns the next long Mode S message passing the CRC check, or io.EOF at
// the end of the stream. Other messages are skipped.
func (fr *FrameReader) NextFrame() (adsb.RawFrame, error) {
	for {
		for len(fr.pending) > 0 {
			msg := fr.pending[0]
			fr.pending = fr.pending[1:]
			if frame, ok := msg.RawFrame(); ok {
				return frame, nil
			}
			fr.skipped.Add(1)
		}

		if fr.eof {
			return adsb.RawFrame{}, io.EOF
		}

		n, err := fr.r.Read(fr.chunk)
		if n > 0 {
			fr.pending = fr.decoder.Decode(fr.chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return adsb.RawFrame{}, fmt.Errorf("failed to read beast stream: %w", err)
			}
			fr.eof = true
		}
	}
}

// Skipped returns the number of messages that did not carry a valid frame. It is safe
// to call while another goroutine reads.
func (fr *FrameReader) Skipped() uint64 {
	return fr.skipped.Load()
}
