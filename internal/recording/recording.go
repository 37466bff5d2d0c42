// Package recording reads and writes recorded frame files: a sequence of records made of
// an 8-byte big-endian timestamp in nanoseconds followed by the 14 bytes of the frame.
package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"adsbtrack/internal/adsb"
)

// RecordSize is the size in bytes of one record
const RecordSize = 8 + adsb.FrameLength

// Reader reads frames from a recording
type Reader struct {
	r       *bufio.Reader
	buf     [RecordSize]byte
	skipped atomic.Uint64
}

// NewReader creates a reader of the recording in r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// NextFrame returns the next frame of the recording, or io.EOF at its end. Records
// failing the CRC check are skipped.
func (r *Reader) NextFrame() (adsb.RawFrame, error) {
	for {
		if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return adsb.RawFrame{}, io.EOF
			}
			return adsb.RawFrame{}, fmt.Errorf("failed to read record: %w", err)
		}

		ts := int64(binary.BigEndian.Uint64(r.buf[:8]))
		if ts < 0 {
			return adsb.RawFrame{}, fmt.Errorf("invalid record timestamp %d", ts)
		}
		if frame, ok := adsb.NewRawFrame(ts, r.buf[8:]); ok {
			return frame, nil
		}
		r.skipped.Add(1)
	}
}

// Skipped returns the number of records dropped for a bad CRC
func (r *Reader) Skipped() uint64 {
	return r.skipped.Load()
}

// Writer appends frames to a recording
type Writer struct {
	w   *bufio.Writer
	buf [RecordSize]byte
}

// NewWriter creates a writer of a recording into w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends frame to the recording
func (w *Writer) Write(frame adsb.RawFrame) error {
	binary.BigEndian.PutUint64(w.buf[:8], uint64(frame.TimestampNs))
	copy(w.buf[8:], frame.Bytes.Bytes())
	if _, err := w.w.Write(w.buf[:]); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Flush writes buffered records to the underlying writer
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush recording: %w", err)
	}
	return nil
}
