package demod

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// SAMPLE_BIAS centers the unsigned 12-bit samples around zero
const SAMPLE_BIAS = 2048

const bytesPerSample = 2

// SampleDecoder converts a stream of little-endian 12-bit samples into signed samples
type SampleDecoder struct {
	r         io.Reader
	batchSize int
	buf       []byte
}

// NewSampleDecoder creates a decoder producing batches of batchSize samples.
// It panics if batchSize is not positive.
func NewSampleDecoder(r io.Reader, batchSize int) *SampleDecoder {
	if batchSize <= 0 {
		panic(fmt.Sprintf("demod: invalid sample batch size %d", batchSize))
	}
	return &SampleDecoder{
		r:         r,
		batchSize: batchSize,
		buf:       make([]byte, batchSize*bytesPerSample),
	}
}

// BatchSize returns the number of samples produced by a full batch
func (d *SampleDecoder) BatchSize() int {
	return d.batchSize
}

// ReadBatch fills batch[:BatchSize()] and returns the number of samples decoded, which
// is less than a full batch only at the end of the stream
func (d *SampleDecoder) ReadBatch(batch []int16) (int, error) {
	if len(batch) < d.batchSize {
		panic(fmt.Sprintf("demod: sample batch of %d, want %d", len(batch), d.batchSize))
	}

	n, err := io.ReadFull(d.r, d.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("failed to read samples: %w", err)
	}

	count := n / bytesPerSample
	for i := 0; i < count; i++ {
		raw := binary.LittleEndian.Uint16(d.buf[i*bytesPerSample:]) & 0x0FFF
		batch[i] = int16(raw) - SAMPLE_BIAS
	}
	return count, nil
}
