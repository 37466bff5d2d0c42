package demod

import (
	"fmt"
	"io"
)

const powerWindowSamples = 8

// PowerSource produces batches of power samples. ReadBatch returns fewer samples than
// len(batch) only at the end of the stream.
type PowerSource interface {
	ReadBatch(batch []int32) (int, error)
}

// PowerComputer computes the power of the signal from pairs of consecutive samples
type PowerComputer struct {
	decoder   *SampleDecoder
	batchSize int
	samples   []int16
	last      [powerWindowSamples]int32
}

// NewPowerComputer creates a computer producing batches of batchSize power samples,
// each computed from two signal samples. It panics unless batchSize is a positive
// multiple of 8.
func NewPowerComputer(r io.Reader, batchSize int) *PowerComputer {
	if batchSize <= 0 || batchSize%powerWindowSamples != 0 {
		panic(fmt.Sprintf("demod: invalid power batch size %d", batchSize))
	}
	return &PowerComputer{
		decoder:   NewSampleDecoder(r, 2*batchSize),
		batchSize: batchSize,
		samples:   make([]int16, 2*batchSize),
	}
}

// ReadBatch fills batch with up to batchSize power samples and returns their number
func (c *PowerComputer) ReadBatch(batch []int32) (int, error) {
	if len(batch) < c.batchSize {
		panic(fmt.Sprintf("demod: power batch of %d, want %d", len(batch), c.batchSize))
	}

	n, err := c.decoder.ReadBatch(c.samples)
	if err != nil {
		return 0, err
	}

	pairs := n / 2
	for i := 0; i < pairs; i++ {
		copy(c.last[:], c.last[2:])
		c.last[6] = int32(c.samples[2*i])
		c.last[7] = int32(c.samples[2*i+1])

		s := &c.last
		inPhase := s[6] - s[4] + s[2] - s[0]
		quadrature := s[7] - s[5] + s[3] - s[1]
		batch[i] = inPhase*inPhase + quadrature*quadrature
	}
	return pairs, nil
}
