package demod

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// encodeSamples writes centered samples in the raw little-endian 12-bit format
func encodeSamples(samples []int16) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		raw := uint16(int(s) + SAMPLE_BIAS)
		out = append(out, byte(raw), byte(raw>>8))
	}
	return out
}

// TestSampleDecoder_ReadBatch tests decoding of raw sample bytes
func TestSampleDecoder_ReadBatch(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []int16
	}{
		{name: "bias", input: []byte{0x00, 0x08}, expected: []int16{0}},
		{name: "minimum", input: []byte{0x00, 0x00}, expected: []int16{-2048}},
		{name: "maximum", input: []byte{0xFF, 0x0F}, expected: []int16{2047}},
		{name: "high nibble ignored", input: []byte{0x34, 0xF2}, expected: []int16{0x234 - 2048}},
		{name: "several", input: []byte{0x01, 0x08, 0xFF, 0x07}, expected: []int16{1, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := NewSampleDecoder(bytes.NewReader(tt.input), len(tt.expected))
			batch := make([]int16, len(tt.expected))

			n, err := decoder.ReadBatch(batch)
			require.NoError(t, err)
			assert.Equal(t, len(tt.expected), n)
			assert.Equal(t, tt.expected, batch)
		})
	}
}

// TestSampleDecoder_EndOfStream tests partial and empty batches at the end of the stream
func TestSampleDecoder_EndOfStream(t *testing.T) {
	// three samples and a dangling byte
	input := append(encodeSamples([]int16{10, 20, 30}), 0x12)
	decoder := NewSampleDecoder(bytes.NewReader(input), 2)
	batch := make([]int16, 2)

	n, err := decoder.ReadBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int16{10, 20}, batch)

	n, err = decoder.ReadBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int16(30), batch[0])

	n, err = decoder.ReadBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestSampleDecoder_ReadError tests that I/O errors are propagated
func TestSampleDecoder_ReadError(t *testing.T) {
	boom := errors.New("boom")
	decoder := NewSampleDecoder(iotest.ErrReader(boom), 4)

	_, err := decoder.ReadBatch(make([]int16, 4))
	assert.ErrorIs(t, err, boom)
}

// TestSampleDecoder_Preconditions tests invalid batch sizes
func TestSampleDecoder_Preconditions(t *testing.T) {
	assert.Panics(t, func() { NewSampleDecoder(bytes.NewReader(nil), 0) })
	assert.Panics(t, func() { NewSampleDecoder(bytes.NewReader(nil), -8) })

	decoder := NewSampleDecoder(bytes.NewReader(nil), 4)
	assert.Panics(t, func() { decoder.ReadBatch(make([]int16, 3)) })
}

// TestSampleDecoder_RoundTrip tests that every 12-bit sample decodes to itself
func TestSampleDecoder_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		samples := rapid.SliceOfN(rapid.Int16Range(-2048, 2047), 1, 64).Draw(t, "samples")

		decoder := NewSampleDecoder(bytes.NewReader(encodeSamples(samples)), len(samples))
		batch := make([]int16, len(samples))
		n, err := decoder.ReadBatch(batch)
		require.NoError(t, err)
		require.Equal(t, len(samples), n)
		assert.Equal(t, samples, batch)
	})
}
