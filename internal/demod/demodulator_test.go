package demod

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbtrack/internal/bits"
)

const pulse = 1000

// placeFrame writes the preamble and pulse position modulated bits of a frame
// starting at power sample p
func placeFrame(t *testing.T, power []int32, p int, hex string) {
	t.Helper()
	data := bits.MustParseHex(hex).Bytes()

	for _, offset := range []int{0, 10, 35, 45} {
		power[p+offset] = pulse
	}
	for i := 0; i < 8*len(data); i++ {
		offset := PREAMBLE_SAMPLES + BIT_SAMPLES*i
		if data[i/8]&(0x80>>uint(i%8)) == 0 {
			offset += PULSE_SAMPLES
		}
		power[p+offset] = pulse
	}
}

func readAll(t *testing.T, d *Demodulator) []string {
	t.Helper()
	var frames []string
	for {
		frame, err := d.NextFrame()
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, frame.String())
	}
}

// TestDemodulator_SingleFrame tests that one synthetic preamble yields exactly one frame
func TestDemodulator_SingleFrame(t *testing.T) {
	power := make([]int32, 3000)
	placeFrame(t, power, 100, "8D4840D6202CC371C32CE0576098")

	d, err := NewDemodulatorFromSource(&sliceSource{samples: power})
	require.NoError(t, err)

	assert.Equal(t, []string{"10000:8D4840D6202CC371C32CE0576098"}, readAll(t, d))

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.ValidFrames)
	assert.Equal(t, uint64(0), stats.RejectedCRC)
	assert.Equal(t, stats.Preambles, stats.ValidFrames+stats.RejectedDF+stats.RejectedCRC)
}

// TestDemodulator_ConsecutiveFrames tests extraction of frames one after the other
func TestDemodulator_ConsecutiveFrames(t *testing.T) {
	power := make([]int32, 4000)
	placeFrame(t, power, 100, "8D4840D6202CC371C32CE0576098")
	placeFrame(t, power, 1500, "8D40621D58C382D690C8AC2863A7")

	d, err := NewDemodulatorFromSource(&sliceSource{samples: power})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"10000:8D4840D6202CC371C32CE0576098",
		"150000:8D40621D58C382D690C8AC2863A7",
	}, readAll(t, d))
}

// TestDemodulator_FrameAcrossBatches tests a frame straddling two power batches
func TestDemodulator_FrameAcrossBatches(t *testing.T) {
	power := make([]int32, POWER_BATCH_SIZE+2000)
	p := POWER_BATCH_SIZE - 300
	placeFrame(t, power, p, "8D485020994409940838175B284F")

	d, err := NewDemodulatorFromSource(&sliceSource{samples: power})
	require.NoError(t, err)

	frames := readAll(t, d)
	require.Len(t, frames, 1)
	assert.Equal(t, "6523600:8D485020994409940838175B284F", frames[0])
}

// TestDemodulator_CorruptedFrame tests that a frame failing the CRC is dropped
func TestDemodulator_CorruptedFrame(t *testing.T) {
	power := make([]int32, 3000)
	placeFrame(t, power, 100, "8D4840D6202CC371C32CE0576099")

	d, err := NewDemodulatorFromSource(&sliceSource{samples: power})
	require.NoError(t, err)

	assert.Empty(t, readAll(t, d))
	assert.Equal(t, uint64(1), d.Stats().RejectedCRC)
}

// TestDemodulator_EmptyStream tests the end of stream on raw sample input
func TestDemodulator_EmptyStream(t *testing.T) {
	d, err := NewDemodulator(bytes.NewReader(nil))
	require.NoError(t, err)

	_, err = d.NextFrame()
	assert.ErrorIs(t, err, io.EOF)

	// silence decodes to nothing
	d, err = NewDemodulator(bytes.NewReader(encodeSamples(make([]int16, 8000))))
	require.NoError(t, err)
	assert.Empty(t, readAll(t, d))
}
