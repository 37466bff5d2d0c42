package demod

import (
	"io"
	"sync/atomic"

	"adsbtrack/internal/adsb"
)

// Demodulation constants, in power samples (10 per microsecond)
const (
	WINDOW_SIZE       = 1200
	PREAMBLE_SAMPLES  = 80
	PULSE_SAMPLES     = 5
	BIT_SAMPLES       = 10
	NS_PER_POWER_TICK = 100
)

// Stats holds demodulator counters
type Stats struct {
	Preambles   uint64
	RejectedDF  uint64
	RejectedCRC uint64
	ValidFrames uint64
	Scanned     int64 // power samples scanned
}

// Demodulator detects preambles in a stream of power samples and extracts the frames
// that follow them. It is not safe for concurrent use, except for Stats.
type Demodulator struct {
	window *PowerWindow

	previousPeak int
	currentPeak  int
	nextPeak     int

	preambles   atomic.Uint64
	rejectedDF  atomic.Uint64
	rejectedCRC atomic.Uint64
	validFrames atomic.Uint64
	position    atomic.Int64
}

// NewDemodulator creates a demodulator reading raw samples from r
func NewDemodulator(r io.Reader) (*Demodulator, error) {
	return NewDemodulatorFromSource(NewPowerComputer(r, POWER_BATCH_SIZE))
}

// NewDemodulatorFromSource creates a demodulator reading power samples from src
func NewDemodulatorFromSource(src PowerSource) (*Demodulator, error) {
	window, err := NewPowerWindow(src, WINDOW_SIZE)
	if err != nil {
		return nil, err
	}
	return &Demodulator{window: window}, nil
}

// NextFrame returns the next valid frame of the stream, or io.EOF once the stream is exhausted
func (d *Demodulator) NextFrame() (adsb.RawFrame, error) {
	w := d.window
	defer func() { d.position.Store(w.Position()) }()

	for w.IsFull() {
		d.previousPeak = d.currentPeak
		d.currentPeak = d.nextPeak
		d.nextPeak = d.peak(1)

		if d.preambleDetected() {
			d.preambles.Add(1)
			if frame, ok := d.extractFrame(); ok {
				d.validFrames.Add(1)
				if err := w.AdvanceBy(w.Size()); err != nil {
					return adsb.RawFrame{}, err
				}
				return frame, nil
			}
		}

		if err := w.Advance(); err != nil {
			return adsb.RawFrame{}, err
		}
	}

	return adsb.RawFrame{}, io.EOF
}

// peak sums the power at the expected preamble pulses of a message starting at offset
func (d *Demodulator) peak(offset int) int {
	w := d.window
	return int(w.Get(offset)) + int(w.Get(offset+10)) + int(w.Get(offset+35)) + int(w.Get(offset+45))
}

// valley sums the power where the preamble has no pulse
func (d *Demodulator) valley() int {
	w := d.window
	return int(w.Get(PULSE_SAMPLES)) + int(w.Get(3*PULSE_SAMPLES)) + int(w.Get(4*PULSE_SAMPLES)) +
		int(w.Get(5*PULSE_SAMPLES)) + int(w.Get(6*PULSE_SAMPLES)) + int(w.Get(8*PULSE_SAMPLES))
}

func (d *Demodulator) preambleDetected() bool {
	return d.currentPeak >= 2*d.valley() &&
		d.previousPeak < d.currentPeak &&
		d.currentPeak > d.nextPeak
}

func (d *Demodulator) extractFrame() (adsb.RawFrame, bool) {
	var data [adsb.FrameLength]byte

	d.decodeBits(data[:], 0, 8)
	if adsb.FrameSize(data[0]) != adsb.FrameLength {
		d.rejectedDF.Add(1)
		return adsb.RawFrame{}, false
	}
	d.decodeBits(data[:], 8, adsb.FrameBits)

	frame, ok := adsb.NewRawFrame(d.window.Position()*NS_PER_POWER_TICK, data[:])
	if !ok {
		d.rejectedCRC.Add(1)
	}
	return frame, ok
}

// decodeBits decodes bits [from, to) with pulse position modulation: a pulse in the
// first half of the bit period is a 1
func (d *Demodulator) decodeBits(data []byte, from, to int) {
	w := d.window
	for i := from; i < to; i++ {
		first := w.Get(PREAMBLE_SAMPLES + BIT_SAMPLES*i)
		second := w.Get(PREAMBLE_SAMPLES + PULSE_SAMPLES + BIT_SAMPLES*i)
		data[i/8] <<= 1
		if first >= second {
			data[i/8] |= 1
		}
	}
}

// Stats returns a snapshot of the demodulator counters
func (d *Demodulator) Stats() Stats {
	return Stats{
		Preambles:   d.preambles.Load(),
		RejectedDF:  d.rejectedDF.Load(),
		RejectedCRC: d.rejectedCRC.Load(),
		ValidFrames: d.validFrames.Load(),
		Scanned:     d.position.Load(),
	}
}
