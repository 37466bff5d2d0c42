package app

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"adsbtrack/internal/adsb"
)

// FrameSource produces frames in timestamp order and returns io.EOF at the end of the input.
// The demodulator, the recording reader and the Beast reader implement it.
type FrameSource interface {
	NextFrame() (adsb.RawFrame, error)
}

// pacedSource delays frames so that they are delivered at the pace they were received
type pacedSource struct {
	ctx     context.Context
	src     FrameSource
	now     func() time.Time
	start   time.Time
	firstTs int64
	started bool
}

func newPacedSource(ctx context.Context, src FrameSource) *pacedSource {
	return &pacedSource{ctx: ctx, src: src, now: time.Now}
}

// NextFrame waits until the frame is due, or returns the context error when it is done first
func (p *pacedSource) NextFrame() (adsb.RawFrame, error) {
	frame, err := p.src.NextFrame()
	if err != nil {
		return frame, err
	}

	if !p.started {
		p.started = true
		p.start = p.now()
		p.firstTs = frame.TimestampNs
		return frame, nil
	}

	due := p.start.Add(time.Duration(frame.TimestampNs - p.firstTs))
	if wait := due.Sub(p.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-p.ctx.Done():
			return adsb.RawFrame{}, p.ctx.Err()
		case <-timer.C:
		}
	}

	return frame, nil
}

// countingReader counts the bytes read from the input
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func (c *countingReader) Count() int64 {
	return c.n.Load()
}
