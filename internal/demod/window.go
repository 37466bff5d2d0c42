package demod

import "fmt"

// POWER_BATCH_SIZE is the capacity of each of the two buffers behind a PowerWindow
const POWER_BATCH_SIZE = 1 << 16

// PowerWindow is a fixed size window sliding over a stream of power samples. The stream
// is read in batches into two alternating buffers so that Get runs in constant time.
type PowerWindow struct {
	src       PowerSource
	size      int
	position  int64
	available int64
	current   []int32
	next      []int32
}

// NewPowerWindow creates a window of size samples positioned at the start of src.
// It panics unless 0 < size <= POWER_BATCH_SIZE.
func NewPowerWindow(src PowerSource, size int) (*PowerWindow, error) {
	if size <= 0 || size > POWER_BATCH_SIZE {
		panic(fmt.Sprintf("demod: invalid window size %d", size))
	}

	w := &PowerWindow{
		src:     src,
		size:    size,
		current: make([]int32, POWER_BATCH_SIZE),
		next:    make([]int32, POWER_BATCH_SIZE),
	}

	n, err := src.ReadBatch(w.current)
	if err != nil {
		return nil, fmt.Errorf("failed to fill power window: %w", err)
	}
	w.available = int64(n)
	return w, nil
}

// Size returns the number of samples in the window
func (w *PowerWindow) Size() int {
	return w.size
}

// Position returns the index in the stream of the first sample of the window
func (w *PowerWindow) Position() int64 {
	return w.position
}

// IsFull reports whether the stream holds enough samples to fill the window
func (w *PowerWindow) IsFull() bool {
	return w.position+int64(w.size) <= w.available
}

// Get returns the sample at index i of the window. It panics if i is outside [0, Size()).
func (w *PowerWindow) Get(i int) int32 {
	if i < 0 || i >= w.size {
		panic(fmt.Sprintf("demod: window index %d out of range [0, %d)", i, w.size))
	}

	offset := int(w.position%POWER_BATCH_SIZE) + i
	if offset < POWER_BATCH_SIZE {
		return w.current[offset]
	}
	return w.next[offset-POWER_BATCH_SIZE]
}

// Advance moves the window forward by one sample
func (w *PowerWindow) Advance() error {
	w.position++

	// The last sample of the window entered a new batch: load it
	if (w.position+int64(w.size)-1)%POWER_BATCH_SIZE == 0 {
		n, err := w.src.ReadBatch(w.next)
		if err != nil {
			return fmt.Errorf("failed to refill power window: %w", err)
		}
		w.available += int64(n)
	}

	// The first sample of the window entered the loaded batch
	if w.position%POWER_BATCH_SIZE == 0 {
		w.current, w.next = w.next, w.current
	}
	return nil
}

// AdvanceBy moves the window forward by n samples. It panics if n is negative.
func (w *PowerWindow) AdvanceBy(n int) error {
	if n < 0 {
		panic(fmt.Sprintf("demod: negative window advance %d", n))
	}
	for i := 0; i < n; i++ {
		if err := w.Advance(); err != nil {
			return err
		}
	}
	return nil
}
