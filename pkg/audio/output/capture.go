// ABOUTME: Capture sink recording submissions in memory
// ABOUTME: Backs the "none" output mode and stands in for a device in tests
package output

import (
	"fmt"
	"sync"
)

// Capture records every submitted buffer instead of playing it. It backs
// the "none" output mode for headless runs and serves as the device stand-in
// in tests. An optional gate makes Submit block until Release is called.
type Capture struct {
	mu         sync.Mutex
	open       bool
	sampleRate int
	channels   int
	bitDepth   int
	bufs       [][]byte

	gate chan struct{} // nil means Submit never blocks
}

// NewCapture creates a capture sink.
func NewCapture() *Capture {
	return &Capture{}
}

// NewGatedCapture creates a capture sink whose Submit blocks until
// Release opens the gate.
func NewGatedCapture() *Capture {
	return &Capture{gate: make(chan struct{})}
}

// Open records the stream layout.
func (c *Capture) Open(sampleRate, channels, bitDepth int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		return fmt.Errorf("capture already open")
	}

	c.open = true
	c.sampleRate = sampleRate
	c.channels = channels
	c.bitDepth = bitDepth
	return nil
}

// Submit stores a copy of buf. With a gate configured it blocks first.
func (c *Capture) Submit(buf []byte) error {
	if c.gate != nil {
		<-c.gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return fmt.Errorf("capture not open")
	}

	cp := make([]byte, len(buf))
	copy(cp, buf)
	c.bufs = append(c.bufs, cp)
	return nil
}

// Close marks the sink closed. Recorded buffers stay readable.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// Release opens the gate; pending and future submissions proceed.
func (c *Capture) Release() {
	if c.gate != nil {
		close(c.gate)
	}
}

// Buffers returns the recorded submissions in order.
func (c *Capture) Buffers() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]byte, len(c.bufs))
	copy(out, c.bufs)
	return out
}

// Count returns the number of submissions recorded so far.
func (c *Capture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bufs)
}

// Format returns the layout passed to Open.
func (c *Capture) Format() (sampleRate, channels, bitDepth int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleRate, c.channels, c.bitDepth
}

// IsOpen reports whether the sink is between Open and Close.
func (c *Capture) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
