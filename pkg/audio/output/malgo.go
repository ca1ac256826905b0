// ABOUTME: Malgo-based sink implementation
// ABOUTME: Feeds a miniaudio device callback from a mutex-guarded ring buffer
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// ringCapacityMs is the device-side cushion between Submit and the
// miniaudio callback.
const ringCapacityMs = 500

// Malgo plays audio through miniaudio. The device pulls from a ring
// buffer; Submit pushes into it and waits briefly whenever it is full, so
// a saturated device throttles the producer.
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	ring     *RingBuffer
	ready    bool
	mu       sync.Mutex
}

// RingBuffer is a mutex-guarded circular byte buffer between the producer
// and the device callback.
type RingBuffer struct {
	buf      []byte
	readPos  int
	writePos int
	size     int
	count    int
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with the given capacity in bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write copies bytes from p into the ring and returns how many fit.
func (rb *RingBuffer) Write(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for i := 0; i < len(p) && rb.count < rb.size; i++ {
		rb.buf[rb.writePos] = p[i]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	return written
}

// Read fills p from the ring and returns how many bytes were real audio.
// The remainder is zero-filled so an underrun plays silence.
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(p) && rb.count > 0; i++ {
		p[i] = rb.buf[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}

	for i := read; i < len(p); i++ {
		p[i] = 0
	}
	return read
}

// Available returns the number of bytes ready to read.
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of unused bytes in the ring.
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// NewMalgo creates a miniaudio-backed sink.
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Open initializes the miniaudio device and starts playback.
func (m *Malgo) Open(sampleRate, channels, bitDepth int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bitDepth != 16 {
		return fmt.Errorf("malgo sink is 16-bit only, got %d", bitDepth)
	}
	if m.ready {
		return fmt.Errorf("malgo sink already open")
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	m.ring = NewRingBuffer(sampleRate * channels * (bitDepth / 8) * ringCapacityMs / 1000)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	// The callback hands us an S16LE byte slice, the same layout the ring
	// holds, so no conversion is needed.
	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.ring.Read(pOutput)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels (malgo)", sampleRate, channels)
	return nil
}

// Submit pushes the whole buffer into the ring, waiting out a full ring a
// millisecond at a time while the callback drains it.
func (m *Malgo) Submit(buf []byte) error {
	m.mu.Lock()
	ready, ring := m.ready, m.ring
	m.mu.Unlock()

	if !ready {
		return fmt.Errorf("output not initialized")
	}

	for written := 0; written < len(buf); {
		n := ring.Write(buf[written:])
		written += n
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

// Close stops the device and frees the miniaudio context.
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}

	m.ready = false
	return nil
}
