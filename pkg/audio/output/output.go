// ABOUTME: Audio sink interface definition
// ABOUTME: Common contract for PCM playback backends
package output

// Sink receives interleaved little-endian 16-bit PCM frames.
type Sink interface {
	// Open initializes the device for the given stream layout.
	Open(sampleRate, channels, bitDepth int) error

	// Submit hands one filled buffer to the device. It may block while the
	// device drains earlier audio. On return the caller owns buf again, so
	// backends that keep audio around must copy.
	Submit(buf []byte) error

	// Close releases device resources.
	Close() error
}
