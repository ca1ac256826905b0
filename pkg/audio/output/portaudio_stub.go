//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"
)

// PortAudio sink implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a PortAudio-backed sink.
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open reports that PortAudio support is not compiled in.
func (p *PortAudio) Open(sampleRate, channels, bitDepth int) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Submit reports that PortAudio support is not compiled in.
func (p *PortAudio) Submit(buf []byte) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Close reports that PortAudio support is not compiled in.
func (p *PortAudio) Close() error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}
