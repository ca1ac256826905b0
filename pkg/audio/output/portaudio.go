//go:build portaudio

// ABOUTME: PortAudio sink implementation
// ABOUTME: Cross-platform audio output using blocking stream writes
package output

import (
	"fmt"

	"github.com/ToneForge-Audio/toneforge-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio plays audio through a blocking PortAudio stream.
type PortAudio struct {
	stream *portaudio.Stream
	frames []int16
}

// NewPortAudio creates a PortAudio-backed sink.
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio and opens the default output stream.
func (p *PortAudio) Open(sampleRate, channels, bitDepth int) error {
	if bitDepth != 16 {
		return fmt.Errorf("portaudio sink is 16-bit only, got %d", bitDepth)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate),
		portaudio.FramesPerBufferUnspecified, &p.frames)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return stream.Start()
}

// Submit unpacks the buffer into int16 frames and writes them to the
// stream, blocking until the device has taken them.
func (p *PortAudio) Submit(buf []byte) error {
	if p.stream == nil {
		return fmt.Errorf("output not opened")
	}

	n := len(buf) / 2
	if cap(p.frames) < n {
		p.frames = make([]int16, n)
	}
	p.frames = p.frames[:n]
	for i := range p.frames {
		p.frames[i] = audio.Int16LE(buf[i*2:])
	}

	if err := p.stream.Write(); err != nil {
		return fmt.Errorf("stream write failed: %w", err)
	}
	return nil
}

// Close stops the stream and terminates PortAudio.
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
