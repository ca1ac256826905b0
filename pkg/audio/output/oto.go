// ABOUTME: Oto-based sink implementation
// ABOUTME: Streams PCM through a persistent player fed by an io.Pipe
package output

import (
	"fmt"
	"io"
	"log"

	"github.com/ebitengine/oto/v3"
)

// Oto plays audio through the oto library. A persistent player drains an
// io.Pipe; Submit writes the pipe and blocks once the device side is
// saturated, which paces the producer at playback rate.
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	ready      bool
}

// NewOto creates an oto-backed sink.
func NewOto() *Oto {
	return &Oto{}
}

// Open initializes the oto context and starts the player. oto allows one
// context per process, so a reopen reuses the existing context with a
// fresh pipe and player.
func (o *Oto) Open(sampleRate, channels, bitDepth int) error {
	if bitDepth != 16 {
		return fmt.Errorf("oto sink is 16-bit only, got %d", bitDepth)
	}
	if o.ready {
		return fmt.Errorf("oto sink already open")
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan

		o.otoCtx = ctx
	} else if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels (oto)", sampleRate, channels)
	return nil
}

// Submit writes one buffer into the pipe feeding the player.
func (o *Oto) Submit(buf []byte) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	if _, err := o.pipeWriter.Write(buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases the player and pipe. The oto context itself is suspended,
// not destroyed: the library does not support re-creation in-process.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	o.ready = false
	return nil
}
