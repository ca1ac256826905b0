// ABOUTME: Audio type definitions for the fixed playback contract
// ABOUTME: Defines the PCM output format and little-endian frame helpers
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// Fixed output contract: 44.1 kHz stereo, 16-bit signed little-endian PCM.
	SampleRate = 44100
	Channels   = 2
	BitDepth   = 16

	BytesPerSample = BitDepth / 8

	// BytesPerFrame is one interleaved frame: [l_lo, l_hi, r_lo, r_hi].
	BytesPerFrame = Channels * BytesPerSample
)

// Format describes a PCM stream layout.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the engine's fixed output format.
func DefaultFormat() Format {
	return Format{SampleRate: SampleRate, Channels: Channels, BitDepth: BitDepth}
}

// FrameBytes returns the size of one interleaved frame in bytes.
func (f Format) FrameBytes() int {
	return f.Channels * f.BitDepth / 8
}

// FramesIn returns the number of whole frames spanning d at this rate.
func (f Format) FramesIn(d time.Duration) int {
	return int(d * time.Duration(f.SampleRate) / time.Second)
}

// BufferBytes returns the byte size of a buffer spanning d.
func (f Format) BufferBytes(d time.Duration) int {
	return f.FramesIn(d) * f.FrameBytes()
}

// PutInt16LE packs one sample little-endian into b[0:2].
func PutInt16LE(b []byte, v int16) {
	binary.LittleEndian.PutUint16(b, uint16(v))
}

// Int16LE unpacks one little-endian sample from b[0:2].
func Int16LE(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}
