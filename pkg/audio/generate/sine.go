// ABOUTME: Phase-accumulator sine oscillator
// ABOUTME: Generates int16 samples with a frequency that can change mid-stream
package generate

import (
	"math"
	"sync/atomic"

	"github.com/ToneForge-Audio/toneforge-go/pkg/audio"
)

const twoPi = 2 * math.Pi

// Sine is a sine-wave source. The frequency may be changed from any
// goroutine while samples are being produced; the phase accumulator is
// never reset, so a change lands without an amplitude jump.
type Sine struct {
	freqBits atomic.Uint64 // math.Float64bits of the frequency in Hz
	rate     int
	phase    float64
}

// NewSine creates an oscillator at freq Hz. The rate defaults to 44.1 kHz
// until SetSampleRate is called.
func NewSine(freq float64) *Sine {
	s := &Sine{rate: audio.SampleRate}
	s.freqBits.Store(math.Float64bits(freq))
	return s
}

// SetFrequency updates the frequency. Takes effect on the next sample.
func (s *Sine) SetFrequency(freq float64) {
	s.freqBits.Store(math.Float64bits(freq))
}

// Frequency returns the current frequency in Hz.
func (s *Sine) Frequency() float64 {
	return math.Float64frombits(s.freqBits.Load())
}

// SetSampleRate implements Source.
func (s *Sine) SetSampleRate(rateHz int) {
	s.rate = rateHz
}

// Next implements Source. The sample is computed from the current phase
// before the accumulator advances, so sample 0 of a fresh oscillator is
// exactly zero.
func (s *Sine) Next() int16 {
	v := int16(math.Round(math.Sin(s.phase) * 32767))

	s.phase += twoPi * s.Frequency() / float64(s.rate)
	if s.phase >= twoPi {
		s.phase -= twoPi
	}

	return v
}
