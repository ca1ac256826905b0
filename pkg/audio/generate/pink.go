// ABOUTME: Pink noise source using Paul Kellet's filtered-white method
// ABOUTME: Seven one-pole taps shape uniform noise to roughly -3 dB per octave
package generate

import (
	"math"
	"math/rand"
)

// PinkNoise filters uniform white noise into pink noise. Each instance
// carries its own random stream, so two generators are uncorrelated.
type PinkNoise struct {
	rng                        *rand.Rand
	b0, b1, b2, b3, b4, b5, b6 float64
}

// NewPinkNoise creates a pink noise source with its own random seed.
func NewPinkNoise() *PinkNoise {
	return NewPinkNoiseFrom(rand.New(rand.NewSource(rand.Int63())))
}

// NewPinkNoiseFrom creates a pink noise source driven by rng, for callers
// that need a repeatable sequence.
func NewPinkNoiseFrom(rng *rand.Rand) *PinkNoise {
	return &PinkNoise{rng: rng}
}

// SetSampleRate implements Source. The filter's spectral slope does not
// depend on the rate, so there is nothing to configure.
func (p *PinkNoise) SetSampleRate(rateHz int) {}

// Next implements Source. The tap coefficients are Paul Kellet's economy
// pink noise filter, kept verbatim.
func (p *PinkNoise) Next() int16 {
	white := p.rng.Float64()*2 - 1

	p.b0 = 0.99886*p.b0 + white*0.0555179
	p.b1 = 0.99332*p.b1 + white*0.0750759
	p.b2 = 0.96900*p.b2 + white*0.1538520
	p.b3 = 0.86650*p.b3 + white*0.3104856
	p.b4 = 0.55000*p.b4 + white*0.5329522
	p.b5 = -0.7616*p.b5 - white*0.0168980

	pink := p.b0 + p.b1 + p.b2 + p.b3 + p.b4 + p.b5 + p.b6 + white*0.5362
	p.b6 = white * 0.115926

	pink *= 0.11
	if pink > 1 {
		pink = 1
	} else if pink < -1 {
		pink = -1
	}

	return int16(math.Round(pink * 32767))
}
