// ABOUTME: ToneForge playback engine package
// ABOUTME: Public API for driving sample sources into an audio sink
// Package toneforge drives sample sources through a buffered production
// loop into an audio sink.
//
// The engine pulls one sample per channel per frame from its sources,
// packs frames as little-endian 16-bit PCM and submits fixed-size buffers
// to the sink from a dedicated goroutine. Passing the same source for
// both channels plays it as mono.
//
// Example:
//
//	osc := generate.NewSine(440)
//
//	engine, err := toneforge.New(toneforge.Config{})
//	err = engine.SetSources(osc, osc)
//	err = engine.Start()
//
//	time.Sleep(3 * time.Second)
//	osc.SetFrequency(880) // retune while playing
//
//	err = engine.Stop()
package toneforge
