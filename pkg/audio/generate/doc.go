// ABOUTME: Sample generator package for tone and noise synthesis
// ABOUTME: Provides the Source contract plus sine and pink noise sources
// Package generate provides sample sources for the playback engine.
//
// A Source emits one mono stream of signed 16-bit samples, pulled one
// sample at a time by the production goroutine. Sine supports live
// frequency changes; PinkNoise produces an independent noise stream per
// instance.
//
// Example:
//
//	osc := generate.NewSine(440)
//	osc.SetSampleRate(44100)
//	sample := osc.Next()
package generate
