// ABOUTME: Audio sink package for PCM playback
// ABOUTME: Provides the Sink interface with oto, malgo, portaudio and capture backends
// Package output provides playback sinks for interleaved 16-bit PCM.
//
// A Sink accepts little-endian stereo frames via Submit. The oto backend
// is the default; malgo and PortAudio (build tag "portaudio") are
// alternatives, and Capture records audio for tests and headless runs.
//
// Example:
//
//	sink := output.NewOto()
//	err := sink.Open(44100, 2, 16)
//	err = sink.Submit(frames)
package output
