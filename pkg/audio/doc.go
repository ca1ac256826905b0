// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the fixed PCM format and frame packing helpers
// Package audio provides fundamental audio types for the ToneForge engine.
//
// The playback contract is fixed: 44.1 kHz, 2 channels, 16-bit signed
// little-endian PCM, interleaved left-then-right. This package defines
// that format plus the byte-level helpers used to pack frames:
//
//	buf := make([]byte, audio.BytesPerFrame)
//	audio.PutInt16LE(buf[0:], leftSample)
//	audio.PutInt16LE(buf[2:], rightSample)
package audio
