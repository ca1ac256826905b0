// ABOUTME: Tests for application orchestration
// ABOUTME: Drives the controller surface against a capture sink
package app

import (
	"errors"
	"testing"
	"time"

	"github.com/ToneForge-Audio/toneforge-go/internal/config"
	"github.com/ToneForge-Audio/toneforge-go/pkg/audio/output"
	"github.com/ToneForge-Audio/toneforge-go/pkg/toneforge"
)

// newTestApp builds an app over a capture sink with control disabled.
func newTestApp(t *testing.T) (*App, *output.Capture) {
	t.Helper()

	cfg := config.Default()
	cfg.Output = "none"
	cfg.Control.Enabled = false

	sink := output.NewCapture()
	a, err := NewWithSink(cfg, sink)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return a, sink
}

// waitUntil polls cond until it holds or the timeout expires.
func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewRejectsUnknownOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Output = "jack"

	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown output backend")
	}
}

func TestBuildSink(t *testing.T) {
	for _, name := range []string{"oto", "malgo", "portaudio", "none"} {
		sink, err := buildSink(name)
		if err != nil {
			t.Errorf("buildSink(%s) failed: %v", name, err)
		}
		if sink == nil {
			t.Errorf("buildSink(%s) returned nil", name)
		}
	}
}

func TestStartStop(t *testing.T) {
	a, sink := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}

	if got := a.Status().State; got != "running" {
		t.Errorf("expected state running, got %s", got)
	}

	waitUntil(t, func() bool { return sink.Count() > 0 }, "no buffers reached the sink")

	if err := a.Stop(); err != nil {
		t.Fatalf("failed to stop: %v", err)
	}

	if got := a.Status().State; got != "idle" {
		t.Errorf("expected state idle, got %s", got)
	}
}

func TestStartTwice(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer a.Stop()

	if err := a.Start(); !errors.Is(err, toneforge.ErrRunning) {
		t.Errorf("expected ErrRunning, got %v", err)
	}
}

func TestStopWhileIdle(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.Stop(); !errors.Is(err, toneforge.ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

func TestToggle(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.Toggle(); err != nil {
		t.Fatalf("toggle from idle failed: %v", err)
	}
	if got := a.Status().State; got != "running" {
		t.Errorf("expected running after toggle, got %s", got)
	}

	if err := a.Toggle(); err != nil {
		t.Fatalf("toggle from running failed: %v", err)
	}
	if got := a.Status().State; got != "idle" {
		t.Errorf("expected idle after second toggle, got %s", got)
	}
}

func TestSetModeWhileIdle(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.SetMode("pink"); err != nil {
		t.Fatalf("failed to set mode: %v", err)
	}
	if got := a.Mode(); got != "pink" {
		t.Errorf("expected mode pink, got %s", got)
	}
	if got := a.Status().State; got != "idle" {
		t.Errorf("mode change should not start playback, got %s", got)
	}
}

func TestSetModeRestartsWhilePlaying(t *testing.T) {
	a, sink := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer a.Stop()

	waitUntil(t, func() bool { return sink.Count() > 0 }, "no buffers before mode change")
	before := sink.Count()

	if err := a.SetMode("pink"); err != nil {
		t.Fatalf("failed to set mode: %v", err)
	}

	if got := a.Status().State; got != "running" {
		t.Errorf("expected running after mode change, got %s", got)
	}
	if got := a.Mode(); got != "pink" {
		t.Errorf("expected mode pink, got %s", got)
	}

	waitUntil(t, func() bool { return sink.Count() > before },
		"no buffers after mode change")
}

func TestSetModeSameIsNoOp(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer a.Stop()

	if err := a.SetMode("sine"); err != nil {
		t.Errorf("setting the current mode should succeed: %v", err)
	}
	if got := a.Status().State; got != "running" {
		t.Errorf("expected running, got %s", got)
	}
}

func TestSetModeInvalid(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.SetMode("techno"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSetFrequencyLive(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer a.Stop()

	if err := a.SetFrequency(880); err != nil {
		t.Fatalf("failed to set frequency: %v", err)
	}

	status := a.Status()
	if status.Frequency != 880 {
		t.Errorf("expected frequency 880, got %g", status.Frequency)
	}
	if status.State != "running" {
		t.Errorf("retune should not stop playback, got %s", status.State)
	}
}

func TestSetFrequencyInvalid(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.SetFrequency(0); err == nil {
		t.Error("expected error for zero frequency")
	}
	if err := a.SetFrequency(-100); err == nil {
		t.Error("expected error for negative frequency")
	}
}

func TestStatusFields(t *testing.T) {
	a, _ := newTestApp(t)

	status := a.Status()
	if status.State != "idle" {
		t.Errorf("expected state idle, got %s", status.State)
	}
	if status.Mode != "sine" {
		t.Errorf("expected mode sine, got %s", status.Mode)
	}
	if status.Frequency != 440 {
		t.Errorf("expected frequency 440, got %g", status.Frequency)
	}
	if status.SampleRate != 44100 || status.Channels != 2 || status.BitDepth != 16 {
		t.Errorf("unexpected format: %d/%d/%d",
			status.SampleRate, status.Channels, status.BitDepth)
	}
}

func TestShutdownStopsPlayback(t *testing.T) {
	a, _ := newTestApp(t)

	done := make(chan error, 1)
	go func() {
		done <- a.RunHeadless()
	}()

	waitUntil(t, func() bool { return a.Status().State == "running" },
		"headless run did not start playback")

	a.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("headless run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("headless run did not exit after shutdown")
	}

	if got := a.Status().State; got != "idle" {
		t.Errorf("expected idle after shutdown, got %s", got)
	}
}
