// ABOUTME: Main application orchestration for ToneForge
// ABOUTME: Coordinates the engine, generators, control server, and TUI
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ToneForge-Audio/toneforge-go/internal/config"
	"github.com/ToneForge-Audio/toneforge-go/internal/control"
	"github.com/ToneForge-Audio/toneforge-go/internal/ui"
	"github.com/ToneForge-Audio/toneforge-go/pkg/audio"
	"github.com/ToneForge-Audio/toneforge-go/pkg/audio/generate"
	"github.com/ToneForge-Audio/toneforge-go/pkg/audio/output"
	"github.com/ToneForge-Audio/toneforge-go/pkg/protocol"
	"github.com/ToneForge-Audio/toneforge-go/pkg/toneforge"
)

// App wires the playback engine to its front ends. It implements the
// controller surface shared by the TUI and the control server.
type App struct {
	cfg    *config.Config
	engine *toneforge.Engine
	sine   *generate.Sine
	pink   *generate.PinkNoise

	control *control.Server
	tui     *ui.TUI

	// cmdMu serializes start/stop/mode transitions. modeMu guards the
	// mode string alone so Status never waits on a command in flight.
	cmdMu  sync.Mutex
	modeMu sync.RWMutex
	mode   string

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the app with a sink chosen from the config.
func New(cfg *config.Config) (*App, error) {
	sink, err := buildSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return NewWithSink(cfg, sink)
}

// NewWithSink creates the app around a caller-supplied sink.
func NewWithSink(cfg *config.Config, sink output.Sink) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:    cfg,
		sine:   generate.NewSine(cfg.Frequency),
		pink:   generate.NewPinkNoise(),
		mode:   cfg.Mode,
		ctx:    ctx,
		cancel: cancel,
	}

	engine, err := toneforge.New(toneforge.Config{
		Sink:           sink,
		BufferDuration: time.Duration(cfg.Buffer.DurationMs) * time.Millisecond,
		BufferCount:    cfg.Buffer.Count,
		OnError:        a.onEngineError,
		OnStateChange:  a.onStateChange,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	a.engine = engine

	return a, nil
}

// buildSink maps a config backend name onto an output sink.
func buildSink(name string) (output.Sink, error) {
	switch name {
	case "oto":
		return output.NewOto(), nil
	case "malgo":
		return output.NewMalgo(), nil
	case "portaudio":
		return output.NewPortAudio(), nil
	case "none":
		return output.NewCapture(), nil
	default:
		return nil, fmt.Errorf("unknown output backend %q", name)
	}
}

// Run starts the TUI and blocks until the user quits or Shutdown is
// called.
func (a *App) Run() error {
	port := 0
	if a.cfg.Control.Enabled {
		port = a.cfg.Control.Port
	}
	a.tui = ui.New(ui.Config{Controller: a, ControlPort: port})

	a.startControl()

	tuiErr := make(chan error, 1)
	go func() {
		tuiErr <- a.tui.Start()
	}()

	go a.pushLoop()

	var err error
	select {
	case <-a.tui.QuitChan():
	case err = <-tuiErr:
	case <-a.ctx.Done():
	}

	a.teardown()
	return err
}

// RunHeadless starts playback without a TUI and blocks until Shutdown.
func (a *App) RunHeadless() error {
	a.startControl()
	go a.pushLoop()

	if err := a.Start(); err != nil {
		a.teardown()
		return err
	}

	<-a.ctx.Done()
	a.teardown()
	return nil
}

// Shutdown asks a running app to exit.
func (a *App) Shutdown() {
	a.cancel()
}

// startControl brings up the control server when enabled.
func (a *App) startControl() {
	if !a.cfg.Control.Enabled {
		return
	}

	srv, err := control.New(control.Config{
		Port:       a.cfg.Control.Port,
		Name:       a.cfg.Name,
		EnableMDNS: a.cfg.Control.MDNS,
	}, a)
	if err != nil {
		log.Printf("Control server disabled: %v", err)
		return
	}
	a.control = srv

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Control server failed: %v", err)
		}
	}()
}

// teardown stops playback and the front ends.
func (a *App) teardown() {
	a.cancel()

	if err := a.engine.Stop(); err != nil && !errors.Is(err, toneforge.ErrNotRunning) {
		log.Printf("Engine stop error: %v", err)
	}

	if a.control != nil {
		a.control.Stop()
	}
	if a.tui != nil {
		a.tui.Stop()
	}
}

// Start begins playback with the sources for the current mode.
func (a *App) Start() error {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()

	if err := a.applySources(); err != nil {
		return err
	}
	return a.engine.Start()
}

// Stop halts playback.
func (a *App) Stop() error {
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()
	return a.engine.Stop()
}

// Toggle starts or stops playback depending on the current state.
func (a *App) Toggle() error {
	if a.engine.Running() {
		return a.Stop()
	}
	return a.Start()
}

// SetMode switches the generator mode. A running engine is restarted
// with the new sources; an idle one just remembers the choice.
func (a *App) SetMode(mode string) error {
	switch mode {
	case "sine", "pink", "split":
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()

	if mode == a.Mode() {
		return nil
	}

	running := a.engine.Running()
	if running {
		if err := a.engine.Stop(); err != nil {
			return err
		}
	}

	a.modeMu.Lock()
	a.mode = mode
	a.modeMu.Unlock()

	if running {
		if err := a.applySources(); err != nil {
			return err
		}
		if err := a.engine.Start(); err != nil {
			return err
		}
	}

	a.notify()
	return nil
}

// SetFrequency retunes the sine generator. Takes effect immediately,
// also mid-playback.
func (a *App) SetFrequency(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("frequency must be positive, got %g", hz)
	}

	a.sine.SetFrequency(hz)
	a.notify()
	return nil
}

// Mode returns the current generator mode.
func (a *App) Mode() string {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

// Status reports the full playback state.
func (a *App) Status() protocol.Status {
	stats := a.engine.Stats()

	return protocol.Status{
		State:      stats.State.String(),
		Mode:       a.Mode(),
		Frequency:  a.sine.Frequency(),
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BitDepth:   audio.BitDepth,
		Buffers:    stats.Buffers,
		Bytes:      stats.Bytes,
	}
}

// applySources points the engine at the sources for the current mode.
// The aliased pair in sine and pink mode plays as mono.
func (a *App) applySources() error {
	var left, right generate.Source

	switch a.Mode() {
	case "pink":
		left, right = a.pink, a.pink
	case "split":
		left, right = a.sine, a.pink
	default:
		left, right = a.sine, a.sine
	}

	return a.engine.SetSources(left, right)
}

// pushLoop keeps the front ends updated while the app runs.
func (a *App) pushLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.notify()
		case <-a.ctx.Done():
			return
		}
	}
}

// notify fans the current status out to the TUI and the remotes.
func (a *App) notify() {
	status := a.Status()

	if a.control != nil {
		a.control.Broadcast(status)
	}

	if a.tui != nil {
		msg := ui.StatusMsg{
			State:      status.State,
			Mode:       status.Mode,
			Frequency:  status.Frequency,
			SampleRate: status.SampleRate,
			Channels:   status.Channels,
			BitDepth:   status.BitDepth,
			Buffers:    status.Buffers,
			Bytes:      status.Bytes,
		}
		if a.control != nil {
			remotes := len(a.control.Clients())
			msg.Remotes = &remotes
		}
		a.tui.Update(msg)
	}
}

func (a *App) onStateChange(toneforge.State) {
	a.notify()
}

func (a *App) onEngineError(err error) {
	log.Printf("Engine error: %v", err)
	if a.tui != nil {
		a.tui.Update(ui.StatusMsg{Error: err.Error()})
	}
}
