// ABOUTME: Playback engine driving sample sources through a buffer pool into a sink
// ABOUTME: Owns the production goroutine and the Idle/Running state machine
package toneforge

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ToneForge-Audio/toneforge-go/pkg/audio"
	"github.com/ToneForge-Audio/toneforge-go/pkg/audio/generate"
	"github.com/ToneForge-Audio/toneforge-go/pkg/audio/output"
)

// State identifies the engine lifecycle phase.
type State int

const (
	Idle State = iota
	Running
)

// String returns the state name.
func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Lifecycle misuse is reported through these sentinels, never escalated.
var (
	ErrNilSource  = errors.New("toneforge: nil source")
	ErrNoSources  = errors.New("toneforge: no sources set")
	ErrRunning    = errors.New("toneforge: engine is running")
	ErrNotRunning = errors.New("toneforge: engine is not running")
)

const (
	// DefaultBufferDuration is the audio span of one pool buffer.
	DefaultBufferDuration = 100 * time.Millisecond

	// DefaultBufferCount is the pool size; MinBufferCount is the floor
	// below which the sink would have no cushion while a buffer refills.
	DefaultBufferCount = 3
	MinBufferCount     = 2

	// paceInterval is advisory. Real pacing comes from the sink accepting
	// submissions at playback rate; the sleep only keeps a non-blocking
	// sink from spinning the producer flat out.
	paceInterval = 5 * time.Millisecond
)

// Config configures an Engine.
type Config struct {
	// Sink receives the PCM stream. Defaults to the oto backend.
	Sink output.Sink

	// BufferDuration is the audio span of one pool buffer (default 100ms).
	BufferDuration time.Duration

	// BufferCount is the pool size (default 3, minimum 2).
	BufferCount int

	// OnError receives asynchronous playback errors from the production
	// goroutine. Optional.
	OnError func(error)

	// OnStateChange is invoked on Idle/Running transitions. Optional.
	OnStateChange func(State)
}

// Stats is a snapshot of production counters.
type Stats struct {
	State   State
	Buffers uint64
	Bytes   uint64
}

// Engine turns a pair of sample sources into an interleaved stereo PCM
// stream. Lifecycle: Idle -> Running -> Idle. Sources are set while Idle,
// Start spawns the production goroutine, Stop joins it.
type Engine struct {
	cfg    Config
	format audio.Format

	mu    sync.Mutex
	state State
	left  generate.Source
	right generate.Source
	done  chan struct{}

	stopFlag atomic.Bool
	buffers  atomic.Uint64
	bytes    atomic.Uint64
}

// New creates an engine. Zero config fields get defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Sink == nil {
		cfg.Sink = output.NewOto()
	}
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = DefaultBufferDuration
	}
	if cfg.BufferCount == 0 {
		cfg.BufferCount = DefaultBufferCount
	}
	if cfg.BufferCount < MinBufferCount {
		return nil, fmt.Errorf("buffer count %d below minimum %d", cfg.BufferCount, MinBufferCount)
	}

	return &Engine{cfg: cfg, format: audio.DefaultFormat()}, nil
}

// SetSources assigns the left and right channel sources. Passing the same
// instance in both slots plays it as mono. Valid only while Idle.
func (e *Engine) SetSources(left, right generate.Source) error {
	if left == nil || right == nil {
		return ErrNilSource
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Running {
		return ErrRunning
	}

	e.left, e.right = left, right
	return nil
}

// Start opens the sink, allocates the buffer pool and spawns the
// production goroutine. It returns once the goroutine is running; audio
// flows in the background.
func (e *Engine) Start() error {
	e.mu.Lock()

	if e.state == Running {
		e.mu.Unlock()
		return ErrRunning
	}
	if e.left == nil || e.right == nil {
		e.mu.Unlock()
		return ErrNoSources
	}

	left, right := e.left, e.right
	left.SetSampleRate(e.format.SampleRate)
	if right != left {
		right.SetSampleRate(e.format.SampleRate)
	}

	if err := e.cfg.Sink.Open(e.format.SampleRate, e.format.Channels, e.format.BitDepth); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("open sink: %w", err)
	}

	size := e.format.BufferBytes(e.cfg.BufferDuration)
	pool := make([][]byte, e.cfg.BufferCount)
	for i := range pool {
		pool[i] = make([]byte, size)
	}

	e.stopFlag.Store(false)
	e.done = make(chan struct{})
	e.state = Running
	e.mu.Unlock()

	e.notify(Running)
	go e.produce(left, right, pool, e.done)

	log.Printf("Playback started: %d x %v buffers (%d bytes each)",
		len(pool), e.cfg.BufferDuration, size)
	return nil
}

// Stop signals the production goroutine and blocks until it has exited.
// No submissions happen after Stop returns; a buffer already being filled
// or submitted completes first.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != Running {
		e.mu.Unlock()
		return ErrNotRunning
	}
	done := e.done
	e.mu.Unlock()

	e.stopFlag.Store(true)
	<-done

	log.Printf("Playback stopped")
	return nil
}

// Running reports whether the production goroutine is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == Running
}

// Stats returns a snapshot of the production counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	st := e.state
	e.mu.Unlock()

	return Stats{State: st, Buffers: e.buffers.Load(), Bytes: e.bytes.Load()}
}

// BufferSize returns the byte size of one pool buffer.
func (e *Engine) BufferSize() int {
	return e.format.BufferBytes(e.cfg.BufferDuration)
}

// produce is the production loop. It fills pool buffers from the sources
// and submits them round-robin until the stop flag is set or the sink
// fails. The in-progress buffer is always finished and submitted whole.
// done belongs to this production session; a later Start owns a fresh one.
func (e *Engine) produce(left, right generate.Source, pool [][]byte, done chan struct{}) {
	mono := left == right

	var failure error
	idx := 0
	for !e.stopFlag.Load() {
		buf := pool[idx]
		fillFrames(buf, left, right, mono)

		if err := e.cfg.Sink.Submit(buf); err != nil {
			failure = fmt.Errorf("submit buffer: %w", err)
			break
		}

		e.buffers.Add(1)
		e.bytes.Add(uint64(len(buf)))

		idx = (idx + 1) % len(pool)
		time.Sleep(paceInterval)
	}

	if err := e.cfg.Sink.Close(); err != nil {
		log.Printf("Sink close error: %v", err)
	}

	e.mu.Lock()
	e.state = Idle
	e.mu.Unlock()
	close(done)

	e.notify(Idle)
	if failure != nil {
		log.Printf("Playback error: %v", failure)
		if e.cfg.OnError != nil {
			e.cfg.OnError(failure)
		}
	}
}

// fillFrames renders one interleaved buffer. With an aliased mono source
// each sample is produced once per frame and written to both slots.
func fillFrames(buf []byte, left, right generate.Source, mono bool) {
	for off := 0; off < len(buf); off += audio.BytesPerFrame {
		l := left.Next()
		audio.PutInt16LE(buf[off:], l)

		if mono {
			audio.PutInt16LE(buf[off+audio.BytesPerSample:], l)
		} else {
			audio.PutInt16LE(buf[off+audio.BytesPerSample:], right.Next())
		}
	}
}

func (e *Engine) notify(s State) {
	if e.cfg.OnStateChange != nil {
		e.cfg.OnStateChange(s)
	}
}
