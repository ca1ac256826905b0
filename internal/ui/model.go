// ABOUTME: Bubbletea model for the ToneForge TUI
// ABOUTME: Renders playback state and maps keys onto engine commands
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ToneForge-Audio/toneforge-go/pkg/audio"
	"github.com/ToneForge-Audio/toneforge-go/pkg/protocol"
)

// Controller is the playback surface the TUI drives.
type Controller interface {
	Toggle() error
	SetMode(mode string) error
	SetFrequency(hz float64) error
	Status() protocol.Status
}

// Retune steps in Hz: coarse for the arrow keys, fine for +/-.
// minFrequency keeps retunes positive.
const (
	freqStep     = 10.0
	fineStep     = 1.0
	minFrequency = 1.0
)

// Model represents the TUI state
type Model struct {
	controller Controller

	// Playback
	state     string
	mode      string
	frequency float64

	// Format
	sampleRate int
	channels   int
	bitDepth   int

	// Stats
	buffers uint64
	bytes   uint64

	// Control plane
	remotes     int
	controlPort int

	// Last command error, shown until the next successful command
	lastError string

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	quitting bool
	quitChan chan struct{}
}

// NewModel creates a TUI model with idle defaults
func NewModel(controller Controller) Model {
	return Model{
		controller: controller,
		state:      "idle",
		mode:       "sine",
		frequency:  440,
		sampleRate: audio.SampleRate,
		channels:   audio.Channels,
		bitDepth:   audio.BitDepth,
	}
}

type tickMsg time.Time

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case tickMsg:
		m.refresh()
		return m, tickEvery()
	}

	return m, nil
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.quitChan != nil {
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit

	case " ":
		m.command(func(c Controller) error { return c.Toggle() })

	case "m":
		next := nextMode(m.mode)
		m.command(func(c Controller) error { return c.SetMode(next) })

	case "up":
		m.retune(freqStep)

	case "down":
		m.retune(-freqStep)

	case "+", "=":
		m.retune(fineStep)

	case "-", "_":
		m.retune(-fineStep)

	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// retune shifts the frequency by delta, clamped at minFrequency.
func (m *Model) retune(delta float64) {
	hz := m.frequency + delta
	if hz < minFrequency {
		hz = minFrequency
	}
	m.command(func(c Controller) error { return c.SetFrequency(hz) })
}

// command runs a controller call and refreshes the model from its status.
func (m *Model) command(fn func(Controller) error) {
	if m.controller == nil {
		return
	}

	if err := fn(m.controller); err != nil {
		m.lastError = err.Error()
	} else {
		m.lastError = ""
	}
	m.refresh()
}

// refresh pulls the current status from the controller.
func (m *Model) refresh() {
	if m.controller == nil {
		return
	}
	m.applyStatus(fromStatus(m.controller.Status()))
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Mode != "" {
		m.mode = msg.Mode
	}
	if msg.Frequency != 0 {
		m.frequency = msg.Frequency
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.bitDepth = msg.BitDepth
	}
	if msg.Buffers != 0 {
		m.buffers = msg.Buffers
		m.bytes = msg.Bytes
	}
	if msg.Remotes != nil {
		m.remotes = *msg.Remotes
	}
	if msg.Error != "" {
		m.lastError = msg.Error
	}
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	s := header()
	s += m.renderPlayback()
	s += divider()
	s += m.renderOutput()

	if m.showDebug {
		s += divider()
		s += m.renderDebug()
	}

	s += divider()
	s += line("space:Play/Stop  m:Mode  ↑/↓:Freq  +/-:Fine  q:Quit")
	s += footer()

	return s
}

// renderPlayback renders state and generator settings
func (m Model) renderPlayback() string {
	state := "■ Idle"
	if m.state == "running" {
		state = "▶ Running"
	}

	mode := m.mode
	if m.mode != "pink" {
		mode = fmt.Sprintf("%s @ %.1f Hz", m.mode, m.frequency)
	}

	s := line(fmt.Sprintf("State:  %s", state))
	s += line(fmt.Sprintf("Mode:   %s", mode))
	return s
}

// renderOutput renders format, stats, and the control plane line
func (m Model) renderOutput() string {
	s := line(fmt.Sprintf("Format: %d Hz %s %d-bit",
		m.sampleRate, channelName(m.channels), m.bitDepth))
	s += line(fmt.Sprintf("Output: %d buffers / %d bytes", m.buffers, m.bytes))

	if m.controlPort != 0 {
		s += line(fmt.Sprintf("Remote: %d connected on :%d", m.remotes, m.controlPort))
	} else {
		s += line("Remote: disabled")
	}

	if m.lastError != "" {
		s += line(fmt.Sprintf("Error:  %s", truncate(m.lastError, innerWidth-8)))
	}

	return s
}

// renderDebug renders raw engine counters
func (m Model) renderDebug() string {
	s := line("DEBUG:")
	s += line(fmt.Sprintf("  frequency: %.4f Hz", m.frequency))
	s += line(fmt.Sprintf("  buffers:   %d", m.buffers))
	s += line(fmt.Sprintf("  bytes:     %d", m.bytes))
	return s
}

// StatusMsg updates TUI state. Zero-valued fields leave the model
// untouched; Remotes is a pointer so zero can be delivered.
type StatusMsg struct {
	State      string
	Mode       string
	Frequency  float64
	SampleRate int
	Channels   int
	BitDepth   int
	Buffers    uint64
	Bytes      uint64
	Remotes    *int
	Error      string
}

// fromStatus converts a protocol status into a full TUI update.
func fromStatus(s protocol.Status) StatusMsg {
	return StatusMsg{
		State:      s.State,
		Mode:       s.Mode,
		Frequency:  s.Frequency,
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitDepth:   s.BitDepth,
		Buffers:    s.Buffers,
		Bytes:      s.Bytes,
	}
}

// Layout helpers. The frame is a fixed 56 columns wide.
const innerWidth = 52

func header() string {
	return "┌─ ToneForge ──────────────────────────────────────────┐\n"
}

func divider() string {
	return "├──────────────────────────────────────────────────────┤\n"
}

func footer() string {
	return "└──────────────────────────────────────────────────────┘\n"
}

func line(content string) string {
	return fmt.Sprintf("│ %-*s │\n", innerWidth, content)
}

func nextMode(mode string) string {
	switch mode {
	case "sine":
		return "pink"
	case "pink":
		return "split"
	default:
		return "sine"
	}
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
