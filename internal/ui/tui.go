// ABOUTME: TUI lifecycle wrapper around the bubbletea program
// ABOUTME: Relays status updates and exposes the user quit signal
package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Config holds TUI configuration
type Config struct {
	Controller  Controller
	ControlPort int // 0 = control plane disabled
}

// TUI manages the terminal interface
type TUI struct {
	config   Config
	program  *tea.Program
	updates  chan StatusMsg
	done     chan struct{}
	stopOnce sync.Once
	quitChan chan struct{}
}

// New creates a TUI
func New(config Config) *TUI {
	return &TUI{
		config:   config,
		updates:  make(chan StatusMsg, 10),
		done:     make(chan struct{}),
		quitChan: make(chan struct{}, 1),
	}
}

// Start runs the TUI until the user quits or Stop is called.
func (t *TUI) Start() error {
	m := NewModel(t.config.Controller)
	m.controlPort = t.config.ControlPort
	m.quitChan = t.quitChan

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for {
			select {
			case msg := <-t.updates:
				t.program.Send(msg)
			case <-t.done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI without blocking.
func (t *TUI) Update(msg StatusMsg) {
	select {
	case t.updates <- msg:
	default:
	}
}

// Stop tears the TUI down
func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
	if t.program != nil {
		t.program.Quit()
	}
}

// QuitChan signals when the user asked to quit
func (t *TUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
