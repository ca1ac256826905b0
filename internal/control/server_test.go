// ABOUTME: Integration tests for the control server
// ABOUTME: Covers startup, handshakes, command routing, and broadcasts
package control

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ToneForge-Audio/toneforge-go/pkg/protocol"
)

// fakeController records calls and serves canned status.
type fakeController struct {
	mu      sync.Mutex
	running bool
	mode    string
	freq    float64
	calls   []string
	fail    bool
}

func newFakeController() *fakeController {
	return &fakeController{mode: "sine", freq: 440}
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.fail {
		return fmt.Errorf("controller refused %s", call)
	}
	return nil
}

func (f *fakeController) Start() error {
	if err := f.record("start"); err != nil {
		return err
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	return nil
}

func (f *fakeController) Stop() error {
	if err := f.record("stop"); err != nil {
		return err
	}
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	return nil
}

func (f *fakeController) SetMode(mode string) error {
	if err := f.record("set_mode"); err != nil {
		return err
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	return nil
}

func (f *fakeController) SetFrequency(hz float64) error {
	if err := f.record("set_frequency"); err != nil {
		return err
	}
	f.mu.Lock()
	f.freq = hz
	f.mu.Unlock()
	return nil
}

func (f *fakeController) Status() protocol.Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := "idle"
	if f.running {
		state = "running"
	}
	return protocol.Status{
		State:      state,
		Mode:       f.mode,
		Frequency:  f.freq,
		SampleRate: 44100,
		Channels:   2,
		BitDepth:   16,
	}
}

func (f *fakeController) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// dialAndHello connects to a running server and completes the handshake.
func dialAndHello(t *testing.T, port int, clientID string) *websocket.Conn {
	t.Helper()

	wsURL := fmt.Sprintf("ws://localhost:%d/toneforge", port)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	hello := protocol.Message{
		Type: protocol.TypeClientHello,
		Payload: protocol.ClientHello{
			ClientID: clientID,
			Name:     "Test Remote",
			Version:  "0.1.0",
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("failed to send hello: %v", err)
	}

	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read server hello: %v", err)
	}
	if msg.Type != protocol.TypeServerHello {
		t.Fatalf("expected server/hello, got %s", msg.Type)
	}

	return conn
}

// readTyped reads one message and decodes its payload into v.
func readTyped(t *testing.T, conn *websocket.Conn, wantType string, v interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	if msg.Type != wantType {
		t.Fatalf("expected %s, got %s", wantType, msg.Type)
	}

	payload, _ := json.Marshal(msg.Payload)
	if err := json.Unmarshal(payload, v); err != nil {
		t.Fatalf("failed to decode %s payload: %v", wantType, err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		controller Controller
		expectErr  bool
	}{
		{
			name:       "valid config",
			config:     Config{Port: 8942, Name: "Test"},
			controller: newFakeController(),
			expectErr:  false,
		},
		{
			name:      "missing controller",
			config:    Config{Port: 8942},
			expectErr: true,
		},
		{
			name:       "defaults applied",
			config:     Config{},
			controller: newFakeController(),
			expectErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := New(tt.config, tt.controller)

			if tt.expectErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if server.config.Port == 0 {
				t.Error("port should have been set to default")
			}
			if server.config.Name == "" {
				t.Error("name should have been set to default")
			}
		})
	}
}

func TestServerStartStop(t *testing.T) {
	server, err := New(Config{Port: 8943, Name: "Test"}, newFakeController())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)
	server.Stop()

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("server error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not stop within timeout")
	}
}

func TestServerCommandRoundTrip(t *testing.T) {
	ctrl := newFakeController()
	server, err := New(Config{Port: 8944, Name: "Studio"}, ctrl)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()
	time.Sleep(200 * time.Millisecond)

	conn := dialAndHello(t, 8944, "remote-1")
	defer conn.Close()

	// Start playback.
	cmd := protocol.Message{
		Type:    protocol.TypeClientCommand,
		Payload: protocol.Command{Action: protocol.ActionStart},
	}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	var status protocol.Status
	readTyped(t, conn, protocol.TypeServerStatus, &status)
	if status.State != "running" {
		t.Errorf("expected state running, got %s", status.State)
	}

	// Retune.
	cmd.Payload = protocol.Command{Action: protocol.ActionSetFrequency, Frequency: 880}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	readTyped(t, conn, protocol.TypeServerStatus, &status)
	if status.Frequency != 880 {
		t.Errorf("expected frequency 880, got %g", status.Frequency)
	}

	calls := ctrl.callLog()
	if len(calls) != 2 || calls[0] != "start" || calls[1] != "set_frequency" {
		t.Errorf("unexpected controller calls: %v", calls)
	}

	clients := server.Clients()
	if len(clients) != 1 || clients[0].ID != "remote-1" {
		t.Errorf("unexpected client list: %+v", clients)
	}

	conn.Close()
	time.Sleep(100 * time.Millisecond)

	if n := len(server.Clients()); n != 0 {
		t.Errorf("expected 0 clients after disconnect, got %d", n)
	}

	server.Stop()
	select {
	case <-errChan:
	case <-time.After(5 * time.Second):
		t.Error("server did not stop within timeout")
	}
}

func TestServerUnknownAction(t *testing.T) {
	server, err := New(Config{Port: 8945, Name: "Test"}, newFakeController())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	go server.Start()
	defer server.Stop()
	time.Sleep(200 * time.Millisecond)

	conn := dialAndHello(t, 8945, "remote-1")
	defer conn.Close()

	cmd := protocol.Message{
		Type:    protocol.TypeClientCommand,
		Payload: protocol.Command{Action: "explode"},
	}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	var info protocol.ErrorInfo
	readTyped(t, conn, protocol.TypeServerError, &info)
	if info.Code != "unknown_action" {
		t.Errorf("expected code unknown_action, got %s", info.Code)
	}
}

func TestServerCommandFailure(t *testing.T) {
	ctrl := newFakeController()
	ctrl.fail = true

	server, err := New(Config{Port: 8946, Name: "Test"}, ctrl)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	go server.Start()
	defer server.Stop()
	time.Sleep(200 * time.Millisecond)

	conn := dialAndHello(t, 8946, "remote-1")
	defer conn.Close()

	cmd := protocol.Message{
		Type:    protocol.TypeClientCommand,
		Payload: protocol.Command{Action: protocol.ActionStart},
	}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("failed to send command: %v", err)
	}

	// A failed command produces server/error followed by the current status.
	var info protocol.ErrorInfo
	readTyped(t, conn, protocol.TypeServerError, &info)
	if info.Code != "command_failed" {
		t.Errorf("expected code command_failed, got %s", info.Code)
	}

	var status protocol.Status
	readTyped(t, conn, protocol.TypeServerStatus, &status)
	if status.State != "idle" {
		t.Errorf("expected state idle after refused start, got %s", status.State)
	}
}

func TestServerRejectsDuplicateClientID(t *testing.T) {
	server, err := New(Config{Port: 8947, Name: "Test"}, newFakeController())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	go server.Start()
	defer server.Stop()
	time.Sleep(200 * time.Millisecond)

	conn1 := dialAndHello(t, 8947, "duplicate-id")
	defer conn1.Close()

	wsURL := "ws://localhost:8947/toneforge"
	conn2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect second client: %v", err)
	}
	defer conn2.Close()

	hello := protocol.Message{
		Type: protocol.TypeClientHello,
		Payload: protocol.ClientHello{
			ClientID: "duplicate-id",
			Name:     "Second Remote",
			Version:  "0.1.0",
		},
	}
	if err := conn2.WriteJSON(hello); err != nil {
		t.Fatalf("failed to send hello: %v", err)
	}

	conn2.SetReadDeadline(time.Now().Add(1 * time.Second))
	var msg protocol.Message
	if err := conn2.ReadJSON(&msg); err == nil {
		if msg.Type != protocol.TypeServerError {
			t.Errorf("expected server/error for duplicate ID, got %s", msg.Type)
		}
	}

	clients := server.Clients()
	if len(clients) != 1 {
		t.Errorf("expected 1 client, got %d", len(clients))
	}
}

func TestServerBroadcast(t *testing.T) {
	server, err := New(Config{Port: 8948, Name: "Test"}, newFakeController())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	go server.Start()
	defer server.Stop()
	time.Sleep(200 * time.Millisecond)

	conn1 := dialAndHello(t, 8948, "remote-1")
	defer conn1.Close()
	conn2 := dialAndHello(t, 8948, "remote-2")
	defer conn2.Close()

	server.Broadcast(protocol.Status{State: "running", Mode: "pink"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		var status protocol.Status
		readTyped(t, conn, protocol.TypeServerStatus, &status)
		if status.State != "running" || status.Mode != "pink" {
			t.Errorf("client %d got unexpected status: %+v", i+1, status)
		}
	}
}
