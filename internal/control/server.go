// ABOUTME: WebSocket control server for remote ToneForge operation
// ABOUTME: Routes client commands to the engine and broadcasts status updates
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ToneForge-Audio/toneforge-go/internal/discovery"
	"github.com/ToneForge-Audio/toneforge-go/internal/version"
	"github.com/ToneForge-Audio/toneforge-go/pkg/protocol"
)

// DefaultPort is the control server's default listen port.
const DefaultPort = 8941

// Controller is the playback surface the server drives. Commands
// arriving over the wire are translated into these calls.
type Controller interface {
	Start() error
	Stop() error
	SetMode(mode string) error
	SetFrequency(hz float64) error
	Status() protocol.Status
}

// Config holds control server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
}

// Server accepts control connections and relays commands to a Controller
type Server struct {
	config     Config
	serverID   string
	controller Controller

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*client
	clientsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// client represents a connected remote (internal)
type client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	// Output channel for messages
	sendChan chan protocol.Message
}

// ClientInfo describes a connected remote
type ClientInfo struct {
	ID   string
	Name string
}

// New creates a control server for the given controller
func New(config Config, controller Controller) (*Server, error) {
	if controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = version.Product
	}

	return &Server{
		config:     config,
		serverID:   uuid.New().String(),
		controller: controller,
		mux:        http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Control runs on trusted local networks only.
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}, nil
}

// Start runs the server until Stop is called or listening fails.
func (s *Server) Start() error {
	log.Printf("Control server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			InstanceName: s.config.Name,
			Port:         s.config.Port,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	s.mux.HandleFunc("/toneforge", s.handleWebSocket)

	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Printf("Control server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Control server shutting down...")
	case err := <-errChan:
		log.Printf("Control server error: %v", err)
		serverErr = err
	}

	// Reject new connections from here on.
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("Control server shutdown error: %v", err)
	}

	// Shutdown does not touch hijacked websocket connections, so close
	// them here or the writer goroutines would never exit.
	s.closeAllClients()

	s.wg.Wait()
	log.Printf("Control server stopped")

	if serverErr != nil {
		return fmt.Errorf("control server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Clients returns information about all connected remotes
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	infos := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		infos = append(infos, ClientInfo{ID: c.ID, Name: c.Name})
	}
	return infos
}

// Broadcast sends a status update to every connected remote.
func (s *Server) Broadcast(status protocol.Status) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, protocol.TypeServerStatus, status); err != nil && s.config.Debug {
			log.Printf("[DEBUG] Dropping status for %s: %v", c.Name, err)
		}
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New control connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a remote connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		log.Printf("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	// Wait for client/hello
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("Error reading hello: %v", err)
		return
	}

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != protocol.TypeClientHello {
		log.Printf("Expected client/hello, got %s", msg.Type)
		return
	}

	helloData, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("Error marshaling hello payload: %v", err)
		return
	}

	var hello protocol.ClientHello
	if err := json.Unmarshal(helloData, &hello); err != nil {
		log.Printf("Error unmarshaling client hello: %v", err)
		return
	}

	if hello.ClientID == "" || hello.Name == "" {
		log.Printf("Client hello missing required fields")
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	c := &client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan protocol.Message, 100),
	}

	// Check for duplicate and register atomically.
	s.clientsMu.Lock()
	if _, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		log.Printf("Client ID %s already connected, rejecting duplicate", hello.ClientID)

		errorMsg := protocol.Message{
			Type: protocol.TypeServerError,
			Payload: protocol.ErrorInfo{
				Code:    "duplicate_client_id",
				Message: "client ID already connected",
			},
		}
		if data, err := json.Marshal(errorMsg); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
		return
	}
	s.clients[c.ID] = c
	s.clientsMu.Unlock()

	defer func() {
		s.removeClient(c)
		log.Printf("Client disconnected: %s", c.Name)
	}()

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Product:  version.Product,
		Version:  version.Version,
	}

	if err := s.sendMessage(c, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	// Start writer goroutine
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	// Read messages from remote
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(c, data)
	}
}

// clientWriter sends messages to the remote
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}

// handleClientMessage processes messages from remotes
func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeClientCommand:
		s.handleCommand(c, msg.Payload)
	case protocol.TypeClientGoodbye:
		s.handleGoodbye(c, msg.Payload)
	default:
		if s.config.Debug {
			log.Printf("[DEBUG] Unknown message type: %s", msg.Type)
		}
	}
}

// handleCommand dispatches a command to the controller. Every command
// is answered with a server/status carrying the resulting state;
// failures additionally produce a server/error first.
func (s *Server) handleCommand(c *client, payload interface{}) {
	cmdData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	var cmd protocol.Command
	if err := json.Unmarshal(cmdData, &cmd); err != nil {
		s.sendError(c, "bad_command", "command payload did not parse")
		return
	}

	var cmdErr error
	switch cmd.Action {
	case protocol.ActionStart:
		cmdErr = s.controller.Start()
	case protocol.ActionStop:
		cmdErr = s.controller.Stop()
	case protocol.ActionSetMode:
		cmdErr = s.controller.SetMode(cmd.Mode)
	case protocol.ActionSetFrequency:
		cmdErr = s.controller.SetFrequency(cmd.Frequency)
	case protocol.ActionGetStatus:
		// Status reply below covers it.
	default:
		s.sendError(c, "unknown_action", fmt.Sprintf("unknown action %q", cmd.Action))
		return
	}

	if cmdErr != nil {
		log.Printf("Command %s from %s failed: %v", cmd.Action, c.Name, cmdErr)
		s.sendError(c, "command_failed", cmdErr.Error())
	}

	s.sendMessage(c, protocol.TypeServerStatus, s.controller.Status())
}

// handleGoodbye handles graceful disconnect from remotes
func (s *Server) handleGoodbye(c *client, payload interface{}) {
	goodbyeData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	var goodbye protocol.Goodbye
	if err := json.Unmarshal(goodbyeData, &goodbye); err != nil {
		return
	}

	log.Printf("Client %s goodbye: %s", c.Name, goodbye.Reason)
	// Connection closes after message handling.
}

// removeClient removes a remote from the registry
func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	delete(s.clients, c.ID)
	close(c.sendChan)
}

// closeAllClients force-closes every connection so read loops unwind.
func (s *Server) closeAllClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		c.Conn.Close()
	}
}

// sendMessage queues a JSON message for a remote
func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendError queues a server/error for a remote
func (s *Server) sendError(c *client, code, message string) {
	s.sendMessage(c, protocol.TypeServerError, protocol.ErrorInfo{
		Code:    code,
		Message: message,
	})
}
