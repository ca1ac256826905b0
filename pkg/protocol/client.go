// ABOUTME: WebSocket client for the ToneForge control protocol
// ABOUTME: Handles connection, handshake, and status routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds client configuration.
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	Version    string
}

// Client is a WebSocket control connection to a ToneForge instance.
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Statuses receives every server/status the instance sends.
	Statuses chan Status

	connected bool
	server    ServerHello
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a control client.
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:   config,
		Statuses: make(chan Status, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect dials the instance and performs the hello handshake.
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: "/toneforge"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello.
func (c *Client) handshake() error {
	hello := Message{
		Type: TypeClientHello,
		Payload: ClientHello{
			ClientID: c.config.ClientID,
			Name:     c.config.Name,
			Version:  c.config.Version,
		},
	}

	if err := c.sendJSON(hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", msg.Type)
	}

	payload, _ := json.Marshal(msg.Payload)
	var server ServerHello
	if err := json.Unmarshal(payload, &server); err != nil {
		return fmt.Errorf("failed to parse server/hello payload: %w", err)
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()

	log.Printf("Connected to %s (%s %s)", server.Name, server.Product, server.Version)
	return nil
}

// Server returns the hello the instance answered with.
func (c *Client) Server() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// SendCommand sends a client/command message.
func (c *Client) SendCommand(cmd Command) error {
	return c.sendJSON(Message{Type: TypeClientCommand, Payload: cmd})
}

// RequestStatus asks the instance to send a status message.
func (c *Client) RequestStatus() error {
	return c.SendCommand(Command{Action: ActionGetStatus})
}

// SendGoodbye sends a client/goodbye before disconnecting.
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: Goodbye{Reason: reason}})
}

// sendJSON writes one message to the connection.
func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages.
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error: %v", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse message: %v", err)
			continue
		}

		switch msg.Type {
		case TypeServerStatus:
			payload, _ := json.Marshal(msg.Payload)
			var status Status
			if err := json.Unmarshal(payload, &status); err != nil {
				log.Printf("Failed to parse server/status: %v", err)
				continue
			}
			select {
			case c.Statuses <- status:
			case <-c.ctx.Done():
				return
			default:
				log.Printf("Status channel full, dropping message")
			}

		case TypeServerError:
			payload, _ := json.Marshal(msg.Payload)
			var info ErrorInfo
			if err := json.Unmarshal(payload, &info); err != nil {
				log.Printf("Failed to parse server/error: %v", err)
				continue
			}
			log.Printf("Server error: %s (%s)", info.Message, info.Code)

		default:
			log.Printf("Unknown message type: %s", msg.Type)
		}
	}
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close closes the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}
