// ABOUTME: ToneForge control protocol message definitions
// ABOUTME: Defines the JSON envelope and payloads for remote control
package protocol

// Message is the top-level wrapper for all control messages.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Message type identifiers.
const (
	TypeClientHello   = "client/hello"
	TypeClientCommand = "client/command"
	TypeClientGoodbye = "client/goodbye"
	TypeServerHello   = "server/hello"
	TypeServerStatus  = "server/status"
	TypeServerError   = "server/error"
)

// Command actions accepted by a ToneForge instance.
const (
	ActionStart        = "start"
	ActionStop         = "stop"
	ActionSetMode      = "set_mode"
	ActionSetFrequency = "set_frequency"
	ActionGetStatus    = "get_status"
)

// ClientHello is sent by remotes to identify themselves.
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// ServerHello is the instance's response to client/hello.
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Product  string `json:"product"`
	Version  string `json:"version"`
}

// Command asks the instance to change playback state.
type Command struct {
	Action    string  `json:"action"`
	Mode      string  `json:"mode,omitempty"`
	Frequency float64 `json:"frequency,omitempty"`
}

// Status reports the instance's playback state. Broadcast to every
// connected remote on change and sent on request.
type Status struct {
	State      string  `json:"state"` // "idle" or "running"
	Mode       string  `json:"mode"`
	Frequency  float64 `json:"frequency"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	Buffers    uint64  `json:"buffers"`
	Bytes      uint64  `json:"bytes"`
}

// Goodbye is sent before a graceful disconnect.
type Goodbye struct {
	Reason string `json:"reason"` // "shutdown", "user_request"
}

// ErrorInfo reports a rejected command or connection.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
