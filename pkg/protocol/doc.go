// ABOUTME: ToneForge control protocol package
// ABOUTME: Defines control messages and the WebSocket client
// Package protocol implements the ToneForge remote control protocol.
//
// Control messages are JSON envelopes over WebSocket. Only state and
// commands cross the wire; audio never does.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8941"})
//	err := client.Connect()
//	err = client.SendCommand(protocol.Command{Action: protocol.ActionStart})
package protocol
