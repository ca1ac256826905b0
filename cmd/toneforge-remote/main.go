// ABOUTME: Command line remote for running ToneForge instances
// ABOUTME: Discovers an instance over mDNS and sends control commands
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ToneForge-Audio/toneforge-go/internal/discovery"
	"github.com/ToneForge-Audio/toneforge-go/internal/version"
	"github.com/ToneForge-Audio/toneforge-go/pkg/protocol"
)

var (
	serverAddr = flag.String("server", "", "Instance address host:port (default: discover via mDNS)")
	name       = flag.String("name", "toneforge-remote", "Remote name shown to the instance")
	timeout    = flag.Duration("timeout", 3*time.Second, "Discovery and reply timeout")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: toneforge-remote [flags] <command> [arg]

Commands:
  start          start playback
  stop           stop playback
  mode <name>    switch generator mode (sine, pink, split)
  freq <hz>      retune the sine generator
  status         print the current status
  watch          stay connected and print every status update

Flags:
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	addr := *serverAddr
	if addr == "" {
		fmt.Printf("Discovering ToneForge instances (%v)...\n", *timeout)
		info, err := discovery.Lookup(*timeout)
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		addr = info.Addr()
		fmt.Printf("Found %s at %s\n", info.Name, addr)
	}

	client := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       *name,
		Version:    version.Version,
	})

	if err := client.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer client.Close()

	server := client.Server()
	fmt.Printf("Connected to %s (%s %s)\n", server.Name, server.Product, server.Version)

	if err := dispatch(client, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}
}

// dispatch sends the requested command and prints the reply.
func dispatch(client *protocol.Client, args []string) error {
	switch args[0] {
	case "start":
		return sendAndReport(client, protocol.Command{Action: protocol.ActionStart})

	case "stop":
		return sendAndReport(client, protocol.Command{Action: protocol.ActionStop})

	case "mode":
		if len(args) < 2 {
			return fmt.Errorf("mode requires an argument (sine, pink, split)")
		}
		return sendAndReport(client, protocol.Command{
			Action: protocol.ActionSetMode,
			Mode:   args[1],
		})

	case "freq":
		if len(args) < 2 {
			return fmt.Errorf("freq requires a value in Hz")
		}
		hz, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid frequency %q: %w", args[1], err)
		}
		return sendAndReport(client, protocol.Command{
			Action:    protocol.ActionSetFrequency,
			Frequency: hz,
		})

	case "status":
		return sendAndReport(client, protocol.Command{Action: protocol.ActionGetStatus})

	case "watch":
		return watch(client)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// sendAndReport sends one command and waits for the status reply.
func sendAndReport(client *protocol.Client, cmd protocol.Command) error {
	if err := client.SendCommand(cmd); err != nil {
		return err
	}

	select {
	case status := <-client.Statuses:
		printStatus(status)
		client.SendGoodbye("user_request")
		return nil
	case <-time.After(*timeout):
		return fmt.Errorf("no status reply within %v", *timeout)
	}
}

// watch prints every status update until interrupted.
func watch(client *protocol.Client) error {
	if err := client.RequestStatus(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("Watching for status updates (Ctrl-C to stop)...")
	for {
		select {
		case status := <-client.Statuses:
			fmt.Printf("[%s] %s %s %.1f Hz, %d buffers\n",
				time.Now().Format("15:04:05"),
				status.State, status.Mode, status.Frequency, status.Buffers)
		case <-sigChan:
			client.SendGoodbye("user_request")
			return nil
		}
	}
}

// printStatus renders one status reply.
func printStatus(s protocol.Status) {
	fmt.Printf("State:     %s\n", s.State)
	fmt.Printf("Mode:      %s\n", s.Mode)
	fmt.Printf("Frequency: %.1f Hz\n", s.Frequency)
	fmt.Printf("Format:    %d Hz, %dch, %d-bit\n", s.SampleRate, s.Channels, s.BitDepth)
	fmt.Printf("Buffers:   %d (%d bytes)\n", s.Buffers, s.Bytes)
}
