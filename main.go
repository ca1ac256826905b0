// ABOUTME: Entry point for the ToneForge tone generator
// ABOUTME: Parses CLI flags, loads config, and starts the application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ToneForge-Audio/toneforge-go/internal/app"
	"github.com/ToneForge-Audio/toneforge-go/internal/config"
	"github.com/ToneForge-Audio/toneforge-go/internal/version"
)

var (
	configPath  = flag.String("config", "", "Config file path (default: user config dir)")
	mode        = flag.String("mode", config.DefaultMode, "Generator mode: sine, pink, or split")
	frequency   = flag.Float64("freq", config.DefaultFrequency, "Sine frequency in Hz")
	outputName  = flag.String("output", config.DefaultOutput, "Output backend: oto, malgo, portaudio, or none")
	name        = flag.String("name", "", "Instance name (default: toneforge-hostname)")
	enableCtl   = flag.Bool("control", false, "Enable the websocket control server")
	controlPort = flag.Int("port", config.DefaultControlPort, "Control server port")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement for the control server")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI and start playback immediately")
	duration    = flag.Duration("duration", 0, "Stop after this long in headless mode (0 = run until signal)")
	logFile     = flag.String("log-file", "toneforge.log", "Log file path")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	useTUI := !*noTUI

	// Set up logging. The TUI owns the terminal, so its logs go to the
	// file only; headless runs log to both.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = *logFile
	}
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, cfg.Name)
	log.Printf("Mode: %s, output: %s", cfg.Mode, cfg.Output)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received %v signal, shutting down gracefully...", sig)
		a.Shutdown()
	}()

	if *duration > 0 {
		time.AfterFunc(*duration, a.Shutdown)
	}

	if useTUI {
		err = a.Run()
	} else {
		log.Printf("TUI disabled, starting playback")
		err = a.RunHeadless()
	}
	if err != nil {
		log.Fatalf("ToneForge error: %v", err)
	}

	log.Printf("ToneForge stopped")
}

// loadConfig reads the config file and layers explicit flags over it.
func loadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	// Only flags the user actually passed override the file.
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "mode":
			cfg.Mode = *mode
		case "freq":
			cfg.Frequency = *frequency
		case "output":
			cfg.Output = *outputName
		case "name":
			cfg.Name = *name
		case "control":
			cfg.Control.Enabled = *enableCtl
		case "port":
			cfg.Control.Port = *controlPort
		case "no-mdns":
			cfg.Control.MDNS = !*noMDNS
		case "log-file":
			cfg.LogFile = *logFile
		}
	})

	if cfg.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Name = fmt.Sprintf("toneforge-%s", hostname)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
