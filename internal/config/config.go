// ABOUTME: YAML configuration loading and validation
// ABOUTME: Maps a config file onto engine, output, and control settings
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "toneforge"

	// fileName is the config file name inside appDir.
	fileName = "config.yaml"
)

// Defaults applied when a field is absent from the file.
const (
	DefaultMode        = "sine"
	DefaultFrequency   = 440.0
	DefaultOutput      = "oto"
	DefaultBufferMs    = 100
	DefaultBufferCount = 3
	DefaultControlPort = 8941
)

// Config holds the full ToneForge configuration.
type Config struct {
	// Name identifies this instance in mDNS records and control hellos.
	Name string `yaml:"name"`

	// Mode selects the generator: "sine", "pink", or "split".
	Mode string `yaml:"mode"`

	// Frequency is the sine frequency in Hz.
	Frequency float64 `yaml:"frequency"`

	// Output selects the sink backend: "oto", "malgo", "portaudio", or "none".
	Output string `yaml:"output"`

	Buffer  BufferConfig  `yaml:"buffer"`
	Control ControlConfig `yaml:"control"`

	// LogFile, when set, receives a copy of the log output.
	LogFile string `yaml:"log_file,omitempty"`
}

// BufferConfig sizes the playback buffer pool.
type BufferConfig struct {
	DurationMs int `yaml:"duration_ms"`
	Count      int `yaml:"count"`
}

// ControlConfig configures the websocket control server.
type ControlConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
	MDNS    bool `yaml:"mdns"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	name := "toneforge"
	if host, err := os.Hostname(); err == nil && host != "" {
		name = fmt.Sprintf("toneforge-%s", host)
	}

	return &Config{
		Name:      name,
		Mode:      DefaultMode,
		Frequency: DefaultFrequency,
		Output:    DefaultOutput,
		Buffer: BufferConfig{
			DurationMs: DefaultBufferMs,
			Count:      DefaultBufferCount,
		},
		Control: ControlConfig{
			Enabled: false,
			Port:    DefaultControlPort,
			MDNS:    true,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load reads the config at path, layering the file over defaults.
// A missing file is not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.Mode {
	case "sine", "pink", "split":
	default:
		return fmt.Errorf("invalid mode %q (want sine, pink, or split)", c.Mode)
	}

	switch c.Output {
	case "oto", "malgo", "portaudio", "none":
	default:
		return fmt.Errorf("invalid output %q (want oto, malgo, portaudio, or none)", c.Output)
	}

	if c.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %g", c.Frequency)
	}

	if c.Buffer.DurationMs < 10 {
		return fmt.Errorf("buffer duration must be at least 10ms, got %d", c.Buffer.DurationMs)
	}
	if c.Buffer.Count < 2 {
		return fmt.Errorf("buffer count must be at least 2, got %d", c.Buffer.Count)
	}

	if c.Control.Port < 1 || c.Control.Port > 65535 {
		return fmt.Errorf("invalid control port %d", c.Control.Port)
	}
	return nil
}
