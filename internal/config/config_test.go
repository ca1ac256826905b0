// ABOUTME: Tests for YAML configuration loading
// ABOUTME: Covers defaults, file layering, save round trips, and validation
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.Mode != "sine" {
		t.Errorf("expected default mode sine, got %s", cfg.Mode)
	}
	if cfg.Frequency != 440 {
		t.Errorf("expected default frequency 440, got %g", cfg.Frequency)
	}
	if cfg.Buffer.Count != 3 {
		t.Errorf("expected default buffer count 3, got %d", cfg.Buffer.Count)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Mode != DefaultMode || cfg.Output != DefaultOutput {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("mode: pink\nfrequency: 880\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if cfg.Mode != "pink" {
		t.Errorf("expected mode pink, got %s", cfg.Mode)
	}
	if cfg.Frequency != 880 {
		t.Errorf("expected frequency 880, got %g", cfg.Frequency)
	}
	// Unset fields keep their defaults.
	if cfg.Output != DefaultOutput {
		t.Errorf("expected default output, got %s", cfg.Output)
	}
	if cfg.Buffer.DurationMs != DefaultBufferMs {
		t.Errorf("expected default buffer duration, got %d", cfg.Buffer.DurationMs)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Mode = "split"
	cfg.Frequency = 1000
	cfg.Control.Enabled = true
	cfg.Control.Port = 9000

	if err := cfg.Save(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if loaded.Mode != "split" || loaded.Frequency != 1000 {
		t.Errorf("round trip lost generator settings: %+v", loaded)
	}
	if !loaded.Control.Enabled || loaded.Control.Port != 9000 {
		t.Errorf("round trip lost control settings: %+v", loaded.Control)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mode: techno\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"pink mode", func(c *Config) { c.Mode = "pink" }, false},
		{"unknown mode", func(c *Config) { c.Mode = "square" }, true},
		{"unknown output", func(c *Config) { c.Output = "jack" }, true},
		{"none output", func(c *Config) { c.Output = "none" }, false},
		{"zero frequency", func(c *Config) { c.Frequency = 0 }, true},
		{"negative frequency", func(c *Config) { c.Frequency = -10 }, true},
		{"tiny buffer", func(c *Config) { c.Buffer.DurationMs = 5 }, true},
		{"single buffer", func(c *Config) { c.Buffer.Count = 1 }, true},
		{"bad port", func(c *Config) { c.Control.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
