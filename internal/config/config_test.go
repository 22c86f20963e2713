package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
capture:
  flush_window: 20ms
  staging_capacity: 64
serial:
  baud: 19200
probe:
  enabled: true
  subject: lab.records
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	window, err := cfg.Capture.Window()
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if window != 20*time.Millisecond {
		t.Errorf("Expected 20ms flush window, got %s", window)
	}
	if cfg.Capture.StagingCapacity != 64 {
		t.Errorf("Expected staging capacity 64, got %d", cfg.Capture.StagingCapacity)
	}
	if cfg.Serial.Baud != 19200 {
		t.Errorf("Expected baud 19200, got %d", cfg.Serial.Baud)
	}

	// Untouched fields keep their defaults.
	if cfg.Serial.DataBits != 7 || cfg.Serial.Parity != "even" {
		t.Errorf("Expected default 7E1 line settings, got %d/%s", cfg.Serial.DataBits, cfg.Serial.Parity)
	}
	if !cfg.Probe.Enabled || cfg.Probe.Subject != "lab.records" {
		t.Errorf("Probe config not merged: %+v", cfg.Probe)
	}
	if cfg.Probe.URL != "nats://127.0.0.1:4222" {
		t.Errorf("Expected default NATS URL, got %s", cfg.Probe.URL)
	}
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad window", "capture:\n  flush_window: soon\n"},
		{"negative window", "capture:\n  flush_window: -5ms\n"},
		{"zero staging", "capture:\n  staging_capacity: -1\n"},
	}
	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := LoadConfig(path); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestDefaultWindow(t *testing.T) {
	var c CaptureConfig
	window, err := c.Window()
	if err != nil {
		t.Fatalf("Window failed: %v", err)
	}
	if window != 50*time.Millisecond {
		t.Errorf("Expected 50ms default window, got %s", window)
	}
}
