package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CaptureConfig tunes the recording pipeline. The flush window and staging
// capacity depend on the bus bit rate, so both are configuration rather than
// constants.
type CaptureConfig struct {
	FlushWindow     string `yaml:"flush_window"`
	StagingCapacity int    `yaml:"staging_capacity"`
}

// Window parses the inactivity flush window.
func (c CaptureConfig) Window() (time.Duration, error) {
	if c.FlushWindow == "" {
		return 50 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.FlushWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid flush_window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("flush_window must be positive, got %s", d)
	}
	return d, nil
}

// SerialConfig holds the line settings shared by all monitored ports.
type SerialConfig struct {
	Baud     int    `yaml:"baud"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
}

// ProbeConfig controls the optional live NATS record publisher.
type ProbeConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// APIConfig controls the optional stats HTTP endpoint.
type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level configuration struct for the capture tool.
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
	Serial  SerialConfig  `yaml:"serial"`
	Probe   ProbeConfig   `yaml:"probe"`
	API     APIConfig     `yaml:"api"`
}

// Default returns the built-in configuration: a 9600 baud 7E1 bus, a 50ms
// flush window, and a 32-byte staging buffer.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			FlushWindow:     "50ms",
			StagingCapacity: 32,
		},
		Serial: SerialConfig{
			Baud:     9600,
			DataBits: 7,
			Parity:   "even",
			StopBits: 1,
		},
		Probe: ProbeConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "serialscope.records",
		},
		API: APIConfig{
			Enabled:    false,
			ListenAddr: ":8422",
		},
	}
}

// LoadConfig reads a YAML file over the defaults and returns the merged
// configuration.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if cfg.Capture.StagingCapacity <= 0 {
		return nil, fmt.Errorf("staging_capacity must be positive, got %d", cfg.Capture.StagingCapacity)
	}
	if _, err := cfg.Capture.Window(); err != nil {
		return nil, err
	}
	return cfg, nil
}
