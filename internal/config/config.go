// Package config loads the daemon configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/conveyor-interlock/internal/hardware"
)

// Config models conveyor-interlock.yml.
type Config struct {
	Poll      time.Duration `yaml:"poll"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Broker    string        `yaml:"broker"`
	HTTP      string        `yaml:"http"`
	Journal   string        `yaml:"journal"`
	Simulate  bool          `yaml:"simulate"`
	Chip      string        `yaml:"chip"`
	Pins      hardware.Pins `yaml:"pins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Poll:      100 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		Broker:    "tcp://localhost:1883",
		HTTP:      ":8080",
		Journal:   "data/alarms.db",
		Chip:      hardware.DefaultChip,
		Pins:      hardware.DefaultPins(),
	}
}

// Load reads and validates the config file at path.
// Keys missing from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config %s not found", path)
		}
		return Config{}, err
	}
	return FromYAML(data)
}

// FromYAML parses YAML over the defaults and validates the result.
// Unknown keys are rejected. An empty document yields the defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures the config is usable.
func (c Config) Validate() error {
	if c.Poll <= 0 {
		return fmt.Errorf("config.poll must be positive, got %v", c.Poll)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config.heartbeat must not be negative, got %v", c.Heartbeat)
	}
	if !c.Simulate {
		if c.Chip == "" {
			return fmt.Errorf("config.chip is required unless simulate is set")
		}
		if err := c.Pins.Validate(); err != nil {
			return fmt.Errorf("config.pins: %w", err)
		}
	}
	return nil
}

// ToYAML renders the config.
func (c Config) ToYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
