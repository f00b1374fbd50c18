package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the fplugctl configuration file.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Request  RequestConfig  `yaml:"request"`
	Log      LogConfig      `yaml:"log"`
	Exporter ExporterConfig `yaml:"exporter"`
}

// DeviceConfig selects the plug and how to reach it.
type DeviceConfig struct {
	Address     string        `yaml:"address"`
	Transport   string        `yaml:"transport"`
	BaudRate    int           `yaml:"baud_rate"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// RequestConfig tunes the controller.
type RequestConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ExporterConfig configures the Prometheus exporter.
type ExporterConfig struct {
	Listen   string        `yaml:"listen"`
	Interval time.Duration `yaml:"interval"`
}

const (
	transportSerial = "serial"
	transportTCP    = "tcp"
)

func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Transport:   transportSerial,
			BaudRate:    115200,
			DialTimeout: 10 * time.Second,
		},
		Request: RequestConfig{
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Exporter: ExporterConfig{
			Listen:   ":9478",
			Interval: 30 * time.Second,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path or a missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings needed to talk to a real device.
func (c *Config) Validate(simulate bool) error {
	if !simulate && c.Device.Address == "" {
		return errors.New("device.address is required (or use --simulate)")
	}
	switch c.Device.Transport {
	case transportSerial, transportTCP:
	default:
		return fmt.Errorf("device.transport must be %q or %q, got %q", transportSerial, transportTCP, c.Device.Transport)
	}
	if c.Device.DialTimeout <= 0 {
		return fmt.Errorf("device.dial_timeout must be positive, got %s", c.Device.DialTimeout)
	}
	if c.Request.Timeout <= 0 {
		return fmt.Errorf("request.timeout must be positive, got %s", c.Request.Timeout)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
