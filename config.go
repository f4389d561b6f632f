package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Bind            string        `yaml:"bind"`
	Port            int           `yaml:"port"`
	WSPath          string        `yaml:"ws_path"`
	SampleInterval  time.Duration `yaml:"sample_interval"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

// reservedPaths are routed by the server itself and cannot carry the stream.
var reservedPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
}

func defaultConfig() *Config {
	return &Config{
		Bind:            "127.0.0.1",
		Port:            3000,
		WSPath:          "/api/realtime_cpus",
		SampleInterval:  defaultSampleInterval,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cpustream", "config.yaml")
}

// loadConfig reads path over the defaults. A missing file yields the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ListenAddr returns the host:port to bind.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		errs = append(errs, fmt.Errorf("ws_path %q must start with /", c.WSPath))
	} else if reservedPaths[c.WSPath] {
		errs = append(errs, fmt.Errorf("ws_path %q is reserved", c.WSPath))
	}
	if c.SampleInterval <= 0 {
		errs = append(errs, fmt.Errorf("sample_interval must be positive, got %v", c.SampleInterval))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write_timeout must be positive, got %v", c.WriteTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %v", c.ShutdownTimeout))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q must be console or json", c.LogFormat))
	}
	return errors.Join(errs...)
}
