// Package config holds the server's tunable constants and the YAML
// loader that can override them.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables for the match/session state machine.
// Bind address and port are deliberately absent: per the CLI surface,
// those are positional arguments, never read from this file.
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Capacity
	MaxClients int `yaml:"max_clients"`
	MaxRooms   int `yaml:"max_rooms"`

	// Match engine
	WinThreshold int           `yaml:"win_threshold"`
	RoundTimeout time.Duration `yaml:"round_timeout"`

	// Heartbeat / timeout supervisor
	PingInterval   time.Duration `yaml:"ping_interval"`
	SoftTimeout    time.Duration `yaml:"soft_timeout"`
	HardTimeout    time.Duration `yaml:"hard_timeout"`
	SupervisorTick time.Duration `yaml:"supervisor_tick"`

	// Protocol
	MaxLineLength int `yaml:"max_line_length"`
	MaxInvalid    int `yaml:"max_invalid_streak"`

	// Observability
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns Config with every tunable set to its named constant.
func Default() Config {
	return Config{
		LogLevel:       "info",
		MaxClients:     128,
		MaxRooms:       64,
		WinThreshold:   5,
		RoundTimeout:   10 * time.Second,
		PingInterval:   3 * time.Second,
		SoftTimeout:    6 * time.Second,
		HardTimeout:    45 * time.Second,
		SupervisorTick: 200 * time.Millisecond,
		MaxLineLength:  512,
		MaxInvalid:     3,
		MetricsAddr:    ":9090",
	}
}

// Load reads a YAML overlay from path on top of Default(). A missing
// file is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
