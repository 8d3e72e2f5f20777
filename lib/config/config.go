// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SANCTUM_CONFIG"

// Config holds client-side settings for connecting to the vault daemon.
type Config struct {
	// SocketPath is the Unix socket path of the vault daemon. Mutually
	// exclusive with Host/Port. Empty means the default socket under
	// the per-user configuration directory (~/.sanctum/vault.sock).
	SocketPath string `yaml:"socket_path,omitempty"`

	// Host and Port select a TCP connection instead of the Unix socket.
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// KeyDir is the directory holding agent key files. Empty means
	// ~/.sanctum/keys.
	KeyDir string `yaml:"key_dir,omitempty"`

	// KeyPath overrides the per-agent key file lookup with an explicit
	// key file.
	KeyPath string `yaml:"key_path,omitempty"`

	// CallTimeoutSeconds bounds each request/response round trip.
	// Zero means the default (30 seconds).
	CallTimeoutSeconds int `yaml:"call_timeout_seconds,omitempty"`
}

// Default returns an empty configuration: default socket, default key
// directory, default call timeout.
func Default() Config {
	return Config{}
}

// Load loads configuration from the file named by SANCTUM_CONFIG.
// Returns [Default] when the variable is unset: unlike server-side
// components, a client with no config file is a normal situation.
func Load() (Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from an explicit file path. The file is
// the single source of truth; environment variables do not override its
// values. ${VAR} and ${VAR:-default} patterns in path fields are
// expanded after parsing.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.SocketPath = expandVars(cfg.SocketPath)
	cfg.KeyDir = expandVars(cfg.KeyDir)
	cfg.KeyPath = expandVars(cfg.KeyPath)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.SocketPath != "" && c.Host != "" {
		return fmt.Errorf("socket_path and host are mutually exclusive")
	}
	if c.Host != "" && c.Port == 0 {
		return fmt.Errorf("port is required when host is set")
	}
	if c.Host == "" && c.Port != 0 {
		return fmt.Errorf("host is required when port is set")
	}
	if c.CallTimeoutSeconds < 0 {
		return fmt.Errorf("call_timeout_seconds must not be negative")
	}
	return nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
