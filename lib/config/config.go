// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads mcqd's configuration.
//
// Configuration comes from an optional YAML file plus command-line
// flag overrides. There is no automatic discovery: the file is read
// only when --config names it, which keeps the effective
// configuration deterministic and auditable. Everything can also be
// supplied by flags alone.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the full mcqd configuration.
type Config struct {
	// Listen is the address the SSH server binds, host:port.
	Listen string `yaml:"listen"`

	// Document is the path to the questionnaire markdown file.
	Document string `yaml:"document"`

	// DataDir holds all durable state: claimed identities under
	// authorized_keys/, answer records under results/, and the host
	// key (when HostKey is not set explicitly).
	DataDir string `yaml:"data_dir"`

	// ClaimSecret is the shared onboarding secret that lets an
	// unclaimed username register its first public key. Empty
	// disables claiming entirely (only pre-provisioned identities
	// can connect).
	ClaimSecret string `yaml:"claim_secret"`

	// HostKey is the SSH host key path. Generated on first start
	// when the file does not exist. Defaults to
	// <data_dir>/host_key_ed25519.
	HostKey string `yaml:"host_key"`

	// ExternalAddress is the host:port clients should be told to
	// connect to in onboarding instructions, when it differs from
	// Listen (reverse proxies, port forwards).
	ExternalAddress string `yaml:"external_address"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:   "localhost:8022",
		DataDir:  "data",
		LogLevel: "info",
	}
}

// Load reads and strictly decodes a YAML config file over the
// defaults. Unknown keys are an error: a typoed key should fail
// startup, not silently fall back.
func Load(path string) (Config, error) {
	configuration := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&configuration); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return configuration, nil
}

// Validate checks that the configuration can start a server.
func (configuration *Config) Validate() error {
	if configuration.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if configuration.Document == "" {
		return fmt.Errorf("questionnaire document path is required")
	}
	if configuration.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if _, err := configuration.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// AuthorizedKeysDir returns the identity store directory.
func (configuration *Config) AuthorizedKeysDir() string {
	return filepath.Join(configuration.DataDir, "authorized_keys")
}

// ResultsDir returns the answer store directory.
func (configuration *Config) ResultsDir() string {
	return filepath.Join(configuration.DataDir, "results")
}

// HostKeyPath returns the configured host key path, or its default
// location inside the data directory.
func (configuration *Config) HostKeyPath() string {
	if configuration.HostKey != "" {
		return configuration.HostKey
	}
	return filepath.Join(configuration.DataDir, "host_key_ed25519")
}

// SlogLevel maps LogLevel to a slog.Level.
func (configuration *Config) SlogLevel() (slog.Level, error) {
	switch configuration.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want debug, info, warn, or error)", configuration.LogLevel)
	}
}
