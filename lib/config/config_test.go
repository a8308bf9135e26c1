// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcqd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":2222"
document: quiz.md
data_dir: /var/lib/mcqd
claim_secret: onboarding
external_address: quiz.example.com:22
log_level: debug
`)
	configuration, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if configuration.Listen != ":2222" || configuration.Document != "quiz.md" {
		t.Errorf("loaded = %+v", configuration)
	}
	if configuration.AuthorizedKeysDir() != "/var/lib/mcqd/authorized_keys" {
		t.Errorf("AuthorizedKeysDir = %q", configuration.AuthorizedKeysDir())
	}
	if configuration.ResultsDir() != "/var/lib/mcqd/results" {
		t.Errorf("ResultsDir = %q", configuration.ResultsDir())
	}
	if configuration.HostKeyPath() != "/var/lib/mcqd/host_key_ed25519" {
		t.Errorf("HostKeyPath default = %q", configuration.HostKeyPath())
	}
	if level, err := configuration.SlogLevel(); err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", level, err)
	}
	if err := configuration.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "document: quiz.md\n")
	configuration, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if configuration.Listen != "localhost:8022" {
		t.Errorf("Listen default = %q", configuration.Listen)
	}
	if configuration.DataDir != "data" {
		t.Errorf("DataDir default = %q", configuration.DataDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "documnet: typo.md\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestValidate(t *testing.T) {
	configuration := Default()
	if err := configuration.Validate(); err == nil {
		t.Error("Validate should require a document path")
	}
	configuration.Document = "quiz.md"
	if err := configuration.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	configuration.LogLevel = "loud"
	err := configuration.Validate()
	if err == nil || !strings.Contains(err.Error(), "log level") {
		t.Errorf("Validate with bad level = %v", err)
	}
}

func TestExplicitHostKeyWins(t *testing.T) {
	configuration := Default()
	configuration.HostKey = "/etc/mcqd/key"
	if configuration.HostKeyPath() != "/etc/mcqd/key" {
		t.Errorf("HostKeyPath = %q", configuration.HostKeyPath())
	}
}
