// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nftgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.XRPL.BithompURL != "https://xrplexplorer.com" {
		t.Errorf("unexpected default bithomp_url: %s", cfg.XRPL.BithompURL)
	}
	if cfg.Cache.TTL.Std() != 5*time.Minute {
		t.Errorf("unexpected default cache ttl: %s", cfg.Cache.TTL.Std())
	}
	if cfg.Gatekeeper.SweepInterval.Std() != time.Hour {
		t.Errorf("unexpected default sweep interval: %s", cfg.Gatekeeper.SweepInterval.Std())
	}
}

func TestLoad_RequiresNFTGateConfig(t *testing.T) {
	origConfig := os.Getenv("NFTGATE_CONFIG")
	defer os.Setenv("NFTGATE_CONFIG", origConfig)

	os.Unsetenv("NFTGATE_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when NFTGATE_CONFIG not set, got nil")
	}
	if !strings.Contains(err.Error(), "NFTGATE_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestLoad_WithNFTGateConfig(t *testing.T) {
	origConfig := os.Getenv("NFTGATE_CONFIG")
	defer os.Setenv("NFTGATE_CONFIG", origConfig)

	configPath := writeConfig(t, `
environment: production
matrix:
  homeserver_url: https://matrix.nftgate.example
  user_id: "@gatekeeper:nftgate.example"
  access_token_file: /etc/nftgate/token
xrpl:
  bithomp_url: https://test.xrplexplorer.com
cache:
  ttl: 10m
`)
	os.Setenv("NFTGATE_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Production {
		t.Errorf("expected environment=production, got %s", cfg.Environment)
	}
	if cfg.Matrix.HomeserverURL != "https://matrix.nftgate.example" {
		t.Errorf("unexpected homeserver_url: %s", cfg.Matrix.HomeserverURL)
	}
	if cfg.XRPL.BithompURL != "https://test.xrplexplorer.com" {
		t.Errorf("unexpected bithomp_url: %s", cfg.XRPL.BithompURL)
	}
	if cfg.Cache.TTL.Std() != 10*time.Minute {
		t.Errorf("unexpected cache ttl: %s", cfg.Cache.TTL.Std())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
matrix:
  homeserver_url: http://localhost:8008
  user_id: "@gatekeeper:test.local"
  password_file: /etc/nftgate/password
production:
  matrix:
    homeserver_url: https://matrix.nftgate.example
  cache:
    ttl: 30m
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Matrix.HomeserverURL != "https://matrix.nftgate.example" {
		t.Errorf("production override not applied: %s", cfg.Matrix.HomeserverURL)
	}
	if cfg.Cache.TTL.Std() != 30*time.Minute {
		t.Errorf("production cache override not applied: %s", cfg.Cache.TTL.Std())
	}
	// Non-overridden fields keep the base values.
	if cfg.Matrix.PasswordFile != "/etc/nftgate/password" {
		t.Errorf("base password_file lost: %s", cfg.Matrix.PasswordFile)
	}
}

func TestLoadFile_ExpandsVariables(t *testing.T) {
	configPath := writeConfig(t, `
gatekeeper:
  root: /var/lib/nftgate
cache:
  path: ${NFTGATE_ROOT}/cache/holdings.db
matrix:
  homeserver_url: http://localhost:8008
  user_id: "@gatekeeper:test.local"
  access_token_file: ${NFTGATE_TOKEN_DIR:-/etc/nftgate}/token
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Cache.Path != "/var/lib/nftgate/cache/holdings.db" {
		t.Errorf("NFTGATE_ROOT not expanded: %s", cfg.Cache.Path)
	}
	if cfg.Matrix.AccessTokenFile != "/etc/nftgate/token" {
		t.Errorf("default expansion failed: %s", cfg.Matrix.AccessTokenFile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing homeserver",
			mutate:  func(c *Config) { c.Matrix.HomeserverURL = "" },
			wantErr: "homeserver_url",
		},
		{
			name:    "missing user",
			mutate:  func(c *Config) { c.Matrix.UserID = "" },
			wantErr: "user_id",
		},
		{
			name: "no credentials",
			mutate: func(c *Config) {
				c.Matrix.AccessTokenFile = ""
				c.Matrix.PasswordFile = ""
			},
			wantErr: "access_token_file",
		},
		{
			name: "both credentials",
			mutate: func(c *Config) {
				c.Matrix.PasswordFile = "/etc/nftgate/password"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "bad environment",
			mutate:  func(c *Config) { c.Environment = "testing" },
			wantErr: "invalid environment",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Matrix = MatrixConfig{
				HomeserverURL:   "http://localhost:8008",
				UserID:          "@gatekeeper:test.local",
				AccessTokenFile: "/etc/nftgate/token",
			}
			test.mutate(cfg)

			err := cfg.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("expected error containing %q, got %v", test.wantErr, err)
			}
		})
	}
}
