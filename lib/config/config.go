// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "10m" or "1h30m" (bare integers are taken as nanoseconds, matching
// time.Duration's underlying representation).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var nanoseconds int64
	if err := value.Decode(&nanoseconds); err != nil {
		return fmt.Errorf("duration must be a string like \"5m\" or an integer")
	}
	*d = Duration(nanoseconds)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for NFTGate.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Matrix configures the homeserver connection.
	Matrix MatrixConfig `yaml:"matrix"`

	// XRPL configures the NFT holdings source.
	XRPL XRPLConfig `yaml:"xrpl"`

	// Cache configures the holdings cache.
	Cache CacheConfig `yaml:"cache"`

	// Gatekeeper configures room enforcement.
	Gatekeeper GatekeeperConfig `yaml:"gatekeeper"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Matrix     *MatrixConfig     `yaml:"matrix,omitempty"`
	XRPL       *XRPLConfig       `yaml:"xrpl,omitempty"`
	Cache      *CacheConfig      `yaml:"cache,omitempty"`
	Gatekeeper *GatekeeperConfig `yaml:"gatekeeper,omitempty"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// HomeserverURL is the Matrix client-server API base URL.
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the full Matrix user ID of the gatekeeper account
	// (e.g., "@gatekeeper:nftgate.example").
	UserID string `yaml:"user_id"`

	// AccessTokenFile is the path to a file holding the account's
	// access token. Mutually exclusive with PasswordFile.
	AccessTokenFile string `yaml:"access_token_file"`

	// PasswordFile is the path to a file holding the account's
	// password, used for a fresh login at startup.
	PasswordFile string `yaml:"password_file"`
}

// XRPLConfig configures the NFT holdings source.
type XRPLConfig struct {
	// BithompURL is the Bithomp API base URL.
	// Default: https://xrplexplorer.com
	BithompURL string `yaml:"bithomp_url"`

	// BithompTokenFile is the path to a file holding the
	// x-bithomp-token API key. Optional; anonymous rate limits
	// apply without it.
	BithompTokenFile string `yaml:"bithomp_token_file"`
}

// CacheConfig configures the holdings cache.
type CacheConfig struct {
	// Path is the SQLite database file for cached holdings.
	// Default: ${NFTGATE_ROOT}/holdings.db
	Path string `yaml:"path"`

	// TTL is how long cached holdings stay fresh. Default: 5m.
	TTL Duration `yaml:"ttl"`

	// PoolSize is the SQLite connection pool size. Default: 4.
	PoolSize int `yaml:"pool_size"`
}

// GatekeeperConfig configures room enforcement.
type GatekeeperConfig struct {
	// Rooms lists the room IDs to enforce. Empty means the
	// gatekeeper enforces every room it is joined to.
	Rooms []string `yaml:"rooms"`

	// SweepInterval is how often the gatekeeper re-checks all
	// current members in addition to reacting to joins. Zero
	// disables periodic sweeps. Default: 1h.
	SweepInterval Duration `yaml:"sweep_interval"`

	// Root is the base directory for gatekeeper state.
	// Default: ~/.local/share/nftgate
	Root string `yaml:"root"`
}

// Default returns the default configuration. These defaults are a base
// before loading the config file, not a substitute for one.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "nftgate")

	return &Config{
		Environment: Development,
		XRPL: XRPLConfig{
			BithompURL: "https://xrplexplorer.com",
		},
		Cache: CacheConfig{
			Path:     filepath.Join(defaultRoot, "holdings.db"),
			TTL:      Duration(5 * time.Minute),
			PoolSize: 4,
		},
		Gatekeeper: GatekeeperConfig{
			SweepInterval: Duration(time.Hour),
			Root:          defaultRoot,
		},
	}
}

// Load loads configuration from the NFTGATE_CONFIG environment
// variable. There are no fallbacks: if NFTGATE_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("NFTGATE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("NFTGATE_CONFIG environment variable not set; " +
			"set it to the path of your nftgate.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the environment-specific section.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Matrix != nil {
		if overrides.Matrix.HomeserverURL != "" {
			c.Matrix.HomeserverURL = overrides.Matrix.HomeserverURL
		}
		if overrides.Matrix.UserID != "" {
			c.Matrix.UserID = overrides.Matrix.UserID
		}
		if overrides.Matrix.AccessTokenFile != "" {
			c.Matrix.AccessTokenFile = overrides.Matrix.AccessTokenFile
		}
		if overrides.Matrix.PasswordFile != "" {
			c.Matrix.PasswordFile = overrides.Matrix.PasswordFile
		}
	}
	if overrides.XRPL != nil {
		if overrides.XRPL.BithompURL != "" {
			c.XRPL.BithompURL = overrides.XRPL.BithompURL
		}
		if overrides.XRPL.BithompTokenFile != "" {
			c.XRPL.BithompTokenFile = overrides.XRPL.BithompTokenFile
		}
	}
	if overrides.Cache != nil {
		if overrides.Cache.Path != "" {
			c.Cache.Path = overrides.Cache.Path
		}
		if overrides.Cache.TTL != 0 {
			c.Cache.TTL = overrides.Cache.TTL
		}
		if overrides.Cache.PoolSize != 0 {
			c.Cache.PoolSize = overrides.Cache.PoolSize
		}
	}
	if overrides.Gatekeeper != nil {
		if len(overrides.Gatekeeper.Rooms) > 0 {
			c.Gatekeeper.Rooms = overrides.Gatekeeper.Rooms
		}
		if overrides.Gatekeeper.SweepInterval != 0 {
			c.Gatekeeper.SweepInterval = overrides.Gatekeeper.SweepInterval
		}
		if overrides.Gatekeeper.Root != "" {
			c.Gatekeeper.Root = overrides.Gatekeeper.Root
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"NFTGATE_ROOT": c.Gatekeeper.Root,
		"HOME":         os.Getenv("HOME"),
	}

	c.Gatekeeper.Root = expandVars(c.Gatekeeper.Root, vars)
	vars["NFTGATE_ROOT"] = c.Gatekeeper.Root // Update for dependent paths.

	c.Cache.Path = expandVars(c.Cache.Path, vars)
	c.Matrix.AccessTokenFile = expandVars(c.Matrix.AccessTokenFile, vars)
	c.Matrix.PasswordFile = expandVars(c.Matrix.PasswordFile, vars)
	c.XRPL.BithompTokenFile = expandVars(c.XRPL.BithompTokenFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// the provided vars first, then the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url is required"))
	}
	if c.Matrix.UserID == "" {
		errs = append(errs, fmt.Errorf("matrix.user_id is required"))
	}
	if c.Matrix.AccessTokenFile == "" && c.Matrix.PasswordFile == "" {
		errs = append(errs, fmt.Errorf("one of matrix.access_token_file or matrix.password_file is required"))
	}
	if c.Matrix.AccessTokenFile != "" && c.Matrix.PasswordFile != "" {
		errs = append(errs, fmt.Errorf("matrix.access_token_file and matrix.password_file are mutually exclusive"))
	}
	if c.XRPL.BithompURL == "" {
		errs = append(errs, fmt.Errorf("xrpl.bithomp_url is required"))
	}
	if c.Cache.Path == "" {
		errs = append(errs, fmt.Errorf("cache.path is required"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the state directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Gatekeeper.Root,
		filepath.Dir(c.Cache.Path),
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
