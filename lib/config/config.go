// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "VTE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Engine modes.
const (
	// EngineNative runs the Go-native engine in process.
	EngineNative = "native"
	// EngineSocket connects to an engine serving on a Unix socket.
	EngineSocket = "socket"
)

// Config is the configuration for the vte tools.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Engine configures how the cryptographic engine is reached.
	Engine EngineConfig `yaml:"engine"`

	// Beacon configures the randomness beacon network.
	Beacon BeaconConfig `yaml:"beacon"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Engine *EngineConfig `yaml:"engine,omitempty"`
	Beacon *BeaconConfig `yaml:"beacon,omitempty"`
}

// EngineConfig configures the engine connection and the bridge
// client's bring-up.
type EngineConfig struct {
	// Mode is "native" (in-process) or "socket".
	// Default: native
	Mode string `yaml:"mode"`

	// SocketPath is the Unix socket of a vte-engine process, used in
	// socket mode and by vte-engine itself.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/vte-engine.sock
	SocketPath string `yaml:"socket_path"`

	// PollInterval is the spacing between readiness polls.
	// Default: 100ms
	PollInterval string `yaml:"poll_interval"`

	// RetryBudget is the number of readiness polls before the engine
	// is declared unavailable.
	// Default: 50
	RetryBudget int `yaml:"retry_budget"`

	// RequestTimeout bounds every engine operation.
	// Default: 2m
	RequestTimeout string `yaml:"request_timeout"`
}

// BeaconConfig configures the beacon network.
type BeaconConfig struct {
	// Endpoints are drand HTTP API base URLs, tried in order.
	// Default: [https://api.drand.sh]
	Endpoints []string `yaml:"endpoints"`

	// ChainHash is the default chain, in hex.
	// Default: the quicknet chain hash
	ChainHash string `yaml:"chain_hash"`

	// FormatID is the default ciphertext format.
	// Default: tlock_v1_age_pairing
	FormatID string `yaml:"format_id"`

	// Timeout bounds each HTTP request.
	// Default: 10s
	Timeout string `yaml:"timeout"`

	// PreCheck makes decryption confirm the round is published before
	// calling the engine.
	// Default: true
	PreCheck bool `yaml:"pre_check"`
}

// EngineTiming is EngineConfig with its durations parsed.
type EngineTiming struct {
	PollInterval   time.Duration
	RetryBudget    int
	RequestTimeout time.Duration
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	return &Config{
		Environment: Development,
		Engine: EngineConfig{
			Mode:           EngineNative,
			SocketPath:     "${XDG_RUNTIME_DIR:-/tmp}/vte-engine.sock",
			PollInterval:   "100ms",
			RetryBudget:    50,
			RequestTimeout: "2m",
		},
		Beacon: BeaconConfig{
			Endpoints: []string{"https://api.drand.sh"},
			ChainHash: "52db9ba70e0cc0f6eaf7803dd07447a1f5477735fd3f661792ba94600c84e971",
			FormatID:  "tlock_v1_age_pairing",
			Timeout:   "10s",
			PreCheck:  true,
		},
	}
}

// Load loads configuration from the VTE_CONFIG environment variable.
//
// There are no fallbacks - if VTE_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your vte.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production talks to a separately supervised engine.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Engine: &EngineConfig{Mode: EngineSocket},
				Beacon: &BeaconConfig{PreCheck: true},
			}
		}
	}

	if overrides == nil {
		return
	}

	if engine := overrides.Engine; engine != nil {
		if engine.Mode != "" {
			c.Engine.Mode = engine.Mode
		}
		if engine.SocketPath != "" {
			c.Engine.SocketPath = engine.SocketPath
		}
		if engine.PollInterval != "" {
			c.Engine.PollInterval = engine.PollInterval
		}
		if engine.RetryBudget != 0 {
			c.Engine.RetryBudget = engine.RetryBudget
		}
		if engine.RequestTimeout != "" {
			c.Engine.RequestTimeout = engine.RequestTimeout
		}
	}

	if beacon := overrides.Beacon; beacon != nil {
		if len(beacon.Endpoints) > 0 {
			c.Beacon.Endpoints = beacon.Endpoints
		}
		if beacon.ChainHash != "" {
			c.Beacon.ChainHash = beacon.ChainHash
		}
		if beacon.FormatID != "" {
			c.Beacon.FormatID = beacon.FormatID
		}
		if beacon.Timeout != "" {
			c.Beacon.Timeout = beacon.Timeout
		}
		// PreCheck is a bool, so we always apply it from overrides.
		c.Beacon.PreCheck = beacon.PreCheck
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Engine.SocketPath = expandVars(c.Engine.SocketPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
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

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Timing parses the engine durations.
func (e EngineConfig) Timing() (EngineTiming, error) {
	poll, err := positiveDuration("engine.poll_interval", e.PollInterval)
	if err != nil {
		return EngineTiming{}, err
	}
	request, err := positiveDuration("engine.request_timeout", e.RequestTimeout)
	if err != nil {
		return EngineTiming{}, err
	}
	if e.RetryBudget <= 0 {
		return EngineTiming{}, fmt.Errorf("engine.retry_budget must be positive, got %d", e.RetryBudget)
	}
	return EngineTiming{PollInterval: poll, RetryBudget: e.RetryBudget, RequestTimeout: request}, nil
}

// HTTPTimeout parses the beacon request timeout.
func (b BeaconConfig) HTTPTimeout() (time.Duration, error) {
	return positiveDuration("beacon.timeout", b.Timeout)
}

func positiveDuration(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return duration, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	engineModes := []string{EngineNative, EngineSocket}
	if !slices.Contains(engineModes, c.Engine.Mode) {
		errs = append(errs, fmt.Errorf("engine.mode must be one of: %v", engineModes))
	}
	if c.Engine.Mode == EngineSocket && c.Engine.SocketPath == "" {
		errs = append(errs, fmt.Errorf("engine.socket_path is required in socket mode"))
	}
	if _, err := c.Engine.Timing(); err != nil {
		errs = append(errs, err)
	}

	if len(c.Beacon.Endpoints) == 0 {
		errs = append(errs, fmt.Errorf("beacon.endpoints is required"))
	}
	for _, endpoint := range c.Beacon.Endpoints {
		parsed, err := url.Parse(endpoint)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("beacon.endpoints: %q is not an http(s) URL", endpoint))
		}
	}
	if chainHash, err := hex.DecodeString(c.Beacon.ChainHash); err != nil || len(chainHash) != 32 {
		errs = append(errs, fmt.Errorf("beacon.chain_hash must be 32 bytes of hex"))
	}
	if c.Beacon.FormatID == "" {
		errs = append(errs, fmt.Errorf("beacon.format_id is required"))
	}
	if _, err := c.Beacon.HTTPTimeout(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
