// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/rolekeeper/internal/validation"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"rolekeeper.yaml",
	"rolekeeper.yml",
	"/etc/rolekeeper/config.yaml",
	"/etc/rolekeeper/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// ErrMissingToken is returned by RequireToken when no bot token is configured.
var ErrMissingToken = errors.New("discord token is required (set DISCORD_TOKEN)")

// Load reads configuration with the following precedence (highest wins):
//
//  1. Defaults: DefaultConfig
//  2. Config File: explicitPath, else CONFIG_PATH, else the first of DefaultConfigPaths
//  3. Environment Variables: see envMappings
//
// The result is validated before it is returned.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional unless given explicitly)
	configPath, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile resolves the config file path. An explicit path must exist;
// the other sources are optional.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"moderation.ban_patterns",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Environment variables arrive as strings while YAML lists arrive as slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		trimmed := []string{}
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored so unrelated environment does not leak in.
var envMappings = map[string]string{
	// Discord
	"discord_token":            "discord.token",
	"discord_commands_enabled": "discord.commands_enabled",

	// Storage
	"storage_backend":              "storage.backend",
	"reaction_roles_path":          "storage.registry_path",
	"persistent_roles_path":        "storage.persisted_path",
	"badger_dir":                   "storage.badger_dir",
	"storage_fatal_on_write_error": "storage.fatal_on_write_error",

	// Persisted role restore and scan
	"restore_initial_interval": "restore.initial_interval",
	"restore_max_interval":     "restore.max_interval",
	"restore_max_tries":        "restore.max_tries",
	"scan_page_size":           "scan.page_size",
	"scan_pages_per_second":    "scan.pages_per_second",

	// Circuit breaker
	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",
	"breaker_failure_threshold": "breaker.failure_threshold",

	// Moderation
	"ban_patterns": "moderation.ban_patterns",

	// Health and metrics server
	"http_enabled":          "server.enabled",
	"http_listen":           "server.listen",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_rate_limit":       "server.rate_limit_requests",
	"http_rate_window":      "server.rate_limit_window",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DISCORD_TOKEN -> discord.token
//   - REACTION_ROLES_PATH -> storage.registry_path
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	// An empty result tells koanf to skip the variable.
	return envMappings[strings.ToLower(key)]
}

// Validate checks struct tags and the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.Server.Enabled && c.Server.Listen == "" {
		return errors.New("server.listen is required when the server is enabled")
	}
	return nil
}

// RequireToken reports ErrMissingToken when the gateway cannot be opened.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return ErrMissingToken
	}
	return nil
}
