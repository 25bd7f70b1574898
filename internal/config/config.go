// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package config

import "time"

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: DefaultConfig
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: the names listed in envMappings
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Discord    DiscordConfig    `koanf:"discord"`
	Storage    StorageConfig    `koanf:"storage"`
	Restore    RestoreConfig    `koanf:"restore"`
	Scan       ScanConfig       `koanf:"scan"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Moderation ModerationConfig `koanf:"moderation"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// DiscordConfig holds the gateway connection settings.
//
// Environment Variables:
//   - DISCORD_TOKEN: bot token (required for serve)
//   - DISCORD_COMMANDS_ENABLED: accept mention commands (default: true)
type DiscordConfig struct {
	Token           string `koanf:"token"`
	CommandsEnabled bool   `koanf:"commands_enabled"`
}

// StorageConfig selects where the two state documents live.
//
// With the file backend each document is a JSON file. With the badger
// backend both documents are keys in one Badger database under BadgerDir.
type StorageConfig struct {
	Backend       string `koanf:"backend" validate:"oneof=file badger"`
	RegistryPath  string `koanf:"registry_path" validate:"required_if=Backend file"`
	PersistedPath string `koanf:"persisted_path" validate:"required_if=Backend file"`
	BadgerDir     string `koanf:"badger_dir" validate:"required_if=Backend badger"`

	// FatalOnWriteError exits the process when a state write fails.
	FatalOnWriteError bool `koanf:"fatal_on_write_error"`
}

// RestoreConfig bounds the retry of role grants for a rejoining member.
type RestoreConfig struct {
	InitialInterval time.Duration `koanf:"initial_interval" validate:"gt=0"`
	MaxInterval     time.Duration `koanf:"max_interval" validate:"gtefield=InitialInterval"`
	MaxTries        uint          `koanf:"max_tries" validate:"min=1,max=20"`
}

// ScanConfig throttles the membership scan run when a role becomes tracked.
type ScanConfig struct {
	PageSize       uint    `koanf:"page_size" validate:"min=1,max=1000"`
	PagesPerSecond float64 `koanf:"pages_per_second" validate:"gt=0"`
}

// BreakerConfig configures the circuit breaker around platform REST calls.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"min=1"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
}

// ModerationConfig holds the username filter.
//
// Environment Variables:
//   - BAN_PATTERNS: comma-separated regular expressions
type ModerationConfig struct {
	BanPatterns []string `koanf:"ban_patterns" validate:"dive,regexp"`
}

// ServerConfig configures the health and metrics listener.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Listen          string        `koanf:"listen" validate:"omitempty,hostname_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimitRequests per client IP and RateLimitWindow; zero disables.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig mirrors suture's failure handling knobs.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DefaultConfig returns the built-in defaults. They are loaded first and
// overridden by the config file and the environment.
func DefaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			CommandsEnabled: true,
		},
		Storage: StorageConfig{
			Backend:           BackendFile,
			RegistryPath:      "reaction_roles.json",
			PersistedPath:     "persistent_roles.json",
			BadgerDir:         "rolekeeper-state",
			FatalOnWriteError: true,
		},
		Restore: RestoreConfig{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			MaxTries:        5,
		},
		Scan: ScanConfig{
			PageSize:       1000,
			PagesPerSecond: 2,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Server: ServerConfig{
			Enabled:           true,
			Listen:            "127.0.0.1:9464",
			ShutdownTimeout:   5 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}
