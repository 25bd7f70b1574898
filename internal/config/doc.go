// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

/*
Package config loads and validates Rolekeeper's configuration.

# Configuration Sources

Values are layered with Koanf v2, later sources overriding earlier ones:
  - Built-in defaults (DefaultConfig)
  - An optional YAML file (--config flag, CONFIG_PATH, or DefaultConfigPaths)
  - Environment variables

# Environment Variables

Discord:
  - DISCORD_TOKEN: bot token (required by serve)
  - DISCORD_COMMANDS_ENABLED: accept mention commands (default: true)

Storage:
  - STORAGE_BACKEND: file or badger (default: file)
  - REACTION_ROLES_PATH: selector registry file (default: reaction_roles.json)
  - PERSISTENT_ROLES_PATH: persisted role file (default: persistent_roles.json)
  - BADGER_DIR: Badger directory for the badger backend
  - STORAGE_FATAL_ON_WRITE_ERROR: exit when a state write fails (default: true)

Persisted roles:
  - RESTORE_INITIAL_INTERVAL, RESTORE_MAX_INTERVAL, RESTORE_MAX_TRIES
  - SCAN_PAGE_SIZE (1-1000), SCAN_PAGES_PER_SECOND

Platform circuit breaker:
  - BREAKER_MAX_REQUESTS, BREAKER_INTERVAL, BREAKER_TIMEOUT, BREAKER_FAILURE_THRESHOLD

Moderation:
  - BAN_PATTERNS: comma-separated regular expressions matched against usernames

Health and metrics server:
  - HTTP_ENABLED (default: true), HTTP_LISTEN (default: 127.0.0.1:9464), HTTP_SHUTDOWN_TIMEOUT
  - HTTP_RATE_LIMIT (requests per client IP, default: 120, 0 disables), HTTP_RATE_WINDOW (default: 1m)

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Supervisor:
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

# Validation

Struct tags are checked with go-playground/validator through the validation
package; Validate adds the rules that span fields. Load never returns a
Config that fails validation.
*/
package config
