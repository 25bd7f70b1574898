// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package logging provides centralized zerolog-based logging for Rolekeeper.
//
// Every component logs through this package so that gateway events, store
// writes and platform failures share one structured stream:
//
//   - JSON output for production, console output for development
//   - Context-aware logging with per-event correlation IDs
//   - Component loggers with a fixed "component" field
//   - An slog adapter for the supervisor tree
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Msg("Gateway connected")
//	logging.Error().Err(err).Msg("Role grant failed")
//	logging.Ctx(ctx).Warn().Str("message_id", id).Msg("Reconcile degraded")
//
// Always terminate log chains with .Msg() or .Send(); an unterminated event is
// never written.
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AppName is attached to every line as the "app" field.
const AppName = "rolekeeper"

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error or disabled.
	// Unknown levels fall back to info.
	Level string

	// Format is json or console.
	Format string

	// Caller adds the file:line of the log call.
	Caller bool

	// Timestamp adds an RFC 3339 "time" field.
	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON at info level with timestamps on stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var global atomic.Pointer[zerolog.Logger]

//nolint:gochecknoinits // logging works before Init is called
func init() {
	Init(DefaultConfig())
}

// Init replaces the global logger. It may be called again to reconfigure.
func Init(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logCtx := zerolog.New(out).With().Str("app", AppName)
	if cfg.Timestamp {
		logCtx = logCtx.Timestamp()
	}
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}
	SetLogger(logCtx.Logger())
}

// parseLevel accepts zerolog's level names plus "warning". An empty or
// unknown level means info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *global.Load()
}

// SetLogger replaces the global logger. Tests use it to capture output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	global.Store(&l)
}

// WithComponent returns a child of the global logger with a component field.
//
//	logger := logging.WithComponent("supervisor")
func WithComponent(component string) zerolog.Logger {
	return global.Load().With().Str("component", component).Logger()
}

// Debug starts a debug message on the global logger.
func Debug() *zerolog.Event { return global.Load().Debug() }

// Info starts an info message on the global logger.
func Info() *zerolog.Event { return global.Load().Info() }

// Warn starts a warning message on the global logger.
func Warn() *zerolog.Event { return global.Load().Warn() }

// Error starts an error message on the global logger.
func Error() *zerolog.Event { return global.Load().Error() }

// Fatal starts a fatal message on the global logger. The process exits
// after the message is written.
func Fatal() *zerolog.Event { return global.Load().Fatal() }

// NewTestLogger returns a JSON logger writing to w without timestamps.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w)
}
