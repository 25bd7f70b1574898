// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	eventKey         contextKey = "event"
	loggerKey        contextKey = "logger"
)

// GenerateCorrelationID creates a new unique correlation ID.
// Returns the first 8 characters of a UUID for readability.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextForEvent tags a context with a fresh correlation ID and the name of
// the gateway event being handled. Every log line emitted while handling the
// event through Ctx carries both fields.
//
//	ctx = logging.ContextForEvent(ctx, "reaction_add")
func ContextForEvent(ctx context.Context, event string) context.Context {
	ctx = ContextWithCorrelationID(ctx, GenerateCorrelationID())
	return context.WithValue(ctx, eventKey, event)
}

// EventFromContext returns the event name stored by ContextForEvent.
func EventFromContext(ctx context.Context) string {
	if ev, ok := ctx.Value(eventKey).(string); ok {
		return ev
	}
	return ""
}

// ContextWithLogger stores a logger in the context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext retrieves a logger from context.
// Returns the global logger if no logger is stored in context.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger with context values (correlation_id, event) added.
//
//	logging.Ctx(ctx).Info().Msg("Selector registered")
//	// {"level":"info","correlation_id":"abc12345","event":"message_update","message":"Selector registered"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := LoggerFromContext(ctx).With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if ev := EventFromContext(ctx); ev != "" {
		logCtx = logCtx.Str("event", ev)
	}

	logger := logCtx.Logger()
	return &logger
}
