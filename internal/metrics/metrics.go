// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_store_writes_total",
			Help: "Total number of state documents written to the store backend",
		},
		[]string{"store"},
	)

	StoreWritesSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_store_writes_suppressed_total",
			Help: "Total number of mutations that left the state document unchanged",
		},
		[]string{"store"},
	)

	// Event Metrics
	Events = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_events_total",
			Help: "Total number of handled gateway events and selector operations",
		},
		[]string{"event", "status"},
	)

	ReconcileCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_reconcile_calls_total",
			Help: "Total number of reaction API calls made while reconciling selectors",
		},
		[]string{"action", "result"},
	)

	// Role Metrics
	RoleMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_role_mutations_total",
			Help: "Total number of role grants and revokes",
		},
		[]string{"operation", "source", "result"},
	)

	RestoreAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_restore_attempts_total",
			Help: "Total number of role grant attempts made while restoring persisted roles",
		},
		[]string{"result"},
	)

	MemberScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rolekeeper_member_scan_duration_seconds",
			Help:    "Duration of guild membership scans in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// Platform Metrics
	PlatformBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rolekeeper_platform_breaker_state",
			Help: "Platform circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	GatewayConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rolekeeper_gateway_connected",
			Help: "1 while the gateway session is open",
		},
	)

	// HTTP Metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_http_requests_total",
			Help: "Total number of requests served by the health and metrics server",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rolekeeper_http_request_duration_seconds",
			Help:    "Duration of health and metrics requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Command Metrics
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolekeeper_commands_total",
			Help: "Total number of admin commands processed",
		},
		[]string{"command", "result"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordStoreWrite records the outcome of a store mutation.
func RecordStoreWrite(store string, written bool) {
	if written {
		StoreWrites.WithLabelValues(store).Inc()
		return
	}
	StoreWritesSuppressed.WithLabelValues(store).Inc()
}

// RecordEvent records a handled event and its outcome status.
func RecordEvent(event, status string) {
	Events.WithLabelValues(event, status).Inc()
}

// RecordReconcileCall records a single reconciler API call.
func RecordReconcileCall(action string, err error) {
	ReconcileCalls.WithLabelValues(action, result(err)).Inc()
}

// RecordRoleMutation records a role grant or revoke.
func RecordRoleMutation(operation, source string, err error) {
	RoleMutations.WithLabelValues(operation, source, result(err)).Inc()
}

// RecordRestoreAttempt records one grant attempt during restore.
// Retried attempts are counted separately from final failures.
func RecordRestoreAttempt(err error, willRetry bool) {
	switch {
	case err == nil:
		RestoreAttempts.WithLabelValues("ok").Inc()
	case willRetry:
		RestoreAttempts.WithLabelValues("retry").Inc()
	default:
		RestoreAttempts.WithLabelValues("error").Inc()
	}
}

// RecordMemberScan records the duration of a membership scan.
func RecordMemberScan(duration time.Duration) {
	MemberScanDuration.Observe(duration.Seconds())
}

// SetBreakerState publishes a circuit breaker state as a gauge value.
func SetBreakerState(name string, state float64) {
	PlatformBreakerState.WithLabelValues(name).Set(state)
}

// SetGatewayConnected publishes the gateway connection state.
func SetGatewayConnected(connected bool) {
	if connected {
		GatewayConnected.Set(1)
		return
	}
	GatewayConnected.Set(0)
}

// RecordCommand records an admin command outcome.
func RecordCommand(command string, err error) {
	Commands.WithLabelValues(command, result(err)).Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
