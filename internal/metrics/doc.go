// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

/*
Package metrics provides Prometheus metrics for Rolekeeper.

Metrics are registered on the default registry through promauto and exposed
at /metrics by the internal/api router:

	curl http://localhost:9464/metrics

# Available Metrics

Store Metrics:
  - rolekeeper_store_writes_total: Documents written to the backend (counter)
    Labels: store
  - rolekeeper_store_writes_suppressed_total: Mutations that left the document unchanged (counter)
    Labels: store

Event Metrics:
  - rolekeeper_events_total: Handled gateway events and selector operations (counter)
    Labels: event, status (applied, skipped, degraded). The unmapped_reaction
    event counts removals of user reactions on emoji a selector does not map.
  - rolekeeper_reconcile_calls_total: Reaction API calls made by the reconciler (counter)
    Labels: action (react, unreact), result (ok, error)

Role Metrics:
  - rolekeeper_role_mutations_total: Role grants and revokes (counter)
    Labels: operation (grant, revoke), source (reaction, restore), result (ok, error)
  - rolekeeper_restore_attempts_total: Role grant attempts during rejoin restore (counter)
    Labels: result (ok, retry, error)
  - rolekeeper_member_scan_duration_seconds: Guild membership scan time (histogram)

Platform Metrics:
  - rolekeeper_platform_breaker_state: Circuit breaker state (gauge)
    Labels: name. Values: 0=closed, 1=half-open, 2=open
  - rolekeeper_gateway_connected: 1 while the gateway session is open (gauge)

HTTP Metrics:
  - rolekeeper_http_requests_total: Requests served by the health/metrics server (counter)
    Labels: route, code
  - rolekeeper_http_request_duration_seconds: Request duration (histogram)
    Labels: route

Command Metrics:
  - rolekeeper_commands_total: Admin commands processed (counter)
    Labels: command, result (ok, error)
*/
package metrics
