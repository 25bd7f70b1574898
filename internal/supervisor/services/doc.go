// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package services adapts Rolekeeper's long-running components to
// suture.Service so the supervisor tree can restart them.
//
//   - GatewayService: keeps the Discord gateway session open
//   - HTTPServerService: serves /healthz and /metrics
//
// Both return ctx.Err() on a requested shutdown and a wrapped error on
// failure, which suture answers with a restart.
package services
