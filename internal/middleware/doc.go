// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

/*
Package middleware provides the HTTP middleware used by the health and
metrics server.

  - RequestID: X-Request-ID propagation into the logging correlation ID
  - PrometheusMetrics: request counts and durations labeled by chi route pattern

Both follow chi's func(http.Handler) http.Handler shape:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
