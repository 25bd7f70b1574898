// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/rolekeeper/internal/logging"
)

// Check reports nil when a dependency is healthy.
type Check func(ctx context.Context) error

type namedCheck struct {
	name  string
	check Check
}

// checkTimeout bounds each health check.
const checkTimeout = 2 * time.Second

// HealthResponse is the /healthz and /livez body.
type HealthResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// Live always answers 200 while the process runs.
func (router *Router) Live(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(router.started).Seconds(),
	})
}

// Health runs every check and answers 503 if any fails.
func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(router.started).Seconds(),
		Checks:        make(map[string]string, len(router.checks)),
	}

	for _, c := range router.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.check(ctx)
		cancel()

		if err != nil {
			resp.Status = "unavailable"
			resp.Checks[c.name] = err.Error()
			logging.Ctx(r.Context()).Debug().Err(err).Str("check", c.name).Msg("Health check failed")
			continue
		}
		resp.Checks[c.name] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, resp)
}
