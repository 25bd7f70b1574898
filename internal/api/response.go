// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rolekeeper/internal/logging"
)

// respondJSON writes v as JSON with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
