// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package persistent

import (
	"fmt"
	"strconv"
)

// StringKeys re-keys an ID-keyed map by the decimal form of each ID, which is
// how documents store object keys. A nil or empty map yields nil.
func StringKeys[K ~uint64, V any](m map[K]V) map[string]V {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strconv.FormatUint(uint64(k), 10)] = v
	}
	return out
}

// ParseKeys reverses StringKeys. A key that is not a decimal uint64 is an error.
func ParseKeys[K ~uint64, V any](m map[string]V) (map[K]V, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id key %q: %w", k, err)
		}
		out[K(id)] = v
	}
	return out, nil
}
