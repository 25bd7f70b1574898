// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package validation provides struct validation using go-playground/validator v10.
//
// The package keeps one validator instance for the process, registers the
// custom "regexp" tag and translates field failures into readable messages
// keyed by the field's namespace:
//
//	type ScanConfig struct {
//	    PageSize uint `validate:"min=1,max=1000"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("configuration validation failed: %w", err)
//	}
//
// # Custom Tags
//
//   - regexp: the string must compile with the standard regexp package
package validation
