// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package platform

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/diamondburned/arikawa/v3/utils/httputil"
)

// Errors returned by Client methods. Each wraps the original REST error.
var (
	// ErrUnknownMember means the user is not (yet) a member of the guild.
	ErrUnknownMember = errors.New("unknown member")
	// ErrUnknownMessage means the message does not exist in the channel.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrMissingPermissions means the bot lacks a permission for the call.
	ErrMissingPermissions = errors.New("missing permissions")
	// ErrNotFound covers any other missing resource.
	ErrNotFound = errors.New("not found")
)

// Discord JSON error codes.
const (
	codeUnknownMember      httputil.ErrorCode = 10007
	codeUnknownMessage     httputil.ErrorCode = 10008
	codeMissingAccess      httputil.ErrorCode = 50001
	codeMissingPermissions httputil.ErrorCode = 50013
)

func asHTTPError(err error) (*httputil.HTTPError, bool) {
	var httpErr *httputil.HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		return httpErr, true
	}
	return nil, false
}

// mapError translates REST errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	httpErr, ok := asHTTPError(err)
	if !ok {
		return err
	}

	switch httpErr.Code {
	case codeUnknownMember:
		return fmt.Errorf("%w: %w", ErrUnknownMember, err)
	case codeUnknownMessage:
		return fmt.Errorf("%w: %w", ErrUnknownMessage, err)
	case codeMissingAccess, codeMissingPermissions:
		return fmt.Errorf("%w: %w", ErrMissingPermissions, err)
	}

	switch httpErr.Status {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrMissingPermissions, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// isClientError reports whether err is a request the platform rejected on
// its merits. Such errors say nothing about platform health.
func isClientError(err error) bool {
	httpErr, ok := asHTTPError(err)
	if !ok {
		return false
	}
	return httpErr.Status >= 400 && httpErr.Status < 500 && httpErr.Status != http.StatusTooManyRequests
}
