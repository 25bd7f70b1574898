// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
)

// Gateway is a realtime session that reconnects on its own once opened.
// The Discord bot satisfies it.
type Gateway interface {
	Open(ctx context.Context) error
	Close() error
}

// GatewayService keeps a gateway session open under supervision.
//
// Open failures are returned so suture restarts the service with backoff.
// A fatal error pushed to Fail ends the current run the same way.
type GatewayService struct {
	gateway Gateway
	fatal   chan error
}

// NewGatewayService wraps gw.
func NewGatewayService(gw Gateway) *GatewayService {
	return &GatewayService{gateway: gw, fatal: make(chan error, 1)}
}

// Fail reports an unrecoverable session error. Only the first pending
// error is kept.
func (g *GatewayService) Fail(err error) {
	select {
	case g.fatal <- err:
	default:
	}
}

// Serve implements suture.Service.
func (g *GatewayService) Serve(ctx context.Context) error {
	if err := g.gateway.Open(ctx); err != nil {
		metrics.SetGatewayConnected(false)
		return fmt.Errorf("open gateway: %w", err)
	}
	logging.Info().Msg("Gateway session opened")

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-g.fatal:
		runErr = fmt.Errorf("gateway session failed: %w", err)
	}

	metrics.SetGatewayConnected(false)
	if err := g.gateway.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close gateway session")
	}
	logging.Info().Msg("Gateway session closed")
	return runErr
}

// String implements fmt.Stringer; suture uses it in log messages.
func (g *GatewayService) String() string {
	return "discord-gateway"
}
