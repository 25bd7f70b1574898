// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diamondburned/arikawa/v3/state"
	"github.com/spf13/cobra"

	"github.com/tomtom215/rolekeeper/internal/api"
	"github.com/tomtom215/rolekeeper/internal/bot"
	"github.com/tomtom215/rolekeeper/internal/commands"
	"github.com/tomtom215/rolekeeper/internal/config"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/namefilter"
	"github.com/tomtom215/rolekeeper/internal/persistroles"
	"github.com/tomtom215/rolekeeper/internal/platform"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
	"github.com/tomtom215/rolekeeper/internal/supervisor"
	"github.com/tomtom215/rolekeeper/internal/supervisor/services"
)

// NewServeCmd returns the command that runs the bot.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			if err := cfg.RequireToken(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("version", Version).
		Str("storage", cfg.Storage.Backend).
		Bool("commands", cfg.Discord.CommandsEnabled).
		Int("ban_patterns", len(cfg.Moderation.BanPatterns)).
		Msg("Starting Rolekeeper")

	st, err := openStores(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing state database")
		}
	}()

	session := state.New("Bot " + cfg.Discord.Token)
	client := platform.New(session, platform.BreakerConfig{
		Name:             platform.DefaultBreakerConfig().Name,
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	})

	reactions := reactionroles.NewHandler(st.registry, client)
	tracker := persistroles.NewTracker(st.persisted, client, persistroles.Config{
		PageSize:               cfg.Scan.PageSize,
		PagesPerSecond:         cfg.Scan.PagesPerSecond,
		RestoreInitialInterval: cfg.Restore.InitialInterval,
		RestoreMaxInterval:     cfg.Restore.MaxInterval,
		RestoreMaxTries:        cfg.Restore.MaxTries,
	})

	deps := bot.Deps{Reactions: reactions, Persisted: tracker}
	if len(cfg.Moderation.BanPatterns) > 0 {
		filter, err := namefilter.New(cfg.Moderation.BanPatterns, client)
		if err != nil {
			return err
		}
		deps.Filter = filter
	}
	if cfg.Discord.CommandsEnabled {
		deps.Commands = commands.NewDispatcher(reactions, tracker, client)
	}

	b := bot.New(deps)
	b.Attach(session)
	gateway := services.NewGatewayService(b)
	b.OnFatal(gateway.Fail)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddGatewayService(gateway)

	if cfg.Server.Enabled {
		router := api.NewRouter(
			api.WithCheck("gateway", b.HealthCheck),
			api.WithRateLimit(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow),
		)
		server := &http.Server{
			Handler:           router.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Listen, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", cfg.Server.Listen).Msg("HTTP server service added")
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Rolekeeper stopped")
	return nil
}
