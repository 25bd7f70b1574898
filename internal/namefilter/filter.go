// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package namefilter bans joining members whose username matches a
// configured pattern.
package namefilter

import (
	"context"
	"fmt"
	"regexp"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
)

// BanReason is the audit log reason for filter bans.
const BanReason = "Illegal username!"

// Platform is the part of the chat platform the filter calls.
type Platform interface {
	CanBan(ctx context.Context, guildID discord.GuildID) (bool, error)
	Ban(ctx context.Context, guildID discord.GuildID, userID discord.UserID, reason string) error
}

// Filter matches usernames against a list of patterns.
type Filter struct {
	patterns []*regexp.Regexp
	platform Platform
}

// New compiles patterns. An empty list yields a filter that never matches.
func New(patterns []string, p Platform) (*Filter, error) {
	f := &Filter{platform: p}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile ban pattern %q: %w", pattern, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Match returns the first pattern matching name.
func (f *Filter) Match(name string) (string, bool) {
	for _, re := range f.patterns {
		if re.MatchString(name) {
			return re.String(), true
		}
	}
	return "", false
}

// MemberJoined bans user when their name matches a pattern and the bot may
// ban. The outcome is Applied only when a ban was issued.
func (f *Filter) MemberJoined(ctx context.Context, guildID discord.GuildID, user discord.User) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent("name_filter", o.Status.String()) }()

	pattern, matched := f.Match(user.Username)
	if !matched {
		return outcome.Skip("name_allowed")
	}

	log := logging.Ctx(ctx).With().
		Str("guild_id", guildID.String()).
		Str("user_id", user.ID.String()).
		Str("pattern", pattern).
		Logger()

	allowed, err := f.platform.CanBan(ctx, guildID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check ban permission")
		return outcome.Degrade("permission_check_failed", err)
	}
	if !allowed {
		log.Warn().Msg("Username matched a ban pattern but the bot cannot ban")
		return outcome.Skip("missing_permission")
	}

	if err := f.platform.Ban(ctx, guildID, user.ID, BanReason); err != nil {
		log.Error().Err(err).Msg("Failed to ban user with illegal name")
		return outcome.Degrade("ban_failed", err)
	}

	log.Info().Msg("Banned user with illegal name")
	return outcome.Apply("banned")
}
