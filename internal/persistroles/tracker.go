// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package persistroles remembers which tracked roles each member held and
// gives them back when the member rejoins the guild.
//
// The tracker keeps a per-guild set of tracked roles. Member update and
// leave events overwrite the member's snapshot with the tracked roles they
// currently hold. When a member joins, every role in their snapshot is
// granted again. Tracking a new role scans the current membership once so
// that existing holders are covered from the start.
package persistroles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/diamondburned/arikawa/v3/discord"
	"golang.org/x/time/rate"

	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/persistent"
	"github.com/tomtom215/rolekeeper/internal/platform"
)

// AuditReason is attached to every role restored on rejoin.
const AuditReason = "Persisted role"

// Platform is the part of the chat platform the tracker calls.
type Platform interface {
	// MembersAfter returns up to limit members with IDs above after, in ID order.
	MembersAfter(ctx context.Context, guildID discord.GuildID, after discord.UserID, limit uint) ([]discord.Member, error)
	// AddRole fails with an error matching platform.ErrUnknownMember while a
	// joining member is not yet visible to the REST API.
	AddRole(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, reason string) error
	// CanManageRoles reports whether the bot may grant roles in the guild.
	CanManageRoles(ctx context.Context, guildID discord.GuildID) (bool, error)
}

// Config tunes membership scans and join restores.
type Config struct {
	// PageSize is the number of members requested per scan page.
	PageSize uint
	// PagesPerSecond throttles scan page requests. Zero disables throttling.
	PagesPerSecond float64

	// RestoreInitialInterval is the first wait before retrying a grant.
	RestoreInitialInterval time.Duration
	// RestoreMaxInterval caps the wait between retries.
	RestoreMaxInterval time.Duration
	// RestoreMaxTries bounds the grant attempts per role, including the first.
	RestoreMaxTries uint
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		PageSize:               1000,
		PagesPerSecond:         2,
		RestoreInitialInterval: 500 * time.Millisecond,
		RestoreMaxInterval:     5 * time.Second,
		RestoreMaxTries:        5,
	}
}

// Tracker maintains persisted roles.
type Tracker struct {
	store    *persistent.Store[State]
	platform Platform
	cfg      Config
	limiter  *rate.Limiter
}

// NewTracker creates a tracker backed by store.
func NewTracker(store *persistent.Store[State], api Platform, cfg Config) *Tracker {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if cfg.RestoreMaxTries == 0 {
		cfg.RestoreMaxTries = 1
	}
	if cfg.RestoreInitialInterval <= 0 {
		cfg.RestoreInitialInterval = DefaultConfig().RestoreInitialInterval
	}

	limit := rate.Inf
	if cfg.PagesPerSecond > 0 {
		limit = rate.Limit(cfg.PagesPerSecond)
	}

	return &Tracker{
		store:    store,
		platform: api,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// TrackedRoles returns the tracked roles of a guild.
func (t *Tracker) TrackedRoles(guildID discord.GuildID) []discord.RoleID {
	return persistent.Read(t.store, func(s *State) []discord.RoleID {
		return s.TrackedRoles(guildID)
	})
}

// Snapshot returns the roles that would be restored for a member.
func (t *Tracker) Snapshot(guildID discord.GuildID, userID discord.UserID) []discord.RoleID {
	return persistent.Read(t.store, func(s *State) []discord.RoleID {
		return s.Snapshot(guildID, userID)
	})
}

// AddRole starts tracking a role. When the role is new, the current
// membership is scanned and every holder's snapshot gains the role.
// A failed scan leaves the role tracked with the holders found so far
// unrecorded, and the outcome is degraded.
func (t *Tracker) AddRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) outcome.Outcome {
	added := persistent.Mutate(t.store, func(s *State) bool {
		return s.Track(guildID, roleID)
	})
	if !added {
		return outcome.Skip("already_tracked")
	}

	log := logging.Ctx(ctx).With().
		Str("guild_id", guildID.String()).
		Str("role_id", roleID.String()).
		Logger()

	start := time.Now()
	holders, err := t.scanHolders(ctx, guildID, roleID)
	metrics.RecordMemberScan(time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("Member scan for newly tracked role failed")
		return outcome.Degrade("member_scan_failed", err)
	}

	changed := persistent.Mutate(t.store, func(s *State) int {
		return s.AddHolders(guildID, roleID, holders)
	})

	log.Info().
		Int("holders", len(holders)).
		Int("snapshots_changed", changed).
		Dur("scan_duration", time.Since(start)).
		Msg("Role tracking started")

	return outcome.Apply("tracked")
}

// scanHolders pages through the guild membership and returns the members
// holding roleID. No store lock is held while scanning.
func (t *Tracker) scanHolders(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) ([]discord.UserID, error) {
	var (
		holders []discord.UserID
		after   discord.UserID
	)
	for {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for scan slot: %w", err)
		}

		page, err := t.platform.MembersAfter(ctx, guildID, after, t.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list members after %s: %w", after, err)
		}

		for i := range page {
			m := &page[i]
			for _, r := range m.RoleIDs {
				if r == roleID {
					holders = append(holders, m.User.ID)
					break
				}
			}
			if m.User.ID > after {
				after = m.User.ID
			}
		}

		if uint(len(page)) < t.cfg.PageSize {
			return holders, nil
		}
	}
}

// RemoveRole stops tracking a role and strips it from every snapshot.
func (t *Tracker) RemoveRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) outcome.Outcome {
	removed := persistent.Mutate(t.store, func(s *State) bool {
		return s.Untrack(guildID, roleID)
	})
	if !removed {
		return outcome.Skip("not_tracked")
	}

	logging.Ctx(ctx).Info().
		Str("guild_id", guildID.String()).
		Str("role_id", roleID.String()).
		Msg("Role tracking stopped")
	return outcome.Apply("untracked")
}

// MemberUpdated records the tracked roles a member currently holds.
func (t *Tracker) MemberUpdated(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) outcome.Outcome {
	return t.snapshot(ctx, "member_update", guildID, userID, roles)
}

// MemberRemoved records the tracked roles a member held when leaving.
func (t *Tracker) MemberRemoved(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) outcome.Outcome {
	return t.snapshot(ctx, "member_remove", guildID, userID, roles)
}

func (t *Tracker) snapshot(ctx context.Context, event string, guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent(event, o.Status.String()) }()

	changed := persistent.Mutate(t.store, func(s *State) bool {
		return s.SetSnapshot(guildID, userID, roles)
	})
	if !changed {
		return outcome.Skip("snapshot_unchanged")
	}

	logging.Ctx(ctx).Debug().
		Str("guild_id", guildID.String()).
		Str("user_id", userID.String()).
		Msg("Member snapshot updated")
	return outcome.Apply("snapshot_updated")
}

// MemberJoined grants a rejoining member every role in their snapshot.
// Grants rejected because the member is not available yet are retried with
// bounded exponential backoff; other failures are logged and skipped.
// The snapshot is kept; the member update that follows the grants
// overwrites it.
func (t *Tracker) MemberJoined(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent("member_join", o.Status.String()) }()

	roles := t.Snapshot(guildID, userID)
	if len(roles) == 0 {
		return outcome.Skip("no_snapshot")
	}

	log := logging.Ctx(ctx).With().
		Str("guild_id", guildID.String()).
		Str("user_id", userID.String()).
		Logger()

	allowed, err := t.platform.CanManageRoles(ctx, guildID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to check role permissions for restore")
		return outcome.Degrade("permission_check_failed", err)
	}
	if !allowed {
		log.Warn().Msg("Missing permission to restore persisted roles")
		return outcome.Skip("missing_permission")
	}

	o = outcome.Skip("nothing_restored")
	for _, roleID := range roles {
		err := t.grant(ctx, guildID, userID, roleID)
		metrics.RecordRoleMutation("grant", "restore", err)
		if err != nil {
			log.Warn().Err(err).Str("role_id", roleID.String()).Msg("Failed to restore persisted role")
			o.Record("restore_failed", err)
			continue
		}
		o.Merge(outcome.Apply("restored"))
	}

	log.Info().
		Int("roles", len(roles)).
		Str("status", o.Status.String()).
		Msg("Persisted roles restored")
	return o
}

func (t *Tracker) grant(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = t.cfg.RestoreInitialInterval
	if t.cfg.RestoreMaxInterval > 0 {
		policy.MaxInterval = t.cfg.RestoreMaxInterval
	}

	attempt := uint(0)
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := t.platform.AddRole(ctx, guildID, userID, roleID, AuditReason)
		if err == nil {
			metrics.RecordRestoreAttempt(nil, false)
			return struct{}{}, nil
		}
		if errors.Is(err, platform.ErrUnknownMember) {
			metrics.RecordRestoreAttempt(err, attempt < t.cfg.RestoreMaxTries)
			return struct{}{}, err
		}
		metrics.RecordRestoreAttempt(err, false)
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(t.cfg.RestoreMaxTries),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}
