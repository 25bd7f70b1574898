// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package platform

import (
	"context"
	"fmt"
	"slices"

	"github.com/diamondburned/arikawa/v3/discord"
)

// GuildPermissions computes a member's guild-wide permissions from the
// @everyone role and the member's roles. The guild owner holds every
// permission. Channel overwrites are not considered.
func (c *Client) GuildPermissions(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (discord.Permissions, error) {
	guild, err := execute(c, func() (*discord.Guild, error) {
		return c.session(ctx).Guild(guildID)
	})
	if err != nil {
		return 0, fmt.Errorf("fetch guild %s: %w", guildID, err)
	}
	member, err := c.Member(ctx, guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	roles, err := execute(c, func() ([]discord.Role, error) {
		return c.session(ctx).Roles(guildID)
	})
	if err != nil {
		return 0, fmt.Errorf("fetch roles of %s: %w", guildID, err)
	}
	return computePermissions(guild, member, roles), nil
}

// allPermissions is every bit, used for owners and administrators.
const allPermissions = ^discord.Permissions(0)

func computePermissions(guild *discord.Guild, member *discord.Member, roles []discord.Role) discord.Permissions {
	if guild.OwnerID == member.User.ID {
		return allPermissions
	}

	everyone := discord.RoleID(guild.ID)
	var perms discord.Permissions
	for _, r := range roles {
		if r.ID == everyone || slices.Contains(member.RoleIDs, r.ID) {
			perms |= r.Permissions
		}
	}
	if perms.Has(discord.PermissionAdministrator) {
		return allPermissions
	}
	return perms
}

// HasPermission reports whether a member holds perm in the guild.
func (c *Client) HasPermission(ctx context.Context, guildID discord.GuildID, userID discord.UserID, perm discord.Permissions) (bool, error) {
	perms, err := c.GuildPermissions(ctx, guildID, userID)
	if err != nil {
		return false, err
	}
	return perms.Has(perm), nil
}

// IsAdministrator reports whether a member is a guild administrator.
func (c *Client) IsAdministrator(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (bool, error) {
	return c.HasPermission(ctx, guildID, userID, discord.PermissionAdministrator)
}

func (c *Client) botHas(ctx context.Context, guildID discord.GuildID, perm discord.Permissions) (bool, error) {
	botID, err := c.BotID(ctx)
	if err != nil {
		return false, err
	}
	return c.HasPermission(ctx, guildID, botID, perm)
}

// CanManageRoles reports whether the bot may grant and revoke roles.
func (c *Client) CanManageRoles(ctx context.Context, guildID discord.GuildID) (bool, error) {
	return c.botHas(ctx, guildID, discord.PermissionManageRoles)
}

// CanBan reports whether the bot may ban members.
func (c *Client) CanBan(ctx context.Context, guildID discord.GuildID) (bool, error) {
	return c.botHas(ctx, guildID, discord.PermissionBanMembers)
}
