// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package bot

import (
	"context"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/utils/ws"

	"github.com/tomtom215/rolekeeper/internal/commands"
	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
)

// fatalCloseCodes are gateway close codes after which reconnecting with the
// same configuration cannot succeed.
var fatalCloseCodes = map[int]string{
	4004: "authentication failed",
	4010: "invalid shard",
	4011: "sharding required",
	4012: "invalid API version",
	4013: "invalid intents",
	4014: "disallowed intents",
}

func (b *Bot) onReady(e *gateway.ReadyEvent) {
	b.setConnected(true)
	logging.Info().
		Str("user", e.User.Tag()).
		Str("session_id", e.SessionID).
		Msg("Gateway ready")
}

func (b *Bot) onResumed(*gateway.ResumedEvent) {
	b.setConnected(true)
	logging.Info().Msg("Gateway session resumed")
}

func (b *Bot) onClose(e *ws.CloseEvent) {
	b.setConnected(false)

	reason, fatal := fatalCloseCodes[e.Code]
	if !fatal {
		logging.Warn().Err(e.Err).Int("code", e.Code).Msg("Gateway connection closed, reconnecting")
		return
	}
	err := fmt.Errorf("gateway closed with code %d (%s): %w", e.Code, reason, e.Err)
	logging.Error().Err(err).Msg("Gateway closed permanently")
	if b.onFatal != nil {
		b.onFatal(err)
	}
}

func (b *Bot) onReactionAdd(e *gateway.MessageReactionAddEvent) {
	ctx := b.eventContext("reaction_add")
	logOutcome(ctx, b.deps.Reactions.ReactionAdded(ctx, reactionroles.Reaction{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		MessageID: e.MessageID,
		UserID:    e.UserID,
		Emoji:     emoji.FromReaction(e.Emoji),
		Member:    e.Member,
	}))
}

func (b *Bot) onReactionRemove(e *gateway.MessageReactionRemoveEvent) {
	ctx := b.eventContext("reaction_remove")
	logOutcome(ctx, b.deps.Reactions.ReactionRemoved(ctx, reactionroles.Reaction{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		MessageID: e.MessageID,
		UserID:    e.UserID,
		Emoji:     emoji.FromReaction(e.Emoji),
	}))
}

// Clearing reactions on a selector leaves it without the bot's own
// reactions, so the message is reconciled again.
func (b *Bot) onReactionRemoveAll(e *gateway.MessageReactionRemoveAllEvent) {
	ctx := b.eventContext("reaction_remove_all")
	logOutcome(ctx, b.deps.Reactions.MessageUpdated(ctx, e.ChannelID, e.MessageID))
}

func (b *Bot) onReactionRemoveEmoji(e *gateway.MessageReactionRemoveEmojiEvent) {
	ctx := b.eventContext("reaction_remove_emoji")
	logOutcome(ctx, b.deps.Reactions.MessageUpdated(ctx, e.ChannelID, e.MessageID))
}

func (b *Bot) onMessageCreate(e *gateway.MessageCreateEvent) {
	if b.deps.Commands == nil || e.Author.Bot {
		return
	}
	ctx := b.eventContext("message_create")
	b.deps.Commands.Handle(ctx, commands.Message{
		GuildID:   e.GuildID,
		ChannelID: e.ChannelID,
		ID:        e.ID,
		AuthorID:  e.Author.ID,
		Content:   e.Content,
	})
}

func (b *Bot) onMessageUpdate(e *gateway.MessageUpdateEvent) {
	ctx := b.eventContext("message_update")
	logOutcome(ctx, b.deps.Reactions.MessageUpdated(ctx, e.ChannelID, e.ID))
}

func (b *Bot) onMessageDelete(e *gateway.MessageDeleteEvent) {
	ctx := b.eventContext("message_delete")
	logOutcome(ctx, b.deps.Reactions.MessageDeleted(ctx, e.ID))
}

func (b *Bot) onMessageDeleteBulk(e *gateway.MessageDeleteBulkEvent) {
	ctx := b.eventContext("message_delete_bulk")
	var o outcome.Outcome
	for _, id := range e.IDs {
		o.Merge(b.deps.Reactions.MessageDeleted(ctx, id))
	}
	logOutcome(ctx, o)
}

// onMemberAdd screens the username first. A banned member gets no roles
// restored.
func (b *Bot) onMemberAdd(e *gateway.GuildMemberAddEvent) {
	ctx := b.eventContext("member_add")
	if b.deps.Filter != nil {
		fo := b.deps.Filter.MemberJoined(ctx, e.GuildID, e.User)
		logOutcome(ctx, fo)
		if fo.Status == outcome.Applied {
			return
		}
	}
	logOutcome(ctx, b.deps.Persisted.MemberJoined(ctx, e.GuildID, e.User.ID))
}

func (b *Bot) onMemberUpdate(e *gateway.GuildMemberUpdateEvent) {
	ctx := b.eventContext("member_update")
	logOutcome(ctx, b.deps.Persisted.MemberUpdated(ctx, e.GuildID, e.User.ID, e.RoleIDs))
}

// onMemberRemove runs before the state cache forgets the member. Only the
// cache lookup happens inline; the snapshot write runs on its own goroutine
// so the gateway is not held up by storage.
func (b *Bot) onMemberRemove(e *gateway.GuildMemberRemoveEvent) {
	ctx := b.eventContext("member_remove")

	roles, ok := b.cachedRoles(ctx, e.GuildID, e.User.ID)
	if !ok {
		return
	}
	go b.memberRemoved(ctx, e.GuildID, e.User.ID, roles)
}

func (b *Bot) memberRemoved(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) {
	logOutcome(ctx, b.deps.Persisted.MemberRemoved(ctx, guildID, userID, roles))
}

// cachedRoles returns the roles of a departing member. When the member was
// never cached the last snapshot written by a member update is kept.
func (b *Bot) cachedRoles(ctx context.Context, guildID discord.GuildID, userID discord.UserID) ([]discord.RoleID, bool) {
	if b.members == nil {
		return nil, false
	}
	m, err := b.members.Member(guildID, userID)
	if err != nil || m == nil {
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("guild_id", guildID.String()).
			Str("user_id", userID.String()).
			Msg("Departing member not cached, keeping previous snapshot")
		return nil, false
	}
	return m.RoleIDs, true
}
