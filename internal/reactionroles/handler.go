// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"context"
	"fmt"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/persistent"
)

// AuditReason is attached to every role change made for a reaction.
const AuditReason = "Reaction role"

// Platform is the part of the chat platform the reaction role handler calls.
type Platform interface {
	ReactionAPI
	Message(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error)
	Member(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (*discord.Member, error)
	AddRole(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, reason string) error
	RemoveRole(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, reason string) error
	DeleteUserReaction(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, userID discord.UserID, e emoji.Emoji) error
}

// Reaction is a reaction add or remove event.
type Reaction struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID
	MessageID discord.MessageID
	UserID    discord.UserID
	Emoji     emoji.Emoji
	// Member is the reacting member when the gateway included it. When nil
	// the handler fetches it.
	Member *discord.Member
}

// Handler reacts to reaction and message events on selector messages.
type Handler struct {
	store      *persistent.Store[Registry]
	platform   Platform
	reconciler *Reconciler
}

// NewHandler creates a handler backed by store.
func NewHandler(store *persistent.Store[Registry], platform Platform) *Handler {
	return &Handler{
		store:      store,
		platform:   platform,
		reconciler: NewReconciler(platform),
	}
}

type lookupResult struct {
	role       discord.RoleID
	registered bool
	mapped     bool
}

func (h *Handler) lookup(messageID discord.MessageID, e emoji.Emoji) lookupResult {
	return persistent.Read(h.store, func(reg *Registry) lookupResult {
		role, registered, mapped := reg.Lookup(messageID, e)
		return lookupResult{role: role, registered: registered, mapped: mapped}
	})
}

// IsSelector reports whether a message is a registered selector.
func (h *Handler) IsSelector(messageID discord.MessageID) bool {
	return persistent.Read(h.store, func(reg *Registry) bool {
		return reg.Has(messageID)
	})
}

// ReactionAdded grants the mapped role to the reacting member. A reaction
// with an emoji the selector does not map is removed again.
func (h *Handler) ReactionAdded(ctx context.Context, r Reaction) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent("reaction_add", o.Status.String()) }()

	if !r.GuildID.IsValid() {
		return outcome.Skip("not_in_guild")
	}

	found := h.lookup(r.MessageID, r.Emoji)
	if !found.registered {
		return outcome.Skip("not_a_selector")
	}

	log := logging.Ctx(ctx).With().
		Str("message_id", r.MessageID.String()).
		Str("user_id", r.UserID.String()).
		Str("emoji", r.Emoji.String()).
		Logger()

	if !found.mapped {
		o := outcome.Apply("unmapped_reaction_removed")
		if err := h.platform.DeleteUserReaction(ctx, r.ChannelID, r.MessageID, r.UserID, r.Emoji); err != nil {
			log.Warn().Err(err).Msg("Failed to remove unmapped reaction")
			o = outcome.Degrade("delete_reaction_failed", err)
		}
		metrics.RecordEvent("unmapped_reaction", o.Status.String())
		return o
	}

	member := r.Member
	if member == nil {
		m, err := h.platform.Member(ctx, r.GuildID, r.UserID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to fetch reacting member")
			return outcome.Degrade("member_fetch_failed", err)
		}
		member = m
	}
	if member.User.Bot {
		return outcome.Skip("bot_member")
	}

	err := h.platform.AddRole(ctx, r.GuildID, r.UserID, found.role, AuditReason)
	metrics.RecordRoleMutation("grant", "reaction", err)
	if err != nil {
		log.Warn().Err(err).Str("role_id", found.role.String()).Msg("Failed to grant reaction role")
		return outcome.Degrade("grant_failed", err)
	}

	log.Debug().Str("role_id", found.role.String()).Msg("Reaction role granted")
	return outcome.Apply("granted")
}

// ReactionRemoved revokes the mapped role from the member who removed the reaction.
func (h *Handler) ReactionRemoved(ctx context.Context, r Reaction) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent("reaction_remove", o.Status.String()) }()

	if !r.GuildID.IsValid() {
		return outcome.Skip("not_in_guild")
	}

	found := h.lookup(r.MessageID, r.Emoji)
	switch {
	case !found.registered:
		return outcome.Skip("not_a_selector")
	case !found.mapped:
		return outcome.Skip("unmapped_emoji")
	}

	err := h.platform.RemoveRole(ctx, r.GuildID, r.UserID, found.role, AuditReason)
	metrics.RecordRoleMutation("revoke", "reaction", err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("message_id", r.MessageID.String()).
			Str("user_id", r.UserID.String()).
			Str("role_id", found.role.String()).
			Msg("Failed to revoke reaction role")
		return outcome.Degrade("revoke_failed", err)
	}
	return outcome.Apply("revoked")
}

// MessageDeleted unregisters a deleted selector message.
func (h *Handler) MessageDeleted(ctx context.Context, messageID discord.MessageID) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent("message_delete", o.Status.String()) }()

	if !h.IsSelector(messageID) {
		return outcome.Skip("not_a_selector")
	}

	removed := persistent.Mutate(h.store, func(reg *Registry) bool {
		return reg.Remove(messageID)
	})
	if !removed {
		return outcome.Skip("not_a_selector")
	}

	logging.Ctx(ctx).Info().Str("message_id", messageID.String()).Msg("Selector message deleted")
	return outcome.Apply("unregistered")
}

// MessageUpdated re-parses an edited selector message and reconciles the
// bot's reactions against the fresh selector.
func (h *Handler) MessageUpdated(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (o outcome.Outcome) {
	defer func() { metrics.RecordEvent("message_update", o.Status.String()) }()

	if !h.IsSelector(messageID) {
		return outcome.Skip("not_a_selector")
	}

	msg, err := h.platform.Message(ctx, channelID, messageID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("message_id", messageID.String()).Msg("Failed to fetch edited selector")
		return outcome.Degrade("message_fetch_failed", err)
	}

	sel := Parse(msg.Content)
	stillRegistered := persistent.Mutate(h.store, func(reg *Registry) bool {
		if !reg.Has(messageID) {
			return false
		}
		reg.Put(messageID, sel)
		return true
	})
	if !stillRegistered {
		return outcome.Skip("not_a_selector")
	}

	logging.Ctx(ctx).Info().
		Str("message_id", messageID.String()).
		Int("bindings", sel.Len()).
		Msg("Selector message updated")

	o = outcome.Apply("selector_updated")
	o.Merge(h.reconciler.Reconcile(ctx, sel, msg))
	return o
}

// RegisterSelector fetches a message, registers its parsed selector and
// reconciles the bot's reactions. The returned error is non-nil only when
// the message could not be fetched.
func (h *Handler) RegisterSelector(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (Selector, outcome.Outcome, error) {
	msg, err := h.platform.Message(ctx, channelID, messageID)
	if err != nil {
		return Selector{}, outcome.Outcome{}, fmt.Errorf("fetch message %s: %w", messageID, err)
	}

	sel := Parse(msg.Content)
	h.store.Update(func(reg *Registry) {
		reg.Put(messageID, sel)
	})

	logging.Ctx(ctx).Info().
		Str("message_id", messageID.String()).
		Int("bindings", sel.Len()).
		Msg("Selector registered")

	o := outcome.Apply("registered")
	o.Merge(h.reconciler.Reconcile(ctx, sel, msg))
	metrics.RecordEvent("register", o.Status.String())
	return sel, o, nil
}

// UnregisterSelector drops a selector and removes the bot's own reactions
// from the message. It reports whether the message was registered.
func (h *Handler) UnregisterSelector(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (bool, outcome.Outcome) {
	removed := persistent.Mutate(h.store, func(reg *Registry) bool {
		return reg.Remove(messageID)
	})
	if !removed {
		return false, outcome.Skip("not_a_selector")
	}

	logging.Ctx(ctx).Info().Str("message_id", messageID.String()).Msg("Selector unregistered")

	o := outcome.Apply("unregistered")
	msg, err := h.platform.Message(ctx, channelID, messageID)
	if err != nil {
		o.Record("message_fetch_failed", err)
	} else {
		o.Merge(h.reconciler.Reconcile(ctx, Selector{}, msg))
	}
	metrics.RecordEvent("unregister", o.Status.String())
	return true, o
}
