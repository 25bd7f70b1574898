// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package platform adapts the Discord gateway session to the narrow,
// context-aware interfaces the domain packages depend on.
//
// Every REST call goes through a circuit breaker. Discord error codes are
// translated into the package sentinels (ErrUnknownMember, ErrUnknownMessage,
// ErrMissingPermissions, ErrNotFound) so callers can branch with errors.Is
// without importing the Discord client.
package platform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/state"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
)

// Discord is the subset of the arikawa session used by Client. It is
// satisfied by *state.State, which answers reads from its cache when it can.
type Discord interface {
	Me() (*discord.User, error)
	Guild(guildID discord.GuildID) (*discord.Guild, error)
	Roles(guildID discord.GuildID) ([]discord.Role, error)
	Member(guildID discord.GuildID, userID discord.UserID) (*discord.Member, error)
	MembersAfter(guildID discord.GuildID, after discord.UserID, limit uint) ([]discord.Member, error)
	Message(channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error)

	AddRole(guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, data api.AddRoleData) error
	RemoveRole(guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, reason api.AuditLogReason) error
	Ban(guildID discord.GuildID, userID discord.UserID, data api.BanData) error

	React(channelID discord.ChannelID, messageID discord.MessageID, e discord.APIEmoji) error
	Unreact(channelID discord.ChannelID, messageID discord.MessageID, e discord.APIEmoji) error
	DeleteUserReaction(channelID discord.ChannelID, messageID discord.MessageID, userID discord.UserID, e discord.APIEmoji) error
	SendMessageReply(channelID discord.ChannelID, content string, referenceID discord.MessageID, embeds ...discord.Embed) (*discord.Message, error)
}

// Client is the context-aware, breaker-protected platform adapter.
type Client struct {
	session func(ctx context.Context) Discord
	cb      *gobreaker.CircuitBreaker[any]
	name    string

	meMu sync.Mutex
	me   discord.UserID
}

// New creates a Client over a gateway state. Calls are bound to the caller's
// context through state.WithContext.
func New(s *state.State, cfg BreakerConfig) *Client {
	return newClient(func(ctx context.Context) Discord { return s.WithContext(ctx) }, cfg)
}

// NewWithSession creates a Client over any Discord implementation. The
// context is not propagated to d.
func NewWithSession(d Discord, cfg BreakerConfig) *Client {
	return newClient(func(context.Context) Discord { return d }, cfg)
}

func newClient(session func(ctx context.Context) Discord, cfg BreakerConfig) *Client {
	return &Client{
		session: session,
		cb:      newBreaker(cfg),
		name:    cfg.Name,
	}
}

// execute runs fn through the circuit breaker and maps its error.
func execute[T any](c *Client, fn func() (T, error)) (T, error) {
	result, err := c.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Str("breaker", c.name).Msg("Platform call rejected by circuit breaker")
			return zero, err
		}
		return zero, mapError(err)
	}
	typed, ok := result.(T)
	if !ok && result != nil {
		var zero T
		return zero, fmt.Errorf("platform: unexpected result type %T", result)
	}
	return typed, nil
}

func run(c *Client, fn func() error) error {
	_, err := execute(c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// BotID returns the bot's own user ID. It is cached after the first
// successful lookup.
func (c *Client) BotID(ctx context.Context) (discord.UserID, error) {
	c.meMu.Lock()
	defer c.meMu.Unlock()
	if c.me.IsValid() {
		return c.me, nil
	}

	me, err := execute(c, func() (*discord.User, error) {
		return c.session(ctx).Me()
	})
	if err != nil {
		return 0, fmt.Errorf("fetch current user: %w", err)
	}
	c.me = me.ID
	return c.me, nil
}

// Message fetches a message.
func (c *Client) Message(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error) {
	return execute(c, func() (*discord.Message, error) {
		return c.session(ctx).Message(channelID, messageID)
	})
}

// Member fetches a guild member.
func (c *Client) Member(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (*discord.Member, error) {
	return execute(c, func() (*discord.Member, error) {
		return c.session(ctx).Member(guildID, userID)
	})
}

// MembersAfter lists up to limit members with IDs above after.
func (c *Client) MembersAfter(ctx context.Context, guildID discord.GuildID, after discord.UserID, limit uint) ([]discord.Member, error) {
	return execute(c, func() ([]discord.Member, error) {
		return c.session(ctx).MembersAfter(guildID, after, limit)
	})
}

// AddRole grants a role to a member.
func (c *Client) AddRole(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, reason string) error {
	return run(c, func() error {
		return c.session(ctx).AddRole(guildID, userID, roleID, api.AddRoleData{
			AuditLogReason: api.AuditLogReason(reason),
		})
	})
}

// RemoveRole revokes a role from a member.
func (c *Client) RemoveRole(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roleID discord.RoleID, reason string) error {
	return run(c, func() error {
		return c.session(ctx).RemoveRole(guildID, userID, roleID, api.AuditLogReason(reason))
	})
}

// Ban bans a member.
func (c *Client) Ban(ctx context.Context, guildID discord.GuildID, userID discord.UserID, reason string) error {
	return run(c, func() error {
		return c.session(ctx).Ban(guildID, userID, api.BanData{
			AuditLogReason: api.AuditLogReason(reason),
		})
	})
}

// React adds the bot's reaction to a message.
func (c *Client) React(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error {
	return run(c, func() error {
		return c.session(ctx).React(channelID, messageID, e.APIEmoji())
	})
}

// Unreact removes the bot's reaction from a message.
func (c *Client) Unreact(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error {
	return run(c, func() error {
		return c.session(ctx).Unreact(channelID, messageID, e.APIEmoji())
	})
}

// DeleteUserReaction removes another user's reaction from a message.
func (c *Client) DeleteUserReaction(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, userID discord.UserID, e emoji.Emoji) error {
	return run(c, func() error {
		return c.session(ctx).DeleteUserReaction(channelID, messageID, userID, e.APIEmoji())
	})
}

// Reply posts content as a reply to a message.
func (c *Client) Reply(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, content string) error {
	return run(c, func() error {
		_, err := c.session(ctx).SendMessageReply(channelID, content, messageID)
		return err
	})
}

// breakerStateValue converts a breaker state to its gauge value.
func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func recordBreakerState(name string, s gobreaker.State) {
	metrics.SetBreakerState(name, breakerStateValue(s))
}
