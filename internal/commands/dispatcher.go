// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package commands parses and runs the administrator commands addressed to
// the bot by mention.
//
// A command is the whitespace-separated token list following the bot's
// mention at the start of a message:
//
//	@bot add role selector <message-id>
//	@bot remove role selector <message-id>
//	@bot persist role <role-ref>...
//	@bot stop persist role <role-ref>...
//
// A role reference is either a bare id or a role mention. The command
// message receives ✅ on success or ❌ on failure, and failures are answered
// with a reply carrying the CommandError text.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
)

// Marks placed on the command message.
var (
	SuccessMark = emoji.Unicode("✅")
	FailureMark = emoji.Unicode("❌")
)

// Selectors registers and unregisters reaction-role selectors.
type Selectors interface {
	RegisterSelector(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (reactionroles.Selector, outcome.Outcome, error)
	UnregisterSelector(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) (bool, outcome.Outcome)
}

// Roles starts and stops persisting roles.
type Roles interface {
	AddRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) outcome.Outcome
	RemoveRole(ctx context.Context, guildID discord.GuildID, roleID discord.RoleID) outcome.Outcome
}

// Platform is the part of the chat platform the dispatcher calls.
type Platform interface {
	BotID(ctx context.Context) (discord.UserID, error)
	IsAdministrator(ctx context.Context, guildID discord.GuildID, userID discord.UserID) (bool, error)
	React(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error
	Reply(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, content string) error
}

// Message is a chat message that may carry a command.
type Message struct {
	GuildID   discord.GuildID
	ChannelID discord.ChannelID
	ID        discord.MessageID
	AuthorID  discord.UserID
	Content   string
}

// Dispatcher routes command messages to the selector and role services.
type Dispatcher struct {
	selectors Selectors
	roles     Roles
	platform  Platform
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(selectors Selectors, roles Roles, p Platform) *Dispatcher {
	return &Dispatcher{selectors: selectors, roles: roles, platform: p}
}

type runFunc func(d *Dispatcher, ctx context.Context, m Message, args []string) error

type command struct {
	name string
	args []string
	run  runFunc
}

// match maps a token list onto a command. Every command needs at least one
// argument after its keywords.
func match(tokens []string) (command, bool) {
	table := []struct {
		keywords []string
		name     string
		run      runFunc
	}{
		{[]string{"add", "role", "selector"}, "add_selector", (*Dispatcher).addSelector},
		{[]string{"remove", "role", "selector"}, "remove_selector", (*Dispatcher).removeSelector},
		{[]string{"stop", "persist", "role"}, "stop_persist_role", (*Dispatcher).stopPersistRole},
		{[]string{"persist", "role"}, "persist_role", (*Dispatcher).persistRole},
	}
	for _, entry := range table {
		if len(tokens) <= len(entry.keywords) {
			continue
		}
		if !hasPrefix(tokens, entry.keywords) {
			continue
		}
		return command{name: entry.name, args: tokens[len(entry.keywords):], run: entry.run}, true
	}
	return command{}, false
}

func hasPrefix(tokens, keywords []string) bool {
	for i, k := range keywords {
		if tokens[i] != k {
			return false
		}
	}
	return true
}

// Handle runs the command carried by m, if any. It reports whether m was
// addressed to the bot.
func (d *Dispatcher) Handle(ctx context.Context, m Message) bool {
	botID, err := d.platform.BotID(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to resolve bot identity")
		return false
	}
	tokens := strings.Fields(m.Content)
	if len(tokens) == 0 || !isMention(tokens[0], botID) {
		return false
	}

	log := logging.Ctx(ctx).With().
		Str("guild_id", m.GuildID.String()).
		Str("channel_id", m.ChannelID.String()).
		Str("author_id", m.AuthorID.String()).
		Logger()

	name, err := d.dispatch(ctx, m, tokens[1:])
	metrics.RecordCommand(name, err)

	mark := SuccessMark
	if err != nil {
		mark = FailureMark
		log.Info().Err(err).Str("command", name).Msg("Command failed")
	} else {
		log.Info().Str("command", name).Msg("Command completed")
	}

	if rerr := d.platform.React(ctx, m.ChannelID, m.ID, mark); rerr != nil {
		log.Warn().Err(rerr).Msg("Failed to mark command message")
	}
	if err != nil {
		if rerr := d.platform.Reply(ctx, m.ChannelID, m.ID, replyText(err)); rerr != nil {
			log.Warn().Err(rerr).Msg("Failed to reply to command")
		}
	}
	return true
}

func (d *Dispatcher) dispatch(ctx context.Context, m Message, tokens []string) (string, error) {
	cmd, ok := match(tokens)
	if !ok {
		return "invalid", ErrInvalidCommand
	}
	if !m.GuildID.IsValid() {
		return cmd.name, ErrNotAllowed
	}
	admin, err := d.platform.IsAdministrator(ctx, m.GuildID, m.AuthorID)
	if err != nil {
		return cmd.name, discordError(fmt.Errorf("check administrator: %w", err))
	}
	if !admin {
		return cmd.name, ErrNotAllowed
	}
	return cmd.name, cmd.run(d, ctx, m, cmd.args)
}

func replyText(err error) string {
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return cerr.Error()
	}
	return ErrDiscord.Error()
}

func (d *Dispatcher) addSelector(ctx context.Context, m Message, args []string) error {
	id, err := singleID(args)
	if err != nil {
		return err
	}
	_, o, err := d.selectors.RegisterSelector(ctx, m.ChannelID, discord.MessageID(id))
	if err != nil {
		return &CommandError{Kind: KindInvalidMessageReference, Err: err}
	}
	if o.Degraded() {
		// The selector is registered; reactions converge on the next edit.
		logging.Ctx(ctx).Warn().Err(o.Err()).Msg("Selector registered with reaction failures")
	}
	return nil
}

func (d *Dispatcher) removeSelector(ctx context.Context, m Message, args []string) error {
	id, err := singleID(args)
	if err != nil {
		return err
	}
	removed, o := d.selectors.UnregisterSelector(ctx, m.ChannelID, discord.MessageID(id))
	if !removed {
		return ErrInvalidMessageReference
	}
	if o.Degraded() {
		logging.Ctx(ctx).Warn().Err(o.Err()).Msg("Selector removed but reactions were left behind")
	}
	return nil
}

func (d *Dispatcher) persistRole(ctx context.Context, m Message, args []string) error {
	return d.eachRole(ctx, m, args, d.roles.AddRole)
}

func (d *Dispatcher) stopPersistRole(ctx context.Context, m Message, args []string) error {
	return d.eachRole(ctx, m, args, d.roles.RemoveRole)
}

// eachRole parses every reference before applying fn to any of them.
func (d *Dispatcher) eachRole(ctx context.Context, m Message, args []string, fn func(context.Context, discord.GuildID, discord.RoleID) outcome.Outcome) error {
	roles := make([]discord.RoleID, 0, len(args))
	for _, arg := range args {
		id, err := ParseRoleRef(arg)
		if err != nil {
			return err
		}
		roles = append(roles, id)
	}

	var errs []error
	for _, role := range roles {
		if o := fn(ctx, m.GuildID, role); o.Degraded() {
			errs = append(errs, fmt.Errorf("role %s: %w", role, o.Err()))
		}
	}
	if len(errs) > 0 {
		return discordError(errors.Join(errs...))
	}
	return nil
}

func singleID(args []string) (discord.Snowflake, error) {
	if len(args) != 1 {
		return 0, ErrInvalidCommand
	}
	return parseID(args[0])
}

// ParseRoleRef parses a role id given bare or as a role mention.
func ParseRoleRef(arg string) (discord.RoleID, error) {
	raw := arg
	if strings.HasPrefix(raw, "<@&") && strings.HasSuffix(raw, ">") {
		raw = raw[3 : len(raw)-1]
	}
	id, err := parseID(raw)
	if err != nil {
		return 0, malformed(arg)
	}
	return discord.RoleID(id), nil
}

func parseID(arg string) (discord.Snowflake, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || n == 0 {
		return 0, malformed(arg)
	}
	return discord.Snowflake(n), nil
}

// isMention reports whether token mentions userID, in either the plain or
// the nickname form.
func isMention(token string, userID discord.UserID) bool {
	id := userID.String()
	return token == "<@"+id+">" || token == "<@!"+id+">"
}
