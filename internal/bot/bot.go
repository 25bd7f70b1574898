// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package bot connects the Discord gateway to Rolekeeper's event handlers.
//
// Every gateway event is translated into a call on the reaction-role
// handler, the persisted-role tracker, the username filter or the command
// dispatcher. Each event gets its own logging context with a fresh
// correlation ID, and the resulting outcome is logged at debug level.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/diamondburned/arikawa/v3/gateway"
	"github.com/diamondburned/arikawa/v3/state"
	"github.com/diamondburned/arikawa/v3/utils/handler"

	"github.com/tomtom215/rolekeeper/internal/commands"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
)

// Intents lists the gateway intents the handlers rely on. Guild members
// and message content are privileged and must be enabled for the
// application.
const Intents = gateway.IntentGuilds |
	gateway.IntentGuildMembers |
	gateway.IntentGuildMessages |
	gateway.IntentGuildMessageReactions |
	gateway.IntentMessageContent

// ErrNotConnected is reported by HealthCheck until the gateway is ready.
var ErrNotConnected = errors.New("gateway session not ready")

// ReactionRoles handles selector traffic.
type ReactionRoles interface {
	ReactionAdded(ctx context.Context, r reactionroles.Reaction) outcome.Outcome
	ReactionRemoved(ctx context.Context, r reactionroles.Reaction) outcome.Outcome
	MessageDeleted(ctx context.Context, messageID discord.MessageID) outcome.Outcome
	MessageUpdated(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID) outcome.Outcome
}

// PersistedRoles handles membership traffic.
type PersistedRoles interface {
	MemberJoined(ctx context.Context, guildID discord.GuildID, userID discord.UserID) outcome.Outcome
	MemberUpdated(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) outcome.Outcome
	MemberRemoved(ctx context.Context, guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) outcome.Outcome
}

// NameFilter screens joining members.
type NameFilter interface {
	MemberJoined(ctx context.Context, guildID discord.GuildID, user discord.User) outcome.Outcome
}

// Commands runs mention commands.
type Commands interface {
	Handle(ctx context.Context, m commands.Message) bool
}

// MemberCache looks up members the gateway has already delivered.
type MemberCache interface {
	Member(guildID discord.GuildID, userID discord.UserID) (*discord.Member, error)
}

// Session is the gateway connection lifecycle.
type Session interface {
	Open(ctx context.Context) error
	Close() error
}

// Deps are the handlers a Bot dispatches to. Filter and Commands are optional.
type Deps struct {
	Reactions ReactionRoles
	Persisted PersistedRoles
	Filter    NameFilter
	Commands  Commands
}

// Bot routes gateway events to the handlers in Deps.
type Bot struct {
	deps    Deps
	session Session
	members MemberCache

	connected atomic.Bool
	onFatal   func(error)

	mu  sync.RWMutex
	ctx context.Context
}

// New creates a Bot without a session. Attach connects it to a gateway.
func New(deps Deps) *Bot {
	return &Bot{deps: deps, ctx: context.Background()}
}

// Attach registers intents and event handlers on s. The member-removal
// snapshot runs as a synchronous pre-handler so it reads the cached member
// before the state cache drops it.
func (b *Bot) Attach(s *state.State) {
	b.session = s
	b.members = s.Cabinet

	s.AddIntents(Intents)

	if s.PreHandler == nil {
		s.PreHandler = handler.New()
	}
	s.PreHandler.AddSyncHandler(b.onMemberRemove)

	s.AddHandler(b.onReady)
	s.AddHandler(b.onResumed)
	s.AddHandler(b.onReactionAdd)
	s.AddHandler(b.onReactionRemove)
	s.AddHandler(b.onReactionRemoveAll)
	s.AddHandler(b.onReactionRemoveEmoji)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onMessageUpdate)
	s.AddHandler(b.onMessageDelete)
	s.AddHandler(b.onMessageDeleteBulk)
	s.AddHandler(b.onMemberAdd)
	s.AddHandler(b.onMemberUpdate)
	s.AddHandler(b.onClose)
}

// OnFatal sets the callback for session errors the gateway will not
// recover from on its own.
func (b *Bot) OnFatal(fn func(error)) {
	b.onFatal = fn
}

// Open connects the gateway. ctx becomes the parent of every event context
// until Close, so canceling it aborts in-flight platform calls.
func (b *Bot) Open(ctx context.Context) error {
	if b.session == nil {
		return errors.New("bot has no session attached")
	}
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	if err := b.session.Open(ctx); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	return nil
}

// Close disconnects the gateway.
func (b *Bot) Close() error {
	b.setConnected(false)
	if b.session == nil {
		return nil
	}
	return b.session.Close()
}

// Connected reports whether the gateway has delivered Ready or Resumed
// since the last disconnect.
func (b *Bot) Connected() bool {
	return b.connected.Load()
}

// HealthCheck returns ErrNotConnected while the gateway is down.
func (b *Bot) HealthCheck(context.Context) error {
	if !b.Connected() {
		return ErrNotConnected
	}
	return nil
}

func (b *Bot) setConnected(v bool) {
	b.connected.Store(v)
	metrics.SetGatewayConnected(v)
}

// eventContext derives the per-event context.
func (b *Bot) eventContext(event string) context.Context {
	b.mu.RLock()
	parent := b.ctx
	b.mu.RUnlock()
	return logging.ContextForEvent(parent, event)
}

func logOutcome(ctx context.Context, o outcome.Outcome) {
	log := logging.Ctx(ctx)
	if o.Degraded() {
		log.Warn().Err(o.Err()).Str("status", o.Status.String()).Str("reason", o.Reason).Msg("Event handled with failures")
		return
	}
	log.Debug().Str("status", o.Status.String()).Str("reason", o.Reason).Msg("Event handled")
}
