// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
)

const (
	botID   discord.UserID  = 999
	adminID discord.UserID  = 1
	userID  discord.UserID  = 2
	guildID discord.GuildID = 50
)

// recorder implements Selectors, Roles and Platform, logging every call.
type recorder struct {
	calls   []string
	marks   []string
	replies []string

	registerErr  error
	registerOut  outcome.Outcome
	registered   map[discord.MessageID]bool
	roleOutcomes map[discord.RoleID]outcome.Outcome
	adminErr     error
}

func newRecorder() *recorder {
	return &recorder{
		registered:   map[discord.MessageID]bool{},
		roleOutcomes: map[discord.RoleID]outcome.Outcome{},
	}
}

func (r *recorder) RegisterSelector(_ context.Context, _ discord.ChannelID, id discord.MessageID) (reactionroles.Selector, outcome.Outcome, error) {
	r.calls = append(r.calls, fmt.Sprintf("register %s", id))
	if r.registerErr != nil {
		return reactionroles.Selector{}, outcome.Outcome{}, r.registerErr
	}
	r.registered[id] = true
	return reactionroles.Selector{}, r.registerOut, nil
}

func (r *recorder) UnregisterSelector(_ context.Context, _ discord.ChannelID, id discord.MessageID) (bool, outcome.Outcome) {
	r.calls = append(r.calls, fmt.Sprintf("unregister %s", id))
	if !r.registered[id] {
		return false, outcome.Skip("not_a_selector")
	}
	delete(r.registered, id)
	return true, outcome.Apply("unregistered")
}

func (r *recorder) roleOutcome(id discord.RoleID) outcome.Outcome {
	if o, ok := r.roleOutcomes[id]; ok {
		return o
	}
	return outcome.Apply("ok")
}

func (r *recorder) AddRole(_ context.Context, _ discord.GuildID, id discord.RoleID) outcome.Outcome {
	r.calls = append(r.calls, fmt.Sprintf("persist %s", id))
	return r.roleOutcome(id)
}

func (r *recorder) RemoveRole(_ context.Context, _ discord.GuildID, id discord.RoleID) outcome.Outcome {
	r.calls = append(r.calls, fmt.Sprintf("stop %s", id))
	return r.roleOutcome(id)
}

func (r *recorder) BotID(context.Context) (discord.UserID, error) {
	return botID, nil
}

func (r *recorder) IsAdministrator(_ context.Context, _ discord.GuildID, u discord.UserID) (bool, error) {
	return u == adminID, r.adminErr
}

func (r *recorder) React(_ context.Context, _ discord.ChannelID, _ discord.MessageID, e emoji.Emoji) error {
	r.marks = append(r.marks, e.String())
	return nil
}

func (r *recorder) Reply(_ context.Context, _ discord.ChannelID, _ discord.MessageID, content string) error {
	r.replies = append(r.replies, content)
	return nil
}

func message(author discord.UserID, content string) Message {
	return Message{GuildID: guildID, ChannelID: 10, ID: 11, AuthorID: author, Content: content}
}

func TestHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		author  discord.UserID
		content string
		setup   func(r *recorder)
		calls   []string
		mark    string
		reply   string
	}{
		{
			name:    "add selector",
			author:  adminID,
			content: "<@999> add role selector 1234",
			calls:   []string{"register 1234"},
			mark:    "✅",
		},
		{
			name:    "nickname mention",
			author:  adminID,
			content: "<@!999>   add role selector   1234",
			calls:   []string{"register 1234"},
			mark:    "✅",
		},
		{
			name:    "add selector with degraded reactions still succeeds",
			author:  adminID,
			content: "<@999> add role selector 1234",
			setup: func(r *recorder) {
				r.registerOut = outcome.Degrade("react_failed", errors.New("boom"))
			},
			calls: []string{"register 1234"},
			mark:  "✅",
		},
		{
			name:    "unknown message",
			author:  adminID,
			content: "<@999> add role selector 1234",
			setup:   func(r *recorder) { r.registerErr = errors.New("unknown message") },
			calls:   []string{"register 1234"},
			mark:    "❌",
			reply:   "Invalid message reference! Are you sure it's in this channel?",
		},
		{
			name:    "remove unregistered selector",
			author:  adminID,
			content: "<@999> remove role selector 1234",
			calls:   []string{"unregister 1234"},
			mark:    "❌",
			reply:   "Invalid message reference! Are you sure it's in this channel?",
		},
		{
			name:    "remove selector",
			author:  adminID,
			content: "<@999> remove role selector 1234",
			setup:   func(r *recorder) { r.registered[1234] = true },
			calls:   []string{"unregister 1234"},
			mark:    "✅",
		},
		{
			name:    "persist several roles",
			author:  adminID,
			content: "<@999> persist role 10 <@&20>",
			calls:   []string{"persist 10", "persist 20"},
			mark:    "✅",
		},
		{
			name:    "stop persisting",
			author:  adminID,
			content: "<@999> stop persist role <@&20>",
			calls:   []string{"stop 20"},
			mark:    "✅",
		},
		{
			name:    "malformed role stops before any change",
			author:  adminID,
			content: "<@999> persist role 10 abc",
			mark:    "❌",
			reply:   "Malformed argument: abc",
		},
		{
			name:    "zero id is malformed",
			author:  adminID,
			content: "<@999> add role selector 0",
			mark:    "❌",
			reply:   "Malformed argument: 0",
		},
		{
			name:    "degraded persist is a discord error",
			author:  adminID,
			content: "<@999> persist role 10 20",
			setup: func(r *recorder) {
				r.roleOutcomes[10] = outcome.Degrade("member_scan_failed", errors.New("503"))
			},
			calls: []string{"persist 10", "persist 20"},
			mark:  "❌",
			reply: "Discord error!",
		},
		{
			name:    "not an administrator",
			author:  userID,
			content: "<@999> persist role 10",
			mark:    "❌",
			reply:   "You are not allowed to do this!",
		},
		{
			name:    "permission check failure",
			author:  adminID,
			content: "<@999> persist role 10",
			setup:   func(r *recorder) { r.adminErr = errors.New("timeout") },
			mark:    "❌",
			reply:   "Discord error!",
		},
		{
			name:    "unknown command",
			author:  adminID,
			content: "<@999> dance",
			mark:    "❌",
			reply:   "Invalid command!",
		},
		{
			name:    "missing argument",
			author:  adminID,
			content: "<@999> persist role",
			mark:    "❌",
			reply:   "Invalid command!",
		},
		{
			name:    "too many message ids",
			author:  adminID,
			content: "<@999> add role selector 1 2",
			mark:    "❌",
			reply:   "Invalid command!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRecorder()
			if tt.setup != nil {
				tt.setup(r)
			}
			d := NewDispatcher(r, r, r)

			if !d.Handle(context.Background(), message(tt.author, tt.content)) {
				t.Fatal("Handle() = false, want true for a mention")
			}
			if diff := cmp.Diff(tt.calls, r.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{tt.mark}, r.marks); diff != "" {
				t.Errorf("marks mismatch (-want +got):\n%s", diff)
			}
			var wantReplies []string
			if tt.reply != "" {
				wantReplies = []string{tt.reply}
			}
			if diff := cmp.Diff(wantReplies, r.replies); diff != "" {
				t.Errorf("replies mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleIgnoresUnaddressedMessages(t *testing.T) {
	t.Parallel()

	for _, content := range []string{
		"",
		"hello there",
		"<@123> add role selector 1",
		"add role selector 1 <@999>",
	} {
		r := newRecorder()
		d := NewDispatcher(r, r, r)
		if d.Handle(context.Background(), message(adminID, content)) {
			t.Errorf("Handle(%q) = true, want false", content)
		}
		if len(r.marks)+len(r.calls)+len(r.replies) != 0 {
			t.Errorf("Handle(%q) touched the platform", content)
		}
	}
}

func TestDirectMessagesAreNotAllowed(t *testing.T) {
	t.Parallel()

	r := newRecorder()
	d := NewDispatcher(r, r, r)
	m := message(adminID, "<@999> persist role 10")
	m.GuildID = 0

	d.Handle(context.Background(), m)
	if diff := cmp.Diff([]string{"You are not allowed to do this!"}, r.replies); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoleRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg     string
		want    discord.RoleID
		wantErr bool
	}{
		{"123", 123, false},
		{"<@&123>", 123, false},
		{"<@123>", 0, true},
		{"<@&>", 0, true},
		{"-5", 0, true},
		{"0", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			t.Parallel()

			got, err := ParseRoleRef(tt.arg)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedArgument) {
					t.Errorf("ParseRoleRef(%q) error = %v, want malformed argument", tt.arg, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRoleRef(%q) = %v, %v; want %v", tt.arg, got, err, tt.want)
			}
		})
	}
}

func TestCommandErrorUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("503")
	err := error(discordError(cause))
	if !errors.Is(err, ErrDiscord) || !errors.Is(err, cause) {
		t.Errorf("error %v must match both its kind and its cause", err)
	}
	if errors.Is(err, ErrNotAllowed) {
		t.Error("kinds must not match each other")
	}
}
