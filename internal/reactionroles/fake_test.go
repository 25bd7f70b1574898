// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/tomtom215/rolekeeper/internal/emoji"
)

var errNotFound = errors.New("not found")

// fakePlatform records every call and keeps the bot's reactions on its
// messages up to date so reconciliation can be checked for convergence.
type fakePlatform struct {
	mu       sync.Mutex
	messages map[discord.MessageID]*discord.Message
	members  map[discord.UserID]*discord.Member
	fail     map[string]error
	calls    []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		messages: make(map[discord.MessageID]*discord.Message),
		members:  make(map[discord.UserID]*discord.Member),
		fail:     make(map[string]error),
	}
}

func (f *fakePlatform) addMessage(channelID discord.ChannelID, id discord.MessageID, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id] = &discord.Message{ID: id, ChannelID: channelID, Content: content}
}

func (f *fakePlatform) addMember(id discord.UserID, bot bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = &discord.Member{User: discord.User{ID: id, Bot: bot}}
}

func (f *fakePlatform) setContent(id discord.MessageID, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id].Content = content
}

func (f *fakePlatform) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakePlatform) record(op, detail string) error {
	f.calls = append(f.calls, op+" "+detail)
	return f.fail[op]
}

// takeCalls returns the recorded calls and clears the log.
func (f *fakePlatform) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

// ownReactions returns the emoji the bot currently has on a message.
func (f *fakePlatform) ownReactions(id discord.MessageID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.messages[id].Reactions {
		if r.Me {
			out = append(out, emoji.FromReaction(r.Emoji).String())
		}
	}
	return out
}

func toDiscordEmoji(e emoji.Emoji) discord.Emoji {
	if e.IsCustom() {
		return discord.Emoji{ID: e.ID(), Name: e.Name()}
	}
	return discord.Emoji{Name: e.Name()}
}

func (f *fakePlatform) Message(_ context.Context, channelID discord.ChannelID, messageID discord.MessageID) (*discord.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("message", messageID.String()); err != nil {
		return nil, err
	}
	msg, ok := f.messages[messageID]
	if !ok || msg.ChannelID != channelID {
		return nil, errNotFound
	}
	cp := *msg
	cp.Reactions = append([]discord.Reaction(nil), msg.Reactions...)
	return &cp, nil
}

func (f *fakePlatform) Member(_ context.Context, _ discord.GuildID, userID discord.UserID) (*discord.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("member", userID.String()); err != nil {
		return nil, err
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, errNotFound
	}
	return m, nil
}

func (f *fakePlatform) AddRole(_ context.Context, _ discord.GuildID, userID discord.UserID, roleID discord.RoleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("add_role", fmt.Sprintf("%s %s", userID, roleID))
}

func (f *fakePlatform) RemoveRole(_ context.Context, _ discord.GuildID, userID discord.UserID, roleID discord.RoleID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("remove_role", fmt.Sprintf("%s %s", userID, roleID))
}

func (f *fakePlatform) DeleteUserReaction(_ context.Context, _ discord.ChannelID, _ discord.MessageID, userID discord.UserID, e emoji.Emoji) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("delete_reaction", fmt.Sprintf("%s %s", userID, e))
}

func (f *fakePlatform) React(_ context.Context, _ discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("react", e.String()); err != nil {
		return err
	}
	msg := f.messages[messageID]
	for i, r := range msg.Reactions {
		if emoji.FromReaction(r.Emoji).Equal(e) {
			msg.Reactions[i].Me = true
			msg.Reactions[i].Count++
			return nil
		}
	}
	msg.Reactions = append(msg.Reactions, discord.Reaction{Count: 1, Me: true, Emoji: toDiscordEmoji(e)})
	return nil
}

func (f *fakePlatform) Unreact(_ context.Context, _ discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("unreact", e.String()); err != nil {
		return err
	}
	msg := f.messages[messageID]
	kept := msg.Reactions[:0]
	for _, r := range msg.Reactions {
		if r.Me && emoji.FromReaction(r.Emoji).Equal(e) {
			r.Me = false
			r.Count--
		}
		if r.Count > 0 {
			kept = append(kept, r)
		}
	}
	msg.Reactions = kept
	return nil
}
