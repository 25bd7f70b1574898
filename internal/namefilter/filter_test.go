// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package namefilter

import (
	"context"
	"errors"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/tomtom215/rolekeeper/internal/outcome"
)

type fakePlatform struct {
	canBan bool
	banErr error
	bans   []discord.UserID
	reason string
}

func (f *fakePlatform) CanBan(context.Context, discord.GuildID) (bool, error) {
	return f.canBan, nil
}

func (f *fakePlatform) Ban(_ context.Context, _ discord.GuildID, userID discord.UserID, reason string) error {
	if f.banErr != nil {
		return f.banErr
	}
	f.bans = append(f.bans, userID)
	f.reason = reason
	return nil
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := New([]string{"ok", "(unclosed"}, &fakePlatform{}); err == nil {
		t.Error("expected an error for an invalid pattern")
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	f, err := New([]string{`(?i)free\s*nitro`, `^discord(app)?\.gg`}, &fakePlatform{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name  string
		match bool
	}{
		{"FREE Nitro giveaway", true},
		{"discord.gg/spam", true},
		{"alice", false},
		{"my discord.gg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, got := f.Match(tt.name); got != tt.match {
				t.Errorf("Match(%q) = %v, want %v", tt.name, got, tt.match)
			}
		})
	}
}

func TestMemberJoined(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		platform *fakePlatform
		reason   string
		banned   bool
	}{
		{"allowed name", "alice", &fakePlatform{canBan: true}, "name_allowed", false},
		{"illegal name", "spambot", &fakePlatform{canBan: true}, "banned", true},
		{"no ban permission", "spambot", &fakePlatform{canBan: false}, "missing_permission", false},
		{"ban fails", "spambot", &fakePlatform{canBan: true, banErr: errors.New("forbidden")}, "ban_failed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := New([]string{"spam"}, tt.platform)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			o := f.MemberJoined(context.Background(), 1, discord.User{ID: 42, Username: tt.username})

			if o.Reason != tt.reason {
				t.Errorf("reason = %q, want %q", o.Reason, tt.reason)
			}
			if got := len(tt.platform.bans) == 1; got != tt.banned {
				t.Errorf("banned = %v, want %v", got, tt.banned)
			}
			if tt.banned && (o.Status != outcome.Applied || tt.platform.reason != BanReason) {
				t.Errorf("ban outcome = %v with reason %q", o.Status, tt.platform.reason)
			}
		})
	}
}
