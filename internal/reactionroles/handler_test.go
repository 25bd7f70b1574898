// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
	"github.com/tomtom215/rolekeeper/internal/persistent"
)

const (
	testGuild discord.GuildID = 1
	testUser  discord.UserID  = 42
	testBot   discord.UserID  = 7
)

type handlerFixture struct {
	handler  *Handler
	platform *fakePlatform
	store    *persistent.Store[Registry]
	path     string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reaction_roles.json")
	store, err := persistent.Open[Registry](persistent.NewFileBackend(path),
		persistent.WithName("reaction_roles"),
		persistent.WithFailureHandler(func(err error) { t.Errorf("store write failed: %v", err) }))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f := newFakePlatform()
	f.addMember(testUser, false)
	f.addMember(testBot, true)

	return &handlerFixture{
		handler:  NewHandler(store, f),
		platform: f,
		store:    store,
		path:     path,
	}
}

func (fx *handlerFixture) register(t *testing.T, content string) {
	t.Helper()
	fx.platform.addMessage(testChannel, testMessage, content)
	if _, _, err := fx.handler.RegisterSelector(context.Background(), testChannel, testMessage); err != nil {
		t.Fatalf("RegisterSelector() error = %v", err)
	}
	fx.platform.takeCalls()
}

func reaction(user discord.UserID, e string) Reaction {
	parsed, _ := emoji.Parse(e)
	return Reaction{
		GuildID:   testGuild,
		ChannelID: testChannel,
		MessageID: testMessage,
		UserID:    user,
		Emoji:     parsed,
	}
}

func TestHandlerEndToEnd(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	ctx := context.Background()
	fx.platform.addMessage(testChannel, testMessage, "<@&10> 🔴\n<@&20> 🔵")

	sel, o, err := fx.handler.RegisterSelector(ctx, testChannel, testMessage)
	if err != nil {
		t.Fatalf("RegisterSelector() error = %v", err)
	}
	if o.Status != outcome.Applied || sel.Len() != 2 {
		t.Fatalf("RegisterSelector() = %d bindings, %v", sel.Len(), o.Status)
	}
	if diff := cmp.Diff([]string{"🔴", "🔵"}, sorted(fx.platform.ownReactions(testMessage))); diff != "" {
		t.Fatalf("bot reactions after register (-want +got):\n%s", diff)
	}
	fx.platform.takeCalls()

	steps := []struct {
		name   string
		run    func() outcome.Outcome
		status outcome.Status
		calls  []string
	}{
		{
			name:   "react red grants role 10",
			run:    func() outcome.Outcome { return fx.handler.ReactionAdded(ctx, reaction(testUser, "🔴")) },
			status: outcome.Applied,
			calls:  []string{"member 42", "add_role 42 10"},
		},
		{
			name:   "remove red revokes role 10",
			run:    func() outcome.Outcome { return fx.handler.ReactionRemoved(ctx, reaction(testUser, "🔴")) },
			status: outcome.Applied,
			calls:  []string{"remove_role 42 10"},
		},
		{
			name:   "unmapped star is deleted",
			run:    func() outcome.Outcome { return fx.handler.ReactionAdded(ctx, reaction(testUser, "⭐")) },
			status: outcome.Applied,
			calls:  []string{"delete_reaction 42 ⭐"},
		},
		{
			name:   "removing unmapped star does nothing",
			run:    func() outcome.Outcome { return fx.handler.ReactionRemoved(ctx, reaction(testUser, "⭐")) },
			status: outcome.Skipped,
			calls:  nil,
		},
	}

	for _, step := range steps {
		got := step.run()
		if got.Status != step.status {
			t.Errorf("%s: status = %v (%s), want %v", step.name, got.Status, got.Reason, step.status)
		}
		if diff := cmp.Diff(step.calls, fx.platform.takeCalls()); diff != "" {
			t.Errorf("%s: calls mismatch (-want +got):\n%s", step.name, diff)
		}
	}
}

func TestReactionAddedUsesGatewayMember(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴")

	r := reaction(testUser, "🔴")
	r.Member = &discord.Member{User: discord.User{ID: testUser}}
	fx.handler.ReactionAdded(context.Background(), r)

	if diff := cmp.Diff([]string{"add_role 42 10"}, fx.platform.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestReactionAddedSkips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *Reaction)
		reason string
		calls  []string
	}{
		{
			name:   "bot member",
			mutate: func(r *Reaction) { r.UserID = testBot },
			reason: "bot_member",
			calls:  []string{"member 7"},
		},
		{
			name:   "not a selector",
			mutate: func(r *Reaction) { r.MessageID = 999 },
			reason: "not_a_selector",
		},
		{
			name:   "direct message",
			mutate: func(r *Reaction) { r.GuildID = 0 },
			reason: "not_in_guild",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newHandlerFixture(t)
			fx.register(t, "<@&10> 🔴")

			r := reaction(testUser, "🔴")
			tt.mutate(&r)
			o := fx.handler.ReactionAdded(context.Background(), r)

			if o.Status != outcome.Skipped || o.Reason != tt.reason {
				t.Errorf("outcome = %v %q, want skipped %q", o.Status, o.Reason, tt.reason)
			}
			if diff := cmp.Diff(tt.calls, fx.platform.takeCalls()); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReactionPlatformFailuresDegrade(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴")
	boom := errors.New("missing permissions")
	fx.platform.failOn("add_role", boom)
	fx.platform.failOn("remove_role", boom)

	added := fx.handler.ReactionAdded(context.Background(), reaction(testUser, "🔴"))
	if added.Reason != "grant_failed" || !errors.Is(added.Err(), boom) {
		t.Errorf("ReactionAdded() = %+v, want degraded grant_failed", added)
	}

	removed := fx.handler.ReactionRemoved(context.Background(), reaction(testUser, "🔴"))
	if removed.Reason != "revoke_failed" || !removed.Degraded() {
		t.Errorf("ReactionRemoved() = %+v, want degraded revoke_failed", removed)
	}
}

func TestMessageDeleted(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴")
	ctx := context.Background()

	if o := fx.handler.MessageDeleted(ctx, testMessage); o.Status != outcome.Applied {
		t.Fatalf("MessageDeleted() status = %v, want applied", o.Status)
	}
	if fx.handler.IsSelector(testMessage) {
		t.Fatal("deleted message is still registered")
	}
	if o := fx.handler.MessageDeleted(ctx, testMessage); o.Status != outcome.Skipped {
		t.Errorf("second MessageDeleted() status = %v, want skipped", o.Status)
	}
	if o := fx.handler.ReactionAdded(ctx, reaction(testUser, "🔴")); o.Reason != "not_a_selector" {
		t.Errorf("reaction on deleted selector = %q, want not_a_selector", o.Reason)
	}
	if calls := fx.platform.takeCalls(); len(calls) != 0 {
		t.Errorf("unexpected platform calls: %v", calls)
	}
}

func TestMessageUpdated(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴\n<@&20> 🔵")
	ctx := context.Background()

	fx.platform.setContent(testMessage, "<@&10> 🔴\n<@&30> 🟢")
	o := fx.handler.MessageUpdated(ctx, testChannel, testMessage)
	if o.Status != outcome.Applied {
		t.Fatalf("MessageUpdated() status = %v (%s), want applied", o.Status, o.Reason)
	}

	want := []string{"message 200", "unreact 🔵", "react 🟢"}
	if diff := cmp.Diff(want, fx.platform.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	got := persistent.Read(fx.store, func(reg *Registry) Selector {
		s, _ := reg.Selector(testMessage)
		return s
	})
	if !got.Equal(Parse("<@&10> 🔴\n<@&30> 🟢")) {
		t.Errorf("stored selector = %q", got.Render())
	}

	if o := fx.handler.ReactionAdded(ctx, reaction(testUser, "🟢")); o.Reason != "granted" {
		t.Errorf("reaction on new emoji = %q, want granted", o.Reason)
	}
}

func TestMessageUpdatedIgnoresOtherMessages(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.platform.addMessage(testChannel, 300, "<@&10> 🔴")

	o := fx.handler.MessageUpdated(context.Background(), testChannel, 300)
	if o.Status != outcome.Skipped {
		t.Errorf("status = %v, want skipped", o.Status)
	}
	if calls := fx.platform.takeCalls(); len(calls) != 0 {
		t.Errorf("unregistered message must not be fetched, got %v", calls)
	}
}

func TestRegisterSelectorUnknownMessage(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	_, _, err := fx.handler.RegisterSelector(context.Background(), testChannel, 404)
	if !errors.Is(err, errNotFound) {
		t.Errorf("RegisterSelector() error = %v, want %v", err, errNotFound)
	}
	if fx.handler.IsSelector(404) {
		t.Error("failed registration must not create an entry")
	}
}

func TestUnregisterSelector(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴\n<@&20> 🔵")
	ctx := context.Background()

	removed, o := fx.handler.UnregisterSelector(ctx, testChannel, testMessage)
	if !removed || o.Status != outcome.Applied {
		t.Fatalf("UnregisterSelector() = %v, %v", removed, o.Status)
	}
	if own := fx.platform.ownReactions(testMessage); len(own) != 0 {
		t.Errorf("bot reactions left after unregister: %v", own)
	}

	removed, _ = fx.handler.UnregisterSelector(ctx, testChannel, testMessage)
	if removed {
		t.Error("second UnregisterSelector() reported removal")
	}
}

func TestRegistryPersists(t *testing.T) {
	t.Parallel()

	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴\n<@&20> <:party:555>")

	reopened, err := persistent.Open[Registry](persistent.NewFileBackend(fx.path))
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got := persistent.Read(reopened, func(reg *Registry) Registry {
		return Registry{Selectors: map[discord.MessageID]Selector{testMessage: reg.Selectors[testMessage].Clone()}}
	})
	want := Registry{Selectors: map[discord.MessageID]Selector{
		testMessage: Parse("<@&10> 🔴\n<@&20> <:party:555>"),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reopened registry mismatch (-want +got):\n%s", diff)
	}
}

// Not parallel: it reads global counters.
func TestUnmappedReactionMetrics(t *testing.T) {
	fx := newHandlerFixture(t)
	fx.register(t, "<@&10> 🔴")
	fx.platform.takeCalls()

	unmapped := metrics.Events.WithLabelValues("unmapped_reaction", "applied")
	failed := metrics.Events.WithLabelValues("unmapped_reaction", "degraded")
	reconcileOK := metrics.ReconcileCalls.WithLabelValues("delete_user_reaction", "ok")
	beforeUnmapped := testutil.ToFloat64(unmapped)
	beforeFailed := testutil.ToFloat64(failed)
	beforeReconcile := testutil.ToFloat64(reconcileOK)

	o := fx.handler.ReactionAdded(context.Background(), reaction(testUser, "🔵"))
	if o.Reason != "unmapped_reaction_removed" {
		t.Fatalf("ReactionAdded() = %+v, want unmapped_reaction_removed", o)
	}
	if diff := cmp.Diff([]string{"delete_reaction 42 🔵"}, fx.platform.takeCalls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}

	fx.platform.failOn("delete_reaction", errors.New("missing permissions"))
	if o := fx.handler.ReactionAdded(context.Background(), reaction(testUser, "🔵")); o.Reason != "delete_reaction_failed" {
		t.Errorf("ReactionAdded() = %+v, want delete_reaction_failed", o)
	}

	if got := testutil.ToFloat64(unmapped) - beforeUnmapped; got != 1 {
		t.Errorf("applied unmapped_reaction events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - beforeFailed; got != 1 {
		t.Errorf("degraded unmapped_reaction events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reconcileOK) - beforeReconcile; got != 0 {
		t.Errorf("user reaction removal counted as %v reconcile calls, want 0", got)
	}
}
