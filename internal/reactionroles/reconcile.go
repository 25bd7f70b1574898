// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"context"

	"github.com/diamondburned/arikawa/v3/discord"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
	"github.com/tomtom215/rolekeeper/internal/outcome"
)

// ReactionAPI places and removes the bot's own reactions.
type ReactionAPI interface {
	React(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error
	Unreact(ctx context.Context, channelID discord.ChannelID, messageID discord.MessageID, e emoji.Emoji) error
}

// Reconciler makes the bot's reactions on a selector message match the selector.
type Reconciler struct {
	api ReactionAPI
}

// NewReconciler creates a reconciler that calls api.
func NewReconciler(api ReactionAPI) *Reconciler {
	return &Reconciler{api: api}
}

// Reconcile removes the bot's reactions that are not in sel, then adds the
// selector emoji the bot has not placed yet. Calls are best-effort: a failed
// call is logged, recorded in the outcome and does not stop the others.
// A converged message produces no API calls.
func (r *Reconciler) Reconcile(ctx context.Context, sel Selector, msg *discord.Message) outcome.Outcome {
	own := make(map[string]struct{}, len(msg.Reactions))
	var stale []emoji.Emoji
	for _, reaction := range msg.Reactions {
		if !reaction.Me {
			continue
		}
		e := emoji.FromReaction(reaction.Emoji)
		own[e.Key()] = struct{}{}
		if !sel.Contains(e) {
			stale = append(stale, e)
		}
	}

	var missing []emoji.Emoji
	for _, b := range sel.Bindings() {
		if _, ok := own[b.Emoji.Key()]; !ok {
			missing = append(missing, b.Emoji)
		}
	}

	o := outcome.Skip("converged")
	if len(stale) == 0 && len(missing) == 0 {
		return o
	}

	log := logging.Ctx(ctx)
	for _, e := range stale {
		err := r.api.Unreact(ctx, msg.ChannelID, msg.ID, e)
		metrics.RecordReconcileCall("unreact", err)
		if err != nil {
			log.Warn().Err(err).
				Str("message_id", msg.ID.String()).
				Str("emoji", e.String()).
				Msg("Failed to remove stale selector reaction")
			o.Record("unreact_failed", err)
			continue
		}
		o.Merge(outcome.Apply("reconciled"))
	}

	for _, e := range missing {
		err := r.api.React(ctx, msg.ChannelID, msg.ID, e)
		metrics.RecordReconcileCall("react", err)
		if err != nil {
			log.Warn().Err(err).
				Str("message_id", msg.ID.String()).
				Str("emoji", e.String()).
				Msg("Failed to add selector reaction")
			o.Record("react_failed", err)
			continue
		}
		o.Merge(outcome.Apply("reconciled"))
	}

	log.Debug().
		Str("message_id", msg.ID.String()).
		Int("removed", len(stale)).
		Int("added", len(missing)).
		Str("status", o.Status.String()).
		Msg("Selector reactions reconciled")

	return o
}
