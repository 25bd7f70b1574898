// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"sort"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rolekeeper/internal/emoji"
	"github.com/tomtom215/rolekeeper/internal/persistent"
)

// Registry is the persisted set of selector messages.
type Registry struct {
	Selectors map[discord.MessageID]Selector
}

type registryDocument struct {
	Selectors map[string]Selector `json:"selectors,omitempty"`
}

// MarshalJSON encodes the registry with message IDs as decimal object keys.
func (r Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(registryDocument{Selectors: persistent.StringKeys(r.Selectors)})
}

// UnmarshalJSON decodes a registry written by MarshalJSON.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var doc registryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	selectors, err := persistent.ParseKeys[discord.MessageID](doc.Selectors)
	if err != nil {
		return err
	}
	r.Selectors = selectors
	return nil
}

// Put registers or replaces the selector for a message.
func (r *Registry) Put(id discord.MessageID, s Selector) {
	if r.Selectors == nil {
		r.Selectors = make(map[discord.MessageID]Selector)
	}
	r.Selectors[id] = s.Clone()
}

// Remove unregisters a message and reports whether it was registered.
func (r *Registry) Remove(id discord.MessageID) bool {
	if _, ok := r.Selectors[id]; !ok {
		return false
	}
	delete(r.Selectors, id)
	return true
}

// Has reports whether the message is a registered selector.
func (r *Registry) Has(id discord.MessageID) bool {
	_, ok := r.Selectors[id]
	return ok
}

// Selector returns an independent copy of a message's selector.
func (r *Registry) Selector(id discord.MessageID) (Selector, bool) {
	s, ok := r.Selectors[id]
	if !ok {
		return Selector{}, false
	}
	return s.Clone(), true
}

// Lookup returns the role bound to an emoji on a message. registered reports
// whether the message is a selector at all.
func (r *Registry) Lookup(id discord.MessageID, e emoji.Emoji) (role discord.RoleID, registered, mapped bool) {
	s, ok := r.Selectors[id]
	if !ok {
		return 0, false, false
	}
	role, mapped = s.Role(e)
	return role, true, mapped
}

// MessageIDs returns the registered message IDs in ascending order.
func (r *Registry) MessageIDs() []discord.MessageID {
	ids := make([]discord.MessageID, 0, len(r.Selectors))
	for id := range r.Selectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
