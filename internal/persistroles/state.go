// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package persistroles

import (
	"slices"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/goccy/go-json"

	"github.com/tomtom215/rolekeeper/internal/persistent"
)

// State is the persisted document of tracked roles and member snapshots.
type State struct {
	Guilds map[discord.GuildID]*GuildState
}

// GuildState holds one guild's tracked roles and the tracked roles each
// member held when last seen.
//
// Every role in a snapshot is tracked, and no snapshot is empty.
type GuildState struct {
	Roles []discord.RoleID
	Users map[discord.UserID][]discord.RoleID
}

// Documents key guilds and users by decimal ID strings.
type (
	stateDocument struct {
		Guilds map[string]*GuildState `json:"guilds,omitempty"`
	}
	guildDocument struct {
		Roles []discord.RoleID            `json:"roles,omitempty"`
		Users map[string][]discord.RoleID `json:"users,omitempty"`
	}
)

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateDocument{Guilds: persistent.StringKeys(s.Guilds)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	guilds, err := persistent.ParseKeys[discord.GuildID](doc.Guilds)
	if err != nil {
		return err
	}
	s.Guilds = guilds
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g GuildState) MarshalJSON() ([]byte, error) {
	return json.Marshal(guildDocument{Roles: g.Roles, Users: persistent.StringKeys(g.Users)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *GuildState) UnmarshalJSON(data []byte) error {
	var doc guildDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	users, err := persistent.ParseKeys[discord.UserID](doc.Users)
	if err != nil {
		return err
	}
	*g = GuildState{Roles: doc.Roles, Users: users}
	return nil
}

func (s *State) guild(id discord.GuildID) *GuildState {
	return s.Guilds[id]
}

func (s *State) guildOrCreate(id discord.GuildID) *GuildState {
	if s.Guilds == nil {
		s.Guilds = make(map[discord.GuildID]*GuildState)
	}
	g, ok := s.Guilds[id]
	if !ok {
		g = &GuildState{}
		s.Guilds[id] = g
	}
	return g
}

// dropIfEmpty removes a guild entry with nothing left in it.
func (s *State) dropIfEmpty(id discord.GuildID) {
	if g, ok := s.Guilds[id]; ok && len(g.Roles) == 0 && len(g.Users) == 0 {
		delete(s.Guilds, id)
	}
}

// Track starts tracking a role and reports whether it was newly added.
func (s *State) Track(guildID discord.GuildID, roleID discord.RoleID) bool {
	g := s.guildOrCreate(guildID)
	i, found := slices.BinarySearch(g.Roles, roleID)
	if found {
		return false
	}
	g.Roles = slices.Insert(g.Roles, i, roleID)
	return true
}

// Untrack stops tracking a role, strips it from every snapshot and drops
// snapshots left empty. It reports whether the role was tracked.
func (s *State) Untrack(guildID discord.GuildID, roleID discord.RoleID) bool {
	g := s.guild(guildID)
	if g == nil {
		return false
	}
	i, found := slices.BinarySearch(g.Roles, roleID)
	if !found {
		return false
	}
	g.Roles = slices.Delete(g.Roles, i, i+1)

	for userID, roles := range g.Users {
		roles = slices.DeleteFunc(roles, func(r discord.RoleID) bool { return r == roleID })
		if len(roles) == 0 {
			delete(g.Users, userID)
			continue
		}
		g.Users[userID] = roles
	}

	s.dropIfEmpty(guildID)
	return true
}

// IsTracked reports whether a role is tracked in a guild.
func (s *State) IsTracked(guildID discord.GuildID, roleID discord.RoleID) bool {
	g := s.guild(guildID)
	if g == nil {
		return false
	}
	_, found := slices.BinarySearch(g.Roles, roleID)
	return found
}

// TrackedRoles returns a copy of a guild's tracked roles in ascending order.
func (s *State) TrackedRoles(guildID discord.GuildID) []discord.RoleID {
	g := s.guild(guildID)
	if g == nil {
		return nil
	}
	return slices.Clone(g.Roles)
}

// Snapshot returns a copy of the tracked roles a member held when last seen.
func (s *State) Snapshot(guildID discord.GuildID, userID discord.UserID) []discord.RoleID {
	g := s.guild(guildID)
	if g == nil {
		return nil
	}
	return slices.Clone(g.Users[userID])
}

// SetSnapshot replaces a member's snapshot with the tracked subset of roles.
// An empty subset removes the snapshot. It reports whether anything changed.
func (s *State) SetSnapshot(guildID discord.GuildID, userID discord.UserID, roles []discord.RoleID) bool {
	g := s.guild(guildID)
	if g == nil {
		return false
	}

	var kept []discord.RoleID
	for _, r := range roles {
		if _, found := slices.BinarySearch(g.Roles, r); found && !slices.Contains(kept, r) {
			kept = append(kept, r)
		}
	}
	slices.Sort(kept)

	before, had := g.Users[userID]
	if len(kept) == 0 {
		if !had {
			return false
		}
		delete(g.Users, userID)
		s.dropIfEmpty(guildID)
		return true
	}

	sortedBefore := slices.Clone(before)
	slices.Sort(sortedBefore)
	if had && slices.Equal(sortedBefore, kept) {
		return false
	}
	if g.Users == nil {
		g.Users = make(map[discord.UserID][]discord.RoleID)
	}
	g.Users[userID] = kept
	return true
}

// AddHolders appends a tracked role to each listed member's snapshot.
// It returns how many snapshots changed; an untracked role changes nothing.
func (s *State) AddHolders(guildID discord.GuildID, roleID discord.RoleID, userIDs []discord.UserID) int {
	if !s.IsTracked(guildID, roleID) {
		return 0
	}
	g := s.guild(guildID)
	if g.Users == nil {
		g.Users = make(map[discord.UserID][]discord.RoleID)
	}

	changed := 0
	for _, userID := range userIDs {
		roles := g.Users[userID]
		if slices.Contains(roles, roleID) {
			continue
		}
		roles = append(slices.Clone(roles), roleID)
		slices.Sort(roles)
		g.Users[userID] = roles
		changed++
	}
	return changed
}
