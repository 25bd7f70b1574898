// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package emoji normalizes Discord reaction emoji into a single comparable
// identity.
//
// Discord reports a reaction either as a unicode sequence ("🎮") or as a
// custom, image-backed emoji identified by a snowflake and an optional name.
// An Emoji wraps both shapes. Two identities are equal when they carry the
// same unicode sequence or the same custom emoji ID; the display name of a
// custom emoji never takes part in comparison, and a unicode emoji never
// equals a custom one.
//
// Use Key for map keys and Equal for comparisons. The textual form used in
// JSON documents is the message-mention form: the raw sequence for unicode
// emoji and <:name:id> (or <a:name:id>) for custom emoji.
package emoji

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/goccy/go-json"
)

// ErrInvalid is returned when a textual emoji cannot be decoded.
var ErrInvalid = errors.New("invalid emoji")

// customMention matches a custom emoji mention such as <:party:1234> or <a:dance:5678>.
var customMention = regexp.MustCompile(`<(a?):(\w*):(\d+)>`)

// Emoji is an immutable reaction emoji identity.
type Emoji struct {
	unicode  string
	id       discord.EmojiID
	name     string
	animated bool
}

// Unicode returns the identity of a unicode emoji sequence.
func Unicode(sequence string) Emoji {
	return Emoji{unicode: sequence}
}

// Custom returns the identity of a custom emoji. The name is kept for
// rendering and API calls but is ignored by Equal and Key.
func Custom(id discord.EmojiID, name string, animated bool) Emoji {
	return Emoji{id: id, name: name, animated: animated}
}

// FromReaction builds an identity from a reaction payload.
func FromReaction(e discord.Emoji) Emoji {
	if e.ID.IsValid() {
		return Custom(e.ID, e.Name, e.Animated)
	}
	return Unicode(e.Name)
}

// ParseCustom decodes a custom emoji mention (<:name:id> or <a:name:id>).
// The result equals FromReaction applied to the live reaction of the same emoji.
func ParseCustom(mention string) (Emoji, error) {
	m := customMention.FindStringSubmatch(mention)
	if m == nil || m[0] != mention {
		return Emoji{}, fmt.Errorf("%w: %q is not a custom emoji mention", ErrInvalid, mention)
	}
	id, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil || id == 0 {
		return Emoji{}, fmt.Errorf("%w: bad emoji id in %q", ErrInvalid, mention)
	}
	return Custom(discord.EmojiID(id), m[2], m[1] == "a"), nil
}

// FindCustom returns the custom emoji mentions in text, in order of appearance.
func FindCustom(text string) []Emoji {
	var out []Emoji
	for _, mention := range customMention.FindAllString(text, -1) {
		if e, err := ParseCustom(mention); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// IsCustom reports whether the emoji is a custom, image-backed emoji.
func (e Emoji) IsCustom() bool {
	return e.id.IsValid()
}

// IsZero reports whether the emoji carries no identity at all.
func (e Emoji) IsZero() bool {
	return !e.IsCustom() && e.unicode == ""
}

// ID returns the custom emoji ID, or an invalid ID for unicode emoji.
func (e Emoji) ID() discord.EmojiID {
	return e.id
}

// Name returns the custom emoji name, or the sequence for unicode emoji.
func (e Emoji) Name() string {
	if e.IsCustom() {
		return e.name
	}
	return e.unicode
}

// Key returns a value usable as a map key. Keys of a unicode and a custom
// emoji never collide.
func (e Emoji) Key() string {
	if e.IsCustom() {
		return "c:" + e.id.String()
	}
	return "u:" + e.unicode
}

// Equal reports whether both values identify the same emoji.
func (e Emoji) Equal(other Emoji) bool {
	if e.IsCustom() || other.IsCustom() {
		return e.id == other.id
	}
	return e.unicode == other.unicode
}

// APIEmoji converts the identity back into the form the REST API expects
// for reaction endpoints.
func (e Emoji) APIEmoji() discord.APIEmoji {
	if e.IsCustom() {
		return discord.APIEmoji(e.name + ":" + e.id.String())
	}
	return discord.APIEmoji(e.unicode)
}

// String renders the emoji the way it appears in message content.
func (e Emoji) String() string {
	if !e.IsCustom() {
		return e.unicode
	}
	prefix := ""
	if e.animated {
		prefix = "a"
	}
	return fmt.Sprintf("<%s:%s:%s>", prefix, e.name, e.id)
}

// Parse decodes the textual form produced by String.
func Parse(text string) (Emoji, error) {
	if text == "" {
		return Emoji{}, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if customMention.MatchString(text) {
		return ParseCustom(text)
	}
	return Unicode(text), nil
}

// MarshalJSON encodes the emoji as its textual form.
func (e Emoji) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON decodes the textual form.
func (e *Emoji) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
