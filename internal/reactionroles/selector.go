// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package reactionroles

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/goccy/go-json"
	"github.com/rivo/uniseg"

	"github.com/tomtom215/rolekeeper/internal/emoji"
)

// rolePattern matches a role mention such as <@&1234>.
var rolePattern = regexp.MustCompile(`<@&(\d+)>`)

// Binding pairs one emoji with the role it grants.
type Binding struct {
	Emoji emoji.Emoji    `json:"emoji"`
	Role  discord.RoleID `json:"role"`
}

// Selector maps emoji to roles. Each emoji maps to at most one role.
// Lookups ignore order; Bindings returns the order in which emoji were
// first inserted, which for parsed selectors is message line order.
type Selector struct {
	bindings []Binding
	index    map[string]int
}

// Set binds e to role, replacing any previous binding for e in place.
func (s *Selector) Set(e emoji.Emoji, role discord.RoleID) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[e.Key()]; ok {
		s.bindings[i].Role = role
		return
	}
	s.index[e.Key()] = len(s.bindings)
	s.bindings = append(s.bindings, Binding{Emoji: e, Role: role})
}

// Role returns the role bound to e.
func (s Selector) Role(e emoji.Emoji) (discord.RoleID, bool) {
	i, ok := s.index[e.Key()]
	if !ok {
		return 0, false
	}
	return s.bindings[i].Role, true
}

// Contains reports whether e is bound to a role.
func (s Selector) Contains(e emoji.Emoji) bool {
	_, ok := s.index[e.Key()]
	return ok
}

// Len returns the number of bindings.
func (s Selector) Len() int {
	return len(s.bindings)
}

// Bindings returns a copy of the bindings in insertion order.
func (s Selector) Bindings() []Binding {
	return append([]Binding(nil), s.bindings...)
}

// Clone returns an independent copy.
func (s Selector) Clone() Selector {
	var out Selector
	for _, b := range s.bindings {
		out.Set(b.Emoji, b.Role)
	}
	return out
}

// Equal reports whether both selectors bind the same emoji to the same roles.
// Binding order is not significant.
func (s Selector) Equal(other Selector) bool {
	if len(s.bindings) != len(other.bindings) {
		return false
	}
	for _, b := range s.bindings {
		role, ok := other.Role(b.Emoji)
		if !ok || role != b.Role {
			return false
		}
	}
	return true
}

// Render writes the selector back as message text, one "<@&role> emoji" line
// per binding. Parse(s.Render()) equals s.
func (s Selector) Render() string {
	var sb strings.Builder
	for i, b := range s.bindings {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("<@&")
		sb.WriteString(b.Role.String())
		sb.WriteString("> ")
		sb.WriteString(b.Emoji.String())
	}
	return sb.String()
}

// MarshalJSON encodes the selector as an ordered list of bindings.
func (s Selector) MarshalJSON() ([]byte, error) {
	if s.bindings == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.bindings)
}

// UnmarshalJSON decodes a list of bindings.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var bindings []Binding
	if err := json.Unmarshal(data, &bindings); err != nil {
		return err
	}
	*s = Selector{}
	for _, b := range bindings {
		s.Set(b.Emoji, b.Role)
	}
	return nil
}

// Parse builds a selector from message text.
//
// Each line contributes at most one binding: the first role mention on the
// line paired with the first emoji on the line. Custom emoji mentions take
// priority over unicode emoji. Lines lacking either are ignored, extra
// tokens are ignored, and a later line binding an emoji already seen
// overrides the earlier role.
func Parse(text string) Selector {
	var s Selector
	for _, line := range strings.Split(text, "\n") {
		role, ok := firstRole(line)
		if !ok {
			continue
		}
		e, ok := firstEmoji(line)
		if !ok {
			continue
		}
		s.Set(e, role)
	}
	return s
}

func firstRole(line string) (discord.RoleID, bool) {
	for _, m := range rolePattern.FindAllStringSubmatch(line, -1) {
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err == nil && id != 0 {
			return discord.RoleID(id), true
		}
	}
	return 0, false
}

func firstEmoji(line string) (emoji.Emoji, bool) {
	if custom := emoji.FindCustom(line); len(custom) > 0 {
		return custom[0], true
	}

	g := uniseg.NewGraphemes(line)
	for g.Next() {
		if isEmojiCluster(g.Runes()) {
			return emoji.Unicode(g.Str()), true
		}
	}
	return emoji.Emoji{}, false
}

// isEmojiCluster reports whether a grapheme cluster renders as an emoji.
// A bare digit is never an emoji even though digits are keycap bases.
func isEmojiCluster(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes[1:] {
		if r == combiningKeycap {
			return true
		}
	}
	first := runes[0]
	if unicode.IsDigit(first) {
		return false
	}
	return unicode.Is(pictographic, first) || unicode.Is(regionalIndicator, first)
}

const combiningKeycap = '⃣'

var regionalIndicator = &unicode.RangeTable{
	R32: []unicode.Range32{{Lo: 0x1F1E6, Hi: 0x1F1FF, Stride: 1}},
}

// pictographic holds the non-ASCII code points with the Unicode Emoji
// property, as Discord accepts them for reactions. Regional indicators are
// matched separately. Symbols and Pictographs Extended-A is taken whole so
// newer emoji in it are recognized.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00A9, Hi: 0x00A9, Stride: 1},
		{Lo: 0x00AE, Hi: 0x00AE, Stride: 1},
		{Lo: 0x203C, Hi: 0x203C, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x2199, Stride: 1},
		{Lo: 0x21A9, Hi: 0x21AA, Stride: 1},
		{Lo: 0x231A, Hi: 0x231B, Stride: 1},
		{Lo: 0x2328, Hi: 0x2328, Stride: 1},
		{Lo: 0x23CF, Hi: 0x23CF, Stride: 1},
		{Lo: 0x23E9, Hi: 0x23F3, Stride: 1},
		{Lo: 0x23F8, Hi: 0x23FA, Stride: 1},
		{Lo: 0x24C2, Hi: 0x24C2, Stride: 1},
		{Lo: 0x25AA, Hi: 0x25AB, Stride: 1},
		{Lo: 0x25B6, Hi: 0x25B6, Stride: 1},
		{Lo: 0x25C0, Hi: 0x25C0, Stride: 1},
		{Lo: 0x25FB, Hi: 0x25FE, Stride: 1},
		{Lo: 0x2600, Hi: 0x2604, Stride: 1},
		{Lo: 0x260E, Hi: 0x260E, Stride: 1},
		{Lo: 0x2611, Hi: 0x2611, Stride: 1},
		{Lo: 0x2614, Hi: 0x2615, Stride: 1},
		{Lo: 0x2618, Hi: 0x2618, Stride: 1},
		{Lo: 0x261D, Hi: 0x261D, Stride: 1},
		{Lo: 0x2620, Hi: 0x2620, Stride: 1},
		{Lo: 0x2622, Hi: 0x2623, Stride: 1},
		{Lo: 0x2626, Hi: 0x2626, Stride: 1},
		{Lo: 0x262A, Hi: 0x262A, Stride: 1},
		{Lo: 0x262E, Hi: 0x262F, Stride: 1},
		{Lo: 0x2638, Hi: 0x263A, Stride: 1},
		{Lo: 0x2640, Hi: 0x2640, Stride: 1},
		{Lo: 0x2642, Hi: 0x2642, Stride: 1},
		{Lo: 0x2648, Hi: 0x2653, Stride: 1},
		{Lo: 0x265F, Hi: 0x2660, Stride: 1},
		{Lo: 0x2663, Hi: 0x2663, Stride: 1},
		{Lo: 0x2665, Hi: 0x2666, Stride: 1},
		{Lo: 0x2668, Hi: 0x2668, Stride: 1},
		{Lo: 0x267B, Hi: 0x267B, Stride: 1},
		{Lo: 0x267E, Hi: 0x267F, Stride: 1},
		{Lo: 0x2692, Hi: 0x2697, Stride: 1},
		{Lo: 0x2699, Hi: 0x2699, Stride: 1},
		{Lo: 0x269B, Hi: 0x269C, Stride: 1},
		{Lo: 0x26A0, Hi: 0x26A1, Stride: 1},
		{Lo: 0x26A7, Hi: 0x26A7, Stride: 1},
		{Lo: 0x26AA, Hi: 0x26AB, Stride: 1},
		{Lo: 0x26B0, Hi: 0x26B1, Stride: 1},
		{Lo: 0x26BD, Hi: 0x26BE, Stride: 1},
		{Lo: 0x26C4, Hi: 0x26C5, Stride: 1},
		{Lo: 0x26C8, Hi: 0x26C8, Stride: 1},
		{Lo: 0x26CE, Hi: 0x26CF, Stride: 1},
		{Lo: 0x26D1, Hi: 0x26D1, Stride: 1},
		{Lo: 0x26D3, Hi: 0x26D4, Stride: 1},
		{Lo: 0x26E9, Hi: 0x26EA, Stride: 1},
		{Lo: 0x26F0, Hi: 0x26F5, Stride: 1},
		{Lo: 0x26F7, Hi: 0x26FA, Stride: 1},
		{Lo: 0x26FD, Hi: 0x26FD, Stride: 1},
		{Lo: 0x2702, Hi: 0x2702, Stride: 1},
		{Lo: 0x2705, Hi: 0x2705, Stride: 1},
		{Lo: 0x2708, Hi: 0x270D, Stride: 1},
		{Lo: 0x270F, Hi: 0x270F, Stride: 1},
		{Lo: 0x2712, Hi: 0x2712, Stride: 1},
		{Lo: 0x2714, Hi: 0x2714, Stride: 1},
		{Lo: 0x2716, Hi: 0x2716, Stride: 1},
		{Lo: 0x271D, Hi: 0x271D, Stride: 1},
		{Lo: 0x2721, Hi: 0x2721, Stride: 1},
		{Lo: 0x2728, Hi: 0x2728, Stride: 1},
		{Lo: 0x2733, Hi: 0x2734, Stride: 1},
		{Lo: 0x2744, Hi: 0x2744, Stride: 1},
		{Lo: 0x2747, Hi: 0x2747, Stride: 1},
		{Lo: 0x274C, Hi: 0x274C, Stride: 1},
		{Lo: 0x274E, Hi: 0x274E, Stride: 1},
		{Lo: 0x2753, Hi: 0x2755, Stride: 1},
		{Lo: 0x2757, Hi: 0x2757, Stride: 1},
		{Lo: 0x2763, Hi: 0x2764, Stride: 1},
		{Lo: 0x2795, Hi: 0x2797, Stride: 1},
		{Lo: 0x27A1, Hi: 0x27A1, Stride: 1},
		{Lo: 0x27B0, Hi: 0x27B0, Stride: 1},
		{Lo: 0x27BF, Hi: 0x27BF, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2B05, Hi: 0x2B07, Stride: 1},
		{Lo: 0x2B1B, Hi: 0x2B1C, Stride: 1},
		{Lo: 0x2B50, Hi: 0x2B50, Stride: 1},
		{Lo: 0x2B55, Hi: 0x2B55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303D, Hi: 0x303D, Stride: 1},
		{Lo: 0x3297, Hi: 0x3297, Stride: 1},
		{Lo: 0x3299, Hi: 0x3299, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F004, Hi: 0x1F004, Stride: 1},
		{Lo: 0x1F0CF, Hi: 0x1F0CF, Stride: 1},
		{Lo: 0x1F170, Hi: 0x1F171, Stride: 1},
		{Lo: 0x1F17E, Hi: 0x1F17F, Stride: 1},
		{Lo: 0x1F18E, Hi: 0x1F18E, Stride: 1},
		{Lo: 0x1F191, Hi: 0x1F19A, Stride: 1},
		{Lo: 0x1F201, Hi: 0x1F202, Stride: 1},
		{Lo: 0x1F21A, Hi: 0x1F21A, Stride: 1},
		{Lo: 0x1F22F, Hi: 0x1F22F, Stride: 1},
		{Lo: 0x1F232, Hi: 0x1F23A, Stride: 1},
		{Lo: 0x1F250, Hi: 0x1F251, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1F321, Stride: 1},
		{Lo: 0x1F324, Hi: 0x1F393, Stride: 1},
		{Lo: 0x1F396, Hi: 0x1F397, Stride: 1},
		{Lo: 0x1F399, Hi: 0x1F39B, Stride: 1},
		{Lo: 0x1F39E, Hi: 0x1F3F0, Stride: 1},
		{Lo: 0x1F3F3, Hi: 0x1F3F5, Stride: 1},
		{Lo: 0x1F3F7, Hi: 0x1F4FD, Stride: 1},
		{Lo: 0x1F4FF, Hi: 0x1F53D, Stride: 1},
		{Lo: 0x1F549, Hi: 0x1F54E, Stride: 1},
		{Lo: 0x1F550, Hi: 0x1F567, Stride: 1},
		{Lo: 0x1F56F, Hi: 0x1F570, Stride: 1},
		{Lo: 0x1F573, Hi: 0x1F57A, Stride: 1},
		{Lo: 0x1F587, Hi: 0x1F587, Stride: 1},
		{Lo: 0x1F58A, Hi: 0x1F58D, Stride: 1},
		{Lo: 0x1F590, Hi: 0x1F590, Stride: 1},
		{Lo: 0x1F595, Hi: 0x1F596, Stride: 1},
		{Lo: 0x1F5A4, Hi: 0x1F5A5, Stride: 1},
		{Lo: 0x1F5A8, Hi: 0x1F5A8, Stride: 1},
		{Lo: 0x1F5B1, Hi: 0x1F5B2, Stride: 1},
		{Lo: 0x1F5BC, Hi: 0x1F5BC, Stride: 1},
		{Lo: 0x1F5C2, Hi: 0x1F5C4, Stride: 1},
		{Lo: 0x1F5D1, Hi: 0x1F5D3, Stride: 1},
		{Lo: 0x1F5DC, Hi: 0x1F5DE, Stride: 1},
		{Lo: 0x1F5E1, Hi: 0x1F5E1, Stride: 1},
		{Lo: 0x1F5E3, Hi: 0x1F5E3, Stride: 1},
		{Lo: 0x1F5E8, Hi: 0x1F5E8, Stride: 1},
		{Lo: 0x1F5EF, Hi: 0x1F5EF, Stride: 1},
		{Lo: 0x1F5F3, Hi: 0x1F5F3, Stride: 1},
		{Lo: 0x1F5FA, Hi: 0x1F64F, Stride: 1},
		{Lo: 0x1F680, Hi: 0x1F6C5, Stride: 1},
		{Lo: 0x1F6CB, Hi: 0x1F6D2, Stride: 1},
		{Lo: 0x1F6D5, Hi: 0x1F6D7, Stride: 1},
		{Lo: 0x1F6DC, Hi: 0x1F6E5, Stride: 1},
		{Lo: 0x1F6E9, Hi: 0x1F6E9, Stride: 1},
		{Lo: 0x1F6EB, Hi: 0x1F6EC, Stride: 1},
		{Lo: 0x1F6F0, Hi: 0x1F6F0, Stride: 1},
		{Lo: 0x1F6F3, Hi: 0x1F6FC, Stride: 1},
		{Lo: 0x1F7E0, Hi: 0x1F7EB, Stride: 1},
		{Lo: 0x1F7F0, Hi: 0x1F7F0, Stride: 1},
		{Lo: 0x1F90C, Hi: 0x1F93A, Stride: 1},
		{Lo: 0x1F93C, Hi: 0x1F945, Stride: 1},
		{Lo: 0x1F947, Hi: 0x1F9FF, Stride: 1},
		{Lo: 0x1FA70, Hi: 0x1FAFF, Stride: 1},
	},
	LatinOffset: 2,
}
