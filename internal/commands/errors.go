// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package commands

import "fmt"

// Kind classifies a CommandError.
type Kind int

const (
	// KindInvalidCommand is an unrecognized token sequence.
	KindInvalidCommand Kind = iota
	// KindNotAllowed is a command issued by a non-administrator or outside a guild.
	KindNotAllowed
	// KindInvalidMessageReference is a message id that cannot be fetched from the channel.
	KindInvalidMessageReference
	// KindMalformedArgument is an argument that does not parse as an id.
	KindMalformedArgument
	// KindDiscord is a platform failure while running the command.
	KindDiscord
)

// CommandError is a user-facing command failure. Error returns the text
// replied to the invoking user; the underlying cause, if any, is kept for
// logs and errors.Is.
type CommandError struct {
	Kind     Kind
	Argument string
	Err      error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case KindInvalidCommand:
		return "Invalid command!"
	case KindNotAllowed:
		return "You are not allowed to do this!"
	case KindInvalidMessageReference:
		return "Invalid message reference! Are you sure it's in this channel?"
	case KindMalformedArgument:
		return fmt.Sprintf("Malformed argument: %s", e.Argument)
	default:
		return "Discord error!"
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is matches any CommandError of the same kind.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is. Their Error text equals the reply text.
var (
	ErrInvalidCommand          = &CommandError{Kind: KindInvalidCommand}
	ErrNotAllowed              = &CommandError{Kind: KindNotAllowed}
	ErrInvalidMessageReference = &CommandError{Kind: KindInvalidMessageReference}
	ErrMalformedArgument       = &CommandError{Kind: KindMalformedArgument}
	ErrDiscord                 = &CommandError{Kind: KindDiscord}
)

func malformed(arg string) error {
	return &CommandError{Kind: KindMalformedArgument, Argument: arg}
}

func discordError(err error) error {
	return &CommandError{Kind: KindDiscord, Err: err}
}
