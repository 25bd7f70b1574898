// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package outcome describes what an event handler did with one event.
//
// Handlers never panic or return errors for transient platform failures.
// They log them and report a Degraded outcome instead, so callers and tests
// can tell "nothing to do" apart from "tried and partially failed".
package outcome

import (
	"errors"
	"fmt"
)

// Status classifies an Outcome.
type Status int

const (
	// Skipped means the event did not concern any tracked state.
	Skipped Status = iota
	// Applied means every intended change went through.
	Applied
	// Degraded means at least one platform call failed and was dropped.
	Degraded
)

// String returns the status label used in logs and metrics.
func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Applied:
		return "applied"
	case Degraded:
		return "degraded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of handling one event.
type Outcome struct {
	Status Status
	// Reason is a short machine-friendly description, e.g. "not_a_selector".
	Reason string
	// Errs holds every swallowed platform error, in call order.
	Errs []error
}

// Skip returns a Skipped outcome.
func Skip(reason string) Outcome {
	return Outcome{Status: Skipped, Reason: reason}
}

// Apply returns an Applied outcome.
func Apply(reason string) Outcome {
	return Outcome{Status: Applied, Reason: reason}
}

// Degrade returns a Degraded outcome carrying err.
func Degrade(reason string, err error) Outcome {
	return Outcome{Status: Degraded, Reason: reason, Errs: []error{err}}
}

// Record adds err to the outcome, downgrading it to Degraded. A nil err is ignored.
func (o *Outcome) Record(reason string, err error) {
	if err == nil {
		return
	}
	o.Errs = append(o.Errs, err)
	if o.Status != Degraded {
		o.Status = Degraded
		o.Reason = reason
	}
}

// Merge folds other into o. A degraded part degrades the whole; an applied
// part upgrades a skipped whole.
func (o *Outcome) Merge(other Outcome) {
	switch {
	case other.Status == Degraded:
		if o.Status != Degraded {
			o.Reason = other.Reason
		}
		o.Status = Degraded
	case other.Status == Applied && o.Status == Skipped:
		o.Status = Applied
		o.Reason = other.Reason
	}
	o.Errs = append(o.Errs, other.Errs...)
}

// Err joins the recorded errors, or returns nil.
func (o Outcome) Err() error {
	return errors.Join(o.Errs...)
}

// Degraded reports whether any platform call failed.
func (o Outcome) Degraded() bool {
	return o.Status == Degraded
}
