// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package persistent provides a small durable container for one serializable
// state document.
//
// A Store[T] loads its document once at startup and keeps it in memory.
// Readers take a view under a shared lock; every change goes through Mutate
// (or Update), which compares the document before and after the change and
// writes it back only when it differs. Writes replace the whole document.
//
//	store, err := persistent.Open[Registry](persistent.NewFileBackend("reaction_roles.json"),
//	    persistent.WithName("reaction_roles"))
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to open state")
//	}
//
//	removed := persistent.Mutate(store, func(r *Registry) bool {
//	    return r.Remove(messageID)
//	})
//
// A failed write is treated as fatal by default: callers of Mutate assume the
// change is durable once it returns. Tests can install their own failure
// handler with WithFailureHandler.
//
// The store is not a database. It is meant for a handful of small documents,
// each owned by a single process.
package persistent

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/metrics"
)

// ErrCorrupt is returned by Open when the stored document cannot be decoded.
var ErrCorrupt = errors.New("corrupt state document")

// Store is a durable, lock-protected container for a document of type T.
// T must round-trip through JSON; its zero value is the default document.
type Store[T any] struct {
	mu        sync.RWMutex
	backend   Backend
	value     T
	name      string
	onFailure func(error)
}

// Option configures a Store.
type Option func(*options)

type options struct {
	name      string
	onFailure func(error)
}

// WithName sets the name used in logs and metrics. Defaults to the backend description.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithFailureHandler replaces the handler called when a write fails.
// The default handler logs at fatal level, which exits the process.
func WithFailureHandler(fn func(error)) Option {
	return func(o *options) {
		o.onFailure = fn
	}
}

// Open loads the document from backend. A missing document yields the zero
// value of T; an unreadable or malformed document is an error.
func Open[T any](backend Backend, opts ...Option) (*Store[T], error) {
	o := options{name: backend.String()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[T]{
		backend:   backend,
		name:      o.name,
		onFailure: o.onFailure,
	}
	if s.onFailure == nil {
		name := s.name
		s.onFailure = func(err error) {
			logging.Fatal().Err(err).Str("store", name).Msg("Failed to persist state")
		}
	}

	data, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.name, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.name, err)
		}
	}

	logging.Debug().
		Str("store", s.name).
		Int("bytes", len(data)).
		Msg("State document loaded")

	return s, nil
}

// Name returns the store name.
func (s *Store[T]) Name() string {
	return s.name
}

// View calls fn with a live view of the document under the read lock.
// fn must not retain v or anything reachable from it after returning.
func (s *Store[T]) View(fn func(v *T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.value)
}

// Update applies fn under the write lock and persists the document if fn changed it.
func (s *Store[T]) Update(fn func(v *T)) {
	Mutate(s, func(v *T) struct{} {
		fn(v)
		return struct{}{}
	})
}

// Read calls fn with a live view of the document under the read lock and
// returns its result. fn must copy out whatever it needs.
func Read[T, R any](s *Store[T], fn func(v *T) R) R {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.value)
}

// Mutate applies fn to the document under the write lock. When the resulting
// document differs from the one before fn ran, the whole document is
// serialized and written to the backend before the lock is released.
// fn's result is returned whether or not a write happened.
func Mutate[T, R any](s *Store[T], fn func(v *T) R) R {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := clone(&s.value)
	if err != nil {
		s.onFailure(fmt.Errorf("snapshot %s: %w", s.name, err))
		return fn(&s.value)
	}

	result := fn(&s.value)

	if cmp.Equal(before, s.value, cmpopts.EquateEmpty()) {
		metrics.RecordStoreWrite(s.name, false)
		return result
	}

	data, err := json.Marshal(&s.value)
	if err != nil {
		s.onFailure(fmt.Errorf("encode %s: %w", s.name, err))
		return result
	}
	if err := s.backend.Save(data); err != nil {
		s.onFailure(fmt.Errorf("save %s: %w", s.name, err))
		return result
	}

	metrics.RecordStoreWrite(s.name, true)
	return result
}

// clone deep-copies v through its JSON form, which is exactly the state that
// would be persisted.
func clone[T any](v *T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
