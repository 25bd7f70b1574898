// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package cli

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/rolekeeper/internal/config"
	"github.com/tomtom215/rolekeeper/internal/logging"
	"github.com/tomtom215/rolekeeper/internal/persistent"
	"github.com/tomtom215/rolekeeper/internal/persistroles"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
)

// Store names double as badger keys and metric labels.
const (
	registryStoreName  = "reaction_roles"
	persistedStoreName = "persistent_roles"
)

// stores holds both state documents and whatever backs them.
type stores struct {
	registry  *persistent.Store[reactionroles.Registry]
	persisted *persistent.Store[persistroles.State]
	db        *badger.DB
}

// Close releases the badger database, if any.
func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// backends returns the registry and persisted-role backends for cfg. The
// returned database is nil for the file backend.
func backends(cfg config.StorageConfig) (registry, persisted persistent.Backend, db *badger.DB, err error) {
	switch cfg.Backend {
	case config.BackendBadger:
		db, err = persistent.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return persistent.NewBadgerBackend(db, registryStoreName),
			persistent.NewBadgerBackend(db, persistedStoreName),
			db, nil
	default:
		return persistent.NewFileBackend(cfg.RegistryPath),
			persistent.NewFileBackend(cfg.PersistedPath),
			nil, nil
	}
}

// openStores loads both documents. A write failure exits the process unless
// FatalOnWriteError is off, in which case it is only logged and the
// in-memory state stays ahead of the stored one.
func openStores(cfg config.StorageConfig) (*stores, error) {
	registryBackend, persistedBackend, db, err := backends(cfg)
	if err != nil {
		return nil, err
	}
	s := &stores{db: db}

	opts := func(name string) []persistent.Option {
		opts := []persistent.Option{persistent.WithName(name)}
		if !cfg.FatalOnWriteError {
			opts = append(opts, persistent.WithFailureHandler(func(err error) {
				logging.Error().Err(err).Str("store", name).Msg("Failed to persist state")
			}))
		}
		return opts
	}

	s.registry, err = persistent.Open[reactionroles.Registry](registryBackend, opts(registryStoreName)...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open reaction role registry: %w", err)
	}
	s.persisted, err = persistent.Open[persistroles.State](persistedBackend, opts(persistedStoreName)...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open persisted roles: %w", err)
	}
	return s, nil
}
