// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/rolekeeper/internal/config"
	"github.com/tomtom215/rolekeeper/internal/persistent"
	"github.com/tomtom215/rolekeeper/internal/persistroles"
	"github.com/tomtom215/rolekeeper/internal/reactionroles"
)

// Document names accepted by state show.
const (
	docRegistry  = "registry"
	docPersisted = "persisted"
)

// NewStateCmd returns the state inspection commands.
func NewStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect stored state",
	}
	cmd.AddCommand(newStateShowCmd())
	return cmd
}

func newStateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show registry|persisted",
		Short:     "Print a state document as indented JSON",
		Long:      "Print the reaction role registry or the persisted role state. The bot must not be running when the badger backend is used.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{docRegistry, docPersisted},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath(cmd))
			if err != nil {
				return err
			}
			return showState(cmd.OutOrStdout(), cfg.Storage, args[0])
		},
	}
}

// showState decodes the document through its typed store so a corrupt
// document fails here the way it would at startup.
func showState(w io.Writer, cfg config.StorageConfig, doc string) error {
	registryBackend, persistedBackend, db, err := backends(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	var out []byte
	switch doc {
	case docRegistry:
		out, err = indent[reactionroles.Registry](registryBackend, registryStoreName)
	case docPersisted:
		out, err = indent[persistroles.State](persistedBackend, persistedStoreName)
	default:
		return fmt.Errorf("unknown document %q (want %s or %s)", doc, docRegistry, docPersisted)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func indent[T any](backend persistent.Backend, name string) ([]byte, error) {
	store, err := persistent.Open[T](backend, persistent.WithName(name))
	if err != nil {
		return nil, err
	}
	var data []byte
	store.View(func(v *T) {
		data, err = json.MarshalIndent(v, "", "  ")
	})
	return data, err
}
