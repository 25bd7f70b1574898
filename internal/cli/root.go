// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package cli holds the rolekeeper command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "rolekeeper"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Rolekeeper - reaction roles and persisted roles for Discord",
		Long:          "Rolekeeper grants roles from reactions on selector messages and restores tracked roles to members who rejoin.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "config file (default: $CONFIG_PATH or rolekeeper.yaml)")

	cmd.AddCommand(
		NewServeCmd(),
		NewStateCmd(),
	)
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd(Version).Execute()
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
