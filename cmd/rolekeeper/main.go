// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

// Package main is the entry point for the Rolekeeper Discord bot.
//
// # Commands
//
//	rolekeeper serve                          connect to Discord and run until SIGINT/SIGTERM
//	rolekeeper state show registry|persisted  print a state document as JSON
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (DISCORD_TOKEN, REACTION_ROLES_PATH, ...)
//   - Config file (--config, $CONFIG_PATH or rolekeeper.yaml)
//   - Built-in defaults
//
// The bot needs the privileged Server Members and Message Content intents.
//
// # Example Usage
//
//	export DISCORD_TOKEN=your-bot-token
//	export BAN_PATTERNS='(?i)free nitro'
//	./rolekeeper serve
//
// Docker:
//
//	docker run -d \
//	  -e DISCORD_TOKEN=your-bot-token \
//	  -e HTTP_LISTEN=0.0.0.0:9464 \
//	  -v rolekeeper-data:/data -w /data \
//	  ghcr.io/tomtom215/rolekeeper serve
package main

import (
	"fmt"
	"os"

	"github.com/tomtom215/rolekeeper/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
