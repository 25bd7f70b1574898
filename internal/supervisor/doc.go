// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

/*
Package supervisor provides process supervision for Rolekeeper using suture v4.

# Overview

Long-running services are grouped into two layers:

	RootSupervisor ("rolekeeper")
	├── GatewaySupervisor ("gateway-layer")
	│   └── GatewayService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if server.enabled)

A gateway that fails to open or reports a fatal session error is restarted
with suture's backoff; the HTTP layer keeps serving /healthz meanwhile.

# Logging

Supervisor events go through sutureslog into the zerolog-backed slog
handler from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg)

# Shutdown

Canceling the context passed to Serve stops every service. Services that
outlive TreeConfig.ShutdownTimeout are listed by UnstoppedServiceReport.
*/
package supervisor
