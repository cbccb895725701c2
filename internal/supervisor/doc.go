// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package supervisor runs Trinity's long-lived services under suture v4.

# Overview

Services are grouped into three layers so that a failure in one restarts
only that layer:

	RootSupervisor ("trinity")
	├── DataSupervisor ("data-layer")
	│   └── MaintenanceService (value-log GC, tally reconciliation)
	├── MessagingSupervisor ("messaging-layer")
	│   └── events.Recorder (observer events into the activity log)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (restarts, backoff, timeouts) are logged through sutureslog
into the zerolog pipeline via logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(),
	    supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewMaintenanceService(st, reconciler, maintCfg))
	tree.AddMessagingService(recorder)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Supervisor.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

Once Serve returns, UnstoppedServiceReport names any service that ignored the
shutdown timeout.

# Configuration

TreeConfig zero values take suture's defaults: a failure threshold of 5, a
decay of 30 seconds, a backoff of 15 seconds and a shutdown timeout of 10
seconds.
*/
package supervisor
